package store

import (
	"context"
	"io"

	"github.com/iota-uz/vault-import/modules/vault/domain/contract"
	"github.com/iota-uz/vault-import/modules/vault/domain/customfield"
	"github.com/iota-uz/vault-import/modules/vault/domain/department"
	"github.com/iota-uz/vault-import/modules/vault/domain/manager"
	"github.com/iota-uz/vault-import/modules/vault/domain/reference"
)

type SourceSystem struct {
	ID                string
	DisplayName       string
	IdentificationKey string
}

type Person struct {
	ExternalID                string
	FirstName                 string
	LastName                  string
	Email                     string
	PrimaryContractExternalID string
	PrimaryManagerExternalID  string
}

// Orphan is a persisted contract reference with no master row under the same source.
type Orphan struct {
	Kind               reference.Kind
	ContractExternalID string
	ExternalID         string
	Source             string
}

type OrphanReport struct {
	Count   int
	Samples []Orphan
}

// Tx holds the write operations. They join the transaction carried by ctx when
// called inside InTx.
type Tx interface {
	// InsertOrIgnoreSourceSystem reports whether a row was inserted.
	InsertOrIgnoreSourceSystem(ctx context.Context, s SourceSystem) (bool, error)
	InsertReferences(ctx context.Context, kind reference.Kind, batch []reference.Entity) (int, error)
	// InsertDepartments expects parents before children.
	InsertDepartments(ctx context.Context, batch []department.Department) (int, error)
	InsertPersons(ctx context.Context, batch []Person) (int, error)
	InsertContracts(ctx context.Context, batch []contract.Mapped) (int, error)
	// UpsertCustomFieldValue merges one key into the row's custom field document.
	UpsertCustomFieldValue(ctx context.Context, entity customfield.Entity, id, key string, v customfield.Value) error
	// BackfillCustomField sets key to def on every row that lacks it.
	BackfillCustomField(ctx context.Context, entity customfield.Entity, key string, def customfield.Value) (int, error)
	// RefreshDerivedCache recomputes the person_overview row of one person. Idempotent.
	RefreshDerivedCache(ctx context.Context, personID string) error
}

// Store is the persistence boundary of the importer.
type Store interface {
	Tx
	manager.Reader

	HasData(ctx context.Context) (bool, error)
	CreateSchema(ctx context.Context) error
	// InTx runs fn in a transaction that is committed when fn returns nil and
	// rolled back on every other path.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindOrphans(ctx context.Context, kind reference.Kind, limit int) (OrphanReport, error)
	Dump(ctx context.Context, w io.Writer) error
	DeleteAll(ctx context.Context) error
	Counts(ctx context.Context) (map[string]int, error)
}
