package persistence

import (
	"fmt"
	"strings"

	"github.com/iota-uz/vault-import/modules/vault/domain/reference"
)

const (
	tableSourceSystems  = "source_systems"
	tableDepartments    = "departments"
	tablePersons        = "persons"
	tableContracts      = "contracts"
	tablePersonOverview = "person_overview"
)

// Tables lists every table in dependency order, masters first.
func Tables() []string {
	out := []string{tableSourceSystems}
	for _, k := range reference.Kinds {
		out = append(out, k.Table())
	}
	return append(out, tableDepartments, tablePersons, tableContracts, tablePersonOverview)
}

var contractColumns = func() []string {
	cols := []string{
		"external_id", "person_external_id", "source", "is_primary",
		"start_date", "end_date", "position", "workload",
		"department_external_id", "manager_external_id",
	}
	for _, k := range reference.Kinds {
		cols = append(cols, k.Column())
	}
	return cols
}()

// Schema returns the bootstrap DDL. Foreign keys are not declared: orphaned
// references must be loadable so they can be reported.
func Schema(d Dialect) []string {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS source_systems (
	id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	identification_key TEXT NOT NULL DEFAULT ''
)`,
	}
	for _, k := range reference.Kinds {
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	external_id TEXT NOT NULL,
	code TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	source TEXT NOT NULL,
	PRIMARY KEY (external_id, source)
)`, k.Table()))
	}
	stmts = append(stmts,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS departments (
	external_id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	code TEXT NOT NULL DEFAULT '',
	parent_external_id TEXT,
	manager_external_id TEXT,
	custom_fields %s
)`, d.JSONType()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS persons (
	external_id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	primary_contract_external_id TEXT,
	primary_manager_external_id TEXT,
	custom_fields %s
)`, d.JSONType()),
	)

	fks := make([]string, 0, len(reference.Kinds))
	for _, k := range reference.Kinds {
		fks = append(fks, fmt.Sprintf("\t%s TEXT,", k.Column()))
	}
	stmts = append(stmts,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS contracts (
	external_id TEXT PRIMARY KEY,
	person_external_id TEXT,
	source TEXT NOT NULL,
	is_primary %s NOT NULL DEFAULT %s,
	start_date TEXT,
	end_date TEXT,
	position TEXT NOT NULL DEFAULT '',
	workload %s,
	department_external_id TEXT,
	manager_external_id TEXT,
%s
	custom_fields %s
)`, d.BoolType(), falseLiteral(d), d.DecimalType(), strings.Join(fks, "\n"), d.JSONType()),
		`CREATE INDEX IF NOT EXISTS contracts_person_idx ON contracts (person_external_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS person_overview (
	person_external_id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	primary_contract_external_id TEXT,
	primary_manager_external_id TEXT,
	contract_count INTEGER NOT NULL DEFAULT 0,
	refreshed_at %s
)`, d.TimestampType()),
	)
	return stmts
}

func falseLiteral(d Dialect) string {
	if d.BoolType() == "BOOLEAN" {
		return "FALSE"
	}
	return "0"
}
