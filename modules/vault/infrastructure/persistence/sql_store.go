package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/vault-import/modules/vault/domain/contract"
	"github.com/iota-uz/vault-import/modules/vault/domain/customfield"
	"github.com/iota-uz/vault-import/modules/vault/domain/department"
	"github.com/iota-uz/vault-import/modules/vault/domain/manager"
	"github.com/iota-uz/vault-import/modules/vault/domain/reference"
	"github.com/iota-uz/vault-import/modules/vault/domain/store"
	"github.com/iota-uz/vault-import/pkg/composables"
)

// SQLStore implements store.Store on database/sql for every supported dialect.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

var _ store.Store = (*SQLStore)(nil)

func New(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) DB() *sql.DB       { return s.db }
func (s *SQLStore) Dialect() Dialect { return s.dialect }

func (s *SQLStore) q(ctx context.Context) composables.Querier {
	if tx, err := composables.UseTx(ctx); err == nil {
		return tx
	}
	return s.db
}

func (s *SQLStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return composables.InTxOn(ctx, s.db, fn)
}

func (s *SQLStore) CreateSchema(ctx context.Context) error {
	return s.InTx(ctx, func(txCtx context.Context) error {
		for _, stmt := range Schema(s.dialect) {
			if _, err := s.q(txCtx).ExecContext(txCtx, stmt); err != nil {
				return wrap("create schema", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) HasData(ctx context.Context) (bool, error) {
	for _, table := range Tables() {
		var one int
		err := s.q(ctx).QueryRowContext(ctx, fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", table)).Scan(&one)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, sql.ErrNoRows):
			continue
		default:
			return false, wrap("check existing data", err)
		}
	}
	return false, nil
}

func (s *SQLStore) Counts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, table := range Tables() {
		var n int
		if err := s.q(ctx).QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
			return nil, wrap("count "+table, err)
		}
		out[table] = n
	}
	return out, nil
}

func (s *SQLStore) exec(ctx context.Context, op, query string, args ...any) (int, error) {
	res, err := s.q(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap(op, err)
	}
	return int(n), nil
}

func (s *SQLStore) InsertOrIgnoreSourceSystem(ctx context.Context, sys store.SourceSystem) (bool, error) {
	query := s.dialect.InsertIgnore(tableSourceSystems, []string{"id", "display_name", "identification_key"})
	n, err := s.exec(ctx, "insert source system", query, sys.ID, sys.DisplayName, sys.IdentificationKey)
	return n > 0, err
}

func (s *SQLStore) InsertReferences(ctx context.Context, kind reference.Kind, batch []reference.Entity) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("insert references: unknown kind %q", kind)
	}
	query := s.dialect.InsertIgnore(kind.Table(), []string{"external_id", "code", "name", "source"})
	created := 0
	for _, e := range batch {
		n, err := s.exec(ctx, "insert "+kind.Table(), query, e.ExternalID, e.Code, e.Name, e.Source)
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

func (s *SQLStore) InsertDepartments(ctx context.Context, batch []department.Department) (int, error) {
	query := s.dialect.InsertIgnore(tableDepartments, []string{
		"external_id", "display_name", "code", "parent_external_id", "manager_external_id",
	})
	created := 0
	for _, d := range batch {
		n, err := s.exec(ctx, "insert departments", query,
			d.ExternalID, d.DisplayName, d.Code, nullable(d.ParentExternalID), nullable(d.ManagerExternalID))
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

func (s *SQLStore) InsertPersons(ctx context.Context, batch []store.Person) (int, error) {
	query := s.dialect.InsertIgnore(tablePersons, []string{
		"external_id", "first_name", "last_name", "email",
		"primary_contract_external_id", "primary_manager_external_id",
	})
	created := 0
	for _, p := range batch {
		n, err := s.exec(ctx, "insert persons", query,
			p.ExternalID, p.FirstName, p.LastName, p.Email,
			nullable(p.PrimaryContractExternalID), nullable(p.PrimaryManagerExternalID))
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

func (s *SQLStore) InsertContracts(ctx context.Context, batch []contract.Mapped) (int, error) {
	query := s.dialect.InsertIgnore(tableContracts, contractColumns)
	created := 0
	for _, c := range batch {
		args := []any{
			c.ExternalID, nullable(c.PersonExternalID), c.Source, c.IsPrimary,
			nullable(c.StartDate), nullable(c.EndDate), c.Position, c.Workload,
			nullable(c.DepartmentExternalID), nullable(c.ManagerExternalID),
		}
		for _, k := range reference.Kinds {
			args = append(args, nullable(c.References[k]))
		}
		n, err := s.exec(ctx, "insert contracts", query, args...)
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

func (s *SQLStore) UpsertCustomFieldValue(ctx context.Context, entity customfield.Entity, id, key string, v customfield.Value) error {
	table := entity.Table()
	if table == "" {
		return fmt.Errorf("upsert custom field: unknown entity %q", entity)
	}
	if err := customfield.ValidateKey(key); err != nil {
		return fmt.Errorf("upsert custom field: %w", err)
	}
	raw, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("upsert custom field %s: %w", key, err)
	}
	_, err = s.exec(ctx, "upsert custom field", s.dialect.MergeCustomField(table), key, string(raw), id)
	return err
}

func (s *SQLStore) BackfillCustomField(ctx context.Context, entity customfield.Entity, key string, def customfield.Value) (int, error) {
	table := entity.Table()
	if table == "" {
		return 0, fmt.Errorf("backfill custom field: unknown entity %q", entity)
	}
	if err := customfield.ValidateKey(key); err != nil {
		return 0, fmt.Errorf("backfill custom field: %w", err)
	}
	raw, err := def.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("backfill custom field %s: %w", key, err)
	}
	return s.exec(ctx, "backfill custom field", s.dialect.BackfillCustomField(table), key, string(raw))
}

const refreshOverviewQuery = `INSERT INTO person_overview (
	person_external_id, display_name, email,
	primary_contract_external_id, primary_manager_external_id,
	contract_count, refreshed_at
)
SELECT
	p.external_id,
	TRIM(p.first_name || ' ' || p.last_name),
	p.email,
	p.primary_contract_external_id,
	p.primary_manager_external_id,
	(SELECT COUNT(*) FROM contracts c WHERE c.person_external_id = p.external_id),
	CURRENT_TIMESTAMP
FROM persons p
WHERE p.external_id = ?
ON CONFLICT (person_external_id) DO UPDATE SET
	display_name = excluded.display_name,
	email = excluded.email,
	primary_contract_external_id = excluded.primary_contract_external_id,
	primary_manager_external_id = excluded.primary_manager_external_id,
	contract_count = excluded.contract_count,
	refreshed_at = excluded.refreshed_at`

func (s *SQLStore) RefreshDerivedCache(ctx context.Context, personID string) error {
	_, err := s.exec(ctx, "refresh person overview", s.dialect.Rebind(refreshOverviewQuery), personID)
	return err
}

func (s *SQLStore) FindOrphans(ctx context.Context, kind reference.Kind, limit int) (store.OrphanReport, error) {
	if !kind.Valid() {
		return store.OrphanReport{}, fmt.Errorf("find orphans: unknown kind %q", kind)
	}
	where := fmt.Sprintf(
		"c.%[1]s IS NOT NULL AND NOT EXISTS (SELECT 1 FROM %[2]s r WHERE r.external_id = c.%[1]s AND r.source = c.source)",
		kind.Column(), kind.Table(),
	)
	var report store.OrphanReport
	countQuery := "SELECT COUNT(*) FROM contracts c WHERE " + where
	if err := s.q(ctx).QueryRowContext(ctx, countQuery).Scan(&report.Count); err != nil {
		return report, wrap("count orphans", err)
	}
	if report.Count == 0 || limit <= 0 {
		return report, nil
	}

	query := s.dialect.Rebind(fmt.Sprintf(
		"SELECT c.external_id, c.%s, c.source FROM contracts c WHERE %s ORDER BY c.external_id LIMIT ?",
		kind.Column(), where,
	))
	rows, err := s.q(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return report, wrap("list orphans", err)
	}
	defer rows.Close()
	for rows.Next() {
		o := store.Orphan{Kind: kind}
		if err := rows.Scan(&o.ContractExternalID, &o.ExternalID, &o.Source); err != nil {
			return report, wrap("scan orphan", err)
		}
		report.Samples = append(report.Samples, o)
	}
	return report, wrap("list orphans", rows.Err())
}

const sampleSubjectsQuery = `SELECT
	p.external_id,
	p.primary_manager_external_id,
	COALESCE(c.manager_external_id, ''),
	COALESCE(c.department_external_id, '')
FROM persons p
LEFT JOIN contracts c ON c.external_id = p.primary_contract_external_id
WHERE p.primary_manager_external_id IS NOT NULL AND p.primary_manager_external_id <> ''
ORDER BY p.external_id
LIMIT ?`

func (s *SQLStore) SampleManagerSubjects(ctx context.Context, limit int) ([]manager.Subject, error) {
	rows, err := s.q(ctx).QueryContext(ctx, s.dialect.Rebind(sampleSubjectsQuery), limit)
	if err != nil {
		return nil, wrap("sample manager subjects", err)
	}
	defer rows.Close()
	var out []manager.Subject
	for rows.Next() {
		var subj manager.Subject
		if err := rows.Scan(&subj.PersonExternalID, &subj.RecordedManager, &subj.ContractManager, &subj.DepartmentExternalID); err != nil {
			return nil, wrap("scan manager subject", err)
		}
		out = append(out, subj)
	}
	return out, wrap("sample manager subjects", rows.Err())
}

func (s *SQLStore) DepartmentHierarchy(ctx context.Context) (manager.Hierarchy, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		"SELECT external_id, COALESCE(parent_external_id, ''), COALESCE(manager_external_id, '') FROM departments")
	if err != nil {
		return nil, wrap("load department hierarchy", err)
	}
	defer rows.Close()
	h := make(manager.Hierarchy)
	for rows.Next() {
		var id string
		var n manager.Node
		if err := rows.Scan(&id, &n.ParentExternalID, &n.ManagerExternalID); err != nil {
			return nil, wrap("scan department", err)
		}
		h[id] = n
	}
	return h, wrap("load department hierarchy", rows.Err())
}

// DeleteAll removes every imported row, dependants first, in one transaction.
func (s *SQLStore) DeleteAll(ctx context.Context) error {
	tables := Tables()
	return s.InTx(ctx, func(txCtx context.Context) error {
		logger := composables.UseLogger(txCtx)
		for i := len(tables) - 1; i >= 0; i-- {
			n, err := s.exec(txCtx, "delete "+tables[i], "DELETE FROM "+tables[i])
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{"table": tables[i], "rows": n}).Debug("cleared table")
		}
		return nil
	})
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
