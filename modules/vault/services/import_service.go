package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/vault-import/modules/vault/domain/department"
	"github.com/iota-uz/vault-import/modules/vault/domain/document"
	"github.com/iota-uz/vault-import/modules/vault/domain/manager"
	"github.com/iota-uz/vault-import/modules/vault/domain/reference"
	"github.com/iota-uz/vault-import/modules/vault/domain/store"
	"github.com/iota-uz/vault-import/pkg/composables"
	"github.com/iota-uz/vault-import/pkg/configuration"
	"github.com/iota-uz/vault-import/pkg/logging"
	"github.com/iota-uz/vault-import/pkg/metrics"
	"github.com/iota-uz/vault-import/pkg/serrors"
)

const (
	ModeFull        = "full"
	ModeCompanyOnly = "company_only"
)

// BackupService snapshots and clears the store. Both operations are opaque to the importer.
type BackupService interface {
	BackupStore(ctx context.Context) (string, error)
	DeleteStore(ctx context.Context) error
}

// ImportService sequences an import run. One service may serve many runs, but a run
// is processed by a single goroutine from start to end.
type ImportService struct {
	store   store.Store
	backup  BackupService
	prefs   manager.Preferences
	opts    configuration.ImportOptions
	metrics *metrics.Import
	logger  *logrus.Entry
	tracer  trace.Tracer
}

type Option func(*ImportService)

func WithImportOptions(opts configuration.ImportOptions) Option {
	return func(s *ImportService) { s.opts = opts }
}

func WithMetrics(m *metrics.Import) Option {
	return func(s *ImportService) { s.metrics = m }
}

func WithLogger(l *logrus.Entry) Option {
	return func(s *ImportService) { s.logger = l }
}

func NewImportService(st store.Store, backup BackupService, prefs manager.Preferences, opts ...Option) *ImportService {
	s := &ImportService{
		store:  st,
		backup: backup,
		prefs:  prefs,
		opts: configuration.ImportOptions{
			BatchSize:           500,
			OrphanSampleLimit:   50,
			DetectorSampleSize:  manager.DefaultSampleSize,
			ManagerRuleHint:     string(manager.DepartmentBased),
			ManagerRuleTieBreak: string(manager.DepartmentBased),
		},
		metrics: metrics.UseImport(),
		logger:  logging.Nop(),
		tracer:  otel.Tracer("github.com/iota-uz/vault-import/modules/vault/services"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasData reports whether the store holds any imported rows.
func (s *ImportService) HasData(ctx context.Context) (bool, error) {
	if err := s.store.CreateSchema(ctx); err != nil {
		return false, err
	}
	return s.store.HasData(ctx)
}

// DetectPrimaryManagerRule infers the rule behind previously imported primary managers
// and stores a determinate result as the new preference.
func (s *ImportService) DetectPrimaryManagerRule(ctx context.Context) (manager.Detection, error) {
	if err := s.store.CreateSchema(ctx); err != nil {
		return manager.Detection{}, err
	}
	return s.detector().Detect(ctx)
}

func (s *ImportService) detector() *manager.Detector {
	tieBreak, _ := manager.ParseRule(s.opts.ManagerRuleTieBreak)
	return manager.NewDetector(s.store, s.prefs,
		manager.WithSampleSize(s.opts.DetectorSampleSize),
		manager.WithTieBreak(tieBreak),
	)
}

// Import loads persons, contracts, departments and reference data.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) ImportResult {
	return s.run(ctx, req, ModeFull)
}

// ImportCompanyOnly loads reference and department data only. Persons and contracts
// are read for their references but not persisted.
func (s *ImportService) ImportCompanyOnly(ctx context.Context, req ImportRequest) ImportResult {
	req.DetectManagerRule = false
	return s.run(ctx, req, ModeCompanyOnly)
}

type importRun struct {
	*ImportService
	req      ImportRequest
	mode     string
	res      *ImportResult
	log      *logrus.Entry
	progress func(int, string)
}

func (s *ImportService) run(ctx context.Context, req ImportRequest, mode string) ImportResult {
	res := &ImportResult{
		RunID:   uuid.NewString(),
		Mode:    mode,
		Created: make(map[string]int),
		Orphans: make(map[reference.Kind]int),
	}
	res.enter(StateIdle)
	r := &importRun{
		ImportService: s,
		req:           req,
		mode:          mode,
		res:           res,
		log:           s.logger.WithFields(logrus.Fields{"run_id": res.RunID, "mode": mode}),
		progress:      monotonic(req.Observer),
	}

	ctx = composables.WithLogger(ctx, r.log)
	ctx, span := s.tracer.Start(ctx, "vault.import", trace.WithAttributes(
		attribute.String("run_id", res.RunID),
		attribute.String("mode", mode),
	))
	start := time.Now()
	err := r.execute(ctx)
	res.Duration = time.Since(start)
	r.finish(err)
	if err != nil && !res.Cancelled {
		span.RecordError(err)
		span.SetStatus(codes.Error, res.ErrorMessage)
	}
	span.End()
	return *res
}

func (r *importRun) execute(ctx context.Context) error {
	r.progress(0, "Starting import")
	companyOnly := r.mode == ModeCompanyOnly

	var plan *importPlan
	err := r.stage(ctx, "prepare", func(ctx context.Context) error {
		doc := r.req.Document
		if doc == nil {
			loaded, err := document.Load(r.req.DocumentPath)
			if err != nil {
				return err
			}
			doc = loaded
		}
		if err := doc.Validate(companyOnly); err != nil {
			return err
		}
		if !companyOnly {
			r.res.ContractsProcessed = doc.ContractCount()
		}
		r.progress(5, "Resolving references")
		rule, err := r.recordingRule(ctx)
		if err != nil {
			return err
		}
		plan, err = buildPlan(doc, companyOnly, rule)
		return err
	})
	if err != nil {
		return err
	}
	r.res.ResolutionGaps = plan.gaps

	if err := r.checkExisting(ctx); err != nil {
		return err
	}

	r.res.enter(StateLoading)
	if err := r.stage(ctx, "load", func(ctx context.Context) error { return r.load(ctx, plan) }); err != nil {
		return err
	}

	r.res.enter(StateValidating)
	r.progress(85, "Validating references")
	if err := r.stage(ctx, "validate", func(ctx context.Context) error { return r.validate(ctx, plan) }); err != nil {
		return err
	}

	if r.req.DetectManagerRule || (r.opts.DetectAfterImport && !companyOnly) {
		r.res.enter(StateDetectingManagerLogic)
		r.progress(95, "Detecting manager rule")
		err := r.stage(ctx, "detect_manager", func(ctx context.Context) error {
			det, err := r.detector().Detect(ctx)
			if err != nil {
				return err
			}
			r.res.ManagerRule = det.Rule
			r.res.ManagerRuleDefaulted = det.TieBreakApplied
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// recordingRule picks the rule used to record primary managers for this run.
func (r *importRun) recordingRule(ctx context.Context) (manager.Rule, error) {
	if r.req.ManagerRuleHint.Determinate() {
		return r.req.ManagerRuleHint, nil
	}
	if r.prefs != nil {
		stored, err := r.prefs.ManagerRule(ctx)
		if err != nil {
			r.log.WithError(err).Warn("failed to read stored manager rule, using configured default")
		} else if stored.Determinate() {
			return stored, nil
		}
	}
	rule, err := manager.ParseRule(r.opts.ManagerRuleHint)
	if err != nil || !rule.Determinate() {
		return manager.DepartmentBased, nil
	}
	return rule, nil
}

func (r *importRun) checkExisting(ctx context.Context) error {
	r.res.enter(StateCheckingExistingData)
	r.progress(10, "Checking existing data")

	var hasData bool
	err := r.stage(ctx, "check_existing", func(ctx context.Context) error {
		if err := r.store.CreateSchema(ctx); err != nil {
			return err
		}
		var err error
		hasData, err = r.store.HasData(ctx)
		return err
	})
	if err != nil || !hasData {
		return err
	}

	decision := Abort
	if r.req.Decide != nil {
		decision, err = r.req.Decide(ctx)
		if err != nil {
			return fmt.Errorf("obtain overwrite decision: %w", err)
		}
	}
	r.log.WithField("decision", decision).Info("store already holds data")

	switch decision {
	case OverwriteWithBackup:
		r.res.enter(StateBackingUp)
		r.progress(15, "Backing up existing data")
		err := r.stage(ctx, "backup", func(ctx context.Context) error {
			if r.backup == nil {
				return errors.New("no backup service configured")
			}
			path, err := r.backup.BackupStore(ctx)
			if err != nil {
				return err
			}
			r.res.BackupPath = path
			return nil
		})
		if err != nil {
			return err
		}
		return r.overwrite(ctx)
	case OverwriteWithoutBackup:
		return r.overwrite(ctx)
	default:
		r.res.enter(StateAborted)
		return serrors.ErrAborted
	}
}

func (r *importRun) overwrite(ctx context.Context) error {
	r.res.enter(StateOverwriting)
	r.progress(20, "Removing existing data")
	return r.stage(ctx, "overwrite", func(ctx context.Context) error {
		if r.backup != nil {
			return r.backup.DeleteStore(ctx)
		}
		return r.store.DeleteAll(ctx)
	})
}

func (r *importRun) load(ctx context.Context, plan *importPlan) error {
	r.progress(30, "Loading reference data")
	n, err := inBatches(ctx, r.store, plan.sourceSystems, r.opts.BatchSize,
		func(ctx context.Context, batch []store.SourceSystem) (int, error) {
			created := 0
			for _, sys := range batch {
				ok, err := r.store.InsertOrIgnoreSourceSystem(ctx, sys)
				if err != nil {
					return created, err
				}
				if ok {
					created++
				}
			}
			return created, nil
		})
	r.created("source_systems", n)
	if err != nil {
		return err
	}
	for _, kind := range reference.Kinds {
		n, err := inBatches(ctx, r.store, plan.catalog.Canonical(kind), r.opts.BatchSize,
			func(ctx context.Context, batch []reference.Entity) (int, error) {
				return r.store.InsertReferences(ctx, kind, batch)
			})
		r.created(string(kind), n)
		if err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	r.progress(45, "Loading departments")
	n, err = inBatches(ctx, r.store, plan.departments, r.opts.BatchSize, r.store.InsertDepartments)
	r.created("departments", n)
	if err != nil {
		return err
	}

	if r.mode == ModeFull {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.progress(60, "Loading persons and contracts")
		n, err := inBatches(ctx, r.store, plan.persons, r.opts.BatchSize, r.store.InsertPersons)
		r.created("persons", n)
		if err != nil {
			return err
		}
		n, err = inBatches(ctx, r.store, plan.contracts, r.opts.BatchSize, r.store.InsertContracts)
		r.created("contracts", n)
		if err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	r.progress(75, "Applying custom fields")
	if _, err := inBatches(ctx, r.store, plan.fields, r.opts.BatchSize,
		func(ctx context.Context, batch []fieldValue) (int, error) {
			for _, f := range batch {
				if err := r.store.UpsertCustomFieldValue(ctx, f.entity, f.id, f.key, f.value); err != nil {
					return 0, err
				}
			}
			return len(batch), nil
		}); err != nil {
		return err
	}
	for _, def := range plan.definitions {
		if _, err := r.store.BackfillCustomField(ctx, def.Entity, def.Key, def.Default); err != nil {
			return err
		}
	}

	if r.mode == ModeFull {
		_, err := inBatches(ctx, r.store, plan.persons, r.opts.BatchSize,
			func(ctx context.Context, batch []store.Person) (int, error) {
				for _, p := range batch {
					if err := r.store.RefreshDerivedCache(ctx, p.ExternalID); err != nil {
						return 0, err
					}
				}
				return len(batch), nil
			})
		if err != nil {
			return err
		}
	}
	return nil
}

// validate merges post-load orphans with the mapping gaps, whose keys were
// written as null.
func (r *importRun) validate(ctx context.Context, plan *importPlan) error {
	report, err := NewIntegrityValidator(r.store, r.opts.OrphanSampleLimit).Validate(ctx)
	for kind, n := range report.Counts {
		r.res.Orphans[kind] += n
	}
	r.res.OrphanSamples = report.Samples
	if err != nil {
		return err
	}
	for kind, n := range plan.gapCounts {
		r.res.Orphans[kind] += n
	}
	for _, kind := range reference.Kinds {
		r.metrics.SetOrphans(string(kind), r.res.Orphans[kind])
	}
	return nil
}

func (r *importRun) created(key string, n int) {
	r.res.Created[key] += n
	r.metrics.AddCreated(key, n)
}

// stage runs fn in its own span after checking for cancellation.
func (r *importRun) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := r.tracer.Start(ctx, "vault.import."+name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	r.metrics.ObserveStage(name, time.Since(start))
	r.log.WithFields(logrus.Fields{
		"phase":       name,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("stage finished")
	if err != nil && !errors.Is(err, serrors.ErrAborted) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *importRun) finish(err error) {
	res := r.res
	outcome := "success"
	switch {
	case err == nil:
		res.Success = true
		res.enter(StateCompleted)
		r.progress(100, "Completed")
	case errors.Is(err, serrors.ErrAborted):
		outcome = "aborted"
		res.Cancelled = true
		res.ErrorCode = serrors.ErrAborted.Code
		res.ErrorMessage = "Import cancelled: the store already holds data and the caller chose to abort."
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		outcome = "cancelled"
		res.Cancelled = true
		res.ErrorCode = serrors.ErrCancelled.Code
		res.ErrorMessage = "Import cancelled before completion; data loaded so far was kept."
		res.enter(StateFailed)
	default:
		outcome = "failed"
		res.ErrorMessage = userMessage(err)
		res.ErrorCode = serrors.Code(err)
		res.Diagnostic = err.Error()
		var se *store.Error
		if errors.As(err, &se) {
			res.Diagnostic = se.Diagnostic()
		}
		res.enter(StateFailed)
	}
	r.metrics.RunFinished(r.mode, outcome, res.Success)

	entry := r.log.WithFields(logrus.Fields{
		"outcome":     outcome,
		"duration_ms": res.Duration.Milliseconds(),
		"created":     res.Created,
		"orphans":     res.TotalOrphans(),
		"final_state": res.FinalState,
	})
	switch outcome {
	case "success":
		entry.Info("import finished")
	case "failed":
		entry.WithField("diagnostic", res.Diagnostic).Error("import failed")
	default:
		entry.Warn("import stopped")
	}
}

func userMessage(err error) string {
	var cycle *department.CycleError
	switch {
	case errors.As(err, &cycle):
		return fmt.Sprintf("The department hierarchy contains a cycle at %s (%s).", cycle.ExternalID, cycle.DisplayName)
	case errors.Is(err, serrors.ErrStructural):
		return "The import document is invalid: " + err.Error()
	case errors.Is(err, serrors.ErrPersistence):
		return "The database rejected the import; see the diagnostic for details."
	default:
		return "Import failed: " + err.Error()
	}
}

// monotonic wraps obs so reported percentages never decrease.
func monotonic(obs Observer) func(int, string) {
	last := -1
	return func(pct int, phase string) {
		if pct < last {
			pct = last
		}
		last = pct
		if obs != nil {
			obs(Progress{Percent: pct, Phase: phase})
		}
	}
}

// inBatches writes items in batches of size, each in its own transaction. The
// returned count includes batches committed before a failure.
func inBatches[T any](ctx context.Context, st store.Store, items []T, size int, write func(context.Context, []T) (int, error)) (int, error) {
	if size <= 0 {
		size = len(items)
	}
	total := 0
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		var n int
		err := st.InTx(ctx, func(txCtx context.Context) error {
			var err error
			n, err = write(txCtx, items[start:end])
			return err
		})
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
