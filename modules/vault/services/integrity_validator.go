package services

import (
	"context"

	"github.com/iota-uz/vault-import/modules/vault/domain/reference"
	"github.com/iota-uz/vault-import/modules/vault/domain/store"
)

// OrphanFinder is the store query the validator runs per kind.
type OrphanFinder interface {
	FindOrphans(ctx context.Context, kind reference.Kind, limit int) (store.OrphanReport, error)
}

type IntegrityReport struct {
	Counts  map[reference.Kind]int
	Samples []store.Orphan
}

// IntegrityValidator finds persisted contract references with no master row under
// the same source. It runs after load, against committed data.
type IntegrityValidator struct {
	finder      OrphanFinder
	sampleLimit int
}

func NewIntegrityValidator(finder OrphanFinder, sampleLimit int) *IntegrityValidator {
	if sampleLimit < 0 {
		sampleLimit = 0
	}
	return &IntegrityValidator{finder: finder, sampleLimit: sampleLimit}
}

// Validate scans every kind. The sample limit applies across kinds. Cancellation is
// checked between kinds; the partial report is returned with the context error.
func (v *IntegrityValidator) Validate(ctx context.Context) (IntegrityReport, error) {
	report := IntegrityReport{Counts: make(map[reference.Kind]int, len(reference.Kinds))}
	for _, kind := range reference.Kinds {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		remaining := v.sampleLimit - len(report.Samples)
		r, err := v.finder.FindOrphans(ctx, kind, remaining)
		if err != nil {
			return report, err
		}
		report.Counts[kind] = r.Count
		report.Samples = append(report.Samples, r.Samples...)
	}
	return report, nil
}
