package manager

import (
	"context"
	"fmt"
)

const DefaultSampleSize = 100

// Reader is the read-only view of persisted data the detector samples.
type Reader interface {
	SampleManagerSubjects(ctx context.Context, limit int) ([]Subject, error)
	DepartmentHierarchy(ctx context.Context) (Hierarchy, error)
}

// Preferences stores the last detected rule between runs.
type Preferences interface {
	// ManagerRule returns Undetermined when nothing was stored yet.
	ManagerRule(ctx context.Context) (Rule, error)
	SetManagerRule(ctx context.Context, rule Rule) error
}

// Detection is the outcome of one detector run.
type Detection struct {
	Rule              Rule
	SampleSize        int
	ContractMatches   int
	DepartmentMatches int
	// TieBreakApplied is set when both rules matched equally often and the
	// configured tie-break rule was reported.
	TieBreakApplied bool
	Persisted       bool
}

type Detector struct {
	reader     Reader
	prefs      Preferences
	sampleSize int
	tieBreak   Rule
}

type Option func(*Detector)

func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithTieBreak sets the rule reported when both rules match equally often.
func WithTieBreak(r Rule) Option {
	return func(d *Detector) {
		if r.Determinate() {
			d.tieBreak = r
		}
	}
}

// NewDetector builds a detector. prefs may be nil, in which case results are not persisted.
func NewDetector(reader Reader, prefs Preferences, opts ...Option) *Detector {
	d := &Detector{
		reader:     reader,
		prefs:      prefs,
		sampleSize: DefaultSampleSize,
		tieBreak:   DepartmentBased,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect samples persons with a recorded primary manager and infers which rule
// produced the recorded values. It never writes person or contract data.
func (d *Detector) Detect(ctx context.Context) (Detection, error) {
	subjects, err := d.reader.SampleManagerSubjects(ctx, d.sampleSize)
	if err != nil {
		return Detection{}, fmt.Errorf("sample manager subjects: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Detection{}, err
	}
	hierarchy, err := d.reader.DepartmentHierarchy(ctx)
	if err != nil {
		return Detection{}, fmt.Errorf("load department hierarchy: %w", err)
	}

	det := Tally(subjects, hierarchy)
	switch {
	case det.ContractMatches > det.DepartmentMatches:
		det.Rule = ContractBased
	case det.DepartmentMatches > det.ContractMatches:
		det.Rule = DepartmentBased
	case det.ContractMatches == 0:
		det.Rule = Undetermined
	default:
		det.Rule = d.tieBreak
		det.TieBreakApplied = true
	}

	if det.Rule.Determinate() && d.prefs != nil {
		if err := d.prefs.SetManagerRule(ctx, det.Rule); err != nil {
			return det, fmt.Errorf("persist manager rule: %w", err)
		}
		det.Persisted = true
	}
	return det, nil
}

// Tally counts, for each rule, the subjects whose recorded manager it reproduces.
func Tally(subjects []Subject, h Hierarchy) Detection {
	det := Detection{Rule: Undetermined, SampleSize: len(subjects)}
	for _, s := range subjects {
		if s.RecordedManager == "" {
			continue
		}
		if Compute(ContractBased, s, h) == s.RecordedManager {
			det.ContractMatches++
		}
		if Compute(DepartmentBased, s, h) == s.RecordedManager {
			det.DepartmentMatches++
		}
	}
	return det
}
