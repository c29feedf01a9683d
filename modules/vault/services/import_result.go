package services

import (
	"context"
	"time"

	"github.com/iota-uz/vault-import/modules/vault/domain/contract"
	"github.com/iota-uz/vault-import/modules/vault/domain/document"
	"github.com/iota-uz/vault-import/modules/vault/domain/manager"
	"github.com/iota-uz/vault-import/modules/vault/domain/reference"
	"github.com/iota-uz/vault-import/modules/vault/domain/store"
)

type State string

const (
	StateIdle                  State = "idle"
	StateCheckingExistingData  State = "checking_existing_data"
	StateAborted               State = "aborted"
	StateBackingUp             State = "backing_up"
	StateOverwriting           State = "overwriting"
	StateLoading               State = "loading"
	StateValidating            State = "validating"
	StateDetectingManagerLogic State = "detecting_manager_logic"
	StateCompleted             State = "completed"
	StateFailed                State = "failed"
)

// Decision is the caller's answer when the store already holds data.
type Decision string

const (
	Abort                  Decision = "abort"
	OverwriteWithBackup    Decision = "overwrite_with_backup"
	OverwriteWithoutBackup Decision = "overwrite_without_backup"
)

// DecisionFunc is asked once per run, only when existing data was found.
type DecisionFunc func(ctx context.Context) (Decision, error)

// Decide returns a DecisionFunc that always answers d.
func Decide(d Decision) DecisionFunc {
	return func(context.Context) (Decision, error) { return d, nil }
}

type Progress struct {
	Percent int    `json:"percent"`
	Phase   string `json:"phase"`
}

// Observer receives progress on the goroutine running the import.
type Observer func(Progress)

type ImportRequest struct {
	DocumentPath string
	// Document, when set, is used instead of reading DocumentPath.
	Document *document.Document
	// ManagerRuleHint selects how primary managers are recorded. Undetermined
	// falls back to the stored preference, then to the configured default.
	ManagerRuleHint manager.Rule
	Decide          DecisionFunc
	Observer        Observer
	// DetectManagerRule runs the detector after a successful load.
	DetectManagerRule bool
}

// ImportResult is the single outcome of an import run.
type ImportResult struct {
	RunID     string        `json:"run_id"`
	Mode      string        `json:"mode"`
	Success   bool          `json:"success"`
	Cancelled bool          `json:"cancelled"`
	Duration  time.Duration `json:"duration"`
	// ErrorMessage is meant for users; Diagnostic holds backend details.
	ErrorMessage string `json:"error_message,omitempty"`
	Diagnostic   string `json:"diagnostic,omitempty"`
	// ErrorCode is the serrors code of the failure class, if any.
	ErrorCode string `json:"error_code,omitempty"`

	Created            map[string]int         `json:"created"`
	ContractsProcessed int                    `json:"contracts_processed"`
	Orphans            map[reference.Kind]int `json:"orphans"`
	OrphanSamples      []store.Orphan         `json:"orphan_samples,omitempty"`
	ResolutionGaps     []contract.Gap         `json:"resolution_gaps,omitempty"`
	BackupPath         string                 `json:"backup_path,omitempty"`

	ManagerRule manager.Rule `json:"manager_rule,omitempty"`
	// ManagerRuleDefaulted is set when the manager rule came from the tie-break default.
	ManagerRuleDefaulted bool `json:"manager_rule_defaulted"`

	States     []State `json:"states"`
	FinalState State   `json:"final_state"`
}

// TotalOrphans sums orphan counts across kinds.
func (r *ImportResult) TotalOrphans() int {
	n := 0
	for _, c := range r.Orphans {
		n += c
	}
	return n
}

func (r *ImportResult) enter(s State) {
	r.States = append(r.States, s)
	r.FinalState = s
}
