package department

import (
	"fmt"
	"iter"
	"strings"

	"github.com/iota-uz/vault-import/pkg/serrors"
)

type Department struct {
	ExternalID        string
	DisplayName       string
	Code              string
	ParentExternalID  string
	ManagerExternalID string
}

// CycleError reports a department reached again while its own ancestor chain was being resolved.
type CycleError struct {
	ExternalID  string
	DisplayName string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("department hierarchy cycle at %s (%s)", e.ExternalID, e.DisplayName)
}

func (e *CycleError) Unwrap() error { return serrors.ErrStructural }

// Dedupe keeps the first department seen for each external id.
func Dedupe(departments iter.Seq[Department]) []Department {
	seen := make(map[string]struct{})
	var out []Department
	for d := range departments {
		id := strings.TrimSpace(d.ExternalID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		d.ExternalID = id
		d.ParentExternalID = strings.TrimSpace(d.ParentExternalID)
		out = append(out, d)
	}
	return out
}
