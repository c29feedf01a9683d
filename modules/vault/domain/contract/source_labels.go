package contract

import (
	"strings"

	"github.com/iota-uz/vault-import/modules/vault/domain/document"
	"github.com/iota-uz/vault-import/modules/vault/domain/reference"
)

// SourceLabels maps source system ids to the labels used when composing reference keys.
type SourceLabels map[string]string

func NewSourceLabels(systems []document.SourceSystem) SourceLabels {
	labels := make(SourceLabels, len(systems))
	for _, s := range systems {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			continue
		}
		if _, ok := labels[id]; ok {
			continue
		}
		label := strings.TrimSpace(s.DisplayName)
		if label == "" {
			label = id
		}
		labels[id] = label
	}
	return labels
}

// Label returns the label of source. Undeclared sources label themselves; an empty
// source is labelled reference.DefaultSource.
func (l SourceLabels) Label(source string) string {
	s := strings.TrimSpace(source)
	if s == "" {
		return reference.DefaultSource
	}
	if label, ok := l[s]; ok {
		return label
	}
	return s
}
