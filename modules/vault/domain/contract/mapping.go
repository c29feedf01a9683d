package contract

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/vault-import/modules/vault/domain/document"
	"github.com/iota-uz/vault-import/modules/vault/domain/reference"
)

var ErrCatalogNotSealed = errors.New("mapping context requires a sealed reference catalog")

// Mapped is a contract with its references resolved to canonical external ids.
type Mapped struct {
	ExternalID           string
	PersonExternalID     string
	Source               string
	IsPrimary            bool
	StartDate            string
	EndDate              string
	Position             string
	Workload             decimal.NullDecimal
	DepartmentExternalID string
	ManagerExternalID    string
	// References holds the resolved foreign key per kind. A missing kind is a null key.
	References map[reference.Kind]string
}

// Gap is a non-blank contract reference that matched no canonical entity.
type Gap struct {
	Kind               reference.Kind
	ContractExternalID string
	Name               string
	Source             string
	// Suggestion is the closest canonical name of the same kind and source, if any.
	Suggestion string
}

// MappingContext resolves contract references against a sealed catalog. It is
// built once per import run and is not safe for concurrent use.
type MappingContext struct {
	catalog *reference.Catalog
	labels  SourceLabels
	gaps    []Gap
	names   map[reference.Kind]map[string][]string
}

func NewMappingContext(catalog *reference.Catalog, labels SourceLabels) (*MappingContext, error) {
	if catalog == nil || !catalog.Sealed() {
		return nil, ErrCatalogNotSealed
	}
	if labels == nil {
		labels = SourceLabels{}
	}
	return &MappingContext{catalog: catalog, labels: labels}, nil
}

func (m *MappingContext) Labels() SourceLabels { return m.labels }

// Map resolves c, owned by personID. Contracts without an external id get a synthetic one.
func (m *MappingContext) Map(personID string, c document.Contract) Mapped {
	source := m.labels.Label(c.Source)
	out := Mapped{
		ExternalID:           strings.TrimSpace(c.ExternalID),
		PersonExternalID:     personID,
		Source:               source,
		IsPrimary:            c.IsPrimary,
		StartDate:            c.StartDate,
		EndDate:              c.EndDate,
		Position:             c.Position,
		Workload:             c.Workload,
		DepartmentExternalID: strings.TrimSpace(c.DepartmentExternalID),
		ManagerExternalID:    strings.TrimSpace(c.ManagerExternalID),
		References:           make(map[reference.Kind]string, len(reference.Kinds)),
	}
	if out.ExternalID == "" {
		out.ExternalID = uuid.NewString()
	}
	for _, kind := range reference.Kinds {
		ref := c.Ref(kind)
		if ref == nil || strings.TrimSpace(ref.Name) == "" {
			continue
		}
		if e, ok := m.catalog.Lookup(kind, ref.Name, source); ok {
			out.References[kind] = e.ExternalID
			continue
		}
		m.gaps = append(m.gaps, Gap{
			Kind:               kind,
			ContractExternalID: out.ExternalID,
			Name:               ref.Name,
			Source:             source,
			Suggestion:         m.suggest(kind, source, ref.Name),
		})
	}
	return out
}

func (m *MappingContext) Gaps() []Gap { return m.gaps }

// GapCounts returns the number of gaps per kind.
func (m *MappingContext) GapCounts() map[reference.Kind]int {
	counts := make(map[reference.Kind]int)
	for _, g := range m.gaps {
		counts[g.Kind]++
	}
	return counts
}

func (m *MappingContext) suggest(kind reference.Kind, source, name string) string {
	if m.names == nil {
		m.names = make(map[reference.Kind]map[string][]string, len(reference.Kinds))
	}
	bySource, ok := m.names[kind]
	if !ok {
		bySource = make(map[string][]string)
		for _, e := range m.catalog.Canonical(kind) {
			bySource[e.Source] = append(bySource[e.Source], e.Name)
		}
		m.names[kind] = bySource
	}
	candidates := bySource[source]
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindNormalizedFold(strings.TrimSpace(name), candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}
