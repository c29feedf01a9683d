package contract

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/vault-import/modules/vault/domain/document"
	"github.com/iota-uz/vault-import/modules/vault/domain/reference"
)

func catalogOf(t *testing.T, sightings ...reference.Sighting) *reference.Catalog {
	t.Helper()
	return reference.BuildCatalog(slices.Values(sightings))
}

func TestNewMappingContext_RequiresSealedCatalog(t *testing.T) {
	_, err := NewMappingContext(reference.NewCatalog(), nil)
	require.ErrorIs(t, err, ErrCatalogNotSealed)
	_, err = NewMappingContext(nil, nil)
	require.ErrorIs(t, err, ErrCatalogNotSealed)
}

func TestMap_SourceSensitive(t *testing.T) {
	cat := catalogOf(t,
		reference.Sighting{Kind: reference.KindLocation, Name: "HQ", Source: "SAP"},
		reference.Sighting{Kind: reference.KindLocation, Name: "HQ", Source: "Workday"},
	)
	labels := NewSourceLabels([]document.SourceSystem{{ID: "sap", DisplayName: "SAP"}, {ID: "wd", DisplayName: "Workday"}})
	mc, err := NewMappingContext(cat, labels)
	require.NoError(t, err)

	a := mc.Map("P1", document.Contract{ExternalID: "C1", Source: "sap", Location: &document.Reference{Name: "HQ"}})
	b := mc.Map("P2", document.Contract{ExternalID: "C2", Source: "wd", Location: &document.Reference{Name: "HQ"}})

	require.NotEmpty(t, a.References[reference.KindLocation])
	require.NotEmpty(t, b.References[reference.KindLocation])
	require.NotEqual(t, a.References[reference.KindLocation], b.References[reference.KindLocation])
	require.Equal(t, "SAP", a.Source)
	require.Empty(t, mc.Gaps())
}

func TestMap_GhostLeavesNullKeyAndGap(t *testing.T) {
	cat := catalogOf(t, reference.Sighting{Kind: reference.KindLocation, Name: "Ghost Town", Source: "SAP"})
	mc, err := NewMappingContext(cat, nil)
	require.NoError(t, err)

	m := mc.Map("P1", document.Contract{
		Source:   "SAP",
		Location: &document.Reference{Name: "Ghost"},
		Title:    &document.Reference{Name: "  "},
	})

	_, ok := m.References[reference.KindLocation]
	require.False(t, ok)
	require.NotEmpty(t, m.ExternalID)
	require.Equal(t, map[reference.Kind]int{reference.KindLocation: 1}, mc.GapCounts())

	gaps := mc.Gaps()
	require.Len(t, gaps, 1)
	require.Equal(t, "Ghost", gaps[0].Name)
	require.Equal(t, "SAP", gaps[0].Source)
	require.Equal(t, "Ghost Town", gaps[0].Suggestion)
}

func TestMap_NoSuggestionAcrossSources(t *testing.T) {
	cat := catalogOf(t, reference.Sighting{Kind: reference.KindTeam, Name: "Core", Source: "Workday"})
	mc, err := NewMappingContext(cat, nil)
	require.NoError(t, err)

	mc.Map("P1", document.Contract{Source: "SAP", Team: &document.Reference{Name: "Core"}})
	require.Len(t, mc.Gaps(), 1)
	require.Empty(t, mc.Gaps()[0].Suggestion)
}

func TestSourceLabels(t *testing.T) {
	labels := NewSourceLabels([]document.SourceSystem{
		{ID: "sap", DisplayName: "SAP"},
		{ID: "sap", DisplayName: "Duplicate"},
		{ID: "hr"},
		{ID: ""},
	})
	require.Equal(t, "SAP", labels.Label("sap"))
	require.Equal(t, "hr", labels.Label("hr"))
	require.Equal(t, "other", labels.Label("other"))
	require.Equal(t, reference.DefaultSource, labels.Label(" "))
}
