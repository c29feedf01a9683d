package reference

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeduplicate_FirstSeenWins(t *testing.T) {
	sightings := []Sighting{
		{Kind: KindLocation, ExternalID: "L1", Code: "HQ-1", Name: "HQ", Source: "SAP"},
		{Kind: KindLocation, ExternalID: "L9", Code: "HQ-9", Name: "HQ", Source: "SAP"},
		{Kind: KindLocation, ExternalID: "L2", Name: "Branch", Source: "SAP"},
	}

	res := Deduplicate(KindLocation, slices.Values(sightings))

	require.Len(t, res.Canonical, 2)
	hq, ok := res.Lookup("HQ", "SAP")
	require.True(t, ok)
	require.Equal(t, "L1", hq.ExternalID)
	require.Equal(t, "HQ-1", hq.Code)
}

func TestDeduplicate_Idempotent(t *testing.T) {
	s := Sighting{Kind: KindTeam, ExternalID: "T1", Code: "A", Name: "Core", Source: "SAP"}
	again := s
	again.Code = "B"

	once := Deduplicate(KindTeam, slices.Values([]Sighting{s}))
	twice := Deduplicate(KindTeam, slices.Values([]Sighting{s, again}))

	require.LessOrEqual(t, len(twice.Canonical), len(once.Canonical))
	require.Equal(t, "A", twice.Canonical[0].Code)
}

func TestDeduplicate_SourceScopesIdentity(t *testing.T) {
	res := Deduplicate(KindLocation, slices.Values([]Sighting{
		{Kind: KindLocation, Name: "HQ", Source: "SAP"},
		{Kind: KindLocation, Name: "HQ", Source: "Workday"},
	}))

	require.Len(t, res.Canonical, 2)
	sap, _ := res.Lookup("HQ", "SAP")
	wd, _ := res.Lookup("HQ", "Workday")
	require.NotEmpty(t, sap.ExternalID)
	require.NotEmpty(t, wd.ExternalID)
	require.NotEqual(t, sap.ExternalID, wd.ExternalID)
}

func TestDeduplicate_SkipsBlankNamesAndOtherKinds(t *testing.T) {
	res := Deduplicate(KindTitle, slices.Values([]Sighting{
		{Kind: KindTitle, ExternalID: "X", Name: "   "},
		{Kind: KindTitle, ExternalID: "Y", Name: ""},
		{Kind: KindLocation, ExternalID: "L", Name: "HQ"},
		{Kind: KindTitle, Name: "Engineer"},
	}))

	require.Len(t, res.Canonical, 1)
	require.Equal(t, "Engineer", res.Canonical[0].Name)
	require.Equal(t, DefaultSource, res.Canonical[0].Source)
}

func TestDeduplicate_MissingSourceFallsBackToDefault(t *testing.T) {
	res := Deduplicate(KindEmployer, slices.Values([]Sighting{
		{Kind: KindEmployer, ExternalID: "E1", Name: "Acme"},
		{Kind: KindEmployer, ExternalID: "E2", Name: "Acme", Source: "default"},
	}))

	require.Len(t, res.Canonical, 1)
	e, ok := res.Lookup("Acme", "")
	require.True(t, ok)
	require.Equal(t, "E1", e.ExternalID)
}

func TestDeduplicate_SharedExternalIDKeepsOneMemberPerSource(t *testing.T) {
	res := Deduplicate(KindLocation, slices.Values([]Sighting{
		{Kind: KindLocation, ExternalID: "L1", Name: "HQ", Source: "SAP"},
		{Kind: KindLocation, ExternalID: "L1", Code: "other", Name: "HQ", Source: "Workday"},
	}))

	require.Len(t, res.Canonical, 2)
	wd, ok := res.Lookup("HQ", "Workday")
	require.True(t, ok)
	require.Equal(t, "L1", wd.ExternalID)
	require.Equal(t, "Workday", wd.Source)
	require.Equal(t, "other", wd.Code)
}

func TestKey_NormalizesUnicode(t *testing.T) {
	composed := "Z\u00fcrich"
	decomposed := "Zu\u0308rich"
	require.NotEqual(t, composed, decomposed)
	require.Equal(t, Key(composed, "SAP"), Key(decomposed, "SAP"))
	require.Equal(t, "HQ|default", Key(" HQ ", "  "))
}

func TestCatalog_SealRejectsWrites(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Put(Result{Kind: KindTeam}))
	c.Seal()
	require.ErrorIs(t, c.Put(Result{Kind: KindTeam}), ErrSealed)
	require.Error(t, NewCatalog().Put(Result{Kind: "bogus"}))
}

func TestBuildCatalog_AllKinds(t *testing.T) {
	sightings := []Sighting{
		{Kind: KindLocation, Name: "HQ", Source: "SAP"},
		{Kind: KindTitle, Name: "Engineer", Source: "SAP"},
		{Kind: KindTitle, Name: "Engineer", Source: "SAP"},
	}

	c := BuildCatalog(slices.Values(sightings))

	require.True(t, c.Sealed())
	require.Equal(t, 2, c.Count())
	_, ok := c.Lookup(KindTitle, "Engineer", "SAP")
	require.True(t, ok)
	_, ok = c.Lookup(KindTitle, "Engineer", "Workday")
	require.False(t, ok)
	require.Empty(t, c.Canonical(KindDivision))
}

func TestKind_TableAndColumn(t *testing.T) {
	require.Equal(t, "cost_centers", KindCostCenter.Table())
	require.Equal(t, "cost_center_id", KindCostCenter.Column())
	k, err := ParseKind("organization")
	require.NoError(t, err)
	require.Equal(t, KindOrganization, k)
	_, err = ParseKind("department")
	require.Error(t, err)
}
