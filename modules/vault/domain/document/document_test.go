package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/vault-import/modules/vault/domain/reference"
	"github.com/iota-uz/vault-import/pkg/serrors"
)

const sample = `{
  "sourceSystems": [{"id": "sap", "displayName": "SAP"}],
  "departments": [{"externalId": "D1", "displayName": "Board"}],
  "persons": [{
    "externalId": "P1",
    "firstName": "Ada",
    "email": "ada@example.com",
    "customFields": {"shoe": 42, "nick": null},
    "primaryContract": {
      "externalId": "C1", "source": "sap", "workload": "0.8",
      "location": {"name": "HQ"}, "title": {"name": "Engineer"}
    },
    "contracts": [
      {"externalId": "C1", "source": "sap"},
      {"externalId": "C2", "source": "sap", "workload": 1,
       "team": {"name": "Core"}, "location": {"name": "Branch"}}
    ]
  }]
}`

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DecodesDocument(t *testing.T) {
	doc, err := Load(writeDoc(t, sample))
	require.NoError(t, err)
	require.NoError(t, doc.Validate(false))

	p := doc.Persons[0]
	require.Equal(t, "0.8", p.PrimaryContract.Workload.Decimal.String())
	require.True(t, p.Contracts[1].Workload.Valid)
	require.Equal(t, "1", p.Contracts[1].Workload.Decimal.String())
	require.False(t, p.Contracts[0].Workload.Valid)
	require.Equal(t, 2, doc.ContractCount())
}

func TestSightings_PinnedOrder(t *testing.T) {
	doc, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	var got []string
	for s := range doc.Sightings(strings.ToUpper) {
		got = append(got, string(s.Kind)+":"+s.Name+"|"+s.Source)
	}
	require.Equal(t, []string{
		"location:HQ|SAP",
		"title:Engineer|SAP",
		"location:Branch|SAP",
		"team:Core|SAP",
	}, got)
}

func TestPerson_PrimaryIndex(t *testing.T) {
	p := Person{Contracts: []Contract{{ExternalID: "A"}, {ExternalID: "B", IsPrimary: true}}}
	require.Equal(t, 1, p.PrimaryIndex())

	p.PrimaryContract = &Contract{ExternalID: "B"}
	require.Equal(t, 0, p.PrimaryIndex())
	var ids []string
	for c := range p.AllContracts() {
		ids = append(ids, c.ExternalID)
	}
	require.Equal(t, []string{"B", "A"}, ids)

	require.Equal(t, 0, Person{Contracts: []Contract{{}, {}}}.PrimaryIndex())
	require.Equal(t, -1, Person{}.PrimaryIndex())
}

func TestValidate_StructuralErrors(t *testing.T) {
	cases := []struct {
		name        string
		body        string
		companyOnly bool
		wantErr     string
	}{
		{"missing departments", `{"persons": []}`, false, "departments"},
		{"missing persons", `{"departments": []}`, false, "persons"},
		{"department without id", `{"departments": [{"displayName": "X"}], "persons": []}`, false, "ExternalID"},
		{"person without id", `{"departments": [], "persons": [{"firstName": "A"}]}`, false, "ExternalID"},
		{"bad date", `{"departments": [], "persons": [{"externalId": "P", "contracts": [{"startDate": "01.02.2020"}]}]}`, false, "StartDate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Decode(strings.NewReader(tc.body))
			require.NoError(t, err)
			err = doc.Validate(tc.companyOnly)
			require.ErrorIs(t, err, serrors.ErrStructural)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}

	doc, err := Decode(strings.NewReader(`{"departments": []}`))
	require.NoError(t, err)
	require.NoError(t, doc.Validate(true))
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"persons": [`))
	require.ErrorIs(t, err, serrors.ErrStructural)
}

func TestContract_Ref(t *testing.T) {
	c := Contract{CostBearer: &Reference{Name: "CB"}}
	for _, k := range reference.Kinds {
		if k == reference.KindCostBearer {
			require.Equal(t, "CB", c.Ref(k).Name)
			continue
		}
		require.Nil(t, c.Ref(k))
	}
}
