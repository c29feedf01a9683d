package reference

import "fmt"

// Kind identifies one of the reference entity types a contract points to.
type Kind string

const (
	KindLocation     Kind = "location"
	KindEmployer     Kind = "employer"
	KindCostCenter   Kind = "cost_center"
	KindCostBearer   Kind = "cost_bearer"
	KindTeam         Kind = "team"
	KindDivision     Kind = "division"
	KindTitle        Kind = "title"
	KindOrganization Kind = "organization"
)

// Kinds lists every reference kind in sighting order.
var Kinds = []Kind{
	KindLocation,
	KindEmployer,
	KindCostCenter,
	KindCostBearer,
	KindTeam,
	KindDivision,
	KindTitle,
	KindOrganization,
}

var tables = map[Kind]string{
	KindLocation:     "locations",
	KindEmployer:     "employers",
	KindCostCenter:   "cost_centers",
	KindCostBearer:   "cost_bearers",
	KindTeam:         "teams",
	KindDivision:     "divisions",
	KindTitle:        "titles",
	KindOrganization: "organizations",
}

// Table is the master table holding entities of this kind.
func (k Kind) Table() string { return tables[k] }

// Column is the contract column referencing this kind.
func (k Kind) Column() string { return string(k) + "_id" }

func (k Kind) Valid() bool {
	_, ok := tables[k]
	return ok
}

func (k Kind) String() string { return string(k) }

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown reference kind %q", s)
	}
	return k, nil
}
