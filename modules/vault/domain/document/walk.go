package document

import (
	"iter"
	"strings"

	"github.com/iota-uz/vault-import/modules/vault/domain/department"
	"github.com/iota-uz/vault-import/modules/vault/domain/reference"
)

// AllContracts yields the primary contract first, marked primary, then the listed
// contracts. A listed contract repeating the primary contract's external id is skipped.
func (p Person) AllContracts() iter.Seq[Contract] {
	return func(yield func(Contract) bool) {
		primaryID := ""
		if p.PrimaryContract != nil {
			primaryID = strings.TrimSpace(p.PrimaryContract.ExternalID)
			c := *p.PrimaryContract
			c.IsPrimary = true
			if !yield(c) {
				return
			}
		}
		for _, c := range p.Contracts {
			if primaryID != "" && strings.TrimSpace(c.ExternalID) == primaryID {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// PrimaryIndex returns the position, in AllContracts order, of the contract that
// determines the person's primary manager: the declared primary contract, else the
// first listed contract flagged primary, else the first listed contract. It is -1
// for a person without contracts.
func (p Person) PrimaryIndex() int {
	if p.PrimaryContract != nil {
		return 0
	}
	for i, c := range p.Contracts {
		if c.IsPrimary {
			return i
		}
	}
	if len(p.Contracts) > 0 {
		return 0
	}
	return -1
}

// Ref returns the contract's reference of the given kind, or nil.
func (c Contract) Ref(kind reference.Kind) *Reference {
	switch kind {
	case reference.KindLocation:
		return c.Location
	case reference.KindEmployer:
		return c.Employer
	case reference.KindCostCenter:
		return c.CostCenter
	case reference.KindCostBearer:
		return c.CostBearer
	case reference.KindTeam:
		return c.Team
	case reference.KindDivision:
		return c.Division
	case reference.KindTitle:
		return c.Title
	case reference.KindOrganization:
		return c.Organization
	default:
		return nil
	}
}

// Sightings walks persons in document order and yields every reference a contract
// carries, kinds in reference.Kinds order. label maps a contract source to the
// label used in dedup keys.
func (d *Document) Sightings(label func(string) string) iter.Seq[reference.Sighting] {
	return func(yield func(reference.Sighting) bool) {
		for _, p := range d.Persons {
			for c := range p.AllContracts() {
				source := label(c.Source)
				for _, kind := range reference.Kinds {
					ref := c.Ref(kind)
					if ref == nil {
						continue
					}
					s := reference.Sighting{
						Kind:       kind,
						ExternalID: strings.TrimSpace(ref.ExternalID),
						Code:       ref.Code,
						Name:       ref.Name,
						Source:     source,
					}
					if !yield(s) {
						return
					}
				}
			}
		}
	}
}

// DepartmentSeq yields the document's departments in document order.
func (d *Document) DepartmentSeq() iter.Seq[department.Department] {
	return func(yield func(department.Department) bool) {
		for _, dep := range d.Departments {
			v := department.Department{
				ExternalID:        dep.ExternalID,
				DisplayName:       dep.DisplayName,
				Code:              dep.Code,
				ParentExternalID:  dep.ParentExternalID,
				ManagerExternalID: strings.TrimSpace(dep.ManagerExternalID),
			}
			if !yield(v) {
				return
			}
		}
	}
}

// ContractCount returns the number of contracts AllContracts yields across all persons.
func (d *Document) ContractCount() int {
	n := 0
	for _, p := range d.Persons {
		for range p.AllContracts() {
			n++
		}
	}
	return n
}
