package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iota-uz/vault-import/modules/vault/domain/contract"
	"github.com/iota-uz/vault-import/modules/vault/domain/customfield"
	"github.com/iota-uz/vault-import/modules/vault/domain/department"
	"github.com/iota-uz/vault-import/modules/vault/domain/document"
	"github.com/iota-uz/vault-import/modules/vault/domain/manager"
	"github.com/iota-uz/vault-import/modules/vault/domain/reference"
	"github.com/iota-uz/vault-import/modules/vault/domain/store"
	"github.com/iota-uz/vault-import/pkg/serrors"
)

type fieldValue struct {
	entity customfield.Entity
	id     string
	key    string
	value  customfield.Value
}

// importPlan is everything derived from the document before the store is touched.
type importPlan struct {
	sourceSystems []store.SourceSystem
	catalog       *reference.Catalog
	departments   []department.Department
	persons       []store.Person
	contracts     []contract.Mapped
	fields        []fieldValue
	definitions   []customfield.Definition
	gaps          []contract.Gap
	gapCounts     map[reference.Kind]int
}

func buildPlan(doc *document.Document, companyOnly bool, rule manager.Rule) (*importPlan, error) {
	labels := contract.NewSourceLabels(doc.SourceSystems)
	p := &importPlan{catalog: reference.BuildCatalog(doc.Sightings(labels.Label))}

	for _, s := range doc.SourceSystems {
		p.sourceSystems = append(p.sourceSystems, store.SourceSystem{
			ID:                strings.TrimSpace(s.ID),
			DisplayName:       labels.Label(s.ID),
			IdentificationKey: s.IdentificationKey,
		})
	}

	ordered, err := department.Order(department.Dedupe(doc.DepartmentSeq()))
	if err != nil {
		return nil, err
	}
	p.departments = ordered

	for _, def := range doc.CustomFieldDefinitions {
		entity, err := customfield.ParseEntity(def.Entity)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", serrors.ErrStructural, err)
		}
		if err := customfield.ValidateKey(def.Key); err != nil {
			return nil, fmt.Errorf("%w: custom field definition: %v", serrors.ErrStructural, err)
		}
		v, err := customfield.FromAny(def.Default)
		if err != nil {
			return nil, fmt.Errorf("%w: custom field definition %s: %v", serrors.ErrStructural, def.Key, err)
		}
		p.definitions = append(p.definitions, customfield.Definition{Entity: entity, Key: def.Key, Default: v})
	}

	if companyOnly {
		return p, nil
	}

	mc, err := contract.NewMappingContext(p.catalog, labels)
	if err != nil {
		return nil, err
	}
	hierarchy := make(manager.Hierarchy, len(ordered))
	for _, d := range ordered {
		hierarchy[d.ExternalID] = manager.Node{ParentExternalID: d.ParentExternalID, ManagerExternalID: d.ManagerExternalID}
	}

	for _, person := range doc.Persons {
		personID := strings.TrimSpace(person.ExternalID)
		var mapped []contract.Mapped
		for c := range person.AllContracts() {
			m := mc.Map(personID, c)
			mapped = append(mapped, m)
			if err := p.addFields(customfield.EntityContract, m.ExternalID, c.CustomFields); err != nil {
				return nil, err
			}
		}
		row := store.Person{
			ExternalID: personID,
			FirstName:  person.FirstName,
			LastName:   person.LastName,
			Email:      person.Email,
		}
		if i := person.PrimaryIndex(); i >= 0 {
			primary := mapped[i]
			row.PrimaryContractExternalID = primary.ExternalID
			row.PrimaryManagerExternalID = manager.Compute(rule, manager.Subject{
				PersonExternalID:     personID,
				ContractManager:      primary.ManagerExternalID,
				DepartmentExternalID: primary.DepartmentExternalID,
			}, hierarchy)
		}
		p.persons = append(p.persons, row)
		p.contracts = append(p.contracts, mapped...)
		if err := p.addFields(customfield.EntityPerson, personID, person.CustomFields); err != nil {
			return nil, err
		}
	}
	p.gaps = mc.Gaps()
	p.gapCounts = mc.GapCounts()
	return p, nil
}

// addFields records raw custom field values in key order.
func (p *importPlan) addFields(entity customfield.Entity, id string, raw map[string]any) error {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := customfield.ValidateKey(k); err != nil {
			return fmt.Errorf("%w: %s %s: %v", serrors.ErrStructural, entity, id, err)
		}
		v, err := customfield.FromAny(raw[k])
		if err != nil {
			return fmt.Errorf("%w: %s %s field %q: %v", serrors.ErrStructural, entity, id, k, err)
		}
		p.fields = append(p.fields, fieldValue{entity: entity, id: id, key: k, value: v})
	}
	return nil
}
