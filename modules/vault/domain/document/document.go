package document

import (
	"github.com/shopspring/decimal"
)

// Document is a fully materialized vault export.
type Document struct {
	SourceSystems          []SourceSystem          `json:"sourceSystems" validate:"dive"`
	Departments            []Department            `json:"departments" validate:"dive"`
	Persons                []Person                `json:"persons" validate:"dive"`
	CustomFieldDefinitions []CustomFieldDefinition `json:"customFieldDefinitions" validate:"dive"`
}

type SourceSystem struct {
	ID                string `json:"id" validate:"required"`
	DisplayName       string `json:"displayName"`
	IdentificationKey string `json:"identificationKey"`
}

type Department struct {
	ExternalID        string `json:"externalId" validate:"required"`
	DisplayName       string `json:"displayName"`
	Code              string `json:"code"`
	ParentExternalID  string `json:"parentExternalId"`
	ManagerExternalID string `json:"managerExternalId"`
}

type Person struct {
	ExternalID      string         `json:"externalId" validate:"required"`
	FirstName       string         `json:"firstName"`
	LastName        string         `json:"lastName"`
	Email           string         `json:"email" validate:"omitempty,email"`
	Contracts       []Contract     `json:"contracts" validate:"dive"`
	PrimaryContract *Contract      `json:"primaryContract"`
	CustomFields    map[string]any `json:"customFields"`
}

// Reference is a contract's pointer to a reference entity.
type Reference struct {
	ExternalID string `json:"externalId"`
	Code       string `json:"code"`
	Name       string `json:"name"`
}

type Contract struct {
	ExternalID           string              `json:"externalId"`
	Source               string              `json:"source"`
	IsPrimary            bool                `json:"isPrimary"`
	StartDate            string              `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate              string              `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Position             string              `json:"position"`
	Workload             decimal.NullDecimal `json:"workload"`
	DepartmentExternalID string              `json:"departmentExternalId"`
	ManagerExternalID    string              `json:"managerExternalId"`
	Location             *Reference          `json:"location"`
	Employer             *Reference          `json:"employer"`
	CostCenter           *Reference          `json:"costCenter"`
	CostBearer           *Reference          `json:"costBearer"`
	Team                 *Reference          `json:"team"`
	Division             *Reference          `json:"division"`
	Title                *Reference          `json:"title"`
	Organization         *Reference          `json:"organization"`
	CustomFields         map[string]any      `json:"customFields"`
}

type CustomFieldDefinition struct {
	Entity  string `json:"entity" validate:"required,oneof=person contract department"`
	Key     string `json:"key" validate:"required"`
	Default any    `json:"default"`
}
