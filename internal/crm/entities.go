// Package crm holds the CRM entity schemas the table service knows how to
// list: their column layouts, formatters, storage names and editable fields.
package crm

import (
	"errors"
	"fmt"
	"sort"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
)

var ErrUnknownEntity = errors.New("unknown entity")

const (
	EntityAccount  = table.EntityAccount
	EntityDeal     = "deal"
	EntityContact  = "contact"
	EntityEmployee = "employee"
)

// Entity describes one listable CRM entity.
type Entity struct {
	Type       string                     `json:"type"`
	Resource   string                     `json:"resource"`
	Table      string                     `json:"-"`
	IDField    string                     `json:"idField"`
	Columns    []table.ColumnSpec         `json:"columns"`
	Editable   []string                   `json:"editable"`
	Formatters map[string]table.Formatter `json:"-"`
}

// CanEdit reports whether field may be written through create/update.
func (e Entity) CanEdit(field string) bool {
	for _, f := range e.Editable {
		if f == field {
			return true
		}
	}
	return false
}

// HasField reports whether the entity has a column for field.
func (e Entity) HasField(field string) bool {
	if field == e.IDField {
		return true
	}
	for _, c := range e.Columns {
		if c.Field == field {
			return true
		}
	}
	return false
}

var stageChip = table.Chip{
	Labels: map[string]string{
		"Prospecting":   "Prospecting",
		"Qualification": "Qualification",
		"Proposal":      "Proposal",
		"Negotiation":   "Negotiation",
		"Closed Won":    "Won",
		"Closed Lost":   "Lost",
	},
	Colors: map[string]string{
		"Prospecting":   "default",
		"Qualification": "info",
		"Proposal":      "primary",
		"Negotiation":   "warning",
		"Closed Won":    "success",
		"Closed Lost":   "error",
	},
}

var departmentChip = table.Chip{
	Colors: map[string]string{
		"Sales":      "primary",
		"Marketing":  "secondary",
		"Support":    "info",
		"Management": "warning",
	},
}

var entities = map[string]Entity{
	EntityAccount: {
		Type:     EntityAccount,
		Resource: "accounts",
		Table:    "Accounts",
		IDField:  "AccountID",
		Columns: []table.ColumnSpec{
			{Field: "AccountName", HeaderName: "Account Name"},
			{Field: "Industry", Kind: table.Chip{}},
			{Field: "Email", Kind: table.Tooltip{}},
			{Field: "Phone"},
			{Field: "Website", Kind: table.Link{}},
			{Field: "City"},
			{Field: "Country"},
			{Field: "AnnualRevenue", HeaderName: "Annual Revenue"},
			{Field: "NumberOfEmployees", HeaderName: "Employees"},
			{Field: table.FieldAssignedUserID, HeaderName: "Assigned To"},
			{Field: "Notes", Kind: table.Truncated{MaxWidth: 240}},
			{Field: table.FieldActive, Kind: table.Boolean{}},
		},
		Editable: []string{
			"AccountName", "Industry", "Email", "Phone", "Website", "City", "Country",
			"AnnualRevenue", "NumberOfEmployees", "Notes",
		},
		Formatters: map[string]table.Formatter{
			"AnnualRevenue": Currency,
		},
	},
	EntityDeal: {
		Type:     EntityDeal,
		Resource: "deals",
		Table:    "Deals",
		IDField:  "DealID",
		Columns: []table.ColumnSpec{
			{Field: "DealName", HeaderName: "Deal"},
			{Field: "AccountName", HeaderName: "Account"},
			{Field: "Stage", Kind: stageChip},
			{Field: "Value"},
			{Field: "Probability"},
			{Field: "CloseDate", HeaderName: "Close Date"},
			{Field: "Description", Kind: table.Truncated{}},
		},
		Editable: []string{"DealName", "AccountID", "Stage", "Value", "Probability", "CloseDate", "Description"},
		Formatters: map[string]table.Formatter{
			"Value":       Currency,
			"Probability": Percent,
		},
	},
	EntityContact: {
		Type:     EntityContact,
		Resource: "contacts",
		Table:    "Contacts",
		IDField:  "ContactID",
		Columns: []table.ColumnSpec{
			{Field: "FirstName", HeaderName: "First Name"},
			{Field: "LastName", HeaderName: "Last Name"},
			{Field: "AccountName", HeaderName: "Account"},
			{Field: "JobTitle", HeaderName: "Job Title", Kind: table.Tooltip{}},
			{Field: "Email", Kind: table.Tooltip{}},
			{Field: "Phone"},
			{Field: "LinkedIn", Kind: table.Link{}},
			{Field: table.FieldActive, Kind: table.Boolean{}},
		},
		Editable: []string{"FirstName", "LastName", "AccountID", "JobTitle", "Email", "Phone", "LinkedIn"},
	},
	EntityEmployee: {
		Type:     EntityEmployee,
		Resource: "employees",
		Table:    "Employees",
		IDField:  "EmployeeID",
		Columns: []table.ColumnSpec{
			{Field: "EmployeeName", HeaderName: "Name"},
			{Field: "JobTitle", HeaderName: "Job Title", Kind: table.Tooltip{}},
			{Field: "Department", Kind: departmentChip},
			{Field: "Email", Kind: table.Tooltip{}},
			{Field: "Salary"},
			{Field: "HireDate", HeaderName: "Hire Date"},
			{Field: table.FieldActive, Kind: table.Boolean{}},
		},
		Editable: []string{"EmployeeName", "JobTitle", "Department", "Email", "Salary", "HireDate"},
		Formatters: map[string]table.Formatter{
			"Salary": Currency,
		},
	},
}

// Lookup returns the schema of an entity type.
func Lookup(entityType string) (Entity, error) {
	e, ok := entities[entityType]
	if !ok {
		return Entity{}, fmt.Errorf("%w: %s", ErrUnknownEntity, entityType)
	}
	return e, nil
}

// All returns every entity schema ordered by type.
func All() []Entity {
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// TableConfig builds the table configuration of an entity. The id column is
// prepended so every entity lists it first.
func (e Entity) TableConfig(cb table.Callbacks, auth table.AuthContext) table.Config {
	columns := make([]table.ColumnSpec, 0, len(e.Columns)+1)
	columns = append(columns, table.ColumnSpec{Field: e.IDField, HeaderName: "ID"})
	columns = append(columns, e.Columns...)
	return table.Config{
		EntityType: e.Type,
		IDField:    e.IDField,
		Columns:    columns,
		Formatters: e.Formatters,
		Callbacks:  cb,
		Auth:       auth,
	}
}
