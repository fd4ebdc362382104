// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Enterprise holds the registry details of one legal entity.
// Empty fields were absent from the upstream response.
type Enterprise struct {
	Number             string `json:"number" yaml:"number"`
	Name               string `json:"name,omitempty" yaml:"name,omitempty"`
	JuridicalSituation string `json:"juridical_situation,omitempty" yaml:"juridical_situation,omitempty"`
	JuridicalForm      string `json:"juridical_form,omitempty" yaml:"juridical_form,omitempty"`
	Type               string `json:"type,omitempty" yaml:"type,omitempty"`
	StartDate          string `json:"start_date,omitempty" yaml:"start_date,omitempty"`

	Capital *Capital `json:"capital,omitempty" yaml:"capital,omitempty"`
	Address *Address `json:"address,omitempty" yaml:"address,omitempty"`
	Status  *Coded   `json:"status,omitempty" yaml:"status,omitempty"`

	BusinessUnits string `json:"business_units,omitempty" yaml:"business_units,omitempty"`

	Activities     []Coded     `json:"activities,omitempty" yaml:"activities,omitempty"`
	Qualifications []Coded     `json:"qualifications,omitempty" yaml:"qualifications,omitempty"`
	Functions      []Function  `json:"functions,omitempty" yaml:"functions,omitempty"`
	Financial      *FiscalData `json:"financial,omitempty" yaml:"financial,omitempty"`

	LinkedEnterprises []Link `json:"linked_enterprises,omitempty" yaml:"linked_enterprises,omitempty"`
}

// Capital is the declared share capital.
type Capital struct {
	Amount   string `json:"amount" yaml:"amount"`
	Currency string `json:"currency,omitempty" yaml:"currency,omitempty"`
}

// Address is the registered address.
type Address struct {
	Street       string `json:"street,omitempty" yaml:"street,omitempty"`
	HouseNumber  string `json:"house_number,omitempty" yaml:"house_number,omitempty"`
	Zipcode      string `json:"zipcode,omitempty" yaml:"zipcode,omitempty"`
	Municipality string `json:"municipality,omitempty" yaml:"municipality,omitempty"`
	Type         string `json:"type,omitempty" yaml:"type,omitempty"`
	Begin        string `json:"begin,omitempty" yaml:"begin,omitempty"`
}

// Coded is a code with a localized description and an optional start date.
type Coded struct {
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Begin       string `json:"begin,omitempty" yaml:"begin,omitempty"`
}

// Function is a person holding a role in the entity.
type Function struct {
	Code      string `json:"code" yaml:"code"`
	Role      string `json:"role" yaml:"role"`
	Begin     string `json:"begin,omitempty" yaml:"begin,omitempty"`
	Surname   string `json:"surname" yaml:"surname"`
	GivenName string `json:"given_name" yaml:"given_name"`
}

// FiscalData holds the accounting calendar of the entity.
type FiscalData struct {
	AnnualMeetingMonth string `json:"annual_meeting_month,omitempty" yaml:"annual_meeting_month,omitempty"`
	FiscalYearEndDay   string `json:"fiscal_year_end_day,omitempty" yaml:"fiscal_year_end_day,omitempty"`
	FiscalYearEndMonth string `json:"fiscal_year_end_month,omitempty" yaml:"fiscal_year_end_month,omitempty"`
	Begin              string `json:"begin,omitempty" yaml:"begin,omitempty"`
}

// Link is a registered relation between two enterprises, such as a merger
// or a branch.
type Link struct {
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Subject     string `json:"subject" yaml:"subject"`
	Object      string `json:"object" yaml:"object"`
	Begin       string `json:"begin,omitempty" yaml:"begin,omitempty"`
}
