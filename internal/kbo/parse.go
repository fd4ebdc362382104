// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kbo

import (
	"html"
	"regexp"
	"strings"

	"github.com/pdiddy/faillink/pkg/types"
)

// MaxResponseBytes caps how much of a SOAP response is read and scanned.
const MaxResponseBytes = 4 << 20

// A field rule is a chain of element names; the value is the text of the
// last element found after each preceding one. Namespace prefixes are
// ignored so the rules survive prefix renumbering between service releases.
var (
	ruleNumber             = chain("Number")
	ruleName               = chain("Denomination", "Value")
	ruleJuridicalSituation = chain("JuridicalSituation", "Description", "Value")
	ruleJuridicalForm      = chain("JuridicalForm", "Description", "Value")
	ruleType               = chain("TypeOfEnterprise")
	ruleStartDate          = chain("Period", "Begin")
	ruleBusinessUnits      = chain("BusinessUnits")

	ruleCapitalAmount   = chain("Capital", "Amount")
	ruleCapitalCurrency = chain("Capital", "Currency")

	ruleStreet       = chain("Address", "Street", "Value")
	ruleHouseNumber  = chain("HouseNumber")
	ruleZipcode      = chain("Zipcode")
	ruleMunicipality = chain("Municipality", "Value")
	ruleAddressBegin = chain("Address", "Begin")
	ruleAddressType  = chain("Address", "TypeOfAddress", "Value")

	ruleMeetingMonth  = chain("AnnualMeetingMonth")
	ruleFiscalEndDay  = chain("FiscalYearEndDay")
	ruleFiscalEndMon  = chain("FiscalYearEndMonth")
	ruleFinancialFrom = chain("FinancialData", "ValidityPeriod", "Begin")

	ruleCode        = chain("Code")
	ruleDescription = chain("Description", "Value")
	ruleBegin       = chain("Period", "Begin")
	ruleSurname     = chain("Person", "Surname")
	ruleGivenName   = chain("Person", "GivenName")
	ruleSubject     = chain("EnterpriseNumberSubject")
	ruleObject      = chain("EnterpriseNumberObject")

	blockStatus        = block("Status")
	blockQualification = block("Qualification")
	blockActivity      = block("Activity")
	blockFunction      = block("Function")
	blockLink          = block("LinkedEnterprise")

	faultString = chain("faultstring")
	faultCode   = chain("faultcode")
)

const prefix = `<(?:[\w.-]+:)?`

func chain(names ...string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?s)`)
	for i, n := range names {
		if i > 0 {
			b.WriteString(`.*?`)
		}
		b.WriteString(prefix + regexp.QuoteMeta(n) + `(?:\s[^>]*)?>`)
	}
	b.WriteString(`([^<]+)<`)
	return regexp.MustCompile(b.String())
}

// block matches whole elements named name, exposing their content.
func block(name string) *regexp.Regexp {
	q := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?s)` + prefix + q + `(?:\s[^>]*)?>(.*?)</(?:[\w.-]+:)?` + q + `>`)
}

func first(doc string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(doc)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

func blocks(doc string, re *regexp.Regexp) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(doc, -1) {
		out = append(out, m[1])
	}
	return out
}

// ParseEnterprise maps a ReadEnterprise response onto an Enterprise. Rules
// that do not match leave their field empty; parsing never fails.
func ParseEnterprise(doc string) types.Enterprise {
	if len(doc) > MaxResponseBytes {
		doc = doc[:MaxResponseBytes]
	}

	e := types.Enterprise{
		Number:             first(doc, ruleNumber),
		Name:               first(doc, ruleName),
		JuridicalSituation: first(doc, ruleJuridicalSituation),
		JuridicalForm:      first(doc, ruleJuridicalForm),
		Type:               first(doc, ruleType),
		StartDate:          first(doc, ruleStartDate),
		BusinessUnits:      first(doc, ruleBusinessUnits),
	}

	if amount := first(doc, ruleCapitalAmount); amount != "" {
		e.Capital = &types.Capital{Amount: amount, Currency: first(doc, ruleCapitalCurrency)}
	}

	addr := types.Address{
		Street:       first(doc, ruleStreet),
		HouseNumber:  first(doc, ruleHouseNumber),
		Zipcode:      first(doc, ruleZipcode),
		Municipality: first(doc, ruleMunicipality),
	}
	if addr != (types.Address{}) {
		addr.Begin = first(doc, ruleAddressBegin)
		addr.Type = first(doc, ruleAddressType)
		e.Address = &addr
	}

	fin := types.FiscalData{
		AnnualMeetingMonth: first(doc, ruleMeetingMonth),
		FiscalYearEndDay:   first(doc, ruleFiscalEndDay),
		FiscalYearEndMonth: first(doc, ruleFiscalEndMon),
	}
	if fin != (types.FiscalData{}) {
		fin.Begin = first(doc, ruleFinancialFrom)
		e.Financial = &fin
	}

	if bs := blocks(doc, blockStatus); len(bs) > 0 {
		if st := coded(bs[0]); st.Code != "" {
			e.Status = &st
		}
	}
	for _, b := range blocks(doc, blockQualification) {
		if q := coded(b); q.Code != "" {
			e.Qualifications = append(e.Qualifications, q)
		}
	}
	for _, b := range blocks(doc, blockActivity) {
		if a := coded(b); a.Code != "" {
			e.Activities = append(e.Activities, a)
		}
	}
	for _, b := range blocks(doc, blockFunction) {
		f := types.Function{
			Code:      first(b, ruleCode),
			Role:      first(b, ruleDescription),
			Begin:     first(b, ruleBegin),
			Surname:   first(b, ruleSurname),
			GivenName: first(b, ruleGivenName),
		}
		if f.Code != "" || f.Surname != "" {
			e.Functions = append(e.Functions, f)
		}
	}
	for _, b := range blocks(doc, blockLink) {
		l := types.Link{
			Code:        first(b, ruleCode),
			Description: first(b, ruleDescription),
			Subject:     first(b, ruleSubject),
			Object:      first(b, ruleObject),
			Begin:       first(b, ruleBegin),
		}
		if l.Subject != "" || l.Object != "" {
			e.LinkedEnterprises = append(e.LinkedEnterprises, l)
		}
	}
	return e
}

func coded(b string) types.Coded {
	return types.Coded{
		Code:        first(b, ruleCode),
		Description: first(b, ruleDescription),
		Begin:       first(b, ruleBegin),
	}
}
