// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kbo

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/faillink/internal/httputil"
	"github.com/pdiddy/faillink/pkg/types"
)

const sampleReply = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
<soap:Body>
<ns3:ReadEnterpriseReply xmlns:ns2="http://economie.fgov.be/kbopub/webservices/v1/datamodel" xmlns:ns3="http://economie.fgov.be/kbopub/webservices/v1/messages">
 <ns2:Enterprise>
  <ns2:Number>0123456789</ns2:Number>
  <ns2:Status><ns2:Code>AC</ns2:Code><ns2:Description><ns2:Value>Actif</ns2:Value></ns2:Description></ns2:Status>
  <ns2:JuridicalSituation><ns2:Code>012</ns2:Code><ns2:Description><ns2:Value>Ouverture de faillite</ns2:Value></ns2:Description></ns2:JuridicalSituation>
  <ns2:TypeOfEnterprise>2</ns2:TypeOfEnterprise>
  <ns2:JuridicalForm><ns2:Code>610</ns2:Code><ns2:Description><ns2:Value>Société à responsabilité limitée</ns2:Value></ns2:Description></ns2:JuridicalForm>
  <ns2:Period><ns2:Begin>2015-06-01</ns2:Begin></ns2:Period>
  <ns2:Denomination><ns2:Language>2</ns2:Language><ns2:Value>Boulangerie Dupont &amp; Fils</ns2:Value></ns2:Denomination>
  <ns2:Address>
   <ns2:TypeOfAddress><ns2:Code>REGO</ns2:Code><ns2:Value>Siège</ns2:Value></ns2:TypeOfAddress>
   <ns2:Begin>2015-06-01</ns2:Begin>
   <ns2:Street><ns2:Value>Rue Haute</ns2:Value></ns2:Street>
   <ns2:HouseNumber>12</ns2:HouseNumber>
   <ns2:Zipcode>1000</ns2:Zipcode>
   <ns2:Municipality><ns2:Value>Bruxelles</ns2:Value></ns2:Municipality>
  </ns2:Address>
  <ns2:Capital><ns2:Amount>18550.00</ns2:Amount><ns2:Currency>EUR</ns2:Currency></ns2:Capital>
  <ns2:FinancialData>
   <ns2:ValidityPeriod><ns2:Begin>2016-01-01</ns2:Begin></ns2:ValidityPeriod>
   <ns2:AnnualMeetingMonth>6</ns2:AnnualMeetingMonth>
   <ns2:FiscalYearEndDay>31</ns2:FiscalYearEndDay>
   <ns2:FiscalYearEndMonth>12</ns2:FiscalYearEndMonth>
  </ns2:FinancialData>
  <ns2:Qualifications>
   <ns2:Qualification><ns2:Code>001</ns2:Code><ns2:Description><ns2:Value>Assujetti TVA</ns2:Value></ns2:Description><ns2:Period><ns2:Begin>2015-07-01</ns2:Begin></ns2:Period></ns2:Qualification>
  </ns2:Qualifications>
  <ns2:Activities>
   <ns2:Activity><ns2:Code>10711</ns2:Code><ns2:Description><ns2:Value>Boulangerie</ns2:Value></ns2:Description><ns2:Period><ns2:Begin>2015-06-01</ns2:Begin></ns2:Period></ns2:Activity>
   <ns2:Activity><ns2:Code>47241</ns2:Code><ns2:Description><ns2:Value>Commerce de détail de pain</ns2:Value></ns2:Description><ns2:Period><ns2:Begin>2018-01-01</ns2:Begin></ns2:Period></ns2:Activity>
  </ns2:Activities>
  <ns2:Functions>
   <ns2:Function><ns2:Code>10</ns2:Code><ns2:Description><ns2:Value>Gérant</ns2:Value></ns2:Description><ns2:Period><ns2:Begin>2015-06-01</ns2:Begin></ns2:Period><ns2:Person><ns2:Surname>Dupont</ns2:Surname><ns2:GivenName>Marie</ns2:GivenName></ns2:Person></ns2:Function>
  </ns2:Functions>
  <ns2:LinkedEnterprises>
   <ns2:LinkedEnterprise><ns2:Code>001</ns2:Code><ns2:Description><ns2:Value>Absorption</ns2:Value></ns2:Description><ns2:EnterpriseNumberSubject>0123456789</ns2:EnterpriseNumberSubject><ns2:EnterpriseNumberObject>0987654321</ns2:EnterpriseNumberObject><ns2:Period><ns2:Begin>2019-01-01</ns2:Begin></ns2:Period></ns2:LinkedEnterprise>
  </ns2:LinkedEnterprises>
  <ns2:BusinessUnits>1</ns2:BusinessUnits>
 </ns2:Enterprise>
</ns3:ReadEnterpriseReply>
</soap:Body>
</soap:Envelope>`

func TestParseEnterprise(t *testing.T) {
	e := ParseEnterprise(sampleReply)

	assert.Equal(t, "0123456789", e.Number)
	assert.Equal(t, "Boulangerie Dupont & Fils", e.Name)
	assert.Equal(t, "Ouverture de faillite", e.JuridicalSituation)
	assert.Equal(t, "Société à responsabilité limitée", e.JuridicalForm)
	assert.Equal(t, "2", e.Type)
	assert.Equal(t, "2015-06-01", e.StartDate)
	assert.Equal(t, "1", e.BusinessUnits)

	assert.Equal(t, &types.Capital{Amount: "18550.00", Currency: "EUR"}, e.Capital)
	assert.Equal(t, &types.Coded{Code: "AC", Description: "Actif"}, e.Status)
	assert.Equal(t, &types.Address{
		Street:       "Rue Haute",
		HouseNumber:  "12",
		Zipcode:      "1000",
		Municipality: "Bruxelles",
		Type:         "Siège",
		Begin:        "2015-06-01",
	}, e.Address)
	assert.Equal(t, &types.FiscalData{
		AnnualMeetingMonth: "6",
		FiscalYearEndDay:   "31",
		FiscalYearEndMonth: "12",
		Begin:              "2016-01-01",
	}, e.Financial)

	assert.Equal(t, []types.Coded{{Code: "001", Description: "Assujetti TVA", Begin: "2015-07-01"}}, e.Qualifications)
	assert.Equal(t, []types.Coded{
		{Code: "10711", Description: "Boulangerie", Begin: "2015-06-01"},
		{Code: "47241", Description: "Commerce de détail de pain", Begin: "2018-01-01"},
	}, e.Activities)
	assert.Equal(t, []types.Function{
		{Code: "10", Role: "Gérant", Begin: "2015-06-01", Surname: "Dupont", GivenName: "Marie"},
	}, e.Functions)
	assert.Equal(t, []types.Link{
		{Code: "001", Description: "Absorption", Subject: "0123456789", Object: "0987654321", Begin: "2019-01-01"},
	}, e.LinkedEnterprises)
}

func TestParseEnterprise_MissingFieldsAreEmpty(t *testing.T) {
	assert.Equal(t, types.Enterprise{}, ParseEnterprise("not xml at all"))

	e := ParseEnterprise(`<Enterprise><Number>0200065765</Number><Zipcode>9000</Zipcode></Enterprise>`)
	assert.Equal(t, "0200065765", e.Number)
	require.NotNil(t, e.Address)
	assert.Equal(t, "9000", e.Address.Zipcode)
	assert.Empty(t, e.Address.Street)
	assert.Nil(t, e.Capital)
	assert.Nil(t, e.Financial)
	assert.Nil(t, e.Status)
	assert.Empty(t, e.Functions)
}

func TestPasswordDigest(t *testing.T) {
	nonce := []byte("0123456789abcdef")
	created := "2026-03-01T10:00:00Z"

	h := sha1.Sum(append(append(append([]byte{}, nonce...), created...), "secret"...))
	want := base64.StdEncoding.EncodeToString(h[:])
	assert.Equal(t, want, passwordDigest(nonce, created, "secret"))
}

func TestNewUsernameToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 11, 0, 0, 123456789, time.FixedZone("CET", 3600))
	tok, err := newUsernameToken("user", "pw", now, bytes.NewReader(bytes.Repeat([]byte{7}, 16)))
	require.NoError(t, err)

	assert.Equal(t, "2026-03-01T10:00:00Z", tok.Created)
	assert.Equal(t, "2026-03-01T10:05:00Z", tok.Expires)
	assert.Equal(t, base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 16)), tok.Nonce)
	assert.Regexp(t, `^UsernameToken-[0-9A-F]{32}$`, tok.TokenID)
	assert.Regexp(t, `^TS-[0-9A-F]{32}$`, tok.TimestampID)

	_, err = newUsernameToken("user", "pw", now, bytes.NewReader(nil))
	assert.Error(t, err)
}

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c := NewClient(ts.Client(), types.KBOConfig{ServiceURL: ts.URL, Username: "wsuser", Password: "s3cret"})
	c.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	c.random = bytes.NewReader(bytes.Repeat([]byte{1}, 16))
	return c
}

func TestReadEnterprise(t *testing.T) {
	var gotBody string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "http://fgov.economie.be/kbopub/ReadEnterprise", r.Header.Get("SOAPAction"))
		assert.Equal(t, "text/xml;charset=UTF-8", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		io.WriteString(w, sampleReply)
	})

	e, err := c.ReadEnterprise(context.Background(), "123.456.789")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", e.Number)
	assert.Equal(t, "Boulangerie Dupont & Fils", e.Name)

	assert.Contains(t, gotBody, "<dat:EnterpriseNumber>0123456789</dat:EnterpriseNumber>")
	assert.Contains(t, gotBody, "<wsse:Username>wsuser</wsse:Username>")
	assert.Contains(t, gotBody, "<mes:Language>fr</mes:Language>")
	assert.Contains(t, gotBody, "<wsu:Expires>2026-03-01T10:05:00Z</wsu:Expires>")
	assert.NotContains(t, gotBody, "s3cret", "password travels only as a digest")

	digest := passwordDigest(bytes.Repeat([]byte{1}, 16), "2026-03-01T10:00:00Z", "s3cret")
	assert.Contains(t, gotBody, ">"+digest+"</wsse:Password>")
	assert.Regexp(t, regexp.MustCompile(`<mes:Id>[0-9a-f-]{36}</mes:Id>`), gotBody)
}

func TestReadEnterprise_Fault(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `<soap:Envelope><soap:Body><soap:Fault><faultcode>soap:Client</faultcode><faultstring>Invalid enterprise number</faultstring></soap:Fault></soap:Body></soap:Envelope>`)
	})

	_, err := c.ReadEnterprise(context.Background(), "0123456789")
	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "soap:Client", fault.Code)
	assert.Equal(t, "Invalid enterprise number", fault.Message)
}

func TestReadEnterprise_Errors(t *testing.T) {
	t.Run("HTTP status without fault", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gateway down", http.StatusBadGateway)
		})
		_, err := c.ReadEnterprise(context.Background(), "0123456789")
		var te *httputil.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, http.StatusBadGateway, te.StatusCode)
		assert.Equal(t, "gateway down", te.Body)
	})

	t.Run("empty reply", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, `<soap:Envelope><soap:Body><ns3:ReadEnterpriseReply/></soap:Body></soap:Envelope>`)
		})
		_, err := c.ReadEnterprise(context.Background(), "0123456789")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid number", func(t *testing.T) {
		c := testClient(t, func(http.ResponseWriter, *http.Request) {
			t.Error("no request expected")
		})
		_, err := c.ReadEnterprise(context.Background(), "12345678901")
		assert.Error(t, err)
	})

	t.Run("missing credentials", func(t *testing.T) {
		c := NewClient(nil, types.KBOConfig{})
		_, err := c.ReadEnterprise(context.Background(), "0123456789")
		assert.True(t, errors.Is(err, ErrCredentials))
	})
}

func TestEnvelopeEscapesValues(t *testing.T) {
	var b strings.Builder
	err := envelope{Token: usernameToken{Username: `a<b&"c"`}, Language: "nl", Number: "0123456789"}.render(&b)
	require.NoError(t, err)
	assert.Contains(t, b.String(), "<wsse:Username>a&lt;b&amp;&#34;c&#34;</wsse:Username>")
	assert.Contains(t, b.String(), "<mes:Language>nl</mes:Language>")
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(nil, types.KBOConfig{})
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
	assert.Equal(t, DefaultLanguage, c.cfg.Language)
	assert.Equal(t, ServiceURL, c.serviceURL())
}
