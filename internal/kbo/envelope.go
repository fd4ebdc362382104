// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kbo

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"text/template"
)

var envelopeTmpl = template.Must(template.New("envelope").Funcs(template.FuncMap{
	"x": escapeXML,
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:dat="http://economie.fgov.be/kbopub/webservices/v1/datamodel" xmlns:mes="http://economie.fgov.be/kbopub/webservices/v1/messages" xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
   <soapenv:Header>
      <wsse:Security xmlns:wsse="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd" xmlns:wsu="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd" soapenv:mustUnderstand="1">
         <wsse:UsernameToken wsu:Id="{{x .Token.TokenID}}">
            <wsse:Username>{{x .Token.Username}}</wsse:Username>
            <wsse:Password Type="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordDigest">{{x .Token.Digest}}</wsse:Password>
            <wsse:Nonce EncodingType="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-soap-message-security-1.0#Base64Binary">{{x .Token.Nonce}}</wsse:Nonce>
            <wsu:Created>{{x .Token.Created}}</wsu:Created>
         </wsse:UsernameToken>
         <wsu:Timestamp wsu:Id="{{x .Token.TimestampID}}">
            <wsu:Created>{{x .Token.Created}}</wsu:Created>
            <wsu:Expires>{{x .Token.Expires}}</wsu:Expires>
         </wsu:Timestamp>
      </wsse:Security>
      <mes:RequestContext>
         <mes:Id>{{x .RequestID}}</mes:Id>
         <mes:Language>{{x .Language}}</mes:Language>
      </mes:RequestContext>
   </soapenv:Header>
   <soapenv:Body>
      <mes:ReadEnterpriseRequest>
         <dat:EnterpriseNumber>{{x .Number}}</dat:EnterpriseNumber>
      </mes:ReadEnterpriseRequest>
   </soapenv:Body>
</soapenv:Envelope>
`))

type envelope struct {
	Token     usernameToken
	RequestID string
	Language  string
	Number    string
}

func (e envelope) render(w io.Writer) error {
	if err := envelopeTmpl.Execute(w, e); err != nil {
		return fmt.Errorf("rendering SOAP envelope: %w", err)
	}
	return nil
}

func escapeXML(s string) string {
	var b bytes.Buffer
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
