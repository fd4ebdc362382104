// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cbe handles Belgian enterprise numbers (CBE/KBO/BCE).
//
// The canonical form is ten digits with leading zeros kept. Registry pages
// print numbers dotted, either as 0123.456.789 or, for older entities, as
// 123.456.789 without the leading zero.
package cbe

import (
	"regexp"
	"strings"
)

// Width is the number of digits in a canonical enterprise number.
const Width = 10

// Pattern matches a dotted enterprise number in free text.
var Pattern = regexp.MustCompile(`\d{3,4}\.\d{3}\.\d{3}`)

var canonical = regexp.MustCompile(`^\d{10}$`)

// Normalize strips separators and left-pads to Width digits. It is total and
// idempotent: any input yields a string, and Normalize(Normalize(s)) equals
// Normalize(s). Inputs with more than Width digits are returned unpadded so
// that Valid can reject them.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(Width)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 0 || len(digits) >= Width {
		return digits
	}
	return strings.Repeat("0", Width-len(digits)) + digits
}

// Valid reports whether s is already in canonical form.
func Valid(s string) bool {
	return canonical.MatchString(s)
}

// Find returns every dotted enterprise number in text, in order, unnormalized.
func Find(text string) []string {
	m := Pattern.FindAllString(text, -1)
	if m == nil {
		return []string{}
	}
	return m
}

// Format renders a canonical number as 0123.456.789.
func Format(s string) string {
	n := Normalize(s)
	if !Valid(n) {
		return s
	}
	return n[:4] + "." + n[4:7] + "." + n[7:]
}
