// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// MaxMarkupBytes caps how much of a markup payload tag rules scan.
const MaxMarkupBytes = 8 << 20

var tagName = regexp.MustCompile(`^[A-Za-z_][\w.-]*$`)

// TagRule finds a numeric value in an XML or XBRL instance by a chain of
// element names separated by '/'. Each element may carry one attribute
// filter, e.g. "TangibleFixedAssets[contextRef=CurrentInstant]". Namespace
// prefixes are optional and elements need not be direct children: the chain
// matches the first occurrence of each name after the previous one.
type TagRule struct {
	raw string
	re  *regexp.Regexp
}

// ParseTagRule compiles a tag chain into a bounded pattern.
func ParseTagRule(s string) (TagRule, error) {
	steps := strings.Split(strings.TrimSpace(s), "/")
	var b strings.Builder
	b.WriteString(`(?s)`)
	for i, step := range steps {
		name, attr, err := splitTagStep(step)
		if err != nil {
			return TagRule{}, fmt.Errorf("tag rule %q: %w", s, err)
		}
		if i > 0 {
			b.WriteString(`.*?`)
		}
		b.WriteString(`<(?:[\w.-]+:)?`)
		b.WriteString(regexp.QuoteMeta(name))
		b.WriteString(`(?:\s[^>]*)?`)
		if attr != nil {
			fmt.Fprintf(&b, `\s(?:[\w.-]+:)?%s\s*=\s*["']%s["'][^>]*`,
				regexp.QuoteMeta(attr.key), regexp.QuoteMeta(attr.value))
		}
		b.WriteString(`>`)
	}
	b.WriteString(`([^<]*)<`)

	re, err := regexp.Compile(b.String())
	if err != nil {
		return TagRule{}, fmt.Errorf("tag rule %q: %w", s, err)
	}
	return TagRule{raw: s, re: re}, nil
}

func (r TagRule) String() string { return r.raw }

func splitTagStep(step string) (string, *fieldMatch, error) {
	step = strings.TrimSpace(step)
	name, rest, hasAttr := strings.Cut(step, "[")
	if !tagName.MatchString(name) {
		return "", nil, fmt.Errorf("bad element name %q", name)
	}
	if !hasAttr {
		return name, nil, nil
	}
	body, ok := strings.CutSuffix(rest, "]")
	if !ok {
		return "", nil, fmt.Errorf("unterminated attribute filter in %q", step)
	}
	k, v, ok := strings.Cut(body, "=")
	k, v = strings.TrimSpace(k), strings.TrimSpace(v)
	if !ok || !tagName.MatchString(k) {
		return "", nil, fmt.Errorf("bad attribute filter %q", body)
	}
	return name, &fieldMatch{key: k, value: v}, nil
}

// Find returns the text content of the first match, entity-decoded and
// trimmed.
func (r TagRule) Find(doc string) (string, bool) {
	if len(doc) > MaxMarkupBytes {
		doc = doc[:MaxMarkupBytes]
	}
	m := r.re.FindStringSubmatch(doc)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(html.UnescapeString(m[1])), true
}
