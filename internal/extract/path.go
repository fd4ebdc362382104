// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Path addresses a value in a decoded JSON tree.
//
// Segments are separated by dots. A segment is a key optionally followed by
// bracket selectors: [n] indexes an array, [k=v,k2=v2] picks the first array
// element whose fields equal the given values. A bare selector segment
// applies to the current value. Examples:
//
//	balanceSheet.assets.fixedAssets.tangible.acquisitionValue
//	Rubrics[Code=22/27,Period=N].Value
//	categories[0].code
type Path struct {
	raw  string
	segs []segment
}

type segment struct {
	key       string
	selectors []selector
}

type selector struct {
	index int // -1 when the selector is a field match
	match []fieldMatch
}

type fieldMatch struct {
	key, value string
}

// ParsePath compiles a path expression.
func ParsePath(s string) (Path, error) {
	if strings.TrimSpace(s) == "" {
		return Path{}, fmt.Errorf("empty path")
	}
	parts, err := splitSegments(s)
	if err != nil {
		return Path{}, fmt.Errorf("path %q: %w", s, err)
	}
	p := Path{raw: s}
	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return Path{}, fmt.Errorf("path %q: %w", s, err)
		}
		p.segs = append(p.segs, seg)
	}
	return p, nil
}

// MustParsePath is ParsePath that panics on error.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) String() string { return p.raw }

// splitSegments splits on dots outside brackets.
func splitSegments(s string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced ']' at %d", i)
			}
		case '.':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced '['")
	}
	parts = append(parts, s[start:])
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty segment")
		}
	}
	return parts, nil
}

func parseSegment(part string) (segment, error) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		return segment{key: part}, nil
	}
	seg := segment{key: part[:open]}
	rest := part[open:]
	for rest != "" {
		if rest[0] != '[' {
			return segment{}, fmt.Errorf("unexpected %q after selector", rest)
		}
		end := strings.IndexByte(rest, ']')
		body := rest[1:end]
		rest = rest[end+1:]

		if n, err := strconv.Atoi(body); err == nil {
			if n < 0 {
				return segment{}, fmt.Errorf("negative index %d", n)
			}
			seg.selectors = append(seg.selectors, selector{index: n})
			continue
		}
		sel := selector{index: -1}
		for _, kv := range strings.Split(body, ",") {
			k, v, ok := strings.Cut(kv, "=")
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if !ok || k == "" {
				return segment{}, fmt.Errorf("bad selector %q", body)
			}
			sel.match = append(sel.match, fieldMatch{key: k, value: v})
		}
		seg.selectors = append(seg.selectors, sel)
	}
	return seg, nil
}

// Lookup walks root along the path. The second result is false when any
// step is missing or has the wrong shape, or when the final value is null.
func (p Path) Lookup(root any) (any, bool) {
	cur := root
	for _, seg := range p.segs {
		if seg.key != "" {
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			cur, ok = member(obj, seg.key)
			if !ok {
				return nil, false
			}
		}
		for _, sel := range seg.selectors {
			arr, ok := cur.([]any)
			if !ok {
				return nil, false
			}
			cur, ok = sel.apply(arr)
			if !ok {
				return nil, false
			}
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// member looks key up exactly, then case-insensitively. Among several
// case-insensitive matches the lexically smallest key wins.
func member(obj map[string]any, key string) (any, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	var candidates []string
	for k := range obj {
		if strings.EqualFold(k, key) {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	sort.Strings(candidates)
	return obj[candidates[0]], true
}

func (s selector) apply(arr []any) (any, bool) {
	if s.index >= 0 {
		if s.index >= len(arr) {
			return nil, false
		}
		return arr[s.index], true
	}
	for _, el := range arr {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if s.matches(obj) {
			return obj, true
		}
	}
	return nil, false
}

func (s selector) matches(obj map[string]any) bool {
	for _, m := range s.match {
		v, ok := member(obj, m.key)
		if !ok {
			return false
		}
		str, ok := scalarString(v)
		if !ok || str != m.value {
			return false
		}
	}
	return true
}

// scalarString renders strings and numbers; other shapes are rejected.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}
