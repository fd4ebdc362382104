// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls fixed-asset and stock figures out of a structured
// annual-accounts payload. A payload is either a JSON document or an XML /
// XBRL instance; each figure is looked up through an ordered list of
// candidate locations and the first numeric hit wins. Extraction never
// fails: fields that cannot be found are left nil.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pdiddy/faillink/pkg/types"
)

// Extractor applies a compiled RuleSet. It is safe for concurrent use.
type Extractor struct {
	fields     map[Field][]Path
	markup     map[Field][]TagRule
	categories []compiledCategory
}

type compiledCategory struct {
	list  *listCategory
	fixed []fixedCategory
}

type listCategory struct {
	path     Path
	code     *Path
	label    *Path
	current  *Path
	previous *Path
	share    *Path
}

type fixedCategory struct {
	code, label       string
	current, previous []Path
}

// New compiles rs.
func New(rs RuleSet) (*Extractor, error) {
	x := &Extractor{
		fields: make(map[Field][]Path),
		markup: make(map[Field][]TagRule),
	}
	for field, exprs := range rs.Fields {
		for _, expr := range exprs {
			p, err := ParsePath(expr)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field, err)
			}
			x.fields[field] = append(x.fields[field], p)
		}
	}
	for field, exprs := range rs.Markup {
		for _, expr := range exprs {
			r, err := ParseTagRule(expr)
			if err != nil {
				return nil, fmt.Errorf("markup %s: %w", field, err)
			}
			x.markup[field] = append(x.markup[field], r)
		}
	}
	for i, cr := range rs.Categories {
		cc, err := compileCategory(cr)
		if err != nil {
			return nil, fmt.Errorf("category rule %d: %w", i, err)
		}
		x.categories = append(x.categories, cc)
	}
	return x, nil
}

func compileCategory(cr CategoryRule) (compiledCategory, error) {
	if len(cr.Fixed) > 0 {
		var out compiledCategory
		for _, fc := range cr.Fixed {
			cur, err := parsePaths(fc.Current)
			if err != nil {
				return compiledCategory{}, err
			}
			prev, err := parsePaths(fc.Previous)
			if err != nil {
				return compiledCategory{}, err
			}
			out.fixed = append(out.fixed, fixedCategory{code: fc.Code, label: fc.Label, current: cur, previous: prev})
		}
		return out, nil
	}

	base, err := ParsePath(cr.Path)
	if err != nil {
		return compiledCategory{}, err
	}
	lc := &listCategory{path: base}
	for _, rel := range []struct {
		expr string
		dst  **Path
	}{
		{cr.Code, &lc.code},
		{cr.Label, &lc.label},
		{cr.Current, &lc.current},
		{cr.Previous, &lc.previous},
		{cr.Share, &lc.share},
	} {
		if rel.expr == "" {
			continue
		}
		p, err := ParsePath(rel.expr)
		if err != nil {
			return compiledCategory{}, err
		}
		*rel.dst = &p
	}
	return compiledCategory{list: lc}, nil
}

func parsePaths(exprs []string) ([]Path, error) {
	out := make([]Path, 0, len(exprs))
	for _, e := range exprs {
		p, err := ParsePath(e)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

var defaultExtractor = sync.OnceValue(func() *Extractor {
	x, err := New(DefaultRules())
	if err != nil {
		panic(fmt.Sprintf("built-in extraction rules: %v", err))
	}
	return x
})

// Default returns the extractor built from the built-in rules.
func Default() *Extractor { return defaultExtractor() }

// Extract runs the built-in rules over payload.
func Extract(payload []byte) types.ExtractedFigures {
	return Default().Extract(payload)
}

// Extract detects the payload kind and applies the matching rules. Payloads
// that are neither JSON nor markup yield empty figures.
func (x *Extractor) Extract(payload []byte) types.ExtractedFigures {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(payload, []byte("\xef\xbb\xbf")))
	if len(trimmed) == 0 {
		return types.ExtractedFigures{}
	}
	switch trimmed[0] {
	case '<':
		return x.ExtractMarkup(string(trimmed))
	case '{', '[':
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var tree any
		if err := dec.Decode(&tree); err != nil {
			return types.ExtractedFigures{}
		}
		return x.ExtractTree(tree)
	default:
		return types.ExtractedFigures{}
	}
}

// ExtractTree applies the JSON rules to an already decoded document.
func (x *Extractor) ExtractTree(tree any) types.ExtractedFigures {
	values := make(map[Field]*float64, len(Fields))
	for _, f := range Fields {
		values[f] = firstNumber(tree, x.fields[f])
	}
	figs := assemble(values)
	figs.Categories = x.extractCategories(tree, figs.NetBookValue)
	return figs
}

// ExtractMarkup applies the tag rules to an XML or XBRL document.
// Category breakdowns are only available from JSON payloads.
func (x *Extractor) ExtractMarkup(doc string) types.ExtractedFigures {
	values := make(map[Field]*float64, len(Fields))
	for _, f := range Fields {
		for _, r := range x.markup[f] {
			text, ok := r.Find(doc)
			if !ok {
				continue
			}
			if v, ok := ToFloat(text); ok {
				values[f] = &v
				break
			}
		}
	}
	return assemble(values)
}

// assemble fills derived values: the net book value falls back to
// acquisition minus depreciation, and the change is computed whenever both
// periods are known and the previous one is non-zero.
func assemble(values map[Field]*float64) types.ExtractedFigures {
	figs := types.ExtractedFigures{
		AcquisitionValue:        values[FieldAcquisitionValue],
		AccumulatedDepreciation: values[FieldAccumulatedDepreciation],
		NetBookValue:            values[FieldNetBookValue],
		NetBookValuePrevious:    values[FieldNetBookValuePrevious],
		Stocks:                  values[FieldStocks],
	}
	if figs.NetBookValue == nil && figs.AcquisitionValue != nil && figs.AccumulatedDepreciation != nil {
		nbv := *figs.AcquisitionValue - *figs.AccumulatedDepreciation
		figs.NetBookValue = &nbv
	}
	figs.NetBookValueChangePct = percentChange(figs.NetBookValue, figs.NetBookValuePrevious)
	return figs
}

func percentChange(cur, prev *float64) *float64 {
	if cur == nil || prev == nil || *prev == 0 {
		return nil
	}
	pct := round2((*cur - *prev) / *prev * 100)
	return &pct
}

func firstNumber(tree any, paths []Path) *float64 {
	for _, p := range paths {
		raw, ok := p.Lookup(tree)
		if !ok {
			continue
		}
		if v, ok := ToFloat(raw); ok {
			return &v
		}
	}
	return nil
}

// extractCategories returns the output of the first strategy that finds at
// least one category.
func (x *Extractor) extractCategories(tree any, nbv *float64) []types.CategoryFigure {
	for _, cc := range x.categories {
		var cats []types.CategoryFigure
		if cc.list != nil {
			cats = cc.list.extract(tree)
		} else {
			cats = extractFixed(tree, cc.fixed)
		}
		if len(cats) == 0 {
			continue
		}
		for i := range cats {
			if cats[i].SharePercent == nil && cats[i].Current != nil && nbv != nil && *nbv != 0 {
				share := round2(*cats[i].Current / *nbv * 100)
				cats[i].SharePercent = &share
			}
		}
		return cats
	}
	return nil
}

func (lc *listCategory) extract(tree any) []types.CategoryFigure {
	raw, ok := lc.path.Lookup(tree)
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []types.CategoryFigure
	for _, item := range items {
		cat := types.CategoryFigure{
			Code:         lookupString(item, lc.code),
			Label:        lookupString(item, lc.label),
			Current:      lookupNumber(item, lc.current),
			Previous:     lookupNumber(item, lc.previous),
			SharePercent: lookupNumber(item, lc.share),
		}
		if cat.Code == "" && cat.Current == nil && cat.Previous == nil {
			continue
		}
		out = append(out, cat)
	}
	return out
}

func extractFixed(tree any, fixed []fixedCategory) []types.CategoryFigure {
	var out []types.CategoryFigure
	for _, fc := range fixed {
		cur := firstNumber(tree, fc.current)
		prev := firstNumber(tree, fc.previous)
		if cur == nil && prev == nil {
			continue
		}
		out = append(out, types.CategoryFigure{Code: fc.code, Label: fc.label, Current: cur, Previous: prev})
	}
	return out
}

func lookupString(item any, p *Path) string {
	if p == nil {
		return ""
	}
	raw, ok := p.Lookup(item)
	if !ok {
		return ""
	}
	s, _ := scalarString(raw)
	return strings.TrimSpace(s)
}

func lookupNumber(item any, p *Path) *float64 {
	if p == nil {
		return nil
	}
	return firstNumber(item, []Path{*p})
}
