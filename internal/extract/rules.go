// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"
)

// Field names a figure the extractor looks for.
type Field string

const (
	FieldAcquisitionValue        Field = "acquisition_value"
	FieldAccumulatedDepreciation Field = "accumulated_depreciation"
	FieldNetBookValue            Field = "net_book_value"
	FieldNetBookValuePrevious    Field = "net_book_value_previous"
	FieldStocks                  Field = "stocks"
)

// Fields lists every figure in output order.
var Fields = []Field{
	FieldAcquisitionValue,
	FieldAccumulatedDepreciation,
	FieldNetBookValue,
	FieldNetBookValuePrevious,
	FieldStocks,
}

//go:embed default_rules.yaml
var defaultRulesYAML []byte

//go:embed rules.schema.json
var rulesSchemaJSON []byte

// RuleSet is the declarative form of an extractor: ordered candidate
// locations per field plus category breakdown strategies.
type RuleSet struct {
	Fields     map[Field][]string `yaml:"fields"`
	Markup     map[Field][]string `yaml:"markup"`
	Categories []CategoryRule     `yaml:"categories"`
}

// CategoryRule yields per-category figures. Either Path names an array whose
// elements are read through the relative Code, Label, Current, Previous and
// Share paths, or Fixed lists categories with their own candidate paths.
type CategoryRule struct {
	Path     string          `yaml:"path,omitempty"`
	Code     string          `yaml:"code,omitempty"`
	Label    string          `yaml:"label,omitempty"`
	Current  string          `yaml:"current,omitempty"`
	Previous string          `yaml:"previous,omitempty"`
	Share    string          `yaml:"share,omitempty"`
	Fixed    []FixedCategory `yaml:"fixed,omitempty"`
}

// FixedCategory is a category whose code and label are known up front.
type FixedCategory struct {
	Code     string   `yaml:"code"`
	Label    string   `yaml:"label,omitempty"`
	Current  []string `yaml:"current"`
	Previous []string `yaml:"previous,omitempty"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() RuleSet {
	rs, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in extraction rules: %v", err))
	}
	return rs
}

// LoadRules reads a YAML rules file.
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("reading rules %s: %w", path, err)
	}
	rs, err := ParseRules(data)
	if err != nil {
		return RuleSet{}, fmt.Errorf("rules %s: %w", path, err)
	}
	return rs, nil
}

// ParseRules decodes YAML rules and checks them against the rules schema.
func ParseRules(data []byte) (RuleSet, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RuleSet{}, fmt.Errorf("parsing YAML: %w", err)
	}
	if doc == nil {
		return RuleSet{}, fmt.Errorf("empty rules document")
	}
	if err := validateRules(doc); err != nil {
		return RuleSet{}, err
	}

	var rs RuleSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rs); err != nil {
		return RuleSet{}, fmt.Errorf("decoding rules: %w", err)
	}
	return rs, nil
}

// validateRules re-encodes the YAML tree as JSON so the validator sees the
// same value shapes encoding/json produces.
func validateRules(doc any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("rules are not JSON-compatible: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal rules: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rules.schema.json", bytes.NewReader(rulesSchemaJSON)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("rules.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("rules do not match schema: %w", err)
	}
	return nil
}
