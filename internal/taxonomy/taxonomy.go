// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package taxonomy holds the declarative risk and compliance tables that drive
// detection, scoring and recommendations. The built-in tables are embedded and
// parsed once; callers share the result and must treat it as read-only.
package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultData []byte

// ErrInvalid is returned when a taxonomy fails validation.
var ErrInvalid = errors.New("invalid taxonomy")

// Severity tags a risk advisory.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// RiskCategory is a named class of unfavorable clause.
type RiskCategory struct {
	Key      string   `yaml:"key" json:"key"`
	Title    string   `yaml:"title" json:"title"`
	Weight   int      `yaml:"weight" json:"weight"`
	Severity Severity `yaml:"severity" json:"severity"`
	Advisory string   `yaml:"advisory" json:"advisory"`
	Patterns []string `yaml:"patterns" json:"patterns"`
}

// Framework is a regulatory regime whose language is detected.
// MissingAdvisory is emitted when the framework is absent; it may be empty.
type Framework struct {
	Key             string   `yaml:"key" json:"key"`
	Title           string   `yaml:"title" json:"title"`
	Bonus           int      `yaml:"bonus" json:"bonus"`
	MissingAdvisory string   `yaml:"missing_advisory,omitempty" json:"missing_advisory,omitempty"`
	Patterns        []string `yaml:"patterns" json:"patterns"`
}

// Taxonomy is the complete rule table.
type Taxonomy struct {
	Version                string         `yaml:"version" json:"version"`
	BaseScore              int            `yaml:"base_score" json:"base_score"`
	RiskContextChars       int            `yaml:"risk_context_chars" json:"risk_context_chars"`
	ComplianceContextChars int            `yaml:"compliance_context_chars" json:"compliance_context_chars"`
	FairAdvisory           string         `yaml:"fair_advisory" json:"fair_advisory"`
	Risks                  []RiskCategory `yaml:"risks" json:"risks"`
	Frameworks             []Framework    `yaml:"frameworks" json:"frameworks"`
}

var loadDefault = sync.OnceValue(func() *Taxonomy {
	t, err := Parse(defaultData)
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy: %v", err))
	}
	return t
})

// Default returns the built-in taxonomy.
func Default() *Taxonomy {
	return loadDefault()
}

// Parse decodes and validates a YAML taxonomy.
func Parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads a taxonomy override file.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadOrDefault loads path when set, otherwise returns Default.
func LoadOrDefault(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks keys, weights, context sizes and that every pattern compiles.
func (t *Taxonomy) Validate() error {
	if t.RiskContextChars < 0 || t.ComplianceContextChars < 0 {
		return fmt.Errorf("%w: context chars must not be negative", ErrInvalid)
	}
	if t.FairAdvisory == "" {
		return fmt.Errorf("%w: fair_advisory is required", ErrInvalid)
	}
	if len(t.Risks) == 0 && len(t.Frameworks) == 0 {
		return fmt.Errorf("%w: no risk categories or frameworks", ErrInvalid)
	}

	seen := make(map[string]bool)
	for _, r := range t.Risks {
		if err := checkEntry("risk", r.Key, r.Patterns, seen); err != nil {
			return err
		}
		if r.Weight < 0 {
			return fmt.Errorf("%w: risk %q has negative weight", ErrInvalid, r.Key)
		}
		if r.Advisory == "" {
			return fmt.Errorf("%w: risk %q has no advisory", ErrInvalid, r.Key)
		}
	}

	seen = make(map[string]bool)
	for _, f := range t.Frameworks {
		if err := checkEntry("framework", f.Key, f.Patterns, seen); err != nil {
			return err
		}
		if f.Bonus < 0 {
			return fmt.Errorf("%w: framework %q has negative bonus", ErrInvalid, f.Key)
		}
	}
	return nil
}

func checkEntry(kind, key string, patterns []string, seen map[string]bool) error {
	if key == "" {
		return fmt.Errorf("%w: %s with empty key", ErrInvalid, kind)
	}
	if seen[key] {
		return fmt.Errorf("%w: duplicate %s %q", ErrInvalid, kind, key)
	}
	seen[key] = true
	if len(patterns) == 0 {
		return fmt.Errorf("%w: %s %q has no patterns", ErrInvalid, kind, key)
	}
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: %s %q pattern %q: %v", ErrInvalid, kind, key, p, err)
		}
	}
	return nil
}

// Risk looks up a risk category by key.
func (t *Taxonomy) Risk(key string) (RiskCategory, bool) {
	for _, r := range t.Risks {
		if r.Key == key {
			return r, true
		}
	}
	return RiskCategory{}, false
}

// Framework looks up a compliance framework by key.
func (t *Taxonomy) Framework(key string) (Framework, bool) {
	for _, f := range t.Frameworks {
		if f.Key == key {
			return f, true
		}
	}
	return Framework{}, false
}

// RiskKeys returns risk category keys in table order.
func (t *Taxonomy) RiskKeys() []string {
	keys := make([]string, len(t.Risks))
	for i, r := range t.Risks {
		keys[i] = r.Key
	}
	return keys
}

// FrameworkKeys returns framework keys in table order.
func (t *Taxonomy) FrameworkKeys() []string {
	keys := make([]string, len(t.Frameworks))
	for i, f := range t.Frameworks {
		keys[i] = f.Key
	}
	return keys
}

// MaxDeduction is the sum of all risk weights.
func (t *Taxonomy) MaxDeduction() int {
	total := 0
	for _, r := range t.Risks {
		total += r.Weight
	}
	return total
}
