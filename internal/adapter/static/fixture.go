// Package static holds the built-in lab table compiled into the binary.
package static

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"gitlab.com/mips-autograder.net/internal/domain"
)

// FixtureVersion is the only builtin_labs.yaml format this build understands.
const FixtureVersion = 1

//go:embed builtin_labs.yaml
var builtinLabs []byte

type fixtureFile struct {
	Version int                   `yaml:"version"`
	Labs    map[string]fixtureLab `yaml:"labs"`
}

type fixtureLab struct {
	Title     string                `yaml:"title"`
	TestCases []domain.TestCaseSpec `yaml:"test_cases"`
}

// Table is a parsed, validated fixture.
type Table struct {
	titles map[string]string
	cases  map[string][]*domain.TestCase
}

// Builtin parses the embedded fixture.
func Builtin() (*Table, error) {
	return Parse(builtinLabs)
}

// Parse decodes and validates a fixture document.
func Parse(data []byte) (*Table, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse lab fixture: %w", err)
	}
	if f.Version != FixtureVersion {
		return nil, fmt.Errorf("unsupported lab fixture version %d, want %d", f.Version, FixtureVersion)
	}

	t := &Table{
		titles: make(map[string]string, len(f.Labs)),
		cases:  make(map[string][]*domain.TestCase, len(f.Labs)),
	}
	for labID, lab := range f.Labs {
		cases, err := domain.BuildTestCases(labID, lab.TestCases)
		if err != nil {
			return nil, fmt.Errorf("lab fixture %s: %w", labID, err)
		}
		t.titles[labID] = lab.Title
		t.cases[labID] = cases
	}
	return t, nil
}

// TestCases returns the cases of a lab, nil when unknown.
func (t *Table) TestCases(labID string) []*domain.TestCase {
	return t.cases[labID]
}

// Title returns the lab title, empty when unknown.
func (t *Table) Title(labID string) string {
	return t.titles[labID]
}

// LabIDs lists the labs in the table, sorted.
func (t *Table) LabIDs() []string {
	ids := make([]string, 0, len(t.cases))
	for id := range t.cases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
