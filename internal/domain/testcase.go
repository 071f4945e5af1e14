package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var ErrInvalidTestCase = errors.New("invalid test case")

// DefaultTestCasePoints is the weight of a test case whose points are omitted.
const DefaultTestCasePoints = 10

// TestCase represents one grading scenario for a lab
type TestCase struct {
	ID                uuid.UUID
	LabID             string
	Name              string
	Description       string
	Points            int
	InitialRegisters  RegisterState
	InitialMemory     MemoryState
	ExpectedRegisters RegisterState
	ExpectedMemory    MemoryState
	IsHidden          bool
}

// CheckMemory returns the addresses the engine has to report back, ascending.
func (t *TestCase) CheckMemory() []Address {
	return t.ExpectedMemory.Sorted()
}

// TestCaseSpec is the open, string keyed form of a test case as it is stored in the
// database, written in fixtures and accepted over HTTP.
type TestCaseSpec struct {
	Name              string           `json:"name" yaml:"name"`
	Description       string           `json:"description,omitempty" yaml:"description"`
	Points            int              `json:"points" yaml:"points"`
	InitialRegisters  map[string]int64 `json:"initial_registers,omitempty" yaml:"initial_registers"`
	InitialMemory     map[string]int64 `json:"initial_memory,omitempty" yaml:"initial_memory"`
	ExpectedRegisters map[string]int64 `json:"expected_registers,omitempty" yaml:"expected_registers"`
	ExpectedMemory    map[string]int64 `json:"expected_memory,omitempty" yaml:"expected_memory"`
	IsHidden          bool             `json:"is_hidden" yaml:"is_hidden"`
}

// UnmarshalJSON applies DefaultTestCasePoints when points is absent or null.
func (s *TestCaseSpec) UnmarshalJSON(data []byte) error {
	type plain TestCaseSpec
	p := plain{Points: DefaultTestCasePoints}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = TestCaseSpec(p)
	return nil
}

// UnmarshalYAML is the fixture counterpart of UnmarshalJSON.
func (s *TestCaseSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain TestCaseSpec
	p := plain{Points: DefaultTestCasePoints}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = TestCaseSpec(p)
	return nil
}

// Build validates the spec and returns the immutable test case.
func (s TestCaseSpec) Build(labID string) (*TestCase, error) {
	if s.Points < 0 {
		return nil, fmt.Errorf("%w: %q has negative points %d", ErrInvalidTestCase, s.Name, s.Points)
	}
	initRegs, err := ParseRegisterState(s.InitialRegisters)
	if err != nil {
		return nil, fmt.Errorf("%w: %q initial registers: %w", ErrInvalidTestCase, s.Name, err)
	}
	initMem, err := ParseMemoryState(s.InitialMemory)
	if err != nil {
		return nil, fmt.Errorf("%w: %q initial memory: %w", ErrInvalidTestCase, s.Name, err)
	}
	wantRegs, err := ParseRegisterState(s.ExpectedRegisters)
	if err != nil {
		return nil, fmt.Errorf("%w: %q expected registers: %w", ErrInvalidTestCase, s.Name, err)
	}
	wantMem, err := ParseMemoryState(s.ExpectedMemory)
	if err != nil {
		return nil, fmt.Errorf("%w: %q expected memory: %w", ErrInvalidTestCase, s.Name, err)
	}

	name := s.Name
	if name == "" {
		name = "Test"
	}

	return &TestCase{
		ID:                uuid.New(),
		LabID:             labID,
		Name:              name,
		Description:       s.Description,
		Points:            s.Points,
		InitialRegisters:  initRegs,
		InitialMemory:     initMem,
		ExpectedRegisters: wantRegs,
		ExpectedMemory:    wantMem,
		IsHidden:          s.IsHidden,
	}, nil
}

// Spec converts the test case back to its wire form.
func (t *TestCase) Spec() TestCaseSpec {
	return TestCaseSpec{
		Name:              t.Name,
		Description:       t.Description,
		Points:            t.Points,
		InitialRegisters:  t.InitialRegisters.Names(),
		InitialMemory:     t.InitialMemory.Decimal(),
		ExpectedRegisters: t.ExpectedRegisters.Names(),
		ExpectedMemory:    t.ExpectedMemory.Decimal(),
		IsHidden:          t.IsHidden,
	}
}

// BuildTestCases builds every spec, failing on the first invalid one.
func BuildTestCases(labID string, specs []TestCaseSpec) ([]*TestCase, error) {
	cases := make([]*TestCase, 0, len(specs))
	for _, spec := range specs {
		tc, err := spec.Build(labID)
		if err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

// TestCaseSummary is what a student may see about a test case.
type TestCaseSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}

// Sanitize projects test cases onto their student visible fields.
func Sanitize(cases []*TestCase) []TestCaseSummary {
	out := make([]TestCaseSummary, 0, len(cases))
	for _, tc := range cases {
		out = append(out, TestCaseSummary{
			Name:        tc.Name,
			Description: tc.Description,
			Points:      tc.Points,
		})
	}
	return out
}
