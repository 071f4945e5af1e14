package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTestCaseSpecBuild(t *testing.T) {
	spec := TestCaseSpec{
		Name:              "sum",
		Description:       "adds two numbers",
		Points:            5,
		InitialRegisters:  map[string]int64{"$s0": 2, "$s1": 4},
		InitialMemory:     map[string]int64{"0x10010000": 7},
		ExpectedRegisters: map[string]int64{"$s4": 6},
		ExpectedMemory:    map[string]int64{"268500996": 9, "268500992": 7},
	}

	tc, err := spec.Build("lab-1")
	require.NoError(t, err)
	assert.Equal(t, "lab-1", tc.LabID)
	assert.Equal(t, RegisterState{RegS0: 2, RegS1: 4}, tc.InitialRegisters)
	assert.Equal(t, MemoryState{0x10010000: 7}, tc.InitialMemory)
	assert.Equal(t, []Address{268500992, 268500996}, tc.CheckMemory())

	back := tc.Spec()
	assert.Equal(t, map[string]int64{"268500992": 7}, back.InitialMemory)
}

func TestTestCaseSpecBuild_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec TestCaseSpec
	}{
		{"negative points", TestCaseSpec{Name: "x", Points: -1}},
		{"unknown register", TestCaseSpec{Name: "x", ExpectedRegisters: map[string]int64{"$x9": 1}}},
		{"bad address", TestCaseSpec{Name: "x", ExpectedMemory: map[string]int64{"top": 1}}},
		{"word overflow", TestCaseSpec{Name: "x", InitialRegisters: map[string]int64{"$t0": 1 << 40}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.spec.Build("lab")
			assert.ErrorIs(t, err, ErrInvalidTestCase)
		})
	}
}

func TestBuildTestCases_DefaultName(t *testing.T) {
	cases, err := BuildTestCases("lab", []TestCaseSpec{{Points: 1}, {Name: "second"}})
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "Test", cases[0].Name)
	assert.Equal(t, "second", cases[1].Name)
}

func TestTestCaseSpec_DefaultPoints(t *testing.T) {
	var spec TestCaseSpec
	require.NoError(t, json.Unmarshal([]byte(`{"name":"a","expected_registers":{"$s4":1}}`), &spec))
	assert.Equal(t, DefaultTestCasePoints, spec.Points)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"b","points":null}`), &spec))
	assert.Equal(t, DefaultTestCasePoints, spec.Points)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"c","points":0}`), &spec))
	assert.Zero(t, spec.Points)

	var specs []TestCaseSpec
	require.NoError(t, yaml.Unmarshal([]byte("- name: d\n- name: e\n  points: 3\n"), &specs))
	require.Len(t, specs, 2)
	assert.Equal(t, DefaultTestCasePoints, specs[0].Points)
	assert.Equal(t, 3, specs[1].Points)
}

func TestSanitize_HidesExpectations(t *testing.T) {
	tc, err := TestCaseSpec{
		Name:              "hidden check",
		Description:       "secret",
		Points:            5,
		InitialRegisters:  map[string]int64{"$s0": 1},
		ExpectedRegisters: map[string]int64{"$t0": 10},
		ExpectedMemory:    map[string]int64{"4": 1},
		IsHidden:          true,
	}.Build("lab")
	require.NoError(t, err)

	out := Sanitize([]*TestCase{tc})
	require.Len(t, out, 1)
	assert.Equal(t, TestCaseSummary{Name: "hidden check", Description: "secret", Points: 5}, out[0])

	raw, err := json.Marshal(out[0])
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Len(t, fields, 3)
	for _, key := range []string{"initial_registers", "expected_registers", "expected_memory", "is_hidden"} {
		assert.NotContains(t, fields, key)
	}
}
