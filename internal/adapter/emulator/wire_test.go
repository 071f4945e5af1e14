package emulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/mips-autograder.net/internal/domain"
)

func TestEncodeRequest_Canonical(t *testing.T) {
	req := &domain.ExecutionRequest{
		Source:           "add $s4, $s0, $s1\n",
		InitialRegisters: domain.RegisterState{domain.RegS1: 4, domain.RegS0: -2},
		InitialMemory:    domain.MemoryState{268500992: 5},
		CheckMemory:      []domain.Address{268500992, 268500996},
	}

	got, err := encodeRequest(req)
	require.NoError(t, err)
	assert.Equal(t,
		`{"check_memory":[268500992,268500996],"initial_memory":{"268500992":5},`+
			`"initial_registers":{"$s0":-2,"$s1":4},"protocol":1,"source_code":"add $s4, $s0, $s1\n"}`,
		string(got))

	again, err := encodeRequest(req)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestEncodeRequest_EmptyState(t *testing.T) {
	got, err := encodeRequest(&domain.ExecutionRequest{Source: "nop"})
	require.NoError(t, err)
	assert.Equal(t, `{"check_memory":[],"initial_memory":{},"initial_registers":{},"protocol":1,"source_code":"nop"}`, string(got))
}

func TestDecodeResponse(t *testing.T) {
	regs, mem, engineErr, err := decodeResponse([]byte(`{"registers":{"$t0":10,"$s4":4294967295},"memory":{"4":7},"error":""}` + "\n"))
	require.NoError(t, err)
	assert.Empty(t, engineErr)
	assert.Equal(t, domain.RegisterState{domain.RegT0: 10, domain.RegS4: -1}, regs)
	assert.Equal(t, domain.MemoryState{4: 7}, mem)
}

func TestDecodeResponse_EngineError(t *testing.T) {
	_, _, engineErr, err := decodeResponse([]byte(`{"registers":{},"memory":{},"error":"Unknown instruction: addd"}`))
	require.NoError(t, err)
	assert.Equal(t, "Unknown instruction: addd", engineErr)
}

func TestDecodeResponse_Malformed(t *testing.T) {
	for name, out := range map[string]string{
		"empty":            ``,
		"not json":         `segfault`,
		"two objects":      `{"registers":{}}{"registers":{}}`,
		"unknown register": `{"registers":{"$q1":1},"memory":{}}`,
		"word overflow":    `{"registers":{"$t0":99999999999},"memory":{}}`,
		"bad address":      `{"registers":{},"memory":{"-4":1}}`,
		"wrong type":       `{"registers":{"$t0":"ten"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := decodeResponse([]byte(out))
			assert.ErrorIs(t, err, errMalformed)
		})
	}
}

func TestLimitedBuffer(t *testing.T) {
	b := newLimitedBuffer(4)
	n, err := b.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, b.Truncated())

	n, err = b.Write([]byte("cdef"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, b.Truncated())
	assert.Equal(t, "abcd", string(b.Bytes()))
}
