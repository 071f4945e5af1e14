package grading

import (
	"fmt"

	"gitlab.com/mips-autograder.net/internal/domain"
)

// Compare checks the expected registers and memory words against the actual
// machine state. Only expected keys are inspected. A key absent from the actual
// state is a mismatch with a nil Actual. Mismatches come out in register
// number order, then ascending address order.
func Compare(
	expectedRegs, actualRegs domain.RegisterState,
	expectedMem, actualMem domain.MemoryState,
) (bool, []domain.Mismatch) {
	mismatches := make([]domain.Mismatch, 0)

	for _, reg := range expectedRegs.Sorted() {
		want := expectedRegs[reg]
		got, ok := actualRegs[reg]
		if ok && got == want {
			continue
		}
		mismatches = append(mismatches, newMismatch(reg.String(), want, got, ok))
	}

	for _, addr := range expectedMem.Sorted() {
		want := expectedMem[addr]
		got, ok := actualMem[addr]
		if ok && got == want {
			continue
		}
		mismatches = append(mismatches, newMismatch(MemoryField(addr), want, got, ok))
	}

	return len(mismatches) == 0, mismatches
}

// MemoryField names a memory word in a mismatch, e.g. "mem[268500992]".
func MemoryField(addr domain.Address) string {
	return fmt.Sprintf("mem[%s]", addr)
}

func newMismatch(field string, want, got int32, present bool) domain.Mismatch {
	m := domain.Mismatch{Field: field, Expected: want}
	if present {
		actual := got
		m.Actual = &actual
	}
	return m
}
