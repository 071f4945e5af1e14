package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrUnknownRegister = errors.New("unknown register")
	ErrInvalidAddress  = errors.New("invalid memory address")
	ErrWordOutOfRange  = errors.New("value does not fit in a 32-bit word")
)

// Register is one of the 32 general purpose registers of the emulated machine.
type Register uint8

const (
	RegZero Register = iota
	RegAt
	RegV0
	RegV1
	RegA0
	RegA1
	RegA2
	RegA3
	RegT0
	RegT1
	RegT2
	RegT3
	RegT4
	RegT5
	RegT6
	RegT7
	RegS0
	RegS1
	RegS2
	RegS3
	RegS4
	RegS5
	RegS6
	RegS7
	RegT8
	RegT9
	RegK0
	RegK1
	RegGP
	RegSP
	RegFP
	RegRA

	NumRegisters = 32
)

var registerNames = [NumRegisters]string{
	"$zero", "$at", "$v0", "$v1",
	"$a0", "$a1", "$a2", "$a3",
	"$t0", "$t1", "$t2", "$t3", "$t4", "$t5", "$t6", "$t7",
	"$s0", "$s1", "$s2", "$s3", "$s4", "$s5", "$s6", "$s7",
	"$t8", "$t9", "$k0", "$k1",
	"$gp", "$sp", "$fp", "$ra",
}

var registersByName = func() map[string]Register {
	m := make(map[string]Register, NumRegisters)
	for i, name := range registerNames {
		m[name] = Register(i)
	}
	m["$s8"] = RegFP
	return m
}()

// String returns the canonical "$name" form.
func (r Register) String() string {
	if int(r) >= NumRegisters {
		return fmt.Sprintf("$%d", r)
	}
	return registerNames[r]
}

// ParseRegister accepts "$t0", "t0" and the numeric "$8" form.
func ParseRegister(name string) (Register, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if !strings.HasPrefix(n, "$") {
		n = "$" + n
	}
	if r, ok := registersByName[n]; ok {
		return r, nil
	}
	if digits := n[1:]; plainNumber(digits) {
		if idx, err := strconv.Atoi(digits); err == nil && idx < NumRegisters {
			return Register(idx), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRegister, name)
}

// plainNumber accepts unsigned decimal digits without a leading zero.
func plainNumber(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// AllRegisters returns the register set in register number order.
func AllRegisters() []Register {
	regs := make([]Register, NumRegisters)
	for i := range regs {
		regs[i] = Register(i)
	}
	return regs
}

// Address is a byte address in the emulated memory.
type Address uint32

// String returns the canonical decimal form used as the wire key.
func (a Address) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// ParseAddress accepts decimal and 0x-prefixed hexadecimal addresses.
func ParseAddress(s string) (Address, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	base := 10
	if strings.HasPrefix(t, "0x") {
		t, base = t[2:], 16
	}
	v, err := strconv.ParseUint(t, base, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return Address(v), nil
}

// ToWord narrows v to a signed machine word. Unsigned 32-bit values wrap.
func ToWord(v int64) (int32, error) {
	if v < math.MinInt32 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d", ErrWordOutOfRange, v)
	}
	return int32(uint32(v)), nil
}

// RegisterState maps registers to signed word values.
type RegisterState map[Register]int32

// Sorted returns the registers present in register number order.
func (s RegisterState) Sorted() []Register {
	regs := make([]Register, 0, len(s))
	for r := range s {
		regs = append(regs, r)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i] < regs[j] })
	return regs
}

// Names renders the state with canonical register names.
func (s RegisterState) Names() map[string]int64 {
	out := make(map[string]int64, len(s))
	for r, v := range s {
		out[r.String()] = int64(v)
	}
	return out
}

// ParseRegisterState converts a name-keyed mapping into a RegisterState.
func ParseRegisterState(raw map[string]int64) (RegisterState, error) {
	state := make(RegisterState, len(raw))
	for name, v := range raw {
		r, err := ParseRegister(name)
		if err != nil {
			return nil, err
		}
		w, err := ToWord(v)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
		state[r] = w
	}
	return state, nil
}

// MemoryState maps word addresses to signed word values.
type MemoryState map[Address]int32

// Sorted returns the addresses present in ascending order.
func (s MemoryState) Sorted() []Address {
	addrs := make([]Address, 0, len(s))
	for a := range s {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Decimal renders the state keyed by canonical decimal addresses.
func (s MemoryState) Decimal() map[string]int64 {
	out := make(map[string]int64, len(s))
	for a, v := range s {
		out[a.String()] = int64(v)
	}
	return out
}

// ParseMemoryState converts an address-keyed mapping into a MemoryState.
func ParseMemoryState(raw map[string]int64) (MemoryState, error) {
	state := make(MemoryState, len(raw))
	for key, v := range raw {
		a, err := ParseAddress(key)
		if err != nil {
			return nil, err
		}
		w, err := ToWord(v)
		if err != nil {
			return nil, fmt.Errorf("memory %s: %w", key, err)
		}
		state[a] = w
	}
	return state, nil
}
