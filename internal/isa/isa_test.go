package isa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avl-tools/tinyvm/internal/isa"
)

func TestHeaderRoundTrip(t *testing.T) {
	cases := []isa.Header{
		{Opcode: isa.OpADD, LHS: isa.KindReg, RHS: isa.KindReg},
		{Opcode: isa.OpPUSH, LHS: isa.KindImm, RHS: isa.KindNul},
		{Opcode: isa.OpMOV, LHS: isa.KindMemRegImm, RHS: isa.KindFlt},
		{Opcode: isa.ERR, LHS: isa.KindNul, RHS: isa.KindNul},
	}

	for _, want := range cases {
		got := isa.DecodeHeader(want.Encode())
		assert.Equal(t, want, got)
	}
}

func TestOperandKindLength(t *testing.T) {
	assert.Equal(t, 0, isa.KindNul.Length())
	assert.Equal(t, 1, isa.KindImm.Length())
	assert.Equal(t, 1, isa.KindReg.Length())
	assert.Equal(t, 1, isa.KindLbl.Length())
	assert.Equal(t, 1, isa.KindFlt.Length())
	assert.Equal(t, 1, isa.KindMemImm.Length())
	assert.Equal(t, 1, isa.KindMemReg.Length())
	assert.Equal(t, 2, isa.KindMemRegImm.Length())
	assert.Equal(t, 2, isa.KindMemRegReg.Length())
}

func TestOperandKindLengthPanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() {
		_ = isa.OperandKind(0x99).Length()
	})
}

func TestClassAccepts(t *testing.T) {
	assert.True(t, isa.ClassAny.Accepts(isa.KindFlt))
	assert.False(t, isa.ClassAny.Accepts(isa.KindLbl))
	assert.True(t, isa.ClassLabelCapable.Accepts(isa.KindLbl))
	assert.False(t, isa.ClassRegOrMem.Accepts(isa.KindImm))
	assert.True(t, isa.ClassRegOrMem.Accepts(isa.KindMemReg))
	assert.False(t, isa.ClassNone.Accepts(isa.KindReg))
}

func TestLookupMnemonic(t *testing.T) {
	info, ok := isa.Lookup("ADD")
	require.True(t, ok)
	assert.Equal(t, isa.OpADD, info.Opcode)

	info, ok = isa.Lookup("jle")
	require.True(t, ok)
	assert.Equal(t, isa.OpJLE, info.Opcode)

	_, ok = isa.Lookup("nope")
	assert.False(t, ok)
}

func TestInfoByOpcode(t *testing.T) {
	info, ok := isa.Info(isa.OpFSQRT)
	require.True(t, ok)
	assert.Equal(t, "fsqrt", info.Mnemonic)
}

func TestRegisterLookup(t *testing.T) {
	r, ok := isa.LookupRegister("AX")
	require.True(t, ok)
	assert.Equal(t, isa.AX, r)

	_, ok = isa.LookupRegister("zz")
	assert.False(t, ok)
}

func TestOpcodeStringIncludesSentinel(t *testing.T) {
	assert.Equal(t, "ERR", isa.ERR.String())
	assert.Equal(t, "add", isa.OpADD.String())
}
