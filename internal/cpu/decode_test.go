package cpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avl-tools/tinyvm/internal/cpu"
	"github.com/avl-tools/tinyvm/internal/isa"
)

func header(op isa.Opcode, lhs, rhs isa.OperandKind) isa.Word {
	return isa.Header{Opcode: op, LHS: lhs, RHS: rhs}.Encode()
}

func TestLoadAcceptsWellFormedImage(t *testing.T) {
	image := []isa.Word{
		header(isa.OpPUSH, isa.KindImm, isa.KindNul), isa.FromInt(1),
		header(isa.OpHLT, isa.KindNul, isa.KindNul),
		header(isa.ERR, isa.KindNul, isa.KindNul),
	}

	m := cpu.New(nil)
	require.NoError(t, m.Load(image))
}

func TestLoadRejectsUnknownOpcode(t *testing.T) {
	image := []isa.Word{
		header(isa.Opcode(0x7fff), isa.KindNul, isa.KindNul),
	}

	m := cpu.New(nil)
	err := m.Load(image)

	var structErr *cpu.StructuralError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, 0, structErr.WordPos)
}

func TestLoadRejectsTruncatedInstruction(t *testing.T) {
	image := []isa.Word{
		header(isa.OpPUSH, isa.KindImm, isa.KindNul),
	}

	m := cpu.New(nil)
	err := m.Load(image)

	var structErr *cpu.StructuralError
	require.ErrorAs(t, err, &structErr)
}

func TestLoadStopsAtErrSentinel(t *testing.T) {
	image := []isa.Word{
		header(isa.ERR, isa.KindNul, isa.KindNul),
		header(isa.OpPUSH, isa.KindImm, isa.KindNul), isa.FromInt(1),
	}

	m := cpu.New(nil)
	require.NoError(t, m.Load(image))
}
