package cpu

import (
	"fmt"

	"github.com/avl-tools/tinyvm/internal/isa"
)

// arg is a decoded operand: exactly the fields meaningful to Kind are set.
type arg struct {
	Kind isa.OperandKind

	Imm  int32
	Flt  float32
	Reg  isa.Register
	Reg2 isa.Register
}

// StructuralError reports a problem found while walking the image to build
// the instruction pipe: a truncated instruction, an unknown opcode, or an
// unknown operand kind. It is detected once, at Load time.
type StructuralError struct {
	WordPos int
	Reason  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("cpu: structural error at word %d: %s", e.WordPos, e.Reason)
}

// decodeOperand reads one operand of kind from image starting at pos,
// returning the parsed arg and the number of words consumed.
func decodeOperand(image []isa.Word, pos int, kind isa.OperandKind) (arg, int, error) {
	n := kind.Length()
	if pos+n > len(image) {
		return arg{}, 0, &StructuralError{WordPos: pos, Reason: "truncated instruction"}
	}

	a := arg{Kind: kind}

	switch kind {
	case isa.KindNul:
	case isa.KindImm, isa.KindLbl:
		a.Imm = image[pos].Int()
	case isa.KindFlt:
		a.Flt = image[pos].Float()
	case isa.KindReg:
		a.Reg = isa.Register(image[pos])
	case isa.KindMemImm:
		a.Imm = image[pos].Int()
	case isa.KindMemReg:
		a.Reg = isa.Register(image[pos])
	case isa.KindMemRegImm:
		a.Reg = isa.Register(image[pos])
		a.Imm = image[pos+1].Int()
	case isa.KindMemRegReg:
		a.Reg = isa.Register(image[pos])
		a.Reg2 = isa.Register(image[pos+1])
	default:
		return arg{}, 0, &StructuralError{WordPos: pos, Reason: "unknown operand kind"}
	}

	return a, n, nil
}

// Load walks image once, building the instruction pipe: pipe[i] is the word
// offset of instruction i. The walk stops at the ERR sentinel or, if the
// image is truncated, with a StructuralError.
func (m *Machine) Load(image []isa.Word) error {
	var pipe []int

	pos := 0

	for pos < len(image) {
		header := isa.DecodeHeader(image[pos])

		if header.Opcode == isa.ERR {
			break
		}

		if _, ok := isa.Info(header.Opcode); !ok {
			return &StructuralError{WordPos: pos, Reason: "unknown opcode"}
		}

		pipe = append(pipe, pos)

		lhsLen, err := safeLength(header.LHS, pos)
		if err != nil {
			return err
		}

		rhsLen, err := safeLength(header.RHS, pos)
		if err != nil {
			return err
		}

		next := pos + 1 + lhsLen + rhsLen
		if next > len(image) {
			return &StructuralError{WordPos: pos, Reason: "truncated instruction"}
		}

		pos = next
	}

	m.image = image
	m.pipe = pipe
	m.ip = 0

	return nil
}

func safeLength(kind isa.OperandKind, pos int) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, &StructuralError{WordPos: pos, Reason: "unknown operand kind"}
		}
	}()

	return kind.Length(), nil
}
