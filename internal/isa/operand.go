package isa

//go:generate stringer -type=OperandKind -trimprefix=Kind

// OperandKind tags the shape of the word(s) following an instruction
// header. The set is closed; every other component in the system treats it
// as an opaque tag and asks this package for its length and class.
type OperandKind uint8

// Operand-kind codes, authoritative per the wire format.
const (
	KindNul         OperandKind = 0x00
	KindImm         OperandKind = 0x20
	KindReg         OperandKind = 0x21
	KindLbl         OperandKind = 0x22
	KindFlt         OperandKind = 0x23
	KindMemImm      OperandKind = 0x40
	KindMemReg      OperandKind = 0x41
	KindMemRegImm   OperandKind = 0x42
	KindMemRegReg   OperandKind = 0x43
	KindErr         OperandKind = 0xff
)

// kindLengths is the only place that knows how many words follow a header
// for a given operand kind.
var kindLengths = map[OperandKind]int{
	KindNul:       0,
	KindImm:       1,
	KindFlt:       1,
	KindReg:       1,
	KindLbl:       1,
	KindMemImm:    1,
	KindMemReg:    1,
	KindMemRegImm: 2,
	KindMemRegReg: 2,
}

// Length returns the number of words that follow a header for an operand of
// this kind. It panics on an operand kind outside the closed set -- such a
// value can only arise from a structural decoding bug, which is always
// fatal.
func (k OperandKind) Length() int {
	n, ok := kindLengths[k]
	if !ok {
		panic(&StructuralError{Reason: "unknown operand kind", Value: uint32(k)})
	}

	return n
}

// Readable reports whether a pull() of this kind is meaningful. LBL is
// excluded: a label displacement is only ever consumed by the jump/call/loop
// control-flow helpers, never by the general operand-resolution path.
func (k OperandKind) Readable() bool {
	switch k {
	case KindNul, KindLbl:
		return false
	default:
		return true
	}
}

// Writable reports whether a move() into this kind is permitted.
func (k OperandKind) Writable() bool {
	switch k {
	case KindImm, KindFlt, KindLbl, KindNul:
		return false
	default:
		return true
	}
}

// Memory reports whether this operand kind addresses process RAM.
func (k OperandKind) Memory() bool {
	switch k {
	case KindMemImm, KindMemReg, KindMemRegImm, KindMemRegReg:
		return true
	default:
		return false
	}
}

// Class partitions operand kinds into the parser's operand-acceptance
// classes: which kinds a mnemonic's lhs/rhs position will accept.
type Class uint8

const (
	// ClassNone accepts no operand at all.
	ClassNone Class = iota
	// ClassNul is an explicit absent-operand marker (used internally; the
	// registry never asks the parser to accept it).
	ClassNul
	// ClassRegOrMem accepts REG or any MEM_* kind.
	ClassRegOrMem
	// ClassAny accepts REG, MEM_*, IMM, or FLT.
	ClassAny
	// ClassLabelCapable accepts REG, MEM_*, IMM, or LBL.
	ClassLabelCapable
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassNul:
		return "nul"
	case ClassRegOrMem:
		return "reg_or_mem"
	case ClassAny:
		return "any"
	case ClassLabelCapable:
		return "label-capable"
	default:
		return "class(?)"
	}
}

// Accepts reports whether an operand of the given kind may be parsed in a
// position of this class.
func (c Class) Accepts(k OperandKind) bool {
	switch c {
	case ClassNone:
		return false
	case ClassRegOrMem:
		return k == KindReg || k.Memory()
	case ClassAny:
		return k == KindReg || k == KindImm || k == KindFlt || k.Memory()
	case ClassLabelCapable:
		return k == KindReg || k == KindImm || k == KindLbl || k.Memory()
	default:
		return false
	}
}
