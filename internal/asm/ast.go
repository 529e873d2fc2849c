package asm

import "github.com/avl-tools/tinyvm/internal/isa"

// operand is the parsed, not-yet-encoded form of one instruction operand.
// Exactly the fields relevant to Kind are meaningful.
type operand struct {
	Kind isa.OperandKind

	Imm   int32
	Flt   float32
	Reg   isa.Register
	Reg2  isa.Register // MEM_REG_REG's second register
	Label string       // LBL use
}

// statement is one parsed line: either a label declaration, an
// instruction, or both (a label immediately followed by an instruction on
// the same line).
type statement struct {
	line int

	label string // "" if none

	hasInstr bool
	mnemonic string
	opcode   isa.Opcode
	lhs, rhs operand
}
