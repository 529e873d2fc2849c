package isa

import "fmt"

// StructuralError reports a malformed encoding discovered while decoding an
// image: an unknown opcode or operand kind, or a truncated instruction.
// Structural errors are always fatal to the interpreter's load phase.
type StructuralError struct {
	Reason string
	Value  uint32
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error: %s (%#x)", e.Reason, e.Value)
}
