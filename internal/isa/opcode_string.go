// Opcode.String is written by hand, not by stringer: it returns the
// lowercase registry mnemonic (e.g. "add"), or "ERR" for the sentinel.

package isa

import "fmt"

func (i Opcode) String() string {
	if i == ERR {
		return "ERR"
	}

	if info, ok := opcodeToInfo[i]; ok {
		return info.Mnemonic
	}

	return fmt.Sprintf("Opcode(%#04x)", uint16(i))
}
