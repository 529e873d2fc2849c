package isa

import "strings"

//go:generate stringer -type=Opcode -trimprefix=Op

// Opcode identifies the operation a header selects. The opcode space is
// partitioned by purpose: control, I/O, stack, data movement, control flow,
// integer arithmetic, and floating-point arithmetic each get their own
// range.
type Opcode uint16

// ERR is the sentinel opcode that terminates an image.
const ERR Opcode = 0xffff

// Opcodes, grouped by their normative range.
const (
	OpHLT Opcode = 0x0000

	OpIN   Opcode = 0x0010
	OpOUT  Opcode = 0x0011
	OpOK   Opcode = 0x0012
	OpDUMP Opcode = 0x0013

	OpPUSH Opcode = 0x0020
	OpPOP  Opcode = 0x0021
	OpDUP  Opcode = 0x0022

	OpMOV Opcode = 0x0040

	OpCALL Opcode = 0x0060
	OpRET  Opcode = 0x0061
	OpLOOP Opcode = 0x0062
	OpJMP  Opcode = 0x0063
	OpJZ   Opcode = 0x0064
	OpJNZ  Opcode = 0x0065
	OpJE   Opcode = 0x0066
	OpJNE  Opcode = 0x0067
	OpJG   Opcode = 0x0068
	OpJGE  Opcode = 0x0069
	OpJL   Opcode = 0x006a
	OpJLE  Opcode = 0x006b

	OpADD Opcode = 0x0080
	OpSUB Opcode = 0x0081
	OpMUL Opcode = 0x0082
	OpDIV Opcode = 0x0083
	OpMOD Opcode = 0x0084
	OpINC Opcode = 0x0085
	OpDEC Opcode = 0x0086
	OpAND Opcode = 0x0087
	OpOR  Opcode = 0x0088
	OpXOR Opcode = 0x0089
	OpINV Opcode = 0x008a
	OpCMP Opcode = 0x008b

	OpFADD  Opcode = 0x00c0
	OpFSUB  Opcode = 0x00c1
	OpFMUL  Opcode = 0x00c2
	OpFDIV  Opcode = 0x00c3
	OpFTOI  Opcode = 0x00c4
	OpITOF  Opcode = 0x00c5
	OpFSIN  Opcode = 0x00c6
	OpFCOS  Opcode = 0x00c7
	OpFSQRT Opcode = 0x00c8
	OpFCMP  Opcode = 0x00c9
)

// OpcodeInfo is one row of the encoding registry: a mnemonic, its opcode,
// and the operand classes its lhs/rhs positions accept.
type OpcodeInfo struct {
	Mnemonic string
	Opcode   Opcode
	LHS      Class
	RHS      Class
}

// opcodeTable is the single static table from which every lookup map in
// this package is derived -- the idiomatic-Go replacement for an
// X-macro-style registration scheme. Adding an opcode means adding one row
// here.
var opcodeTable = []OpcodeInfo{
	{"hlt", OpHLT, ClassNone, ClassNone},

	{"in", OpIN, ClassNone, ClassNone},
	{"out", OpOUT, ClassNone, ClassNone},
	{"ok", OpOK, ClassNone, ClassNone},
	{"dump", OpDUMP, ClassNone, ClassNone},

	{"push", OpPUSH, ClassAny, ClassNone},
	{"pop", OpPOP, ClassRegOrMem, ClassNone},
	{"dup", OpDUP, ClassNone, ClassNone},

	{"mov", OpMOV, ClassRegOrMem, ClassAny},

	{"call", OpCALL, ClassLabelCapable, ClassNone},
	{"ret", OpRET, ClassNone, ClassNone},
	{"loop", OpLOOP, ClassLabelCapable, ClassNone},
	{"jmp", OpJMP, ClassLabelCapable, ClassNone},
	{"jz", OpJZ, ClassLabelCapable, ClassNone},
	{"jnz", OpJNZ, ClassLabelCapable, ClassNone},
	{"je", OpJE, ClassLabelCapable, ClassNone},
	{"jne", OpJNE, ClassLabelCapable, ClassNone},
	{"jg", OpJG, ClassLabelCapable, ClassNone},
	{"jge", OpJGE, ClassLabelCapable, ClassNone},
	{"jl", OpJL, ClassLabelCapable, ClassNone},
	{"jle", OpJLE, ClassLabelCapable, ClassNone},

	{"add", OpADD, ClassRegOrMem, ClassAny},
	{"sub", OpSUB, ClassRegOrMem, ClassAny},
	{"mul", OpMUL, ClassRegOrMem, ClassAny},
	{"div", OpDIV, ClassRegOrMem, ClassAny},
	{"mod", OpMOD, ClassRegOrMem, ClassAny},
	{"inc", OpINC, ClassRegOrMem, ClassNone},
	{"dec", OpDEC, ClassRegOrMem, ClassNone},
	{"and", OpAND, ClassRegOrMem, ClassAny},
	{"or", OpOR, ClassRegOrMem, ClassAny},
	{"xor", OpXOR, ClassRegOrMem, ClassAny},
	{"inv", OpINV, ClassRegOrMem, ClassNone},
	{"cmp", OpCMP, ClassAny, ClassAny},

	{"fadd", OpFADD, ClassRegOrMem, ClassAny},
	{"fsub", OpFSUB, ClassRegOrMem, ClassAny},
	{"fmul", OpFMUL, ClassRegOrMem, ClassAny},
	{"fdiv", OpFDIV, ClassRegOrMem, ClassAny},
	{"ftoi", OpFTOI, ClassRegOrMem, ClassNone},
	{"itof", OpITOF, ClassRegOrMem, ClassNone},
	{"fsin", OpFSIN, ClassRegOrMem, ClassNone},
	{"fcos", OpFCOS, ClassRegOrMem, ClassNone},
	{"fsqrt", OpFSQRT, ClassRegOrMem, ClassNone},
	{"fcmp", OpFCMP, ClassAny, ClassAny},
}

var (
	mnemonicToInfo = make(map[string]OpcodeInfo, len(opcodeTable))
	opcodeToInfo   = make(map[Opcode]OpcodeInfo, len(opcodeTable))
)

func init() {
	for _, row := range opcodeTable {
		mnemonicToInfo[row.Mnemonic] = row
		opcodeToInfo[row.Opcode] = row
	}
}

// Lookup returns the registry row for a mnemonic, case-insensitively.
func Lookup(mnemonic string) (OpcodeInfo, bool) {
	info, ok := mnemonicToInfo[strings.ToLower(mnemonic)]
	return info, ok
}

// Info returns the registry row for a decoded opcode.
func Info(op Opcode) (OpcodeInfo, bool) {
	info, ok := opcodeToInfo[op]
	return info, ok
}
