// Package cpu implements the interpreter: the fetch-decode-execute loop
// over an assembled image, the register file, operand and call stacks, and
// every opcode handler.
package cpu

import (
	"fmt"
	"io"
	"os"

	"github.com/avl-tools/tinyvm/internal/cache"
	"github.com/avl-tools/tinyvm/internal/host"
	"github.com/avl-tools/tinyvm/internal/isa"
	"github.com/avl-tools/tinyvm/internal/mem"
)

// Flag bitmasks within the status register. Only ZF and CF are ever
// written by this interpreter's compare/conditional-jump opcodes, but the
// full classical-ISA mask set is named here so SR is self-describing.
const (
	FlagCF isa.Word = 0x0001
	FlagPF isa.Word = 0x0004
	FlagAF isa.Word = 0x0010
	FlagZF isa.Word = 0x0040
	FlagSF isa.Word = 0x0080
	FlagTF isa.Word = 0x0100
	FlagIF isa.Word = 0x0200
	FlagDF isa.Word = 0x0400
	FlagOF isa.Word = 0x0800
)

// ramWords is the size of process RAM: the 16-bit address space implied by
// MEM_IMM/MEM_REG addressing, even though Word itself is 32 bits. An
// effective address is taken modulo this size.
const ramWords = 1 << 16

const ramPages = ramWords / mem.PageSize

// DefaultCacheCapacity is the page cache size New gives a Machine.
// NewWithCache takes an explicit capacity for tests that want to provoke
// eviction deterministically.
const DefaultCacheCapacity = 256

// OperandStackCapacity is the fixed capacity of the operand stack.
const OperandStackCapacity = 1024

// CallStackCapacity is the fixed capacity of the call stack.
const CallStackCapacity = 256

// Machine is one interpreter instance: register file, flags, operand and
// call stacks, the loaded instruction pipe, and its memory and host
// subsystems.
type Machine struct {
	regs [isa.NumGPR]isa.Word
	ip   int
	pc   int
	sr   isa.Word

	opstack *stack
	cstack  *stack

	image []isa.Word
	pipe  []int

	mc      *mem.Controller
	cache   *cache.Cache
	devices *DeviceRegistry
	host    host.IO

	debugOut io.Writer
}

// New creates a Machine with the default page-cache capacity, using h for
// in/out.
func New(h host.IO) *Machine {
	return NewWithCache(h, DefaultCacheCapacity)
}

// NewWithCache creates a Machine with an explicit page-cache capacity.
func NewWithCache(h host.IO, cacheCapacity int) *Machine {
	mc := mem.New(ramPages)

	return &Machine{
		opstack:  newStack(OperandStackCapacity),
		cstack:   newStack(CallStackCapacity),
		mc:       mc,
		cache:    cache.New(mc, cacheCapacity),
		devices:  NewDeviceRegistry(),
		host:     h,
		debugOut: os.Stderr,
	}
}

// SetDebugOutput redirects where the dump opcode writes machine-state
// snapshots. It defaults to os.Stderr.
func (m *Machine) SetDebugOutput(w io.Writer) { m.debugOut = w }

// IP returns the current instruction index.
func (m *Machine) IP() int { return m.ip }

// Halted reports whether the machine has run past the end of its pipe, via
// hlt or by falling off the last instruction.
func (m *Machine) Halted() bool { return m.ip >= len(m.pipe) }

// Register returns a general-purpose register's value.
func (m *Machine) Register(r isa.Register) isa.Word { return m.regs[r] }

// Flag reports whether the given flag bit is set in SR.
func (m *Machine) Flag(mask isa.Word) bool { return m.sr&mask != 0 }

// Devices returns the machine's memory-mapped I/O device registry.
func (m *Machine) Devices() *DeviceRegistry { return m.devices }

func (m *Machine) setFlag(mask isa.Word, v bool) {
	if v {
		m.sr |= mask
	} else {
		m.sr &^= mask
	}
}

// RuntimeError reports a fault detected while executing an instruction: an
// out-of-range jump/call target, a register index out of bounds, a RAM
// address out of bounds, a stack overflow/underflow, or division/modulo by
// zero.
type RuntimeError struct {
	InstrIdx int
	Reason   string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("cpu: instruction %d: %s", e.InstrIdx, e.Reason)
}

// HostError wraps a failure surfaced by the host I/O stub. It is always
// fatal to the run.
type HostError struct {
	InstrIdx int
	Err      error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("cpu: instruction %d: host I/O: %v", e.InstrIdx, e.Err)
}

func (e *HostError) Unwrap() error { return e.Err }
