package cpu

import (
	"context"
	"math"

	"github.com/davecgh/go-spew/spew"

	"github.com/avl-tools/tinyvm/internal/isa"
)

// machineSnapshot is the subset of Machine state the dump opcode exposes:
// enough to debug a running program without spewing the whole loaded image.
type machineSnapshot struct {
	IP        int
	Registers [isa.NumGPR]isa.Word
	Flags     isa.Word
	OpStack   []isa.Word
	CallStack []isa.Word
}

type handlerFunc func(ctx context.Context, m *Machine, pc int, lhs, rhs arg) error

var handlers = map[isa.Opcode]handlerFunc{
	isa.OpHLT: opHLT,

	isa.OpIN:   opIN,
	isa.OpOUT:  opOUT,
	isa.OpOK:   opOK,
	isa.OpDUMP: opDUMP,

	isa.OpPUSH: opPUSH,
	isa.OpPOP:  opPOP,
	isa.OpDUP:  opDUP,

	isa.OpMOV: opMOV,

	isa.OpCALL: opCALL,
	isa.OpRET:  opRET,
	isa.OpLOOP: opLOOP,
	isa.OpJMP:  opJMP,
	isa.OpJZ:   condJump(func(m *Machine) bool { return m.Flag(FlagZF) }),
	isa.OpJNZ:  condJump(func(m *Machine) bool { return !m.Flag(FlagZF) }),
	isa.OpJE:   condJump(func(m *Machine) bool { return m.Flag(FlagZF) }),
	isa.OpJNE:  condJump(func(m *Machine) bool { return !m.Flag(FlagZF) }),
	isa.OpJG:   condJump(func(m *Machine) bool { return !m.Flag(FlagCF) && !m.Flag(FlagZF) }),
	isa.OpJGE:  condJump(func(m *Machine) bool { return !m.Flag(FlagCF) || m.Flag(FlagZF) }),
	isa.OpJL:   condJump(func(m *Machine) bool { return m.Flag(FlagCF) && !m.Flag(FlagZF) }),
	isa.OpJLE:  condJump(func(m *Machine) bool { return m.Flag(FlagCF) || m.Flag(FlagZF) }),

	isa.OpADD: intBinOp(func(a, b int32) int32 { return a + b }),
	isa.OpSUB: intBinOp(func(a, b int32) int32 { return a - b }),
	isa.OpMUL: intBinOp(func(a, b int32) int32 { return a * b }),
	isa.OpDIV: opDIV,
	isa.OpMOD: opMOD,
	isa.OpINC: intUnOp(func(a int32) int32 { return a + 1 }),
	isa.OpDEC: intUnOp(func(a int32) int32 { return a - 1 }),
	isa.OpAND: intBinOp(func(a, b int32) int32 { return a & b }),
	isa.OpOR:  intBinOp(func(a, b int32) int32 { return a | b }),
	isa.OpXOR: intBinOp(func(a, b int32) int32 { return a ^ b }),
	isa.OpINV: intUnOp(func(a int32) int32 { return ^a }),
	isa.OpCMP: opCMP,

	isa.OpFADD:  fltBinOp(func(a, b float32) float32 { return a + b }),
	isa.OpFSUB:  fltBinOp(func(a, b float32) float32 { return a - b }),
	isa.OpFMUL:  fltBinOp(func(a, b float32) float32 { return a * b }),
	isa.OpFDIV:  fltBinOp(func(a, b float32) float32 { return a / b }),
	isa.OpFTOI:  opFTOI,
	isa.OpITOF:  opITOF,
	isa.OpFSIN:  fltUnOp(func(a float32) float32 { return float32(math.Sin(float64(a))) }),
	isa.OpFCOS:  fltUnOp(func(a float32) float32 { return float32(math.Cos(float64(a))) }),
	isa.OpFSQRT: fltUnOp(func(a float32) float32 { return float32(math.Sqrt(float64(a))) }),
	isa.OpFCMP:  opFCMP,
}

func opHLT(_ context.Context, m *Machine, _ int, _, _ arg) error {
	m.ip = len(m.pipe)
	return nil
}

func opOK(_ context.Context, _ *Machine, _ int, _, _ arg) error { return nil }

// opDUMP writes a snapshot of visible machine state to the debug writer, in
// the manner of the single-instruction debugger break the dump mnemonic
// stands in for.
func opDUMP(_ context.Context, m *Machine, _ int, _, _ arg) error {
	snap := machineSnapshot{
		IP:        m.ip,
		Registers: m.regs,
		Flags:     m.sr,
		OpStack:   m.opstack.snapshot(),
		CallStack: m.cstack.snapshot(),
	}

	spew.Fdump(m.debugOut, snap)

	return nil
}

// opIN reads one word from the host and pushes it onto the operand stack:
// no operand, per the register/memory-free interaction-op pair.
func opIN(ctx context.Context, m *Machine, pc int, _, _ arg) error {
	w, err := m.host.ReadWord(ctx)
	if err != nil {
		return &HostError{InstrIdx: pc, Err: err}
	}

	if err := m.opstack.push(w); err != nil {
		return &RuntimeError{Reason: err.Error()}
	}

	return nil
}

// opOUT pops one word off the operand stack and emits it to the host.
func opOUT(ctx context.Context, m *Machine, pc int, _, _ arg) error {
	w, err := m.opstack.pop()
	if err != nil {
		return &RuntimeError{Reason: err.Error()}
	}

	if err := m.host.WriteWord(ctx, w); err != nil {
		return &HostError{InstrIdx: pc, Err: err}
	}

	return nil
}

func opPUSH(_ context.Context, m *Machine, _ int, lhs, _ arg) error {
	w, err := m.pull(lhs)
	if err != nil {
		return err
	}

	if err := m.opstack.push(w); err != nil {
		return &RuntimeError{Reason: err.Error()}
	}

	return nil
}

func opPOP(_ context.Context, m *Machine, _ int, lhs, _ arg) error {
	w, err := m.opstack.pop()
	if err != nil {
		return &RuntimeError{Reason: err.Error()}
	}

	return m.move(lhs, w)
}

func opDUP(_ context.Context, m *Machine, _ int, _, _ arg) error {
	w, err := m.opstack.top()
	if err != nil {
		return &RuntimeError{Reason: err.Error()}
	}

	if err := m.opstack.push(w); err != nil {
		return &RuntimeError{Reason: err.Error()}
	}

	return nil
}

func opMOV(_ context.Context, m *Machine, _ int, lhs, rhs arg) error {
	w, err := m.pull(rhs)
	if err != nil {
		return err
	}

	return m.move(lhs, w)
}

func opCALL(_ context.Context, m *Machine, pc int, lhs, _ arg) error { return m.call(lhs, pc) }
func opRET(_ context.Context, m *Machine, _ int, _, _ arg) error     { return m.ret() }
func opLOOP(_ context.Context, m *Machine, pc int, lhs, _ arg) error { return m.jump(lhs, pc) }
func opJMP(_ context.Context, m *Machine, pc int, lhs, _ arg) error  { return m.jump(lhs, pc) }

func condJump(taken func(*Machine) bool) handlerFunc {
	return func(_ context.Context, m *Machine, pc int, lhs, _ arg) error {
		if !taken(m) {
			return nil
		}

		return m.jump(lhs, pc)
	}
}

func intBinOp(op func(a, b int32) int32) handlerFunc {
	return func(_ context.Context, m *Machine, _ int, lhs, rhs arg) error {
		a, err := m.pull(lhs)
		if err != nil {
			return err
		}

		b, err := m.pull(rhs)
		if err != nil {
			return err
		}

		return m.move(lhs, isa.FromInt(op(a.Int(), b.Int())))
	}
}

func intUnOp(op func(a int32) int32) handlerFunc {
	return func(_ context.Context, m *Machine, _ int, lhs, _ arg) error {
		a, err := m.pull(lhs)
		if err != nil {
			return err
		}

		return m.move(lhs, isa.FromInt(op(a.Int())))
	}
}

func opDIV(_ context.Context, m *Machine, pc int, lhs, rhs arg) error {
	a, err := m.pull(lhs)
	if err != nil {
		return err
	}

	b, err := m.pull(rhs)
	if err != nil {
		return err
	}

	if b.Int() == 0 {
		return m.trap(pc, "division by zero")
	}

	return m.move(lhs, isa.FromInt(a.Int()/b.Int()))
}

func opMOD(_ context.Context, m *Machine, pc int, lhs, rhs arg) error {
	a, err := m.pull(lhs)
	if err != nil {
		return err
	}

	b, err := m.pull(rhs)
	if err != nil {
		return err
	}

	if b.Int() == 0 {
		return m.trap(pc, "modulo by zero")
	}

	return m.move(lhs, isa.FromInt(a.Int()%b.Int()))
}

// trap sets IP past the pipe -- a controlled halt -- and reports the
// condition as a runtime error so the caller knows why the run stopped.
func (m *Machine) trap(pc int, reason string) error {
	m.ip = len(m.pipe)
	return &RuntimeError{InstrIdx: pc, Reason: reason}
}

func opCMP(_ context.Context, m *Machine, _ int, lhs, rhs arg) error {
	a, err := m.pull(lhs)
	if err != nil {
		return err
	}

	b, err := m.pull(rhs)
	if err != nil {
		return err
	}

	m.setFlag(FlagZF, a.Int() == b.Int())
	m.setFlag(FlagCF, uint32(a) < uint32(b))

	return nil
}

func opFCMP(_ context.Context, m *Machine, _ int, lhs, rhs arg) error {
	a, err := m.pull(lhs)
	if err != nil {
		return err
	}

	b, err := m.pull(rhs)
	if err != nil {
		return err
	}

	af, bf := a.Float(), b.Float()

	if math.IsNaN(float64(af)) || math.IsNaN(float64(bf)) {
		m.setFlag(FlagZF, false)
		m.setFlag(FlagCF, true)

		return nil
	}

	m.setFlag(FlagZF, af == bf)
	m.setFlag(FlagCF, af < bf)

	return nil
}

func fltBinOp(op func(a, b float32) float32) handlerFunc {
	return func(_ context.Context, m *Machine, _ int, lhs, rhs arg) error {
		a, err := m.pull(lhs)
		if err != nil {
			return err
		}

		b, err := m.pull(rhs)
		if err != nil {
			return err
		}

		return m.move(lhs, isa.FromFloat(op(a.Float(), b.Float())))
	}
}

func fltUnOp(op func(a float32) float32) handlerFunc {
	return func(_ context.Context, m *Machine, _ int, lhs, _ arg) error {
		a, err := m.pull(lhs)
		if err != nil {
			return err
		}

		return m.move(lhs, isa.FromFloat(op(a.Float())))
	}
}

func opFTOI(_ context.Context, m *Machine, _ int, lhs, _ arg) error {
	a, err := m.pull(lhs)
	if err != nil {
		return err
	}

	return m.move(lhs, isa.FromInt(int32(a.Float())))
}

func opITOF(_ context.Context, m *Machine, _ int, lhs, _ arg) error {
	a, err := m.pull(lhs)
	if err != nil {
		return err
	}

	return m.move(lhs, isa.FromFloat(float32(a.Int())))
}
