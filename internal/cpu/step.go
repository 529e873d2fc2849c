package cpu

import (
	"context"

	"github.com/avl-tools/tinyvm/internal/isa"
)

// Step executes the single instruction at the current IP, per the standard
// staged cycle: PC := IP; fetch the header at pipe[PC]; decode lhs/rhs;
// advance IP unconditionally to PC+1 (control-transfer handlers overwrite
// IP again before returning); dispatch by opcode.
func (m *Machine) Step(ctx context.Context) error {
	if m.Halted() {
		return nil
	}

	pc := m.ip
	m.pc = pc
	pos := m.pipe[pc]

	header := isa.DecodeHeader(m.image[pos])

	lhs, lhsLen, err := decodeOperand(m.image, pos+1, header.LHS)
	if err != nil {
		return err
	}

	rhs, _, err := decodeOperand(m.image, pos+1+lhsLen, header.RHS)
	if err != nil {
		return err
	}

	m.ip = pc + 1

	handler, ok := handlers[header.Opcode]
	if !ok {
		return &RuntimeError{InstrIdx: pc, Reason: "no handler registered for opcode " + header.Opcode.String()}
	}

	if err := handler(ctx, m, pc, lhs, rhs); err != nil {
		return annotate(err, pc)
	}

	return nil
}

// Run executes Step in a straight line until the machine halts, an error
// occurs, or ctx is cancelled. This is the only place blocking host I/O can
// suspend the run; Run itself introduces no internal concurrency.
func (m *Machine) Run(ctx context.Context) error {
	for !m.Halted() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := m.Step(ctx); err != nil {
			return err
		}
	}

	return nil
}

func annotate(err error, instrIdx int) error {
	switch e := err.(type) {
	case *RuntimeError:
		if e.InstrIdx == 0 {
			e.InstrIdx = instrIdx
		}

		return e
	case *HostError:
		if e.InstrIdx == 0 {
			e.InstrIdx = instrIdx
		}

		return e
	default:
		return err
	}
}

// jump implements the jmp/loop/conditional-jump targeting rule: IMM/LBL
// operands carry a pc-relative displacement from the current instruction
// index pc; REG/MEM_* operands carry an absolute instruction index.
func (m *Machine) jump(a arg, pc int) error {
	var target int

	switch a.Kind {
	case isa.KindImm, isa.KindLbl:
		target = pc + int(a.Imm)
	default:
		w, err := m.pull(a)
		if err != nil {
			return err
		}

		target = int(uint32(w))
	}

	if target < 0 || target >= len(m.pipe) {
		return &RuntimeError{Reason: "jump target out of range"}
	}

	m.ip = target

	return nil
}

func (m *Machine) call(a arg, pc int) error {
	if err := m.cstack.push(isa.FromInt(int32(pc + 1))); err != nil {
		return &RuntimeError{Reason: err.Error()}
	}

	return m.jump(a, pc)
}

func (m *Machine) ret() error {
	w, err := m.cstack.pop()
	if err != nil {
		return &RuntimeError{Reason: err.Error()}
	}

	target := int(w.Int())
	if target < 0 || target > len(m.pipe) {
		return &RuntimeError{Reason: "return address out of range"}
	}

	m.ip = target

	return nil
}
