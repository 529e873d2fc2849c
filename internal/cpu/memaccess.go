package cpu

import (
	"github.com/avl-tools/tinyvm/internal/isa"
	"github.com/avl-tools/tinyvm/internal/mem"
)

// readWord reads one word of process RAM at addr, masked to the low 16
// bits. A cache miss is serviced by the two-step add-then-fetch sequence:
// the page cache's AddEntry never itself loads backing bytes, so the
// interpreter -- the cache's one caller -- must drive FetchEntry before the
// first read is expected to observe real data.
func (m *Machine) readWord(addr uint32) (isa.Word, error) {
	addr &= ramWords - 1

	var w isa.Word
	if m.cache.TryRead(addr, &w) {
		return w, nil
	}

	if err := m.cache.AddEntry(addr); err != nil {
		return 0, err
	}

	if err := m.cache.FetchEntry(addr); err != nil {
		return 0, err
	}

	m.cache.TryRead(addr, &w)

	return w, nil
}

func (m *Machine) writeWord(addr uint32, w isa.Word) error {
	addr &= ramWords - 1

	if m.cache.TryWrite(addr, w) {
		return nil
	}

	if err := m.cache.AddEntry(addr); err != nil {
		return err
	}

	if err := m.cache.FetchEntry(addr); err != nil {
		return err
	}

	if !m.cache.TryWrite(addr, w) {
		return &unreachableCacheError{}
	}

	return nil
}

// unreachableCacheError guards an unreachable branch: FetchEntry just
// succeeded for addr, so TryWrite immediately after cannot fail.
type unreachableCacheError struct{}

func (e *unreachableCacheError) Error() string { return "cpu: cache entry vanished after fetch" }

// effectiveAddress computes the RAM address a MEM_* operand refers to.
func (m *Machine) effectiveAddress(a arg) (uint32, error) {
	switch a.Kind {
	case isa.KindMemImm:
		return uint32(a.Imm), nil
	case isa.KindMemReg:
		r, err := m.getRegister(a.Reg)
		return uint32(r), err
	case isa.KindMemRegImm:
		r, err := m.getRegister(a.Reg)
		return uint32(int32(r) + a.Imm), err
	case isa.KindMemRegReg:
		r1, err := m.getRegister(a.Reg)
		if err != nil {
			return 0, err
		}

		r2, err := m.getRegister(a.Reg2)

		return uint32(r1) + uint32(r2), err
	default:
		return 0, nil
	}
}

func isValidRegister(r isa.Register) bool {
	return int(r) < int(isa.NumGPR) || r == isa.IP || r == isa.PC || r == isa.SR
}

// getRegister reads a register by index. IP is the next-instruction pointer
// (already advanced past the instruction in flight); PC is the index of the
// instruction currently executing. The two differ only while a handler is
// running.
func (m *Machine) getRegister(r isa.Register) (isa.Word, error) {
	switch {
	case int(r) < int(isa.NumGPR):
		return m.regs[r], nil
	case r == isa.IP:
		return isa.FromInt(int32(m.ip)), nil
	case r == isa.PC:
		return isa.FromInt(int32(m.pc)), nil
	case r == isa.SR:
		return m.sr, nil
	default:
		return 0, &RuntimeError{Reason: "register index out of bounds"}
	}
}

func (m *Machine) setRegister(r isa.Register, w isa.Word) error {
	if !isValidRegister(r) {
		return &RuntimeError{Reason: "register index out of bounds"}
	}

	switch {
	case int(r) < int(isa.NumGPR):
		m.regs[r] = w
	case r == isa.IP, r == isa.PC:
		m.ip = int(w.Int())
	case r == isa.SR:
		m.sr = w
	}

	return nil
}

// pull reads an operand's value: IMM/FLT return the literal, REG returns
// the named register, MEM_* reads process RAM at the effective address.
// NUL and LBL are not readable through this path.
func (m *Machine) pull(a arg) (isa.Word, error) {
	switch a.Kind {
	case isa.KindImm:
		return isa.FromInt(a.Imm), nil
	case isa.KindFlt:
		return isa.FromFloat(a.Flt), nil
	case isa.KindReg:
		return m.getRegister(a.Reg)
	case isa.KindMemImm, isa.KindMemReg, isa.KindMemRegImm, isa.KindMemRegReg:
		addr, err := m.effectiveAddress(a)
		if err != nil {
			return 0, err
		}

		w, err := m.readWord(addr)
		if err != nil {
			return 0, segfaultToRuntime(err)
		}

		return w, nil
	default:
		return 0, &RuntimeError{Reason: "operand not readable"}
	}
}

// move writes an operand's value: REG writes the named register, MEM_*
// writes process RAM at the effective address. IMM/FLT/LBL/NUL are not
// writable.
func (m *Machine) move(a arg, w isa.Word) error {
	switch a.Kind {
	case isa.KindReg:
		return m.setRegister(a.Reg, w)
	case isa.KindMemImm, isa.KindMemReg, isa.KindMemRegImm, isa.KindMemRegReg:
		addr, err := m.effectiveAddress(a)
		if err != nil {
			return err
		}

		return segfaultToRuntime(m.writeWord(addr, w))
	default:
		return &RuntimeError{Reason: "operand not writable"}
	}
}

func segfaultToRuntime(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := err.(*mem.SegfaultError); ok {
		return &RuntimeError{Reason: err.Error()}
	}

	return err
}
