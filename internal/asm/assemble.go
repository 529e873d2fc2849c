// Package asm implements the assembler: a single-pass tokenizer and
// encoder that turns source text into a binary image, back-patching label
// references once the whole source has been scanned.
package asm

import (
	"bufio"
	"errors"
	"io"

	"github.com/avl-tools/tinyvm/internal/isa"
)

// Assembler accumulates instructions and labels across one or more calls to
// Feed, mirroring a parser whose Parse method may be called multiple times
// to assemble several source files into one label/instruction-index space.
type Assembler struct {
	labels *labelTable
	image  []isa.Word

	instrIdx int
	lineNo   int

	errs []error
}

// New creates an empty Assembler.
func New() *Assembler {
	return &Assembler{labels: newLabelTable()}
}

// Feed scans one source stream, appending its instructions to the image
// under construction. The caller retains ownership of r.
func (a *Assembler) Feed(r io.Reader) {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		a.lineNo++

		if err := a.feedLine(scanner.Text()); err != nil {
			a.errs = append(a.errs, err)
		}
	}
}

func (a *Assembler) feedLine(text string) error {
	p := newLineParser(a.lineNo, text)

	stmt, err := p.parseStatement()
	if err != nil {
		return err
	}

	if stmt.label != "" {
		if err := a.labels.declare(stmt.label, a.instrIdx); err != nil {
			return err
		}
	}

	if !stmt.hasInstr {
		return nil
	}

	a.emit(stmt)
	a.instrIdx++

	return nil
}

func (a *Assembler) emit(stmt statement) {
	lhsKind := stmt.lhs.Kind
	rhsKind := stmt.rhs.Kind

	header := isa.Header{Opcode: stmt.opcode, LHS: lhsKind, RHS: rhsKind}
	a.image = append(a.image, header.Encode())

	a.emitOperand(stmt.lhs)
	a.emitOperand(stmt.rhs)
}

func (a *Assembler) emitOperand(op operand) {
	switch op.Kind {
	case isa.KindNul:
		return
	case isa.KindImm:
		a.image = append(a.image, isa.FromInt(op.Imm))
	case isa.KindFlt:
		a.image = append(a.image, isa.FromFloat(op.Flt))
	case isa.KindReg:
		a.image = append(a.image, isa.Word(op.Reg))
	case isa.KindLbl:
		a.labels.use(op.Label, len(a.image), a.instrIdx)
		a.image = append(a.image, 0) // placeholder, patched at Finish
	case isa.KindMemImm:
		a.image = append(a.image, isa.FromInt(op.Imm))
	case isa.KindMemReg:
		a.image = append(a.image, isa.Word(op.Reg))
	case isa.KindMemRegImm:
		a.image = append(a.image, isa.Word(op.Reg))
		a.image = append(a.image, isa.FromInt(op.Imm))
	case isa.KindMemRegReg:
		a.image = append(a.image, isa.Word(op.Reg))
		a.image = append(a.image, isa.Word(op.Reg2))
	}
}

// Finish back-patches every label use, appends the ERR sentinel, and
// returns the completed image. If any syntax or label error occurred
// across every Feed call, Finish returns them joined instead.
func (a *Assembler) Finish() ([]isa.Word, error) {
	if len(a.errs) > 0 {
		return nil, errors.Join(a.errs...)
	}

	patches, err := a.labels.resolve()
	if err != nil {
		return nil, err
	}

	for pos, disp := range patches {
		a.image[pos] = isa.FromInt(disp)
	}

	sentinel := isa.Header{Opcode: isa.ERR, LHS: isa.KindNul, RHS: isa.KindNul}
	image := append(a.image, sentinel.Encode())

	return image, nil
}

// Assemble is a convenience wrapper around New/Feed/Finish for the common
// single-source case.
func Assemble(r io.Reader) ([]isa.Word, error) {
	a := New()
	a.Feed(r)

	return a.Finish()
}
