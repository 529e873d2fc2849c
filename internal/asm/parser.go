package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/avl-tools/tinyvm/internal/isa"
)

// parser consumes one line's tokens and produces a statement, or a
// SyntaxError with the source context attached.
type parser struct {
	line int
	text string
	toks []token
	pos  int
}

func newLineParser(line int, text string) *parser {
	return &parser{
		line: line,
		text: text,
		toks: lexLine(stripComment(text)),
	}
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}

	return t
}

func (p *parser) errorf(col int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: p.line, Col: col, Text: strings.TrimSpace(p.text), Msg: fmt.Sprintf(format, args...)}
}

// parseStatement parses one line into a statement. An all-blank or
// all-comment line yields a zero-value statement with neither a label nor
// an instruction.
func (p *parser) parseStatement() (statement, error) {
	stmt := statement{line: p.line}

	if p.peek().kind == tokEOL {
		return stmt, nil
	}

	// label_decl := IDENT ':'
	if p.peek().kind == tokIdent && p.pos+1 < len(p.toks) && p.toks[p.pos+1].kind == tokColon {
		ident := p.next()
		p.next() // consume ':'

		stmt.label = ident.text
	}

	if p.peek().kind == tokEOL {
		return stmt, nil
	}

	if p.peek().kind != tokIdent {
		t := p.peek()
		return stmt, p.errorf(t.col, "expected mnemonic, found %q", t.text)
	}

	mnemonicTok := p.next()

	info, ok := isa.Lookup(mnemonicTok.text)
	if !ok {
		return stmt, p.errorf(mnemonicTok.col, "unrecognized mnemonic %q", mnemonicTok.text)
	}

	stmt.hasInstr = true
	stmt.mnemonic = strings.ToLower(mnemonicTok.text)
	stmt.opcode = info.Opcode

	lhs, err := p.parseOperand(info.LHS)
	if err != nil {
		return stmt, err
	}

	stmt.lhs = lhs

	if info.LHS != isa.ClassNone {
		if p.peek().kind == tokComma {
			p.next()

			rhs, err := p.parseOperand(info.RHS)
			if err != nil {
				return stmt, err
			}

			stmt.rhs = rhs
		} else if info.RHS != isa.ClassNone {
			return stmt, p.errorf(p.peek().col, "%s requires a second operand", stmt.mnemonic)
		}
	}

	if p.peek().kind != tokEOL {
		t := p.peek()
		return stmt, p.errorf(t.col, "unexpected trailing token %q", t.text)
	}

	return stmt, nil
}

// parseOperand parses a single operand in a position that accepts class.
// ClassNone means no operand may appear.
func (p *parser) parseOperand(class isa.Class) (operand, error) {
	if class == isa.ClassNone {
		return operand{Kind: isa.KindNul}, nil
	}

	t := p.peek()

	var (
		op  operand
		err error
	)

	switch t.kind {
	case tokLBracket:
		op, err = p.parseMemOperand()
	case tokNumber:
		op, err = p.parseNumberOperand()
	case tokIdent:
		op, err = p.parseIdentOperand()
	default:
		return operand{}, p.errorf(t.col, "expected operand, found %q", t.text)
	}

	if err != nil {
		return operand{}, err
	}

	if !class.Accepts(op.Kind) {
		return operand{}, p.errorf(t.col, "operand of kind %s not permitted here", op.Kind)
	}

	return op, nil
}

func (p *parser) parseNumberOperand() (operand, error) {
	t := p.next()

	if looksLikeFloat(t.text) {
		f, err := strconv.ParseFloat(t.text, 32)
		if err != nil {
			return operand{}, p.errorf(t.col, "malformed float literal: %v", err)
		}

		return operand{Kind: isa.KindFlt, Flt: float32(f)}, nil
	}

	n, err := strconv.ParseInt(t.text, 0, 64)
	if err != nil {
		return operand{}, p.errorf(t.col, "malformed integer literal: %v", err)
	}

	return operand{Kind: isa.KindImm, Imm: int32(n)}, nil
}

// parseIdentOperand resolves a bare identifier: first tried as a register
// name, then treated as a label use.
func (p *parser) parseIdentOperand() (operand, error) {
	t := p.next()

	if reg, ok := isa.LookupRegister(t.text); ok {
		return operand{Kind: isa.KindReg, Reg: reg}, nil
	}

	return operand{Kind: isa.KindLbl, Label: t.text}, nil
}

// parseMemOperand parses '[' operand_inside ']' where operand_inside is
// IMM | REG | REG '+' IMM | REG '+' REG.
func (p *parser) parseMemOperand() (operand, error) {
	p.next() // consume '['

	first := p.peek()

	var op operand

	switch first.kind {
	case tokNumber:
		n, err := p.parseNumberOperand()
		if err != nil {
			return operand{}, err
		}

		if n.Kind != isa.KindImm {
			return operand{}, p.errorf(first.col, "memory offset must be an integer, not a float")
		}

		op = operand{Kind: isa.KindMemImm, Imm: n.Imm}
	case tokIdent:
		reg, ok := isa.LookupRegister(first.text)
		if !ok {
			return operand{}, p.errorf(first.col, "expected register inside '[...]', found %q", first.text)
		}

		p.next()

		op = operand{Kind: isa.KindMemReg, Reg: reg}

		if p.peek().kind == tokPlus {
			p.next()

			second := p.peek()

			switch second.kind {
			case tokNumber:
				n, err := p.parseNumberOperand()
				if err != nil {
					return operand{}, err
				}

				if n.Kind != isa.KindImm {
					return operand{}, p.errorf(second.col, "memory offset must be an integer, not a float")
				}

				op = operand{Kind: isa.KindMemRegImm, Reg: reg, Imm: n.Imm}
			case tokIdent:
				reg2, ok := isa.LookupRegister(second.text)
				if !ok {
					return operand{}, p.errorf(second.col, "expected register after '+', found %q", second.text)
				}

				p.next()

				op = operand{Kind: isa.KindMemRegReg, Reg: reg, Reg2: reg2}
			default:
				return operand{}, p.errorf(second.col, "expected register or integer after '+'")
			}
		}
	default:
		return operand{}, p.errorf(first.col, "expected register or integer inside '[...]'")
	}

	if p.peek().kind != tokRBracket {
		t := p.peek()
		return operand{}, p.errorf(t.col, "expected ']', found %q", t.text)
	}

	p.next()

	return op, nil
}
