// Package parser is a recursive-descent parser for brink source text. Its
// shape — a two-token lookahead, one function per precedence tier, errors
// collected rather than thrown — mirrors the teacher's own parser.go, scaled
// down to brink's much smaller grammar (spec.md §6).
package parser

import (
	"strconv"
	"strings"

	"github.com/brinklang/brinkc/internal/ast"
	"github.com/brinklang/brinkc/internal/diag"
	"github.com/brinklang/brinkc/internal/lexer"
)

// Parser holds the lexer and two-token lookahead buffer.
type Parser struct {
	lex    *lexer.Lexer
	file   string
	source string
	cur    lexer.Token
	peek   lexer.Token
	bag    *diag.Bag
}

// Parse scans and parses one source file, returning the program parsed so
// far (possibly partial) and any diagnostics. Callers should not proceed to
// semantic analysis if bag.HasErrors().
func Parse(file, source string) (*ast.Program, *diag.Bag) {
	p := &Parser{lex: lexer.New(file, source), file: file, source: source, bag: &diag.Bag{}}
	p.advance()
	p.advance()
	prog := p.parseProgram()
	return prog, p.bag
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) span(tok lexer.Token) ast.Span {
	return ast.Span{File: p.file, StartLine: tok.Line, StartColumn: tok.Column, StartOffset: tok.Offset, EndOffset: tok.Offset + len(tok.Value)}
}

func (p *Parser) errorf(tok lexer.Token, format string, args ...any) {
	p.bag.Add(diag.Parse, p.span(tok), format, args...)
}

// expect consumes cur if it matches type+value, else records a parse
// diagnostic and leaves cur in place (caller should generally bail out of
// the current statement).
func (p *Parser) expect(tt lexer.TokenType, value string) bool {
	if p.cur.Type == tt && (value == "" || p.cur.Value == value) {
		p.advance()
		return true
	}
	want := value
	if want == "" {
		want = "token"
	}
	p.errorf(p.cur, "expected %q, found %q", want, p.cur.Value)
	return false
}

func (p *Parser) at(tt lexer.TokenType, value string) bool {
	return p.cur.Type == tt && p.cur.Value == value
}

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.cur.Type != lexer.EOF {
		switch {
		case p.at(lexer.KEYWORD, "section"):
			if sec := p.parseSection(); sec != nil {
				prog.Sections = append(prog.Sections, sec)
			}
		case p.at(lexer.KEYWORD, "output"):
			if out := p.parseOutput(); out != nil {
				prog.Outputs = append(prog.Outputs, out)
			}
		case p.cur.Type == lexer.ILLEGAL:
			p.errorf(p.cur, "unexpected character %q", p.cur.Value)
			p.advance()
		default:
			p.errorf(p.cur, "expected 'section' or 'output', found %q", p.cur.Value)
			p.advance()
		}
	}
	return prog
}

func (p *Parser) parseSection() *ast.Section {
	start := p.cur
	p.advance() // 'section'
	name := p.cur.Value
	if !p.expect(lexer.IDENT, "") {
		return nil
	}
	if !p.expect(lexer.LBRACE, "") {
		return nil
	}
	sec := &ast.Section{Name: name, Span: p.span(start)}
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		if st := p.parseStmt(); st != nil {
			sec.Stmts = append(sec.Stmts, st)
		}
	}
	p.expect(lexer.RBRACE, "")
	return sec
}

func (p *Parser) parseOutput() *ast.OutputStmt {
	start := p.cur
	p.advance() // 'output'
	target := p.cur.Value
	if !p.expect(lexer.IDENT, "") {
		return nil
	}
	out := &ast.OutputStmt{Span: p.span(start), Target: target}
	if p.cur.Type != lexer.SEMICOLON {
		out.StartAddr = p.parseExpr()
	}
	p.expect(lexer.SEMICOLON, "")
	return out
}

func (p *Parser) parseStmt() ast.Stmt {
	switch {
	case p.cur.Type == lexer.SEMICOLON:
		p.advance()
		return nil

	case p.cur.Type == lexer.IDENT && p.peek.Type == lexer.COLON:
		tok := p.cur
		name := p.cur.Value
		p.advance() // ident
		p.advance() // ':'
		return &ast.LabelDef{Span: p.span(tok), Name: name}

	case p.at(lexer.KEYWORD, "wrs"):
		return p.parseWriteString()
	case p.at(lexer.KEYWORD, "wr"):
		return p.parseWriteSection()
	case p.at(lexer.KEYWORD, "wrf"):
		return p.parseWriteFile()
	case p.isWriteIntKeyword():
		return p.parseWriteInt()
	case p.at(lexer.KEYWORD, "align"):
		return p.parseAlign()
	case p.at(lexer.KEYWORD, "set_sec"):
		return p.parseSet(ast.PadSec)
	case p.at(lexer.KEYWORD, "set_img"):
		return p.parseSet(ast.PadImg)
	case p.at(lexer.KEYWORD, "set_abs"):
		return p.parseSet(ast.PadAbs)
	case p.at(lexer.KEYWORD, "assert"):
		return p.parseAssert()
	case p.at(lexer.KEYWORD, "print"):
		return p.parsePrint()

	case p.cur.Type == lexer.ILLEGAL:
		p.errorf(p.cur, "unexpected character %q", p.cur.Value)
		p.advance()
		return nil

	default:
		p.errorf(p.cur, "unexpected token %q in section body", p.cur.Value)
		p.advance()
		return nil
	}
}

var writeIntWidths = map[string]int{
	"wr8": 1, "wr16": 2, "wr24": 3, "wr32": 4, "wr40": 5, "wr48": 6, "wr56": 7, "wr64": 8,
}

func (p *Parser) isWriteIntKeyword() bool {
	if p.cur.Type != lexer.KEYWORD {
		return false
	}
	_, ok := writeIntWidths[p.cur.Value]
	return ok
}

func (p *Parser) parseWriteString() ast.Stmt {
	start := p.cur
	p.advance() // 'wrs'
	st := &ast.WriteString{Span: p.span(start)}
	st.Parts = append(st.Parts, p.parseStringLit())
	for p.cur.Type == lexer.COMMA {
		p.advance()
		st.Parts = append(st.Parts, p.parseStringLit())
	}
	p.expect(lexer.SEMICOLON, "")
	return st
}

func (p *Parser) parseStringLit() ast.Expr {
	tok := p.cur
	if p.cur.Type != lexer.STRING {
		p.errorf(p.cur, "expected string literal, found %q", p.cur.Value)
		return &ast.StringLit{Span: p.span(tok)}
	}
	p.advance()
	return &ast.StringLit{Span: p.span(tok), Value: tok.Value}
}

func (p *Parser) parseWriteSection() ast.Stmt {
	start := p.cur
	p.advance() // 'wr'
	name := p.cur.Value
	p.expect(lexer.IDENT, "")
	p.expect(lexer.SEMICOLON, "")
	return &ast.WriteSection{Span: p.span(start), Name: name}
}

func (p *Parser) parseWriteFile() ast.Stmt {
	start := p.cur
	p.advance() // 'wrf'
	tok := p.cur
	path := tok.Value
	p.expect(lexer.STRING, "")
	p.expect(lexer.SEMICOLON, "")
	return &ast.WriteFile{Span: p.span(start), Path: path}
}

func (p *Parser) parseWriteInt() ast.Stmt {
	start := p.cur
	width := writeIntWidths[p.cur.Value]
	p.advance()
	st := &ast.WriteInt{Span: p.span(start), Width: width}
	st.Value = p.parseExpr()
	if p.cur.Type == lexer.COMMA {
		p.advance()
		st.Repeat = p.parseExpr()
	}
	p.expect(lexer.SEMICOLON, "")
	return st
}

func (p *Parser) parseAlign() ast.Stmt {
	start := p.cur
	p.advance() // 'align'
	st := &ast.AlignStmt{Span: p.span(start)}
	st.Alignment = p.parseExpr()
	if p.cur.Type == lexer.COMMA {
		p.advance()
		st.PadByte = p.parseExpr()
	}
	p.expect(lexer.SEMICOLON, "")
	return st
}

func (p *Parser) parseSet(kind ast.PadKind) ast.Stmt {
	start := p.cur
	p.advance() // 'set_sec'/'set_img'/'set_abs'
	st := &ast.SetStmt{Span: p.span(start), Kind: kind}
	st.Target = p.parseExpr()
	if p.cur.Type == lexer.COMMA {
		p.advance()
		st.PadByte = p.parseExpr()
	}
	p.expect(lexer.SEMICOLON, "")
	return st
}

func (p *Parser) parseAssert() ast.Stmt {
	start := p.cur
	p.advance() // 'assert'
	st := &ast.AssertStmt{Span: p.span(start), Expr: p.parseExpr()}
	p.expect(lexer.SEMICOLON, "")
	return st
}

func (p *Parser) parsePrint() ast.Stmt {
	start := p.cur
	p.advance() // 'print'
	st := &ast.PrintStmt{Span: p.span(start)}
	st.Args = append(st.Args, p.parseExpr())
	for p.cur.Type == lexer.COMMA {
		p.advance()
		st.Args = append(st.Args, p.parseExpr())
	}
	p.expect(lexer.SEMICOLON, "")
	return st
}

// Expression grammar, tightest-first per spec.md §4.4:
// parens/primary; * /; + -; &; |; << >>; comparisons; &&; ||.

func (p *Parser) parseExpr() ast.Expr { return p.parseLogicalOr() }

func (p *Parser) parseLogicalOr() ast.Expr {
	left := p.parseLogicalAnd()
	for p.cur.Type == lexer.OROR {
		op := p.cur
		p.advance()
		right := p.parseLogicalAnd()
		left = &ast.BinOp{Span: p.span(op), Op: "||", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expr {
	left := p.parseComparison()
	for p.cur.Type == lexer.ANDAND {
		op := p.cur
		p.advance()
		right := p.parseComparison()
		left = &ast.BinOp{Span: p.span(op), Op: "&&", Left: left, Right: right}
	}
	return left
}

var comparisonOps = map[lexer.TokenType]string{
	lexer.EQ: "==", lexer.NE: "!=", lexer.LT: "<", lexer.LE: "<=", lexer.GT: ">", lexer.GE: ">=",
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseShift()
	for {
		opStr, ok := comparisonOps[p.cur.Type]
		if !ok {
			return left
		}
		op := p.cur
		p.advance()
		right := p.parseShift()
		left = &ast.BinOp{Span: p.span(op), Op: opStr, Left: left, Right: right}
	}
}

func (p *Parser) parseShift() ast.Expr {
	left := p.parseBitOr()
	for p.cur.Type == lexer.SHL || p.cur.Type == lexer.SHR {
		opStr := "<<"
		if p.cur.Type == lexer.SHR {
			opStr = ">>"
		}
		op := p.cur
		p.advance()
		right := p.parseBitOr()
		left = &ast.BinOp{Span: p.span(op), Op: opStr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBitOr() ast.Expr {
	left := p.parseBitAnd()
	for p.cur.Type == lexer.PIPE {
		op := p.cur
		p.advance()
		right := p.parseBitAnd()
		left = &ast.BinOp{Span: p.span(op), Op: "|", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBitAnd() ast.Expr {
	left := p.parseAdditive()
	for p.cur.Type == lexer.AMP {
		op := p.cur
		p.advance()
		right := p.parseAdditive()
		left = &ast.BinOp{Span: p.span(op), Op: "&", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.cur.Type == lexer.PLUS || p.cur.Type == lexer.MINUS {
		opStr := "+"
		if p.cur.Type == lexer.MINUS {
			opStr = "-"
		}
		op := p.cur
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinOp{Span: p.span(op), Op: opStr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.cur.Type == lexer.STAR || p.cur.Type == lexer.SLASH {
		opStr := "*"
		if p.cur.Type == lexer.SLASH {
			opStr = "/"
		}
		op := p.cur
		p.advance()
		right := p.parseUnary()
		left = &ast.BinOp{Span: p.span(op), Op: opStr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	if p.cur.Type == lexer.MINUS || p.cur.Type == lexer.BANG {
		op := p.cur
		opStr := "-"
		if p.cur.Type == lexer.BANG {
			opStr = "!"
		}
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryOp{Span: p.span(op), Op: opStr, Operand: operand}
	}
	return p.parsePrimary()
}

var builtins = map[string]ast.BuiltinKind{
	"to_u64": ast.BuiltinToU64, "to_i64": ast.BuiltinToI64, "sizeof": ast.BuiltinSizeof,
	"abs": ast.BuiltinAbs, "img": ast.BuiltinImg, "sec": ast.BuiltinSec,
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur
	switch {
	case tok.Type == lexer.LPAREN:
		p.advance()
		e := p.parseExpr()
		p.expect(lexer.RPAREN, "")
		return e

	case tok.Type == lexer.NUMBER:
		p.advance()
		return parseNumberLit(tok, p.span(tok))

	case tok.Type == lexer.STRING:
		p.advance()
		return &ast.StringLit{Span: p.span(tok), Value: tok.Value}

	case tok.Type == lexer.KEYWORD:
		if kind, ok := builtins[tok.Value]; ok {
			return p.parseBuiltinCall(tok, kind)
		}
		p.errorf(tok, "unexpected keyword %q in expression", tok.Value)
		p.advance()
		return &ast.IntLit{Span: p.span(tok)}

	case tok.Type == lexer.ILLEGAL:
		p.errorf(tok, "unexpected character %q", tok.Value)
		p.advance()
		return &ast.IntLit{Span: p.span(tok)}

	default:
		p.errorf(tok, "unexpected token %q in expression", tok.Value)
		if tok.Type != lexer.EOF {
			p.advance()
		}
		return &ast.IntLit{Span: p.span(tok)}
	}
}

func (p *Parser) parseBuiltinCall(start lexer.Token, kind ast.BuiltinKind) ast.Expr {
	p.advance() // builtin name
	call := &ast.Call{Span: p.span(start), Kind: kind}
	if p.cur.Type != lexer.LPAREN {
		p.errorf(p.cur, "expected '(' after %q", start.Value)
		return call
	}
	p.advance() // '('
	if p.cur.Type == lexer.RPAREN {
		if kind == ast.BuiltinToU64 || kind == ast.BuiltinToI64 {
			p.errorf(p.cur, "%q requires an argument", start.Value)
		}
		p.advance()
		call.HasArg = false
		return call
	}
	call.HasArg = true
	switch kind {
	case ast.BuiltinSizeof, ast.BuiltinSec, ast.BuiltinImg, ast.BuiltinAbs:
		call.ArgName = p.cur.Value
		p.expect(lexer.IDENT, "")
	default:
		call.Arg = p.parseExpr()
	}
	p.expect(lexer.RPAREN, "")
	return call
}

func parseNumberLit(tok lexer.Token, span ast.Span) *ast.IntLit {
	text := tok.Value
	suffix := ast.SuffixNone
	if len(text) > 0 {
		last := text[len(text)-1]
		if last == 'u' || last == 'U' {
			suffix = ast.SuffixUnsigned
			text = text[:len(text)-1]
		} else if last == 'i' || last == 'I' {
			suffix = ast.SuffixSigned
			text = text[:len(text)-1]
		}
	}
	text = strings.ReplaceAll(text, "_", "")
	var value uint64
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		value, _ = strconv.ParseUint(text[2:], 16, 64)
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		value, _ = strconv.ParseUint(text[2:], 2, 64)
	default:
		value, _ = strconv.ParseUint(text, 10, 64)
	}
	return &ast.IntLit{Span: span, Value: value, Suffix: suffix}
}
