package parser

import (
	"strconv"

	"github.com/nucleuslang/nucleus/internal/lexer"
	"github.com/nucleuslang/nucleus/internal/nucleuserr"
)

// Parse converts one top-level Nucleus expression from src into an Expr
// tree. A second top-level form after the first is a ParseError, matching
// spec section 4.C: "Only one top-level expression is expected per execute
// call; additional top-level forms are a parse error."
func Parse(src string) (Expr, *nucleuserr.NucleusError) {
	p := &parser{lx: lexer.New(src)}
	if err := p.advance(); err != nil {
		return Expr{}, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return Expr{}, err
	}
	if p.tok.Type != lexer.EOF {
		return Expr{}, nucleuserr.New(nucleuserr.ParseError, "unexpected trailing input after top-level expression").
			WithSpan(nucleuserr.Span{Line: p.tok.Line, Column: p.tok.Column, Token: p.tok.Text})
	}
	return expr, nil
}

type parser struct {
	lx  *lexer.Lexer
	tok lexer.Token
}

func (p *parser) advance() *nucleuserr.NucleusError {
	tok, err := p.lx.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) parseExpr() (Expr, *nucleuserr.NucleusError) {
	switch p.tok.Type {
	case lexer.EOF:
		return Expr{}, nucleuserr.New(nucleuserr.ParseError, "unexpected end of input").
			WithSpan(nucleuserr.Span{Line: p.tok.Line, Column: p.tok.Column})
	case lexer.LPAREN:
		return p.parseList()
	case lexer.INT:
		return p.parseInt()
	case lexer.FLOAT:
		return p.parseFloat()
	case lexer.STRING:
		e := Expr{Kind: NodeString, StrVal: p.tok.Value, Line: p.tok.Line, Column: p.tok.Column}
		return e, p.advance()
	case lexer.BOOL:
		e := Expr{Kind: NodeBool, BoolVal: p.tok.Text == "true", Line: p.tok.Line, Column: p.tok.Column}
		return e, p.advance()
	case lexer.SYMBOL:
		e := Expr{Kind: NodeSymbol, SymbolVal: p.tok.Text, Line: p.tok.Line, Column: p.tok.Column}
		return e, p.advance()
	default:
		return Expr{}, nucleuserr.New(nucleuserr.ParseError, "unexpected token").
			WithSpan(nucleuserr.Span{Line: p.tok.Line, Column: p.tok.Column, Token: p.tok.Text})
	}
}

func (p *parser) parseInt() (Expr, *nucleuserr.NucleusError) {
	n, convErr := strconv.ParseInt(p.tok.Text, 10, 64)
	if convErr != nil {
		return Expr{}, nucleuserr.New(nucleuserr.ParseError, "malformed integer literal").
			WithSpan(nucleuserr.Span{Line: p.tok.Line, Column: p.tok.Column, Token: p.tok.Text})
	}
	e := Expr{Kind: NodeInt, IntVal: n, Line: p.tok.Line, Column: p.tok.Column}
	return e, p.advance()
}

func (p *parser) parseFloat() (Expr, *nucleuserr.NucleusError) {
	f, convErr := strconv.ParseFloat(p.tok.Text, 64)
	if convErr != nil {
		return Expr{}, nucleuserr.New(nucleuserr.ParseError, "malformed float literal").
			WithSpan(nucleuserr.Span{Line: p.tok.Line, Column: p.tok.Column, Token: p.tok.Text})
	}
	e := Expr{Kind: NodeFloat, FloatVal: f, Line: p.tok.Line, Column: p.tok.Column}
	return e, p.advance()
}

func (p *parser) parseList() (Expr, *nucleuserr.NucleusError) {
	startLine, startCol := p.tok.Line, p.tok.Column
	if err := p.advance(); err != nil { // consume '('
		return Expr{}, err
	}
	var items []Expr
	for p.tok.Type != lexer.RPAREN {
		if p.tok.Type == lexer.EOF {
			return Expr{}, nucleuserr.New(nucleuserr.ParseError, "unterminated list: missing ')'").
				WithSpan(nucleuserr.Span{Line: startLine, Column: startCol})
		}
		item, err := p.parseExpr()
		if err != nil {
			return Expr{}, err
		}
		items = append(items, item)
	}
	if err := p.advance(); err != nil { // consume ')'
		return Expr{}, err
	}
	return Expr{Kind: NodeList, Items: items, Line: startLine, Column: startCol}, nil
}
