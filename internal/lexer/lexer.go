package lexer

import (
	"strings"

	"github.com/nucleuslang/nucleus/internal/nucleuserr"
)

// ASCII classification tables, precomputed once. Grounded on the teacher's
// pkgs/lexer/lexer.go init()-populated lookup tables for fast single-byte
// classification in the hot scanning loop.
var (
	isDigit      [256]bool
	isIdentStart [128]bool
	isIdentPart  [128]bool
	isSpace      [128]bool
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isSpace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f'
		isDigit[i] = ch >= '0' && ch <= '9'
		letter := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
		isIdentStart[i] = letter
		isIdentPart[i] = letter || isDigit[i] || ch == '-' || ch == '?' || ch == '!'
	}
}

// Lexer scans Nucleus source text into tokens on demand.
type Lexer struct {
	src        string
	pos        int
	line       int
	col        int
	lastWasEOF bool
}

// New returns a Lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src, pos: 0, line: 1, col: 1}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.src) {
		ch := l.peek()
		if ch < 128 && isSpace[ch] {
			l.advance()
			continue
		}
		if ch == ';' {
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
			continue
		}
		break
	}
}

// Next returns the next token, or an EOF token when the source is
// exhausted. Whitespace and comments are skipped without error; a character
// that cannot start a token, an unterminated string, or an invalid escape is
// returned as a ParseError carrying its span.
func (l *Lexer) Next() (Token, *nucleuserr.NucleusError) {
	l.skipWhitespaceAndComments()
	if l.pos >= len(l.src) {
		return Token{Type: EOF, Line: l.line, Column: l.col}, nil
	}

	startLine, startCol := l.line, l.col
	ch := l.peek()

	switch {
	case ch == '(':
		l.advance()
		return Token{Type: LPAREN, Text: "(", Line: startLine, Column: startCol}, nil
	case ch == ')':
		l.advance()
		return Token{Type: RPAREN, Text: ")", Line: startLine, Column: startCol}, nil
	case ch == '"':
		return l.scanString(startLine, startCol)
	case ch == '-' && isDigit[l.peekAt(1)]:
		return l.scanNumber(startLine, startCol)
	case isDigit[ch]:
		return l.scanNumber(startLine, startCol)
	case ch < 128 && isIdentStart[ch]:
		return l.scanSymbol(startLine, startCol)
	default:
		l.advance()
		return Token{}, nucleuserr.New(nucleuserr.ParseError, "unexpected character").
			WithSpan(nucleuserr.Span{Line: startLine, Column: startCol, Token: string(ch)})
	}
}

func (l *Lexer) scanString(line, col int) (Token, *nucleuserr.NucleusError) {
	start := l.pos
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, nucleuserr.New(nucleuserr.ParseError, "unterminated string literal").
				WithSpan(nucleuserr.Span{Line: line, Column: col})
		}
		ch := l.peek()
		if ch == '"' {
			l.advance()
			break
		}
		if ch == '\\' {
			l.advance()
			if l.pos >= len(l.src) {
				return Token{}, nucleuserr.New(nucleuserr.ParseError, "unterminated escape sequence").
					WithSpan(nucleuserr.Span{Line: line, Column: col})
			}
			esc := l.advance()
			switch esc {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				return Token{}, nucleuserr.New(nucleuserr.ParseError, "invalid escape sequence").
					WithSpan(nucleuserr.Span{Line: line, Column: col, Token: string(esc)})
			}
			continue
		}
		sb.WriteByte(l.advance())
	}
	return Token{Type: STRING, Text: l.src[start:l.pos], Value: sb.String(), Line: line, Column: col}, nil
}

func (l *Lexer) scanNumber(line, col int) (Token, *nucleuserr.NucleusError) {
	start := l.pos
	if l.peek() == '-' {
		l.advance()
	}
	for l.pos < len(l.src) && isDigit[l.peek()] {
		l.advance()
	}
	isFloat := false
	if l.peek() == '.' && isDigit[l.peekAt(1)] {
		isFloat = true
		l.advance()
		for l.pos < len(l.src) && isDigit[l.peek()] {
			l.advance()
		}
	}
	text := l.src[start:l.pos]
	tt := INT
	if isFloat {
		tt = FLOAT
	}
	return Token{Type: tt, Text: text, Line: line, Column: col}, nil
}

func (l *Lexer) scanSymbol(line, col int) (Token, *nucleuserr.NucleusError) {
	start := l.pos
	for l.pos < len(l.src) {
		ch := l.peek()
		if ch >= 128 || !isIdentPart[ch] {
			break
		}
		l.advance()
	}
	text := l.src[start:l.pos]
	if text == "true" || text == "false" {
		return Token{Type: BOOL, Text: text, Line: line, Column: col}, nil
	}
	return Token{Type: SYMBOL, Text: text, Line: line, Column: col}, nil
}
