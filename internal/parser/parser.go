package parser

import (
	"fmt"
	"strconv"
	"strings"

	"escargot/internal/ast"
	"escargot/internal/lexer"
	"escargot/internal/token"
)

// Parser turns a token stream into an *ast.Program.
type Parser struct {
	lex *lexer.Lexer
	ctx *Context

	cur  token.Token
	peek token.Token
}

// Parse parses a full program. strict forces strict mode from the
// start (used by the Function constructor and by modules embedding
// already-strict host code); otherwise strict mode is detected from
// the source's own "use strict" directive prologue.
func Parse(source string, strict bool) (*ast.Program, error) {
	p := &Parser{lex: lexer.New(source), ctx: newContext()}
	p.ctx.strict = strict
	p.lex.Strict = strict
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	return p.parseProgram()
}

// ParseFunctionBody parses the combined parameter list and body text
// passed to the Function constructor: `new Function(argsSrc, bodySrc)`.
func ParseFunctionBody(argsSrc, bodySrc string) (*ast.FunctionExpression, error) {
	synthetic := "(function anonymous(" + argsSrc + "\n) {\n" + bodySrc + "\n})"
	prog, err := Parse(synthetic, false)
	if err != nil {
		return nil, err
	}
	if len(prog.Body) != 1 {
		return nil, &Error{Message: "invalid function body"}
	}
	exprStmt, ok := prog.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return nil, &Error{Message: "invalid function body"}
	}
	fn, ok := exprStmt.Expression.(*ast.FunctionExpression)
	if !ok {
		return nil, &Error{Message: "invalid function body"}
	}
	return fn, nil
}

func (p *Parser) next() error {
	p.cur = p.peek
	tok, err := p.lex.Next()
	if err != nil {
		return p.wrapLexError(err)
	}
	p.peek = tok
	return nil
}

func (p *Parser) wrapLexError(err error) error {
	if le, ok := err.(*lexer.Error); ok {
		return &Error{Message: le.Message, Line: le.Line, Column: le.Column}
	}
	return &Error{Message: err.Error()}
}

func (p *Parser) errf(format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...), Line: p.cur.Line, Column: p.cur.Column}
}

func (p *Parser) pos() ast.Position { return ast.Position{Line: p.cur.Line, Column: p.cur.Column} }

// --- token predicates -------------------------------------------------

func (p *Parser) isEOF() bool { return p.cur.Kind == token.EOF }

func (p *Parser) isPunct(tag int) bool {
	return p.cur.Kind == token.PUNCTUATOR && p.cur.Tag == tag
}

func (p *Parser) isKeyword(tag int) bool {
	return p.cur.Kind == token.KEYWORD && p.cur.Tag == tag
}

// expectPunct consumes a punctuator of the given tag or raises a
// diagnostic naming what was found instead.
func (p *Parser) expectPunct(tag int, text string) error {
	if !p.isPunct(tag) {
		return p.errf("Unexpected token, expected '%s'", text)
	}
	return p.next()
}

func (p *Parser) expectKeyword(tag int, text string) error {
	if !p.isKeyword(tag) {
		return p.errf("Unexpected token, expected '%s'", text)
	}
	return p.next()
}

// consumeSemicolon implements Automatic Semicolon Insertion: an
// explicit ";" is always accepted; otherwise ASI fires at "}", EOF, or
// when a line terminator preceded the current token.
func (p *Parser) consumeSemicolon() error {
	if p.isPunct(token.SEMICOLON) {
		return p.next()
	}
	if p.isPunct(token.RBRACE) || p.isEOF() || p.cur.HasLineTerminatorBefore {
		return nil
	}
	return p.errf("Unexpected token %q", p.cur.Value)
}

// identifierName accepts any IDENTIFIER, KEYWORD, FUTURE_RESERVED,
// NULL_LITERAL or BOOLEAN_LITERAL token as a property name source
// text -- used for object literal keys and member-expression
// properties, where reserved words are allowed (`obj.class`).
func (p *Parser) identifierName() (string, error) {
	switch p.cur.Kind {
	case token.IDENTIFIER, token.KEYWORD, token.FUTURE_RESERVED, token.NULL_LITERAL, token.BOOLEAN_LITERAL:
		name := p.cur.Value
		if err := p.next(); err != nil {
			return "", err
		}
		return name, nil
	}
	return "", p.errf("Unexpected token, expected identifier")
}

// bindingIdentifier parses a name used as a declaration/assignment
// target: plain identifiers only, validated against strict-mode
// restrictions (eval/arguments, future-reserved words).
func (p *Parser) bindingIdentifier() (string, error) {
	if p.cur.Kind == token.FUTURE_RESERVED {
		return "", p.errf("Unexpected reserved word %q", p.cur.Value)
	}
	if p.cur.Kind != token.IDENTIFIER {
		return "", p.errf("Unexpected token, expected identifier")
	}
	name := p.cur.Value
	if p.ctx.strict && (token.IsRestrictedIdentifier(name)) {
		return "", p.errf("Assignment to eval or arguments is not allowed in strict mode")
	}
	if err := p.next(); err != nil {
		return "", err
	}
	return name, nil
}

// rejectES2015Construct produces the fixed "not supported" diagnostic
// required for let/const/class/arrow functions/destructuring/spread/
// templates/generators/async, all explicitly out of scope.
func (p *Parser) rejectES2015Construct(what string) error {
	return p.errf("%s is not supported by this ECMAScript 5 engine", what)
}

func parseNumericLiteral(raw string) (float64, error) {
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "0x"):
		v, err := strconv.ParseUint(lower[2:], 16, 64)
		return float64(v), err
	case strings.HasPrefix(lower, "0o"):
		v, err := strconv.ParseUint(lower[2:], 8, 64)
		return float64(v), err
	case strings.HasPrefix(lower, "0b"):
		v, err := strconv.ParseUint(lower[2:], 2, 64)
		return float64(v), err
	}
	if len(raw) > 1 && raw[0] == '0' {
		allOctal := true
		for _, c := range raw {
			if c < '0' || c > '7' {
				allOctal = false
				break
			}
		}
		if allOctal {
			v, err := strconv.ParseUint(raw, 8, 64)
			return float64(v), err
		}
	}
	return strconv.ParseFloat(raw, 64)
}
