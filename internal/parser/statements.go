package parser

import (
	"escargot/internal/ast"
	"escargot/internal/token"
)

func (p *Parser) parseProgram() (*ast.Program, error) {
	pos := p.pos()
	body, strict, err := p.parseDirectivePrologueAndBody(token.EOF)
	if err != nil {
		return nil, err
	}
	return &ast.Program{Position: pos, Body: body, Strict: strict}, nil
}

// parseDirectivePrologueAndBody scans leading string-literal
// expression statements for a "use strict" directive (promoting
// ctx.strict before the rest of the body is parsed, per §4.2) and then
// parses statements until a RBRACE or EOF token is reached (terminator
// selects which, so the same routine serves both Program and function
// bodies).
//
// An octal-flagged literal earlier in the same prologue than the
// directive that promotes strict mode is not an error at the point it
// is scanned — strict isn't active yet — but becomes one retroactively
// the moment a later directive in the same prologue turns strict on.
// firstOctal defers that diagnosis to the promoting directive, the
// same firstRestricted-token shape esprima's own directive-prologue
// scan uses.
func (p *Parser) parseDirectivePrologueAndBody(terminator token.Kind) ([]ast.Statement, bool, error) {
	savedStrict := p.ctx.strict
	var body []ast.Statement
	var firstOctal *token.Token

	inPrologue := true
	for {
		if terminator == token.EOF {
			if p.isEOF() {
				break
			}
		} else if p.isPunct(token.RBRACE) {
			break
		}
		startTok := p.cur
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, false, err
		}
		if inPrologue {
			if exprStmt, ok := stmt.(*ast.ExpressionStatement); ok {
				if lit, ok := exprStmt.Expression.(*ast.StringLiteral); ok {
					if lit.Octal {
						if p.ctx.strict {
							return nil, false, &Error{Message: "Octal literals are not allowed in strict mode", Line: startTok.Line}
						}
						if firstOctal == nil {
							tok := startTok
							firstOctal = &tok
						}
					}
					if startTok.Raw == `"use strict"` || startTok.Raw == `'use strict'` {
						p.ctx.strict = true
						p.lex.Strict = true
						if firstOctal != nil {
							return nil, false, &Error{Message: "Octal literals are not allowed in strict mode", Line: firstOctal.Line}
						}
					}
					body = append(body, stmt)
					continue
				}
			}
			inPrologue = false
		}
		body = append(body, stmt)
	}

	strict := p.ctx.strict
	p.ctx.strict = savedStrict
	return body, strict, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	if err := p.ctx.enter(); err != nil {
		return nil, err
	}
	defer p.ctx.leave()

	switch {
	case p.isPunct(token.LBRACE):
		return p.parseBlockStatement()
	case p.isKeyword(token.KW_VAR):
		return p.parseVariableStatement()
	case p.isPunct(token.SEMICOLON):
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.EmptyStatement{Position: pos}, nil
	case p.isKeyword(token.KW_IF):
		return p.parseIfStatement()
	case p.isKeyword(token.KW_DO):
		return p.parseDoWhileStatement()
	case p.isKeyword(token.KW_WHILE):
		return p.parseWhileStatement()
	case p.isKeyword(token.KW_FOR):
		return p.parseForStatement()
	case p.isKeyword(token.KW_CONTINUE):
		return p.parseContinueStatement()
	case p.isKeyword(token.KW_BREAK):
		return p.parseBreakStatement()
	case p.isKeyword(token.KW_RETURN):
		return p.parseReturnStatement()
	case p.isKeyword(token.KW_WITH):
		return p.parseWithStatement()
	case p.isKeyword(token.KW_SWITCH):
		return p.parseSwitchStatement()
	case p.isKeyword(token.KW_THROW):
		return p.parseThrowStatement()
	case p.isKeyword(token.KW_TRY):
		return p.parseTryStatement()
	case p.isKeyword(token.KW_DEBUGGER):
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		if err := p.consumeSemicolon(); err != nil {
			return nil, err
		}
		return &ast.DebuggerStatement{Position: pos}, nil
	case p.isKeyword(token.KW_FUNCTION):
		return p.parseFunctionDeclaration()
	case p.cur.Kind == token.FUTURE_RESERVED && (p.cur.Tag == token.FR_LET || p.cur.Tag == token.FR_CONST || p.cur.Tag == token.FR_CLASS):
		return nil, p.rejectES2015Construct(p.cur.Value)
	case p.cur.Kind == token.IDENTIFIER && p.peek.Kind == token.PUNCTUATOR && p.peek.Tag == token.COLON:
		return p.parseLabeledStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseBlockStatement() (*ast.BlockStatement, error) {
	pos := p.pos()
	if err := p.expectPunct(token.LBRACE, "{"); err != nil {
		return nil, err
	}
	var body []ast.Statement
	for !p.isPunct(token.RBRACE) && !p.isEOF() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	if err := p.expectPunct(token.RBRACE, "}"); err != nil {
		return nil, err
	}
	return &ast.BlockStatement{Position: pos, Body: body}, nil
}

func (p *Parser) parseVariableStatement() (ast.Statement, error) {
	decl, err := p.parseVariableDeclarationList()
	if err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseVariableDeclarationList parses "var a, b = 1, c" without the
// trailing terminator, shared by the var-statement and for-statement
// init-clause productions.
func (p *Parser) parseVariableDeclarationList() (*ast.VariableDeclaration, error) {
	pos := p.pos()
	if err := p.expectKeyword(token.KW_VAR, "var"); err != nil {
		return nil, err
	}
	decl := &ast.VariableDeclaration{Position: pos}
	for {
		dpos := p.pos()
		name, err := p.bindingIdentifier()
		if err != nil {
			return nil, err
		}
		var init ast.Expression
		if p.isPunct(token.ASSIGN) {
			if err := p.next(); err != nil {
				return nil, err
			}
			init, err = p.parseAssignmentExpressionNoIn(false)
			if err != nil {
				return nil, err
			}
		}
		decl.Declarations = append(decl.Declarations, &ast.VariableDeclarator{Position: dpos, Name: name, Init: init})
		if !p.isPunct(token.COMMA) {
			break
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	return decl, nil
}

func (p *Parser) parseIfStatement() (ast.Statement, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.LPAREN, "("); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.RPAREN, ")"); err != nil {
		return nil, err
	}
	cons, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	var alt ast.Statement
	if p.isKeyword(token.KW_ELSE) {
		if err := p.next(); err != nil {
			return nil, err
		}
		alt, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return &ast.IfStatement{Position: pos, Test: test, Consequent: cons, Alternate: alt}, nil
}

func (p *Parser) parseDoWhileStatement() (ast.Statement, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	p.ctx.pushLabel("", true)
	body, err := p.parseStatement()
	p.ctx.popLabel()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword(token.KW_WHILE, "while"); err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.LPAREN, "("); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.RPAREN, ")"); err != nil {
		return nil, err
	}
	// trailing ";" is optional after do-while by ASI special case
	if p.isPunct(token.SEMICOLON) {
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	return &ast.DoWhileStatement{Position: pos, Body: body, Test: test}, nil
}

func (p *Parser) parseWhileStatement() (ast.Statement, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.LPAREN, "("); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.RPAREN, ")"); err != nil {
		return nil, err
	}
	p.ctx.pushLabel("", true)
	body, err := p.parseStatement()
	p.ctx.popLabel()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStatement{Position: pos, Test: test, Body: body}, nil
}

func (p *Parser) parseForStatement() (ast.Statement, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.LPAREN, "("); err != nil {
		return nil, err
	}

	var init ast.Node
	if p.isKeyword(token.KW_VAR) {
		savedAllowIn := p.ctx.allowIn
		p.ctx.allowIn = false
		decl, err := p.parseVariableDeclarationList()
		p.ctx.allowIn = savedAllowIn
		if err != nil {
			return nil, err
		}
		if p.isKeyword(token.KW_IN) {
			if len(decl.Declarations) != 1 || decl.Declarations[0].Init != nil {
				return nil, p.errf("Invalid left-hand side in for-in")
			}
			return p.finishForIn(pos, decl)
		}
		init = decl
	} else if !p.isPunct(token.SEMICOLON) {
		savedAllowIn := p.ctx.allowIn
		p.ctx.allowIn = false
		expr, err := p.parseExpressionNoIn()
		p.ctx.allowIn = savedAllowIn
		if err != nil {
			return nil, err
		}
		if p.isKeyword(token.KW_IN) {
			return p.finishForIn(pos, expr)
		}
		init = expr
	}

	if err := p.expectPunct(token.SEMICOLON, ";"); err != nil {
		return nil, err
	}
	var test ast.Expression
	if !p.isPunct(token.SEMICOLON) {
		var err error
		test, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct(token.SEMICOLON, ";"); err != nil {
		return nil, err
	}
	var update ast.Expression
	if !p.isPunct(token.RPAREN) {
		var err error
		update, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct(token.RPAREN, ")"); err != nil {
		return nil, err
	}
	p.ctx.pushLabel("", true)
	body, err := p.parseStatement()
	p.ctx.popLabel()
	if err != nil {
		return nil, err
	}
	return &ast.ForStatement{Position: pos, Init: init, Test: test, Update: update, Body: body}, nil
}

func (p *Parser) finishForIn(pos ast.Position, left ast.Node) (ast.Statement, error) {
	if err := p.expectKeyword(token.KW_IN, "in"); err != nil {
		return nil, err
	}
	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.RPAREN, ")"); err != nil {
		return nil, err
	}
	p.ctx.pushLabel("", true)
	body, err := p.parseStatement()
	p.ctx.popLabel()
	if err != nil {
		return nil, err
	}
	return &ast.ForInStatement{Position: pos, Left: left, Right: right, Body: body}, nil
}

func (p *Parser) parseContinueStatement() (ast.Statement, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	label := ""
	if p.cur.Kind == token.IDENTIFIER && !p.cur.HasLineTerminatorBefore {
		label = p.cur.Value
		if !p.ctx.hasLabel(label) || !p.ctx.labelIsLoop(label) {
			return nil, p.errf("Undefined label %q", label)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	} else if !p.ctx.inLoop() {
		return nil, p.errf("Illegal continue statement")
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return &ast.ContinueStatement{Position: pos, Label: label}, nil
}

func (p *Parser) parseBreakStatement() (ast.Statement, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	label := ""
	if p.cur.Kind == token.IDENTIFIER && !p.cur.HasLineTerminatorBefore {
		label = p.cur.Value
		if !p.ctx.hasLabel(label) {
			return nil, p.errf("Undefined label %q", label)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	} else if len(p.ctx.labels) == 0 {
		return nil, p.errf("Illegal break statement")
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return &ast.BreakStatement{Position: pos, Label: label}, nil
}

func (p *Parser) parseReturnStatement() (ast.Statement, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	var arg ast.Expression
	if !p.isPunct(token.SEMICOLON) && !p.isPunct(token.RBRACE) && !p.isEOF() && !p.cur.HasLineTerminatorBefore {
		var err error
		arg, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return &ast.ReturnStatement{Position: pos, Argument: arg}, nil
}

func (p *Parser) parseWithStatement() (ast.Statement, error) {
	pos := p.pos()
	if p.ctx.strict {
		return nil, p.errf("'with' statements are not allowed in strict mode")
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.LPAREN, "("); err != nil {
		return nil, err
	}
	obj, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.RPAREN, ")"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WithStatement{Position: pos, Object: obj, Body: body}, nil
}

func (p *Parser) parseSwitchStatement() (ast.Statement, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.LPAREN, "("); err != nil {
		return nil, err
	}
	disc, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.RPAREN, ")"); err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.LBRACE, "{"); err != nil {
		return nil, err
	}
	p.ctx.pushLabel("", true)
	defer p.ctx.popLabel()

	sw := &ast.SwitchStatement{Position: pos, Discriminant: disc}
	seenDefault := false
	for !p.isPunct(token.RBRACE) {
		cpos := p.pos()
		c := &ast.SwitchCase{Position: cpos}
		if p.isKeyword(token.KW_CASE) {
			if err := p.next(); err != nil {
				return nil, err
			}
			c.Test, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		} else if p.isKeyword(token.KW_DEFAULT) {
			if seenDefault {
				return nil, p.errf("More than one default clause in switch statement")
			}
			seenDefault = true
			if err := p.next(); err != nil {
				return nil, err
			}
		} else {
			return nil, p.errf("Unexpected token, expected 'case' or 'default'")
		}
		if err := p.expectPunct(token.COLON, ":"); err != nil {
			return nil, err
		}
		for !p.isPunct(token.RBRACE) && !p.isKeyword(token.KW_CASE) && !p.isKeyword(token.KW_DEFAULT) {
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			c.Consequent = append(c.Consequent, stmt)
		}
		sw.Cases = append(sw.Cases, c)
	}
	if err := p.expectPunct(token.RBRACE, "}"); err != nil {
		return nil, err
	}
	return sw, nil
}

func (p *Parser) parseThrowStatement() (ast.Statement, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.cur.HasLineTerminatorBefore {
		return nil, p.errf("Illegal newline after throw")
	}
	arg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return &ast.ThrowStatement{Position: pos, Argument: arg}, nil
}

func (p *Parser) parseTryStatement() (ast.Statement, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	block, err := p.parseBlockStatement()
	if err != nil {
		return nil, err
	}
	ts := &ast.TryStatement{Position: pos, Block: block}
	if p.isKeyword(token.KW_CATCH) {
		cpos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		if err := p.expectPunct(token.LPAREN, "("); err != nil {
			return nil, err
		}
		param, err := p.bindingIdentifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(token.RPAREN, ")"); err != nil {
			return nil, err
		}
		body, err := p.parseBlockStatement()
		if err != nil {
			return nil, err
		}
		ts.Handler = &ast.CatchClause{Position: cpos, Param: param, Body: body}
	}
	if p.isKeyword(token.KW_FINALLY) {
		if err := p.next(); err != nil {
			return nil, err
		}
		body, err := p.parseBlockStatement()
		if err != nil {
			return nil, err
		}
		ts.Finally = body
	}
	if ts.Handler == nil && ts.Finally == nil {
		return nil, p.errf("Missing catch or finally after try")
	}
	return ts, nil
}

func (p *Parser) parseLabeledStatement() (ast.Statement, error) {
	pos := p.pos()
	name := p.cur.Value
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.COLON, ":"); err != nil {
		return nil, err
	}
	if p.ctx.hasLabel(name) {
		return nil, p.errf("Label %q has already been declared", name)
	}
	isLoop := p.isKeyword(token.KW_FOR) || p.isKeyword(token.KW_WHILE) || p.isKeyword(token.KW_DO)
	p.ctx.pushLabel(name, isLoop)
	body, err := p.parseStatement()
	p.ctx.popLabel()
	if err != nil {
		return nil, err
	}
	return &ast.LabeledStatement{Position: pos, Label: name, Body: body}, nil
}

func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	pos := p.pos()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Position: pos, Expression: expr}, nil
}

func (p *Parser) parseFunctionDeclaration() (ast.Statement, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	name, err := p.bindingIdentifier()
	if err != nil {
		return nil, err
	}
	params, body, isStrict, needsArgs, needsAct, err := p.parseFunctionRest(name)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDeclaration{
		Position: pos, Name: name, Params: params, Body: body,
		IsStrict: isStrict, NeedsArguments: needsArgs, NeedsActivation: needsAct,
	}, nil
}
