package parser

import (
	"escargot/internal/ast"
	"escargot/internal/token"
)

// parseExpression parses a (possibly comma-separated) Expression,
// honoring ctx.allowIn for the `in` operator per the enclosing
// for-statement context.
func (p *Parser) parseExpression() (ast.Expression, error) {
	pos := p.pos()
	first, err := p.parseAssignmentExpression()
	if err != nil {
		return nil, err
	}
	if !p.isPunct(token.COMMA) {
		return first, nil
	}
	seq := &ast.SequenceExpression{Position: pos, Expressions: []ast.Expression{first}}
	for p.isPunct(token.COMMA) {
		if err := p.next(); err != nil {
			return nil, err
		}
		next, err := p.parseAssignmentExpression()
		if err != nil {
			return nil, err
		}
		seq.Expressions = append(seq.Expressions, next)
	}
	return seq, nil
}

func (p *Parser) parseExpressionNoIn() (ast.Expression, error) { return p.parseExpression() }

func (p *Parser) parseAssignmentExpressionNoIn(_ bool) (ast.Expression, error) {
	return p.parseAssignmentExpression()
}

var assignOps = map[int]ast.AssignOperator{
	token.ASSIGN:         ast.AssignPlain,
	token.PLUS_ASSIGN:    ast.AssignAdd,
	token.MINUS_ASSIGN:   ast.AssignSub,
	token.MUL_ASSIGN:     ast.AssignMul,
	token.DIV_ASSIGN:     ast.AssignDiv,
	token.MOD_ASSIGN:     ast.AssignMod,
	token.BAND_ASSIGN:    ast.AssignBitAnd,
	token.BOR_ASSIGN:     ast.AssignBitOr,
	token.BXOR_ASSIGN:    ast.AssignBitXor,
	token.LSHIFT_ASSIGN:  ast.AssignLShift,
	token.RSHIFT_ASSIGN:  ast.AssignRShift,
	token.URSHIFT_ASSIGN: ast.AssignURShift,
}

func (p *Parser) parseAssignmentExpression() (ast.Expression, error) {
	if err := p.ctx.enter(); err != nil {
		return nil, err
	}
	defer p.ctx.leave()

	pos := p.pos()
	left, err := p.parseConditionalExpression()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != token.PUNCTUATOR {
		return left, nil
	}
	op, ok := assignOps[p.cur.Tag]
	if !ok {
		return left, nil
	}
	if !isValidAssignmentTarget(left) {
		return nil, p.errf("Invalid left-hand side in assignment")
	}
	if id, ok := left.(*ast.Identifier); ok && p.ctx.strict && token.IsRestrictedIdentifier(id.Name) {
		return nil, p.errf("Assignment to eval or arguments is not allowed in strict mode")
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	right, err := p.parseAssignmentExpression()
	if err != nil {
		return nil, err
	}
	return &ast.AssignmentExpression{Position: pos, Operator: op, Target: left, Value: right}, nil
}

func isValidAssignmentTarget(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Identifier, *ast.MemberExpression:
		return true
	default:
		return false
	}
}

func (p *Parser) parseConditionalExpression() (ast.Expression, error) {
	pos := p.pos()
	test, err := p.parseBinaryExpression(0)
	if err != nil {
		return nil, err
	}
	if !p.isPunct(token.QUESTION) {
		return test, nil
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	savedAllowIn := p.ctx.allowIn
	p.ctx.allowIn = true
	cons, err := p.parseAssignmentExpression()
	p.ctx.allowIn = savedAllowIn
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.COLON, ":"); err != nil {
		return nil, err
	}
	alt, err := p.parseAssignmentExpression()
	if err != nil {
		return nil, err
	}
	return &ast.ConditionalExpression{Position: pos, Test: test, Consequent: cons, Alternate: alt}, nil
}

// binOpInfo captures a binary/logical operator's precedence (higher
// binds tighter) alongside its AST encoding.
type binOpInfo struct {
	prec     int
	isLogic  bool
	logicOp  ast.LogicalOperator
	binOp    ast.BinaryOperator
}

func (p *Parser) binaryOpFor(tok token.Token) (binOpInfo, bool) {
	if tok.Kind == token.KEYWORD {
		switch tok.Tag {
		case token.KW_INSTANCEOF:
			return binOpInfo{prec: 10, binOp: ast.BinInstanceOf}, true
		case token.KW_IN:
			if !p.ctx.allowIn {
				return binOpInfo{}, false
			}
			return binOpInfo{prec: 10, binOp: ast.BinIn}, true
		}
		return binOpInfo{}, false
	}
	if tok.Kind != token.PUNCTUATOR {
		return binOpInfo{}, false
	}
	switch tok.Tag {
	case token.OROR:
		return binOpInfo{prec: 4, isLogic: true, logicOp: ast.LogOr}, true
	case token.ANDAND:
		return binOpInfo{prec: 5, isLogic: true, logicOp: ast.LogAnd}, true
	case token.BOR:
		return binOpInfo{prec: 6, binOp: ast.BinBitOr}, true
	case token.BXOR:
		return binOpInfo{prec: 7, binOp: ast.BinBitXor}, true
	case token.BAND:
		return binOpInfo{prec: 8, binOp: ast.BinBitAnd}, true
	case token.EQ:
		return binOpInfo{prec: 9, binOp: ast.BinEq}, true
	case token.NEQ:
		return binOpInfo{prec: 9, binOp: ast.BinNeq}, true
	case token.SEQ:
		return binOpInfo{prec: 9, binOp: ast.BinStrictEq}, true
	case token.SNEQ:
		return binOpInfo{prec: 9, binOp: ast.BinStrictNeq}, true
	case token.LT:
		return binOpInfo{prec: 10, binOp: ast.BinLt}, true
	case token.LE:
		return binOpInfo{prec: 10, binOp: ast.BinLte}, true
	case token.GT:
		return binOpInfo{prec: 10, binOp: ast.BinGt}, true
	case token.GE:
		return binOpInfo{prec: 10, binOp: ast.BinGte}, true
	case token.LSHIFT:
		return binOpInfo{prec: 11, binOp: ast.BinLShift}, true
	case token.RSHIFT:
		return binOpInfo{prec: 11, binOp: ast.BinRShift}, true
	case token.URSHIFT:
		return binOpInfo{prec: 11, binOp: ast.BinURShift}, true
	case token.PLUS:
		return binOpInfo{prec: 12, binOp: ast.BinAdd}, true
	case token.MINUS:
		return binOpInfo{prec: 12, binOp: ast.BinSub}, true
	case token.MUL:
		return binOpInfo{prec: 13, binOp: ast.BinMul}, true
	case token.DIV:
		return binOpInfo{prec: 13, binOp: ast.BinDiv}, true
	case token.MOD:
		return binOpInfo{prec: 13, binOp: ast.BinMod}, true
	}
	return binOpInfo{}, false
}

// parseBinaryExpression implements precedence-climbing left-associative
// reduction, mirroring the teacher's two-element operator-stack
// shunting yard but expressed recursively.
func (p *Parser) parseBinaryExpression(minPrec int) (ast.Expression, error) {
	left, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	for {
		info, ok := p.binaryOpFor(p.cur)
		if !ok || info.prec < minPrec {
			return left, nil
		}
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseBinaryExpression(info.prec + 1)
		if err != nil {
			return nil, err
		}
		if info.isLogic {
			left = &ast.LogicalExpression{Position: pos, Operator: info.logicOp, Left: left, Right: right}
		} else {
			left = &ast.BinaryExpression{Position: pos, Operator: info.binOp, Left: left, Right: right}
		}
	}
}

var unaryOps = map[int]ast.UnaryOperator{
	token.MINUS: ast.UnaryMinus,
	token.PLUS:  ast.UnaryPlus,
	token.NOT:   ast.UnaryNot,
	token.BNOT:  ast.UnaryBitNot,
}

func (p *Parser) parseUnaryExpression() (ast.Expression, error) {
	pos := p.pos()
	if p.cur.Kind == token.PUNCTUATOR {
		if op, ok := unaryOps[p.cur.Tag]; ok {
			if err := p.next(); err != nil {
				return nil, err
			}
			arg, err := p.parseUnaryExpression()
			if err != nil {
				return nil, err
			}
			return &ast.UnaryExpression{Position: pos, Operator: op, Argument: arg}, nil
		}
		if p.cur.Tag == token.PLUSPLUS || p.cur.Tag == token.MINUSMINUS {
			return p.parsePrefixUpdate()
		}
	}
	if p.cur.Kind == token.KEYWORD {
		switch p.cur.Tag {
		case token.KW_TYPEOF:
			return p.parseSimpleUnary(pos, ast.UnaryTypeof)
		case token.KW_VOID:
			return p.parseSimpleUnary(pos, ast.UnaryVoid)
		case token.KW_DELETE:
			return p.parseDeleteExpression(pos)
		}
	}
	return p.parsePostfixExpression()
}

func (p *Parser) parseSimpleUnary(pos ast.Position, op ast.UnaryOperator) (ast.Expression, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	arg, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	return &ast.UnaryExpression{Position: pos, Operator: op, Argument: arg}, nil
}

func (p *Parser) parseDeleteExpression(pos ast.Position) (ast.Expression, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	arg, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	if _, ok := arg.(*ast.Identifier); ok && p.ctx.strict {
		return nil, &Error{Message: "Delete of an unqualified identifier in strict mode.", Line: pos.Line}
	}
	return &ast.UnaryExpression{Position: pos, Operator: ast.UnaryDelete, Argument: arg}, nil
}

func (p *Parser) parsePrefixUpdate() (ast.Expression, error) {
	pos := p.pos()
	op := ast.UpdateIncrement
	if p.cur.Tag == token.MINUSMINUS {
		op = ast.UpdateDecrement
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	arg, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	if !isValidAssignmentTarget(arg) {
		return nil, p.errf("Invalid left-hand side expression in prefix operation")
	}
	if id, ok := arg.(*ast.Identifier); ok && p.ctx.strict && token.IsRestrictedIdentifier(id.Name) {
		return nil, p.errf("Prefix increment/decrement may not have eval or arguments operand in strict mode")
	}
	return &ast.UpdateExpression{Position: pos, Operator: op, Argument: arg, Prefix: true}, nil
}

func (p *Parser) parsePostfixExpression() (ast.Expression, error) {
	expr, err := p.parseLeftHandSideExpressionAllowCall()
	if err != nil {
		return nil, err
	}
	if !p.cur.HasLineTerminatorBefore && p.cur.Kind == token.PUNCTUATOR && (p.cur.Tag == token.PLUSPLUS || p.cur.Tag == token.MINUSMINUS) {
		if !isValidAssignmentTarget(expr) {
			return nil, p.errf("Invalid left-hand side expression in postfix operation")
		}
		if id, ok := expr.(*ast.Identifier); ok && p.ctx.strict && token.IsRestrictedIdentifier(id.Name) {
			return nil, p.errf("Postfix increment/decrement may not have eval or arguments operand in strict mode")
		}
		op := ast.UpdateIncrement
		if p.cur.Tag == token.MINUSMINUS {
			op = ast.UpdateDecrement
		}
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.UpdateExpression{Position: pos, Operator: op, Argument: expr, Prefix: false}, nil
	}
	return expr, nil
}

// parseLeftHandSideExpressionAllowCall parses MemberExpression,
// CallExpression, and `new` productions, left to right.
func (p *Parser) parseLeftHandSideExpressionAllowCall() (ast.Expression, error) {
	var expr ast.Expression
	var err error
	if p.isKeyword(token.KW_NEW) {
		expr, err = p.parseNewExpression()
	} else {
		expr, err = p.parsePrimaryExpression()
	}
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct(token.DOT):
			pos := p.pos()
			if err := p.next(); err != nil {
				return nil, err
			}
			name, err := p.identifierName()
			if err != nil {
				return nil, err
			}
			expr = &ast.MemberExpression{Position: pos, Object: expr, Property: &ast.Identifier{Position: pos, Name: name}, Computed: false}
		case p.isPunct(token.LBRACKET):
			pos := p.pos()
			if err := p.next(); err != nil {
				return nil, err
			}
			prop, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(token.RBRACKET, "]"); err != nil {
				return nil, err
			}
			expr = &ast.MemberExpression{Position: pos, Object: expr, Property: prop, Computed: true}
		case p.isPunct(token.LPAREN):
			pos := p.pos()
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpression{Position: pos, Callee: expr, Arguments: args}
		default:
			return expr, nil
		}
	}
}

// parseNewExpression parses `new MemberExpression Arguments` and the
// recursive `new NewExpression` form (e.g. `new new Foo()`), where the
// outer `new` takes no arguments of its own if none follow.
func (p *Parser) parseNewExpression() (ast.Expression, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	var callee ast.Expression
	var err error
	if p.isKeyword(token.KW_NEW) {
		callee, err = p.parseNewExpression()
	} else {
		callee, err = p.parsePrimaryExpression()
	}
	if err != nil {
		return nil, err
	}
	for {
		if p.isPunct(token.DOT) {
			if err := p.next(); err != nil {
				return nil, err
			}
			name, err := p.identifierName()
			if err != nil {
				return nil, err
			}
			callee = &ast.MemberExpression{Position: pos, Object: callee, Property: &ast.Identifier{Position: pos, Name: name}}
			continue
		}
		if p.isPunct(token.LBRACKET) {
			if err := p.next(); err != nil {
				return nil, err
			}
			prop, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(token.RBRACKET, "]"); err != nil {
				return nil, err
			}
			callee = &ast.MemberExpression{Position: pos, Object: callee, Property: prop, Computed: true}
			continue
		}
		break
	}
	var args []ast.Expression
	if p.isPunct(token.LPAREN) {
		var err error
		args, err = p.parseArguments()
		if err != nil {
			return nil, err
		}
	}
	return &ast.NewExpression{Position: pos, Callee: callee, Arguments: args}, nil
}

func (p *Parser) parseArguments() ([]ast.Expression, error) {
	if err := p.expectPunct(token.LPAREN, "("); err != nil {
		return nil, err
	}
	var args []ast.Expression
	for !p.isPunct(token.RPAREN) {
		arg, err := p.parseAssignmentExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.isPunct(token.COMMA) {
			break
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct(token.RPAREN, ")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimaryExpression() (ast.Expression, error) {
	pos := p.pos()
	switch {
	case p.cur.Kind == token.IDENTIFIER:
		name := p.cur.Value
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.Identifier{Position: pos, Name: name, ScopeUpCount: -1, ScopeIndex: -1}, nil
	case p.cur.Kind == token.NUMERIC:
		raw := p.cur.Value
		octal := p.cur.OctalLiteral
		if octal && p.ctx.strict {
			return nil, p.errf("Octal literals are not allowed in strict mode")
		}
		v, err := parseNumericLiteral(raw)
		if err != nil {
			return nil, p.errf("Invalid number literal %q", raw)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.NumberLiteral{Position: pos, Value: v}, nil
	case p.cur.Kind == token.STRING:
		val := p.cur.Value
		octal := p.cur.OctalLiteral
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.StringLiteral{Position: pos, Value: val, Octal: octal}, nil
	case p.cur.Kind == token.BOOLEAN_LITERAL:
		v := p.cur.Value == "true"
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.BooleanLiteral{Position: pos, Value: v}, nil
	case p.cur.Kind == token.NULL_LITERAL:
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.NullLiteral{Position: pos}, nil
	case p.isKeyword(token.KW_THIS):
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.ThisExpression{Position: pos}, nil
	case p.isKeyword(token.KW_FUNCTION):
		return p.parseFunctionExpression()
	case p.isPunct(token.LPAREN):
		if err := p.next(); err != nil {
			return nil, err
		}
		savedAllowIn := p.ctx.allowIn
		p.ctx.allowIn = true
		expr, err := p.parseExpression()
		p.ctx.allowIn = savedAllowIn
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(token.RPAREN, ")"); err != nil {
			return nil, err
		}
		return expr, nil
	case p.isPunct(token.LBRACKET):
		return p.parseArrayLiteral()
	case p.isPunct(token.LBRACE):
		return p.parseObjectLiteral()
	case p.cur.Kind == token.REGEX:
		return p.parseRegexLiteral()
	case p.cur.Kind == token.FUTURE_RESERVED:
		return nil, p.rejectES2015Construct(p.cur.Value)
	default:
		return nil, p.errf("Unexpected token %q", p.cur.Value)
	}
}

func (p *Parser) parseRegexLiteral() (ast.Expression, error) {
	pos := p.pos()
	pattern, flags := p.cur.Value, p.cur.Raw
	if err := p.next(); err != nil {
		return nil, err
	}
	return &ast.RegexLiteral{Position: pos, Pattern: pattern, Flags: flags}, nil
}

func (p *Parser) parseArrayLiteral() (ast.Expression, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	arr := &ast.ArrayExpression{Position: pos}
	for !p.isPunct(token.RBRACKET) {
		if p.isPunct(token.COMMA) {
			arr.Elements = append(arr.Elements, nil)
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		el, err := p.parseAssignmentExpression()
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, el)
		if p.isPunct(token.COMMA) {
			if err := p.next(); err != nil {
				return nil, err
			}
		} else {
			break
		}
	}
	if err := p.expectPunct(token.RBRACKET, "]"); err != nil {
		return nil, err
	}
	return arr, nil
}

func (p *Parser) parseObjectLiteral() (ast.Expression, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	obj := &ast.ObjectExpression{Position: pos}
	seenNames := map[string]ast.PropertyKind{}
	for !p.isPunct(token.RBRACE) {
		prop, err := p.parseObjectProperty()
		if err != nil {
			return nil, err
		}
		if keyLit, ok := prop.Key.(*ast.StringLiteral); ok {
			name := keyLit.Value
			prior, seen := seenNames[name]
			if seen {
				if p.ctx.strict && prop.Kind == ast.PropertyInit && prior == ast.PropertyInit {
					return nil, &Error{Message: "Duplicate data property in object literal not allowed in strict mode", Line: pos.Line}
				}
				if (prop.Kind == ast.PropertyInit) != (prior == ast.PropertyInit) {
					return nil, &Error{Message: "Object literal may not have data and accessor property with the same name", Line: pos.Line}
				}
			}
			seenNames[name] = prop.Kind
		}
		obj.Properties = append(obj.Properties, *prop)
		if p.isPunct(token.COMMA) {
			if err := p.next(); err != nil {
				return nil, err
			}
		} else {
			break
		}
	}
	if err := p.expectPunct(token.RBRACE, "}"); err != nil {
		return nil, err
	}
	return obj, nil
}

func (p *Parser) parseObjectProperty() (*ast.Property, error) {
	if (p.isKeyword(token.KW_GET) || (p.cur.Kind == token.IDENTIFIER && p.cur.Value == "get")) &&
		!p.peekStartsPropertyValue() {
		return p.parseAccessorProperty(ast.PropertyGet)
	}
	if (p.isKeyword(token.KW_SET) || (p.cur.Kind == token.IDENTIFIER && p.cur.Value == "set")) &&
		!p.peekStartsPropertyValue() {
		return p.parseAccessorProperty(ast.PropertySet)
	}
	key, err := p.parsePropertyKey()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(token.COLON, ":"); err != nil {
		return nil, err
	}
	value, err := p.parseAssignmentExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Property{Key: key, Value: value, Kind: ast.PropertyInit}, nil
}

// peekStartsPropertyValue reports whether the token after "get"/"set"
// is ":" or "," or "}", meaning "get"/"set" is itself the property name
// rather than introducing an accessor.
func (p *Parser) peekStartsPropertyValue() bool {
	return p.peek.Kind == token.PUNCTUATOR && (p.peek.Tag == token.COLON || p.peek.Tag == token.COMMA || p.peek.Tag == token.RBRACE)
}

func (p *Parser) parseAccessorProperty(kind ast.PropertyKind) (*ast.Property, error) {
	if err := p.next(); err != nil { // consume get/set
		return nil, err
	}
	key, err := p.parsePropertyKey()
	if err != nil {
		return nil, err
	}
	fnName := ""
	if idLit, ok := key.(*ast.StringLiteral); ok {
		fnName = idLit.Value
	}
	params, body, isStrict, needsArgs, needsAct, err := p.parseFunctionRest(fnName)
	if err != nil {
		return nil, err
	}
	if kind == ast.PropertyGet && len(params) != 0 {
		return nil, p.errf("Getter must not have any formal parameters")
	}
	if kind == ast.PropertySet && len(params) != 1 {
		return nil, p.errf("Setter must have exactly one formal parameter")
	}
	fn := &ast.FunctionExpression{Name: fnName, Params: params, Body: body, IsStrict: isStrict, NeedsArguments: needsArgs, NeedsActivation: needsAct}
	return &ast.Property{Key: key, Value: fn, Kind: kind}, nil
}

// parsePropertyKey accepts an identifier/keyword name, a string
// literal, or a numeric literal -- all normalized to a *StringLiteral
// so the compiler has one shape to branch on.
func (p *Parser) parsePropertyKey() (ast.Expression, error) {
	pos := p.pos()
	switch p.cur.Kind {
	case token.STRING:
		v := p.cur.Value
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.StringLiteral{Position: pos, Value: v}, nil
	case token.NUMERIC:
		v, err := parseNumericLiteral(p.cur.Value)
		if err != nil {
			return nil, p.errf("Invalid number literal")
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.StringLiteral{Position: pos, Value: formatNumericKey(v)}, nil
	default:
		name, err := p.identifierName()
		if err != nil {
			return nil, err
		}
		return &ast.StringLiteral{Position: pos, Value: name}, nil
	}
}

func formatNumericKey(v float64) string {
	return ast.NumberToString(v)
}

func (p *Parser) parseFunctionExpression() (ast.Expression, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	name := ""
	if p.cur.Kind == token.IDENTIFIER {
		var err error
		name, err = p.bindingIdentifier()
		if err != nil {
			return nil, err
		}
	}
	params, body, isStrict, needsArgs, needsAct, err := p.parseFunctionRest(name)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionExpression{Position: pos, Name: name, Params: params, Body: body, IsStrict: isStrict, NeedsArguments: needsArgs, NeedsActivation: needsAct}, nil
}

// parseFunctionRest parses "(params) { body }" shared by function
// declarations, function expressions, and getter/setter bodies.
func (p *Parser) parseFunctionRest(name string) (params []string, body *ast.BlockStatement, isStrict, needsArguments, needsActivation bool, err error) {
	if err = p.expectPunct(token.LPAREN, "("); err != nil {
		return
	}
	seen := map[string]bool{}
	hasDuplicateParams := false
	var firstRestrictedParam *token.Token
	var firstDuplicateParam *token.Token
	for !p.isPunct(token.RPAREN) {
		paramTok := p.cur
		var pname string
		pname, err = p.bindingIdentifier()
		if err != nil {
			return
		}
		if seen[pname] {
			hasDuplicateParams = true
			needsArguments = true
			if firstDuplicateParam == nil {
				tok := paramTok
				firstDuplicateParam = &tok
			}
		}
		if token.IsRestrictedIdentifier(pname) && firstRestrictedParam == nil {
			tok := paramTok
			firstRestrictedParam = &tok
		}
		seen[pname] = true
		params = append(params, pname)
		if p.isPunct(token.COMMA) {
			if err = p.next(); err != nil {
				return
			}
		} else {
			break
		}
	}
	if err = p.expectPunct(token.RPAREN, ")"); err != nil {
		return
	}

	savedStrict := p.ctx.strict
	savedLabels := p.ctx.labels
	p.ctx.labels = nil

	bodyPos := p.pos()
	if err = p.expectPunct(token.LBRACE, "{"); err != nil {
		return
	}
	var stmts []ast.Statement
	stmts, isStrict, err = p.parseDirectivePrologueAndBody(token.RBRACE)
	if err != nil {
		return
	}
	if err = p.expectPunct(token.RBRACE, "}"); err != nil {
		return
	}
	p.ctx.labels = savedLabels

	// Params are parsed before the body, so a restriction the function's
	// own directive prologue promotes to strict can only be enforced
	// here, once isStrict is known — the same after-the-fact validation
	// parseDirectivePrologueAndBody does for an octal literal preceding
	// its own promoting directive, applied to restricted parameter and
	// function names instead of string literals.
	if savedStrict || isStrict {
		if hasDuplicateParams {
			line := bodyPos.Line
			if firstDuplicateParam != nil {
				line = firstDuplicateParam.Line
			}
			err = &Error{Message: "Strict mode function may not have duplicate parameter names", Line: line}
			return
		}
		if name != "" && token.IsRestrictedIdentifier(name) {
			err = &Error{Message: "Function name may not be eval or arguments in strict mode", Line: bodyPos.Line}
			return
		}
		if firstRestrictedParam != nil {
			err = &Error{Message: "Parameter name eval or arguments is not allowed in strict mode", Line: firstRestrictedParam.Line}
			return
		}
	}
	p.ctx.strict = savedStrict
	body = &ast.BlockStatement{Position: bodyPos, Body: stmts}
	needsActivation = bodyReferencesEval(stmts) || usesWithOrCatch(stmts)
	if !seen["arguments"] {
		ast.Walk(stmts, func(n ast.Node) bool {
			switch x := n.(type) {
			case *ast.Identifier:
				if x.Name == "arguments" {
					needsArguments = true
				}
			case *ast.FunctionExpression, *ast.FunctionDeclaration:
				return false
			}
			return true
		})
	}
	return
}

// bodyReferencesEval is a conservative scan: any textual "eval"
// identifier forces an activation-backed environment record, matching
// needsActivation in §3/§4.3. A textual "arguments" identifier sets
// needsArguments instead (parseFunctionRest's own scan).
func bodyReferencesEval(stmts []ast.Statement) bool {
	found := false
	ast.Walk(stmts, func(n ast.Node) bool {
		if id, ok := n.(*ast.Identifier); ok && id.Name == "eval" {
			found = true
			return false
		}
		if _, ok := n.(*ast.FunctionExpression); ok {
			return false // don't descend into nested functions
		}
		if _, ok := n.(*ast.FunctionDeclaration); ok {
			return false
		}
		return true
	})
	return found
}

func usesWithOrCatch(stmts []ast.Statement) bool {
	found := false
	ast.Walk(stmts, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.WithStatement, *ast.CatchClause:
			found = true
			return false
		case *ast.FunctionExpression, *ast.FunctionDeclaration:
			return false
		}
		return true
	})
	return found
}
