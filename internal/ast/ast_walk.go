package ast

// Walk visits every statement in stmts and, transitively, every
// Statement/Expression/CatchClause node reachable from them, calling
// visit on each. If visit returns false for a node, Walk does not
// descend into that node's children (but siblings are still visited).
// It is used both by the parser's conservative needsActivation/
// needsArguments analysis and by tooling that wants a read-only tree
// traversal without depending on the compiler.
func Walk(stmts []Statement, visit func(Node) bool) {
	for _, s := range stmts {
		walkStatement(s, visit)
	}
}

func walkStatement(s Statement, visit func(Node) bool) {
	if s == nil {
		return
	}
	if !visit(s) {
		return
	}
	switch n := s.(type) {
	case *BlockStatement:
		Walk(n.Body, visit)
	case *ExpressionStatement:
		walkExpression(n.Expression, visit)
	case *VariableDeclaration:
		for _, d := range n.Declarations {
			if d.Init != nil {
				walkExpression(d.Init, visit)
			}
		}
	case *IfStatement:
		walkExpression(n.Test, visit)
		walkStatement(n.Consequent, visit)
		if n.Alternate != nil {
			walkStatement(n.Alternate, visit)
		}
	case *ForStatement:
		switch init := n.Init.(type) {
		case *VariableDeclaration:
			for _, d := range init.Declarations {
				if d.Init != nil {
					walkExpression(d.Init, visit)
				}
			}
		case Expression:
			walkExpression(init, visit)
		}
		if n.Test != nil {
			walkExpression(n.Test, visit)
		}
		if n.Update != nil {
			walkExpression(n.Update, visit)
		}
		walkStatement(n.Body, visit)
	case *ForInStatement:
		walkExpression(n.Right, visit)
		walkStatement(n.Body, visit)
	case *WhileStatement:
		walkExpression(n.Test, visit)
		walkStatement(n.Body, visit)
	case *DoWhileStatement:
		walkStatement(n.Body, visit)
		walkExpression(n.Test, visit)
	case *ReturnStatement:
		if n.Argument != nil {
			walkExpression(n.Argument, visit)
		}
	case *ThrowStatement:
		walkExpression(n.Argument, visit)
	case *TryStatement:
		Walk(n.Block.Body, visit)
		if n.Handler != nil && visit(n.Handler) {
			Walk(n.Handler.Body.Body, visit)
		}
		if n.Finally != nil {
			Walk(n.Finally.Body, visit)
		}
	case *SwitchStatement:
		walkExpression(n.Discriminant, visit)
		for _, c := range n.Cases {
			if c.Test != nil {
				walkExpression(c.Test, visit)
			}
			Walk(c.Consequent, visit)
		}
	case *LabeledStatement:
		walkStatement(n.Body, visit)
	case *WithStatement:
		walkExpression(n.Object, visit)
		walkStatement(n.Body, visit)
	case *FunctionDeclaration:
		Walk(n.Body.Body, visit)
	}
}

func walkExpression(e Expression, visit func(Node) bool) {
	if e == nil {
		return
	}
	if !visit(e) {
		return
	}
	switch n := e.(type) {
	case *BinaryExpression:
		walkExpression(n.Left, visit)
		walkExpression(n.Right, visit)
	case *LogicalExpression:
		walkExpression(n.Left, visit)
		walkExpression(n.Right, visit)
	case *AssignmentExpression:
		walkExpression(n.Target, visit)
		walkExpression(n.Value, visit)
	case *UnaryExpression:
		walkExpression(n.Argument, visit)
	case *UpdateExpression:
		walkExpression(n.Argument, visit)
	case *ConditionalExpression:
		walkExpression(n.Test, visit)
		walkExpression(n.Consequent, visit)
		walkExpression(n.Alternate, visit)
	case *SequenceExpression:
		for _, x := range n.Expressions {
			walkExpression(x, visit)
		}
	case *MemberExpression:
		walkExpression(n.Object, visit)
		if n.Computed {
			walkExpression(n.Property, visit)
		}
	case *CallExpression:
		walkExpression(n.Callee, visit)
		for _, a := range n.Arguments {
			walkExpression(a, visit)
		}
	case *NewExpression:
		walkExpression(n.Callee, visit)
		for _, a := range n.Arguments {
			walkExpression(a, visit)
		}
	case *ObjectExpression:
		for _, p := range n.Properties {
			walkExpression(p.Value, visit)
		}
	case *ArrayExpression:
		for _, el := range n.Elements {
			if el != nil {
				walkExpression(el, visit)
			}
		}
	case *FunctionExpression:
		Walk(n.Body.Body, visit)
	}
}
