package compiler

import "escargot/internal/ast"

// hoistedFunction pairs a function declaration with the name it binds;
// its body is compiled together with the enclosing code block and only
// instantiated at run time (OpCreateFunction), but the *name* must be
// declared in the owning scope before any other statement runs.
type hoistedFunction struct {
	name string
	decl *ast.FunctionDeclaration
}

// collectHoisted implements ES5 variable/function hoisting: it walks
// stmts for every `var` name and top-level `function` declaration
// reachable without crossing into a nested function body (var is
// function-scoped, so it crosses block/if/loop/try/switch/with/label
// boundaries but stops at FunctionDeclaration/FunctionExpression,
// since those introduce their own scope with its own hoisting pass).
// Implemented as AST mutation would require ast.VariableDeclarator to
// be a Statement so a declaration could be "moved" to the top; it
// explicitly is not (see ast_statements.go), so hoisting is instead a
// compiler-side pre-pass that just pre-registers names — there is
// nothing to rewrite in the tree itself.
func collectHoisted(stmts []ast.Statement) (vars []string, funcs []hoistedFunction) {
	seenVar := map[string]bool{}
	seenFunc := map[string]int{} // name -> index in funcs, last declaration wins
	var walkStmts func([]ast.Statement)
	var walkStmt func(ast.Statement)

	addVar := func(name string) {
		if !seenVar[name] {
			seenVar[name] = true
			vars = append(vars, name)
		}
	}

	walkStmts = func(list []ast.Statement) {
		for _, s := range list {
			walkStmt(s)
		}
	}

	walkStmt = func(s ast.Statement) {
		switch n := s.(type) {
		case *ast.BlockStatement:
			walkStmts(n.Body)
		case *ast.VariableDeclaration:
			for _, d := range n.Declarations {
				addVar(d.Name)
			}
		case *ast.IfStatement:
			walkStmt(n.Consequent)
			if n.Alternate != nil {
				walkStmt(n.Alternate)
			}
		case *ast.ForStatement:
			if vd, ok := n.Init.(*ast.VariableDeclaration); ok {
				for _, d := range vd.Declarations {
					addVar(d.Name)
				}
			}
			walkStmt(n.Body)
		case *ast.ForInStatement:
			if vd, ok := n.Left.(*ast.VariableDeclaration); ok {
				for _, d := range vd.Declarations {
					addVar(d.Name)
				}
			}
			walkStmt(n.Body)
		case *ast.WhileStatement:
			walkStmt(n.Body)
		case *ast.DoWhileStatement:
			walkStmt(n.Body)
		case *ast.TryStatement:
			walkStmts(n.Block.Body)
			if n.Handler != nil {
				walkStmts(n.Handler.Body.Body)
			}
			if n.Finally != nil {
				walkStmts(n.Finally.Body)
			}
		case *ast.SwitchStatement:
			for _, c := range n.Cases {
				walkStmts(c.Consequent)
			}
		case *ast.LabeledStatement:
			walkStmt(n.Body)
		case *ast.WithStatement:
			walkStmt(n.Body)
		case *ast.FunctionDeclaration:
			if _, ok := seenFunc[n.Name]; !ok {
				seenFunc[n.Name] = len(funcs)
				funcs = append(funcs, hoistedFunction{name: n.Name, decl: n})
			} else {
				funcs[seenFunc[n.Name]] = hoistedFunction{name: n.Name, decl: n}
			}
			addVar(n.Name)
		}
	}

	walkStmts(stmts)
	return vars, funcs
}
