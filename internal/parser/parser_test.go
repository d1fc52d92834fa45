package parser

import (
	"testing"

	"escargot/internal/ast"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse(src, false)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func TestParseVariableDeclaration(t *testing.T) {
	prog := parseProgram(t, `var x = 1 + 2;`)
	if len(prog.Body) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Body))
	}
	decl, ok := prog.Body[0].(*ast.VariableDeclaration)
	if !ok {
		t.Fatalf("got %T, want *ast.VariableDeclaration", prog.Body[0])
	}
	if len(decl.Declarations) != 1 || decl.Declarations[0].Name != "x" {
		t.Fatalf("unexpected declarators: %+v", decl.Declarations)
	}
	bin, ok := decl.Declarations[0].Init.(*ast.BinaryExpression)
	if !ok {
		t.Fatalf("got %T, want *ast.BinaryExpression", decl.Declarations[0].Init)
	}
	if bin.Operator != ast.BinAdd {
		t.Errorf("got operator %v, want BinAdd", bin.Operator)
	}
}

func TestParseIfStatement(t *testing.T) {
	prog := parseProgram(t, `if (a) { b; } else { c; }`)
	ifStmt, ok := prog.Body[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("got %T, want *ast.IfStatement", prog.Body[0])
	}
	if ifStmt.Alternate == nil {
		t.Fatal("expected an else branch")
	}
	if _, ok := ifStmt.Consequent.(*ast.BlockStatement); !ok {
		t.Errorf("got %T, want *ast.BlockStatement consequent", ifStmt.Consequent)
	}
}

func TestParseFunctionDeclaration(t *testing.T) {
	prog := parseProgram(t, `function add(a, b) { return a + b; }`)
	fn, ok := prog.Body[0].(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("got %T, want *ast.FunctionDeclaration", prog.Body[0])
	}
	if fn.Name != "add" {
		t.Errorf("got name %q, want %q", fn.Name, "add")
	}
	if len(fn.Params) != 2 || fn.Params[0] != "a" || fn.Params[1] != "b" {
		t.Errorf("unexpected params: %+v", fn.Params)
	}
}

func TestParseMemberAndCallExpression(t *testing.T) {
	prog := parseProgram(t, `a.b[c](1, 2);`)
	exprStmt, ok := prog.Body[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("got %T, want *ast.ExpressionStatement", prog.Body[0])
	}
	call, ok := exprStmt.Expression.(*ast.CallExpression)
	if !ok {
		t.Fatalf("got %T, want *ast.CallExpression", exprStmt.Expression)
	}
	if len(call.Arguments) != 2 {
		t.Fatalf("got %d arguments, want 2", len(call.Arguments))
	}
	member, ok := call.Callee.(*ast.MemberExpression)
	if !ok {
		t.Fatalf("got %T, want *ast.MemberExpression callee", call.Callee)
	}
	if !member.Computed {
		t.Errorf("expected the outer member access a.b[c] to be computed")
	}
}

func TestParseObjectLiteralWithAccessors(t *testing.T) {
	prog := parseProgram(t, `var o = { x: 1, get y() { return 2; } };`)
	decl := prog.Body[0].(*ast.VariableDeclaration)
	obj, ok := decl.Declarations[0].Init.(*ast.ObjectExpression)
	if !ok {
		t.Fatalf("got %T, want *ast.ObjectExpression", decl.Declarations[0].Init)
	}
	if len(obj.Properties) != 2 {
		t.Fatalf("got %d properties, want 2", len(obj.Properties))
	}
	if obj.Properties[1].Kind != ast.PropertyGet {
		t.Errorf("got kind %v, want PropertyGet", obj.Properties[1].Kind)
	}
}

func TestParseTryCatchFinally(t *testing.T) {
	prog := parseProgram(t, `try { a; } catch (e) { b; } finally { c; }`)
	tryStmt, ok := prog.Body[0].(*ast.TryStatement)
	if !ok {
		t.Fatalf("got %T, want *ast.TryStatement", prog.Body[0])
	}
	if tryStmt.Handler == nil {
		t.Fatal("expected a catch handler")
	}
	if tryStmt.Finally == nil {
		t.Fatal("expected a finally block")
	}
}

func TestParseSyntaxErrorReturnsErr(t *testing.T) {
	_, err := Parse(`var = ;`, false)
	if err == nil {
		t.Fatal("expected a parse error for malformed source")
	}
}

func TestParseStrictModeDirectiveDetection(t *testing.T) {
	prog, err := Parse(`"use strict"; function f(eval) {}`, false)
	if err == nil {
		t.Fatalf("expected strict-mode parse to reject 'eval' as a parameter name, got program: %+v", prog)
	}
}

func TestParseOctalDirectivePrologueRetroactivelyRejected(t *testing.T) {
	// The octal literal precedes the directive that promotes strict
	// mode; it must still be rejected once that later directive is
	// seen, not silently accepted because strict wasn't active yet at
	// the point the octal was scanned.
	_, err := Parse(`"\07"; "use strict"; x;`, false)
	if err == nil {
		t.Fatal("expected an octal-literal error once a later directive promotes strict mode")
	}
}

func TestParseOctalDirectiveWithoutLaterStrictPromotionAllowed(t *testing.T) {
	_, err := Parse(`"\07"; x;`, false)
	if err != nil {
		t.Fatalf("unexpected error for an octal directive with no strict promotion: %v", err)
	}
}

func TestParseFunctionBody(t *testing.T) {
	fn, err := ParseFunctionBody("a, b", "return a + b;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(fn.Params))
	}
}
