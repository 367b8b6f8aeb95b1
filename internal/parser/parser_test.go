package parser_test

import (
	"strings"
	"testing"

	"github.com/Boualili-Youcef/Mini-Compiler/internal/ast"
	"github.com/Boualili-Youcef/Mini-Compiler/internal/lexer"
	"github.com/Boualili-Youcef/Mini-Compiler/internal/parser"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func parseInput(t *testing.T, input string) *ast.Program {
	t.Helper()
	tokens, lexErrs := lexer.Lex(input)
	if len(lexErrs) > 0 {
		t.Fatalf("lex errors: %v", lexErrs)
	}
	prog, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("parse error: %s", err.Error())
	}
	return prog
}

// parseExpr parses a single-expression program "exit(<input>);" and returns
// the expression.
func parseExpr(t *testing.T, input string) ast.Expr {
	t.Helper()
	prog := parseInput(t, "exit("+input+");")
	if len(prog.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Stmts))
	}
	exit, ok := prog.Stmts[0].(*ast.ExitStmt)
	if !ok {
		t.Fatalf("expected exit statement, got %T", prog.Stmts[0])
	}
	return exit.Value
}

func expectParseError(t *testing.T, input string, fragment string) {
	t.Helper()
	tokens, _ := lexer.Lex(input)
	prog, err := parser.Parse(tokens)
	if err == nil {
		t.Fatalf("expected a parse error for %q, got program %v", input, prog)
	}
	if prog != nil {
		t.Errorf("a failed parse must not return a program")
	}
	if !strings.Contains(err.Error(), fragment) {
		t.Errorf("error %q does not mention %q", err.Error(), fragment)
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func TestParseExitStmt(t *testing.T) {
	prog := parseInput(t, "exit(42);")
	if len(prog.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Stmts))
	}
	exit, ok := prog.Stmts[0].(*ast.ExitStmt)
	if !ok {
		t.Fatalf("expected *ast.ExitStmt, got %T", prog.Stmts[0])
	}
	if got := ast.ExprString(exit.Value); got != "42" {
		t.Errorf("exit value: got %s", got)
	}
}

func TestParseLetStmt(t *testing.T) {
	prog := parseInput(t, "let x = 10;")
	let, ok := prog.Stmts[0].(*ast.LetStmt)
	if !ok {
		t.Fatalf("expected *ast.LetStmt, got %T", prog.Stmts[0])
	}
	if let.Name != "x" {
		t.Errorf("let name: got %q", let.Name)
	}
	if got := ast.ExprString(let.Value); got != "10" {
		t.Errorf("let value: got %s", got)
	}
}

func TestParseAssignStmt(t *testing.T) {
	prog := parseInput(t, "x = x + 1;")
	assign, ok := prog.Stmts[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("expected *ast.AssignStmt, got %T", prog.Stmts[0])
	}
	if assign.Name != "x" {
		t.Errorf("assign name: got %q", assign.Name)
	}
	if got := ast.ExprString(assign.Value); got != "(x + 1)" {
		t.Errorf("assign value: got %s", got)
	}
}

func TestParseIndexAssignStmt(t *testing.T) {
	prog := parseInput(t, "a[2] = 99;")
	ia, ok := prog.Stmts[0].(*ast.IndexAssignStmt)
	if !ok {
		t.Fatalf("expected *ast.IndexAssignStmt, got %T", prog.Stmts[0])
	}
	if got := ast.StmtString(ia); got != "a[2] = 99;" {
		t.Errorf("index assign: got %s", got)
	}
}

func TestParseBlock(t *testing.T) {
	prog := parseInput(t, "{ let x = 1; exit(x); }")
	block, ok := prog.Stmts[0].(*ast.BlockStmt)
	if !ok {
		t.Fatalf("expected *ast.BlockStmt, got %T", prog.Stmts[0])
	}
	if len(block.Stmts) != 2 {
		t.Fatalf("expected 2 statements in block, got %d", len(block.Stmts))
	}
}

func TestParseEmptyProgram(t *testing.T) {
	prog := parseInput(t, "")
	if len(prog.Stmts) != 0 {
		t.Errorf("expected no statements, got %d", len(prog.Stmts))
	}
}

func TestParseIfStmt(t *testing.T) {
	prog := parseInput(t, "if (x > 5) { print(x); }")
	ifStmt, ok := prog.Stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected *ast.IfStmt, got %T", prog.Stmts[0])
	}
	if got := ast.ExprString(ifStmt.Condition); got != "(x > 5)" {
		t.Errorf("condition: got %s", got)
	}
	if len(ifStmt.Then.Stmts) != 1 {
		t.Errorf("then branch: got %d statements", len(ifStmt.Then.Stmts))
	}
	if ifStmt.Else != nil {
		t.Error("expected no else branch")
	}
}

func TestParseIfElseStmt(t *testing.T) {
	prog := parseInput(t, "if (x > 5) { print(1); } else { print(0); }")
	ifStmt := prog.Stmts[0].(*ast.IfStmt)
	if ifStmt.Else == nil {
		t.Fatal("expected else branch")
	}
	if len(ifStmt.Else.Stmts) != 1 {
		t.Errorf("else branch: got %d statements", len(ifStmt.Else.Stmts))
	}
}

func TestParseElseIfChainWrapsInBlock(t *testing.T) {
	prog := parseInput(t, "if (x == 1) { print(1); } else if (x == 2) { print(2); } else { print(3); }")
	ifStmt := prog.Stmts[0].(*ast.IfStmt)
	if ifStmt.Else == nil {
		t.Fatal("expected else branch")
	}
	// The else-if is wrapped in a one-statement block.
	if len(ifStmt.Else.Stmts) != 1 {
		t.Fatalf("else wrapper: got %d statements, want 1", len(ifStmt.Else.Stmts))
	}
	nested, ok := ifStmt.Else.Stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected nested *ast.IfStmt in else wrapper, got %T", ifStmt.Else.Stmts[0])
	}
	if nested.Else == nil {
		t.Error("nested if lost its else branch")
	}
}

func TestParseWhileStmt(t *testing.T) {
	prog := parseInput(t, "while (i < 5) { i = i + 1; }")
	while, ok := prog.Stmts[0].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("expected *ast.WhileStmt, got %T", prog.Stmts[0])
	}
	if got := ast.ExprString(while.Condition); got != "(i < 5)" {
		t.Errorf("condition: got %s", got)
	}
	if len(while.Body.Stmts) != 1 {
		t.Errorf("body: got %d statements", len(while.Body.Stmts))
	}
}

func TestParsePrintStmt(t *testing.T) {
	prog := parseInput(t, "print(n);")
	pr, ok := prog.Stmts[0].(*ast.PrintStmt)
	if !ok {
		t.Fatalf("expected *ast.PrintStmt, got %T", prog.Stmts[0])
	}
	if got := ast.ExprString(pr.Value); got != "n" {
		t.Errorf("print value: got %s", got)
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func TestPrecedenceMulOverAdd(t *testing.T) {
	expr := parseExpr(t, "1 + 2 * 3")
	if got := ast.ExprString(expr); got != "(1 + (2 * 3))" {
		t.Errorf("got %s", got)
	}
}

func TestPrecedenceAddOverComparison(t *testing.T) {
	expr := parseExpr(t, "a + 1 < b * 2")
	if got := ast.ExprString(expr); got != "((a + 1) < (b * 2))" {
		t.Errorf("got %s", got)
	}
}

func TestPrecedenceComparisonOverLogical(t *testing.T) {
	expr := parseExpr(t, "a < b && c > d || e == f")
	if got := ast.ExprString(expr); got != "(((a < b) && (c > d)) || (e == f))" {
		t.Errorf("got %s", got)
	}
}

func TestLeftAssociativity(t *testing.T) {
	cases := map[string]string{
		"1 - 2 - 3":   "((1 - 2) - 3)",
		"8 / 4 / 2":   "((8 / 4) / 2)",
		"1 + 2 + 3":   "((1 + 2) + 3)",
		"a % b % c":   "((a % b) % c)",
		"x && y && z": "((x && y) && z)",
	}
	for input, want := range cases {
		expr := parseExpr(t, input)
		if got := ast.ExprString(expr); got != want {
			t.Errorf("%q: got %s, want %s", input, got, want)
		}
	}
}

func TestAdditiveDoesNotAbsorbMultiplicative(t *testing.T) {
	// * must not continue an additive chain: 2 + 3 * 4 + 5 groups as
	// ((2 + (3 * 4)) + 5), not ((2 + 3) * (4 + 5)).
	expr := parseExpr(t, "2 + 3 * 4 + 5")
	if got := ast.ExprString(expr); got != "((2 + (3 * 4)) + 5)" {
		t.Errorf("got %s", got)
	}
}

func TestParenthesesBindTightest(t *testing.T) {
	expr := parseExpr(t, "(1 + 2) * 3")
	if got := ast.ExprString(expr); got != "((1 + 2) * 3)" {
		t.Errorf("got %s", got)
	}
}

func TestParseArrayLiteral(t *testing.T) {
	expr := parseExpr(t, "[10, 20, 30]")
	arr, ok := expr.(*ast.ArrayLit)
	if !ok {
		t.Fatalf("expected *ast.ArrayLit, got %T", expr)
	}
	if len(arr.Elems) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(arr.Elems))
	}
	if got := ast.ExprString(arr); got != "[10, 20, 30]" {
		t.Errorf("got %s", got)
	}
}

func TestParseEmptyArrayLiteral(t *testing.T) {
	expr := parseExpr(t, "[]")
	arr, ok := expr.(*ast.ArrayLit)
	if !ok {
		t.Fatalf("expected *ast.ArrayLit, got %T", expr)
	}
	if len(arr.Elems) != 0 {
		t.Errorf("expected 0 elements, got %d", len(arr.Elems))
	}
}

func TestParseNestedArrayLiteral(t *testing.T) {
	expr := parseExpr(t, "[[1, 2], [3]]")
	if got := ast.ExprString(expr); got != "[[1, 2], [3]]" {
		t.Errorf("got %s", got)
	}
}

func TestParseIndexExpr(t *testing.T) {
	expr := parseExpr(t, "a[i + 1]")
	idx, ok := expr.(*ast.IndexExpr)
	if !ok {
		t.Fatalf("expected *ast.IndexExpr, got %T", expr)
	}
	if got := ast.ExprString(idx); got != "a[(i + 1)]" {
		t.Errorf("got %s", got)
	}
}

func TestParseLenExpr(t *testing.T) {
	expr := parseExpr(t, "len(a)")
	ln, ok := expr.(*ast.LenExpr)
	if !ok {
		t.Fatalf("expected *ast.LenExpr, got %T", expr)
	}
	if got := ast.ExprString(ln.Array); got != "a" {
		t.Errorf("len argument: got %s", got)
	}
}

func TestParseLenOfArrayLiteral(t *testing.T) {
	expr := parseExpr(t, "len([1, 2, 3])")
	if got := ast.ExprString(expr); got != "len([1, 2, 3])" {
		t.Errorf("got %s", got)
	}
}

// ---------------------------------------------------------------------------
// Errors — the first error aborts and names the offending token
// ---------------------------------------------------------------------------

func TestErrorMissingSemicolonAfterExit(t *testing.T) {
	expectParseError(t, "exit(42)", "expected ';'")
}

func TestErrorMissingParenAfterExit(t *testing.T) {
	expectParseError(t, "exit 42;", "expected '('")
}

func TestErrorMissingEqualInLet(t *testing.T) {
	expectParseError(t, "let x 10;", "expected '='")
}

func TestErrorMissingNameInLet(t *testing.T) {
	expectParseError(t, "let = 10;", "expected variable name")
}

func TestErrorUnclosedBlock(t *testing.T) {
	expectParseError(t, "{ let x = 1;", "expected '}'")
}

func TestErrorMissingCondParen(t *testing.T) {
	expectParseError(t, "if x > 5 { }", "expected '('")
}

func TestErrorMissingBracketInIndex(t *testing.T) {
	expectParseError(t, "exit(a[1);", "expected ']'")
}

func TestErrorBareExpressionStatement(t *testing.T) {
	expectParseError(t, "42;", "expected a statement")
}

func TestErrorStopsAtFirst(t *testing.T) {
	// Both statements are bad; only the first is reported.
	tokens, _ := lexer.Lex("let x 10; exit 42;")
	_, err := parser.Parse(tokens)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !strings.Contains(err.Error(), "expected '='") {
		t.Errorf("expected the first error to win, got %q", err.Error())
	}
}

func TestErrorReportsPosition(t *testing.T) {
	tokens, _ := lexer.Lex("\n\nlet x 10;")
	_, err := parser.Parse(tokens)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error does not carry the source line: %q", err.Error())
	}
}
