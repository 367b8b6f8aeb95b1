package ast

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Source position
// ---------------------------------------------------------------------------

// Position represents a line/column pair in source code (1-based).
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

// Node is implemented by every AST node.
type Node interface {
	GetPos() Position
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// ---------------------------------------------------------------------------
// Program (root)
// ---------------------------------------------------------------------------

// Program is an ordered list of top-level statements.
type Program struct {
	Stmts []Stmt
	Pos   Position
}

func (n *Program) GetPos() Position { return n.Pos }

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// ExitStmt: exit(<value>);  Terminates the process with the value as status.
type ExitStmt struct {
	Value Expr
	Pos   Position
}

func (n *ExitStmt) GetPos() Position { return n.Pos }
func (n *ExitStmt) stmtNode()        {}

// LetStmt: let <name> = <value>;  Declares a variable in the current scope.
type LetStmt struct {
	Name  string
	Value Expr
	Pos   Position
}

func (n *LetStmt) GetPos() Position { return n.Pos }
func (n *LetStmt) stmtNode()        {}

// AssignStmt: <name> = <value>;  Rebinds an already-declared variable.
type AssignStmt struct {
	Name  string
	Value Expr
	Pos   Position
}

func (n *AssignStmt) GetPos() Position { return n.Pos }
func (n *AssignStmt) stmtNode()        {}

// IndexAssignStmt: <array>[<index>] = <value>;
type IndexAssignStmt struct {
	Array Expr // the array base expression (an *Ident in source form)
	Index Expr
	Value Expr
	Pos   Position
}

func (n *IndexAssignStmt) GetPos() Position { return n.Pos }
func (n *IndexAssignStmt) stmtNode()        {}

// BlockStmt is a brace-delimited list of statements. It introduces a new
// lexical scope.
type BlockStmt struct {
	Stmts []Stmt
	Pos   Position
}

func (n *BlockStmt) GetPos() Position { return n.Pos }
func (n *BlockStmt) stmtNode()        {}

// IfStmt: if (<cond>) <then> [else <else>]. The else branch always has
// block shape — an else-if chain is wrapped in a one-statement block by the
// parser.
type IfStmt struct {
	Condition Expr
	Then      *BlockStmt
	Else      *BlockStmt // nil when there is no else branch
	Pos       Position
}

func (n *IfStmt) GetPos() Position { return n.Pos }
func (n *IfStmt) stmtNode()        {}

// WhileStmt: while (<cond>) <body>
type WhileStmt struct {
	Condition Expr
	Body      *BlockStmt
	Pos       Position
}

func (n *WhileStmt) GetPos() Position { return n.Pos }
func (n *WhileStmt) stmtNode()        {}

// PrintStmt: print(<value>);  Writes the decimal value and a newline to
// standard output.
type PrintStmt struct {
	Value Expr
	Pos   Position
}

func (n *PrintStmt) GetPos() Position { return n.Pos }
func (n *PrintStmt) stmtNode()        {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// IntLit is an integer literal (value kept as the original lexeme).
type IntLit struct {
	Value string
	Pos   Position
}

func (n *IntLit) GetPos() Position { return n.Pos }
func (n *IntLit) exprNode()        {}

// Ident is a plain variable reference.
type Ident struct {
	Name string
	Pos  Position
}

func (n *Ident) GetPos() Position { return n.Pos }
func (n *Ident) exprNode()        {}

// BinaryExpr: <left> <op> <right>. Op is the operator's source spelling
// ("+", "==", "&&", …).
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Position
}

func (n *BinaryExpr) GetPos() Position { return n.Pos }
func (n *BinaryExpr) exprNode()        {}

// ArrayLit: [expr, expr, ...] or [] (empty array literal).
type ArrayLit struct {
	Elems []Expr
	Pos   Position
}

func (n *ArrayLit) GetPos() Position { return n.Pos }
func (n *ArrayLit) exprNode()        {}

// IndexExpr: <array>[<index>]
type IndexExpr struct {
	Array Expr
	Index Expr
	Pos   Position
}

func (n *IndexExpr) GetPos() Position { return n.Pos }
func (n *IndexExpr) exprNode()        {}

// LenExpr: len(<array>) — reads the element count stored in the array's
// first slot.
type LenExpr struct {
	Array Expr
	Pos   Position
}

func (n *LenExpr) GetPos() Position { return n.Pos }
func (n *LenExpr) exprNode()        {}

// ---------------------------------------------------------------------------
// One-line debug printers
// ---------------------------------------------------------------------------

// ExprString returns a concise one-line representation of an expression.
func ExprString(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch e := e.(type) {
	case *IntLit:
		return e.Value
	case *Ident:
		return e.Name
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", ExprString(e.Left), e.Op, ExprString(e.Right))
	case *ArrayLit:
		elems := make([]string, len(e.Elems))
		for i, el := range e.Elems {
			elems[i] = ExprString(el)
		}
		return fmt.Sprintf("[%s]", strings.Join(elems, ", "))
	case *IndexExpr:
		return fmt.Sprintf("%s[%s]", ExprString(e.Array), ExprString(e.Index))
	case *LenExpr:
		return fmt.Sprintf("len(%s)", ExprString(e.Array))
	default:
		return "<unknown expr>"
	}
}

// StmtString returns a concise one-line representation of a statement.
func StmtString(s Stmt) string {
	if s == nil {
		return "<nil>"
	}
	switch s := s.(type) {
	case *ExitStmt:
		return fmt.Sprintf("exit(%s);", ExprString(s.Value))
	case *LetStmt:
		return fmt.Sprintf("let %s = %s;", s.Name, ExprString(s.Value))
	case *AssignStmt:
		return fmt.Sprintf("%s = %s;", s.Name, ExprString(s.Value))
	case *IndexAssignStmt:
		return fmt.Sprintf("%s[%s] = %s;", ExprString(s.Array), ExprString(s.Index), ExprString(s.Value))
	case *BlockStmt:
		inner := make([]string, len(s.Stmts))
		for i, st := range s.Stmts {
			inner[i] = StmtString(st)
		}
		return fmt.Sprintf("{ %s }", strings.Join(inner, " "))
	case *IfStmt:
		out := fmt.Sprintf("if (%s) %s", ExprString(s.Condition), StmtString(s.Then))
		if s.Else != nil {
			out += " else " + StmtString(s.Else)
		}
		return out
	case *WhileStmt:
		return fmt.Sprintf("while (%s) %s", ExprString(s.Condition), StmtString(s.Body))
	case *PrintStmt:
		return fmt.Sprintf("print(%s);", ExprString(s.Value))
	default:
		return "<unknown stmt>"
	}
}
