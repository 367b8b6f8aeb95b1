package codegen

import (
	"fmt"
	"strings"

	"github.com/Boualili-Youcef/Mini-Compiler/internal/ast"
)

// ---------------------------------------------------------------------------
// x86-64 NASM Emitter
//
// Walks the AST once and emits NASM (Intel syntax) assembly for Linux,
// entry symbol _start, no runtime. Expressions are evaluated with a simple
// stack-machine strategy: the result of every expression lands in rax;
// binary operators evaluate the right operand first, push it, evaluate the
// left operand, then pop the right operand into rbx.
//
// Frame layout (from rbp downward):
//   [rbp - 8]      … first declared variable
//   [rbp - N*8]    … Nth declared variable
// A `let` of a name not yet bound in the innermost scope grows the frame by
// one 8-byte slot (sub rsp, 8); a redeclaration reuses the slot. Block exit
// rolls the stack pointer back to its pre-block value.
//
// Arrays live on the heap via the mmap syscall: (n+1) contiguous 8-byte
// slots, slot 0 holding the element count. Arrays are never freed.
// ---------------------------------------------------------------------------

// Linux x86-64 syscall numbers and mmap constants used by emitted code.
const (
	sysWrite = 1
	sysMmap  = 9
	sysExit  = 60

	mmapProtReadWrite = 3  // PROT_READ|PROT_WRITE
	mmapPrivateAnon   = 34 // MAP_PRIVATE|MAP_ANONYMOUS
)

// EmitX86_64 generates the complete assembly text for a program. The
// optional warnings are emitted as leading comment lines so that lexer
// diagnostics travel with the output they affected.
func EmitX86_64(prog *ast.Program, warnings []string) string {
	e := &x86_64Emitter{b: &strings.Builder{}}
	e.emit(prog, warnings)
	return e.b.String()
}

type x86_64Emitter struct {
	b *strings.Builder

	// scopes maps identifiers to positive byte offsets below rbp, one map
	// per lexical scope, innermost last.
	scopes []map[string]int

	// stackOffset is the total number of bytes currently allocated on the
	// stack below rbp.
	stackOffset int

	// Independent label counters, one per purpose. Downstream tooling keys
	// on the names, so the counters are never shared across kinds.
	ifCount    int
	whileCount int
	printCount int

	// sawExit records whether a top-level exit statement was emitted; if
	// not, the epilogue appends a default exit(0).
	sawExit bool
}

// ---------------------------------------------------------------------------
// Output helpers
// ---------------------------------------------------------------------------

func (e *x86_64Emitter) ins(format string, args ...interface{}) {
	fmt.Fprintf(e.b, "    "+format+"\n", args...)
}

func (e *x86_64Emitter) label(format string, args ...interface{}) {
	fmt.Fprintf(e.b, format+":\n", args...)
}

func (e *x86_64Emitter) comment(format string, args ...interface{}) {
	fmt.Fprintf(e.b, "    ; "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Scope helpers
// ---------------------------------------------------------------------------

func (e *x86_64Emitter) pushScope() {
	e.scopes = append(e.scopes, map[string]int{})
}

func (e *x86_64Emitter) popScope() {
	e.scopes = e.scopes[:len(e.scopes)-1]
}

// declare binds a name in the innermost scope. If the name is already
// bound there, the existing slot is reused (redeclaration rebinds, it does
// not allocate); otherwise a fresh 8-byte slot is allocated. The second
// return value reports whether a new slot was created.
func (e *x86_64Emitter) declare(name string) (int, bool) {
	inner := e.scopes[len(e.scopes)-1]
	if off, ok := inner[name]; ok {
		return off, false
	}
	e.stackOffset += 8
	inner[name] = e.stackOffset
	return e.stackOffset, true
}

// resolve walks the scope stack innermost-to-outermost looking for a name.
func (e *x86_64Emitter) resolve(name string) (int, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if off, ok := e.scopes[i][name]; ok {
			return off, true
		}
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// Program
// ---------------------------------------------------------------------------

func (e *x86_64Emitter) emit(prog *ast.Program, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(e.b, "; avertissement: %s\n", w)
	}

	e.b.WriteString("global _start\n")
	e.b.WriteString("section .text\n")
	e.b.WriteString("_start:\n")
	e.ins("push rbp")
	e.ins("mov rbp, rsp")

	e.pushScope()
	for _, stmt := range prog.Stmts {
		if _, ok := stmt.(*ast.ExitStmt); ok {
			e.sawExit = true
		}
		e.emitStmt(stmt)
	}
	e.popScope()

	// Default epilogue: a program without a top-level exit still terminates
	// cleanly with status 0.
	if !e.sawExit {
		e.ins("mov rax, %d", sysExit)
		e.ins("mov rdi, 0")
		e.ins("syscall")
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (e *x86_64Emitter) emitStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExitStmt:
		e.emitExitStmt(s)
	case *ast.LetStmt:
		e.emitLetStmt(s)
	case *ast.AssignStmt:
		e.emitAssignStmt(s)
	case *ast.IndexAssignStmt:
		e.emitIndexAssignStmt(s)
	case *ast.BlockStmt:
		e.emitBlock(s)
	case *ast.IfStmt:
		e.emitIfStmt(s)
	case *ast.WhileStmt:
		e.emitWhileStmt(s)
	case *ast.PrintStmt:
		e.emitPrintStmt(s)
	default:
		e.comment("Instruction non supportée")
	}
}

func (e *x86_64Emitter) emitExitStmt(s *ast.ExitStmt) {
	e.emitExpr(s.Value)
	e.ins("mov rdi, rax")
	e.ins("mov rax, %d", sysExit)
	e.ins("syscall")
}

func (e *x86_64Emitter) emitLetStmt(s *ast.LetStmt) {
	e.emitExpr(s.Value)
	off, fresh := e.declare(s.Name)
	if fresh {
		e.ins("sub rsp, 8")
	}
	e.ins("mov [rbp - %d], rax", off)
}

func (e *x86_64Emitter) emitAssignStmt(s *ast.AssignStmt) {
	e.emitExpr(s.Value)
	off, ok := e.resolve(s.Name)
	if !ok {
		e.comment("Erreur: variable non déclarée '%s'", s.Name)
		return
	}
	e.ins("mov [rbp - %d], rax", off)
}

func (e *x86_64Emitter) emitIndexAssignStmt(s *ast.IndexAssignStmt) {
	e.emitExpr(s.Value)
	e.ins("push rax")
	e.emitExpr(s.Array)
	e.ins("push rax")
	e.emitExpr(s.Index)
	// Slot 0 holds the length, so element i lives at (i+1)*8.
	e.ins("add rax, 1")
	e.ins("imul rax, 8")
	e.ins("pop rbx")
	e.ins("add rbx, rax")
	e.ins("pop rax")
	e.ins("mov [rbx], rax")
}

func (e *x86_64Emitter) emitBlock(s *ast.BlockStmt) {
	initial := e.stackOffset
	e.pushScope()
	for _, stmt := range s.Stmts {
		e.emitStmt(stmt)
	}
	if delta := e.stackOffset - initial; delta > 0 {
		e.ins("add rsp, %d", delta)
	}
	e.stackOffset = initial
	e.popScope()
}

func (e *x86_64Emitter) emitIfStmt(s *ast.IfStmt) {
	n := e.ifCount
	e.ifCount++

	e.emitExpr(s.Condition)
	e.ins("cmp rax, 0")
	if s.Else != nil {
		e.ins("je if_else_%d", n)
	} else {
		e.ins("je if_end_%d", n)
	}
	e.emitBlock(s.Then)
	if s.Else != nil {
		e.ins("jmp if_end_%d", n)
		e.label("if_else_%d", n)
		e.emitBlock(s.Else)
	}
	e.label("if_end_%d", n)
}

func (e *x86_64Emitter) emitWhileStmt(s *ast.WhileStmt) {
	n := e.whileCount
	e.whileCount++

	e.label("while_start_%d", n)
	e.emitExpr(s.Condition)
	e.ins("cmp rax, 0")
	e.ins("je while_end_%d", n)
	e.emitBlock(s.Body)
	e.ins("jmp while_start_%d", n)
	e.label("while_end_%d", n)
}

// emitPrintStmt converts the signed 64-bit value in rax to decimal ASCII
// in a 32-byte stack scratch buffer and writes it, newline included, to
// file descriptor 1. Negative values are negated and a '-' is prepended.
func (e *x86_64Emitter) emitPrintStmt(s *ast.PrintStmt) {
	n := e.printCount
	e.printCount++

	e.emitExpr(s.Value)
	e.ins("sub rsp, 32")
	e.ins("lea rsi, [rsp + 31]")
	e.ins("mov byte [rsi], 10")
	e.ins("mov rcx, 0")
	e.ins("cmp rax, 0")
	e.ins("jge print_positive_%d", n)
	e.ins("neg rax")
	e.ins("mov rcx, 1")
	e.label("print_positive_%d", n)
	e.ins("mov rbx, 10")
	e.label("convert_loop_%d", n)
	e.ins("xor rdx, rdx")
	e.ins("div rbx")
	e.ins("add rdx, 48")
	e.ins("dec rsi")
	e.ins("mov [rsi], dl")
	e.ins("cmp rax, 0")
	e.ins("jne convert_loop_%d", n)
	// rcx is 1 for negatives: the sign byte is written just before the
	// digits and rsi slides back over it only in that case.
	e.ins("mov byte [rsi - 1], 45")
	e.ins("sub rsi, rcx")
	e.ins("lea rdx, [rsp + 32]")
	e.ins("sub rdx, rsi")
	e.ins("mov rax, %d", sysWrite)
	e.ins("mov rdi, 1")
	e.ins("syscall")
	e.ins("add rsp, 32")
}

// ---------------------------------------------------------------------------
// Expressions — every expression leaves its value in rax
// ---------------------------------------------------------------------------

func (e *x86_64Emitter) emitExpr(expr ast.Expr) {
	switch x := expr.(type) {
	case *ast.IntLit:
		e.ins("mov rax, %s", x.Value)
	case *ast.Ident:
		e.emitIdent(x)
	case *ast.BinaryExpr:
		e.emitBinaryExpr(x)
	case *ast.ArrayLit:
		e.emitArrayLit(x)
	case *ast.IndexExpr:
		e.emitIndexExpr(x)
	case *ast.LenExpr:
		e.emitExpr(x.Array)
		e.ins("mov rax, [rax]")
	default:
		e.comment("Instruction non supportée")
		e.ins("mov rax, 0")
	}
}

func (e *x86_64Emitter) emitIdent(x *ast.Ident) {
	off, ok := e.resolve(x.Name)
	if !ok {
		e.comment("Erreur: variable non déclarée '%s'", x.Name)
		e.ins("mov rax, 0")
		return
	}
	e.ins("mov rax, [rbp - %d]", off)
}

func (e *x86_64Emitter) emitBinaryExpr(x *ast.BinaryExpr) {
	e.emitExpr(x.Right)
	e.ins("push rax")
	e.emitExpr(x.Left)
	e.ins("pop rbx")

	switch x.Op {
	case "+":
		e.ins("add rax, rbx")
	case "-":
		e.ins("sub rax, rbx")
	case "*":
		e.ins("imul rax, rbx")
	case "/":
		// Unsigned division: rdx:rax / rcx. Negative operands are not
		// supported at this level.
		e.ins("mov rcx, rbx")
		e.ins("xor rdx, rdx")
		e.ins("div rcx")
	case "%":
		e.ins("mov rcx, rbx")
		e.ins("xor rdx, rdx")
		e.ins("div rcx")
		e.ins("mov rax, rdx")
	case "==":
		e.emitComparison("sete")
	case "!=":
		e.emitComparison("setne")
	case "<":
		e.emitComparison("setl")
	case ">":
		e.emitComparison("setg")
	case "<=":
		e.emitComparison("setle")
	case ">=":
		e.emitComparison("setge")
	case "&&":
		// No short-circuit: both operands are already evaluated and are
		// combined bitwise as they are, without normalising them to 0/1.
		e.ins("and rax, rbx")
	case "||":
		e.ins("or rax, rbx")
	default:
		e.comment("Instruction non supportée")
	}
}

func (e *x86_64Emitter) emitComparison(setcc string) {
	e.ins("cmp rax, rbx")
	e.ins("%s al", setcc)
	e.ins("movzx rax, al")
}

// emitArrayLit allocates (n+1)*8 bytes with mmap, stores the element count
// in slot 0 and each element in slots 1..n, and leaves the base pointer in
// rax. The base is kept on the stack across element evaluation because the
// elements may clobber every register.
func (e *x86_64Emitter) emitArrayLit(x *ast.ArrayLit) {
	n := len(x.Elems)
	e.ins("mov rax, %d", sysMmap)
	e.ins("mov rdi, 0")
	e.ins("mov rsi, %d", (n+1)*8)
	e.ins("mov rdx, %d", mmapProtReadWrite)
	e.ins("mov r10, %d", mmapPrivateAnon)
	e.ins("mov r8, -1")
	e.ins("mov r9, 0")
	e.ins("syscall")
	e.ins("push rax")
	e.ins("mov qword [rax], %d", n)
	for i, elem := range x.Elems {
		e.emitExpr(elem)
		e.ins("mov rbx, [rsp]")
		e.ins("mov [rbx + %d], rax", (i+1)*8)
	}
	e.ins("pop rax")
}

func (e *x86_64Emitter) emitIndexExpr(x *ast.IndexExpr) {
	e.emitExpr(x.Array)
	e.ins("push rax")
	e.emitExpr(x.Index)
	e.ins("add rax, 1")
	e.ins("imul rax, 8")
	e.ins("pop rbx")
	e.ins("add rbx, rax")
	e.ins("mov rax, [rbx]")
}
