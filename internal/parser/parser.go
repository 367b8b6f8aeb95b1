package parser

import (
	"fmt"

	"github.com/Boualili-Youcef/Mini-Compiler/internal/ast"
	"github.com/Boualili-Youcef/Mini-Compiler/internal/lexer"
)

// ---------------------------------------------------------------------------
// ParseError
// ---------------------------------------------------------------------------

// ParseError describes the first error encountered during parsing. The
// parser aborts on the first error; there is no recovery.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column, e.Message)
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// Parser holds the state for a single parse pass over a token stream.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// Parse is the main entry point. It takes a token slice (as produced by
// lexer.Lex) and returns the program, or the first parse error.
func Parse(tokens []lexer.Token) (*ast.Program, error) {
	p := &Parser{tokens: tokens}
	return p.parseProgram()
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

// atEnd reports whether the cursor has run off the token stream.
func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

// peek returns the current token without consuming it. Past the end of the
// stream it returns a zero token, whose empty type matches nothing.
func (p *Parser) peek() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return lexer.Token{}
}

// peekAt returns the token at a given offset from the current position.
func (p *Parser) peekAt(offset int) lexer.Token {
	idx := p.pos + offset
	if idx >= 0 && idx < len(p.tokens) {
		return p.tokens[idx]
	}
	return lexer.Token{}
}

// advance consumes and returns the current token.
func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

// check returns true if the current token has the given type.
func (p *Parser) check(typ string) bool {
	return p.peek().Type == typ
}

// expect consumes the current token if it matches typ; otherwise it returns
// an error naming what was expected and what was found.
func (p *Parser) expect(typ string, msg string) (lexer.Token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	return lexer.Token{}, p.errorAt(p.peek(), msg)
}

// errorAt builds a ParseError at the given token's location.
func (p *Parser) errorAt(tok lexer.Token, msg string) error {
	if tok.Type == "" {
		// Past the end of the stream: report at the last token, if any.
		if len(p.tokens) > 0 {
			last := p.tokens[len(p.tokens)-1]
			return ParseError{
				Message: fmt.Sprintf("%s (reached end of input)", msg),
				Line:    last.Line,
				Column:  last.Column,
			}
		}
		return ParseError{Message: fmt.Sprintf("%s (reached end of input)", msg), Line: 1, Column: 1}
	}
	return ParseError{
		Message: fmt.Sprintf("%s (got %s %q)", msg, tok.Type, tok.Value),
		Line:    tok.Line,
		Column:  tok.Column,
	}
}

// position converts a token into an ast.Position.
func (p *Parser) position(tok lexer.Token) ast.Position {
	return ast.Position{Line: tok.Line, Column: tok.Column}
}

// =========================================================================
// Top-level parsing
// =========================================================================

func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{Pos: p.position(p.peek())}

	for !p.atEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}

	return prog, nil
}

// =========================================================================
// Statement parsing — dispatch is by leading token
// =========================================================================

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.peek().Type {
	case lexer.EXIT:
		return p.parseExitStmt()
	case lexer.LET:
		return p.parseLetStmt()
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.PRINT:
		return p.parsePrintStmt()
	case lexer.IDENTIFIER:
		if p.peekAt(1).Type == lexer.LBRACKET {
			return p.parseIndexAssignStmt()
		}
		return p.parseAssignStmt()
	default:
		return nil, p.errorAt(p.peek(), "expected a statement")
	}
}

// ---- exit ----

// exitStmt := 'exit' '(' expr ')' ';'
func (p *Parser) parseExitStmt() (ast.Stmt, error) {
	tok := p.advance() // consume EXIT
	if _, err := p.expect(lexer.LPAREN, "expected '(' after 'exit'"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN, "expected ')' after exit value"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMICOLON, "expected ';' after exit statement"); err != nil {
		return nil, err
	}
	return &ast.ExitStmt{Value: value, Pos: p.position(tok)}, nil
}

// ---- let ----

// letStmt := 'let' IDENT '=' expr ';'
func (p *Parser) parseLetStmt() (ast.Stmt, error) {
	tok := p.advance() // consume LET
	name, err := p.expect(lexer.IDENTIFIER, "expected variable name after 'let'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.EQUAL, "expected '=' in let declaration"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMICOLON, "expected ';' after let statement"); err != nil {
		return nil, err
	}
	return &ast.LetStmt{Name: name.Value, Value: value, Pos: p.position(tok)}, nil
}

// ---- assignment ----

// assignStmt := IDENT '=' expr ';'
func (p *Parser) parseAssignStmt() (ast.Stmt, error) {
	name := p.advance() // consume IDENTIFIER
	if _, err := p.expect(lexer.EQUAL, "expected '=' in assignment"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMICOLON, "expected ';' after assignment"); err != nil {
		return nil, err
	}
	return &ast.AssignStmt{Name: name.Value, Value: value, Pos: p.position(name)}, nil
}

// indexAssignStmt := IDENT '[' expr ']' '=' expr ';'
func (p *Parser) parseIndexAssignStmt() (ast.Stmt, error) {
	name := p.advance() // consume IDENTIFIER
	p.advance()         // consume '[' (checked by the dispatcher)
	index, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBRACKET, "expected ']' after index expression"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.EQUAL, "expected '=' in indexed assignment"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMICOLON, "expected ';' after indexed assignment"); err != nil {
		return nil, err
	}
	return &ast.IndexAssignStmt{
		Array: &ast.Ident{Name: name.Value, Pos: p.position(name)},
		Index: index,
		Value: value,
		Pos:   p.position(name),
	}, nil
}

// ---- block ----

// block := '{' statement* '}'
func (p *Parser) parseBlock() (*ast.BlockStmt, error) {
	tok, err := p.expect(lexer.LBRACE, "expected '{'")
	if err != nil {
		return nil, err
	}
	block := &ast.BlockStmt{Pos: p.position(tok)}

	for !p.check(lexer.RBRACE) {
		if p.atEnd() {
			return nil, p.errorAt(p.peek(), "expected '}' to close block")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}

	p.advance() // consume '}'
	return block, nil
}

// ---- if ----

// ifStmt := 'if' '(' expr ')' block ( 'else' (ifStmt | block) )?
func (p *Parser) parseIfStmt() (ast.Stmt, error) {
	tok := p.advance() // consume IF
	if _, err := p.expect(lexer.LPAREN, "expected '(' after 'if'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN, "expected ')' after if condition"); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var elseBlock *ast.BlockStmt
	if p.check(lexer.ELSE) {
		elseTok := p.advance() // consume ELSE
		if p.check(lexer.IF) {
			// else-if: wrap the nested if in a one-statement block so the
			// else branch uniformly has block shape.
			nested, err := p.parseIfStmt()
			if err != nil {
				return nil, err
			}
			elseBlock = &ast.BlockStmt{Stmts: []ast.Stmt{nested}, Pos: p.position(elseTok)}
		} else {
			elseBlock, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
		}
	}

	return &ast.IfStmt{
		Condition: cond,
		Then:      then,
		Else:      elseBlock,
		Pos:       p.position(tok),
	}, nil
}

// ---- while ----

// whileStmt := 'while' '(' expr ')' block
func (p *Parser) parseWhileStmt() (ast.Stmt, error) {
	tok := p.advance() // consume WHILE
	if _, err := p.expect(lexer.LPAREN, "expected '(' after 'while'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN, "expected ')' after while condition"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Condition: cond, Body: body, Pos: p.position(tok)}, nil
}

// ---- print ----

// printStmt := 'print' '(' expr ')' ';'
func (p *Parser) parsePrintStmt() (ast.Stmt, error) {
	tok := p.advance() // consume PRINT
	if _, err := p.expect(lexer.LPAREN, "expected '(' after 'print'"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN, "expected ')' after print value"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMICOLON, "expected ';' after print statement"); err != nil {
		return nil, err
	}
	return &ast.PrintStmt{Value: value, Pos: p.position(tok)}, nil
}

// =========================================================================
// Expression parsing — a cascade of precedence levels, lowest first.
// All binary operators are left-associative.
// =========================================================================

// expr := logicalOr
func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseLogicalOr()
}

// logicalOr := logicalAnd ( '||' logicalAnd )*
func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.OR) {
		op := p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op.Value, Left: left, Right: right, Pos: p.position(op)}
	}
	return left, nil
}

// logicalAnd := comparison ( '&&' comparison )*
func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.AND) {
		op := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op.Value, Left: left, Right: right, Pos: p.position(op)}
	}
	return left, nil
}

// comparison := additive ( (== | != | < | > | <= | >=) additive )*
func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for isComparisonOp(p.peek().Type) {
		op := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op.Value, Left: left, Right: right, Pos: p.position(op)}
	}
	return left, nil
}

// additive := multiplicative ( ('+' | '-') multiplicative )*
//
// Only + and - continue this level; * / % belong one level down.
func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.PLUS) || p.check(lexer.MINUS) {
		op := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op.Value, Left: left, Right: right, Pos: p.position(op)}
	}
	return left, nil
}

// multiplicative := primary ( ('*' | '/' | '%') primary )*
func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.STAR) || p.check(lexer.SLASH) || p.check(lexer.PERCENT) {
		op := p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op.Value, Left: left, Right: right, Pos: p.position(op)}
	}
	return left, nil
}

func isComparisonOp(typ string) bool {
	switch typ {
	case lexer.EQ, lexer.NEQ, lexer.LT, lexer.GT, lexer.LE, lexer.GE:
		return true
	}
	return false
}

// primary := INT_LITERAL
//          | IDENT ( '[' expr ']' )?
//          | 'len' '(' expr ')'
//          | '(' expr ')'
//          | '[' (expr (',' expr)*)? ']'
func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Type {
	case lexer.INT_LITERAL:
		p.advance()
		return &ast.IntLit{Value: tok.Value, Pos: p.position(tok)}, nil

	case lexer.IDENTIFIER:
		p.advance()
		ident := &ast.Ident{Name: tok.Value, Pos: p.position(tok)}
		if p.check(lexer.LBRACKET) {
			bracket := p.advance() // consume '['
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACKET, "expected ']' after index expression"); err != nil {
				return nil, err
			}
			return &ast.IndexExpr{Array: ident, Index: index, Pos: p.position(bracket)}, nil
		}
		return ident, nil

	case lexer.LENGTH:
		p.advance()
		if _, err := p.expect(lexer.LPAREN, "expected '(' after 'len'"); err != nil {
			return nil, err
		}
		array, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "expected ')' after len argument"); err != nil {
			return nil, err
		}
		return &ast.LenExpr{Array: array, Pos: p.position(tok)}, nil

	case lexer.LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return expr, nil

	case lexer.LBRACKET:
		return p.parseArrayLit()

	default:
		return nil, p.errorAt(tok, "expected an expression")
	}
}

// parseArrayLit parses [expr, expr, ...] or [] (empty array).
func (p *Parser) parseArrayLit() (ast.Expr, error) {
	tok := p.advance() // consume '['
	var elems []ast.Expr

	if !p.check(lexer.RBRACKET) {
		first, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, first)
		for p.check(lexer.COMMA) {
			p.advance() // consume ','
			next, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			elems = append(elems, next)
		}
	}

	if _, err := p.expect(lexer.RBRACKET, "expected ']' after array elements"); err != nil {
		return nil, err
	}
	return &ast.ArrayLit{Elems: elems, Pos: p.position(tok)}, nil
}
