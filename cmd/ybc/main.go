package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kr/pretty"

	"github.com/Boualili-Youcef/Mini-Compiler/internal/codegen"
	"github.com/Boualili-Youcef/Mini-Compiler/internal/lexer"
	"github.com/Boualili-Youcef/Mini-Compiler/internal/parser"
)

const VERSION = "0.1.0"

// defaultSourcePath is used when no source file is given on the command
// line, matching the historical behaviour of the compiler.
const defaultSourcePath = "exemples/test.yb"

var debugMode = false

func main() {
	start := time.Now()
	exitCode := run()
	if exitCode == 0 {
		fmt.Printf("Compile time: %s\n", time.Since(start))
	}
	os.Exit(exitCode)
}

func run() int {
	// Check for --debug flag early.
	for _, arg := range os.Args[1:] {
		if arg == "--debug" {
			debugMode = true
			break
		}
	}

	printDebug("ybc V" + VERSION + " — debug mode on.")

	// Find the source file: the first non-flag argument, skipping the
	// value that belongs to -o.
	filePath := ""
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		if args[i] == "-o" {
			i++ // skip the output path value
			continue
		}
		if len(args[i]) > 0 && args[i][0] != '-' {
			filePath = args[i]
			break
		}
	}
	if filePath == "" {
		filePath = defaultSourcePath
		fmt.Fprintf(os.Stderr, "no source file given, using default path: %s\n", filePath)
	}
	printDebug("Building using: " + filePath)

	// Get file content
	content, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read %s: %v\n", filePath, err)
		return 1
	}

	// --- Lexing ---
	printDebug("Starting lexing process...")
	tokens, lexWarnings := lexer.Lex(string(content))
	for _, w := range lexWarnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Error())
	}
	printDebug(fmt.Sprintf("Lexing complete. %d tokens produced.", len(tokens)))
	printTokens(tokens)

	// --- Parsing ---
	printDebug("Starting parsing process...")
	program, err := parser.Parse(tokens)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %s\n", err.Error())
		return 1
	}
	printDebug("Parsing complete. No errors.")

	if debugMode {
		fmt.Println("[DEBUG] --- AST ---")
		fmt.Println(pretty.Sprint(program))
		fmt.Println("[DEBUG] --- End AST ---")
	}

	// --- Code generation ---
	printDebug("Starting code generation...")

	opts := codegen.DefaultOptions()
	opts.Verbose = debugMode
	opts.OutputName = codegen.OutputNameFromSource(filePath)
	for _, w := range lexWarnings {
		opts.Warnings = append(opts.Warnings, w.Error())
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--asm-only":
			opts.AsmOnly = true
		case "--skip-link":
			opts.SkipLink = true
		case "-o":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "error: -o requires an output path")
				return 1
			}
			dir, base := filepath.Split(args[i+1])
			if dir == "" {
				dir = "."
			}
			opts.BuildDir = filepath.Clean(dir)
			opts.OutputName = base
			i++
		}
	}

	result, err := codegen.Generate(program, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "codegen error: %s\n", err)
		return 1
	}

	fmt.Println("Build artifacts:")
	if result.AsmFile != "" {
		fmt.Printf("  Assembly: %s\n", result.AsmFile)
	}
	if result.ObjFile != "" {
		fmt.Printf("  Object:   %s\n", result.ObjFile)
	}
	if result.ExeFile != "" {
		fmt.Printf("  Binary:   %s\n", result.ExeFile)
	}

	printDebug("Compilation pipeline finished successfully.")
	return 0
}

/**
* Prints a debug message to the console.
* @param message The message to print.
 */
func printDebug(message string) {
	if !debugMode {
		return
	}
	fmt.Println("[DEBUG] " + message)
}

func printTokens(tokens []lexer.Token) {
	if !debugMode {
		return
	}
	for _, token := range tokens {
		fmt.Printf("[DEBUG] Token: %s, Value: %s, Line: %d, Column: %d\n", token.Type, token.Value, token.Line, token.Column)
	}
}
