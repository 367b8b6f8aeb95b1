package codegen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Boualili-Youcef/Mini-Compiler/internal/ast"
)

// ---------------------------------------------------------------------------
// Options controls the behaviour of the code-generation pipeline.
// ---------------------------------------------------------------------------

// Options configures the codegen pipeline.
type Options struct {
	// BuildDir is the directory where all build artifacts are written.
	// Defaults to "./build" relative to the working directory.
	BuildDir string

	// OutputName is the base name for the output files (without extension).
	// Defaults to "output".
	OutputName string

	// Warnings are lexer diagnostics forwarded into the generated assembly
	// as leading comment lines.
	Warnings []string

	// Verbose enables extra diagnostic output.
	Verbose bool

	// AsmOnly stops after emitting the assembly file (skip assemble + link).
	AsmOnly bool

	// SkipLink stops after assembling (produce .o but don't link).
	SkipLink bool
}

// DefaultOptions returns sensible defaults (build/ directory).
func DefaultOptions() *Options {
	return &Options{
		BuildDir: "build",
	}
}

// ---------------------------------------------------------------------------
// Result is returned by Generate with paths to all produced artifacts.
// ---------------------------------------------------------------------------

type Result struct {
	Asm     string // the generated assembly text
	AsmFile string // path to the assembly file
	ObjFile string // path to the object file (empty if AsmOnly)
	ExeFile string // path to the executable (empty if AsmOnly or SkipLink)
}

// ---------------------------------------------------------------------------
// Generate — the public entry point for the full codegen pipeline
//
// Pipeline: AST → Assembly text (emit) → Object (nasm) → Executable (ld)
// ---------------------------------------------------------------------------

// Generate runs the full code-generation pipeline on the given AST program.
func Generate(program *ast.Program, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// --- Determine output name ---
	outputName := opts.OutputName
	if outputName == "" {
		outputName = "output"
	}
	// Sanitize: replace dots/spaces/separators with underscores.
	outputName = strings.Map(func(r rune) rune {
		if r == '.' || r == ' ' || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, outputName)

	// --- Create build directory ---
	buildDir := opts.BuildDir
	if buildDir == "" {
		buildDir = "build"
	}
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create build directory %s: %w", buildDir, err)
	}

	result := &Result{}

	// --- Step 1: Emit assembly ---
	if opts.Verbose {
		fmt.Println("[codegen] Emitting x86-64 NASM assembly...")
	}
	result.Asm = EmitX86_64(program, opts.Warnings)

	// --- Step 2: Write assembly file ---
	tc := NewToolchain(buildDir, outputName)
	tc.Verbose = opts.Verbose

	if err := tc.WriteAssembly(result.Asm); err != nil {
		return nil, fmt.Errorf("cannot write assembly file: %w", err)
	}
	result.AsmFile = tc.AsmFile

	if opts.Verbose {
		fmt.Printf("[codegen] Assembly written to %s\n", result.AsmFile)
	}

	if opts.AsmOnly {
		return result, nil
	}

	// --- Step 3: Assemble ---
	if missing := DetectToolchain(); len(missing) > 0 {
		fmt.Printf("[codegen] Warning: missing toolchain components: %s\n", strings.Join(missing, ", "))
		fmt.Printf("[codegen] Assembly file was written to %s — you can assemble and link manually.\n", result.AsmFile)
		return result, nil
	}

	if opts.Verbose {
		fmt.Println("[codegen] Assembling...")
	}
	if err := tc.Assemble(); err != nil {
		return result, fmt.Errorf("assembly failed: %w", err)
	}
	result.ObjFile = tc.ObjFile

	if opts.SkipLink {
		return result, nil
	}

	// --- Step 4: Link ---
	if opts.Verbose {
		fmt.Println("[codegen] Linking...")
	}
	if err := tc.Link(); err != nil {
		return result, fmt.Errorf("linking failed: %w", err)
	}
	result.ExeFile = tc.ExeFile

	if opts.Verbose {
		fmt.Printf("[codegen] Executable written to %s\n", result.ExeFile)
	}

	return result, nil
}

// OutputNameFromSource derives a default output base name from a source
// file path: the file name without its extension.
func OutputNameFromSource(sourcePath string) string {
	base := filepath.Base(sourcePath)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	if base == "" || base == "." {
		return "output"
	}
	return base
}
