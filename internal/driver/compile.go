// Package driver wires the compiler passes (lexer, parser, symbols, sema,
// HIR, monomorphization, BIR) into the single entry point cmd/bract calls.
// Grounded on the teacher's internal/driver.DiagnoseWithOptions, trimmed to
// single-file, single-module compilation: no project-wide module graph,
// directive processing, or trace/disk-cache plumbing, since nothing in this
// rework depends on multi-module resolution.
package driver

import (
	"context"
	"fmt"

	"bract/internal/ast"
	"bract/internal/bir"
	"bract/internal/config"
	"bract/internal/diag"
	"bract/internal/hir"
	"bract/internal/lexer"
	"bract/internal/mono"
	"bract/internal/observ"
	"bract/internal/parser"
	"bract/internal/sema"
	"bract/internal/source"
	"bract/internal/symbols"
	"bract/internal/types"
)

// Stage selects how far the pipeline runs before returning, mirroring the
// teacher's DiagnoseStage.
type Stage string

const (
	StageTokenize Stage = "tokenize"
	StageSyntax   Stage = "syntax"
	StageSema     Stage = "sema"
	StageBIR      Stage = "bir"
)

// Options configures a single-file compilation run.
type Options struct {
	Stage          Stage
	MaxDiagnostics int
	EnableTimings  bool
	// Jobs caps the parallel BIR-lowering pool; zero or negative means
	// runtime.GOMAXPROCS(0) (see internal/config.JobsOrDefault).
	Jobs int
}

// Result collects every pipeline artifact produced along the way, so a
// caller can inspect any stage regardless of how far the run went.
type Result struct {
	FileSet *source.FileSet
	File    *source.File
	FileID  ast.FileID
	Bag     *diag.Bag
	Builder *ast.Builder
	Symbols *symbols.Result
	Sema    *sema.Result
	HIR     *hir.Module
	Mono    *mono.MonoModule
	BIR     *bir.Module
	Timing  observ.Report
}

// Compile runs the pipeline up to opts.Stage against a single source file.
func Compile(ctx context.Context, filePath string, opts Options) (*Result, error) {
	if opts.Stage == "" {
		opts.Stage = StageBIR
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}

	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}
	begin := func(name string) int {
		if timer == nil {
			return -1
		}
		return timer.Begin(name)
	}
	end := func(idx int) {
		if timer == nil || idx < 0 {
			return
		}
		timer.End(idx, "")
	}

	fs := source.NewFileSet()
	bag := diag.NewBag(opts.MaxDiagnostics)

	loadIdx := begin("load_file")
	fileID, err := fs.Load(filePath)
	end(loadIdx)
	if err != nil {
		return nil, fmt.Errorf("driver: load %s: %w", filePath, err)
	}
	file := fs.Get(fileID)
	res := &Result{FileSet: fs, File: file, FileID: fileID, Bag: bag}

	tokIdx := begin("tokenize")
	runLexerDiagnostics(file, bag)
	end(tokIdx)
	if opts.Stage == StageTokenize {
		return res, nil
	}

	parseIdx := begin("parse")
	builder := ast.NewBuilder(ast.Hints{}, nil)
	lx := lexer.New(file, lexer.Options{})
	parseResult := parser.ParseFile(ctx, fs, lx, builder, parser.Options{
		Reporter: &diag.BagReporter{Bag: bag},
	})
	res.Builder = builder
	end(parseIdx)
	if opts.Stage == StageSyntax {
		return res, nil
	}

	symIdx := begin("symbols")
	symRes := symbols.ResolveFile(builder, parseResult.File, &symbols.ResolveOptions{
		Reporter: &diag.BagReporter{Bag: bag},
		Validate: true,
	})
	res.Symbols = &symRes
	end(symIdx)

	semaIdx := begin("sema")
	semaRes := sema.Check(ctx, builder, parseResult.File, sema.Options{
		Reporter: &diag.BagReporter{Bag: bag},
		Symbols:  &symRes,
		Types:    types.NewInterner(),
		Bag:      bag,
	})
	res.Sema = &semaRes
	end(semaIdx)
	if opts.Stage == StageSema {
		return res, nil
	}

	hirIdx := begin("hir")
	hirModule, err := hir.Lower(ctx, builder, parseResult.File, &semaRes, &symRes)
	end(hirIdx)
	if err != nil {
		return res, fmt.Errorf("driver: hir lowering: %w", err)
	}
	res.HIR = hirModule
	if hirModule == nil {
		return res, nil
	}

	monoIdx := begin("mono")
	monoModule, err := mono.MonomorphizeModule(hirModule, mono.NewInstantiationMap(), &semaRes, mono.Options{MaxDepth: 64})
	end(monoIdx)
	if err != nil {
		return res, fmt.Errorf("driver: monomorphization: %w", err)
	}
	res.Mono = monoModule

	birIdx := begin("bir")
	birModule, err := lowerBIRModuleParallel(ctx, monoModule, semaRes.TypeInterner, config.JobsOrDefault(opts.Jobs))
	end(birIdx)
	if err != nil {
		return res, fmt.Errorf("driver: bir lowering: %w", err)
	}
	res.BIR = birModule

	if timer != nil {
		res.Timing = timer.Report()
	}
	return res, nil
}

// lowerBIRModuleParallel is defined in parallel.go: performance contracts
// are not yet carried by sema (see DESIGN.md), so every function lowers with
// an empty contract for now and picks up enforcement once sema grows a
// contract side table.

func runLexerDiagnostics(file *source.File, bag *diag.Bag) {
	reporterAdapter := &lexer.ReporterAdapter{Bag: bag}
	lx := lexer.New(file, lexer.Options{Reporter: reporterAdapter.Reporter()})
	for {
		tok := lx.Next()
		if tok.Kind.IsEOF() {
			break
		}
	}
}
