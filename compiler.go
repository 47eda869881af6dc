package sailfish

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/token"
)

// CompilationReport summarizes one Compile call: the full transitive set
// of included template files, in first-occurrence order, the shape
// cachelock.go persists alongside a compiled artifact to decide whether a
// stale cache entry needs a rebuild.
type CompilationReport struct {
	Deps []string
}

// Compiler orchestrates the parser, translator, resolver, and optimizer
// into this single Compile entry point. Grounded on pongo2's
// TemplateSet (template_sets.go), which played the equivalent orchestrator
// role for its interpret-at-render-time pipeline; this type wires the
// same concerns (config resolution, file loading, logging) into a
// compile-once pipeline instead.
type Compiler struct {
	Config *Config
	Loader *FileLoader
}

// NewCompiler builds a Compiler resolving includes against loader's roots
// and falling back to cfg's defaults for escaping and whitespace handling.
func NewCompiler(cfg *Config, loader *FileLoader) *Compiler {
	return &Compiler{Config: cfg, Loader: loader}
}

// Compile translates the template at path into a formatted Go source
// fragment implementing it (a single "{ ... }" statement block, suitable
// for splicing into a generated method body by the derive front-end),
// alongside the CompilationReport naming every file that fragment
// transitively depends on.
func (c *Compiler) Compile(path string) (string, *CompilationReport, error) {
	return c.CompileWith(path, nil)
}

// CompileWith is Compile with a per-template override layered on top of
// c.Config, the derive-attribute boundary TemplateConfig models.
func (c *Compiler) CompileWith(path string, override *TemplateConfig) (string, *CompilationReport, error) {
	cfg := c.Config.Resolve(override)
	Logf("compiler", "compiling %s", path)

	src, err := c.Loader.Read(path)
	if err != nil {
		return "", nil, Chain(err, KindIOError, "reading "+path)
	}

	block, fset, err := c.translateFile(path, src, cfg)
	if err != nil {
		return "", nil, err
	}

	resolver := NewResolver(cfg.TemplateDirs, c.includeHandler(cfg), fset)
	if err := resolver.Resolve(path, block); err != nil {
		return "", nil, err
	}

	opt := NewOptimizer(cfg.RMWhitespace, cfg.RMNewline)
	if err := opt.Optimize(block); err != nil {
		return "", nil, err
	}

	out, err := renderBlock(fset, block)
	if err != nil {
		return "", nil, err
	}

	return out, &CompilationReport{Deps: resolver.Deps()}, nil
}

// translateFile runs the parser and translator over one file's source,
// then parses the result into a real *ast.BlockStmt against fset.
func (c *Compiler) translateFile(path, src string, cfg *Config) (*ast.BlockStmt, *token.FileSet, error) {
	tokens, err := Tokenize(path, src, cfg.Delimiter)
	if err != nil {
		if ce, ok := err.(*CompileError); ok {
			return nil, nil, ce.WithFile(path).WithSource(src)
		}
		return nil, nil, err
	}

	translator := NewTranslator(cfg.Escape)
	compiled, err := translator.Translate(tokens)
	if err != nil {
		return nil, nil, Chain(err, KindAnalyzeError, "translating "+path).WithFile(path).WithSource(src)
	}

	fset := token.NewFileSet()
	block, err := compiled.Parse(fset)
	if err != nil {
		if ce, ok := err.(*CompileError); ok {
			return nil, nil, ce.WithFile(path).WithSource(src)
		}
		return nil, nil, err
	}
	return block, fset, nil
}

// includeHandler adapts Compiler into the Resolver's IncludeHandler shape:
// read, tokenize and translate the included file, but stop short of
// resolving ITS includes or optimizing it -- the caller's single
// Resolver/Optimizer pass walks the spliced-in result afterward.
func (c *Compiler) includeHandler(cfg *Config) IncludeHandler {
	return func(resolvedPath string) (*CompiledBlock, error) {
		src, err := c.Loader.Read(resolvedPath)
		if err != nil {
			return nil, Chain(err, KindIOError, "reading "+resolvedPath)
		}
		tokens, err := Tokenize(resolvedPath, src, cfg.Delimiter)
		if err != nil {
			return nil, err
		}
		translator := NewTranslator(cfg.Escape)
		return translator.Translate(tokens)
	}
}

// renderBlock prints block back to Go source text via go/format, the
// Go-native equivalent of quote::ToTokens rendering a proc-macro's syn
// tree back into token output.
func renderBlock(fset *token.FileSet, block *ast.BlockStmt) (string, error) {
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, block); err != nil {
		return "", WrapFmtError(err)
	}
	return buf.String(), nil
}
