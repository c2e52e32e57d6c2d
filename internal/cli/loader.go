package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/wiregraph/internal/compiler"
	"github.com/roach88/wiregraph/internal/config"
	"github.com/roach88/wiregraph/internal/editor"
	"github.com/roach88/wiregraph/internal/graph"
	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/registry"
)

// LoadResult contains the node catalog a command works against.
type LoadResult struct {
	Registry  *registry.Registry
	Dir       string // descriptor directory, empty for the built-in catalog
	FileCount int    // number of CUE files found in Dir
}

// Descriptors returns every registered descriptor in type order.
func (r *LoadResult) Descriptors() []*registry.NodeDescriptor {
	types := r.Registry.Types()
	out := make([]*registry.NodeDescriptor, 0, len(types))
	for _, t := range types {
		d, _ := r.Registry.Lookup(t)
		out = append(out, d)
	}
	return out
}

// LoadError represents an error that occurred while loading descriptors,
// documents or configuration.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDescriptors builds the registry for dir. An empty dir yields the
// built-in catalog; otherwise descriptors in dir extend or replace it.
func LoadDescriptors(dir string) (*LoadResult, error) {
	if dir == "" {
		reg, err := compiler.Builtin()
		if err != nil {
			return nil, convertCompileError(err, "builtin catalog")
		}
		return &LoadResult{Registry: reg}, nil
	}

	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("descriptor directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing descriptor directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := compiler.FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	reg, err := compiler.LoadRegistry(dir)
	if err != nil {
		return nil, convertCompileError(err, dir)
	}
	return &LoadResult{Registry: reg, Dir: dir, FileCount: len(cueFiles)}, nil
}

// LoadDocumentFile reads and parses a serialized graph document.
func LoadDocumentFile(path string) (*ir.Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("document not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error reading document: %v", err)}
	}
	doc, err := ir.ParseDocument(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidDocument, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	return doc, nil
}

// Env is the configured context shared by the document commands.
type Env struct {
	Config  *config.Config
	Catalog *LoadResult
	Logger  *slog.Logger
}

// LoadEnv reads the config file and descriptor directory named by the
// global flags. Log lines go to logOut; --verbose lowers the level to debug.
func LoadEnv(opts *RootOptions, logOut io.Writer) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidConfig, Message: err.Error()}
	}

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	logger, err := config.NewLogger(logOut, level, cfg.Log.Format)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidConfig, Message: err.Error()}
	}

	catalog, err := LoadDescriptors(opts.Descriptors)
	if err != nil {
		return nil, err
	}
	return &Env{Config: cfg, Catalog: catalog, Logger: logger}, nil
}

// NewSession returns an empty editor session over the loaded catalog.
func (e *Env) NewSession() *editor.Session {
	return editor.New(e.Catalog.Registry, e.Config, editor.WithLogger(e.Logger))
}

// OpenDocument imports doc into a fresh session.
func (e *Env) OpenDocument(doc *ir.Document) (*editor.Session, *graph.LoadReport, error) {
	s := e.NewSession()
	report, err := s.Import(doc)
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeInvalidDocument, Message: err.Error()}
	}
	return s, report, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	var validationErr compiler.ValidationError
	if errors.As(err, &validationErr) {
		return &LoadError{
			Code:    validationErr.Code,
			Message: err.Error(),
		}
	}
	return &LoadError{
		Code:    ErrCodeLoadFailed,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// commandError reports err through the formatter and returns the matching
// exit error. Load errors keep their code.
func commandError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message))
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, ErrCodeGeneric, err)
}

// newFormatter builds the formatter for one command invocation. Verbose
// logs go to stderr to avoid corrupting JSON.
func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeScanError       = "E002" // Directory scan error
	ErrCodeNoFiles         = "E003" // No CUE files found
	ErrCodeLoadFailed      = "E004" // CUE load failed
	ErrCodeNotFound        = "E005" // Path not found
	ErrCodeBuildFailed     = "E006" // CUE build failed
	ErrCodeWriteFailed     = "E007" // File write error
	ErrCodeInvalidDocument = "E008" // Document parse or import failed
	ErrCodeInvalidConfig   = "E009" // Config file or environment rejected
	ErrCodeStoreFailed     = "E010" // Database error
	ErrCodeNoDescriptors   = "E011" // CUE source without a node struct
	ErrCodeTestFailed      = "E_TEST_FAILED"
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeBuildFailed
	case field == "node":
		return ErrCodeNoDescriptors
	case strings.HasSuffix(field, ".type"):
		return compiler.ErrInvalidTypeExpr
	case strings.HasSuffix(field, ".role"):
		return compiler.ErrInvalidRole
	default:
		return ErrCodeGeneric
	}
}
