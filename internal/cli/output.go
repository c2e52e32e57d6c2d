package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/workflow"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Invalid workflow or failed scenario
	ExitCommandError = 2 // Bad input, unreadable file or store failure
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error // optional cause
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err, ExitFailure otherwise.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error part of a CLIResponse. Code is a loader code
// (E001..E011) or a workflow issue code (E2xx).
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter renders command results as text or JSON. Diagnostics go
// to ErrWriter so they never mix with JSON on Writer.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // defaults to Writer
	Verbose   bool
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

// Success writes data in the ok envelope, or prints it in text mode.
func (f *OutputFormatter) Success(data any) error {
	if f.isJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes a command error. Text mode prints details only when verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports a failed check: in JSON mode the result and the first cause
// share one indented error envelope. The returned error exits with
// ExitFailure and reads summary.
func (f *OutputFormatter) Fail(data any, cause CLIError, summary string) error {
	if f.isJSON() {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(CLIResponse{Status: "error", Data: data, Error: &cause}); err != nil {
			return err
		}
	}
	return NewExitError(ExitFailure, summary)
}

// Check prints a pass/fail line in text mode.
func (f *OutputFormatter) Check(ok bool, format string, args ...any) {
	if f.isJSON() {
		return
	}
	mark := "\u2713"
	if !ok {
		mark = "\u2717"
	}
	fmt.Fprintf(f.Writer, mark+" "+format+"\n", args...)
}

// Issues prints workflow issues, one per line, each prefixed by label.
func (f *OutputFormatter) Issues(label string, issues []workflow.Issue) {
	for _, iss := range issues {
		fmt.Fprintf(f.Writer, "  %s%s: %s\n", labelPrefix(label), iss.Code, iss.Message)
	}
}

// LoadNotes prints what a document import had to leave out.
func (f *OutputFormatter) LoadNotes(skipped []ir.NodeID, dropped []ir.LinkID) {
	if len(skipped) > 0 {
		fmt.Fprintf(f.Writer, "  skipped nodes of unknown type: %v\n", skipped)
	}
	if len(dropped) > 0 {
		fmt.Fprintf(f.Writer, "  dropped links: %v\n", dropped)
	}
}

// NodeStatus prints one node with its chain completeness mark and what
// keeps it incomplete.
func (f *OutputFormatter) NodeStatus(n NodeInfo) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", n.ID, n.Type)
	if n.Title != "" {
		fmt.Fprintf(&b, " %q", n.Title)
	}
	fmt.Fprint(f.Writer, "  ")
	f.Check(n.ChainComplete, "%s", b.String())
	if len(n.Missing) > 0 {
		fmt.Fprintf(f.Writer, "      missing: %v\n", n.Missing)
	}
	if len(n.IncompleteNodes) > 0 {
		fmt.Fprintf(f.Writer, "      incomplete upstream: %v\n", n.IncompleteNodes)
	}
}

// PathLine prints a Start to End path result.
func (f *OutputFormatter) PathLine(label string, pr workflow.PathResult) {
	if pr.Valid {
		fmt.Fprintf(f.Writer, "%s%s\n", label, formatPath(pr.Path))
		return
	}
	fmt.Fprintf(f.Writer, "%snone (%s)\n", label, pr.Reason)
}

// VerboseLog prints a diagnostic line when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter, or Writer when unset.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func labelPrefix(label string) string {
	if label == "" {
		return ""
	}
	return label + " "
}

// formatPath renders node ids as "1 -> 4 -> 2".
func formatPath(path []ir.NodeID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, " -> ")
}
