package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wiregraph/internal/graph"
	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/workflow"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool             `json:"valid"`
	Path         []ir.NodeID      `json:"path,omitempty"`
	Errors       []workflow.Issue `json:"errors,omitempty"`
	Warnings     []workflow.Issue `json:"warnings,omitempty"`
	SkippedNodes []ir.NodeID      `json:"skipped_nodes,omitempty"`
	DroppedLinks []ir.LinkID      `json:"dropped_links,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <doc>",
		Short: "Check a graph document for a runnable workflow",
		Long: `Validate the workflow structure of a serialized graph document.

Reports missing or duplicate Start and End nodes, a missing Start to End
path, unconnected nodes and feedback loops. Warnings never fail validation.

Exit codes:
  0 - Document is valid
  1 - Document has structural errors
  2 - Command error (missing file, bad descriptors, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	env, err := LoadEnv(opts, formatter.GetErrWriter())
	if err != nil {
		return commandError(formatter, err)
	}
	doc, err := LoadDocumentFile(path)
	if err != nil {
		return commandError(formatter, err)
	}
	session, loadReport, err := env.OpenDocument(doc)
	if err != nil {
		return commandError(formatter, err)
	}

	formatter.VerboseLog("Loaded %d node(s) and %d link(s) from %s",
		len(session.Graph().Nodes()), len(session.Graph().Links()), path)

	report := session.Validate()
	result := ValidationResult{
		Valid:    report.Valid,
		Errors:   report.Errors,
		Warnings: report.Warnings,
	}
	addLoadReport(&result, loadReport)
	if pr := session.FindPath(); pr.Valid {
		result.Path = pr.Path
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// addLoadReport records what the import could not restore.
func addLoadReport(result *ValidationResult, report *graph.LoadReport) {
	if report == nil {
		return
	}
	for _, sk := range report.SkippedNodes {
		result.SkippedNodes = append(result.SkippedNodes, sk.ID)
	}
	result.DroppedLinks = append(result.DroppedLinks, report.DroppedLinks...)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	formatter.Check(true, "Workflow valid")
	if len(result.Path) > 0 {
		formatter.PathLine("  path: ", workflow.PathResult{Valid: true, Path: result.Path})
	}
	printNotes(formatter, result)
	return nil
}

// outputValidationErrors outputs the structural errors of an invalid document.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	summary := fmt.Sprintf("validation failed with %d error(s)", len(result.Errors))
	first := result.Errors[0]
	if formatter.Format == "json" {
		return formatter.Fail(result, CLIError{Code: first.Code, Message: first.Message, Details: first.Nodes}, summary)
	}

	formatter.Check(false, "Validation failed")
	fmt.Fprintln(formatter.Writer)
	formatter.Issues("", result.Errors)
	printNotes(formatter, result)
	return NewExitError(ExitFailure, summary)
}

func printNotes(formatter *OutputFormatter, result ValidationResult) {
	formatter.Issues("warning", result.Warnings)
	formatter.LoadNotes(result.SkippedNodes, result.DroppedLinks)
}
