package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/wiregraph/internal/export"
	"github.com/roach88/wiregraph/internal/ir"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output      string // output file path
	FromBackend bool   // convert a backend workflow back into a document
}

// ExportResult describes a completed conversion.
type ExportResult struct {
	Nodes  int    `json:"nodes"`
	Edges  int    `json:"edges"`
	Output string `json:"output,omitempty"`
	Body   any    `json:"body,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Convert a graph document to the backend workflow format",
		Long: `Export converts a serialized graph document into the backend workflow
format: nodes as field maps in render order and edges addressed by node
position and slot name. Edges inside a feedback loop carry the loop hint.

With --from-backend the input is a backend workflow and the output is a
graph document.

Examples:
  wiregraph export graph.json
  wiregraph export graph.json -o workflow.json
  wiregraph export workflow.json --from-backend -o graph.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&opts.FromBackend, "from-backend", false, "read a backend workflow and write a graph document")

	return cmd
}

func runExport(opts *ExportOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	env, err := LoadEnv(opts.RootOptions, formatter.GetErrWriter())
	if err != nil {
		return commandError(formatter, err)
	}

	var (
		body   any
		data   []byte
		result ExportResult
	)
	if opts.FromBackend {
		doc, err := backendToDocument(env, path)
		if err != nil {
			return commandError(formatter, err)
		}
		if data, err = ir.MarshalDocument(doc); err != nil {
			return commandError(formatter, err)
		}
		body = doc
		result.Nodes, result.Edges = len(doc.Nodes), len(doc.Links)
	} else {
		doc, err := LoadDocumentFile(path)
		if err != nil {
			return commandError(formatter, err)
		}
		session, _, err := env.OpenDocument(doc)
		if err != nil {
			return commandError(formatter, err)
		}
		wf := export.ToBackend(session.Graph())
		if data, err = wf.Marshal(); err != nil {
			return commandError(formatter, err)
		}
		body = wf
		result.Nodes, result.Edges = len(wf.Nodes), len(wf.Edges)
	}

	formatter.VerboseLog("Converted %d node(s) and %d edge(s)", result.Nodes, result.Edges)

	if opts.Output != "" {
		if err := writeOutputFile(opts.Output, data); err != nil {
			return commandError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
		result.Output = opts.Output
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		formatter.Check(true, "Wrote %d node(s), %d edge(s) to %s", result.Nodes, result.Edges, opts.Output)
		return nil
	}

	if formatter.Format == "json" {
		result.Body = body
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, string(data))
	return nil
}

// backendToDocument parses a backend workflow and rebuilds it as a graph.
func backendToDocument(env *Env, path string) (*ir.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error reading workflow: %v", err)}
	}
	wf, err := export.Parse(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidDocument, Message: err.Error()}
	}
	session := env.NewSession()
	if _, err := export.FromBackend(session, wf); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidDocument, Message: err.Error()}
	}
	return session.Document(), nil
}

// writeOutputFile writes data to path, creating parent directories.
func writeOutputFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
