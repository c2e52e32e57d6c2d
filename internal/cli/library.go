package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/store"
)

// LibraryOptions holds flags shared by the save, load and revisions commands.
type LibraryOptions struct {
	*RootOptions
	Database string
}

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	LibraryOptions
	Name string
}

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	LibraryOptions
	Seq    int64  // revision sequence, 0 for the latest
	Output string // output file path
}

// SaveResult reports a stored revision.
type SaveResult struct {
	Document store.Document `json:"document"`
	Revision store.Revision `json:"revision"`
	Inserted bool           `json:"inserted"`
}

// LoadCommandResult reports a loaded revision and its body.
type LoadCommandResult struct {
	Document store.Document `json:"document"`
	Revision store.Revision `json:"revision"`
	Output   string         `json:"output,omitempty"`
	Body     *ir.Document   `json:"body,omitempty"`
}

// RevisionsResult lists the revisions of one document.
type RevisionsResult struct {
	Document  store.Document   `json:"document"`
	Revisions []store.Revision `json:"revisions"`
}

func addDatabaseFlag(cmd *cobra.Command, opts *LibraryOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{LibraryOptions: LibraryOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "save <doc>",
		Short: "Store a graph document as a new revision",
		Long: `Save stores a serialized graph document in the SQLite library under
--name. The first save of a name creates the library entry. Saving content
already stored for that entry is reported and not duplicated.

Examples:
  wiregraph save --db ./graphs.db --name onboarding graph.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.LibraryOptions)
	cmd.Flags().StringVar(&opts.Name, "name", "", "library entry name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runSave(opts *SaveOptions, path string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	doc, err := LoadDocumentFile(path)
	if err != nil {
		return commandError(formatter, err)
	}

	st, err := openLibrary(opts.LibraryOptions, cmd)
	if err != nil {
		return commandError(formatter, err)
	}
	defer st.Close()

	entry, err := st.FindDocument(ctx, opts.Name)
	if errors.Is(err, store.ErrNotFound) {
		entry, err = st.CreateDocument(ctx, opts.Name)
	}
	if err != nil {
		return commandError(formatter, storeError(err))
	}

	rev, inserted, err := st.SaveRevision(ctx, entry.ID, doc)
	if err != nil {
		return commandError(formatter, storeError(err))
	}

	result := SaveResult{Document: entry, Revision: rev, Inserted: inserted}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if inserted {
		formatter.Check(true, "Saved %q revision %d (%s)", entry.Name, rev.Seq, entry.ID)
	} else {
		fmt.Fprintf(formatter.Writer, "= %q unchanged, matches revision %d (%s)\n", entry.Name, rev.Seq, entry.ID)
	}
	formatter.VerboseLog("content hash %s", rev.ContentHash)
	return nil
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{LibraryOptions: LibraryOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "load <id>",
		Short: "Print a stored graph document",
		Long: `Load retrieves a stored revision from the SQLite library. The argument
is a library entry id or name. Without --seq the latest revision is loaded.

Examples:
  wiregraph load --db ./graphs.db onboarding
  wiregraph load --db ./graphs.db onboarding --seq 2 -o graph.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.LibraryOptions)
	cmd.Flags().Int64Var(&opts.Seq, "seq", 0, "revision sequence number (default latest)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runLoad(opts *LoadOptions, ref string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openLibrary(opts.LibraryOptions, cmd)
	if err != nil {
		return commandError(formatter, err)
	}
	defer st.Close()

	entry, err := resolveDocument(ctx, st, ref)
	if err != nil {
		return commandError(formatter, err)
	}

	var (
		doc *ir.Document
		rev store.Revision
	)
	if opts.Seq > 0 {
		doc, rev, err = st.LoadRevision(ctx, entry.ID, opts.Seq)
	} else {
		doc, rev, err = st.LoadLatest(ctx, entry.ID)
	}
	if err != nil {
		return commandError(formatter, storeError(err))
	}

	data, err := ir.MarshalDocument(doc)
	if err != nil {
		return commandError(formatter, err)
	}

	result := LoadCommandResult{Document: entry, Revision: rev}
	if opts.Output != "" {
		if err := writeOutputFile(opts.Output, data); err != nil {
			return commandError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
		result.Output = opts.Output
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		formatter.Check(true, "Wrote %q revision %d to %s", entry.Name, rev.Seq, opts.Output)
		return nil
	}

	if formatter.Format == "json" {
		result.Body = doc
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, string(data))
	return nil
}

// NewRevisionsCommand creates the revisions command.
func NewRevisionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibraryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "revisions [id]",
		Short: "List stored documents or the revisions of one",
		Long: `Revisions lists the revisions of a library entry, oldest first. The
argument is an entry id or name. Without an argument every entry is listed.

Examples:
  wiregraph revisions --db ./graphs.db
  wiregraph revisions --db ./graphs.db onboarding`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runDocuments(opts, cmd)
			}
			return runRevisions(opts, args[0], cmd)
		},
	}

	addDatabaseFlag(cmd, opts)

	return cmd
}

func runRevisions(opts *LibraryOptions, ref string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openLibrary(*opts, cmd)
	if err != nil {
		return commandError(formatter, err)
	}
	defer st.Close()

	entry, err := resolveDocument(ctx, st, ref)
	if err != nil {
		return commandError(formatter, err)
	}
	revs, err := st.ListRevisions(ctx, entry.ID)
	if err != nil {
		return commandError(formatter, storeError(err))
	}

	if formatter.Format == "json" {
		return formatter.Success(RevisionsResult{Document: entry, Revisions: revs})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s (%s)\n", entry.Name, entry.ID)
	if len(revs) == 0 {
		fmt.Fprintln(w, "  no revisions")
		return nil
	}
	for _, r := range revs {
		fmt.Fprintf(w, "  #%d  %d node(s), %d link(s)  %s\n", r.Seq, r.NodeCount, r.LinkCount, shortHash(r.ContentHash))
	}
	return nil
}

func runDocuments(opts *LibraryOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openLibrary(*opts, cmd)
	if err != nil {
		return commandError(formatter, err)
	}
	defer st.Close()

	docs, err := st.ListDocuments(ctx)
	if err != nil {
		return commandError(formatter, storeError(err))
	}

	if formatter.Format == "json" {
		return formatter.Success(docs)
	}
	if len(docs) == 0 {
		fmt.Fprintln(formatter.Writer, "No documents found in database.")
		return nil
	}
	for _, d := range docs {
		fmt.Fprintf(formatter.Writer, "%s  %s\n", d.ID, d.Name)
	}
	return nil
}

// openLibrary opens the database named by --db with the configured logger.
func openLibrary(opts LibraryOptions, cmd *cobra.Command) (*store.Store, error) {
	env, err := LoadEnv(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	st, err := store.Open(opts.Database, store.WithLogger(env.Logger))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStoreFailed, Message: fmt.Sprintf("failed to open database: %v", err)}
	}
	return st, nil
}

// resolveDocument finds a library entry by id, then by name.
func resolveDocument(ctx context.Context, st *store.Store, ref string) (store.Document, error) {
	doc, err := st.GetDocument(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		doc, err = st.FindDocument(ctx, ref)
	}
	if err != nil {
		return store.Document{}, storeError(err)
	}
	return doc, nil
}

// storeError classifies a store failure.
func storeError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	}
	return &LoadError{Code: ErrCodeStoreFailed, Message: err.Error()}
}

// shortHash abbreviates a content hash for text output.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
