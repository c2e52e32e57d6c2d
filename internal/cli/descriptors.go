package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wiregraph/internal/registry"
)

// DescriptorsOptions holds flags for the descriptors command.
type DescriptorsOptions struct {
	*RootOptions
	Section string // only list this catalog section
}

// DescriptorsResult holds the listed catalog.
type DescriptorsResult struct {
	Dir         string                     `json:"dir,omitempty"`
	FileCount   int                        `json:"file_count"`
	Descriptors []*registry.NodeDescriptor `json:"descriptors"`
}

// NewDescriptorsCommand creates the descriptors command.
func NewDescriptorsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescriptorsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "descriptors [dir]",
		Short: "Compile and list node descriptors",
		Long: `Compile the node catalog and list every node type with its slots.

Without a directory the built-in catalog is listed, extended by --descriptors
when given. A directory argument takes precedence over --descriptors.
Descriptor errors are reported with their CUE position.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.Descriptors
			if len(args) == 1 {
				dir = args[0]
			}
			return runDescriptors(opts, dir, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Section, "section", "", "only list descriptors in this section")

	return cmd
}

func runDescriptors(opts *DescriptorsOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	catalog, err := LoadDescriptors(dir)
	if err != nil {
		return commandError(formatter, err)
	}
	if catalog.Dir != "" {
		formatter.VerboseLog("Found %d CUE file(s) in %s", catalog.FileCount, catalog.Dir)
	}

	result := DescriptorsResult{
		Dir:         catalog.Dir,
		FileCount:   catalog.FileCount,
		Descriptors: []*registry.NodeDescriptor{},
	}
	for _, d := range catalog.Descriptors() {
		if opts.Section != "" && d.Section != opts.Section {
			continue
		}
		result.Descriptors = append(result.Descriptors, d)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, d := range result.Descriptors {
		fmt.Fprintf(w, "%s", d.Type)
		if d.Title != "" && d.Title != d.Type {
			fmt.Fprintf(w, " (%s)", d.Title)
		}
		if d.Section != "" {
			fmt.Fprintf(w, " [%s]", d.Section)
		}
		fmt.Fprintln(w)
		if in := fieldList(d.Inputs()); in != "" {
			fmt.Fprintf(w, "  in:  %s\n", in)
		}
		if out := fieldList(d.Outputs()); out != "" {
			fmt.Fprintf(w, "  out: %s\n", out)
		}
	}
	fmt.Fprintf(w, "%d descriptor(s)\n", len(result.Descriptors))
	return nil
}

// fieldList renders fields as "name:type" pairs.
func fieldList(fields []registry.FieldDescriptor) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s:%s", f.Name, f.Type))
	}
	return strings.Join(parts, ", ")
}
