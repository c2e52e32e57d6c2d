package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wiregraph/internal/editor"
	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/workflow"
)

// NodeInfo is one node in the inspect output.
type NodeInfo struct {
	ID              ir.NodeID   `json:"id"`
	Type            string      `json:"type"`
	Title           string      `json:"title,omitempty"`
	Complete        bool        `json:"complete"`
	ChainComplete   bool        `json:"chain_complete"`
	Missing         []string    `json:"missing,omitempty"`
	IncompleteNodes []ir.NodeID `json:"incomplete_upstream,omitempty"`
}

// LinkInfo is one link in the inspect output.
type LinkInfo struct {
	ID     ir.LinkID `json:"id"`
	Origin ir.NodeID `json:"origin"`
	Output string    `json:"output"`
	Target ir.NodeID `json:"target"`
	Input  string    `json:"input"`
	Type   string    `json:"type"`
}

// InspectResult describes a loaded document.
type InspectResult struct {
	Nodes []NodeInfo          `json:"nodes"`
	Links []LinkInfo          `json:"links"`
	Path  workflow.PathResult `json:"path"`
	Hash  string              `json:"hash"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <doc>",
		Short: "Show nodes, links and completeness of a graph document",
		Long: `Inspect loads a serialized graph document and lists every node with
its local and chain completeness, every link with its slot names, the
Start to End path and the content hash.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	env, err := LoadEnv(opts, formatter.GetErrWriter())
	if err != nil {
		return commandError(formatter, err)
	}
	doc, err := LoadDocumentFile(path)
	if err != nil {
		return commandError(formatter, err)
	}
	session, _, err := env.OpenDocument(doc)
	if err != nil {
		return commandError(formatter, err)
	}

	result, err := inspectSession(session)
	if err != nil {
		return commandError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	outputInspectText(formatter, result)
	return nil
}

// inspectSession collects the inspect view of a session.
func inspectSession(s *editor.Session) (InspectResult, error) {
	g := s.Graph()
	result := InspectResult{
		Nodes: []NodeInfo{},
		Links: []LinkInfo{},
		Path:  s.FindPath(),
	}

	for _, n := range g.Nodes() {
		local := s.NodeCompleteness(n.ID)
		chain := s.Completeness(n.ID)
		result.Nodes = append(result.Nodes, NodeInfo{
			ID:              n.ID,
			Type:            n.Type,
			Title:           n.Title,
			Complete:        local.Complete,
			ChainComplete:   chain.Complete,
			Missing:         local.Missing,
			IncompleteNodes: chain.IncompleteNodes,
		})
	}
	for _, l := range g.Links() {
		result.Links = append(result.Links, LinkInfo{
			ID:     l.ID,
			Origin: l.OriginID,
			Output: g.Node(l.OriginID).Outputs[l.OriginSlot].Name,
			Target: l.TargetID,
			Input:  g.Node(l.TargetID).Inputs[l.TargetSlot].Name,
			Type:   l.Type,
		})
	}

	hash, err := ir.DocumentHash(s.Document())
	if err != nil {
		return InspectResult{}, err
	}
	result.Hash = hash
	return result, nil
}

func outputInspectText(formatter *OutputFormatter, result InspectResult) {
	w := formatter.Writer

	fmt.Fprintf(w, "Nodes (%d):\n", len(result.Nodes))
	for _, n := range result.Nodes {
		formatter.NodeStatus(n)
	}

	fmt.Fprintf(w, "Links (%d):\n", len(result.Links))
	for _, l := range result.Links {
		fmt.Fprintf(w, "  [%d] %d.%s -> %d.%s (%s)\n", l.ID, l.Origin, l.Output, l.Target, l.Input, l.Type)
	}

	formatter.PathLine("Path: ", result.Path)
	fmt.Fprintf(w, "Hash: %s\n", result.Hash)
}
