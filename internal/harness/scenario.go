package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted editing session. Steps run in order against a
// fresh editor session; assertions are checked against the final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Descriptors is an optional directory of CUE node descriptors that
	// extends the built-in catalog. Relative to the scenario file.
	Descriptors string `yaml:"descriptors,omitempty"`

	// HistoryMaxSize overrides the undo depth when positive.
	HistoryMaxSize int `yaml:"history_max_size,omitempty"`

	// Steps are the editing actions.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final graph and the step outcomes.
	Assertions []Assertion `yaml:"assertions"`

	// BaseDir resolves relative paths. Set by LoadScenario.
	BaseDir string `yaml:"-"`
}

// Step is one editing action. Which fields apply depends on Op.
//
// Nodes and links are referred to by the alias given with "as" when they
// were created or connected, so scenarios never depend on numeric ids.
type Step struct {
	Op string `yaml:"op"`

	// As names the node (create) or link (connect) this step produces.
	As string `yaml:"as,omitempty"`

	// Type is the node type for create.
	Type string `yaml:"type,omitempty"`

	// Node is the node alias for remove_node, add_slot, remove_slot,
	// set_value, move and rename.
	Node string `yaml:"node,omitempty"`

	// From/Output and To/Input address the two ends of connect.
	From   string `yaml:"from,omitempty"`
	Output string `yaml:"output,omitempty"`
	To     string `yaml:"to,omitempty"`
	Input  string `yaml:"input,omitempty"`

	// Link is the link alias for disconnect.
	Link string `yaml:"link,omitempty"`

	// Field and Key address a keyed sub-slot for add_slot and remove_slot.
	Field string `yaml:"field,omitempty"`
	Key   string `yaml:"key,omitempty"`

	// Value is the literal for set_value.
	Value any `yaml:"value,omitempty"`

	// Pos is the position for create and move.
	Pos []float64 `yaml:"pos,omitempty"`

	// Title is the new title for rename.
	Title string `yaml:"title,omitempty"`

	// File and Format describe the document for import. Format is
	// "document" (default) or "backend".
	File   string `yaml:"file,omitempty"`
	Format string `yaml:"format,omitempty"`

	// Names binds aliases to the imported nodes in render order.
	Names []string `yaml:"names,omitempty"`
}

// Step operations.
const (
	OpCreate     = "create"
	OpConnect    = "connect"
	OpDisconnect = "disconnect"
	OpRemoveNode = "remove_node"
	OpAddSlot    = "add_slot"
	OpRemoveSlot = "remove_slot"
	OpSetValue   = "set_value"
	OpMove       = "move"
	OpRename     = "rename"
	OpUndo       = "undo"
	OpRedo       = "redo"
	OpImport     = "import"
)

// Import formats.
const (
	FormatDocument = "document"
	FormatBackend  = "backend"
)

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "node_count": live nodes equal Count
	// - "link_count": links equal Count
	// - "complete": local completeness of Node equals Expect
	// - "chain_complete": chain completeness of Node equals Expect
	// - "valid": workflow validity equals Expect; Codes must all be reported
	// - "path": Start to End path equals Path (node aliases)
	// - "keys": sub-slot keys of Node.Field equal Keys
	// - "link_target": Link ends at Node on Input
	// - "error": step Step failed with Code
	Type string `yaml:"type"`

	Node   string   `yaml:"node,omitempty"`
	Count  *int     `yaml:"count,omitempty"`
	Expect *bool    `yaml:"expect,omitempty"`
	Codes  []string `yaml:"codes,omitempty"`
	Path   []string `yaml:"path,omitempty"`
	Field  string   `yaml:"field,omitempty"`
	Keys   []string `yaml:"keys,omitempty"`
	Link   string   `yaml:"link,omitempty"`
	Input  string   `yaml:"input,omitempty"`
	Step   *int     `yaml:"step,omitempty"`
	Code   string   `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertNodeCount     = "node_count"
	AssertLinkCount     = "link_count"
	AssertComplete      = "complete"
	AssertChainComplete = "chain_complete"
	AssertValid         = "valid"
	AssertPath          = "path"
	AssertKeys          = "keys"
	AssertLinkTarget    = "link_target"
	AssertError         = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.BaseDir = filepath.Dir(path)
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// resolve makes p relative to the scenario file.
func (s *Scenario) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || s.BaseDir == "" {
		return p
	}
	return filepath.Join(s.BaseDir, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.HistoryMaxSize < 0 {
		return fmt.Errorf("history_max_size must be non-negative")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], len(s.Steps)); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks the fields a step's op needs.
func validateStep(index int, st *Step) error {
	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("steps[%d]: %s is required for %s", index, field, st.Op)
		}
		return nil
	}

	switch st.Op {
	case OpCreate:
		if err := need("type", st.Type); err != nil {
			return err
		}
		if st.Pos != nil && len(st.Pos) != 2 {
			return fmt.Errorf("steps[%d]: pos must have two coordinates", index)
		}
	case OpConnect:
		for _, f := range [][2]string{{"from", st.From}, {"output", st.Output}, {"to", st.To}, {"input", st.Input}} {
			if err := need(f[0], f[1]); err != nil {
				return err
			}
		}
	case OpDisconnect:
		return need("link", st.Link)
	case OpRemoveNode:
		return need("node", st.Node)
	case OpAddSlot, OpRemoveSlot:
		for _, f := range [][2]string{{"node", st.Node}, {"field", st.Field}, {"key", st.Key}} {
			if err := need(f[0], f[1]); err != nil {
				return err
			}
		}
	case OpSetValue:
		if err := need("node", st.Node); err != nil {
			return err
		}
		return need("input", st.Input)
	case OpMove:
		if err := need("node", st.Node); err != nil {
			return err
		}
		if len(st.Pos) != 2 {
			return fmt.Errorf("steps[%d]: pos must have two coordinates", index)
		}
	case OpRename:
		return need("node", st.Node)
	case OpUndo, OpRedo:
	case OpImport:
		if err := need("file", st.File); err != nil {
			return err
		}
		switch st.Format {
		case "", FormatDocument, FormatBackend:
		default:
			return fmt.Errorf("steps[%d]: unknown import format %q", index, st.Format)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertNodeCount, AssertLinkCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertComplete, AssertChainComplete:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for %s", index, a.Type)
		}
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for %s", index, a.Type)
		}
	case AssertValid:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for valid", index)
		}
	case AssertPath:
		if a.Path == nil && a.Expect == nil {
			return fmt.Errorf("assertions[%d]: path or expect is required for path", index)
		}
	case AssertKeys:
		if a.Node == "" || a.Field == "" {
			return fmt.Errorf("assertions[%d]: node and field are required for keys", index)
		}
	case AssertLinkTarget:
		if a.Link == "" || a.Node == "" || a.Input == "" {
			return fmt.Errorf("assertions[%d]: link, node and input are required for link_target", index)
		}
	case AssertError:
		if a.Step == nil {
			return fmt.Errorf("assertions[%d]: step is required for error", index)
		}
		if *a.Step < 0 || *a.Step >= steps {
			return fmt.Errorf("assertions[%d]: step %d out of range", index, *a.Step)
		}
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
