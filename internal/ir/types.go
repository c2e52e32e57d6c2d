package ir

// NodeID identifies a node within one graph. Zero means "no node".
type NodeID int64

// LinkID identifies a link within one graph. Zero means "no link".
// IDs are allocated monotonically and never reused, undo included.
type LinkID int64

// Document is the plain serialized form of a graph.
type Document struct {
	Version    string    `json:"version"`
	LastNodeID NodeID    `json:"last_node_id,omitempty"`
	LastLinkID LinkID    `json:"last_link_id,omitempty"`
	Nodes      []NodeDoc `json:"nodes"`
	Links      []LinkDoc `json:"links"`
	Camera     *Camera   `json:"camera,omitempty"` // Passed through opaquely
}

// NodeDoc is the serialized form of a node.
type NodeDoc struct {
	ID         NodeID         `json:"id"`
	Type       string         `json:"type"`
	Title      string         `json:"title,omitempty"`
	Pos        [2]float64     `json:"pos"`
	Size       [2]float64     `json:"size"`
	Properties map[string]any `json:"properties"`

	// Slot layout. Carried so that dynamically added sub-slots round-trip.
	Inputs  []SlotDoc `json:"inputs,omitempty"`
	Outputs []SlotDoc `json:"outputs,omitempty"`

	SchemaName       string              `json:"schemaName,omitempty"`
	ModelName        string              `json:"modelName,omitempty"`
	IsNative         bool                `json:"isNative,omitempty"`
	IsRootType       bool                `json:"isRootType,omitempty"`
	NativeInputs     map[int]NativeValue `json:"nativeInputs,omitempty"`
	MultiInputs      map[int][]LinkID    `json:"multiInputs,omitempty"`
	MultiInputSlots  map[string][]int    `json:"multiInputSlots,omitempty"`
	MultiOutputSlots map[string][]int    `json:"multiOutputSlots,omitempty"`
	WorkflowType     string              `json:"workflowType,omitempty"`
	WorkflowIndex    *int                `json:"workflowIndex,omitempty"`
	Color            string              `json:"color,omitempty"`
	DisplayTitle     string              `json:"displayTitle,omitempty"`
}

// SlotDoc is the serialized form of an input or output slot.
// Inputs use Link, outputs use Links.
type SlotDoc struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Link  LinkID   `json:"link,omitempty"`
	Links []LinkID `json:"links,omitempty"`
}

// NativeValue is a literal value held by a node input.
type NativeValue struct {
	BaseType string `json:"baseType"`
	Value    any    `json:"value"`
	Optional bool   `json:"optional,omitempty"`
}

// LinkDoc is the serialized form of a link.
type LinkDoc struct {
	ID         LinkID `json:"id"`
	OriginID   NodeID `json:"origin_id"`
	OriginSlot int    `json:"origin_slot"`
	TargetID   NodeID `json:"target_id"`
	TargetSlot int    `json:"target_slot"`
	Type       string `json:"type"`
}

// Camera is presentation view state. The engine never interprets it.
type Camera struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}
