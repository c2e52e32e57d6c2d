package graph

import (
	"fmt"

	"github.com/roach88/wiregraph/internal/ir"
)

// SkippedNode records a node dropped on load.
type SkippedNode struct {
	ID   ir.NodeID
	Type string
}

// LoadReport lists what Deserialize could not restore.
type LoadReport struct {
	SkippedNodes []SkippedNode
	DroppedLinks []ir.LinkID
}

// Clean reports whether everything in the document was restored.
func (r *LoadReport) Clean() bool {
	return len(r.SkippedNodes) == 0 && len(r.DroppedLinks) == 0
}

// Serialize returns a document that shares no mutable state with the graph.
// Nodes keep render order; links are ordered by id.
func (g *Graph) Serialize() *ir.Document {
	doc := &ir.Document{
		Version:    ir.DocumentVersion,
		LastNodeID: g.lastNodeID,
		LastLinkID: g.lastLinkID,
		Nodes:      make([]ir.NodeDoc, 0, len(g.nodes)),
		Links:      make([]ir.LinkDoc, 0, len(g.links)),
	}
	if g.Camera != nil {
		cam := *g.Camera
		doc.Camera = &cam
	}

	for _, n := range g.nodes {
		doc.Nodes = append(doc.Nodes, serializeNode(n))
	}
	for _, l := range g.Links() {
		doc.Links = append(doc.Links, ir.LinkDoc{
			ID:         l.ID,
			OriginID:   l.OriginID,
			OriginSlot: l.OriginSlot,
			TargetID:   l.TargetID,
			TargetSlot: l.TargetSlot,
			Type:       l.Type,
		})
	}
	return doc
}

func serializeNode(n *Node) ir.NodeDoc {
	nd := ir.NodeDoc{
		ID:           n.ID,
		Type:         n.Type,
		Title:        n.Title,
		Pos:          n.Pos,
		Size:         n.Size,
		Properties:   make(map[string]any, len(n.Properties)),
		SchemaName:   n.SchemaName,
		ModelName:    n.ModelName,
		IsNative:     n.IsNative,
		IsRootType:   n.IsRootType,
		WorkflowType: n.WorkflowType,
		Color:        n.Color,
		DisplayTitle: n.DisplayTitle,
	}
	for k, v := range n.Properties {
		nd.Properties[k] = v
	}
	if n.WorkflowIndex != nil {
		idx := *n.WorkflowIndex
		nd.WorkflowIndex = &idx
	}

	for _, in := range n.Inputs {
		nd.Inputs = append(nd.Inputs, ir.SlotDoc{Name: in.Name, Type: in.Type, Link: in.Link})
	}
	for _, out := range n.Outputs {
		nd.Outputs = append(nd.Outputs, ir.SlotDoc{Name: out.Name, Type: out.Type, Links: append([]ir.LinkID(nil), out.Links...)})
	}

	if len(n.NativeInputs) > 0 {
		nd.NativeInputs = make(map[int]ir.NativeValue, len(n.NativeInputs))
		for slot, nv := range n.NativeInputs {
			nd.NativeInputs[slot] = *nv
		}
	}
	if len(n.MultiInputs) > 0 {
		nd.MultiInputs = make(map[int][]ir.LinkID, len(n.MultiInputs))
		for slot, ids := range n.MultiInputs {
			nd.MultiInputs[slot] = append([]ir.LinkID{}, ids...)
		}
	}
	nd.MultiInputSlots = copyGrouping(n.MultiInputSlots)
	nd.MultiOutputSlots = copyGrouping(n.MultiOutputSlots)
	return nd
}

func copyGrouping(m map[string][]int) map[string][]int {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string][]int, len(m))
	for field, idx := range m {
		out[field] = append([]int{}, idx...)
	}
	return out
}

// Deserialize replaces the graph contents with doc.
//
// Id counters never move backwards: they advance to the document's counters
// and highest ids, so an undo followed by a new connect hands out a fresh id.
// A new graph therefore takes the document's counters as-is.
//
// Unknown node types are skipped with a warning and links touching them are
// dropped; the load continues. The only fatal input is a document without a
// nodes array.
func (g *Graph) Deserialize(doc *ir.Document) (*LoadReport, error) {
	if doc == nil || doc.Nodes == nil {
		return nil, ir.ErrMalformedDocument
	}

	g.Clear()
	g.lastNodeID = max(g.lastNodeID, doc.LastNodeID)
	g.lastLinkID = max(g.lastLinkID, doc.LastLinkID)
	g.Camera = nil
	if doc.Camera != nil {
		cam := *doc.Camera
		g.Camera = &cam
	}

	// Ids in the document stay reserved even when their entries are dropped.
	for _, nd := range doc.Nodes {
		if nd.ID > g.lastNodeID {
			g.lastNodeID = nd.ID
		}
	}
	for _, ld := range doc.Links {
		if ld.ID > g.lastLinkID {
			g.lastLinkID = ld.ID
		}
	}

	report := &LoadReport{}
	for _, nd := range doc.Nodes {
		desc, ok := g.registry.Lookup(nd.Type)
		if !ok {
			g.logger.Warn("skipping node with unknown type", "type", nd.Type, "node_id", nd.ID)
			report.SkippedNodes = append(report.SkippedNodes, SkippedNode{ID: nd.ID, Type: nd.Type})
			continue
		}
		n := restoreNode(buildNode(desc), nd)
		if err := g.AddNode(n); err != nil {
			g.logger.Warn("skipping node", "type", nd.Type, "node_id", nd.ID, "error", err)
			report.SkippedNodes = append(report.SkippedNodes, SkippedNode{ID: nd.ID, Type: nd.Type})
		}
	}

	for _, ld := range doc.Links {
		if err := g.restoreLink(ld); err != nil {
			g.logger.Warn("dropping link", "link_id", ld.ID, "error", err)
			report.DroppedLinks = append(report.DroppedLinks, ld.ID)
		}
	}

	return report, nil
}

// Restore is Deserialize without the report.
func (g *Graph) Restore(doc *ir.Document) error {
	_, err := g.Deserialize(doc)
	return err
}

// restoreNode overlays persisted state onto a factory-built node.
func restoreNode(n *Node, nd ir.NodeDoc) *Node {
	n.ID = nd.ID
	if nd.Title != "" {
		n.Title = nd.Title
	}
	n.Pos = nd.Pos
	n.Size = nd.Size
	n.Color = nd.Color
	n.DisplayTitle = nd.DisplayTitle
	if nd.SchemaName != "" {
		n.SchemaName = nd.SchemaName
	}
	if nd.ModelName != "" {
		n.ModelName = nd.ModelName
	}
	if nd.WorkflowType != "" {
		n.WorkflowType = nd.WorkflowType
	}
	n.IsNative = n.IsNative || nd.IsNative
	n.IsRootType = n.IsRootType || nd.IsRootType
	if nd.WorkflowIndex != nil {
		idx := *nd.WorkflowIndex
		n.WorkflowIndex = &idx
	}
	for k, v := range nd.Properties {
		n.Properties[k] = v
	}

	// Persisted slot arrays win over the descriptor so keyed sub-slots survive.
	// Link references are rebuilt from the link table.
	if nd.Inputs != nil {
		n.Inputs = make([]*InputSlot, len(nd.Inputs))
		for i, s := range nd.Inputs {
			n.Inputs[i] = &InputSlot{Name: s.Name, Type: s.Type}
		}
	}
	if nd.Outputs != nil {
		n.Outputs = make([]*OutputSlot, len(nd.Outputs))
		for i, s := range nd.Outputs {
			n.Outputs[i] = &OutputSlot{Name: s.Name, Type: s.Type}
		}
	}
	rebuildMeta(n)

	if nd.MultiInputs != nil || nd.Inputs != nil {
		n.MultiInputs = make(map[int][]ir.LinkID)
		for slot := range nd.MultiInputs {
			if slot >= 0 && slot < len(n.Inputs) {
				n.MultiInputs[slot] = []ir.LinkID{}
			}
		}
		if nd.MultiInputs == nil {
			// Bundles follow the descriptor when the document is silent.
			for i, in := range n.Inputs {
				if f := n.Descriptor.Field(in.Name); f != nil && f.Bundle {
					n.MultiInputs[i] = []ir.LinkID{}
				}
			}
		}
	}

	if nd.Inputs != nil {
		natives := make(map[int]*ir.NativeValue)
		for i, in := range n.Inputs {
			if f := n.Descriptor.Field(in.Name); f != nil && f.Native {
				natives[i] = &ir.NativeValue{BaseType: f.Type, Value: f.Default, Optional: f.IsOptional()}
			}
		}
		n.NativeInputs = natives
	}
	for slot, nv := range nd.NativeInputs {
		if slot >= 0 && slot < len(n.Inputs) {
			v := nv
			n.NativeInputs[slot] = &v
		}
	}

	if nd.MultiInputSlots != nil {
		n.MultiInputSlots = copyGroupingIn(nd.MultiInputSlots, len(n.Inputs))
	} else if nd.Inputs != nil {
		n.MultiInputSlots = regroup(n.MultiInputSlots, n.InputMeta)
	}
	if nd.MultiOutputSlots != nil {
		n.MultiOutputSlots = copyGroupingIn(nd.MultiOutputSlots, len(n.Outputs))
	} else if nd.Outputs != nil {
		n.MultiOutputSlots = regroup(n.MultiOutputSlots, n.OutputMeta)
	}
	return n
}

// rebuildMeta derives per-slot metadata from slot names and the descriptor.
func rebuildMeta(n *Node) {
	n.InputMeta = make(map[int]SlotMeta, len(n.Inputs))
	for i, in := range n.Inputs {
		n.InputMeta[i] = metaFor(n, in.Name)
	}
	n.OutputMeta = make(map[int]SlotMeta, len(n.Outputs))
	for i, out := range n.Outputs {
		n.OutputMeta[i] = metaFor(n, out.Name)
	}
}

func metaFor(n *Node, slotName string) SlotMeta {
	field, key := splitSlotName(slotName)
	meta := SlotMeta{Field: field, Key: key}
	if f := n.Descriptor.Field(field); f != nil {
		meta.Optional = f.IsOptional()
	}
	return meta
}

func copyGroupingIn(m map[string][]int, n int) map[string][]int {
	out := make(map[string][]int, len(m))
	for field, idx := range m {
		kept := make([]int, 0, len(idx))
		for _, i := range idx {
			if i >= 0 && i < n {
				kept = append(kept, i)
			}
		}
		out[field] = kept
	}
	return out
}

// regroup rebuilds grouping maps for documents that carry slot arrays but no
// grouping maps. Fields present in base stay present even when empty.
func regroup(base map[string][]int, meta map[int]SlotMeta) map[string][]int {
	if base == nil {
		return nil
	}
	out := make(map[string][]int, len(base))
	for field := range base {
		out[field] = []int{}
	}
	for i := 0; i < len(meta); i++ {
		m := meta[i]
		if _, ok := out[m.Field]; ok && m.Key != "" {
			out[m.Field] = append(out[m.Field], i)
		}
	}
	return out
}

// restoreLink re-attaches a persisted link, keeping its id.
func (g *Graph) restoreLink(ld ir.LinkDoc) error {
	if _, exists := g.links[ld.ID]; exists || ld.ID == 0 {
		return &Error{Code: ErrCodeLinkNotFound, Message: fmt.Sprintf("invalid or duplicate link id %d", ld.ID), LinkID: ld.ID}
	}
	origin, ok := g.byID[ld.OriginID]
	if !ok {
		return nodeNotFound(ld.OriginID)
	}
	target, ok := g.byID[ld.TargetID]
	if !ok {
		return nodeNotFound(ld.TargetID)
	}
	if ld.OriginSlot < 0 || ld.OriginSlot >= len(origin.Outputs) {
		return slotOutOfRange(ld.OriginID, "output", ld.OriginSlot, len(origin.Outputs))
	}
	if ld.TargetSlot < 0 || ld.TargetSlot >= len(target.Inputs) {
		return slotOutOfRange(ld.TargetID, "input", ld.TargetSlot, len(target.Inputs))
	}
	if !target.IsBundle(ld.TargetSlot) && target.Inputs[ld.TargetSlot].Link != 0 {
		return &Error{Code: ErrCodeInputOccupied, Message: "input already linked", NodeID: ld.TargetID, Slot: ld.TargetSlot}
	}

	typ := ld.Type
	if typ == "" {
		typ = origin.Outputs[ld.OriginSlot].Type
	}
	g.attach(&Link{
		ID:         ld.ID,
		OriginID:   ld.OriginID,
		OriginSlot: ld.OriginSlot,
		TargetID:   ld.TargetID,
		TargetSlot: ld.TargetSlot,
		Type:       typ,
	})
	return nil
}
