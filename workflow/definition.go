package workflow

import (
	"fmt"

	"github.com/xraph/traverse"
)

// Definition is an immutable, named workflow graph template. Register it
// once; instances created from it hold only the definition name, so a
// definition must not be mutated after registration.
type Definition struct {
	// Name is the unique identifier for this workflow type.
	Name string

	// Version is informational. The registry keys definitions by Name
	// only; a new version needs a new name or an explicit superseding
	// mechanism owned by the consumer.
	Version int

	// Nodes maps node id to node. Exactly one node should be the start
	// node (id "start") and at least one node should be of type end.
	Nodes map[string]*Node

	// Edges lists the directed arcs of the graph. Order matters: "first
	// outgoing edge" resolution walks this slice front to back.
	Edges []Edge

	// InitialState produces the instance data a new instance starts
	// with, before creation overrides are merged. Nil means empty data.
	InitialState func() map[string]any
}

// Validate reports structural problems with the graph: edges referencing
// unknown nodes, a missing or mistyped start node, or no end node. It is
// advisory; the registry accepts malformed graphs and transitions fail at
// the dead end instead. Consumers that want strictness call it before
// Register.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", traverse.ErrInvalidDefinition)
	}
	if len(d.Nodes) == 0 {
		return fmt.Errorf("%w: definition %q has no nodes", traverse.ErrInvalidDefinition, d.Name)
	}

	start, ok := d.Nodes[StartNodeID]
	if !ok {
		return fmt.Errorf("%w: definition %q has no %q node", traverse.ErrInvalidDefinition, d.Name, StartNodeID)
	}
	if start.Type != NodeStart {
		return fmt.Errorf("%w: definition %q node %q has type %q, want %q",
			traverse.ErrInvalidDefinition, d.Name, StartNodeID, start.Type, NodeStart)
	}

	hasEnd := false
	for nodeID, n := range d.Nodes {
		if n.Type == NodeEnd {
			hasEnd = true
		}
		if n.ID != "" && n.ID != nodeID {
			return fmt.Errorf("%w: definition %q node keyed %q carries id %q",
				traverse.ErrInvalidDefinition, d.Name, nodeID, n.ID)
		}
	}
	if !hasEnd {
		return fmt.Errorf("%w: definition %q has no end node", traverse.ErrInvalidDefinition, d.Name)
	}

	for _, e := range d.Edges {
		if _, ok := d.Nodes[e.From]; !ok {
			return fmt.Errorf("%w: definition %q edge references unknown from-node %q",
				traverse.ErrInvalidDefinition, d.Name, e.From)
		}
		if _, ok := d.Nodes[e.To]; !ok {
			return fmt.Errorf("%w: definition %q edge references unknown to-node %q",
				traverse.ErrInvalidDefinition, d.Name, e.To)
		}
	}

	return nil
}

// clone returns a defensive copy of the definition: fresh node map and
// edge slice, shallow-copied nodes. Handler and Condition values are
// shared; they are injected once at registration and treated as
// immutable.
func (d *Definition) clone() *Definition {
	cp := &Definition{
		Name:         d.Name,
		Version:      d.Version,
		Nodes:        make(map[string]*Node, len(d.Nodes)),
		Edges:        make([]Edge, len(d.Edges)),
		InitialState: d.InitialState,
	}
	for nodeID, n := range d.Nodes {
		nc := *n
		cp.Nodes[nodeID] = &nc
	}
	copy(cp.Edges, d.Edges)
	return cp
}

// firstEdge returns the first edge in definition order leaving the given
// node, or false when the node has no outgoing edge.
func (d *Definition) firstEdge(from string) (Edge, bool) {
	for _, e := range d.Edges {
		if e.From == from {
			return e, true
		}
	}
	return Edge{}, false
}

// edgeForLabel resolves a decision label against the node's outgoing
// edges. It first looks for an edge whose Label matches; failing that it
// falls back to an edge whose To equals the label verbatim, treating the
// condition's return value as a direct node id. Conditions in deployed
// graphs return node ids as often as labels, so the fallback stays; the
// runner logs when it is taken.
func (d *Definition) edgeForLabel(from, label string) (Edge, bool, bool) {
	for _, e := range d.Edges {
		if e.From == from && e.Label == label {
			return e, true, false
		}
	}
	for _, e := range d.Edges {
		if e.From == from && e.To == label {
			return e, true, true
		}
	}
	return Edge{}, false, false
}
