package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// EntityType identifies which kind of product entity a node represents
type EntityType string

const (
	EntityComponent  EntityType = "component"
	EntityStateModel EntityType = "state_model"
	EntityEvent      EntityType = "event"
	EntityDataFlow   EntityType = "data_flow"
)

// Prefix returns the stable ID prefix for this entity type.
// IDs are minted as PREFIX-KEY (see ident.go); the prefix is a fixed literal
// per type so that IDs are self-describing.
func (t EntityType) Prefix() string {
	switch t {
	case EntityComponent:
		return "CMP"
	case EntityStateModel:
		return "STM"
	case EntityEvent:
		return "EVT"
	case EntityDataFlow:
		return "FLW"
	default:
		return "UNK"
	}
}

// Valid reports whether t is one of the known entity types
func (t EntityType) Valid() bool {
	switch t {
	case EntityComponent, EntityStateModel, EntityEvent, EntityDataFlow:
		return true
	}
	return false
}

// Component is a product-level building block (screen, widget, service)
type Component struct {
	ID            string `json:"id"`
	CanonicalName string `json:"canonical_name"`
	Description   string `json:"description,omitempty"`
	Kind          string `json:"kind,omitempty"` // e.g. "ui", "service", "background"
}

// StateModel describes a piece of state a component owns and its lifecycle
type StateModel struct {
	ID            string   `json:"id"`
	CanonicalName string   `json:"canonical_name"`
	Description   string   `json:"description,omitempty"`
	States        []string `json:"states,omitempty"`
}

// Event is a discrete occurrence components emit or listen to
type Event struct {
	ID            string `json:"id"`
	CanonicalName string `json:"canonical_name"`
	Description   string `json:"description,omitempty"`
	Payload       string `json:"payload,omitempty"`
}

// DataFlow describes data moving between two parts of the product
type DataFlow struct {
	ID            string `json:"id"`
	CanonicalName string `json:"canonical_name"`
	Description   string `json:"description,omitempty"`
}

// EdgeKind selects which edge list an edge belongs to
type EdgeKind string

const (
	EdgeComposition  EdgeKind = "composition"  // parent contains child
	EdgeCoordination EdgeKind = "coordination" // peers coordinate via events/flows
)

// Edge is a relationship between two existing nodes.
// Source and Target are node IDs; the graph never stores live pointers, so
// cyclic references cost nothing to copy or serialize.
type Edge struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Relation    string `json:"relation"`
	Description string `json:"description,omitempty"`
}

// Graph is the evolving shared record of discovered product structure.
//
// Nodes are ID-indexed maps; edges reference node IDs only. The invariant
// that every edge endpoint exists as a node is enforced at merge time
// (see merge.go), never assumed.
//
// Graph values are treated as immutable between pipeline passes: every
// mutation path goes through Clone() and returns a new value.
type Graph struct {
	Components  map[string]Component  `json:"components"`
	StateModels map[string]StateModel `json:"state_models"`
	Events      map[string]Event      `json:"events"`
	DataFlows   map[string]DataFlow   `json:"data_flows"`

	CompositionEdges  []Edge `json:"composition_edges"`
	CoordinationEdges []Edge `json:"coordination_edges"`

	// Vocabulary maps raw terms seen in descriptions to canonical names
	Vocabulary map[string]string `json:"vocabulary"`

	GeneratedAt time.Time `json:"generated_at"`
}

// New creates an empty graph with initialized maps
func New() *Graph {
	return &Graph{
		Components:  make(map[string]Component),
		StateModels: make(map[string]StateModel),
		Events:      make(map[string]Event),
		DataFlows:   make(map[string]DataFlow),
		Vocabulary:  make(map[string]string),
		GeneratedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy of the graph
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Components:        make(map[string]Component, len(g.Components)),
		StateModels:       make(map[string]StateModel, len(g.StateModels)),
		Events:            make(map[string]Event, len(g.Events)),
		DataFlows:         make(map[string]DataFlow, len(g.DataFlows)),
		CompositionEdges:  make([]Edge, len(g.CompositionEdges)),
		CoordinationEdges: make([]Edge, len(g.CoordinationEdges)),
		Vocabulary:        make(map[string]string, len(g.Vocabulary)),
		GeneratedAt:       g.GeneratedAt,
	}
	for id, c := range g.Components {
		out.Components[id] = c
	}
	for id, s := range g.StateModels {
		s.States = append([]string(nil), s.States...)
		out.StateModels[id] = s
	}
	for id, e := range g.Events {
		out.Events[id] = e
	}
	for id, f := range g.DataFlows {
		out.DataFlows[id] = f
	}
	copy(out.CompositionEdges, g.CompositionEdges)
	copy(out.CoordinationEdges, g.CoordinationEdges)
	for raw, canonical := range g.Vocabulary {
		out.Vocabulary[raw] = canonical
	}
	return out
}

// HasNode reports whether any node with the given ID exists
func (g *Graph) HasNode(id string) bool {
	if _, ok := g.Components[id]; ok {
		return true
	}
	if _, ok := g.StateModels[id]; ok {
		return true
	}
	if _, ok := g.Events[id]; ok {
		return true
	}
	_, ok := g.DataFlows[id]
	return ok
}

// NodeCount returns the total number of nodes across all entity types
func (g *Graph) NodeCount() int {
	return len(g.Components) + len(g.StateModels) + len(g.Events) + len(g.DataFlows)
}

// EdgeCount returns the total number of edges across both edge lists
func (g *Graph) EdgeCount() int {
	return len(g.CompositionEdges) + len(g.CoordinationEdges)
}

// CanonicalTerm resolves a raw term through the vocabulary map.
// Unknown terms resolve to themselves.
func (g *Graph) CanonicalTerm(raw string) string {
	if canonical, ok := g.Vocabulary[raw]; ok {
		return canonical
	}
	return raw
}

// digestSnapshot is the canonical serialization used for digesting.
// GeneratedAt is excluded so two graphs with identical content share a digest.
type digestSnapshot struct {
	Components  map[string]Component  `json:"components"`
	StateModels map[string]StateModel `json:"state_models"`
	Events      map[string]Event      `json:"events"`
	DataFlows   map[string]DataFlow   `json:"data_flows"`
	Composition []Edge                `json:"composition_edges"`
	Coordination []Edge               `json:"coordination_edges"`
	Vocabulary  map[string]string     `json:"vocabulary"`
}

// Digest returns a short stable content hash of the graph.
// Stories carry the digest of the graph snapshot they were generated
// against, which is how the refinement loop detects staleness.
func (g *Graph) Digest() string {
	snap := digestSnapshot{
		Components:   g.Components,
		StateModels:  g.StateModels,
		Events:       g.Events,
		DataFlows:    g.DataFlows,
		Composition:  g.CompositionEdges,
		Coordination: g.CoordinationEdges,
		Vocabulary:   g.Vocabulary,
	}
	// encoding/json sorts map keys, so the serialization is deterministic
	data, err := json.Marshal(snap)
	if err != nil {
		// Marshal of plain maps/slices/strings cannot fail
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
