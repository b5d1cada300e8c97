package graph

import (
	"go.uber.org/zap"
)

// RelationshipOp is the kind of graph edit a candidate relationship proposes
type RelationshipOp string

const (
	OpAddNode  RelationshipOp = "add_node"
	OpAddEdge  RelationshipOp = "add_edge"
	OpEditNode RelationshipOp = "edit_node"
	OpEditEdge RelationshipOp = "edit_edge"
)

// Relationship is a candidate graph edit surfaced by the judgment step.
// Relationships are consumed by Merge and discarded; they are never
// persisted raw.
type Relationship struct {
	ID            string         `json:"id,omitempty"`
	Type          string         `json:"type"`      // entity type for nodes, edge kind for edges
	Operation     RelationshipOp `json:"operation"` // add_node, add_edge, edit_node, edit_edge
	Name          string         `json:"name,omitempty"`
	CanonicalName string         `json:"canonical_name,omitempty"`
	Description   string         `json:"description,omitempty"`
	Source        string         `json:"source,omitempty"`
	Target        string         `json:"target,omitempty"`
	States        []string       `json:"states,omitempty"` // state-model nodes only
	Confidence    float64        `json:"confidence"`
	Evidence      string         `json:"evidence,omitempty"`
}

// ReviewItem is a relationship the merger refused to auto-apply, with the
// reason it needs a human decision
type ReviewItem struct {
	Relationship Relationship `json:"relationship"`
	Reason       string       `json:"reason"`
}

// MergeResult reports what happened to every candidate relationship.
// Each input relationship lands in exactly one of merged / skipped /
// manual-review; nothing is dropped silently.
type MergeResult struct {
	Graph        *Graph       `json:"-"`
	MergedCount  int          `json:"merged_count"`
	Skipped      []ReviewItem `json:"skipped,omitempty"`
	ManualReview []ReviewItem `json:"manual_review,omitempty"`
}

// Merge integrates candidate relationships into a copy of the graph,
// enforcing referential integrity. The input graph is never mutated.
//
// Policy:
//   - add_node candidates apply before everything else; batch order is
//     collaborator output and carries no meaning, so an edge may reference
//     a node proposed later in the same batch.
//   - add_node with an existing ID is skipped as a duplicate.
//   - add_edge with a missing endpoint goes to manual review; an edge is
//     never added before both its endpoints exist as nodes.
//   - add_edge duplicating an existing edge (same endpoints and relation)
//     is skipped.
//   - edit_node and edit_edge always go to manual review regardless of
//     confidence: an edit can silently invalidate previously approved facts.
func Merge(g *Graph, relationships []Relationship, log *zap.SugaredLogger) MergeResult {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	out := g.Clone()
	result := MergeResult{Graph: out}

	for _, rel := range relationships {
		if rel.Operation == OpAddNode {
			result.mergeNode(out, rel, log)
		}
	}
	for _, rel := range relationships {
		switch rel.Operation {
		case OpAddNode:
			// applied in the first pass
		case OpAddEdge:
			result.mergeEdge(out, rel, log)
		case OpEditNode, OpEditEdge:
			result.ManualReview = append(result.ManualReview, ReviewItem{
				Relationship: rel,
				Reason:       "edit operations require manual review",
			})
		default:
			result.ManualReview = append(result.ManualReview, ReviewItem{
				Relationship: rel,
				Reason:       "unknown relationship operation",
			})
		}
	}

	log.Debugw("relationship merge complete",
		"candidates", len(relationships),
		"merged", result.MergedCount,
		"skipped", len(result.Skipped),
		"manual_review", len(result.ManualReview),
	)
	return result
}

func (r *MergeResult) mergeNode(g *Graph, rel Relationship, log *zap.SugaredLogger) {
	entityType := EntityType(rel.Type)
	if !entityType.Valid() {
		r.ManualReview = append(r.ManualReview, ReviewItem{
			Relationship: rel,
			Reason:       "unknown entity type",
		})
		return
	}
	if rel.ID == "" {
		r.ManualReview = append(r.ManualReview, ReviewItem{
			Relationship: rel,
			Reason:       "node has no minted ID",
		})
		return
	}
	if g.HasNode(rel.ID) {
		r.Skipped = append(r.Skipped, ReviewItem{
			Relationship: rel,
			Reason:       "duplicate node",
		})
		return
	}

	name := rel.CanonicalName
	if name == "" {
		name = rel.Name
	}
	switch entityType {
	case EntityComponent:
		g.Components[rel.ID] = Component{ID: rel.ID, CanonicalName: name, Description: rel.Description}
	case EntityStateModel:
		g.StateModels[rel.ID] = StateModel{
			ID:            rel.ID,
			CanonicalName: name,
			Description:   rel.Description,
			States:        append([]string(nil), rel.States...),
		}
	case EntityEvent:
		g.Events[rel.ID] = Event{ID: rel.ID, CanonicalName: name, Description: rel.Description}
	case EntityDataFlow:
		g.DataFlows[rel.ID] = DataFlow{ID: rel.ID, CanonicalName: name, Description: rel.Description}
	}
	r.MergedCount++
	log.Debugw("node merged", "id", rel.ID, "type", rel.Type)
}

func (r *MergeResult) mergeEdge(g *Graph, rel Relationship, log *zap.SugaredLogger) {
	kind := EdgeKind(rel.Type)
	if kind != EdgeComposition && kind != EdgeCoordination {
		r.ManualReview = append(r.ManualReview, ReviewItem{
			Relationship: rel,
			Reason:       "unknown edge kind",
		})
		return
	}
	if !g.HasNode(rel.Source) || !g.HasNode(rel.Target) {
		r.ManualReview = append(r.ManualReview, ReviewItem{
			Relationship: rel,
			Reason:       "entity references do not exist",
		})
		return
	}

	edges := g.CompositionEdges
	if kind == EdgeCoordination {
		edges = g.CoordinationEdges
	}
	for _, e := range edges {
		if e.Source == rel.Source && e.Target == rel.Target && e.Relation == rel.Name {
			r.Skipped = append(r.Skipped, ReviewItem{
				Relationship: rel,
				Reason:       "duplicate edge",
			})
			return
		}
	}

	edge := Edge{
		Source:      rel.Source,
		Target:      rel.Target,
		Relation:    rel.Name,
		Description: rel.Description,
	}
	if kind == EdgeComposition {
		g.CompositionEdges = append(g.CompositionEdges, edge)
	} else {
		g.CoordinationEdges = append(g.CoordinationEdges, edge)
	}
	r.MergedCount++
	log.Debugw("edge merged", "source", rel.Source, "target", rel.Target, "kind", rel.Type)
}
