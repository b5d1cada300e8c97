package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGraph() *Graph {
	g := New()
	g.Components["CMP-LOGIN_FORM"] = Component{ID: "CMP-LOGIN_FORM", CanonicalName: "Login Form"}
	g.Components["CMP-SESSION_SERVICE"] = Component{ID: "CMP-SESSION_SERVICE", CanonicalName: "Session Service"}
	g.Events["EVT-USER_LOGGED_IN"] = Event{ID: "EVT-USER_LOGGED_IN", CanonicalName: "User Logged In"}
	return g
}

func TestMergeAddNode(t *testing.T) {
	g := seedGraph()
	rels := []Relationship{
		{
			ID:            "STM-SESSION_STATE",
			Type:          string(EntityStateModel),
			Operation:     OpAddNode,
			CanonicalName: "Session State",
			Confidence:    0.9,
		},
	}

	result := Merge(g, rels, nil)

	assert.Equal(t, 1, result.MergedCount)
	assert.Empty(t, result.Skipped)
	assert.Empty(t, result.ManualReview)
	assert.True(t, result.Graph.HasNode("STM-SESSION_STATE"))

	// Input graph untouched
	assert.False(t, g.HasNode("STM-SESSION_STATE"))
}

func TestMergeDuplicateNodeSkipped(t *testing.T) {
	g := seedGraph()
	before := g.NodeCount()

	result := Merge(g, []Relationship{
		{ID: "CMP-LOGIN_FORM", Type: string(EntityComponent), Operation: OpAddNode, CanonicalName: "Login Form"},
	}, nil)

	assert.Equal(t, 0, result.MergedCount)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "duplicate node", result.Skipped[0].Reason)
	assert.Equal(t, before, result.Graph.NodeCount())
}

func TestMergeAddEdge(t *testing.T) {
	g := seedGraph()

	result := Merge(g, []Relationship{
		{
			Type:      string(EdgeCoordination),
			Operation: OpAddEdge,
			Name:      "emits",
			Source:    "CMP-LOGIN_FORM",
			Target:    "EVT-USER_LOGGED_IN",
		},
	}, nil)

	assert.Equal(t, 1, result.MergedCount)
	require.Len(t, result.Graph.CoordinationEdges, 1)
	assert.Equal(t, "CMP-LOGIN_FORM", result.Graph.CoordinationEdges[0].Source)

	// Original graph keeps its empty edge list
	assert.Empty(t, g.CoordinationEdges)
}

func TestMergeEdgeListedBeforeItsNode(t *testing.T) {
	g := seedGraph()

	// Collaborator batch order carries no meaning: the edge references a
	// node that only appears later in the same batch.
	result := Merge(g, []Relationship{
		{
			Type:      string(EdgeCoordination),
			Operation: OpAddEdge,
			Name:      "reads",
			Source:    "CMP-LOGIN_FORM",
			Target:    "STM-SESSION_STATE",
		},
		{
			ID:            "STM-SESSION_STATE",
			Type:          string(EntityStateModel),
			Operation:     OpAddNode,
			CanonicalName: "Session State",
		},
	}, nil)

	assert.Equal(t, 2, result.MergedCount)
	assert.Empty(t, result.ManualReview)
	require.Len(t, result.Graph.CoordinationEdges, 1)
	assert.Equal(t, "STM-SESSION_STATE", result.Graph.CoordinationEdges[0].Target)
}

func TestMergeStateModelCarriesStates(t *testing.T) {
	g := New()

	result := Merge(g, []Relationship{
		{
			ID:            "STM-CART_STATE",
			Type:          string(EntityStateModel),
			Operation:     OpAddNode,
			CanonicalName: "Cart State",
			States:        []string{"empty", "active", "checked_out"},
		},
	}, nil)

	require.Equal(t, 1, result.MergedCount)
	model := result.Graph.StateModels["STM-CART_STATE"]
	assert.Equal(t, []string{"empty", "active", "checked_out"}, model.States)
}

func TestMergeDanglingEdgeGoesToManualReview(t *testing.T) {
	g := seedGraph()

	result := Merge(g, []Relationship{
		{
			Type:      string(EdgeComposition),
			Operation: OpAddEdge,
			Name:      "contains",
			Source:    "CMP-LOGIN_FORM",
			Target:    "CMP-DOES_NOT_EXIST",
		},
	}, nil)

	assert.Equal(t, 0, result.MergedCount)
	require.Len(t, result.ManualReview, 1)
	assert.Equal(t, "entity references do not exist", result.ManualReview[0].Reason)
	assert.Zero(t, result.Graph.EdgeCount())
}

func TestMergeDuplicateEdgeSkipped(t *testing.T) {
	g := seedGraph()
	g.CoordinationEdges = append(g.CoordinationEdges, Edge{
		Source: "CMP-LOGIN_FORM", Target: "EVT-USER_LOGGED_IN", Relation: "emits",
	})

	result := Merge(g, []Relationship{
		{
			Type:      string(EdgeCoordination),
			Operation: OpAddEdge,
			Name:      "emits",
			Source:    "CMP-LOGIN_FORM",
			Target:    "EVT-USER_LOGGED_IN",
		},
	}, nil)

	assert.Equal(t, 0, result.MergedCount)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "duplicate edge", result.Skipped[0].Reason)
	assert.Len(t, result.Graph.CoordinationEdges, 1)
}

func TestMergeEditsAlwaysManualReview(t *testing.T) {
	g := seedGraph()

	// Even at full confidence, edits are never auto-applied.
	result := Merge(g, []Relationship{
		{ID: "CMP-LOGIN_FORM", Type: string(EntityComponent), Operation: OpEditNode, Confidence: 1.0},
		{Type: string(EdgeCoordination), Operation: OpEditEdge, Source: "CMP-LOGIN_FORM", Target: "EVT-USER_LOGGED_IN", Confidence: 1.0},
	}, nil)

	assert.Equal(t, 0, result.MergedCount)
	require.Len(t, result.ManualReview, 2)
	for _, item := range result.ManualReview {
		assert.Equal(t, "edit operations require manual review", item.Reason)
	}
}

func TestMergeEveryRelationshipAccountedFor(t *testing.T) {
	g := seedGraph()
	rels := []Relationship{
		{ID: "CMP-NEW_WIDGET", Type: string(EntityComponent), Operation: OpAddNode, CanonicalName: "New Widget"},
		{ID: "CMP-LOGIN_FORM", Type: string(EntityComponent), Operation: OpAddNode},
		{Type: string(EdgeComposition), Operation: OpAddEdge, Source: "CMP-NOPE", Target: "CMP-LOGIN_FORM"},
		{ID: "CMP-LOGIN_FORM", Type: string(EntityComponent), Operation: OpEditNode},
		{Type: "sideways", Operation: OpAddEdge, Source: "CMP-LOGIN_FORM", Target: "EVT-USER_LOGGED_IN"},
		{Operation: RelationshipOp("rename_node")},
	}

	result := Merge(g, rels, nil)

	total := result.MergedCount + len(result.Skipped) + len(result.ManualReview)
	assert.Equal(t, len(rels), total, "every relationship lands in exactly one bucket")
}

func TestMergeNodeWithoutID(t *testing.T) {
	g := New()

	result := Merge(g, []Relationship{
		{Type: string(EntityComponent), Operation: OpAddNode, CanonicalName: "Unminted"},
	}, nil)

	assert.Equal(t, 0, result.MergedCount)
	require.Len(t, result.ManualReview, 1)
	assert.Equal(t, "node has no minted ID", result.ManualReview[0].Reason)
}
