package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneIsDeep(t *testing.T) {
	g := New()
	g.Components["CMP-A"] = Component{ID: "CMP-A", CanonicalName: "A"}
	g.StateModels["STM-S"] = StateModel{ID: "STM-S", CanonicalName: "S", States: []string{"idle"}}
	g.CompositionEdges = append(g.CompositionEdges, Edge{Source: "CMP-A", Target: "STM-S", Relation: "owns"})
	g.Vocabulary["btn"] = "Button"

	clone := g.Clone()
	clone.Components["CMP-B"] = Component{ID: "CMP-B"}
	clone.CompositionEdges[0].Relation = "changed"
	clone.Vocabulary["btn"] = "Other"
	sm := clone.StateModels["STM-S"]
	sm.States[0] = "busy"

	assert.False(t, g.HasNode("CMP-B"))
	assert.Equal(t, "owns", g.CompositionEdges[0].Relation)
	assert.Equal(t, "Button", g.Vocabulary["btn"])
	assert.Equal(t, "idle", g.StateModels["STM-S"].States[0])
}

func TestDigestStability(t *testing.T) {
	build := func() *Graph {
		g := New()
		g.Components["CMP-A"] = Component{ID: "CMP-A", CanonicalName: "A"}
		g.Events["EVT-E"] = Event{ID: "EVT-E", CanonicalName: "E"}
		g.Vocabulary["a"] = "A"
		return g
	}

	a := build()
	b := build()
	assert.NotEmpty(t, a.Digest())
	// GeneratedAt differs but content is equal, so digests match
	assert.Equal(t, a.Digest(), b.Digest())

	b.Components["CMP-B"] = Component{ID: "CMP-B"}
	assert.NotEqual(t, a.Digest(), b.Digest())
}

func TestCanonicalTerm(t *testing.T) {
	g := New()
	g.Vocabulary["signin button"] = "Login Button"

	assert.Equal(t, "Login Button", g.CanonicalTerm("signin button"))
	assert.Equal(t, "unmapped", g.CanonicalTerm("unmapped"))
}

func TestCounts(t *testing.T) {
	g := New()
	assert.Zero(t, g.NodeCount())
	assert.Zero(t, g.EdgeCount())

	g.Components["CMP-A"] = Component{ID: "CMP-A"}
	g.DataFlows["FLW-F"] = DataFlow{ID: "FLW-F"}
	g.CoordinationEdges = append(g.CoordinationEdges, Edge{Source: "CMP-A", Target: "FLW-F"})

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
}
