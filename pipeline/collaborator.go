// Package pipeline sequences the storygraph passes: discovery, refinement
// (generation + quality gate across rounds), cross-reference extraction,
// and the global consistency pass.
//
// Everything here is sequential by design. Graph and document values are
// copy-on-write: every merge or patch step takes the latest value and
// returns a new one, so a mid-pipeline failure never leaves a partially
// mutated value visible downstream.
package pipeline

import (
	"context"

	"github.com/teranos/storygraph/ai"
	"github.com/teranos/storygraph/gate"
	"github.com/teranos/storygraph/graph"
	"github.com/teranos/storygraph/story"
)

// DiscoveryInput is the material the discovery pass works from
type DiscoveryInput struct {
	// Descriptions is the ordered list of free-text unit descriptions;
	// one story is generated per description
	Descriptions []string

	// ReferenceDocs names reference documents the collaborator may cite
	ReferenceDocs []string

	// Attachments are optional image attachments forwarded to the
	// collaborator alongside the descriptions
	Attachments []ai.ContentPart
}

// DiscoveredEntity is one entity the discovery call proposes
type DiscoveredEntity struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	States      []string `json:"states,omitempty"` // state models only
}

// DiscoveredEdge is one edge the discovery call proposes, endpoint names
// given as raw entity names (resolved against the registry before merge)
type DiscoveredEdge struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Kind        string `json:"kind"` // "composition" or "coordination"
	Relation    string `json:"relation,omitempty"`
	Description string `json:"description,omitempty"`
}

// DiscoveryResult is the collaborator's structured answer to discovery
type DiscoveryResult struct {
	Components  []DiscoveredEntity `json:"components"`
	StateModels []DiscoveredEntity `json:"state_models"`
	Events      []DiscoveredEntity `json:"events"`
	DataFlows   []DiscoveredEntity `json:"data_flows"`
	Edges       []DiscoveredEdge   `json:"edges"`
	Vocabulary  map[string]string  `json:"vocabulary"`
}

// Ownership describes what product state and events one story touches
type Ownership struct {
	OwnsState       []string `json:"owns_state"`
	ConsumesState   []string `json:"consumes_state"`
	EmitsEvents     []string `json:"emits_events"`
	ListensToEvents []string `json:"listens_to_events"`
}

// RelatedStory links one story to a sibling
type RelatedStory struct {
	ID           string `json:"id"`
	Relationship string `json:"relationship"` // prerequisite, parallel, dependent, related
	Description  string `json:"description,omitempty"`
}

// CrossReference is the cross-artifact metadata extracted for one story
type CrossReference struct {
	UIMapping            []string       `json:"ui_mapping"`
	ContractDependencies []string       `json:"contract_dependencies"`
	Ownership            Ownership      `json:"ownership"`
	RelatedStories       []RelatedStory `json:"related_stories"`
}

// ConsistencyIssue is one cross-artifact contradiction found by the
// global consistency pass
type ConsistencyIssue struct {
	Description       string   `json:"description"`
	SuggestedFixType  string   `json:"suggested_fix_type"`
	Confidence        float64  `json:"confidence"`
	AffectedArtifacts []string `json:"affected_artifacts"`
}

// ConsistencyFix is a proposed patch for one issue, targeting one story
type ConsistencyFix struct {
	TargetStoryID string      `json:"target_story_id"`
	FixType       string      `json:"fix_type"`
	Patch         story.Patch `json:"patch"`
	Confidence    float64     `json:"confidence"`
	Reasoning     string      `json:"reasoning,omitempty"`
}

// ConsistencyReport is the collaborator's answer to the consistency scan
type ConsistencyReport struct {
	Issues []ConsistencyIssue `json:"issues"`
	Fixes  []ConsistencyFix   `json:"fixes"`
}

// ArtifactContext bundles one story with its cross-reference metadata for
// the consistency scan
type ArtifactContext struct {
	StoryID        string          `json:"story_id"`
	Rendering      string          `json:"rendering"`
	CrossReference *CrossReference `json:"cross_reference,omitempty"`
}

// Collaborator is the external text-generation service surface.
//
// Every call returns either a structure matching its declared contract or
// an error; partial or ambiguous text is never accepted as success.
// Implementations wrap the LLM client (see llm.go); tests use
// deterministic stubs.
type Collaborator interface {
	// Discover extracts entities, edges, and vocabulary from the input
	Discover(ctx context.Context, in DiscoveryInput) (*DiscoveryResult, error)

	// Generate produces one structured story for a description against
	// the current graph snapshot
	Generate(ctx context.Context, description string, g *graph.Graph) (*story.Document, error)

	// Judge and Rewrite implement the quality-gate protocol (gate.Judge)
	Judge(ctx context.Context, doc *story.Document, g *graph.Graph) (*gate.Judgment, error)
	Rewrite(ctx context.Context, doc *story.Document, g *graph.Graph, violations []gate.Violation) (*story.Document, error)

	// CrossReference extracts cross-artifact metadata for one story
	CrossReference(ctx context.Context, rendering string, g *graph.Graph, siblingIDs []string) (*CrossReference, error)

	// CheckConsistency scans the whole corpus for contradictions
	CheckConsistency(ctx context.Context, corpus []ArtifactContext, g *graph.Graph) (*ConsistencyReport, error)
}
