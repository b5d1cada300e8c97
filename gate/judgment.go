// Package gate runs the per-story quality gate: a bounded
// judge -> rewrite -> re-judge protocol against the shared graph.
package gate

import (
	"context"

	"github.com/teranos/storygraph/graph"
	"github.com/teranos/storygraph/story"
)

// Violation is one itemized problem the judge found in a story
type Violation struct {
	Section     string `json:"section"`
	Description string `json:"description"`
	Severity    string `json:"severity,omitempty"` // "minor", "major"
}

// Judgment is the judge's structured verdict on one story.
//
// Besides scoring, judgment is the only step that surfaces candidate
// graph edits (Relationships); the merger consumes and discards them.
type Judgment struct {
	OverallScore  float64              `json:"overall_score"` // 0..1
	Scores        map[string]float64   `json:"scores,omitempty"`
	Violations    []Violation          `json:"violations,omitempty"`
	Relationships []graph.Relationship `json:"relationships,omitempty"`
}

// Judge is the external collaborator surface the gate depends on.
// Implementations wrap the text-generation service; a malformed response
// must surface as an error, never as a guessed Judgment.
type Judge interface {
	// Judge scores a story against the graph snapshot it was built from
	Judge(ctx context.Context, doc *story.Document, g *graph.Graph) (*Judgment, error)

	// Rewrite produces a revised story addressing the judge's violations
	Rewrite(ctx context.Context, doc *story.Document, g *graph.Graph, violations []Violation) (*story.Document, error)
}
