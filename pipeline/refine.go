package pipeline

import (
	"context"

	"github.com/teranos/storygraph/errors"
	"github.com/teranos/storygraph/gate"
	"github.com/teranos/storygraph/graph"
	"github.com/teranos/storygraph/story"
)

const (
	// DefaultMaxRounds bounds the refinement loop. Bounded termination
	// takes priority over exhaustive discovery.
	DefaultMaxRounds = 3

	// DefaultConfidenceFloor is the minimum confidence for a judge-surfaced
	// relationship to be merged; lower-confidence candidates are dropped
	// for the round, not escalated.
	DefaultConfidenceFloor = 0.75
)

// StoryState tracks one description unit through the refinement rounds
type StoryState struct {
	ID          string `json:"id"`
	Description string `json:"description"`

	Document *story.Document `json:"document,omitempty"`
	Outcome  *gate.Outcome   `json:"outcome,omitempty"`
}

// RefineResult is the outcome of the refinement loop
type RefineResult struct {
	Graph     *graph.Graph
	Stories   []*StoryState
	Rounds    int
	Converged bool
}

// refine drives generation + quality gate across rounds, feeding
// high-confidence judge-discovered relationships back into the graph
// until a round merges nothing or the round cap is hit.
func (p *Pipeline) refine(ctx context.Context, g *graph.Graph, states []*StoryState) (*RefineResult, error) {
	result := &RefineResult{Graph: g, Stories: states}

	for round := 1; round <= p.opts.MaxRounds; round++ {
		if p.opts.BeforeRound != nil {
			if err := p.opts.BeforeRound(round); err != nil {
				return nil, errors.Wrapf(err, "refinement halted before round %d", round)
			}
		}
		result.Rounds = round
		p.progress.Round(round, p.opts.MaxRounds)
		digest := g.Digest()
		var collected []graph.Relationship

		for i, state := range states {
			p.progress.Story(state.ID, i+1, len(states))
			// A story generated against the current graph snapshot is
			// final for this round; regeneration only happens when the
			// graph moved underneath it.
			if state.Document != nil && state.Document.GraphDigest == digest {
				continue
			}

			doc, err := p.collab.Generate(ctx, state.Description, g)
			if err != nil {
				return nil, errors.Wrapf(err, "generating story %s (round %d)", state.ID, round)
			}
			doc.ID = state.ID
			doc.GraphDigest = digest

			outcome, err := p.gate.Run(ctx, doc, g)
			if err != nil {
				return nil, errors.Wrapf(err, "gating story %s (round %d)", state.ID, round)
			}
			outcome.Document.ID = state.ID
			outcome.Document.GraphDigest = digest
			state.Document = outcome.Document
			state.Outcome = outcome
			collected = append(collected, outcome.Relationships...)
		}

		high := p.filterByConfidence(collected)
		p.resolveRelationships(g, high)
		merged := graph.Merge(g, high, p.logger)

		p.logger.Infow("refinement round complete",
			"round", round,
			"candidates", len(collected),
			"high_confidence", len(high),
			"merged", merged.MergedCount,
			"skipped", len(merged.Skipped),
			"manual_review", len(merged.ManualReview),
		)

		if merged.MergedCount == 0 {
			// Convergence: nothing new entered the graph this round.
			// Manual-review-only rounds count as converged too, but the
			// stall is made visible rather than silently folded in.
			if len(merged.ManualReview) > 0 {
				p.logger.Warnw("converged with relationships pending manual review",
					"round", round, "pending", len(merged.ManualReview))
			}
			result.Graph = g
			result.Converged = true
			return result, nil
		}

		g = merged.Graph
		result.Graph = g
	}

	p.logger.Warnw("refinement stopped at max rounds without convergence",
		"max_rounds", p.opts.MaxRounds)
	return result, nil
}

// filterByConfidence keeps only high-confidence candidates
func (p *Pipeline) filterByConfidence(rels []graph.Relationship) []graph.Relationship {
	out := make([]graph.Relationship, 0, len(rels))
	for _, rel := range rels {
		if rel.Confidence >= p.opts.ConfidenceFloor {
			out = append(out, rel)
			continue
		}
		p.logger.Debugw("relationship dropped below confidence floor",
			"operation", rel.Operation,
			"name", rel.Name,
			"confidence", rel.Confidence,
			"floor", p.opts.ConfidenceFloor,
		)
	}
	return out
}

// resolveRelationships mints IDs for add_node candidates and resolves
// edge endpoints given as raw names to node IDs. Registry minting is
// memoized, so resolution stays deterministic across rounds.
//
// All nodes mint before any edge resolves: a judgment batch lists
// relationships in collaborator order, and an edge may name a node that
// appears later in the same batch.
func (p *Pipeline) resolveRelationships(g *graph.Graph, rels []graph.Relationship) {
	for i := range rels {
		rel := &rels[i]
		if rel.Operation != graph.OpAddNode || rel.ID != "" {
			continue
		}
		name := rel.CanonicalName
		if name == "" {
			name = rel.Name
		}
		rel.ID = p.registry.Mint(name, graph.EntityType(rel.Type))
	}
	for i := range rels {
		rel := &rels[i]
		if rel.Operation != graph.OpAddEdge {
			continue
		}
		rel.Source = p.resolveEndpoint(g, rel.Source)
		rel.Target = p.resolveEndpoint(g, rel.Target)
	}
}
