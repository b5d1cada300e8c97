package pipeline

import (
	"context"

	"github.com/teranos/storygraph/errors"
	"github.com/teranos/storygraph/graph"
	"github.com/teranos/storygraph/story"
)

// DefaultAutoFixConfidence is the bound a fix's confidence must exceed
// (strictly) before it may be auto-applied
const DefaultAutoFixConfidence = 0.8

// Fix types safe enough to auto-apply. Everything else needs a human.
const (
	FixTermNormalization       = "term_normalization"
	FixContractIDNormalization = "contract_id_normalization"
	FixBidirectionalLink       = "bidirectional_link"
)

var autoFixSafeList = map[string]bool{
	FixTermNormalization:       true,
	FixContractIDNormalization: true,
	FixBidirectionalLink:       true,
}

// FlaggedFix is a fix that was not auto-applied, with the reason
type FlaggedFix struct {
	Fix    ConsistencyFix `json:"fix"`
	Reason string         `json:"reason"`
}

// ConsistencyOutcome is the result of the global consistency pass
type ConsistencyOutcome struct {
	Report  *ConsistencyReport `json:"report"`
	Applied []ConsistencyFix   `json:"applied,omitempty"`
	Flagged []FlaggedFix       `json:"flagged,omitempty"`
}

// checkConsistency runs the single cross-artifact contradiction scan and
// gates its fixes.
//
// A fix is auto-applied only when its type is on the safe-list AND its
// confidence strictly exceeds the auto-fix bound, via the patch
// orchestrator scoped to the target story. Everything else, including
// fixes whose application is rejected, is flagged for manual review;
// nothing is silently discarded and nothing is retried.
func (p *Pipeline) checkConsistency(ctx context.Context, g *graph.Graph, states []*StoryState, refs map[string]*CrossReference) (*ConsistencyOutcome, error) {
	corpus := make([]ArtifactContext, 0, len(states))
	byID := make(map[string]*StoryState, len(states))
	for _, s := range states {
		corpus = append(corpus, ArtifactContext{
			StoryID:        s.ID,
			Rendering:      story.RenderMarkdown(s.Document),
			CrossReference: refs[s.ID],
		})
		byID[s.ID] = s
	}

	report, err := p.collab.CheckConsistency(ctx, corpus, g)
	if err != nil {
		return nil, errors.Wrap(err, "consistency scan failed")
	}

	outcome := &ConsistencyOutcome{Report: report}
	for _, fix := range report.Fixes {
		target, ok := byID[fix.TargetStoryID]
		if !ok {
			outcome.flag(fix, "target story does not exist")
			continue
		}
		if !autoFixSafeList[fix.FixType] {
			outcome.flag(fix, "fix type not on auto-apply safe-list")
			continue
		}
		if fix.Confidence <= p.opts.AutoFixConfidence {
			outcome.flag(fix, "confidence at or below auto-apply bound")
			continue
		}

		patch := fix.Patch
		if patch.Metadata.AdvisorID == "" {
			patch.Metadata.AdvisorID = p.advisorID
		}
		applied := story.Apply(target.Document, []story.Patch{patch}, story.AllPaths(), p.logger)
		if applied.Metrics.Applied != 1 {
			reason := "patch application rejected"
			if len(applied.Rejections) > 0 {
				reason = applied.Rejections[0].Reason
			}
			outcome.flag(fix, reason)
			continue
		}

		target.Document = applied.Document
		outcome.Applied = append(outcome.Applied, fix)
		p.logger.Infow("consistency fix applied",
			"story", fix.TargetStoryID,
			"fix_type", fix.FixType,
			"confidence", fix.Confidence,
		)
	}

	p.logger.Infow("consistency pass complete",
		"issues", len(report.Issues),
		"fixes", len(report.Fixes),
		"applied", len(outcome.Applied),
		"flagged", len(outcome.Flagged),
	)
	return outcome, nil
}

func (o *ConsistencyOutcome) flag(fix ConsistencyFix, reason string) {
	o.Flagged = append(o.Flagged, FlaggedFix{Fix: fix, Reason: reason})
}
