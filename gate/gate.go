package gate

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/storygraph/errors"
	"github.com/teranos/storygraph/graph"
	"github.com/teranos/storygraph/story"
)

// DefaultThreshold is the overall score a story must reach to be accepted
const DefaultThreshold = 0.7

// ReviewReasonLowQuality is set on stories that fail the gate even after
// their one rewrite pass
const ReviewReasonLowQuality = "low-quality-after-rewrite"

// Status is the terminal state of a gated story
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusFlagged  Status = "flagged"
)

// Outcome is the result of running one story through the gate
type Outcome struct {
	Document *story.Document `json:"document"`
	Status   Status          `json:"status"`
	Score    float64         `json:"score"`

	JudgeCalls   int `json:"judge_calls"`
	RewriteCalls int `json:"rewrite_calls"`

	// Relationships collected across all judge calls for this story
	Relationships []graph.Relationship `json:"relationships,omitempty"`
}

// Gate drives the judge -> rewrite -> re-judge protocol for one story.
//
// The protocol is an explicit finite state machine, not a retry wrapper:
// at most two judge calls and one rewrite call per story, never recursive,
// never retried beyond that. A story that still scores below threshold
// after its rewrite is flagged for manual review, terminally.
type Gate struct {
	judge     Judge
	threshold float64
	logger    *zap.SugaredLogger
}

// New creates a quality gate. A threshold of 0 selects DefaultThreshold.
func New(judge Judge, threshold float64, logger *zap.SugaredLogger) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Gate{
		judge:     judge,
		threshold: threshold,
		logger:    logger.Named("gate"),
	}
}

// Run gates one generated story. The input document is never mutated;
// the outcome carries either the input (accepted or flagged as-is) or the
// rewritten document.
func (g *Gate) Run(ctx context.Context, doc *story.Document, snapshot *graph.Graph) (*Outcome, error) {
	out := &Outcome{Document: doc}

	first, err := g.judge.Judge(ctx, doc, snapshot)
	if err != nil {
		return nil, errors.Wrapf(err, "judging story %s", doc.ID)
	}
	out.JudgeCalls++
	out.Relationships = append(out.Relationships, first.Relationships...)
	out.Score = first.OverallScore

	if first.OverallScore >= g.threshold {
		out.Status = StatusAccepted
		g.logger.Debugw("story accepted on first judgment",
			"story", doc.ID, "score", first.OverallScore)
		return out, nil
	}

	g.logger.Infow("story below threshold, rewriting once",
		"story", doc.ID,
		"score", first.OverallScore,
		"threshold", g.threshold,
		"violations", len(first.Violations),
	)

	rewritten, err := g.judge.Rewrite(ctx, doc, snapshot, first.Violations)
	if err != nil {
		return nil, errors.Wrapf(err, "rewriting story %s", doc.ID)
	}
	out.RewriteCalls++

	second, err := g.judge.Judge(ctx, rewritten, snapshot)
	if err != nil {
		return nil, errors.Wrapf(err, "re-judging story %s", doc.ID)
	}
	out.JudgeCalls++
	out.Relationships = append(out.Relationships, second.Relationships...)
	out.Score = second.OverallScore

	if second.OverallScore >= g.threshold {
		out.Document = rewritten
		out.Status = StatusAccepted
		g.logger.Infow("story accepted after rewrite",
			"story", doc.ID, "score", second.OverallScore)
		return out, nil
	}

	// Terminal: one rewrite is the cap, flag and move on.
	flagged := rewritten.Clone()
	flagged.NeedsManualReview = &story.ReviewFlag{
		Reason: ReviewReasonLowQuality,
		Score:  second.OverallScore,
	}
	out.Document = flagged
	out.Status = StatusFlagged
	g.logger.Warnw("story flagged after rewrite",
		"story", doc.ID,
		"score", second.OverallScore,
		"threshold", g.threshold,
	)
	return out, nil
}
