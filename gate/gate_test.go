package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/storygraph/errors"
	"github.com/teranos/storygraph/graph"
	"github.com/teranos/storygraph/story"
)

// stubJudge returns scripted judgments in order and counts calls
type stubJudge struct {
	judgments  []Judgment
	judgeCalls int
	rewrites   int
	judgeErr   error
	rewriteErr error
}

func (s *stubJudge) Judge(_ context.Context, doc *story.Document, _ *graph.Graph) (*Judgment, error) {
	if s.judgeErr != nil {
		return nil, s.judgeErr
	}
	j := s.judgments[s.judgeCalls]
	s.judgeCalls++
	return &j, nil
}

func (s *stubJudge) Rewrite(_ context.Context, doc *story.Document, _ *graph.Graph, _ []Violation) (*story.Document, error) {
	if s.rewriteErr != nil {
		return nil, s.rewriteErr
	}
	s.rewrites++
	out := doc.Clone()
	out.Title = doc.Title + " (rewritten)"
	return out, nil
}

func testStory() *story.Document {
	return &story.Document{
		ID:    "story-1",
		Title: "Login",
		Story: "As a user I want to log in",
	}
}

func TestGateAcceptsOnFirstJudgment(t *testing.T) {
	judge := &stubJudge{judgments: []Judgment{{OverallScore: 0.9}}}
	g := New(judge, 0.7, nil)

	out, err := g.Run(context.Background(), testStory(), graph.New())
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, out.Status)
	assert.Equal(t, 1, out.JudgeCalls)
	assert.Equal(t, 0, out.RewriteCalls)
	assert.Zero(t, judge.rewrites, "no rewrite when score is at or above threshold")
	assert.Equal(t, "Login", out.Document.Title)
}

func TestGateScoreAtThresholdAccepted(t *testing.T) {
	judge := &stubJudge{judgments: []Judgment{{OverallScore: 0.7}}}
	g := New(judge, 0.7, nil)

	out, err := g.Run(context.Background(), testStory(), graph.New())
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, out.Status)
}

func TestGateRewriteThenAccept(t *testing.T) {
	judge := &stubJudge{judgments: []Judgment{
		{OverallScore: 0.5, Violations: []Violation{{Section: "/story", Description: "too vague"}}},
		{OverallScore: 0.8},
	}}
	g := New(judge, 0.7, nil)

	out, err := g.Run(context.Background(), testStory(), graph.New())
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, out.Status)
	assert.Equal(t, 2, out.JudgeCalls)
	assert.Equal(t, 1, out.RewriteCalls)
	assert.Equal(t, "Login (rewritten)", out.Document.Title)
	assert.Nil(t, out.Document.NeedsManualReview)
}

func TestGateFlagsAfterSecondLowScore(t *testing.T) {
	judge := &stubJudge{judgments: []Judgment{
		{OverallScore: 0.4},
		{OverallScore: 0.5},
	}}
	g := New(judge, 0.7, nil)

	out, err := g.Run(context.Background(), testStory(), graph.New())
	require.NoError(t, err)

	// Exactly two judge calls and one rewrite, never more
	assert.Equal(t, StatusFlagged, out.Status)
	assert.Equal(t, 2, judge.judgeCalls)
	assert.Equal(t, 1, judge.rewrites)
	require.NotNil(t, out.Document.NeedsManualReview)
	assert.Equal(t, ReviewReasonLowQuality, out.Document.NeedsManualReview.Reason)
	assert.InDelta(t, 0.5, out.Document.NeedsManualReview.Score, 1e-9)
}

func TestGateCollectsRelationshipsAcrossJudgments(t *testing.T) {
	judge := &stubJudge{judgments: []Judgment{
		{OverallScore: 0.4, Relationships: []graph.Relationship{
			{Operation: graph.OpAddNode, Type: "component", CanonicalName: "Login Form", Confidence: 0.9},
		}},
		{OverallScore: 0.9, Relationships: []graph.Relationship{
			{Operation: graph.OpAddEdge, Type: "coordination", Source: "a", Target: "b", Confidence: 0.8},
		}},
	}}
	g := New(judge, 0.7, nil)

	out, err := g.Run(context.Background(), testStory(), graph.New())
	require.NoError(t, err)
	assert.Len(t, out.Relationships, 2)
}

func TestGateInputDocumentNotMutated(t *testing.T) {
	judge := &stubJudge{judgments: []Judgment{
		{OverallScore: 0.4},
		{OverallScore: 0.4},
	}}
	g := New(judge, 0.7, nil)
	doc := testStory()

	out, err := g.Run(context.Background(), doc, graph.New())
	require.NoError(t, err)

	assert.Nil(t, doc.NeedsManualReview, "flag goes on a copy")
	assert.NotNil(t, out.Document.NeedsManualReview)
}

func TestGateJudgeErrorPropagates(t *testing.T) {
	judge := &stubJudge{judgeErr: errors.NewMalformedResponse("not JSON")}
	g := New(judge, 0.7, nil)

	_, err := g.Run(context.Background(), testStory(), graph.New())
	require.Error(t, err)
	assert.True(t, errors.IsMalformedResponse(err))
}

func TestGateRewriteErrorPropagates(t *testing.T) {
	judge := &stubJudge{
		judgments:  []Judgment{{OverallScore: 0.1}},
		rewriteErr: errors.New("rewrite failed"),
	}
	g := New(judge, 0.7, nil)

	_, err := g.Run(context.Background(), testStory(), graph.New())
	assert.Error(t, err)
}
