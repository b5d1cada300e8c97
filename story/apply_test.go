package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEmptyBatchEqualsInput(t *testing.T) {
	doc := testDoc()

	result := Apply(doc, nil, AllPaths(), nil)

	assert.Equal(t, doc, result.Document)
	assert.NotSame(t, doc, result.Document, "result is a copy, not the same value")
	assert.Equal(t, ApplyMetrics{}, result.Metrics)
}

func TestApplyNeverMutatesInput(t *testing.T) {
	doc := testDoc()
	before := doc.Clone()

	Apply(doc, []Patch{
		{Op: OpAdd, Path: PathAcceptanceCriteria, Item: &Item{ID: "AC-3", Text: "new"}, Metadata: patchMeta()},
		{Op: OpRemove, Path: PathEdgeCases, Match: &Match{ID: "EC-1"}, Metadata: patchMeta()},
		{Op: OpReplace, Path: PathTitle, Item: &Item{Text: "Changed"}, Metadata: patchMeta()},
	}, AllPaths(), nil)

	assert.Equal(t, before, doc)
}

func TestApplyAddReplaceRemove(t *testing.T) {
	doc := testDoc()

	result := Apply(doc, []Patch{
		{Op: OpAdd, Path: PathAcceptanceCriteria, Item: &Item{ID: "AC-3", Text: "Session persists"}, Metadata: patchMeta()},
		{Op: OpReplace, Path: PathAcceptanceCriteria, Item: &Item{ID: "AC-1", Text: "Form shows email, password, and SSO"}, Match: &Match{ID: "AC-1"}, Metadata: patchMeta()},
		{Op: OpRemove, Path: PathEdgeCases, Match: &Match{ID: "EC-1"}, Metadata: patchMeta()},
		{Op: OpReplace, Path: PathStory, Item: &Item{Text: "As a user I want SSO login"}, Metadata: patchMeta()},
	}, AllPaths(), nil)

	assert.Equal(t, 4, result.Metrics.Applied)
	require.Len(t, result.Document.AcceptanceCriteria, 3)
	assert.Equal(t, "Form shows email, password, and SSO", result.Document.AcceptanceCriteria[0].Text)
	assert.Equal(t, "AC-3", result.Document.AcceptanceCriteria[2].ID)
	assert.Empty(t, result.Document.EdgeCases)
	assert.Equal(t, "As a user I want SSO login", result.Document.Story)
}

func TestApplyPathAllowList(t *testing.T) {
	doc := testDoc()

	result := Apply(doc, []Patch{
		{Op: OpAdd, Path: PathAcceptanceCriteria, Item: &Item{ID: "AC-3", Text: "allowed"}, Metadata: patchMeta()},
		{Op: OpAdd, Path: PathEdgeCases, Item: &Item{ID: "EC-2", Text: "not allowed"}, Metadata: patchMeta()},
	}, []string{PathAcceptanceCriteria}, nil)

	assert.Equal(t, 1, result.Metrics.Applied)
	assert.Equal(t, 1, result.Metrics.RejectedPath)
	assert.Len(t, result.Document.EdgeCases, 1, "disallowed patch not applied")
	require.Len(t, result.Rejections, 1)
	assert.Equal(t, "path not in allow-list", result.Rejections[0].Reason)
}

func TestApplyBadPatchDoesNotAbortBatch(t *testing.T) {
	doc := testDoc()

	result := Apply(doc, []Patch{
		{Op: OpAdd, Path: PathAcceptanceCriteria, Item: &Item{ID: "AC-1", Text: "duplicate"}, Metadata: patchMeta()},
		{Op: OpAdd, Path: PathAcceptanceCriteria, Item: &Item{ID: "AC-3", Text: "fine"}, Metadata: patchMeta()},
	}, AllPaths(), nil)

	assert.Equal(t, 1, result.Metrics.Applied)
	assert.Equal(t, 1, result.Metrics.RejectedValidation)
	assert.Len(t, result.Document.AcceptanceCriteria, 3)
}

func TestApplyValidatesAgainstEvolvingCopy(t *testing.T) {
	doc := testDoc()

	// Second add duplicates the first add's ID; the duplicate check must
	// see the first patch already applied to the working copy.
	result := Apply(doc, []Patch{
		{Op: OpAdd, Path: PathAcceptanceCriteria, Item: &Item{ID: "AC-3", Text: "first"}, Metadata: patchMeta()},
		{Op: OpAdd, Path: PathAcceptanceCriteria, Item: &Item{ID: "AC-3", Text: "second"}, Metadata: patchMeta()},
	}, AllPaths(), nil)

	assert.Equal(t, 1, result.Metrics.Applied)
	assert.Equal(t, 1, result.Metrics.RejectedValidation)
}

func TestApplyMetricsTotals(t *testing.T) {
	doc := testDoc()

	result := Apply(doc, []Patch{
		{Op: OpAdd, Path: "/bogus", Item: &Item{ID: "AC-9", Text: "x"}, Metadata: patchMeta()},
		{Op: OpAdd, Path: PathAcceptanceCriteria, Item: &Item{ID: "bad id!", Text: "x"}, Metadata: patchMeta()},
		{Op: OpAdd, Path: PathAcceptanceCriteria, Item: &Item{ID: "AC-3", Text: "ok"}, Metadata: patchMeta()},
	}, AllPaths(), nil)

	m := result.Metrics
	assert.Equal(t, 3, m.TotalPatches)
	assert.Equal(t, 1, m.Applied)
	assert.Equal(t, 1, m.RejectedPath)
	assert.Equal(t, 1, m.RejectedValidation)
}
