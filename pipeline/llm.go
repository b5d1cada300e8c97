package pipeline

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/teranos/storygraph/ai"
	"github.com/teranos/storygraph/errors"
	"github.com/teranos/storygraph/gate"
	"github.com/teranos/storygraph/graph"
	"github.com/teranos/storygraph/prompts"
	"github.com/teranos/storygraph/story"
)

// AIClient is the chat surface the collaborator needs. *ai.Client
// satisfies it; tests substitute stubs.
type AIClient interface {
	Chat(ctx context.Context, req ai.Request) (*ai.Response, error)
}

// LLMCollaborator implements Collaborator over an AI client.
//
// Every call is a single bounded request/response. Timeouts surface as
// typed timeout errors and abort only the current call; malformed output
// surfaces as ErrMalformedResponse and fails the enclosing pass.
type LLMCollaborator struct {
	client AIClient
	logger *zap.SugaredLogger
}

// NewLLMCollaborator wraps an AI client as a pipeline collaborator
func NewLLMCollaborator(client AIClient, logger *zap.SugaredLogger) *LLMCollaborator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LLMCollaborator{
		client: client,
		logger: logger.Named("collaborator"),
	}
}

func (c *LLMCollaborator) chat(ctx context.Context, operation, system, user string, attachments []ai.ContentPart) (string, error) {
	resp, err := c.client.Chat(ctx, ai.Request{
		Operation:   operation,
		System:      system,
		User:        user,
		Attachments: attachments,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", errors.Wrapf(errors.ErrTimeout, "%s call: %v", operation, err)
		}
		return "", errors.Wrapf(err, "%s call failed", operation)
	}
	c.logger.Debugw("collaborator call complete",
		"operation", operation,
		"content_length", len(resp.Content),
		"total_tokens", resp.Usage.TotalTokens,
	)
	return resp.Content, nil
}

// Discover implements Collaborator
func (c *LLMCollaborator) Discover(ctx context.Context, in DiscoveryInput) (*DiscoveryResult, error) {
	content, err := c.chat(ctx, "discovery",
		prompts.DiscoverySystem,
		prompts.Discovery(in.Descriptions, in.ReferenceDocs),
		in.Attachments)
	if err != nil {
		return nil, err
	}

	var result DiscoveryResult
	if err := decodeStrict(content, &result); err != nil {
		return nil, errors.Wrap(err, "discovery response")
	}
	return &result, nil
}

// Generate implements Collaborator
func (c *LLMCollaborator) Generate(ctx context.Context, description string, g *graph.Graph) (*story.Document, error) {
	graphJSON, err := json.Marshal(g)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling graph snapshot")
	}
	content, err := c.chat(ctx, "generation",
		prompts.GenerateSystem,
		prompts.Generate(description, graphJSON),
		nil)
	if err != nil {
		return nil, err
	}

	var doc story.Document
	if err := decodeStrict(content, &doc); err != nil {
		return nil, errors.Wrap(err, "generation response")
	}
	if doc.Title == "" || doc.Story == "" {
		return nil, errors.NewMalformedResponse("generated story missing title or story line")
	}
	return &doc, nil
}

// Judge implements Collaborator (and, via the pipeline adapter, gate.Judge)
func (c *LLMCollaborator) Judge(ctx context.Context, doc *story.Document, g *graph.Graph) (*gate.Judgment, error) {
	storyJSON, graphJSON, err := marshalPair(doc, g)
	if err != nil {
		return nil, err
	}
	content, err := c.chat(ctx, "judgment",
		prompts.JudgeSystem,
		prompts.Judge(storyJSON, graphJSON),
		nil)
	if err != nil {
		return nil, err
	}

	var judgment gate.Judgment
	if err := decodeStrict(content, &judgment); err != nil {
		return nil, errors.Wrap(err, "judgment response")
	}
	if judgment.OverallScore < 0 || judgment.OverallScore > 1 {
		return nil, errors.NewMalformedResponse("overall_score %v out of range", judgment.OverallScore)
	}
	return &judgment, nil
}

// Rewrite implements Collaborator
func (c *LLMCollaborator) Rewrite(ctx context.Context, doc *story.Document, g *graph.Graph, violations []gate.Violation) (*story.Document, error) {
	storyJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling story")
	}
	content, err := c.chat(ctx, "rewrite",
		prompts.RewriteSystem,
		prompts.Rewrite(storyJSON, violations),
		nil)
	if err != nil {
		return nil, err
	}

	var rewritten story.Document
	if err := decodeStrict(content, &rewritten); err != nil {
		return nil, errors.Wrap(err, "rewrite response")
	}
	if rewritten.Title == "" || rewritten.Story == "" {
		return nil, errors.NewMalformedResponse("rewritten story missing title or story line")
	}
	// Identity and staleness marker always survive the rewrite
	rewritten.ID = doc.ID
	rewritten.GraphDigest = doc.GraphDigest
	return &rewritten, nil
}

// CrossReference implements Collaborator
func (c *LLMCollaborator) CrossReference(ctx context.Context, rendering string, g *graph.Graph, siblingIDs []string) (*CrossReference, error) {
	graphJSON, err := json.Marshal(g)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling graph snapshot")
	}
	content, err := c.chat(ctx, "cross-reference",
		prompts.CrossReferenceSystem,
		prompts.CrossReference(rendering, graphJSON, siblingIDs),
		nil)
	if err != nil {
		return nil, err
	}

	var ref CrossReference
	if err := decodeStrict(content, &ref); err != nil {
		return nil, errors.Wrap(err, "cross-reference response")
	}
	return &ref, nil
}

// CheckConsistency implements Collaborator
func (c *LLMCollaborator) CheckConsistency(ctx context.Context, corpus []ArtifactContext, g *graph.Graph) (*ConsistencyReport, error) {
	corpusJSON, err := json.Marshal(corpus)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling corpus")
	}
	graphJSON, err := json.Marshal(g)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling graph snapshot")
	}
	content, err := c.chat(ctx, "consistency",
		prompts.ConsistencySystem,
		prompts.Consistency(corpusJSON, graphJSON),
		nil)
	if err != nil {
		return nil, err
	}

	var report ConsistencyReport
	if err := decodeStrict(content, &report); err != nil {
		return nil, errors.Wrap(err, "consistency response")
	}
	for _, fix := range report.Fixes {
		if fix.Confidence < 0 || fix.Confidence > 1 {
			return nil, errors.NewMalformedResponse("fix confidence %v out of range", fix.Confidence)
		}
	}
	return &report, nil
}

func marshalPair(doc *story.Document, g *graph.Graph) ([]byte, []byte, error) {
	storyJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, errors.Wrap(err, "marshaling story")
	}
	graphJSON, err := json.Marshal(g)
	if err != nil {
		return nil, nil, errors.Wrap(err, "marshaling graph snapshot")
	}
	return storyJSON, graphJSON, nil
}
