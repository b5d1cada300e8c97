package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/storygraph/errors"
	"github.com/teranos/storygraph/gate"
	"github.com/teranos/storygraph/graph"
	"github.com/teranos/storygraph/story"
)

// Options configures a pipeline run. Zero values select defaults.
type Options struct {
	MaxRounds         int     // refinement round cap (default 3)
	QualityThreshold  float64 // quality-gate acceptance score (default gate.DefaultThreshold)
	ConfidenceFloor   float64 // minimum confidence for merging relationships (default 0.75)
	AutoFixConfidence float64 // bound a fix must strictly exceed to auto-apply (default 0.8)

	// BeforeRound, when set, runs before each refinement round; a non-nil
	// error aborts the run with the stories generated so far discarded.
	// The generate command uses it to re-check spend against budget
	// limits that may have been edited while the run is in flight.
	BeforeRound func(round int) error
}

func (o Options) withDefaults() Options {
	if o.MaxRounds <= 0 {
		o.MaxRounds = DefaultMaxRounds
	}
	if o.QualityThreshold <= 0 {
		o.QualityThreshold = gate.DefaultThreshold
	}
	if o.ConfidenceFloor <= 0 {
		o.ConfidenceFloor = DefaultConfidenceFloor
	}
	if o.AutoFixConfidence <= 0 {
		o.AutoFixConfidence = DefaultAutoFixConfidence
	}
	return o
}

// Result is everything a pipeline run produces. The pipeline returns its
// best current stories and graph even when refinement hits the round cap
// without converging.
type Result struct {
	RunID       string                     `json:"run_id"`
	Graph       *graph.Graph               `json:"graph"`
	Stories     []*StoryState              `json:"stories"`
	CrossRefs   map[string]*CrossReference `json:"cross_refs"`
	Consistency *ConsistencyOutcome        `json:"consistency"`
	Rounds      int                        `json:"rounds"`
	Converged   bool                       `json:"converged"`
}

// Progress receives coarse run progress for display layers. All methods
// are called sequentially from the run goroutine.
type Progress interface {
	Pass(name string)
	Round(round, maxRounds int)
	Story(id string, index, total int)
}

type nopProgress struct{}

func (nopProgress) Pass(string)           {}
func (nopProgress) Round(int, int)        {}
func (nopProgress) Story(string, int, int) {}

// Pipeline sequences discovery, refinement, cross-reference extraction,
// and the global consistency pass over one set of descriptions.
//
// A Pipeline owns its identifier registry, so independent runs cannot
// contaminate each other's minted IDs.
type Pipeline struct {
	collab    Collaborator
	registry  *graph.Registry
	gate      *gate.Gate
	opts      Options
	logger    *zap.SugaredLogger
	progress  Progress
	advisorID string
}

// New creates a pipeline around a collaborator
func New(collab Collaborator, opts Options, logger *zap.SugaredLogger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	opts = opts.withDefaults()
	runID := uuid.NewString()
	return &Pipeline{
		collab:    collab,
		registry:  graph.NewRegistry(),
		gate:      gate.New(collaboratorJudge{collab}, opts.QualityThreshold, logger),
		opts:      opts,
		logger:    logger.Named("pipeline"),
		progress:  nopProgress{},
		advisorID: "consistency-" + runID[:8],
	}
}

// SetProgress installs a progress sink (nil resets to no-op)
func (p *Pipeline) SetProgress(progress Progress) {
	if progress == nil {
		progress = nopProgress{}
	}
	p.progress = progress
}

// Run executes the full pipeline sequentially.
func (p *Pipeline) Run(ctx context.Context, in DiscoveryInput) (*Result, error) {
	if len(in.Descriptions) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "no descriptions to process")
	}

	runID := uuid.NewString()
	p.logger.Infow("pipeline run starting",
		"run_id", runID,
		"descriptions", len(in.Descriptions),
		"max_rounds", p.opts.MaxRounds,
	)

	p.progress.Pass("discovery")
	g, err := p.discover(ctx, in)
	if err != nil {
		return nil, err
	}

	states := make([]*StoryState, len(in.Descriptions))
	for i, desc := range in.Descriptions {
		states[i] = &StoryState{
			ID:          fmt.Sprintf("story-%03d", i+1),
			Description: desc,
		}
	}

	p.progress.Pass("refinement")
	refined, err := p.refine(ctx, g, states)
	if err != nil {
		return nil, err
	}

	p.progress.Pass("cross-reference")
	refs, err := p.crossReference(ctx, refined.Graph, refined.Stories)
	if err != nil {
		return nil, err
	}

	p.progress.Pass("consistency")
	consistency, err := p.checkConsistency(ctx, refined.Graph, refined.Stories, refs)
	if err != nil {
		return nil, err
	}

	p.logger.Infow("pipeline run complete",
		"run_id", runID,
		"rounds", refined.Rounds,
		"converged", refined.Converged,
		"nodes", refined.Graph.NodeCount(),
		"edges", refined.Graph.EdgeCount(),
	)
	return &Result{
		RunID:       runID,
		Graph:       refined.Graph,
		Stories:     refined.Stories,
		CrossRefs:   refs,
		Consistency: consistency,
		Rounds:      refined.Rounds,
		Converged:   refined.Converged,
	}, nil
}

// collaboratorJudge adapts the Collaborator to the gate.Judge surface
type collaboratorJudge struct {
	collab Collaborator
}

func (j collaboratorJudge) Judge(ctx context.Context, doc *story.Document, g *graph.Graph) (*gate.Judgment, error) {
	return j.collab.Judge(ctx, doc, g)
}

func (j collaboratorJudge) Rewrite(ctx context.Context, doc *story.Document, g *graph.Graph, violations []gate.Violation) (*story.Document, error) {
	return j.collab.Rewrite(ctx, doc, g, violations)
}
