package pipeline

import (
	"context"

	"github.com/teranos/storygraph/errors"
	"github.com/teranos/storygraph/graph"
)

// discover runs the discovery call and builds the initial graph.
//
// Entity IDs are minted through the pipeline's registry, so the same
// discovery input always produces the same IDs. Edges are routed through
// the merger rather than inserted directly, which is where the
// exists-before-edge invariant is enforced.
func (p *Pipeline) discover(ctx context.Context, in DiscoveryInput) (*graph.Graph, error) {
	result, err := p.collab.Discover(ctx, in)
	if err != nil {
		return nil, errors.Wrap(err, "discovery pass failed")
	}

	g := graph.New()
	var rels []graph.Relationship

	mintAll := func(entities []DiscoveredEntity, t graph.EntityType) {
		for _, e := range entities {
			rels = append(rels, graph.Relationship{
				ID:            p.registry.Mint(e.Name, t),
				Type:          string(t),
				Operation:     graph.OpAddNode,
				Name:          e.Name,
				CanonicalName: e.Name,
				Description:   e.Description,
				States:        e.States,
				Confidence:    1.0, // discovery output is taken as ground truth
			})
		}
	}
	mintAll(result.Components, graph.EntityComponent)
	mintAll(result.StateModels, graph.EntityStateModel)
	mintAll(result.Events, graph.EntityEvent)
	mintAll(result.DataFlows, graph.EntityDataFlow)

	for _, e := range result.Edges {
		rels = append(rels, graph.Relationship{
			Type:        e.Kind,
			Operation:   graph.OpAddEdge,
			Name:        e.Relation,
			Source:      p.resolveEndpoint(g, e.Source),
			Target:      p.resolveEndpoint(g, e.Target),
			Description: e.Description,
			Confidence:  1.0,
		})
	}

	// Merge applies node relationships before edges, so edges between
	// freshly discovered entities land within the same batch.
	merged := graph.Merge(g, rels, p.logger)
	g = merged.Graph

	for raw, canonical := range result.Vocabulary {
		g.Vocabulary[raw] = canonical
	}

	if len(merged.ManualReview) > 0 {
		p.logger.Warnw("discovery produced unresolvable relationships",
			"manual_review", len(merged.ManualReview))
	}
	p.logger.Infow("discovery complete",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"vocabulary", len(g.Vocabulary),
	)
	return g, nil
}

// resolveEndpoint maps a raw entity name (or an already-minted ID) to a
// node ID. Names unknown to the registry pass through unchanged and fall
// out at merge time as manual-review items.
func (p *Pipeline) resolveEndpoint(g *graph.Graph, ref string) string {
	if g.HasNode(ref) {
		return ref
	}
	for _, t := range []graph.EntityType{
		graph.EntityComponent,
		graph.EntityStateModel,
		graph.EntityEvent,
		graph.EntityDataFlow,
	} {
		if id, ok := p.registry.Known(ref, t); ok {
			return id
		}
	}
	return ref
}
