package pipeline

import (
	"context"

	"github.com/teranos/storygraph/errors"
	"github.com/teranos/storygraph/graph"
	"github.com/teranos/storygraph/story"
)

// crossReference extracts cross-artifact metadata for every story.
//
// Each story sees the rendering of itself, the final graph, and the IDs
// of its siblings. Stories are processed sequentially; a failed extraction
// fails the pass (the metadata feeds the consistency scan, so a partial
// corpus would make that scan misleading).
func (p *Pipeline) crossReference(ctx context.Context, g *graph.Graph, states []*StoryState) (map[string]*CrossReference, error) {
	ids := make([]string, 0, len(states))
	for _, s := range states {
		ids = append(ids, s.ID)
	}

	out := make(map[string]*CrossReference, len(states))
	for _, s := range states {
		siblings := make([]string, 0, len(ids)-1)
		for _, id := range ids {
			if id != s.ID {
				siblings = append(siblings, id)
			}
		}

		ref, err := p.collab.CrossReference(ctx, story.RenderMarkdown(s.Document), g, siblings)
		if err != nil {
			return nil, errors.Wrapf(err, "cross-referencing story %s", s.ID)
		}
		out[s.ID] = ref
		p.logger.Debugw("cross-reference extracted",
			"story", s.ID,
			"ui_mapping", len(ref.UIMapping),
			"contract_dependencies", len(ref.ContractDependencies),
			"related", len(ref.RelatedStories),
		)
	}
	return out, nil
}
