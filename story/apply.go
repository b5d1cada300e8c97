package story

import (
	"go.uber.org/zap"
)

// ApplyMetrics counts what happened to a patch batch
type ApplyMetrics struct {
	TotalPatches       int `json:"total_patches"`
	Applied            int `json:"applied"`
	RejectedPath       int `json:"rejected_path"`
	RejectedValidation int `json:"rejected_validation"`
}

// Rejection records one patch that was not applied and why
type Rejection struct {
	Patch  Patch  `json:"patch"`
	Reason string `json:"reason"`
}

// ApplyResult is the outcome of applying a patch batch
type ApplyResult struct {
	Document   *Document    `json:"document"`
	Metrics    ApplyMetrics `json:"metrics"`
	Rejections []Rejection  `json:"rejections,omitempty"`
}

// Apply applies a patch batch to a copy of the document under a path
// allow-list.
//
// Per patch: a path outside allowedPaths counts as rejectedPath; a patch
// failing Validate counts as rejectedValidation; otherwise the patch is
// applied structurally (append for add, splice-replace for replace,
// filter-out for remove). A bad patch is skipped, never aborting the batch.
//
// The input document is never mutated; with zero applied patches the
// returned document equals the input.
func Apply(doc *Document, patches []Patch, allowedPaths []string, log *zap.SugaredLogger) ApplyResult {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	allowed := make(map[string]bool, len(allowedPaths))
	for _, p := range allowedPaths {
		allowed[p] = true
	}

	out := doc.Clone()
	result := ApplyResult{Metrics: ApplyMetrics{TotalPatches: len(patches)}}

	for _, p := range patches {
		if !allowed[p.Path] {
			result.Metrics.RejectedPath++
			result.Rejections = append(result.Rejections, Rejection{
				Patch:  p,
				Reason: "path not in allow-list",
			})
			log.Debugw("patch rejected", "path", p.Path, "op", p.Op, "reason", "path not allowed")
			continue
		}
		if err := Validate(p, out); err != nil {
			result.Metrics.RejectedValidation++
			result.Rejections = append(result.Rejections, Rejection{
				Patch:  p,
				Reason: err.Error(),
			})
			log.Debugw("patch rejected", "path", p.Path, "op", p.Op, "reason", err.Error())
			continue
		}
		applyOne(out, p)
		result.Metrics.Applied++
	}

	result.Document = out
	log.Debugw("patch batch applied",
		"total", result.Metrics.TotalPatches,
		"applied", result.Metrics.Applied,
		"rejected_path", result.Metrics.RejectedPath,
		"rejected_validation", result.Metrics.RejectedValidation,
	)
	return result
}

// applyOne performs the structural mutation for an already-validated patch
func applyOne(doc *Document, p Patch) {
	if isLinePath(p.Path) {
		// Only replace reaches here for line paths
		doc.setLine(p.Path, p.Item.Text)
		return
	}

	items := doc.itemsAt(p.Path)
	switch p.Op {
	case OpAdd:
		doc.setItems(p.Path, append(items, *p.Item))
	case OpReplace:
		idx, _ := findMatch(items, *p.Match)
		replaced := append([]Item(nil), items...)
		replaced[idx] = *p.Item
		doc.setItems(p.Path, replaced)
	case OpRemove:
		idx, _ := findMatch(items, *p.Match)
		kept := make([]Item, 0, len(items)-1)
		kept = append(kept, items[:idx]...)
		kept = append(kept, items[idx+1:]...)
		doc.setItems(p.Path, kept)
	}
}
