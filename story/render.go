package story

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders a document as human-readable markdown.
//
// The rendering is presentation only: nothing downstream parses it back,
// but the cross-reference pass feeds it to the collaborator as context.
func RenderMarkdown(d *Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	fmt.Fprintf(&b, "%s\n", d.Story)

	renderSection(&b, "Acceptance Criteria", d.AcceptanceCriteria)
	renderSection(&b, "Edge Cases", d.EdgeCases)
	renderSection(&b, "Interactions", d.Interactions)
	renderSection(&b, "Data Requirements", d.DataRequirements)

	if d.NeedsManualReview != nil {
		fmt.Fprintf(&b, "\n> Needs manual review: %s", d.NeedsManualReview.Reason)
		if d.NeedsManualReview.Score > 0 {
			fmt.Fprintf(&b, " (score %.2f)", d.NeedsManualReview.Score)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func renderSection(b *strings.Builder, heading string, items []Item) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- **%s** %s\n", item.ID, item.Text)
	}
}
