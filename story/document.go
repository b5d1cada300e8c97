// Package story holds the structured story document generated for each
// product description unit, and the validated patch machinery that is the
// only way a document changes after generation.
package story

import "strings"

// Section paths. Patches address sections by path, and each call site
// restricts which paths it may touch via an allow-list.
const (
	PathTitle              = "/title"
	PathStory              = "/story"
	PathAcceptanceCriteria = "/acceptanceCriteria"
	PathEdgeCases          = "/edgeCases"
	PathInteractions       = "/interactions"
	PathDataRequirements   = "/dataRequirements"
)

// MaxItemTextLength bounds the text of a single item or story line
const MaxItemTextLength = 500

// Item is one entry in an ordered list section
type Item struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ReviewFlag marks a document that needs a human decision
type ReviewFlag struct {
	Reason string  `json:"reason"`
	Score  float64 `json:"score,omitempty"`
}

// Document is one unit's structured story record.
//
// It has a fixed set of named sections: single text lines (title, story)
// and ordered item lists with section-specific ID prefixes. Documents are
// created by generation and mutated only through validated patches; every
// apply returns a new value.
type Document struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Story string `json:"story"`

	AcceptanceCriteria []Item `json:"acceptance_criteria"`
	EdgeCases          []Item `json:"edge_cases"`
	Interactions       []Item `json:"interactions"`
	DataRequirements   []Item `json:"data_requirements"`

	// GraphDigest is the digest of the graph snapshot this document was
	// generated against. A mismatch with the current graph marks the
	// document as stale.
	GraphDigest string `json:"graph_digest,omitempty"`

	NeedsManualReview *ReviewFlag `json:"needs_manual_review,omitempty"`
}

type sectionKind int

const (
	kindLine sectionKind = iota
	kindList
)

type sectionSpec struct {
	kind   sectionKind
	prefix string // required item ID prefix for list sections
}

var sections = map[string]sectionSpec{
	PathTitle:              {kind: kindLine},
	PathStory:              {kind: kindLine},
	PathAcceptanceCriteria: {kind: kindList, prefix: "AC"},
	PathEdgeCases:          {kind: kindList, prefix: "EC"},
	PathInteractions:       {kind: kindList, prefix: "IX"},
	PathDataRequirements:   {kind: kindList, prefix: "DR"},
}

// AllPaths returns every section path in a fixed order
func AllPaths() []string {
	return []string{
		PathTitle,
		PathStory,
		PathAcceptanceCriteria,
		PathEdgeCases,
		PathInteractions,
		PathDataRequirements,
	}
}

// ListPaths returns the section paths that hold ordered item lists
func ListPaths() []string {
	return []string{
		PathAcceptanceCriteria,
		PathEdgeCases,
		PathInteractions,
		PathDataRequirements,
	}
}

// KnownPath reports whether path names a document section
func KnownPath(path string) bool {
	_, ok := sections[path]
	return ok
}

// PrefixFor returns the required item ID prefix for a list path
// ("" for line paths or unknown paths)
func PrefixFor(path string) string {
	return sections[path].prefix
}

// isLinePath reports whether path holds a single text line
func isLinePath(path string) bool {
	return sections[path].kind == kindLine
}

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	out := *d
	out.AcceptanceCriteria = append([]Item(nil), d.AcceptanceCriteria...)
	out.EdgeCases = append([]Item(nil), d.EdgeCases...)
	out.Interactions = append([]Item(nil), d.Interactions...)
	out.DataRequirements = append([]Item(nil), d.DataRequirements...)
	if d.NeedsManualReview != nil {
		flag := *d.NeedsManualReview
		out.NeedsManualReview = &flag
	}
	return &out
}

// itemsAt returns the item list for a list path (nil for line paths)
func (d *Document) itemsAt(path string) []Item {
	switch path {
	case PathAcceptanceCriteria:
		return d.AcceptanceCriteria
	case PathEdgeCases:
		return d.EdgeCases
	case PathInteractions:
		return d.Interactions
	case PathDataRequirements:
		return d.DataRequirements
	}
	return nil
}

// setItems replaces the item list at a list path
func (d *Document) setItems(path string, items []Item) {
	switch path {
	case PathAcceptanceCriteria:
		d.AcceptanceCriteria = items
	case PathEdgeCases:
		d.EdgeCases = items
	case PathInteractions:
		d.Interactions = items
	case PathDataRequirements:
		d.DataRequirements = items
	}
}

// lineAt returns the text line at a line path
func (d *Document) lineAt(path string) string {
	switch path {
	case PathTitle:
		return d.Title
	case PathStory:
		return d.Story
	}
	return ""
}

// setLine replaces the text line at a line path
func (d *Document) setLine(path, text string) {
	switch path {
	case PathTitle:
		d.Title = text
	case PathStory:
		d.Story = text
	}
}

// validItemID reports whether id uses only alphanumerics and the
// separators "-" and "_"
func validItemID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !alnum && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// hasItemPrefix reports whether id carries the section's required prefix
func hasItemPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"-")
}
