package story

// PatchOp is the structural operation a patch performs
type PatchOp string

const (
	OpAdd     PatchOp = "add"
	OpReplace PatchOp = "replace"
	OpRemove  PatchOp = "remove"
)

// Match selects an existing element in a list section for replace/remove.
// Exactly one of ID or TextEquals should be set; ID wins when both are.
type Match struct {
	ID         string `json:"id,omitempty"`
	TextEquals string `json:"text_equals,omitempty"`
}

// PatchMetadata records who proposed a patch
type PatchMetadata struct {
	AdvisorID string `json:"advisor_id"`
}

// Patch is one structured edit to a document section.
//
// The payload is a tagged union keyed by Op: add requires Item, replace
// requires Item plus (for list paths) Match, remove requires Match and is
// rejected on line paths. Every variant's required-field contract is
// checked by Validate before any structural mutation.
type Patch struct {
	Op       PatchOp       `json:"op"`
	Path     string        `json:"path"`
	Item     *Item         `json:"item,omitempty"`
	Match    *Match        `json:"match,omitempty"`
	Metadata PatchMetadata `json:"metadata"`
}
