package story

import (
	"github.com/teranos/storygraph/errors"
)

// Validate checks one patch against a document without touching either.
//
// It returns nil when the patch may be applied, or a descriptive error
// naming the first contract violation found. Validation is pure; callers
// treat the error as a value (a rejection reason), not a failure of the
// batch.
func Validate(p Patch, doc *Document) error {
	if p.Path == "" {
		return errors.New("patch has no path")
	}
	if p.Metadata.AdvisorID == "" {
		return errors.New("patch has no advisor ID")
	}
	spec, ok := sections[p.Path]
	if !ok {
		return errors.Newf("unknown section path %q", p.Path)
	}

	switch p.Op {
	case OpAdd:
		return validateAdd(p, spec, doc)
	case OpReplace:
		return validateReplace(p, spec, doc)
	case OpRemove:
		return validateRemove(p, spec, doc)
	default:
		return errors.Newf("unknown patch op %q", p.Op)
	}
}

func validateAdd(p Patch, spec sectionSpec, doc *Document) error {
	if spec.kind == kindLine {
		return errors.Newf("cannot add to single-line section %q, use replace", p.Path)
	}
	if p.Item == nil {
		return errors.New("add patch has no item")
	}
	if p.Item.ID == "" {
		return errors.New("add item has no ID")
	}
	if !validItemID(p.Item.ID) {
		return errors.Newf("item ID %q contains invalid characters", p.Item.ID)
	}
	if !hasItemPrefix(p.Item.ID, spec.prefix) {
		return errors.Newf("item ID %q does not carry required prefix %q for %s", p.Item.ID, spec.prefix, p.Path)
	}
	if err := validateText(p.Item.Text); err != nil {
		return err
	}
	for _, existing := range doc.itemsAt(p.Path) {
		if existing.ID == p.Item.ID {
			return errors.Newf("duplicate item ID %q in %s", p.Item.ID, p.Path)
		}
	}
	return nil
}

func validateReplace(p Patch, spec sectionSpec, doc *Document) error {
	if p.Item == nil {
		return errors.New("replace patch has no item")
	}
	if err := validateText(p.Item.Text); err != nil {
		return err
	}
	if spec.kind == kindLine {
		// Line replace needs no match: there is exactly one value.
		return nil
	}
	if p.Match == nil || (p.Match.ID == "" && p.Match.TextEquals == "") {
		return errors.New("replace patch needs match.id or match.text_equals")
	}
	if _, found := findMatch(doc.itemsAt(p.Path), *p.Match); !found {
		return errors.Newf("no element matching %+v in %s", *p.Match, p.Path)
	}
	return nil
}

func validateRemove(p Patch, spec sectionSpec, doc *Document) error {
	if spec.kind == kindLine {
		// Removing a mandatory line is undefined; callers must replace.
		return errors.Newf("cannot remove single-line section %q", p.Path)
	}
	if p.Match == nil || (p.Match.ID == "" && p.Match.TextEquals == "") {
		return errors.New("remove patch needs match.id or match.text_equals")
	}
	if _, found := findMatch(doc.itemsAt(p.Path), *p.Match); !found {
		return errors.Newf("no element matching %+v in %s", *p.Match, p.Path)
	}
	return nil
}

func validateText(text string) error {
	if text == "" {
		return errors.New("item text is blank")
	}
	if len(text) > MaxItemTextLength {
		return errors.Newf("item text exceeds %d characters (%d)", MaxItemTextLength, len(text))
	}
	return nil
}

// findMatch returns the index of the first item matching m.
// ID match takes precedence over text equality.
func findMatch(items []Item, m Match) (int, bool) {
	if m.ID != "" {
		for i, item := range items {
			if item.ID == m.ID {
				return i, true
			}
		}
		return 0, false
	}
	for i, item := range items {
		if item.Text == m.TextEquals {
			return i, true
		}
	}
	return 0, false
}
