package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// FieldRef is a lightweight handle on a single form control. The scope node
// bounds lookups that depend on surrounding context, such as radio groups and
// label resolution; it is usually the form element being validated.
type FieldRef struct {
	doc   *Document
	node  *html.Node
	scope *html.Node
}

// NewFieldRef wraps a control node. A nil scope falls back to the document
// root.
func NewFieldRef(doc *Document, node, scope *html.Node) *FieldRef {
	if scope == nil && doc != nil {
		scope = doc.Root()
	}
	return &FieldRef{doc: doc, node: node, scope: scope}
}

// Node returns the underlying HTML node.
func (f *FieldRef) Node() *html.Node {
	if f == nil {
		return nil
	}
	return f.node
}

// Scope returns the node bounding group and label lookups.
func (f *FieldRef) Scope() *html.Node {
	if f == nil {
		return nil
	}
	return f.scope
}

// Tag returns the lower-cased element tag, e.g. "input" or "select".
func (f *FieldRef) Tag() string {
	if f == nil || f.node == nil {
		return ""
	}
	return strings.ToLower(f.node.Data)
}

// Name returns the control's name attribute.
func (f *FieldRef) Name() string {
	name, _ := Attr(f.Node(), "name")
	return name
}

// ID returns the control's id attribute.
func (f *FieldRef) ID() string {
	id, _ := Attr(f.Node(), "id")
	return id
}

// InputType returns the lower-cased type attribute for input elements,
// defaulting to "text" the way browsers do. Non-input controls return "".
func (f *FieldRef) InputType() string {
	if f.Tag() != "input" {
		return ""
	}
	typ, ok := Attr(f.Node(), "type")
	if !ok || strings.TrimSpace(typ) == "" {
		return "text"
	}
	return strings.ToLower(strings.TrimSpace(typ))
}

// Attr returns the value of the named attribute on the control.
func (f *FieldRef) Attr(name string) (string, bool) {
	return Attr(f.Node(), name)
}

// HasAttr reports whether the control carries the named attribute.
func (f *FieldRef) HasAttr(name string) bool {
	return HasAttr(f.Node(), name)
}

// IsRadio reports whether the control is a radio button.
func (f *FieldRef) IsRadio() bool {
	return f.InputType() == "radio"
}

// IsCheckbox reports whether the control is a checkbox.
func (f *FieldRef) IsCheckbox() bool {
	return f.InputType() == "checkbox"
}

// Matches reports whether the control matches the CSS selector. Malformed
// selectors never match.
func (f *FieldRef) Matches(selector string) bool {
	if f == nil || f.node == nil {
		return false
	}
	sel, err := CompileSelector(selector)
	if err != nil {
		return false
	}
	return sel.Match(f.node)
}

// Group returns the radio group this control belongs to, computed once per
// (scope, name) pair and cached in the document's side-table. Non-radio
// controls and unnamed radios return nil.
func (f *FieldRef) Group() *RadioGroup {
	if f == nil || f.doc == nil || !f.IsRadio() {
		return nil
	}
	name := f.Name()
	if name == "" {
		return nil
	}
	return f.doc.groups.group(f.doc, f.scope, name)
}
