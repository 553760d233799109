package dom

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Labels resolves the label elements describing the control: every
// label[for] whose target matches the control's id, falling back to the
// nearest ancestor label when none match.
func (f *FieldRef) Labels() []*html.Node {
	if f == nil || f.node == nil {
		return nil
	}

	var out []*html.Node
	if id := f.ID(); id != "" {
		scope := f.scope
		if scope == nil {
			scope = f.doc.Root()
		}
		for _, label := range MustCompileSelector("label[for]").MatchAll(scope) {
			if target, _ := Attr(label, "for"); target == id {
				out = append(out, label)
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	for parent := f.node.Parent; parent != nil; parent = parent.Parent {
		if parent.Type == html.ElementNode && strings.EqualFold(parent.Data, "label") {
			return []*html.Node{parent}
		}
	}
	return nil
}

// LabelText returns the text of the control's first label, or a
// human-friendly rendering of its name attribute when no label exists.
func (f *FieldRef) LabelText() string {
	for _, label := range f.Labels() {
		if text := Text(label); text != "" {
			return text
		}
	}
	return HumanizeName(f.Name())
}

var splitWordsPattern = regexp.MustCompile(`[_\-\s\[\]]+`)

// HumanizeName converts a control name like "billing_postalCode" into
// "Billing Postal Code". It splits on underscores, dashes, brackets, and
// camelCase boundaries.
func HumanizeName(name string) string {
	if name == "" {
		return ""
	}

	words := splitWordsPattern.Split(name, -1)
	var segments []string
	for _, word := range words {
		if word == "" {
			continue
		}
		segments = append(segments, titleCase(splitCamel(word)))
	}
	return strings.TrimSpace(strings.Join(segments, " "))
}

func splitCamel(input string) string {
	var out strings.Builder
	for i, r := range input {
		if i > 0 && isBoundary(input, i, r) {
			out.WriteRune(' ')
		}
		out.WriteRune(r)
	}
	return out.String()
}

func isBoundary(input string, index int, r rune) bool {
	prev := rune(input[index-1])
	return (isLower(prev) && isUpper(r)) || (isLetter(prev) && isDigit(r)) || (isDigit(prev) && isLetter(r))
}

func isUpper(r rune) bool  { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool  { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return isUpper(r) || isLower(r) }

func titleCase(word string) string {
	if word == "" {
		return ""
	}

	// Split camelCase segments produced by splitCamel before casing each word.
	parts := strings.Fields(word)
	for i, part := range parts {
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}
