package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document wraps a parsed HTML tree and caches derived lookups (compiled
// selectors, radio groups) so repeated queries stay cheap.
type Document struct {
	root   *html.Node
	groups *groupTable
}

// Parse reads and parses an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	if r == nil {
		return nil, errors.New("dom: reader is required")
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	return &Document{root: root, groups: newGroupTable()}, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// Root returns the document root node.
func (d *Document) Root() *html.Node {
	if d == nil {
		return nil
	}
	return d.root
}

// Query returns the first node under the document root matching the selector.
func (d *Document) Query(selector string) (*html.Node, error) {
	if d == nil || d.root == nil {
		return nil, errors.New("dom: document is empty")
	}
	sel, err := CompileSelector(selector)
	if err != nil {
		return nil, err
	}
	node := sel.MatchFirst(d.root)
	if node == nil {
		return nil, fmt.Errorf("dom: no element matches %q", selector)
	}
	return node, nil
}

// QueryAll returns every node under scope matching the selector, in document
// order. A nil scope falls back to the document root.
func (d *Document) QueryAll(scope *html.Node, selector string) ([]*html.Node, error) {
	if scope == nil {
		scope = d.Root()
	}
	if scope == nil {
		return nil, errors.New("dom: document is empty")
	}
	sel, err := CompileSelector(selector)
	if err != nil {
		return nil, err
	}
	return sel.MatchAll(scope), nil
}

// Attr returns the value of the named attribute on n.
func Attr(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, name) {
			return attr.Val, true
		}
	}
	return "", false
}

// SetAttr writes the named attribute on n, replacing an existing value.
func SetAttr(n *html.Node, name, value string) {
	if n == nil || name == "" {
		return
	}
	for i := range n.Attr {
		if strings.EqualFold(n.Attr[i].Key, name) {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// HasAttr reports whether n carries the named attribute, regardless of value.
func HasAttr(n *html.Node, name string) bool {
	_, ok := Attr(n, name)
	return ok
}

// Text collects the concatenated text content of n, trimmed.
func Text(n *html.Node) string {
	var out strings.Builder
	collectText(n, &out)
	return strings.TrimSpace(out.String())
}

func collectText(n *html.Node, out *strings.Builder) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		out.WriteString(n.Data)
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, out)
	}
}
