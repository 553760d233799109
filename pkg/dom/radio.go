package dom

import (
	"sync"

	"golang.org/x/net/html"
)

// RadioGroup is the logical unit formed by every radio input sharing a name
// within one scope. Group metadata lives here rather than on the nodes
// themselves, so the tree is never decorated with ad hoc properties.
type RadioGroup struct {
	name    string
	members []*FieldRef
}

// Name returns the shared name attribute of the group.
func (g *RadioGroup) Name() string {
	if g == nil {
		return ""
	}
	return g.name
}

// Members returns every radio in the group, in document order.
func (g *RadioGroup) Members() []*FieldRef {
	if g == nil {
		return nil
	}
	return g.members
}

// Others returns every member except f, preserving document order.
func (g *RadioGroup) Others(f *FieldRef) []*FieldRef {
	if g == nil {
		return nil
	}
	out := make([]*FieldRef, 0, len(g.members))
	for _, member := range g.members {
		if f != nil && member.Node() == f.Node() {
			continue
		}
		out = append(out, member)
	}
	return out
}

// Checked returns the checked member, or ok=false when no radio in the group
// is checked.
func (g *RadioGroup) Checked() (*FieldRef, bool) {
	if g == nil {
		return nil, false
	}
	for _, member := range g.members {
		if member.HasAttr("checked") {
			return member, true
		}
	}
	return nil, false
}

type groupKey struct {
	scope *html.Node
	name  string
}

// groupTable caches RadioGroups per (scope, name). Lookups after the first
// reuse the cached group, so the "other members" view is computed once.
type groupTable struct {
	mu     sync.Mutex
	groups map[groupKey]*RadioGroup
}

func newGroupTable() *groupTable {
	return &groupTable{groups: make(map[groupKey]*RadioGroup)}
}

func (t *groupTable) group(doc *Document, scope *html.Node, name string) *RadioGroup {
	if scope == nil {
		scope = doc.Root()
	}
	key := groupKey{scope: scope, name: name}

	t.mu.Lock()
	defer t.mu.Unlock()

	if group, ok := t.groups[key]; ok {
		return group
	}

	group := &RadioGroup{name: name}
	sel := MustCompileSelector("input[type=radio]")
	for _, node := range sel.MatchAll(scope) {
		if got, _ := Attr(node, "name"); got != name {
			continue
		}
		group.members = append(group.members, NewFieldRef(doc, node, scope))
	}
	t.groups[key] = group
	return group
}
