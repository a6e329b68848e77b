// Package tabs holds the dashboard's tab tree: a fixed hierarchy of selectable nodes whose only
// mutable state is the per-node Selected flag.
package tabs

import (
	"strings"
)

// Kind tags a node with the role it plays in navigation. The controller switches on Kind; the
// tree never relies on node identity to decide behavior.
type Kind int

const (
	KindPlain Kind = iota
	KindRoot
	KindPartyTrends
	KindConstituencies
	KindCountries
	KindChloropleth
	KindLeadingByIssue
	KindLeadingByConstituency
	KindMarginals
)

var kindNames = map[Kind]string{
	KindPlain:                 "plain",
	KindRoot:                  "root",
	KindPartyTrends:           "party-trends",
	KindConstituencies:        "constituencies",
	KindCountries:             "countries",
	KindChloropleth:           "chloropleth",
	KindLeadingByIssue:        "leading-by-issue",
	KindLeadingByConstituency: "leading-by-constituency",
	KindMarginals:             "marginals",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "plain"
}

// ParseKind maps a configuration name to a Kind; unknown names are KindPlain
func ParseKind(s string) Kind {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindPlain
}

// Node is one selectable tab. Children are owned by their parent.
type Node struct {
	Name        string
	Link        string
	Kind        Kind
	Description string
	Selected    bool
	Children    []*Node
}

// IsLeaf reports whether the node has no children
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Child returns the direct child with the given link, or nil
func (n *Node) Child(link string) *Node {
	for _, c := range n.Children {
		if c.Link == link {
			return c
		}
	}
	return nil
}

// ChildOfKind returns the first direct child tagged k, or nil
func (n *Node) ChildOfKind(k Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == k {
			return c
		}
	}
	return nil
}

// SelectedChild returns the selected direct child, or nil
func (n *Node) SelectedChild() *Node {
	for _, c := range n.Children {
		if c.Selected {
			return c
		}
	}
	return nil
}

// Select deselects every child and then selects the one with link. When no child has that link
// nothing changes and nil is returned.
func (n *Node) Select(link string) *Node {
	found := n.Child(link)
	if found == nil {
		return nil
	}
	n.ClearSelection()
	found.Selected = true
	return found
}

// ClearSelection deselects every direct child
func (n *Node) ClearSelection() {
	for _, c := range n.Children {
		c.Selected = false
	}
}

// Items snapshots the children as render input
func (n *Node) Items(hrefPrefix string) []NavItem {
	items := make([]NavItem, 0, len(n.Children))
	for _, c := range n.Children {
		items = append(items, NavItem{
			Name:        c.Name,
			Link:        c.Link,
			Href:        "#" + hrefPrefix + c.Link,
			Kind:        c.Kind,
			Description: c.Description,
			Selected:    c.Selected,
		})
	}
	return items
}

// NavItem is the immutable view of one node handed to the render adapter.
type NavItem struct {
	Name        string
	Link        string
	Href        string
	Kind        Kind
	Description string
	Selected    bool
}
