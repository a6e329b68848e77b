package tabs

import (
	"fmt"
	"strings"

	"resultsdash/domain/core"
)

// Path is the ordered list of links from the root's selected child down to the selected leaf.
type Path []string

func (p Path) String() string {
	return strings.Join(p, "/")
}

// Equal reports whether both paths name the same nodes
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Tree is the tab hierarchy. It is built once and never restructured.
type Tree struct {
	Root *Node
}

// NewTree wraps root after checking the tree invariants
func NewTree(root *Node) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("tab tree needs a root")
	}
	root.Kind = KindRoot
	if err := validate(root, root.Link); err != nil {
		return nil, err
	}
	return &Tree{Root: root}, nil
}

func validate(n *Node, where string) error {
	seen := make(map[string]bool, len(n.Children))
	selected := 0
	for _, c := range n.Children {
		if c.Link == "" {
			return fmt.Errorf("%w under %q", core.ErrEmptyLink, where)
		}
		if seen[c.Link] {
			return fmt.Errorf("%w: %q under %q", core.ErrDuplicateLink, c.Link, where)
		}
		seen[c.Link] = true
		if c.Selected {
			selected++
		}
		if err := validate(c, where+"/"+c.Link); err != nil {
			return err
		}
	}
	if selected > 1 {
		return fmt.Errorf("%w under %q", core.ErrMultipleSelected, where)
	}
	return nil
}

// Validate re-checks the invariants against the current selection flags
func (t *Tree) Validate() error {
	return validate(t.Root, t.Root.Link)
}

// Path walks selected children from the root
func (t *Tree) Path() Path {
	var path Path
	for n := t.Root.SelectedChild(); n != nil; n = n.SelectedChild() {
		path = append(path, n.Link)
	}
	return path
}

// Top returns the root-level node tagged k
func (t *Tree) Top(k Kind) *Node {
	return t.Root.ChildOfKind(k)
}

// Find walks the tree depth first for the first node tagged k
func (t *Tree) Find(k Kind) *Node {
	var walk func(n *Node) *Node
	walk = func(n *Node) *Node {
		if n.Kind == k {
			return n
		}
		for _, c := range n.Children {
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(t.Root)
}
