package collection

import "strings"

// DefaultSeparator joins the segments of a full item name.
const DefaultSeparator = " / "

// Traversable is a node of a collection tree that can walk its ancestors
// and descendants.
type Traversable interface {
	// Parent returns the enclosing node, or nil for the root.
	Parent() Traversable

	// ForEachParent calls fn for each ancestor from the immediate parent
	// outwards, stopping before the root collection.
	ForEachParent(fn func(Traversable))

	// ForEachItem calls fn for every descendant in pre-order.
	ForEachItem(fn func(*Item))

	// DisplayName returns the node name, falling back to its id.
	DisplayName() string
}

// Compile-time interface check.
var _ Traversable = (*Item)(nil)

// Item is a folder or request in a collection tree. A nil *Item is the
// absent node: every method is safe to call on it.
type Item struct {
	ID    string  `json:"id"`
	Name  string  `json:"name,omitempty"`
	Items []*Item `json:"item,omitempty"`

	parent *Item
}

// Parent returns the enclosing item, or nil for the root and absent nodes.
func (i *Item) Parent() Traversable {
	if i == nil || i.parent == nil {
		return nil
	}

	return i.parent
}

// ForEachParent walks the ancestors of i, excluding the root collection.
func (i *Item) ForEachParent(fn func(Traversable)) {
	if i == nil {
		return
	}

	for p := i.parent; p != nil && p.parent != nil; p = p.parent {
		fn(p)
	}
}

// ForEachItem walks every descendant of i in pre-order.
func (i *Item) ForEachItem(fn func(*Item)) {
	if i == nil {
		return
	}

	for _, child := range i.Items {
		if child == nil {
			continue
		}

		fn(child)
		child.ForEachItem(fn)
	}
}

// DisplayName returns the item name, or its id when the name is empty.
func (i *Item) DisplayName() string {
	if i == nil {
		return ""
	}

	if i.Name != "" {
		return i.Name
	}

	return i.ID
}

// Link sets the parent pointers of every descendant of root.
func Link(root *Item) {
	if root == nil {
		return
	}

	for _, child := range root.Items {
		if child == nil {
			continue
		}

		child.parent = root
		Link(child)
	}
}

// FullName resolves the hierarchical display name of item, outermost
// ancestor first. The root collection contributes no segment. An empty
// separator selects DefaultSeparator. The second return value is false
// when item is absent.
func FullName(item Traversable, separator string) (string, bool) {
	if isAbsent(item) {
		return "", false
	}

	if separator == "" {
		separator = DefaultSeparator
	}

	var chain []string

	item.ForEachParent(func(p Traversable) {
		chain = append([]string{p.DisplayName()}, chain...)
	})

	if !isAbsent(item.Parent()) {
		chain = append(chain, item.DisplayName())
	}

	return strings.Join(chain, separator), true
}

// isAbsent reports whether t is nil or a typed nil *Item.
func isAbsent(t Traversable) bool {
	if t == nil {
		return true
	}

	item, ok := t.(*Item)

	return ok && item == nil
}
