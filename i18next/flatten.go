package i18next

import (
	"fmt"
	"strings"
)

// FlatMap is the dot-path projection of a resource tree. Key order follows
// the depth-first order of the tree it was flattened from.
type FlatMap struct {
	keys  []string
	nodes map[string]*Node
}

// NewFlatMap returns an empty flat map.
func NewFlatMap() *FlatMap {
	return &FlatMap{nodes: make(map[string]*Node)}
}

// Keys returns the flat keys in insertion order.
func (m *FlatMap) Keys() []string {
	return m.keys
}

// Get returns the node stored under key.
func (m *FlatMap) Get(key string) (*Node, bool) {
	n, ok := m.nodes[key]
	return n, ok
}

// Set stores a node. New keys are appended, existing keys keep their
// position.
func (m *FlatMap) Set(key string, n *Node) {
	if _, exists := m.nodes[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.nodes[key] = n
}

// Len returns the number of flat keys.
func (m *FlatMap) Len() int {
	return len(m.keys)
}

// Flatten walks the tree depth-first producing dot-joined leaf paths. Text,
// entry and passthrough nodes are terminal; only non-empty objects are
// descended into. Empty objects are kept as leaves so the round trip with
// Unflatten is lossless.
func Flatten(root *Node) (*FlatMap, error) {
	if root == nil || root.Kind != KindObject {
		return nil, fmt.Errorf("flatten: root must be an object node")
	}

	fm := NewFlatMap()
	flattenInto(fm, "", root)
	return fm, nil
}

func flattenInto(fm *FlatMap, prefix string, n *Node) {
	for _, key := range n.keys {
		child := n.children[key]

		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if child.Kind == KindObject && len(child.keys) > 0 {
			flattenInto(fm, path, child)
			continue
		}
		fm.Set(path, child)
	}
}

// Unflatten rebuilds a nested tree from dot-joined keys, creating
// intermediate objects as needed. For any tree whose leaf objects carry no
// dot-containing keys, Unflatten(Flatten(t)) reproduces t.
func Unflatten(fm *FlatMap) (*Node, error) {
	root := NewObject()

	for _, key := range fm.keys {
		parts := strings.Split(key, ".")
		cur := root

		for _, part := range parts[:len(parts)-1] {
			next := cur.Child(part)
			if next == nil {
				next = NewObject()
				cur.Set(part, next)
			}
			if next.Kind != KindObject {
				return nil, fmt.Errorf("unflatten: key %q collides with a non-object value at %q", key, part)
			}
			cur = next
		}

		node, _ := fm.Get(key)
		cur.Set(parts[len(parts)-1], node)
	}

	return root, nil
}
