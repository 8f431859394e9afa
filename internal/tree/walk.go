package tree

import (
	"strconv"
	"strings"
)

// Path addresses a node from some root. Sequence indexes are decimal strings.
type Path []string

// Child returns a new path with segment appended, p is never aliased.
func (p Path) Child(segment string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = segment
	return out
}

// Last returns the final segment or "" for the root path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Visitor is called for each node, returning false skips the node's children.
type Visitor func(path Path, node Node) bool

// Walk visits root and every descendant in pre-order, mapping entries in
// document order and sequence elements by index.
func Walk(root Node, visit Visitor) {
	walk(nil, root, visit)
}

func walk(path Path, node Node, visit Visitor) {
	if !visit(path, node) {
		return
	}
	switch node.kind {
	case KindMapping:
		for _, k := range node.keys {
			walk(path.Child(k), node.fields[k], visit)
		}
	case KindSequence:
		for i, item := range node.items {
			walk(path.Child(strconv.Itoa(i)), item, visit)
		}
	}
}

// Ancestors returns the nodes from root down to (but not including) the
// node at path.
func Ancestors(root Node, path Path) []Node {
	out := make([]Node, 0, len(path))
	current := root
	for _, segment := range path {
		out = append(out, current)
		current = current.At(Path{segment})
		if current.IsAbsent() {
			break
		}
	}
	return out
}
