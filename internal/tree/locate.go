package tree

import "strings"

// Namer reports the display name of an element, ok is false for elements
// that do not carry one.
type Namer interface {
	Name(node Node) (name string, ok bool)
}

type NamerFunc func(node Node) (string, bool)

func (f NamerFunc) Name(node Node) (string, bool) {
	return f(node)
}

// KeyNamer names mapping elements by the first of its keys holding a
// non-blank string.
type KeyNamer []string

func (k KeyNamer) Name(node Node) (string, bool) {
	if node.kind != KindMapping {
		return "", false
	}
	for _, key := range k {
		name := node.Get(key).Text()
		if name != "" {
			return name, true
		}
	}
	return "", false
}

type Match struct {
	Path Path
	Node Node
}

// Find returns every node for which pred holds, in document order. The
// children of a matched node are not searched.
func Find(root Node, pred func(path Path, node Node) bool) []Match {
	var matches []Match
	Walk(root, func(path Path, node Node) bool {
		if pred(path, node) {
			matches = append(matches, Match{Path: path, Node: node})
			return false
		}
		return true
	})
	return matches
}

// FindNamedArrays locates every non-empty sequence whose elements all have a
// name according to namer.
func FindNamedArrays(root Node, namer Namer) []Match {
	return Find(root, func(_ Path, node Node) bool {
		if node.kind != KindSequence || len(node.items) == 0 {
			return false
		}
		for _, item := range node.items {
			if _, ok := namer.Name(item); !ok {
				return false
			}
		}
		return true
	})
}

// FindKey returns the first mapping entry anywhere under root whose key
// matches one of keys case-insensitively.
func FindKey(root Node, keys ...string) (Match, bool) {
	var found Match
	ok := false
	Walk(root, func(path Path, node Node) bool {
		if ok {
			return false
		}
		if node.kind != KindMapping {
			return true
		}
		for _, k := range node.keys {
			for _, want := range keys {
				if strings.EqualFold(k, want) {
					found = Match{Path: path.Child(k), Node: node.fields[k]}
					ok = true
					return false
				}
			}
		}
		return true
	})
	return found, ok
}
