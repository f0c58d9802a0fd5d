package calltree

import (
	"hash"
	"hash/fnv"

	"github.com/stackclock/timetrack"
)

type (
	// Node is one call in a reconstructed call tree.
	Node struct {
		DurationNS  uint64  `json:"duration_ns"`
		SelfNS      uint64  `json:"self_ns"`
		EndNS       uint64  `json:"-"`
		Fingerprint uint64  `json:"fingerprint"`
		Name        string  `json:"name"`
		Package     string  `json:"package,omitempty"`
		StartNS     uint64  `json:"-"`
		Children    []*Node `json:"children,omitempty"`
	}
)

func NodeFromRecord(r timetrack.Record) *Node {
	return &Node{
		DurationNS:  r.TotalNS,
		SelfNS:      r.SelfNS,
		EndNS:       r.EndNS,
		Fingerprint: fingerprint(r.Package, r.Function),
		Name:        r.Function,
		Package:     r.Package,
		StartNS:     r.StartNS,
	}
}

func (n *Node) WriteToHash(h hash.Hash) {
	if n.Package == "" && n.Name == "" {
		h.Write([]byte("-"))
	} else {
		h.Write([]byte(n.Package))
		h.Write([]byte(n.Name))
	}
}

func fingerprint(pkg, name string) uint64 {
	h := fnv.New64a()
	n := Node{Package: pkg, Name: name}
	n.WriteToHash(h)
	return h.Sum64()
}

// Build reconstructs the call forest of a balanced run. Records must be in
// emission order, which is exit order: a call's children all precede it and
// sit one level deeper. Siblings stay in completion order.
func Build(records []timetrack.Record) []*Node {
	pending := make(map[int][]*Node)
	for _, r := range records {
		n := NodeFromRecord(r)
		n.Children = pending[r.Depth+1]
		delete(pending, r.Depth+1)
		pending[r.Depth] = append(pending[r.Depth], n)
	}
	return pending[1]
}

// Visit walks the forest depth first, parents before children, calling fn
// with each node and its depth.
func Visit(roots []*Node, fn func(n *Node, depth int)) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		fn(n, depth)
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	for _, root := range roots {
		walk(root, 1)
	}
}
