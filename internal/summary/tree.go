package summary

import (
	"strings"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/taxonomy"
)

// Node is one group in the drill-down tree. Its totals are the sum of every
// row whose key path passes through it.
type Node struct {
	Key string `json:"key"`
	Totals
	Children Level `json:"children,omitempty"`
}

// Level is an ordered set of sibling nodes.
type Level []*Node

func (l Level) Find(key string) (*Node, bool) {
	for _, n := range l {
		if n.Key == key {
			return n, true
		}
	}
	return nil, false
}

func (l Level) Keys() []string {
	keys := make([]string, len(l))
	for i, n := range l {
		keys[i] = n.Key
	}
	return keys
}

// Filters holds an allow-list per dimension. A missing or empty list lets
// every value through.
type Filters map[Dimension][]string

type allowSets [numDimensions]stringSet

func (f Filters) compile() allowSets {
	var sets allowSets
	for d, values := range f {
		if !d.valid() || len(values) == 0 {
			continue
		}
		s := make(stringSet, len(values))
		for _, v := range values {
			s[strings.TrimSpace(v)] = struct{}{}
		}
		sets[d] = s
	}
	return sets
}

// resolved caches dimension keys for one row so filters and the key path
// resolve each dimension once.
type resolved struct {
	tx   models.Transaction
	cfg  *taxonomy.Config
	keys [numDimensions]string
	done [numDimensions]bool
}

func (r *resolved) key(d Dimension) string {
	if !r.done[d] {
		r.keys[d] = Resolve(r.tx, r.cfg, d)
		r.done[d] = true
	}
	return r.keys[d]
}

func (s *allowSets) match(r *resolved) bool {
	for d, set := range s {
		if set == nil {
			continue
		}
		if !set.has(r.key(Dimension(d))) {
			return false
		}
	}
	return true
}

type buildNode struct {
	node  *Node
	index map[string]*buildNode
}

func (b *buildNode) child(key string) *buildNode {
	if c, ok := b.index[key]; ok {
		return c
	}
	c := &buildNode{node: &Node{Key: key}, index: make(map[string]*buildNode)}
	b.index[key] = c
	b.node.Children = append(b.node.Children, c.node)
	return c
}

// Build groups rows into a tree nested in the given dimension order. Rows
// failing any filter are dropped whole; rows are otherwise never dropped,
// unresolvable values land in the sentinel buckets. Siblings keep first-seen
// order; use Sort for a presentation order. A nil cfg yields an empty tree.
func Build(rows []models.Transaction, cfg *taxonomy.Config, order []Dimension, filters Filters) Level {
	if cfg == nil || len(order) == 0 {
		return Level{}
	}
	for _, d := range order {
		if !d.valid() {
			return Level{}
		}
	}

	allow := filters.compile()
	root := &buildNode{node: &Node{}, index: make(map[string]*buildNode)}

	for _, tx := range rows {
		r := resolved{tx: tx, cfg: cfg}
		if !allow.match(&r) {
			continue
		}
		m := ExtractMetrics(tx, cfg)
		cur := root
		for _, d := range order {
			cur = cur.child(r.key(d))
			cur.node.Add(m)
		}
	}

	if root.node.Children == nil {
		return Level{}
	}
	return root.node.Children
}
