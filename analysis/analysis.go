package analysis

import (
	"sort"

	"github.com/taskdag/taskdag/model"
)

// Facts is the derived, immutable result of analysing a node mapping: the
// root node names (no parents) and the leaf node names (no dependents).
// Both slices are sorted so repeated analysis of the same declaration yields
// structurally identical results.
type Facts struct {
	RootNodes []string `json:"rootNodes"`
	LeafNodes []string `json:"leafNodes"`
}

// IsLeaf reports whether name belongs to the leaf set.
func (f *Facts) IsLeaf(name string) bool {
	for _, leaf := range f.LeafNodes {
		if leaf == name {
			return true
		}
	}
	return false
}

// IsRoot reports whether name belongs to the root set.
func (f *Facts) IsRoot(name string) bool {
	for _, root := range f.RootNodes {
		if root == name {
			return true
		}
	}
	return false
}

// Analyze validates the parent relation of the supplied node mapping and
// returns its structural facts. It fails with *UnknownParentError when a node
// references a parent absent from the mapping and with *CycleError when the
// parent relation is cyclic; the cycle error reports the offending path.
//
// Cycle detection is path based rather than visited based: a node reached via
// two sibling paths (a diamond) is legal, only reappearance within the current
// traversal path indicates a cycle. Every edge is walked at least once because
// leaf elimination depends on observing every dependent.
func Analyze(nodes map[string]*model.Node) (*Facts, error) {
	leafCandidates := make(map[string]bool, len(nodes))
	for name := range nodes {
		leafCandidates[name] = true
	}
	var roots []string
	for name, node := range nodes {
		if len(node.Parents) == 0 {
			roots = append(roots, name)
		}
		if err := traverse(name, nodes, leafCandidates); err != nil {
			return nil, err
		}
	}
	leaves := make([]string, 0, len(leafCandidates))
	for name, isLeaf := range leafCandidates {
		if isLeaf {
			leaves = append(leaves, name)
		}
	}
	sort.Strings(roots)
	sort.Strings(leaves)
	return &Facts{RootNodes: roots, LeafNodes: leaves}, nil
}

// frame is one level of the explicit traversal stack: a node name and the
// index of the next parent to walk.
type frame struct {
	name string
	next int
}

// traverse walks the full parent chain of start depth first with an explicit
// stack, so arbitrarily deep graphs cannot exhaust the call stack. Every
// parent encountered is removed from the leaf candidate set.
func traverse(start string, nodes map[string]*model.Node, leafCandidates map[string]bool) error {
	stack := []frame{{name: start}}
	onPath := map[string]bool{start: true}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		parents := nodes[top.name].Parents
		if top.next >= len(parents) {
			onPath[top.name] = false
			stack = stack[:len(stack)-1]
			continue
		}
		parent := parents[top.next]
		top.next++
		leafCandidates[parent] = false
		if _, ok := nodes[parent]; !ok {
			return &UnknownParentError{Node: top.name, Parent: parent}
		}
		if onPath[parent] {
			return &CycleError{Path: append(pathOf(stack), parent)}
		}
		onPath[parent] = true
		stack = append(stack, frame{name: parent})
	}
	return nil
}

// pathOf projects the stack onto the node-name path it represents.
func pathOf(stack []frame) []string {
	path := make([]string, len(stack))
	for i, f := range stack {
		path[i] = f.name
	}
	return path
}
