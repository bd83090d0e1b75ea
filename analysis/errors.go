package analysis

import (
	"fmt"
	"strings"
)

// UnknownParentError reports a node referencing a parent name absent from the
// workflow's node mapping.
type UnknownParentError struct {
	Node   string
	Parent string
}

func (e *UnknownParentError) Error() string {
	return fmt.Sprintf("node %q references unknown parent %q", e.Node, e.Parent)
}

// CycleError reports a cyclic parent relation. Path holds the traversal path
// ending with the repeated name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}
