package model

import (
	"context"
	"time"
)

type (
	// Handler is the work function bound to a node. It receives the per-run
	// invocation detail and returns the node output.
	Handler func(ctx context.Context, invocation *Invocation) (interface{}, error)

	// Invocation carries the per-run detail a handler may inspect. For a root
	// node ParentOutput is empty; for every other node it maps each declared
	// parent name to that parent's output.
	Invocation struct {
		Workflow     string                 `json:"workflow"`
		Node         string                 `json:"node"`
		Input        interface{}            `json:"input,omitempty"`
		Context      map[string]interface{} `json:"context,omitempty"`
		ParentOutput map[string]interface{} `json:"parentOutput,omitempty"`
	}

	// Node is the static, user-authored declaration of one step. It is
	// immutable once handed to a graph; the compiler never mutates it.
	Node struct {
		Parents              []string `json:"parents,omitempty" yaml:"parents,omitempty"`
		Run                  Handler  `json:"-" yaml:"-"`
		Action               string   `json:"action,omitempty" yaml:"action,omitempty"`
		TolerateParentErrors bool     `json:"tolerateParentErrors,omitempty" yaml:"tolerateParentErrors,omitempty"`
		CacheKey             string   `json:"cacheKey,omitempty" yaml:"cacheKey,omitempty"`
		Retry                *Retry   `json:"retry,omitempty" yaml:"retry,omitempty"`
	}

	// Retry strategy for a node run
	Retry struct {
		Type       string  `json:"type,omitempty" yaml:"type,omitempty"` // fixed, exponential, none
		MaxRetries int     `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
		Delay      string  `json:"delay,omitempty" yaml:"delay,omitempty"`           // base delay (duration string)
		Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"` // exponential multiplier (>1)
		MaxDelay   string  `json:"maxDelay,omitempty" yaml:"maxDelay,omitempty"`
	}

	// NamedNode annotates a declaration with its own name - a projection the
	// compiled graph prepares once so builders do not re-derive it per run.
	NamedNode struct {
		Name string
		*Node
	}
)

// NewNode creates a node declaration with the supplied handler.
func NewNode(run Handler) *Node {
	return &Node{Run: run}
}

// WithParents appends parent names to the node declaration.
func (n *Node) WithParents(names ...string) *Node {
	if n.Parents == nil {
		n.Parents = make([]string, 0, len(names))
	}
	n.Parents = append(n.Parents, names...)
	return n
}

// WithTolerateParentErrors marks the node runnable even when a parent failed.
func (n *Node) WithTolerateParentErrors(tolerate bool) *Node {
	n.TolerateParentErrors = tolerate
	return n
}

// WithCacheKey overrides the default workflow/node result-cache key.
func (n *Node) WithCacheKey(key string) *Node {
	n.CacheKey = key
	return n
}

// WithRetry sets the retry strategy for the node.
func (n *Node) WithRetry(retry *Retry) *Node {
	n.Retry = retry
	return n
}

// BaseDelay returns the parsed base delay, falling back to defaultDelay when
// unset or unparsable.
func (r *Retry) BaseDelay(defaultDelay time.Duration) time.Duration {
	if r == nil || r.Delay == "" {
		return defaultDelay
	}
	delay, err := time.ParseDuration(r.Delay)
	if err != nil {
		return defaultDelay
	}
	return delay
}

// DelayFor returns the delay preceding the given 1-based attempt according to
// the retry type, capped by MaxDelay when set.
func (r *Retry) DelayFor(attempt int, defaultDelay time.Duration) time.Duration {
	base := r.BaseDelay(defaultDelay)
	delay := base
	if r != nil && r.Type == "exponential" {
		multiplier := r.Multiplier
		if multiplier <= 1 {
			multiplier = 2
		}
		for i := 1; i < attempt; i++ {
			delay = time.Duration(float64(delay) * multiplier)
		}
	}
	if r != nil && r.MaxDelay != "" {
		if max, err := time.ParseDuration(r.MaxDelay); err == nil && delay > max {
			delay = max
		}
	}
	return delay
}

// Clone creates a deep copy of a node declaration.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := &Node{
		Run:                  n.Run,
		Action:               n.Action,
		TolerateParentErrors: n.TolerateParentErrors,
		CacheKey:             n.CacheKey,
	}
	if n.Parents != nil {
		clone.Parents = make([]string, len(n.Parents))
		copy(clone.Parents, n.Parents)
	}
	if n.Retry != nil {
		retry := *n.Retry
		clone.Retry = &retry
	}
	return clone
}
