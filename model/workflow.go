package model

// Workflow represents a named workflow declaration: a mapping of node name to
// node declaration plus a factory producing a fresh shared context for a run.
type Workflow struct {

	// Source provides information about the origin of the workflow
	Source *Source `json:"source,omitempty" yaml:"source,omitempty"`

	// Name is the unique identifier for the workflow
	Name string `json:"name" yaml:"name"`

	// Description provides a human-readable description of the workflow
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Version specifies the workflow version
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Nodes maps node name to its declaration; insertion order is irrelevant
	Nodes map[string]*Node `json:"nodes,omitempty" yaml:"nodes,omitempty"`

	// NewContext manufactures the shared per-run context when the caller does
	// not supply one. May be nil, in which case a run starts with an empty map.
	NewContext func() map[string]interface{} `json:"-" yaml:"-"`
}

type Source struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// NewWorkflow creates a new workflow with the given name.
func NewWorkflow(name string) *Workflow {
	return &Workflow{
		Name:  name,
		Nodes: make(map[string]*Node),
	}
}

// WithDescription sets the description of the workflow
func (w *Workflow) WithDescription(description string) *Workflow {
	w.Description = description
	return w
}

// WithVersion sets the version of the workflow
func (w *Workflow) WithVersion(version string) *Workflow {
	w.Version = version
	return w
}

// WithNewContext sets the shared-context factory for the workflow.
func (w *Workflow) WithNewContext(newContext func() map[string]interface{}) *Workflow {
	w.NewContext = newContext
	return w
}

// AddNode adds a node declaration under the given name and returns it so the
// caller can keep chaining With* setters.
func (w *Workflow) AddNode(name string, node *Node) *Node {
	if w.Nodes == nil {
		w.Nodes = make(map[string]*Node)
	}
	w.Nodes[name] = node
	return node
}

// NewTask declares a node with the supplied handler under the given name.
func (w *Workflow) NewTask(name string, run Handler) *Node {
	return w.AddNode(name, NewNode(run))
}

// Named returns the named-node projection of all declarations.
func (w *Workflow) Named() []*NamedNode {
	named := make([]*NamedNode, 0, len(w.Nodes))
	for name, node := range w.Nodes {
		named = append(named, &NamedNode{Name: name, Node: node})
	}
	return named
}

// Context resolves the shared per-run context: the supplied value when not
// nil, otherwise a freshly manufactured one.
func (w *Workflow) Context(supplied map[string]interface{}) map[string]interface{} {
	if supplied != nil {
		return supplied
	}
	if w.NewContext != nil {
		return w.NewContext()
	}
	return map[string]interface{}{}
}

// Clone creates a deep copy of the workflow declaration.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	clone := &Workflow{
		Name:        w.Name,
		Description: w.Description,
		Version:     w.Version,
		NewContext:  w.NewContext,
	}
	if w.Source != nil {
		source := *w.Source
		clone.Source = &source
	}
	if w.Nodes != nil {
		clone.Nodes = make(map[string]*Node, len(w.Nodes))
		for name, node := range w.Nodes {
			clone.Nodes[name] = node.Clone()
		}
	}
	return clone
}
