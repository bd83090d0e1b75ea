package taskdag

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskdag/taskdag/analysis"
	"github.com/taskdag/taskdag/event"
	"github.com/taskdag/taskdag/internal/idgen"
	"github.com/taskdag/taskdag/model"
	"github.com/taskdag/taskdag/runner"
)

// OutputNode is the reserved name of the synthetic output runner appended to
// every run. User declarations must not claim it.
const OutputNode = "__output__"

// ErrNoNodes is returned when a workflow declares zero nodes.
var ErrNoNodes = errors.New("DAG has no nodes")

// Graph is a compiled workflow: the declaration together with its structural
// facts, validated once at construction. A graph is immutable and safe for
// concurrent builds; each build produces a fresh runner graph.
type Graph struct {
	workflow *model.Workflow
	facts    *analysis.Facts
	named    []*model.NamedNode
}

// New compiles the workflow declaration. It fails fast - before any run-time
// resource is touched - when the declaration is empty, claims the reserved
// output-node name, lacks a handler, or when analysis detects an unknown
// parent reference or a cycle.
func New(workflow *model.Workflow, options ...Option) (*Graph, error) {
	if workflow == nil {
		return nil, fmt.Errorf("workflow is nil")
	}
	if len(workflow.Nodes) == 0 {
		return nil, fmt.Errorf("workflow %q is invalid: %w", workflow.Name, ErrNoNodes)
	}
	for name, node := range workflow.Nodes {
		if node == nil || node.Run == nil {
			return nil, fmt.Errorf("node %q has no handler", name)
		}
	}
	if _, ok := workflow.Nodes[OutputNode]; ok {
		return nil, fmt.Errorf("node name %q is reserved", OutputNode)
	}
	facts, err := analysis.Analyze(workflow.Nodes)
	if err != nil {
		return nil, err
	}
	graph := &Graph{
		workflow: workflow,
		facts:    facts,
		named:    workflow.Named(),
	}
	for _, option := range options {
		option(graph)
	}
	return graph, nil
}

// Workflow returns the compiled declaration.
func (g *Graph) Workflow() *model.Workflow { return g.workflow }

// Facts returns the cached structural facts.
func (g *Graph) Facts() *analysis.Facts { return g.facts }

// RootNodes returns the names of nodes without parents.
func (g *Graph) RootNodes() []string {
	return append([]string(nil), g.facts.RootNodes...)
}

// LeafNodes returns the names of nodes no other node depends on.
func (g *Graph) LeafNodes() []string {
	return append([]string(nil), g.facts.LeafNodes...)
}

// Run is one built runner graph: a runner per declared node plus the
// synthetic output runner aggregating the leaf outputs. The caller owns the
// mapping for the run's lifetime and must request a fresh build per run.
type Run struct {
	ID      string
	Runners map[string]*runner.Runner
	Output  *runner.Runner
}

// Execute runs the synthetic output runner, which pulls the whole graph to
// completion, and returns the workflow's single result value.
func (r *Run) Execute(ctx context.Context) (interface{}, error) {
	return r.Output.Execute(ctx)
}

// Build instantiates the runner graph for one run. It performs no execution,
// only construction and wiring, and cannot fail: referential integrity was
// established at compile time.
//
// Construction is two pass. All runners are created first, keyed by name;
// parent references are resolved afterwards, because instantiation order does
// not follow dependency order and every runner must be able to reference any
// other by the time wiring completes. The synthetic output runner is then
// wired to exactly the leaf runners; it tolerates parent failures so a
// failing branch does not prevent output assembly from the remaining leaves.
func (g *Graph) Build(options ...BuildOption) *Run {
	config := &buildConfig{}
	for _, option := range options {
		option(config)
	}
	runID := idgen.New()
	var publisher *event.Publisher
	if config.events != nil {
		publisher = event.NewPublisher(config.events)
	}
	shared := []runner.Option{
		runner.WithWorkflow(g.workflow.Name),
		runner.WithRunID(runID),
		runner.WithContext(g.workflow.Context(config.context)),
		runner.WithInput(config.input),
		runner.WithEvents(publisher),
		runner.WithCache(config.results),
		runner.WithAutorun(config.autorun),
		runner.WithControllers(config.controllers...),
	}
	runners := make(map[string]*runner.Runner, len(g.named))
	for _, named := range g.named {
		runners[named.Name] = runner.New(named.Name, named.Node, shared...)
	}
	for _, named := range g.named {
		if len(named.Parents) == 0 {
			continue
		}
		parents := make([]*runner.Runner, len(named.Parents))
		for i, parent := range named.Parents {
			parents[i] = runners[parent]
		}
		runners[named.Name].Wire(parents...)
	}
	output := runner.New(OutputNode, outputDeclaration(), shared...)
	leaves := make([]*runner.Runner, len(g.facts.LeafNodes))
	for i, leaf := range g.facts.LeafNodes {
		leaves[i] = runners[leaf]
	}
	output.Wire(leaves...)
	return &Run{ID: runID, Runners: runners, Output: output}
}

// outputDeclaration builds the synthetic terminal declaration collapsing the
// combined leaf output into the workflow result.
func outputDeclaration() *model.Node {
	return model.NewNode(collapseLeafOutput).WithTolerateParentErrors(true)
}

// collapseLeafOutput reduces the keyed leaf output to the workflow result:
// an absent or empty combined output passes through unchanged, a single entry
// unwraps to its bare value, anything else keeps the full mapping of leaf
// name to leaf output.
func collapseLeafOutput(_ context.Context, invocation *model.Invocation) (interface{}, error) {
	combined := invocation.ParentOutput
	if combined == nil {
		return nil, nil
	}
	if len(combined) == 1 {
		for _, value := range combined {
			return value, nil
		}
	}
	return combined, nil
}
