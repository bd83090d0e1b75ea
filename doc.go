// Package taskdag compiles a declarative task dependency graph into an
// executable graph of runners.
//
// A workflow declares named nodes, each with a handler and the names of the
// nodes it depends on.  Compiling the declaration with New validates it
// structurally - referential integrity, cycle detection, root and leaf
// derivation - before any run-time resource is touched.  Build then
// instantiates one runner per node for a single run, wires each runner to its
// parents and appends a synthetic output runner that collapses the leaf
// outputs into the workflow's single result:
//
//	wf := model.NewWorkflow("etl")
//	wf.NewTask("extract", extract)
//	wf.NewTask("transform", transform).WithParents("extract")
//	graph, err := taskdag.New(wf)
//	if err != nil { ... }
//	run := graph.Build(taskdag.WithInput(source))
//	result, err := run.Execute(ctx)
//
// Per-run collaborators - shared context, result cache, event handler and
// admission controllers - are passed explicitly as build options rather than
// held as global state.
package taskdag
