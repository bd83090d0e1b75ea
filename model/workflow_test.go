package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgrammaticWorkflowCreation(t *testing.T) {
	noop := func(ctx context.Context, invocation *Invocation) (interface{}, error) {
		return nil, nil
	}

	workflow := NewWorkflow("etl").
		WithDescription("extract, transform, load").
		WithVersion("1.0")

	workflow.NewTask("extract", noop)
	workflow.NewTask("transform", noop).WithParents("extract")
	workflow.NewTask("load", noop).
		WithParents("transform").
		WithTolerateParentErrors(true).
		WithRetry(&Retry{Type: "fixed", MaxRetries: 2, Delay: "50ms"})

	assert.Equal(t, "etl", workflow.Name)
	assert.Equal(t, "extract, transform, load", workflow.Description)
	assert.Equal(t, "1.0", workflow.Version)
	assert.Len(t, workflow.Nodes, 3)

	assert.Empty(t, workflow.Nodes["extract"].Parents)
	assert.Equal(t, []string{"transform"}, workflow.Nodes["load"].Parents)
	assert.True(t, workflow.Nodes["load"].TolerateParentErrors)
	assert.Equal(t, 2, workflow.Nodes["load"].Retry.MaxRetries)
}

func TestNamedProjection(t *testing.T) {
	workflow := NewWorkflow("wf")
	workflow.AddNode("a", NewNode(nil))
	workflow.AddNode("b", NewNode(nil).WithParents("a"))

	named := workflow.Named()
	assert.Len(t, named, 2)
	byName := map[string]*NamedNode{}
	for _, n := range named {
		byName[n.Name] = n
	}
	assert.Same(t, workflow.Nodes["a"], byName["a"].Node)
	assert.Same(t, workflow.Nodes["b"], byName["b"].Node)
}

func TestContextResolution(t *testing.T) {
	workflow := NewWorkflow("wf").WithNewContext(func() map[string]interface{} {
		return map[string]interface{}{"origin": "factory"}
	})

	supplied := map[string]interface{}{"origin": "caller"}
	assert.Equal(t, supplied, workflow.Context(supplied))
	assert.Equal(t, "factory", workflow.Context(nil)["origin"])

	// Each manufactured context is fresh.
	first := workflow.Context(nil)
	first["origin"] = "mutated"
	assert.Equal(t, "factory", workflow.Context(nil)["origin"])

	// Without a factory an empty context is manufactured.
	assert.NotNil(t, NewWorkflow("bare").Context(nil))
}

func TestWorkflowClone(t *testing.T) {
	workflow := NewWorkflow("wf")
	workflow.AddNode("a", NewNode(nil).WithParents("x").WithRetry(&Retry{MaxRetries: 1}))

	clone := workflow.Clone()
	assert.Equal(t, workflow.Name, clone.Name)
	assert.NotSame(t, workflow.Nodes["a"], clone.Nodes["a"])

	clone.Nodes["a"].Parents[0] = "changed"
	clone.Nodes["a"].Retry.MaxRetries = 9
	assert.Equal(t, "x", workflow.Nodes["a"].Parents[0])
	assert.Equal(t, 1, workflow.Nodes["a"].Retry.MaxRetries)
}
