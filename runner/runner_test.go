package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taskdag/taskdag/admission"
	"github.com/taskdag/taskdag/cache"
	"github.com/taskdag/taskdag/event"
	"github.com/taskdag/taskdag/model"
)

// recorder tracks handler invocation order across runners.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) note(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

func (r *recorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func (r *recorder) handler(name string, output interface{}) model.Handler {
	return func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		r.note(name)
		return output, nil
	}
}

func indexOf(haystack []string, needle string) int {
	for i, item := range haystack {
		if item == needle {
			return i
		}
	}
	return -1
}

func TestExecuteResolvesParentsFirst(t *testing.T) {
	rec := &recorder{}
	a := New("a", model.NewNode(rec.handler("a", "A")))
	b := New("b", model.NewNode(rec.handler("b", "B")).WithParents("a"))
	c := New("c", model.NewNode(rec.handler("c", "C")).WithParents("a"))
	d := New("d", model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		rec.note("d")
		return invocation.ParentOutput, nil
	}).WithParents("b", "c"))
	b.Wire(a)
	c.Wire(a)
	d.Wire(b, c)

	output, err := d.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"b": "B", "c": "C"}, output)

	order := rec.recorded()
	// Diamond: a runs exactly once, before b and c, which both precede d.
	assert.Len(t, order, 4)
	assert.Equal(t, 0, indexOf(order, "a"))
	assert.Equal(t, "d", order[len(order)-1])
	assert.Equal(t, StateCompleted, a.State())
	assert.Equal(t, 1, a.Attempts())
}

func TestExecuteIsIdempotent(t *testing.T) {
	var calls int32
	r := New("once", model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "done", nil
	}))
	first, err := r.Execute(context.Background())
	assert.NoError(t, err)
	second, err := r.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestParentFailureAbortsChild(t *testing.T) {
	boom := errors.New("boom")
	parent := New("parent", model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		return nil, boom
	}))
	child := New("child", model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		return "ran", nil
	}).WithParents("parent"))
	child.Wire(parent)

	_, err := child.Execute(context.Background())
	assert.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, StateFailed, child.State())
	assert.Equal(t, StateFailed, parent.State())
}

func TestTolerateParentErrors(t *testing.T) {
	parent := New("parent", model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		return nil, errors.New("boom")
	}))
	sibling := New("sibling", model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		return "ok", nil
	}))
	child := New("child", model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		return invocation.ParentOutput, nil
	}).WithParents("parent", "sibling").WithTolerateParentErrors(true))
	child.Wire(parent, sibling)

	output, err := child.Execute(context.Background())
	assert.NoError(t, err)
	// The failed parent contributes no output; the healthy one does.
	assert.Equal(t, map[string]interface{}{"sibling": "ok"}, output)
	assert.Equal(t, StateCompleted, child.State())
}

func TestRetry(t *testing.T) {
	var calls int32
	node := model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, errors.New("transient")
		}
		return "recovered", nil
	}).WithRetry(&model.Retry{Type: "fixed", MaxRetries: 3, Delay: "1ms"})

	r := New("flaky", node)
	output, err := r.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "recovered", output)
	assert.Equal(t, 3, r.Attempts())
}

func TestRetryExhausted(t *testing.T) {
	node := model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		return nil, errors.New("permanent")
	}).WithRetry(&model.Retry{Type: "fixed", MaxRetries: 2, Delay: "1ms"})

	r := New("doomed", node)
	_, err := r.Execute(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 3, r.Attempts())
	assert.Equal(t, StateFailed, r.State())
}

func TestCacheMemoisesAcrossRuns(t *testing.T) {
	results := cache.NewMemory[string, interface{}]()
	var calls int32
	handler := func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "expensive", nil
	}
	options := []Option{WithWorkflow("wf"), WithCache(results)}

	first := New("costly", model.NewNode(handler), options...)
	output, err := first.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "expensive", output)

	second := New("costly", model.NewNode(handler), options...)
	output, err = second.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "expensive", output)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAutorunVetoSkipsDependency(t *testing.T) {
	autorun := func(node string) bool { return node != "vetoed" }
	parent := New("vetoed", model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		return "never", nil
	}), WithAutorun(autorun))
	child := New("child", model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		return invocation.ParentOutput, nil
	}).WithParents("vetoed"), WithAutorun(autorun))
	child.Wire(parent)

	output, err := child.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, map[string]interface{}{}, output)
	assert.Equal(t, StateSkipped, parent.State())
	assert.Equal(t, StateCompleted, child.State())
}

func TestAdmissionLimitsConcurrency(t *testing.T) {
	controller := admission.NewWeighted(1)
	var active, peak int32
	handler := func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		current := atomic.AddInt32(&active, 1)
		defer atomic.AddInt32(&active, -1)
		for {
			observed := atomic.LoadInt32(&peak)
			if current <= observed || atomic.CompareAndSwapInt32(&peak, observed, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return nil, nil
	}
	left := New("left", model.NewNode(handler), WithControllers(controller))
	right := New("right", model.NewNode(handler), WithControllers(controller))
	sink := New("sink", model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		return nil, nil
	}).WithParents("left", "right"), WithControllers(controller))
	sink.Wire(left, right)

	_, err := sink.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestEventsEmitted(t *testing.T) {
	var mu sync.Mutex
	var types []string
	publisher := event.NewPublisher(func(e *event.Event) {
		mu.Lock()
		defer mu.Unlock()
		types = append(types, e.Context.EventType)
	})
	parent := New("parent", model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		return 1, nil
	}), WithEvents(publisher), WithRunID("run-1"), WithWorkflow("wf"))
	child := New("child", model.NewNode(func(ctx context.Context, invocation *model.Invocation) (interface{}, error) {
		return nil, errors.New("boom")
	}).WithParents("parent"), WithEvents(publisher), WithRunID("run-1"), WithWorkflow("wf"))
	child.Wire(parent)

	_, err := child.Execute(context.Background())
	assert.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		event.TypeNodeStarted,
		event.TypeNodeCompleted,
		event.TypeNodeStarted,
		event.TypeNodeFailed,
	}, types)
}

func TestWireBindsParents(t *testing.T) {
	parent := New("p", model.NewNode(nil))
	child := New("c", model.NewNode(nil).WithParents("p"))
	assert.Empty(t, child.Parents())
	child.Wire(parent)
	if assert.Len(t, child.Parents(), 1) {
		assert.Same(t, parent, child.Parents()[0])
	}
}
