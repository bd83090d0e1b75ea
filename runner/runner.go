package runner

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taskdag/taskdag/admission"
	"github.com/taskdag/taskdag/cache"
	"github.com/taskdag/taskdag/event"
	"github.com/taskdag/taskdag/internal/clock"
	"github.com/taskdag/taskdag/model"
	"github.com/taskdag/taskdag/tracing"
)

// Runner is a per-run, mutable execution unit bound to exactly one node
// declaration and to its parent runners. Runners are created fresh for every
// build and never reused across runs. A runner executes its node at most
// once; subsequent Execute calls return the memoised outcome.
type Runner struct {
	name        string
	workflow    string
	runID       string
	node        *model.Node
	runContext  map[string]interface{}
	input       interface{}
	events      *event.Publisher
	results     cache.Store[string, interface{}]
	autorun     func(node string) bool
	controllers []admission.Controller

	parents []*Runner

	once        sync.Once
	mux         sync.RWMutex
	state       State
	output      interface{}
	err         error
	attempts    int
	startedAt   *time.Time
	completedAt *time.Time
}

// New creates a runner for the given node declaration.
func New(name string, node *model.Node, options ...Option) *Runner {
	r := &Runner{
		name:  name,
		node:  node,
		state: StatePending,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Wire binds the runner to its parent runners. The graph builder calls it
// after every runner of the run exists, so any runner can reference any other.
func (r *Runner) Wire(parents ...*Runner) {
	r.parents = parents
}

// Name returns the node name the runner is bound to.
func (r *Runner) Name() string { return r.name }

// Workflow returns the owning workflow name, used for diagnostics grouping.
func (r *Runner) Workflow() string { return r.workflow }

// RunID returns the identifier of the run this runner belongs to.
func (r *Runner) RunID() string { return r.runID }

// Node returns the bound declaration.
func (r *Runner) Node() *model.Node { return r.node }

// Parents returns the wired parent runners.
func (r *Runner) Parents() []*Runner { return r.parents }

// State returns the current runner state.
func (r *Runner) State() State {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.state
}

// Output returns the node output once the runner completed.
func (r *Runner) Output() interface{} {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.output
}

// Err returns the execution error, if any.
func (r *Runner) Err() error {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.err
}

// Attempts returns how many times the handler was invoked.
func (r *Runner) Attempts() int {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.attempts
}

// Execute runs the node after resolving its parents, returning the node
// output. It is idempotent: only the first invocation executes the handler.
func (r *Runner) Execute(ctx context.Context) (interface{}, error) {
	return r.run(ctx, false)
}

// run executes at most once. auto marks invocations triggered as a dependency
// of another runner, which the autorun predicate may veto.
func (r *Runner) run(ctx context.Context, auto bool) (interface{}, error) {
	r.once.Do(func() {
		r.doRun(ctx, auto)
	})
	return r.Output(), r.Err()
}

func (r *Runner) doRun(ctx context.Context, auto bool) {
	if auto && r.autorun != nil && !r.autorun(r.name) {
		r.skip(ctx)
		return
	}
	r.setState(StateWaitForDependencies)
	parentOutput, err := r.resolveParents(ctx)
	if err != nil {
		r.fail(ctx, err)
		return
	}
	for i, controller := range r.controllers {
		if err := controller.Acquire(ctx); err != nil {
			r.release(i)
			r.fail(ctx, err)
			return
		}
	}
	defer r.release(len(r.controllers))

	started := clock.Now()
	r.start(ctx, started)

	output, cached, err := r.lookupCached(ctx)
	if err == nil && !cached {
		output, err = r.invoke(ctx, parentOutput)
	}
	if err != nil {
		r.fail(ctx, err)
		return
	}
	if !cached {
		r.storeCached(ctx, output)
	}
	r.complete(ctx, output, started)
}

// resolveParents runs every parent to completion and returns the combined
// keyed output. Parents execute concurrently; the once guard inside each
// runner keeps diamond dependencies single flight. Failed or skipped parents
// contribute no output; a failed parent aborts the node unless the
// declaration tolerates parent errors.
func (r *Runner) resolveParents(ctx context.Context) (map[string]interface{}, error) {
	if len(r.parents) == 0 {
		return nil, nil
	}
	group, groupCtx := errgroup.WithContext(ctx)
	for _, parent := range r.parents {
		parent := parent
		group.Go(func() error {
			parent.run(groupCtx, true)
			return nil
		})
	}
	_ = group.Wait()

	combined := make(map[string]interface{}, len(r.parents))
	for _, parent := range r.parents {
		switch parent.State() {
		case StateCompleted:
			combined[parent.Name()] = parent.Output()
		case StateFailed:
			if !r.node.TolerateParentErrors {
				return nil, fmt.Errorf("node %q parent %q failed: %w", r.name, parent.Name(), parent.Err())
			}
		}
	}
	return combined, nil
}

// invoke calls the node handler, applying the declaration's retry strategy.
func (r *Runner) invoke(ctx context.Context, parentOutput map[string]interface{}) (interface{}, error) {
	if r.node.Run == nil {
		return nil, fmt.Errorf("node %q has no handler", r.name)
	}
	invocation := &model.Invocation{
		Workflow:     r.workflow,
		Node:         r.name,
		Input:        r.input,
		Context:      r.runContext,
		ParentOutput: parentOutput,
	}
	maxAttempts := 1
	if retry := r.node.Retry; retry != nil && retry.Type != "" && retry.Type != "none" {
		maxAttempts += retry.MaxRetries
	}
	var output interface{}
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		r.mux.Lock()
		r.attempts = attempt
		r.mux.Unlock()
		output, err = r.node.Run(ctx, invocation)
		if err == nil {
			return output, nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(r.node.Retry.DelayFor(attempt, defaultRetryDelay)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, err
}

const defaultRetryDelay = 100 * time.Millisecond

// cacheKey returns the declaration's cache key, defaulting to workflow/node.
func (r *Runner) cacheKey() string {
	if r.node.CacheKey != "" {
		return r.node.CacheKey
	}
	return r.workflow + "/" + r.name
}

func (r *Runner) lookupCached(ctx context.Context) (interface{}, bool, error) {
	if r.results == nil {
		return nil, false, nil
	}
	value, ok, err := r.results.Lookup(ctx, r.cacheKey())
	if err != nil {
		return nil, false, fmt.Errorf("node %q cache lookup failed: %w", r.name, err)
	}
	if ok {
		r.publish(ctx, event.TypeCacheHit, 0, nil)
	}
	return value, ok, nil
}

func (r *Runner) storeCached(ctx context.Context, output interface{}) {
	if r.results == nil {
		return
	}
	// Best effort: a failing cache write never fails an otherwise good run.
	_ = r.results.Put(ctx, r.cacheKey(), output)
}

// release returns the first n acquired controllers in reverse order.
func (r *Runner) release(n int) {
	for i := n - 1; i >= 0; i-- {
		r.controllers[i].Release()
	}
}

func (r *Runner) setState(state State) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.state = state
}

func (r *Runner) start(ctx context.Context, at time.Time) {
	r.mux.Lock()
	r.state = StateRunning
	r.startedAt = &at
	r.mux.Unlock()
	r.publish(ctx, event.TypeNodeStarted, 0, nil)
}

func (r *Runner) complete(ctx context.Context, output interface{}, started time.Time) {
	now := clock.Now()
	r.mux.Lock()
	r.state = StateCompleted
	r.output = output
	r.completedAt = &now
	r.mux.Unlock()
	r.publish(ctx, event.TypeNodeCompleted, int(now.Sub(started).Milliseconds()), output)
	r.traceRun(ctx, started, now, nil)
}

func (r *Runner) fail(ctx context.Context, err error) {
	now := clock.Now()
	r.mux.Lock()
	r.state = StateFailed
	r.err = err
	r.completedAt = &now
	started := r.startedAt
	r.mux.Unlock()
	from := now
	if started != nil {
		from = *started
	}
	r.publish(ctx, event.TypeNodeFailed, int(now.Sub(from).Milliseconds()), err.Error())
	r.traceRun(ctx, from, now, err)
}

func (r *Runner) skip(ctx context.Context) {
	r.setState(StateSkipped)
	r.publish(ctx, event.TypeNodeSkipped, 0, nil)
}

func (r *Runner) publish(ctx context.Context, eventType string, tookMs int, data interface{}) {
	if r.events == nil {
		return
	}
	r.events.Publish(ctx, event.New(&event.Context{
		RunID:       r.runID,
		Workflow:    r.workflow,
		Node:        r.name,
		EventType:   eventType,
		TimeTakenMs: tookMs,
	}, data))
}

// traceRun records one span covering the node run.
func (r *Runner) traceRun(ctx context.Context, started, ended time.Time, err error) {
	_, span := tracing.StartSpan(ctx, r.workflow+"/"+r.name)
	span.WithAttributes(map[string]string{
		"run.id":       r.runID,
		"node.name":    r.name,
		"node.took_ms": strconv.FormatInt(ended.Sub(started).Milliseconds(), 10),
	})
	tracing.EndSpan(span, err)
}
