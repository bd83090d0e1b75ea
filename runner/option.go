package runner

import (
	"github.com/taskdag/taskdag/admission"
	"github.com/taskdag/taskdag/cache"
	"github.com/taskdag/taskdag/event"
)

// Option customises a runner at construction time.
type Option func(r *Runner)

// WithWorkflow sets the owning workflow name.
func WithWorkflow(name string) Option {
	return func(r *Runner) { r.workflow = name }
}

// WithRunID binds the runner to a run identifier.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// WithContext sets the shared per-run context.
func WithContext(runContext map[string]interface{}) Option {
	return func(r *Runner) { r.runContext = runContext }
}

// WithInput sets the run's root input value.
func WithInput(input interface{}) Option {
	return func(r *Runner) { r.input = input }
}

// WithEvents sets the publisher run events are delivered to.
func WithEvents(publisher *event.Publisher) Option {
	return func(r *Runner) { r.events = publisher }
}

// WithCache sets the shared result cache.
func WithCache(results cache.Store[string, interface{}]) Option {
	return func(r *Runner) { r.results = results }
}

// WithAutorun sets the predicate consulted before the runner starts
// automatically as a dependency of another runner.
func WithAutorun(autorun func(node string) bool) Option {
	return func(r *Runner) { r.autorun = autorun }
}

// WithControllers sets the shared admission controllers, acquired in the
// given order before the handler runs.
func WithControllers(controllers ...admission.Controller) Option {
	return func(r *Runner) { r.controllers = controllers }
}
