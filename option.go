package taskdag

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/taskdag/taskdag/admission"
	"github.com/taskdag/taskdag/cache"
	"github.com/taskdag/taskdag/event"
	"github.com/taskdag/taskdag/policy"
	"github.com/taskdag/taskdag/tracing"
)

// Option customises a compiled graph.
type Option func(g *Graph)

// WithTracing configures OpenTelemetry tracing for runs of this graph. If
// outputFile is empty the stdout exporter is used; otherwise spans are
// written to the supplied file path. Safe to call multiple times - the first
// successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(g *Graph) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter, enabling exporters other than the built-in stdout one, for
// example OTLP, Jaeger or Zipkin.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(g *Graph) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}

// buildConfig aggregates the per-run build parameters.
type buildConfig struct {
	context     map[string]interface{}
	input       interface{}
	events      event.Handler
	results     cache.Store[string, interface{}]
	autorun     func(node string) bool
	controllers []admission.Controller
}

// BuildOption customises one build of the runner graph.
type BuildOption func(c *buildConfig)

// WithRunContext supplies the shared per-run context. When omitted the
// workflow's context factory manufactures a fresh one.
func WithRunContext(runContext map[string]interface{}) BuildOption {
	return func(c *buildConfig) { c.context = runContext }
}

// WithInput sets the run's root input value.
func WithInput(input interface{}) BuildOption {
	return func(c *buildConfig) { c.input = input }
}

// WithEventHandler sets the callback invoked with structured run events.
func WithEventHandler(handler event.Handler) BuildOption {
	return func(c *buildConfig) { c.events = handler }
}

// WithCache sets the keyed result store memoising node outputs.
func WithCache(results cache.Store[string, interface{}]) BuildOption {
	return func(c *buildConfig) { c.results = results }
}

// WithAutorun sets the predicate controlling whether downstream nodes start
// automatically when demanded as dependencies.
func WithAutorun(autorun func(node string) bool) BuildOption {
	return func(c *buildConfig) { c.autorun = autorun }
}

// WithPolicy derives the autorun predicate from an execution policy. A nil
// policy keeps the default "run everything automatically" behaviour.
func WithPolicy(p *policy.Policy) BuildOption {
	return func(c *buildConfig) { c.autorun = p.Autorun }
}

// WithControllers sets the admission controllers shared by every runner of
// the run.
func WithControllers(controllers ...admission.Controller) BuildOption {
	return func(c *buildConfig) { c.controllers = controllers }
}
