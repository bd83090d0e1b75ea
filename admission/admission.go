// Package admission defines the concurrency-admission controller shared by
// every runner of a run.  Controllers limit how many runners may execute at
// once; they are passed explicitly per run rather than held as global state.
package admission

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Controller is an admission-control handle. Runners acquire every controller
// of a run, in the declared order, before invoking a node handler and release
// them in reverse order afterwards.
type Controller interface {
	// Acquire blocks until a slot is available or ctx is done.
	Acquire(ctx context.Context) error

	// Release returns a previously acquired slot.
	Release()
}

// Weighted is a Controller backed by a weighted semaphore.
type Weighted struct {
	sem *semaphore.Weighted
}

// NewWeighted creates a controller admitting at most limit concurrent runners.
func NewWeighted(limit int64) *Weighted {
	return &Weighted{sem: semaphore.NewWeighted(limit)}
}

// Acquire blocks until a slot is available or ctx is done.
func (w *Weighted) Acquire(ctx context.Context) error {
	return w.sem.Acquire(ctx, 1)
}

// Release returns a slot.
func (w *Weighted) Release() {
	w.sem.Release(1)
}
