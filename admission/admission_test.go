package admission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeightedAcquireRelease(t *testing.T) {
	ctx := context.Background()
	controller := NewWeighted(2)
	assert.NoError(t, controller.Acquire(ctx))
	assert.NoError(t, controller.Acquire(ctx))

	// Third acquisition must block until a slot is released.
	blocked, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	err := controller.Acquire(blocked)
	assert.Error(t, err)

	controller.Release()
	assert.NoError(t, controller.Acquire(ctx))
	controller.Release()
	controller.Release()
}

func TestWeightedHonoursCancellation(t *testing.T) {
	controller := NewWeighted(1)
	assert.NoError(t, controller.Acquire(context.Background()))
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, controller.Acquire(cancelled))
	controller.Release()
}
