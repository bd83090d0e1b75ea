package event

import (
	"time"

	"github.com/taskdag/taskdag/internal/clock"
	"github.com/taskdag/taskdag/internal/idgen"
)

// Run event types published while a runner graph executes.
const (
	TypeNodeStarted   = "nodeStarted"
	TypeNodeCompleted = "nodeCompleted"
	TypeNodeFailed    = "nodeFailed"
	TypeNodeSkipped   = "nodeSkipped"
	TypeCacheHit      = "cacheHit"
)

// Context identifies the origin of an event within a run.
type Context struct {
	RunID       string `json:"runId"`
	Workflow    string `json:"workflow"`
	Node        string `json:"node"`
	EventType   string `json:"eventType"`
	TimeTakenMs int    `json:"timeTakenMs"`
}

// Event is a structured run event delivered to the build's event handler.
type Event struct {
	ID        string                 `json:"id"`
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      interface{}            `json:"data,omitempty"`
}

// New creates an event for the given context and payload.
func New(context *Context, data interface{}) *Event {
	return &Event{
		ID:        idgen.New(),
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
