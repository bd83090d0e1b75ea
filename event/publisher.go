package event

import "context"

// Handler consumes structured run events. Handlers must not block; runners
// invoke them inline on the executing goroutine.
type Handler func(event *Event)

// Publisher delivers run events to a handler. A nil publisher or a publisher
// without a handler drops everything, so callers can publish unconditionally.
type Publisher struct {
	handler Handler
}

// NewPublisher creates a publisher dispatching to the supplied handler.
func NewPublisher(handler Handler) *Publisher {
	return &Publisher{handler: handler}
}

// Publish delivers the event.
func (p *Publisher) Publish(_ context.Context, event *Event) {
	if p == nil || p.handler == nil || event == nil {
		return
	}
	p.handler(event)
}
