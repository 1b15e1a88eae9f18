package outbox

import "context"

// Event is anything published on the in-process bus, identified by name.
type Event interface {
	EventName() string
}

// Handler processes one published event.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Bus is both ends of an event channel.
type Bus interface {
	Publisher
	Subscriber
}
