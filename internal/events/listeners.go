package events

// Registry maps event types to their listeners, in registration order.
// It is owned by one world thread and is not safe for concurrent use.
type Registry struct {
	listeners map[string][]Listener
}

func NewRegistry() *Registry {
	return &Registry{listeners: map[string][]Listener{}}
}

// RegisterListener adds a listener for events of the same type as e.
func (r *Registry) RegisterListener(e Event, l Listener) {
	r.listeners[e.Type()] = append(r.listeners[e.Type()], l)
}

// Dispatch runs listeners until one cancels. Returns how many ran.
func (r *Registry) Dispatch(e Event) int {
	ran := 0
	for _, l := range r.listeners[e.Type()] {
		ran++
		if l(e) == Cancel {
			break
		}
	}
	return ran
}
