package events

import (
	"context"
	"sync"
)

// Recorder keeps published events in memory. Tests use it to assert what the
// services emitted.
type Recorder struct {
	mu     sync.Mutex
	Events []Envelope
}

func (r *Recorder) Publish(_ context.Context, routingKey string, data interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, NewEnvelope(routingKey, data))
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types returns the routing keys in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
