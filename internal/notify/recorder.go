package notify

import (
	"context"
	"sync"
)

// Sent is one call recorded by Recorder.
type Sent struct {
	Target  Target
	Message Message
}

// Recorder is an in-memory Notifier used in tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
}

func (r *Recorder) Notify(_ context.Context, target Target, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{Target: target, Message: msg})
}

func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// Rooms returns the room of every recorded notification, in order.
func (r *Recorder) Rooms() []string {
	sent := r.Sent()
	rooms := make([]string, 0, len(sent))
	for _, s := range sent {
		rooms = append(rooms, s.Target.Room())
	}
	return rooms
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
