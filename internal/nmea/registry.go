package nmea

import (
	"sync"

	"github.com/google/uuid"
)

// registry holds sample and status-change subscribers.
//
// Delivery is synchronous and in registration order, on the goroutine
// that triggered the event. Registering the same callback twice yields
// two independent registrations, each with its own unsubscribe.
type registry struct {
	mu     sync.Mutex
	sample []sampleSub
	status []statusSub
}

type sampleSub struct {
	id uuid.UUID
	cb func(Sample)
}

type statusSub struct {
	id uuid.UUID
	cb func(State)
}

func (r *registry) onSample(cb func(Sample)) func() {
	if cb == nil {
		return func() {}
	}
	id := uuid.New()
	r.mu.Lock()
	r.sample = append(r.sample, sampleSub{id: id, cb: cb})
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i := range r.sample {
			if r.sample[i].id == id {
				r.sample = append(r.sample[:i], r.sample[i+1:]...)
				return
			}
		}
	}
}

func (r *registry) onStatus(cb func(State)) func() {
	if cb == nil {
		return func() {}
	}
	id := uuid.New()
	r.mu.Lock()
	r.status = append(r.status, statusSub{id: id, cb: cb})
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i := range r.status {
			if r.status[i].id == id {
				r.status = append(r.status[:i], r.status[i+1:]...)
				return
			}
		}
	}
}

// notifySample calls subscribers outside the lock so a callback may
// register or unsubscribe without deadlocking.
func (r *registry) notifySample(s Sample) {
	r.mu.Lock()
	subs := make([]sampleSub, len(r.sample))
	copy(subs, r.sample)
	r.mu.Unlock()
	for _, sub := range subs {
		sub.cb(s)
	}
}

func (r *registry) notifyStatus(st State) {
	r.mu.Lock()
	subs := make([]statusSub, len(r.status))
	copy(subs, r.status)
	r.mu.Unlock()
	for _, sub := range subs {
		sub.cb(st)
	}
}
