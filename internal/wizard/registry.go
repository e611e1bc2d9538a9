package wizard

import (
	"fmt"
	"sync"
	"time"
)

// Registry holds the live machines keyed by (session, flow). Machines are
// created on first event and expired after an idle period so abandoned
// sessions do not leak memory or timers.
type Registry struct {
	mu       sync.Mutex
	machines map[string]*Machine
	idleTTL  time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// DefaultIdleTTL is how long an untouched machine survives before the
// sweeper closes and drops it.
const DefaultIdleTTL = 30 * time.Minute

// NewRegistry starts a registry with a background sweeper. Call Close on
// shutdown.
func NewRegistry(idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	r := &Registry{
		machines: make(map[string]*Machine),
		idleTTL:  idleTTL,
		stop:     make(chan struct{}),
	}
	go r.sweep()
	return r
}

// GetOrCreate returns the machine for (sessionID, flowName), creating it on
// first use. Unknown flow names are an error.
func (r *Registry) GetOrCreate(sessionID, flowName string, opts ...Option) (*Machine, error) {
	flow, ok := Flows(flowName)
	if !ok {
		return nil, fmt.Errorf("wizard: unknown flow %q", flowName)
	}

	key := sessionID + "/" + flowName

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.machines[key]; ok {
		return m, nil
	}
	m := New(flow, opts...)
	r.machines[key] = m
	return m, nil
}

// Drop closes and removes the machine for (sessionID, flowName). Called when
// the visitor exits a flow so pending auto-advance timers cannot fire into a
// machine nobody is driving.
func (r *Registry) Drop(sessionID, flowName string) {
	key := sessionID + "/" + flowName

	r.mu.Lock()
	m, ok := r.machines[key]
	delete(r.machines, key)
	r.mu.Unlock()

	if ok {
		m.Close()
	}
}

// Close stops the sweeper and closes every live machine.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })

	r.mu.Lock()
	machines := make([]*Machine, 0, len(r.machines))
	for _, m := range r.machines {
		machines = append(machines, m)
	}
	r.machines = make(map[string]*Machine)
	r.mu.Unlock()

	for _, m := range machines {
		m.Close()
	}
}

func (r *Registry) sweep() {
	ticker := time.NewTicker(r.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-r.idleTTL)

			r.mu.Lock()
			var expired []*Machine
			for key, m := range r.machines {
				if m.LastEvent().Before(cutoff) {
					expired = append(expired, m)
					delete(r.machines, key)
				}
			}
			r.mu.Unlock()

			for _, m := range expired {
				m.Close()
			}
		}
	}
}
