package sequencer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Listener is notified after every state change.
type Listener func(State)

// Machine is the turn sequencer. It is safe for concurrent use.
type Machine struct {
	mu        sync.Mutex
	state     State
	pacing    Pacing
	listeners map[int]Listener
	nextID    int

	// gen invalidates pending Ready → Idle timers when a new turn begins.
	gen       uint64
	idleTimer *time.Timer
}

// New creates a machine in the Idle state.
func New(p Pacing) *Machine {
	return &Machine{
		state:     Idle,
		pacing:    p,
		listeners: make(map[int]Listener),
	}
}

// State returns the current phase.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Pacing returns the configured timing table.
func (m *Machine) Pacing() Pacing {
	return m.pacing
}

// Subscribe registers fn for state changes and returns a function removing it.
func (m *Machine) Subscribe(fn Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Begin claims the machine for a new turn. It moves Idle or Ready to
// ReflexGenerating and fails with ErrTurnInFlight in any other state.
func (m *Machine) Begin() error {
	m.mu.Lock()
	if m.state.Busy() {
		m.mu.Unlock()
		return ErrTurnInFlight
	}
	m.gen++
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
	m.state = ReflexGenerating
	listeners := m.snapshot()
	m.mu.Unlock()

	notify(listeners, ReflexGenerating)
	return nil
}

// Advance performs one transition, rejecting steps the machine does not allow.
func (m *Machine) Advance(to State) error {
	m.mu.Lock()
	from := m.state
	if !CanTransition(from, to) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	m.state = to
	listeners := m.snapshot()
	m.mu.Unlock()

	notify(listeners, to)
	return nil
}

// Play walks the timed phases for a resolved reply, then calls commit and
// moves to Ready. A cancelled ctx skips the remaining dwell time but the
// turn still completes; the context error is returned.
func (m *Machine) Play(ctx context.Context, intervention bool, commit func()) error {
	var ctxErr error
	for _, phase := range m.pacing.Plan(intervention) {
		if err := m.Advance(phase.State); err != nil {
			return err
		}
		if ctxErr == nil {
			ctxErr = dwell(ctx, phase.Dwell)
		}
	}
	if commit != nil {
		commit()
	}
	if err := m.Finish(); err != nil {
		return err
	}
	return ctxErr
}

// Finish moves a completed turn to Ready and schedules the return to Idle.
func (m *Machine) Finish() error {
	if err := m.Advance(Ready); err != nil {
		return err
	}
	m.scheduleIdle()
	return nil
}

// Abort ends a turn that never produced a reply.
func (m *Machine) Abort() {
	m.mu.Lock()
	if !m.state.Busy() {
		m.mu.Unlock()
		return
	}
	m.state = Ready
	listeners := m.snapshot()
	m.mu.Unlock()

	notify(listeners, Ready)
	m.scheduleIdle()
}

// Stop cancels a pending idle reset.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
}

func (m *Machine) scheduleIdle() {
	m.mu.Lock()
	gen := m.gen
	hold := m.pacing.ReadyHold
	if hold <= 0 {
		m.mu.Unlock()
		m.resetIdle(gen)
		return
	}
	m.idleTimer = time.AfterFunc(hold, func() { m.resetIdle(gen) })
	m.mu.Unlock()
}

func (m *Machine) resetIdle(gen uint64) {
	m.mu.Lock()
	if m.gen != gen || m.state != Ready {
		m.mu.Unlock()
		return
	}
	m.state = Idle
	m.idleTimer = nil
	listeners := m.snapshot()
	m.mu.Unlock()

	notify(listeners, Idle)
}

// snapshot must be called with mu held.
func (m *Machine) snapshot() []Listener {
	out := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []Listener, s State) {
	for _, fn := range listeners {
		fn(s)
	}
}

func dwell(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
