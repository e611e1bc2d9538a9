// Package wizard implements the multi-step flow state machines behind the
// assessment funnel. Each Machine holds a current step, a per-field answer
// store, and step validity rules; transitions are explicit methods guarded by
// a mutex so a machine can be driven from HTTP handlers and its own
// auto-advance timer without races.
package wizard

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Kind classifies a step's answer shape and validity rule.
type Kind int

const (
	// KindSingle requires one selection. Steps may auto-advance on selection.
	KindSingle Kind = iota
	// KindMulti requires at least one selection.
	KindMulti
	// KindMultiExact requires exactly Step.Required selections.
	KindMultiExact
	// KindText requires more than 10 characters of trimmed text.
	KindText
	// KindAllocation requires the category values to sum to within [95, 105].
	// The tolerance band forgives rounding drift from Allocate's rebalancing.
	KindAllocation
)

// Allocation validity band. Rebalancing rounds each redistributed share to
// the nearest integer, so the live total can sit at 99 or 101; tightening the
// band to exactly 100 would strand users on the allocation step.
const (
	allocationMin = 95
	allocationMax = 105
)

// minTextLength is the exclusive lower bound for free-text steps.
const minTextLength = 10

// DefaultAutoAdvanceDelay is how long a selection stays highlighted before
// the machine advances on auto-advance steps.
const DefaultAutoAdvanceDelay = 800 * time.Millisecond

// Step describes one wizard step.
type Step struct {
	ID          string
	Kind        Kind
	Options     []string // valid selections for single/multi kinds; empty = unconstrained
	Required    int      // exact selection count for KindMultiExact
	Categories  []string // allocation categories for KindAllocation
	AutoAdvance bool     // KindSingle only: schedule Next() after a selection
}

// Flow is an ordered list of steps plus a name for routing and logging.
type Flow struct {
	Name  string
	Steps []Step
}

// Machine drives one visitor through one flow.
type Machine struct {
	mu   sync.Mutex
	flow Flow
	step int // 1-indexed

	single map[string]string
	multi  map[string][]string
	text   map[string]string
	alloc  map[string]int

	completed bool
	onDone    func()
	onExit    func()

	autoDelay time.Duration
	pending   *time.Timer
	pendingID uint64 // generation counter; a fired timer with a stale ID is a no-op
	lastEvent time.Time
}

// Option configures a Machine at construction.
type Option func(*Machine)

// WithAutoAdvanceDelay overrides the auto-advance delay (tests use a few
// milliseconds).
func WithAutoAdvanceDelay(d time.Duration) Option {
	return func(m *Machine) { m.autoDelay = d }
}

// WithCompletion sets the callback invoked when Next() is called on the final
// step with a valid answer. Invoked at most once.
func WithCompletion(fn func()) Option {
	return func(m *Machine) { m.onDone = fn }
}

// WithExit sets the callback invoked when Back() is called on step 1.
func WithExit(fn func()) Option {
	return func(m *Machine) { m.onExit = fn }
}

// New creates a machine positioned on step 1 with empty answers. Allocation
// steps start with every category at zero.
func New(flow Flow, opts ...Option) *Machine {
	m := &Machine{
		flow:      flow,
		step:      1,
		single:    make(map[string]string),
		multi:     make(map[string][]string),
		text:      make(map[string]string),
		alloc:     make(map[string]int),
		autoDelay: DefaultAutoAdvanceDelay,
		lastEvent: time.Now(),
	}
	for _, s := range flow.Steps {
		if s.Kind == KindAllocation {
			for _, c := range s.Categories {
				m.alloc[c] = 0
			}
		}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ─── READ ACCESSORS ──────────────────────────────────────────────────────────

// Step returns the current 1-indexed step number.
func (m *Machine) Step() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

// Completed reports whether the completion callback has fired.
func (m *Machine) Completed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed
}

// LastEvent returns the time of the most recent transition or answer, used by
// the registry to expire idle machines.
func (m *Machine) LastEvent() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastEvent
}

// Valid reports whether the current step's validity predicate holds.
func (m *Machine) Valid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stepValid(m.currentStep())
}

// Snapshot returns a copy of all answers. The allocation map is cloned so
// callers cannot mutate machine state.
func (m *Machine) Snapshot() Answers {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := Answers{
		Single:     make(map[string]string, len(m.single)),
		Multi:      make(map[string][]string, len(m.multi)),
		Text:       make(map[string]string, len(m.text)),
		Allocation: make(map[string]int, len(m.alloc)),
	}
	for k, v := range m.single {
		a.Single[k] = v
	}
	for k, v := range m.multi {
		a.Multi[k] = append([]string(nil), v...)
	}
	for k, v := range m.text {
		a.Text[k] = v
	}
	for k, v := range m.alloc {
		a.Allocation[k] = v
	}
	return a
}

// Answers is a value copy of a machine's answer store.
type Answers struct {
	Single     map[string]string
	Multi      map[string][]string
	Text       map[string]string
	Allocation map[string]int
}

// ─── ANSWER EVENTS ───────────────────────────────────────────────────────────

// Select records a single-choice answer on the current step. On auto-advance
// steps it schedules Next() after the configured delay, replacing any pending
// transition so rapid re-selection only advances once.
func (m *Machine) Select(value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	step := m.currentStep()
	if step.Kind != KindSingle {
		return fmt.Errorf("wizard: step %s does not take a single selection", step.ID)
	}
	if len(step.Options) > 0 && !contains(step.Options, value) {
		return fmt.Errorf("wizard: %q is not an option for step %s", value, step.ID)
	}

	m.single[step.ID] = value
	m.touch()

	if step.AutoAdvance {
		m.scheduleAdvanceLocked()
	}
	return nil
}

// Toggle flips a value in the current multi-select step's selection set.
func (m *Machine) Toggle(value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	step := m.currentStep()
	if step.Kind != KindMulti && step.Kind != KindMultiExact {
		return fmt.Errorf("wizard: step %s is not multi-select", step.ID)
	}
	if len(step.Options) > 0 && !contains(step.Options, value) {
		return fmt.Errorf("wizard: %q is not an option for step %s", value, step.ID)
	}

	current := m.multi[step.ID]
	for i, v := range current {
		if v == value {
			m.multi[step.ID] = append(current[:i:i], current[i+1:]...)
			m.touch()
			return nil
		}
	}
	m.multi[step.ID] = append(current, value)
	m.touch()
	return nil
}

// SetText sets the free-text answer on the current step.
func (m *Machine) SetText(value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	step := m.currentStep()
	if step.Kind != KindText {
		return fmt.Errorf("wizard: step %s is not a text step", step.ID)
	}
	m.text[step.ID] = value
	m.touch()
	return nil
}

// Allocate sets one allocation category to value and redistributes the
// remainder (100−value) across the other categories in proportion to their
// previous weights, or equally when every previous weight is zero. Each
// redistributed share is rounded to nearest, which is why validity uses the
// [95,105] band instead of exact equality.
func (m *Machine) Allocate(category string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	step := m.currentStep()
	if step.Kind != KindAllocation {
		return fmt.Errorf("wizard: step %s is not an allocation step", step.ID)
	}
	if !contains(step.Categories, category) {
		return fmt.Errorf("wizard: unknown allocation category %q", category)
	}

	Rebalance(m.alloc, step.Categories, category, value)
	m.touch()
	return nil
}

// Rebalance applies the proportional redistribution rule in place. Exported
// so the result stays testable in isolation from a running machine.
func Rebalance(alloc map[string]int, categories []string, changed string, value int) {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	prevSum := 0
	for _, c := range categories {
		if c != changed {
			prevSum += alloc[c]
		}
	}

	remaining := 100 - value
	others := len(categories) - 1

	alloc[changed] = value
	for _, c := range categories {
		if c == changed {
			continue
		}
		if prevSum == 0 {
			if others > 0 {
				alloc[c] = int(float64(remaining)/float64(others) + 0.5)
			}
			continue
		}
		alloc[c] = int(float64(alloc[c])*float64(remaining)/float64(prevSum) + 0.5)
	}
}

// ─── NAVIGATION ──────────────────────────────────────────────────────────────

// Next advances to the following step if the current step is valid. On the
// final step it fires the completion callback instead of advancing past N.
// Returns true if the machine advanced or completed; false when the current
// step's validity predicate blocked the transition.
func (m *Machine) Next() bool {
	m.mu.Lock()
	advanced, done := m.nextLocked()
	m.mu.Unlock()

	if done != nil {
		done()
	}
	return advanced
}

// nextLocked performs the Next transition with m.mu held. The completion
// callback is returned rather than invoked so it runs outside the lock.
func (m *Machine) nextLocked() (advanced bool, done func()) {
	m.cancelPendingLocked()

	if !m.stepValid(m.currentStep()) {
		return false, nil
	}
	m.touch()

	if m.step >= len(m.flow.Steps) {
		already := m.completed
		m.completed = true
		if !already {
			return true, m.onDone
		}
		return true, nil
	}

	m.step++
	return true, nil
}

// Back moves one step backwards. On step 1 it invokes the exit callback
// instead of underflowing to step 0.
func (m *Machine) Back() {
	m.mu.Lock()

	m.cancelPendingLocked()
	m.touch()

	if m.step <= 1 {
		exit := m.onExit
		m.mu.Unlock()
		if exit != nil {
			exit()
		}
		return
	}

	m.step--
	m.mu.Unlock()
}

// Close cancels any pending auto-advance transition. Call when the visitor
// navigates away so a stale timer cannot fire into a later, unrelated step.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelPendingLocked()
}

// ─── INTERNALS ───────────────────────────────────────────────────────────────

func (m *Machine) currentStep() Step {
	return m.flow.Steps[m.step-1]
}

func (m *Machine) touch() {
	m.lastEvent = time.Now()
}

// stepValid applies the per-kind validity predicate. Callers hold m.mu.
func (m *Machine) stepValid(s Step) bool {
	switch s.Kind {
	case KindSingle:
		return m.single[s.ID] != ""
	case KindMulti:
		return len(m.multi[s.ID]) >= 1
	case KindMultiExact:
		return len(m.multi[s.ID]) == s.Required
	case KindText:
		return len(strings.TrimSpace(m.text[s.ID])) > minTextLength
	case KindAllocation:
		sum := 0
		for _, c := range s.Categories {
			sum += m.alloc[c]
		}
		return sum >= allocationMin && sum <= allocationMax
	default:
		return false
	}
}

// scheduleAdvanceLocked arms the auto-advance timer, replacing any pending
// one. The generation counter makes an already-fired-but-not-yet-run timer
// callback a no-op after cancellation or rescheduling.
func (m *Machine) scheduleAdvanceLocked() {
	m.cancelPendingLocked()
	m.pendingID++
	id := m.pendingID
	m.pending = time.AfterFunc(m.autoDelay, func() {
		m.mu.Lock()
		if id != m.pendingID {
			m.mu.Unlock()
			return
		}
		_, done := m.nextLocked()
		m.mu.Unlock()
		if done != nil {
			done()
		}
	})
}

func (m *Machine) cancelPendingLocked() {
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.pendingID++
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
