// Package gesture disambiguates a long press on an image from taps and
// scrolls. Each contact runs its own small state machine; the only external
// effect is the long-press callback plus a one-shot native-menu suppression
// the embedding host must consult.
package gesture

import (
	"sync"
	"time"
)

// State of a single contact.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateFired
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateFired:
		return "fired"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// DefaultHoldDuration is how long a contact must stay put to fire.
const DefaultHoldDuration = 500 * time.Millisecond

// Target is the element under a contact, supplied by the host environment.
type Target interface {
	// IsImage reports whether the element is an image; contacts on
	// anything else never enter the state machine.
	IsImage() bool
}

// LongPressHandler receives the fired gesture with the press coordinates.
type LongPressHandler func(target Target, x, y float64)

// Recognizer creates contact state machines and tracks menu suppression.
type Recognizer struct {
	mu          sync.Mutex
	hold        time.Duration
	onLongPress LongPressHandler

	// suppressNext is armed when a long press fires: the next synthesized
	// context-menu event must be swallowed even if the platform delivers it
	// after contact end or against a different element.
	suppressNext bool
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithHoldDuration overrides the press deadline (tests use short values).
func WithHoldDuration(d time.Duration) Option {
	return func(r *Recognizer) {
		if d > 0 {
			r.hold = d
		}
	}
}

// NewRecognizer returns a recognizer firing onLongPress for held contacts.
func NewRecognizer(onLongPress LongPressHandler, opts ...Option) *Recognizer {
	r := &Recognizer{
		hold:        DefaultHoldDuration,
		onLongPress: onLongPress,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Contact is one pointer press. It never outlives the press: Fired and
// Canceled are terminal, and a new press gets a fresh Contact.
type Contact struct {
	r *Recognizer

	mu     sync.Mutex
	state  State
	target Target
	x, y   float64
	timer  *time.Timer
}

// ContactStart begins tracking a press. It returns nil for contacts that
// start outside an image element; those stay outside the machine entirely.
func (r *Recognizer) ContactStart(target Target, x, y float64) *Contact {
	if target == nil || !target.IsImage() {
		return nil
	}
	c := &Contact{
		r:      r,
		state:  StateArmed,
		target: target,
		x:      x,
		y:      y,
	}
	c.timer = time.AfterFunc(r.hold, c.deadline)
	return c
}

// Move cancels an armed contact; any movement means scroll, not long press.
func (c *Contact) Move() {
	c.cancel()
}

// End cancels an armed contact; lifting before the deadline means tap.
func (c *Contact) End() {
	c.cancel()
}

func (c *Contact) cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateArmed {
		return
	}
	c.state = StateCanceled
	if c.timer != nil {
		c.timer.Stop()
	}
}

// State returns the contact's current state.
func (c *Contact) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// deadline runs on the timer goroutine. Move/End and the deadline race for
// the state transition; whoever locks first wins, so the handler can never
// run for a canceled contact and never runs twice.
func (c *Contact) deadline() {
	c.mu.Lock()
	if c.state != StateArmed {
		c.mu.Unlock()
		return
	}
	c.state = StateFired
	target, x, y := c.target, c.x, c.y
	c.mu.Unlock()

	c.r.mu.Lock()
	c.r.suppressNext = true
	handler := c.r.onLongPress
	c.r.mu.Unlock()

	if handler != nil {
		handler(target, x, y)
	}
}

// SuppressContextMenu must be called by the host for every synthesized
// context-menu event. It reports whether the event belongs to a fired long
// press and must be swallowed; the suppression is consumed by the call.
// Target is accepted but deliberately not matched: some platforms deliver
// the menu event after touch end against a different element.
func (r *Recognizer) SuppressContextMenu(_ Target) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.suppressNext {
		return false
	}
	r.suppressNext = false
	return true
}
