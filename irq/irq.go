// Package irq models the interrupt controller side of the hosted hardware:
// a table of vectors, each with a bound handler, an enable bit and a
// priority level. Raise runs the handler synchronously in the caller's
// goroutine; for everything downstream that call *is* interrupt context.
package irq

import "sync"

// Vector identifies one physical interrupt line.
type Vector uint8

// Priority is the interrupt-controller priority for a vector, 0 (highest)
// to 3. The range mirrors the DMA stream priority levels.
type Priority uint8

const MaxPriority Priority = 3

// Handler runs in interrupt context: it must not block, and must return
// promptly.
type Handler func()

type vectorState struct {
	handler Handler
	prio    Priority
	enabled bool
}

// Controller dispatches raised vectors to bound handlers.
type Controller struct {
	mu      sync.Mutex
	vectors map[Vector]*vectorState
}

func NewController() *Controller {
	return &Controller{vectors: make(map[Vector]*vectorState)}
}

func (c *Controller) state(v Vector) *vectorState {
	st, ok := c.vectors[v]
	if !ok {
		st = &vectorState{}
		c.vectors[v] = st
	}
	return st
}

// SetHandler binds h to v. Binding is one-time setup; rebinding an already
// bound vector panics, the same way a duplicate device builder does.
func (c *Controller) SetHandler(v Vector, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(v)
	if st.handler != nil {
		panic("irq: handler already bound for vector")
	}
	st.handler = h
}

// Enable arms the vector at the given priority. Re-enabling an armed vector
// only updates its priority.
func (c *Controller) Enable(v Vector, prio Priority) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(v)
	st.enabled = true
	st.prio = prio
}

// Disable disarms the vector; a disarmed vector swallows Raise.
func (c *Controller) Disable(v Vector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state(v).enabled = false
}

// Enabled reports the arm state and priority of v.
func (c *Controller) Enabled(v Vector) (bool, Priority) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(v)
	return st.enabled, st.prio
}

// Raise fires the vector: if armed and bound, the handler runs synchronously
// before Raise returns. Raising an unbound or disarmed vector is a no-op,
// matching a masked interrupt line.
func (c *Controller) Raise(v Vector) {
	c.mu.Lock()
	st := c.state(v)
	h := st.handler
	enabled := st.enabled
	c.mu.Unlock()
	if enabled && h != nil {
		h()
	}
}
