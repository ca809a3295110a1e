// Package mutation tracks how many optimistic writes against one list are
// still waiting for the backend, so the reconciling refresh runs once after
// the last of them settles instead of after each one.
package mutation

// Coordinator counts in-flight mutations. Create one per session/view and
// hand it to whatever issues mutations. It belongs to the event loop
// goroutine and is not safe for concurrent use.
type Coordinator struct {
	n int
}

// New returns a coordinator with nothing in flight.
func New() *Coordinator { return &Coordinator{} }

// BeginOne records a mutation that has started.
func (c *Coordinator) BeginOne() { c.n++ }

// EndOne records a settled mutation. The counter never drops below zero,
// so a duplicate settlement is a no-op.
func (c *Coordinator) EndOne() {
	if c.n > 0 {
		c.n--
	}
}

// AllEnded reports whether nothing is in flight.
func (c *Coordinator) AllEnded() bool { return c.n == 0 }

// InFlight is the number of mutations not yet settled.
func (c *Coordinator) InFlight() int { return c.n }
