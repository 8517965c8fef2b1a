// Package progress defines the cosmetic progress hooks used by long-running
// pipeline stages.
package progress

// Reporter receives progress updates. Implementations must tolerate an
// unknown total, reported as a negative value.
type Reporter interface {
	// Start begins a new progress run for label.
	Start(label string, total int64)
	// Add advances the run by n units.
	Add(n int64)
	// Done ends the run.
	Done()
}

// Nop is a Reporter that ignores every update.
type Nop struct{}

func (Nop) Start(string, int64) {}
func (Nop) Add(int64)           {}
func (Nop) Done()               {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop{}
	}
	return r
}

// Counter is a Reporter that records what it was told. It is useful when a
// caller needs the totals after the fact.
type Counter struct {
	Label   string
	Total   int64
	Current int64
	Runs    int
	Closed  bool
}

func (c *Counter) Start(label string, total int64) {
	c.Label = label
	c.Total = total
	c.Current = 0
	c.Closed = false
	c.Runs++
}

func (c *Counter) Add(n int64) { c.Current += n }

func (c *Counter) Done() { c.Closed = true }
