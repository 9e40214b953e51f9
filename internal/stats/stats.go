// Package stats holds the process counters owned by the reasoning loop
// (iteration count, LLM calls, recursion depth). The store never touches
// them; the viewer reads them at /api/stats.
package stats

import "sync/atomic"

// Counters is safe for concurrent use by the loop and the viewer.
type Counters struct {
	iterations atomic.Int64
	llmCalls   atomic.Int64
	depth      atomic.Int64
}

// View is the serializable form served to the viewer.
type View struct {
	Iterations int64 `json:"iterations"`
	LLMCalls   int64 `json:"llm_calls"`
	Depth      int64 `json:"depth"`
}

// SetIteration records the loop's current step index.
func (c *Counters) SetIteration(n int64) {
	c.iterations.Store(n)
}

// AddLLMCall increments the total LLM call count.
func (c *Counters) AddLLMCall() {
	c.llmCalls.Add(1)
}

// EnterRecursion and LeaveRecursion track the loop's current nesting depth.
func (c *Counters) EnterRecursion() {
	c.depth.Add(1)
}

func (c *Counters) LeaveRecursion() {
	c.depth.Add(-1)
}

// Snapshot returns a consistent-enough copy for display; the three counters
// are independent and read individually.
func (c *Counters) Snapshot() View {
	return View{
		Iterations: c.iterations.Load(),
		LLMCalls:   c.llmCalls.Load(),
		Depth:      c.depth.Load(),
	}
}
