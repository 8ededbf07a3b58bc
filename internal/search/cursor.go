package search

// Cursor tracks the active match while stepping through results. Stepping
// wraps around at either end.
type Cursor struct {
	total  int
	active int
}

// NewCursor returns a cursor over total matches positioned on the first.
func NewCursor(total int) *Cursor {
	if total < 0 {
		total = 0
	}
	return &Cursor{total: total}
}

// Reset repositions the cursor on the first of total matches.
func (c *Cursor) Reset(total int) {
	if total < 0 {
		total = 0
	}
	c.total = total
	c.active = 0
}

// Active returns the index of the active match.
func (c *Cursor) Active() int { return c.active }

// Total returns the number of matches.
func (c *Cursor) Total() int { return c.total }

// Next moves to the following match. No-op without matches.
func (c *Cursor) Next() int {
	if c.total == 0 {
		return c.active
	}
	c.active = (c.active + 1) % c.total
	return c.active
}

// Step moves n matches forward, or back when n is negative, wrapping
// around. No-op without matches.
func (c *Cursor) Step(n int) int {
	if c.total == 0 {
		return c.active
	}
	c.active = ((c.active+n%c.total)%c.total + c.total) % c.total
	return c.active
}

// Prev moves to the preceding match. No-op without matches.
func (c *Cursor) Prev() int {
	if c.total == 0 {
		return c.active
	}
	c.active = (c.active - 1 + c.total) % c.total
	return c.active
}
