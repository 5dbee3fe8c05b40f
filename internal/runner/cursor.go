package runner

// Cursor is the index of the displayed question.
// The bounds always come from the length of the question slice.
type Cursor struct {
	index int
	total int
}

func NewCursor(total int) *Cursor {
	if total < 0 {
		total = 0
	}
	return &Cursor{total: total}
}

// GoTo moves to i clamped to [0, total-1] and returns the new index.
func (c *Cursor) GoTo(i int) int {
	switch {
	case c.total == 0 || i < 0:
		c.index = 0
	case i > c.total-1:
		c.index = c.total - 1
	default:
		c.index = i
	}
	return c.index
}

func (c *Cursor) Next() int { return c.GoTo(c.index + 1) }

func (c *Cursor) Prev() int { return c.GoTo(c.index - 1) }

func (c *Cursor) Index() int { return c.index }

func (c *Cursor) Total() int { return c.total }

func (c *Cursor) IsFirst() bool { return c.index == 0 }

func (c *Cursor) IsLast() bool { return c.total == 0 || c.index == c.total-1 }
