package store

type Collection string

const (
	Feeds   Collection = "feed"
	Stories Collection = "story"
)

// Ticket identifies one list request against a collection. A response may only
// be applied while its ticket is still current.
type Ticket struct {
	Collection Collection
	Generation uint64
	Cursor     string
}

type cursorState struct {
	next       string
	generation uint64
}

type cursors struct {
	state map[Collection]*cursorState
}

func newCursors() *cursors {
	return &cursors{state: map[Collection]*cursorState{
		Feeds:   {},
		Stories: {},
	}}
}

func (c *cursors) get(col Collection) string {
	return c.state[col].next
}

func (c *cursors) set(col Collection, next string) {
	c.state[col].next = next
}

// begin starts a first-page load; any ticket issued earlier becomes stale.
func (c *cursors) begin(col Collection) Ticket {
	st := c.state[col]
	st.generation++
	return Ticket{Collection: col, Generation: st.generation}
}

// more returns a ticket for the next page, or false when there is none.
func (c *cursors) more(col Collection) (Ticket, bool) {
	st := c.state[col]
	if st.next == "" {
		return Ticket{}, false
	}
	return Ticket{Collection: col, Generation: st.generation, Cursor: st.next}, true
}

func (c *cursors) current(t Ticket) bool {
	st, ok := c.state[t.Collection]
	if !ok || st.generation != t.Generation {
		return false
	}
	return t.Cursor == "" || t.Cursor == st.next
}
