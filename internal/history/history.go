package history

// DefaultLimit is the number of entries kept when no limit is configured.
const DefaultLimit = 1000

// History is a bounded list of entries, most recent first.
type History struct {
	entries []Entry
	limit   int
}

// New returns an empty history that keeps at most limit entries.
// A non-positive limit means DefaultLimit.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Limit returns the maximum number of retained entries.
func (h *History) Limit() int {
	return h.limit
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Add puts e at the front and drops the oldest entries beyond the limit.
func (h *History) Add(e Entry) {
	h.entries = append(h.entries, Entry{})
	copy(h.entries[1:], h.entries)
	h.entries[0] = e
	h.trim()
}

// Replace sets the entries, which must already be most recent first.
func (h *History) Replace(entries []Entry) {
	h.entries = append([]Entry(nil), entries...)
	h.trim()
}

// Entries returns a copy of the entries, most recent first.
func (h *History) Entries() []Entry {
	return append([]Entry(nil), h.entries...)
}

// find returns the index of the entry with the given id, or -1.
func (h *History) find(id string) int {
	for i := range h.entries {
		if h.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the entry with the given id.
func (h *History) Get(id string) (Entry, error) {
	i := h.find(id)
	if i < 0 {
		return Entry{}, ErrEntryNotFound
	}
	return h.entries[i], nil
}

// MarkUndone flags the entry with the given id as reverted.
func (h *History) MarkUndone(id string) error {
	i := h.find(id)
	if i < 0 {
		return ErrEntryNotFound
	}
	h.entries[i].Undone = true
	return nil
}

// Clear removes every entry.
func (h *History) Clear() {
	h.entries = nil
}

func (h *History) trim() {
	if len(h.entries) > h.limit {
		clear(h.entries[h.limit:])
		h.entries = h.entries[:h.limit]
	}
}
