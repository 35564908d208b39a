package novelty

// Window is a bounded set that evicts its oldest entry once it exceeds its cap.
// It is not safe for concurrent use.
type Window struct {
	cap     int
	order   []string
	members map[string]struct{}
}

// NewWindow creates an empty window holding at most cap entries.
func NewWindow(cap int) *Window {
	if cap < 1 {
		cap = 1
	}
	return &Window{
		cap:     cap,
		order:   make([]string, 0, cap+1),
		members: make(map[string]struct{}, cap+1),
	}
}

// Add inserts s. Adding an entry already present is a no-op.
func (w *Window) Add(s string) {
	if s == "" {
		return
	}
	if _, ok := w.members[s]; ok {
		return
	}
	w.order = append(w.order, s)
	w.members[s] = struct{}{}
	for len(w.order) > w.cap {
		oldest := w.order[0]
		w.order = w.order[1:]
		delete(w.members, oldest)
	}
}

// Contains reports whether s is in the window.
func (w *Window) Contains(s string) bool {
	_, ok := w.members[s]
	return ok
}

// Len returns the number of entries held.
func (w *Window) Len() int {
	return len(w.order)
}

// Items returns the entries from oldest to newest.
func (w *Window) Items() []string {
	items := make([]string, len(w.order))
	copy(items, w.order)
	return items
}
