// Package history keeps a bounded undo/redo record of drawing layer
// snapshots for the active map.
package history

// DefaultLimit is the number of entries kept per stack.
const DefaultLimit = 50

// History holds the undo and redo stacks. It is not safe for concurrent use;
// the editor touches it from the UI goroutine only.
type History struct {
	limit int
	undo  ring
	redo  ring
}

// New returns a History keeping at most limit entries per stack. A limit
// below one selects DefaultLimit.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit, undo: newRing(limit), redo: newRing(limit)}
}

// Limit returns the per-stack capacity.
func (h *History) Limit() int { return h.limit }

// Push records s as a new undo point. Any redo history is discarded.
func (h *History) Push(s Snapshot) {
	h.undo.push(s)
	h.redo.clear()
}

// Undo returns the newest undo entry after stashing current() on the redo
// stack. It reports false, without calling current, when nothing can be
// undone.
func (h *History) Undo(current func() Snapshot) (Snapshot, bool) {
	if h.undo.len() == 0 {
		return "", false
	}
	h.redo.push(current())
	return h.undo.pop()
}

// Redo is the mirror of Undo.
func (h *History) Redo(current func() Snapshot) (Snapshot, bool) {
	if h.redo.len() == 0 {
		return "", false
	}
	h.undo.push(current())
	return h.redo.pop()
}

// Replace swaps in externally supplied stacks, oldest entry first. Invalid
// snapshots are dropped; the number dropped is returned.
func (h *History) Replace(undo, redo []Snapshot) int {
	dropped := 0
	fill := func(r *ring, src []Snapshot) {
		r.clear()
		for _, s := range src {
			if !s.Valid() {
				dropped++
				continue
			}
			r.push(s)
		}
	}
	fill(&h.undo, undo)
	fill(&h.redo, redo)
	return dropped
}

// Clear empties both stacks.
func (h *History) Clear() {
	h.undo.clear()
	h.redo.clear()
}

func (h *History) CanUndo() bool { return h.undo.len() > 0 }

func (h *History) CanRedo() bool { return h.redo.len() > 0 }

// UndoStack returns a copy of the undo entries, oldest first.
func (h *History) UndoStack() []Snapshot { return h.undo.items() }

// RedoStack returns a copy of the redo entries, oldest first.
func (h *History) RedoStack() []Snapshot { return h.redo.items() }

// ring is a fixed capacity stack that evicts its oldest entry on overflow.
type ring struct {
	buf  []Snapshot
	head int // index of the oldest entry
	n    int
}

func newRing(capacity int) ring {
	return ring{buf: make([]Snapshot, capacity)}
}

func (r *ring) len() int { return r.n }

func (r *ring) push(s Snapshot) {
	if r.n == len(r.buf) {
		r.buf[r.head] = s
		r.head = (r.head + 1) % len(r.buf)
		return
	}
	r.buf[(r.head+r.n)%len(r.buf)] = s
	r.n++
}

func (r *ring) pop() (Snapshot, bool) {
	if r.n == 0 {
		return "", false
	}
	idx := (r.head + r.n - 1) % len(r.buf)
	s := r.buf[idx]
	r.buf[idx] = ""
	r.n--
	return s, true
}

func (r *ring) clear() {
	for i := range r.buf {
		r.buf[i] = ""
	}
	r.head, r.n = 0, 0
}

func (r *ring) items() []Snapshot {
	out := make([]Snapshot, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
