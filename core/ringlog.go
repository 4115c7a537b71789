package core

// DefaultLogCapacity bounds the operational log kept in simulation state.
const DefaultLogCapacity = 50

// LogRing is a fixed-capacity append-only log. Appending at capacity
// evicts the oldest line. Not safe for concurrent use; the session layer
// owns synchronization.
type LogRing struct {
	lines    []string
	start    int
	cap      int
	appended int
}

// NewLogRing returns an empty ring. Non-positive capacities fall back to
// DefaultLogCapacity.
func NewLogRing(capacity int) *LogRing {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogRing{lines: make([]string, 0, capacity), cap: capacity}
}

// Append adds a line, evicting the oldest when at capacity.
func (r *LogRing) Append(line string) {
	r.appended++
	if len(r.lines) < r.cap {
		r.lines = append(r.lines, line)
		return
	}
	r.lines[r.start] = line
	r.start = (r.start + 1) % r.cap
}

// Lines returns the retained lines oldest-first. The result is a copy;
// callers may keep or mutate it.
func (r *LogRing) Lines() []string {
	out := make([]string, 0, len(r.lines))
	for i := 0; i < len(r.lines); i++ {
		out = append(out, r.lines[(r.start+i)%len(r.lines)])
	}
	return out
}

// Tail returns the n most recent lines, oldest-first. Non-positive n
// returns every retained line.
func (r *LogRing) Tail(n int) []string {
	all := r.Lines()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Len returns the number of retained lines.
func (r *LogRing) Len() int { return len(r.lines) }

// Appended returns the total number of lines ever appended, evicted ones
// included. Callers diff it across a tick to recover the tick's lines.
func (r *LogRing) Appended() int { return r.appended }

// Capacity returns the maximum number of retained lines.
func (r *LogRing) Capacity() int { return r.cap }
