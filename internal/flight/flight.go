// Package flight holds the two primitives the UI uses to keep racing
// continuations in order: a Sequence that tags asynchronous work so only the
// most recent result is applied, and a Guard that lets at most one holder own
// an operation (a dialog, an import) at a time.
//
// Both types are meant to be owned by a single component and touched only
// from the UI event loop; they are not safe for concurrent use.
package flight

// Sequence issues monotonically increasing tags. The zero value is ready to use
// and has no current tag.
type Sequence struct {
	current uint64
}

// Next issues a new tag and makes it current.
func (s *Sequence) Next() uint64 {
	s.current++
	return s.current
}

// Current returns the most recently issued tag, or 0 if none was issued.
func (s *Sequence) Current() uint64 {
	return s.current
}

// IsCurrent reports whether tag is the most recently issued one.
func (s *Sequence) IsCurrent(tag uint64) bool {
	return tag != 0 && tag == s.current
}

// Invalidate retires the current tag so no outstanding result matches it.
func (s *Sequence) Invalidate() {
	s.current++
}

// Guard grants one token at a time.
type Guard struct {
	next   uint64
	active uint64
}

// Acquire issues a token if none is held. ok is false while another token is
// outstanding; the caller must treat that as a no-op.
func (g *Guard) Acquire() (token uint64, ok bool) {
	if g.active != 0 {
		return 0, false
	}
	g.next++
	g.active = g.next
	return g.active, true
}

// Release clears the guard if token is the one currently held. Releasing a
// stale or zero token does nothing.
func (g *Guard) Release(token uint64) bool {
	if token == 0 || token != g.active {
		return false
	}
	g.active = 0
	return true
}

// Held reports whether a token is outstanding.
func (g *Guard) Held() bool {
	return g.active != 0
}

// Token returns the outstanding token, or 0.
func (g *Guard) Token() uint64 {
	return g.active
}
