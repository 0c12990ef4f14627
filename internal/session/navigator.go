package session

import "sort"

// Navigator owns the ordered record sequence and the current position.
// Keys are sorted lexicographically on Reset so position indices stay
// stable across reloads of an unchanged dataset listing.
type Navigator struct {
	keys []string
	pos  int
}

// Reset replaces the sequence and moves to the first record. An empty
// sequence leaves the navigator with no current record.
func (n *Navigator) Reset(keys []string) {
	n.keys = make([]string, len(keys))
	copy(n.keys, keys)
	sort.Strings(n.keys)
	n.pos = 0
}

// Key returns the current record key, if any
func (n *Navigator) Key() (string, bool) {
	if len(n.keys) == 0 {
		return "", false
	}
	return n.keys[n.pos], true
}

// Position returns the current index
func (n *Navigator) Position() int {
	return n.pos
}

// Len returns the sequence length
func (n *Navigator) Len() int {
	return len(n.keys)
}

// CanAdvance reports whether a next record exists
func (n *Navigator) CanAdvance() bool {
	return n.pos < len(n.keys)-1
}

// CanRetreat reports whether a previous record exists
func (n *Navigator) CanRetreat() bool {
	return n.pos > 0
}

// Advance moves to the next record. Returns true iff the position changed.
func (n *Navigator) Advance() bool {
	if !n.CanAdvance() {
		return false
	}
	n.pos++
	return true
}

// Retreat moves to the previous record. Returns true iff the position changed.
func (n *Navigator) Retreat() bool {
	if !n.CanRetreat() {
		return false
	}
	n.pos--
	return true
}
