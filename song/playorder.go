package song

import "slices"

// PlayOrder is the ordered list of pattern indices making up the song.
// It is not safe for concurrent use; Song guards its own copy.
type PlayOrder struct {
	entries []int
}

// NewPlayOrder creates an order from pattern indices
func NewPlayOrder(patterns ...int) PlayOrder {
	return PlayOrder{entries: slices.Clone(patterns)}
}

func (o *PlayOrder) Len() int { return len(o.entries) }

// At returns the pattern at position pos
func (o *PlayOrder) At(pos int) (int, bool) {
	if pos < 0 || pos >= len(o.entries) {
		return 0, false
	}
	return o.entries[pos], true
}

// Set stores pattern at pos, growing the order with pattern 0 if needed.
func (o *PlayOrder) Set(pos, pattern int) {
	for len(o.entries) <= pos {
		o.entries = append(o.entries, 0)
	}
	o.entries[pos] = pattern
}

// Insert puts pattern at pos, shifting later entries. pos is clamped to
// the end of the order.
func (o *PlayOrder) Insert(pos, pattern int) {
	pos = max(0, min(pos, len(o.entries)))
	o.entries = slices.Insert(o.entries, pos, pattern)
}

// Remove deletes the entry at pos
func (o *PlayOrder) Remove(pos int) bool {
	if pos < 0 || pos >= len(o.entries) {
		return false
	}
	o.entries = slices.Delete(o.entries, pos, pos+1)
	return true
}

// Flatten returns length pattern indices starting at position start,
// padding with pattern 0 past the end of the order.
func (o *PlayOrder) Flatten(length, start int) []int {
	if length <= 0 {
		return nil
	}
	out := make([]int, length)
	for i := range out {
		if p := start + i; p >= 0 && p < len(o.entries) {
			out[i] = o.entries[p]
		}
	}
	return out
}

// Entries returns a copy of the order
func (o *PlayOrder) Entries() []int {
	return slices.Clone(o.entries)
}
