// Package rs implements the per-functional-unit reservation stations
// (§4.4): each buffers Resolving-form instructions, snoops the result
// bus to resolve their operands, and decides which occupant — if any —
// issues this cycle under a kind-specific eligibility rule.
package rs

// entry pairs a Resolving-form instruction with the age it entered its
// station, used to break eligibility ties among ready slots.
type entry[T any] struct {
	age   uint64
	value T
}

// buffer is the fixed-depth slot array every station kind shares; only
// the issue-eligibility policy differs between them (§4.4).
type buffer[T any] struct {
	depth   int
	entries []entry[T]
	age     uint64
}

func newBuffer[T any](depth int) *buffer[T] {
	return &buffer[T]{depth: depth}
}

// Full reports whether the station has no free slot, the signal
// propagated to rename as backpressure (§4.4, §5).
func (b *buffer[T]) Full() bool { return len(b.entries) >= b.depth }

// Push occupies a new slot; callers must check Full first.
func (b *buffer[T]) Push(v T) {
	b.entries = append(b.entries, entry[T]{age: b.age, value: v})
	b.age++
}

func (b *buffer[T]) remove(i int) {
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
}

func (b *buffer[T]) Len() int { return len(b.entries) }
