// Package deptracker implements the per-slot shuffling buffer sitting
// between the control unit and the PEs (§4.2): six independent FIFOs,
// one per VLIW slot kind, that re-synchronize slots whose origin bundles
// may have drifted apart because some slot stalled while others didn't,
// while preserving intra-bundle WAW/RAW/WAR ordering.
package deptracker

// fifoEntry is one slot instance buffered in a per-kind FIFO, tagged
// with the age of the bundle it was fetched as part of and its
// declaration-order slot index, both needed to resolve hazards between
// heads pulled from FIFOs that have drifted to different ages.
type fifoEntry[T any] struct {
	Age       uint64
	SlotIndex int
	Value     T
}

// fifo is a small fixed-capacity queue. Capacity 0 means unbounded,
// used for FIFOs without a configured depth limit.
type fifo[T any] struct {
	entries  []fifoEntry[T]
	capacity int
}

func newFIFO[T any](capacity int) *fifo[T] {
	return &fifo[T]{capacity: capacity}
}

// TryPush enqueues an entry, returning false without mutating the queue
// if it is already at capacity (the controller must stall in that case,
// per §5's "dependency tracker blocks when ... FIFOs are full").
func (f *fifo[T]) TryPush(age uint64, slotIndex int, v T) bool {
	if f.capacity > 0 && len(f.entries) >= f.capacity {
		return false
	}
	f.entries = append(f.entries, fifoEntry[T]{Age: age, SlotIndex: slotIndex, Value: v})
	return true
}

func (f *fifo[T]) Empty() bool { return len(f.entries) == 0 }

func (f *fifo[T]) Head() fifoEntry[T] { return f.entries[0] }

func (f *fifo[T]) PopHead() {
	f.entries = f.entries[1:]
}
