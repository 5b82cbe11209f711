package rs

import "github.com/sarchlab/bamlet/instr"

// LoadStoreStation buffers Resolving-form LoadStore instructions and
// enforces the memory-ordering eligibility rule of §4.4 bullet 2: a
// load may issue only if no older store has an unresolved address or a
// resolved address matching its own; a store may issue only if no
// older load or store has an unresolved address or a matching resolved
// address. Like the generic stations, it never masks — the Resolved
// form carries the predicate through for the LoadStore functional unit
// to interpret (§4.5).
type LoadStoreStation struct {
	buf *buffer[instr.LoadStoreSlotR]
}

// NewLoadStoreStation builds a LoadStore reservation station of the
// given depth.
func NewLoadStoreStation(depth int) *LoadStoreStation {
	return &LoadStoreStation{buf: newBuffer[instr.LoadStoreSlotR](depth)}
}

func (s *LoadStoreStation) Ready() bool { return !s.buf.Full() }

func (s *LoadStoreStation) TryPush(v instr.LoadStoreSlotR) bool {
	if s.buf.Full() {
		return false
	}
	s.buf.Push(v)
	return true
}

// Step snoops the result bus, then issues the oldest instruction whose
// address and predicate are resolved and whose ordering constraint
// against every older occupant is satisfied.
func (s *LoadStoreStation) Step(bus []instr.ResultEntry) (instr.LoadStoreSlotR, bool) {
	for i := range s.buf.entries {
		e := &s.buf.entries[i].value
		snoopOperand(&e.Addr, bus)
		snoopOperand(&e.Src, bus)
		snoopOperand(&e.Predicate, bus)
	}

	best := -1
	for i, cand := range s.buf.entries {
		if !cand.value.Addr.Ready() || !cand.value.Predicate.Ready() {
			continue
		}
		if s.blockedByOlder(cand) {
			continue
		}
		if best == -1 || cand.age < s.buf.entries[best].age {
			best = i
		}
	}
	if best == -1 {
		var zero instr.LoadStoreSlotR
		return zero, false
	}
	out := s.buf.entries[best].value
	s.buf.remove(best)
	return out, true
}

func (s *LoadStoreStation) blockedByOlder(cand entry[instr.LoadStoreSlotR]) bool {
	for _, other := range s.buf.entries {
		if other.age >= cand.age {
			continue
		}
		if cand.value.Op == instr.LSLoad && other.value.Op != instr.LSStore {
			continue // loads only order against older stores.
		}
		if !other.value.Addr.Ready() {
			return true
		}
		if other.value.Addr.Value() == cand.value.Addr.Value() {
			return true
		}
	}
	return false
}
