package fu

import "github.com/sarchlab/bamlet/instr"

// LoadStoreUnit executes one PE's Load/Store slot against its private
// data memory (§4.5, §6.1 dataMemoryDepth). A store retires
// combinationally the cycle it issues, since the LoadStore reservation
// station's ordering rule already guarantees no younger load raced
// ahead of it. A load always costs 1 cycle of latency.
type LoadStoreUnit struct {
	mem     []int32
	pending []loadStage
}

type loadStage struct {
	remaining int
	dst       instr.TaggedDest
	value     int32
}

// NewLoadStoreUnit allocates a private data memory of the given depth.
func NewLoadStoreUnit(depth uint) *LoadStoreUnit {
	return &LoadStoreUnit{mem: make([]int32, depth)}
}

// Issue executes r. A masked-false store is simply skipped — it has no
// destination tag to drain. A masked-false load still spends its 1
// cycle of latency and still drains its destination tag, just without
// touching memory (§4.4's masking semantics, deferred to fu here).
func (u *LoadStoreUnit) Issue(r instr.LoadStoreResolved) {
	switch r.Op {
	case instr.LSStore:
		if r.Predicate {
			u.write(r.Addr, r.Src)
		}
	case instr.LSLoad:
		value := int32(0)
		if r.Predicate {
			value = u.read(r.Addr)
		}
		u.pending = append(u.pending, loadStage{remaining: 1, dst: r.Dst, value: value})
	}
}

func (u *LoadStoreUnit) read(addr int32) int32 {
	i := int(addr)
	if i < 0 || i >= len(u.mem) {
		return 0
	}
	return u.mem[i]
}

func (u *LoadStoreUnit) write(addr, value int32) {
	i := int(addr)
	if i < 0 || i >= len(u.mem) {
		return
	}
	u.mem[i] = value
}

// Tick advances every pending load by one cycle, returning the
// result-bus entries for loads completing this cycle.
func (u *LoadStoreUnit) Tick() []instr.ResultEntry {
	var out []instr.ResultEntry
	kept := u.pending[:0]
	for _, s := range u.pending {
		s.remaining--
		if s.remaining <= 0 {
			if !s.dst.None {
				out = append(out, instr.ResultEntry{
					Class: s.dst.Class, Index: s.dst.Index, Tag: s.dst.Tag, Value: s.value,
				})
			}
			continue
		}
		kept = append(kept, s)
	}
	u.pending = kept
	return out
}
