package instr

import "github.com/sarchlab/bamlet/bamlet"

// ResultEntry is one write on the shared result bus: up to nResultPorts
// generic entries plus 2 predicate entries reach the register file and
// every reservation station each cycle (§4.3, §4.4). Force marks an
// entry that must update the register (or resolve a waiting operand)
// regardless of whether its tag still matches the register's lastTag —
// used for a masked-out write's forced null-drain (§4.4).
type ResultEntry struct {
	Class bamlet.RegClass
	Index int
	Tag   bamlet.Tag
	Value int32
	Force bool
}
