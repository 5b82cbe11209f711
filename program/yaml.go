package program

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/instr"
)

// yamlProgram is the on-disk fixture format: one entry per bundle, slots
// omitted entirely when None. Field names mirror the teacher's YAML
// operation/operand vocabulary (core/program.go's YAMLOperation) but
// restructured around fixed VLIW slot columns instead of a free-form
// operation list.
type yamlProgram struct {
	Bundles []yamlBundle `yaml:"bundles"`
}

type yamlBundle struct {
	Control   *yamlControl   `yaml:"control,omitempty"`
	Predicate *yamlPredicate `yaml:"predicate,omitempty"`
	Packet    *yamlPacket    `yaml:"packet,omitempty"`
	ALULite   *yamlALULite   `yaml:"alu_lite,omitempty"`
	LoadStore *yamlLoadStore `yaml:"load_store,omitempty"`
	ALU       *yamlALU       `yaml:"alu,omitempty"`
}

type yamlControl struct {
	Op         string `yaml:"op"`
	BodyLength int    `yaml:"body_length"`
	IterImm    int    `yaml:"iter_imm"`
	IterSrcA   int    `yaml:"iter_src_a"`
	IterSrcG   int    `yaml:"iter_src_g"`
	Dst        int    `yaml:"dst"`
}

type yamlPredicate struct {
	Op            string  `yaml:"op"`
	Dst           int     `yaml:"dst"`
	Src1          int     `yaml:"src1"`
	Src2          yamlSrc `yaml:"src2"`
	BasePredicate int     `yaml:"base_predicate"`
}

type yamlPacket struct {
	Op            string `yaml:"op"`
	Length        int    `yaml:"length"`
	DestX         int    `yaml:"dest_x"`
	DestY         int    `yaml:"dest_y"`
	Channel       int    `yaml:"channel"`
	Mode          string `yaml:"mode"`
	LenDst        string `yaml:"len_dst"`
	Forward       bool   `yaml:"forward"`
	ForwardDir    string `yaml:"forward_dir"`
	ForwardAppend bool   `yaml:"forward_append"`
	ForwardToggle bool   `yaml:"forward_toggle"`
	WordDst       string `yaml:"word_dst"`
	Predicate     int    `yaml:"predicate"`
}

type yamlALULite struct {
	Op        string  `yaml:"op"`
	Dst       int     `yaml:"dst"`
	Src1      int     `yaml:"src1"`
	Src2      yamlSrc `yaml:"src2"`
	Predicate int     `yaml:"predicate"`
}

type yamlLoadStore struct {
	Op        string `yaml:"op"`
	AddrBase  int    `yaml:"addr_base"`
	AddrImm   int32  `yaml:"addr_imm"`
	Dst       string `yaml:"dst"`
	Src       string `yaml:"src"`
	Predicate int    `yaml:"predicate"`
}

type yamlALU struct {
	Op        string  `yaml:"op"`
	Dst       string  `yaml:"dst"`
	Src1      string  `yaml:"src1"`
	Src2      yamlSrc `yaml:"src2"`
	Predicate int     `yaml:"predicate"`
}

// yamlSrc is either {reg: "D3"} or {imm: 5}; reg wins if both are set.
type yamlSrc struct {
	Reg string `yaml:"reg"`
	Imm int32  `yaml:"imm"`
}

// LoadMemoryFromYAML reads a fixture file and writes its bundles into a
// freshly allocated Memory of the given depth, starting at address 0.
// Parse failures panic, matching the teacher's LoadProgramFileFromYAML,
// which treats a malformed fixture as a test-harness bug rather than a
// recoverable runtime condition.
func LoadMemoryFromYAML(path string, depth uint) *Memory {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("program: failed to read %s: %v", path, err))
	}

	var root yamlProgram
	if err := yaml.Unmarshal(data, &root); err != nil {
		panic(fmt.Sprintf("program: failed to parse %s: %v", path, err))
	}

	mem := NewMemory(depth)
	bundles := make([]instr.Bundle, len(root.Bundles))
	for i, yb := range root.Bundles {
		b, err := yb.toBundle()
		if err != nil {
			panic(fmt.Sprintf("program: %s: bundle %d: %v", path, i, err))
		}
		bundles[i] = b
	}
	if err := mem.WriteBlock(0, bundles); err != nil {
		panic(fmt.Sprintf("program: %s: %v", path, err))
	}
	return mem
}

func (yb yamlBundle) toBundle() (instr.Bundle, error) {
	var b instr.Bundle

	if yb.Control != nil {
		op, err := parseControlOp(yb.Control.Op)
		if err != nil {
			return b, err
		}
		b.Control = instr.ControlSlot{
			Op: op, BodyLength: yb.Control.BodyLength, IterImm: yb.Control.IterImm,
			IterSrcA: yb.Control.IterSrcA, IterSrcG: yb.Control.IterSrcG, Dst: yb.Control.Dst,
		}
	}

	if yb.Predicate != nil {
		op, err := parseCompareOp(yb.Predicate.Op)
		if err != nil {
			return b, err
		}
		src2, err := yb.Predicate.Src2.toASrc()
		if err != nil {
			return b, err
		}
		b.Predicate = instr.PredicateSlot{
			Valid: true, Op: op, Dst: yb.Predicate.Dst, Src1: yb.Predicate.Src1, Src2: src2,
			BasePredicate: yb.Predicate.BasePredicate,
		}
	}

	if yb.Packet != nil {
		op, err := parsePacketOp(yb.Packet.Op)
		if err != nil {
			return b, err
		}
		mode, err := parseMode(yb.Packet.Mode)
		if err != nil {
			return b, err
		}
		lenDst, err := parseBAddress(yb.Packet.LenDst)
		if err != nil {
			return b, err
		}
		wordDst, err := parseBAddress(yb.Packet.WordDst)
		if err != nil {
			return b, err
		}
		dir, err := parseSide(yb.Packet.ForwardDir)
		if err != nil {
			return b, err
		}
		b.Packet = instr.PacketSlot{
			Op: op, Length: yb.Packet.Length, DestX: yb.Packet.DestX, DestY: yb.Packet.DestY,
			Channel: yb.Packet.Channel, Mode: mode, LenDst: lenDst, Forward: yb.Packet.Forward,
			ForwardDir: dir, ForwardAppend: yb.Packet.ForwardAppend, ForwardToggle: yb.Packet.ForwardToggle,
			WordDst: wordDst, Predicate: yb.Packet.Predicate,
		}
	}

	if yb.ALULite != nil {
		op, err := parseALUOp(yb.ALULite.Op)
		if err != nil {
			return b, err
		}
		src2, err := yb.ALULite.Src2.toASrc()
		if err != nil {
			return b, err
		}
		b.ALULite = instr.ALULiteSlot{
			Valid: true, Op: op, Dst: yb.ALULite.Dst, Src1: yb.ALULite.Src1, Src2: src2, Predicate: yb.ALULite.Predicate,
		}
	}

	if yb.LoadStore != nil {
		op, err := parseLSOp(yb.LoadStore.Op)
		if err != nil {
			return b, err
		}
		dst, err := parseBAddress(yb.LoadStore.Dst)
		if err != nil {
			return b, err
		}
		src, err := parseBAddress(yb.LoadStore.Src)
		if err != nil {
			return b, err
		}
		b.LoadStore = instr.LoadStoreSlot{
			Valid: true, Op: op, AddrBase: yb.LoadStore.AddrBase, AddrImm: yb.LoadStore.AddrImm,
			Dst: dst, Src: src, Predicate: yb.LoadStore.Predicate,
		}
	}

	if yb.ALU != nil {
		op, err := parseALUOp(yb.ALU.Op)
		if err != nil {
			return b, err
		}
		dst, err := parseBAddress(yb.ALU.Dst)
		if err != nil {
			return b, err
		}
		src1, err := parseBAddress(yb.ALU.Src1)
		if err != nil {
			return b, err
		}
		src2, err := yb.ALU.Src2.toBSrc()
		if err != nil {
			return b, err
		}
		b.ALU = instr.ALUSlot{Valid: true, Op: op, Dst: dst, Src1: src1, Src2: src2, Predicate: yb.ALU.Predicate}
	}

	return b, nil
}

func (s yamlSrc) toASrc() (instr.ASrc, error) {
	if s.Reg == "" {
		return instr.ASrc{Mode: instr.SrcImmediate, Imm: s.Imm}, nil
	}
	addr, err := parseBAddress(s.Reg)
	if err != nil {
		return instr.ASrc{}, err
	}
	return instr.ASrc{Mode: instr.SrcRegister, Reg: addr.Index()}, nil
}

func (s yamlSrc) toBSrc() (instr.BSrc, error) {
	if s.Reg == "" {
		return instr.BSrc{Mode: instr.SrcImmediate, Imm: s.Imm}, nil
	}
	addr, err := parseBAddress(s.Reg)
	if err != nil {
		return instr.BSrc{}, err
	}
	return instr.BSrc{Mode: instr.SrcRegister, Reg: addr}, nil
}

// parseBAddress parses B-register names like "A3" or "D0"; an empty
// string parses as A0, the harmless default for an unused field.
func parseBAddress(s string) (bamlet.BAddress, error) {
	if s == "" {
		return bamlet.NewBAddress(bamlet.ClassA, 0), nil
	}
	var class bamlet.RegClass
	switch s[0] {
	case 'A', 'a':
		class = bamlet.ClassA
	case 'D', 'd':
		class = bamlet.ClassD
	default:
		return 0, fmt.Errorf("program: %q is not a valid B-address (want A<n> or D<n>)", s)
	}
	index, err := parseIndex(s[1:])
	if err != nil {
		return 0, err
	}
	return bamlet.NewBAddress(class, index), nil
}

func parseIndex(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("program: missing register index")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("program: invalid register index %q", s)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func parseControlOp(s string) (instr.ControlOp, error) {
	switch s {
	case "", "None":
		return instr.CtrlNone, nil
	case "LoopImmediate":
		return instr.CtrlLoopImmediate, nil
	case "LoopLocal":
		return instr.CtrlLoopLocal, nil
	case "LoopGlobal":
		return instr.CtrlLoopGlobal, nil
	case "Incr":
		return instr.CtrlIncr, nil
	case "Halt":
		return instr.CtrlHalt, nil
	default:
		return 0, fmt.Errorf("program: unknown control op %q", s)
	}
}

func parseCompareOp(s string) (instr.CompareOp, error) {
	switch s {
	case "Eq":
		return instr.CmpEq, nil
	case "Ne":
		return instr.CmpNe, nil
	case "Lt":
		return instr.CmpLt, nil
	case "Le":
		return instr.CmpLe, nil
	case "Gt":
		return instr.CmpGt, nil
	case "Ge":
		return instr.CmpGe, nil
	default:
		return 0, fmt.Errorf("program: unknown compare op %q", s)
	}
}

func parseALUOp(s string) (instr.ALUOp, error) {
	switch s {
	case "Add":
		return instr.OpAdd, nil
	case "Sub":
		return instr.OpSub, nil
	case "Mul":
		return instr.OpMul, nil
	case "And":
		return instr.OpAnd, nil
	case "Or":
		return instr.OpOr, nil
	case "Xor":
		return instr.OpXor, nil
	case "Not":
		return instr.OpNot, nil
	case "Eq":
		return instr.OpEq, nil
	case "Ne":
		return instr.OpNe, nil
	case "Lt":
		return instr.OpLt, nil
	case "Le":
		return instr.OpLe, nil
	case "Gt":
		return instr.OpGt, nil
	case "Ge":
		return instr.OpGe, nil
	case "ShiftL":
		return instr.OpShiftL, nil
	case "ShiftR":
		return instr.OpShiftR, nil
	case "MulAcc":
		return instr.OpMulAcc, nil
	case "MulAccInit":
		return instr.OpMulAccInit, nil
	default:
		return 0, fmt.Errorf("program: unknown ALU op %q", s)
	}
}

func parseLSOp(s string) (instr.LSOp, error) {
	switch s {
	case "Load":
		return instr.LSLoad, nil
	case "Store":
		return instr.LSStore, nil
	default:
		return 0, fmt.Errorf("program: unknown load/store op %q", s)
	}
}

func parsePacketOp(s string) (instr.PacketOp, error) {
	switch s {
	case "", "None":
		return instr.PacketNone, nil
	case "Send":
		return instr.PacketSend, nil
	case "Receive":
		return instr.PacketReceive, nil
	case "GetWord":
		return instr.PacketGetWord, nil
	default:
		return 0, fmt.Errorf("program: unknown packet op %q", s)
	}
}

func parseMode(s string) (bamlet.Mode, error) {
	switch s {
	case "", "Normal":
		return bamlet.ModeNormal, nil
	case "Command":
		return bamlet.ModeCommand, nil
	case "Append":
		return bamlet.ModeAppend, nil
	case "Reserved":
		return bamlet.ModeReserved, nil
	default:
		return 0, fmt.Errorf("program: unknown packet mode %q", s)
	}
}

func parseSide(s string) (bamlet.Side, error) {
	switch s {
	case "", "North":
		return bamlet.North, nil
	case "East":
		return bamlet.East, nil
	case "South":
		return bamlet.South, nil
	case "West":
		return bamlet.West, nil
	case "Here":
		return bamlet.Here, nil
	default:
		return 0, fmt.Errorf("program: unknown side %q", s)
	}
}
