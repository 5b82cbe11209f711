package instr

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/bamlet/bamlet"
)

// Encode serializes a Base-form bundle to bytes. Bit-level placement is
// implementation-defined (§6.2); what matters is that Decode(Encode(b))
// reproduces b exactly, including every None/Null slot variant (L1).
func Encode(b Bundle) []byte {
	var buf bytes.Buffer
	w := &bitWriter{buf: &buf}

	w.u8(uint8(b.Control.Op))
	w.i32(int32(b.Control.BodyLength))
	w.i32(int32(b.Control.IterImm))
	w.i32(int32(b.Control.IterSrcA))
	w.i32(int32(b.Control.IterSrcG))
	w.i32(int32(b.Control.Dst))

	w.bool(b.Predicate.Valid)
	w.u8(uint8(b.Predicate.Op))
	w.i32(int32(b.Predicate.Dst))
	w.i32(int32(b.Predicate.Src1))
	w.aSrc(b.Predicate.Src2)
	w.i32(int32(b.Predicate.BasePredicate))

	w.u8(uint8(b.Packet.Op))
	w.i32(int32(b.Packet.Length))
	w.i32(int32(b.Packet.DestX))
	w.i32(int32(b.Packet.DestY))
	w.i32(int32(b.Packet.Channel))
	w.u8(uint8(b.Packet.Mode))
	w.u16(uint16(b.Packet.LenDst))
	w.bool(b.Packet.Forward)
	w.u8(uint8(b.Packet.ForwardDir))
	w.bool(b.Packet.ForwardAppend)
	w.bool(b.Packet.ForwardToggle)
	w.u16(uint16(b.Packet.WordDst))
	w.i32(int32(b.Packet.Predicate))

	w.bool(b.ALULite.Valid)
	w.u8(uint8(b.ALULite.Op))
	w.i32(int32(b.ALULite.Dst))
	w.i32(int32(b.ALULite.Src1))
	w.aSrc(b.ALULite.Src2)
	w.i32(int32(b.ALULite.Predicate))

	w.bool(b.LoadStore.Valid)
	w.u8(uint8(b.LoadStore.Op))
	w.i32(int32(b.LoadStore.AddrBase))
	w.i32(b.LoadStore.AddrImm)
	w.u16(uint16(b.LoadStore.Dst))
	w.u16(uint16(b.LoadStore.Src))
	w.i32(int32(b.LoadStore.Predicate))

	w.bool(b.ALU.Valid)
	w.u8(uint8(b.ALU.Op))
	w.u16(uint16(b.ALU.Dst))
	w.u16(uint16(b.ALU.Src1))
	w.bSrc(b.ALU.Src2)
	w.i32(int32(b.ALU.Predicate))

	return buf.Bytes()
}

// Decode is the inverse of Encode.
func Decode(data []byte) (Bundle, error) {
	r := &bitReader{buf: bytes.NewReader(data)}
	var b Bundle

	b.Control.Op = ControlOp(r.u8())
	b.Control.BodyLength = int(r.i32())
	b.Control.IterImm = int(r.i32())
	b.Control.IterSrcA = int(r.i32())
	b.Control.IterSrcG = int(r.i32())
	b.Control.Dst = int(r.i32())

	b.Predicate.Valid = r.bool()
	b.Predicate.Op = CompareOp(r.u8())
	b.Predicate.Dst = int(r.i32())
	b.Predicate.Src1 = int(r.i32())
	b.Predicate.Src2 = r.aSrc()
	b.Predicate.BasePredicate = int(r.i32())

	b.Packet.Op = PacketOp(r.u8())
	b.Packet.Length = int(r.i32())
	b.Packet.DestX = int(r.i32())
	b.Packet.DestY = int(r.i32())
	b.Packet.Channel = int(r.i32())
	b.Packet.Mode = bamlet.Mode(r.u8())
	b.Packet.LenDst = bamlet.BAddress(r.u16())
	b.Packet.Forward = r.bool()
	b.Packet.ForwardDir = bamlet.Side(r.u8())
	b.Packet.ForwardAppend = r.bool()
	b.Packet.ForwardToggle = r.bool()
	b.Packet.WordDst = bamlet.BAddress(r.u16())
	b.Packet.Predicate = int(r.i32())

	b.ALULite.Valid = r.bool()
	b.ALULite.Op = ALUOp(r.u8())
	b.ALULite.Dst = int(r.i32())
	b.ALULite.Src1 = int(r.i32())
	b.ALULite.Src2 = r.aSrc()
	b.ALULite.Predicate = int(r.i32())

	b.LoadStore.Valid = r.bool()
	b.LoadStore.Op = LSOp(r.u8())
	b.LoadStore.AddrBase = int(r.i32())
	b.LoadStore.AddrImm = r.i32()
	b.LoadStore.Dst = bamlet.BAddress(r.u16())
	b.LoadStore.Src = bamlet.BAddress(r.u16())
	b.LoadStore.Predicate = int(r.i32())

	b.ALU.Valid = r.bool()
	b.ALU.Op = ALUOp(r.u8())
	b.ALU.Dst = bamlet.BAddress(r.u16())
	b.ALU.Src1 = bamlet.BAddress(r.u16())
	b.ALU.Src2 = r.bSrc()
	b.ALU.Predicate = int(r.i32())

	if r.err != nil {
		return Bundle{}, fmt.Errorf("instr: decode bundle: %w", r.err)
	}
	return b, nil
}

// bitWriter/bitReader are plain fixed-width binary encoders; the name
// reflects the field-at-a-time discipline the rest of this file follows,
// not genuine sub-byte bit packing (§6.2 leaves placement unspecified).
type bitWriter struct {
	buf *bytes.Buffer
}

func (w *bitWriter) u8(v uint8)   { w.buf.WriteByte(v) }
func (w *bitWriter) u16(v uint16) { binary.Write(w.buf, binary.LittleEndian, v) }
func (w *bitWriter) i32(v int32)  { binary.Write(w.buf, binary.LittleEndian, v) }
func (w *bitWriter) bool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *bitWriter) aSrc(s ASrc) {
	w.u8(uint8(s.Mode))
	w.i32(int32(s.Reg))
	w.i32(s.Imm)
}

func (w *bitWriter) bSrc(s BSrc) {
	w.u8(uint8(s.Mode))
	w.u16(uint16(s.Reg))
	w.i32(s.Imm)
}

type bitReader struct {
	buf *bytes.Reader
	err error
}

func (r *bitReader) u8() uint8 {
	v, err := r.buf.ReadByte()
	if err != nil && r.err == nil {
		r.err = err
	}
	return v
}

func (r *bitReader) u16() uint16 {
	var v uint16
	if err := binary.Read(r.buf, binary.LittleEndian, &v); err != nil && r.err == nil {
		r.err = err
	}
	return v
}

func (r *bitReader) i32() int32 {
	var v int32
	if err := binary.Read(r.buf, binary.LittleEndian, &v); err != nil && r.err == nil {
		r.err = err
	}
	return v
}

func (r *bitReader) bool() bool {
	return r.u8() != 0
}

func (r *bitReader) aSrc() ASrc {
	mode := SrcMode(r.u8())
	reg := int(r.i32())
	imm := r.i32()
	return ASrc{Mode: mode, Reg: reg, Imm: imm}
}

func (r *bitReader) bSrc() BSrc {
	mode := SrcMode(r.u8())
	reg := bamlet.BAddress(r.u16())
	imm := r.i32()
	return BSrc{Mode: mode, Reg: reg, Imm: imm}
}
