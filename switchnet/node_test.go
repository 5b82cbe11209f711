package switchnet_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/switchnet"
)

var widths = bamlet.HeaderWidths{LengthWidth: 8, XPosWidth: 4, YPosWidth: 4}

func allReady() [5]bool { return [5]bool{true, true, true, true, true} }

var _ = Describe("Node unicast routing", func() {
	It("delivers a packet already at its destination to Here", func() {
		n := switchnet.NewNode(switchnet.Coord{X: 1, Y: 1}, widths)
		header := bamlet.EncodeHeader(bamlet.Header{XDest: 1, YDest: 1}, widths)
		Expect(n.PushNeighbor(bamlet.West, bamlet.LinkWord{Data: header, IsHeader: true})).To(BeTrue())

		out := n.Step(allReady())
		Expect(out[bamlet.Here]).NotTo(BeNil())
	})

	It("routes east when the destination column is further east", func() {
		n := switchnet.NewNode(switchnet.Coord{X: 0, Y: 0}, widths)
		header := bamlet.EncodeHeader(bamlet.Header{XDest: 3, YDest: 0}, widths)
		n.PushNeighbor(bamlet.Here, bamlet.LinkWord{Data: header, IsHeader: true})

		out := n.Step(allReady())
		Expect(out[bamlet.East]).NotTo(BeNil())
		Expect(out[bamlet.West]).To(BeNil())
	})

	It("routes north once the column matches but the row does not", func() {
		n := switchnet.NewNode(switchnet.Coord{X: 2, Y: 0}, widths)
		header := bamlet.EncodeHeader(bamlet.Header{XDest: 2, YDest: 3}, widths)
		n.PushNeighbor(bamlet.South, bamlet.LinkWord{Data: header, IsHeader: true})

		out := n.Step(allReady())
		Expect(out[bamlet.North]).NotTo(BeNil())
	})

	It("holds the packet when its output is not ready, without dropping it", func() {
		n := switchnet.NewNode(switchnet.Coord{X: 0, Y: 0}, widths)
		header := bamlet.EncodeHeader(bamlet.Header{XDest: 3, YDest: 0}, widths)
		n.PushNeighbor(bamlet.Here, bamlet.LinkWord{Data: header, IsHeader: true})

		notReady := allReady()
		notReady[bamlet.East] = false
		out := n.Step(notReady)
		Expect(out[bamlet.East]).To(BeNil())

		Expect(n.PushNeighbor(bamlet.Here, bamlet.LinkWord{})).To(BeFalse(), "skid slot still occupied")

		out = n.Step(allReady())
		Expect(out[bamlet.East]).NotTo(BeNil())
	})

	It("keeps a multi-word packet bound to the same output across cycles", func() {
		n := switchnet.NewNode(switchnet.Coord{X: 0, Y: 0}, widths)
		header := bamlet.EncodeHeader(bamlet.Header{XDest: 3, YDest: 0, Length: 2}, widths)
		n.PushNeighbor(bamlet.Here, bamlet.LinkWord{Data: header, IsHeader: true})
		n.Step(allReady())

		n.PushNeighbor(bamlet.Here, bamlet.LinkWord{Data: 11})
		out := n.Step(allReady())
		Expect(out[bamlet.East].Data).To(Equal(uint32(11)))

		n.PushNeighbor(bamlet.Here, bamlet.LinkWord{Data: 22})
		out = n.Step(allReady())
		Expect(out[bamlet.East].Data).To(Equal(uint32(22)))
	})
})

var _ = Describe("Node arbitration", func() {
	It("picks a winner by rotating priority when two inputs contest one output", func() {
		n := switchnet.NewNode(switchnet.Coord{X: 0, Y: 0}, widths)
		h := bamlet.EncodeHeader(bamlet.Header{XDest: 5, YDest: 0}, widths)
		n.PushNeighbor(bamlet.Here, bamlet.LinkWord{Data: h, IsHeader: true})
		n.PushNeighbor(bamlet.North, bamlet.LinkWord{Data: h, IsHeader: true})

		out := n.Step(allReady())
		Expect(out[bamlet.East]).NotTo(BeNil(), "exactly one contender should win")

		won := 0
		if out[bamlet.East] != nil {
			won++
		}
		Expect(won).To(Equal(1))
	})
})

var _ = Describe("Node broadcast", func() {
	It("delivers locally and keeps spreading within the rectangle", func() {
		n := switchnet.NewNode(switchnet.Coord{X: 1, Y: 1}, widths)
		h := bamlet.Header{IsBroadcast: true, BroadcastRect: [4]uint32{0, 0, 2, 2}}
		word := bamlet.EncodeHeader(h, widths)
		n.PushNeighbor(bamlet.West, bamlet.LinkWord{Data: word, IsHeader: true})

		out := n.Step(allReady())
		Expect(out[bamlet.Here]).NotTo(BeNil())
		Expect(out[bamlet.East]).NotTo(BeNil())
		Expect(out[bamlet.North]).NotTo(BeNil())
		Expect(out[bamlet.South]).NotTo(BeNil())
	})
})

var _ = Describe("Node Append forwarding", func() {
	It("opens the append session once the forwarded word marked Append departs", func() {
		n := switchnet.NewNode(switchnet.Coord{X: 0, Y: 0}, widths)
		Expect(n.CanAppend(bamlet.East, true)).To(BeFalse())

		n.PushForward(bamlet.LinkWord{Data: 1}, switchnet.ForwardDirective{Dir: bamlet.East, Append: true, Toggle: true})
		n.Step(allReady())
		Expect(n.CanAppend(bamlet.East, true)).To(BeTrue())
		Expect(n.CanAppend(bamlet.East, false)).To(BeFalse(), "a mismatched toggle must not see the session as open")
	})
})
