package ringdma

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/ringdma/interrupt"
	"github.com/sarchlab/ringdma/mem"
	"github.com/sarchlab/ringdma/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Comp", func() {
	var (
		mockCtrl   *gomock.Controller
		engine     *sim.SerialEngine
		streamPort *MockPort
		memPort    *MockPort
		ctrlPort   *MockPort
		irqPort    *MockPort
		comp       *Comp
	)

	beat := func(b byte) *BeatMsg {
		data := make([]byte, 0x20)
		data[0] = b

		return BeatMsgBuilder{}.
			WithSrc("Producer.Port").
			WithDst("DMA.StreamPort").
			WithData(data).
			Build()
	}

	stagePacket := func() {
		comp.stager.PushBeat(make([]byte, 0x20))
		comp.stager.PushBeat(make([]byte, 0x20))
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()

		streamPort = NewMockPort(mockCtrl)
		memPort = NewMockPort(mockCtrl)
		ctrlPort = NewMockPort(mockCtrl)
		irqPort = NewMockPort(mockCtrl)

		for _, p := range []*MockPort{streamPort, memPort, ctrlPort, irqPort} {
			p.EXPECT().AsRemote().Return(sim.RemotePort("DMA.Port")).AnyTimes()
		}

		comp = MakeBuilder().
			WithEngine(engine).
			WithPacketLength(0x40).
			WithBeatWidth(0x20).
			WithMaxOutstanding(2).
			Build("DMA")
		comp.streamPort = streamPort
		comp.memPort = memPort
		comp.ctrlPort = ctrlPort
		comp.irqPort = irqPort
		comp.SetAddressToPortMapper(&mem.SinglePortMapper{Port: "Mem.TopPort"})
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	idleCtrl := func() {
		ctrlPort.EXPECT().RetrieveIncoming().Return(nil).AnyTimes()
	}

	idleMem := func(canSend bool) {
		memPort.EXPECT().RetrieveIncoming().Return(nil).AnyTimes()
		memPort.EXPECT().CanSend().Return(canSend).AnyTimes()
	}

	enable := func() {
		comp.core.Step(TickInput{RegWrites: []RegWrite{
			{Offset: RegStart, Value: 0x1000},
			{Offset: RegEnd, Value: 0x1100},
			{Offset: RegRead, Value: 0x1000},
			{Offset: RegConfig, Value: ConfigEnable},
		}})
	}

	It("should assemble beats into packets", func() {
		streamPort.EXPECT().RetrieveIncoming().Return(beat(1))
		streamPort.EXPECT().RetrieveIncoming().Return(beat(2))
		streamPort.EXPECT().RetrieveIncoming().Return(nil)
		idleCtrl()
		idleMem(true)

		madeProgress := comp.Tick()

		Expect(madeProgress).To(BeTrue())
		Expect(comp.stager.NumPackets()).To(Equal(1))
		Expect(comp.stager.PopPacket()[0x20]).To(Equal(byte(2)))
	})

	It("should stop taking beats when staging is full", func() {
		stagePacket()
		stagePacket()
		idleCtrl()
		idleMem(true)

		madeProgress := comp.Tick()

		Expect(madeProgress).To(BeFalse())
	})

	It("should panic on an unknown stream message", func() {
		streamPort.EXPECT().RetrieveIncoming().Return(&mem.ReadReq{})

		Expect(func() { comp.Tick() }).To(Panic())
	})

	It("should answer register reads", func() {
		streamPort.EXPECT().RetrieveIncoming().Return(nil).AnyTimes()
		idleMem(true)

		req := RegReqBuilder{}.
			WithSrc("Driver.CtrlPort").
			WithDst("DMA.CtrlPort").
			WithOffset(RegEnd).
			BuildRead()
		comp.core.Step(TickInput{RegWrites: []RegWrite{
			{Offset: RegEnd, Value: 0x3000}}})

		ctrlPort.EXPECT().RetrieveIncoming().Return(req)
		comp.Tick()

		ctrlPort.EXPECT().Send(gomock.Any()).
			Do(func(msg sim.Msg) {
				rsp := msg.(*RegReadRsp)
				Expect(rsp.RespondTo).To(Equal(req.ID))
				Expect(rsp.Value).To(Equal(uint32(0x3000)))
				Expect(rsp.Err).NotTo(HaveOccurred())
				Expect(rsp.Dst).To(Equal(sim.RemotePort("Driver.CtrlPort")))
			}).
			Return(nil)
		ctrlPort.EXPECT().RetrieveIncoming().Return(nil)
		comp.Tick()
	})

	It("should report register write errors", func() {
		streamPort.EXPECT().RetrieveIncoming().Return(nil).AnyTimes()
		idleMem(true)

		req := RegReqBuilder{}.
			WithSrc("Driver.CtrlPort").
			WithDst("DMA.CtrlPort").
			WithOffset(RegStatus).
			WithValue(1).
			BuildWrite()

		ctrlPort.EXPECT().RetrieveIncoming().Return(req)
		comp.Tick()

		ctrlPort.EXPECT().Send(gomock.Any()).
			Do(func(msg sim.Msg) {
				rsp := msg.(*RegWriteRsp)
				Expect(rsp.RespondTo).To(Equal(req.ID))
				Expect(rsp.Err).To(MatchError(ErrReadOnlyRegister))
			}).
			Return(nil)
		ctrlPort.EXPECT().RetrieveIncoming().Return(nil)
		comp.Tick()
	})

	It("should issue a burst with a staged packet", func() {
		enable()
		stagePacket()
		streamPort.EXPECT().RetrieveIncoming().Return(nil)
		idleCtrl()
		idleMem(true)

		memPort.EXPECT().Send(gomock.Any()).
			Do(func(msg sim.Msg) {
				req := msg.(*mem.WriteReq)
				Expect(req.Address).To(Equal(uint64(0x1000)))
				Expect(req.Data).To(HaveLen(0x40))
				Expect(req.Dst).To(Equal(sim.RemotePort("Mem.TopPort")))
			}).
			Return(nil)

		comp.Tick()

		Expect(comp.NumInflight()).To(Equal(1))
		Expect(comp.stager.PacketReady()).To(BeFalse())
		Expect(comp.core.State()).To(Equal(StateStreaming))

		report := comp.Report().(Snapshot)
		Expect(report.State).To(Equal(StateStreaming.String()))
		Expect(report.Pending).To(Equal(1))
		Expect(report.WriteAddress).To(Equal("0x1000"))
		Expect(report.NumIssued).To(Equal(uint64(1)))
	})

	It("should not issue when the bus is busy", func() {
		enable()
		stagePacket()
		streamPort.EXPECT().RetrieveIncoming().Return(nil).AnyTimes()
		idleCtrl()
		idleMem(false)

		comp.Tick()

		Expect(comp.NumInflight()).To(BeZero())
		Expect(comp.stager.PacketReady()).To(BeTrue())
	})

	It("should drop interrupts the destination does not take", func() {
		comp.SetInterruptDst("Driver.IRQPort")

		for i := 0; i < 6; i++ {
			comp.queueInterrupt(interrupt.SourcePacketWritten, 0x1000)
		}

		Expect(comp.interrupts).To(HaveLen(4))
		Expect(comp.NumDroppedInterrupts()).To(Equal(uint64(2)))
		Expect(comp.Report().(Snapshot).DroppedIRQs).To(Equal(uint64(2)))
	})

	Context("with a burst in flight", func() {
		var req *mem.WriteReq

		BeforeEach(func() {
			enable()
			stagePacket()
			streamPort.EXPECT().RetrieveIncoming().Return(nil).AnyTimes()
			idleCtrl()
			memPort.EXPECT().CanSend().Return(true).AnyTimes()
			memPort.EXPECT().RetrieveIncoming().Return(nil)
			memPort.EXPECT().Send(gomock.Any()).
				Do(func(msg sim.Msg) { req = msg.(*mem.WriteReq) }).
				Return(nil)

			comp.Tick()
		})

		It("should retire the burst and send an interrupt", func() {
			comp.core.irq.SetMask(uint32(interrupt.SourcePacketWritten))
			comp.SetInterruptDst("Driver.IRQPort")

			rsp := mem.WriteDoneRspBuilder{}.
				WithSrc("Mem.TopPort").
				WithDst("DMA.MemPort").
				WithRspTo(req.ID).
				Build()
			memPort.EXPECT().RetrieveIncoming().Return(rsp)
			memPort.EXPECT().RetrieveIncoming().Return(nil).AnyTimes()

			comp.Tick()

			Expect(comp.NumInflight()).To(BeZero())
			Expect(comp.core.WriteAddress()).To(Equal(uint64(0x1040)))

			irqPort.EXPECT().Send(gomock.Any()).
				Do(func(msg sim.Msg) {
					m := msg.(*InterruptMsg)
					Expect(m.Source).To(Equal(interrupt.SourcePacketWritten))
					Expect(m.Address).To(Equal(uint64(0x1000)))
					Expect(m.Dst).To(Equal(sim.RemotePort("Driver.IRQPort")))
				}).
				Return(nil)

			comp.Tick()
		})

		It("should panic if the response does not match", func() {
			rsp := mem.WriteDoneRspBuilder{}.
				WithSrc("Mem.TopPort").
				WithDst("DMA.MemPort").
				WithRspTo("unknown").
				Build()
			memPort.EXPECT().RetrieveIncoming().Return(rsp)

			Expect(func() { comp.Tick() }).To(Panic())
		})
	})
})
