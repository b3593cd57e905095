package ringdma

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/ringdma/interrupt"
	"github.com/sarchlab/ringdma/mem"
)

const (
	testBase = 0x1000
	testEnd  = 0x2000
	testPL   = 0x100
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PacketLength = testPL
	cfg.BeatWidth = 0x10
	cfg.MaxOutstanding = 4

	return cfg
}

func enableWrites(base, end uint32) []RegWrite {
	return []RegWrite{
		{Offset: RegStart, Value: base},
		{Offset: RegEnd, Value: end},
		{Offset: RegRead, Value: base},
		{Offset: RegConfig, Value: ConfigEnable},
	}
}

func hasEvent(events []Event, kind EventKind) bool {
	for _, e := range events {
		if e.Kind == kind {
			return true
		}
	}

	return false
}

func countEvents(events []Event, kind EventKind) int {
	n := 0

	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}

	return n
}

// oneCycleBus completes every burst in the cycle after it is issued.
type oneCycleBus struct {
	core     *Core
	inflight int
	issued   []BurstRequest
}

func (b *oneCycleBus) step(writes ...RegWrite) TickOutput {
	in := TickInput{
		RegWrites:   writes,
		PacketReady: true,
		BusReady:    true,
	}

	for i := 0; i < b.inflight; i++ {
		in.Completions = append(in.Completions, mem.StatusOK)
	}

	b.inflight = 0

	out := b.core.Step(in)
	if out.Burst != nil {
		b.inflight++
		b.issued = append(b.issued, *out.Burst)
	}

	return out
}

// runUntilBlocked steps until no burst is issued for several cycles in a row
// and returns the number of bursts issued.
func (b *oneCycleBus) runUntilBlocked() int {
	count := 0
	idle := 0

	for idle < 4 {
		out := b.step()
		if out.Burst != nil {
			count++
			idle = 0
		} else {
			idle++
		}
	}

	return count
}

var _ = Describe("Core", func() {
	var (
		cfg  Config
		core *Core
	)

	BeforeEach(func() {
		cfg = testConfig()
	})

	JustBeforeEach(func() {
		core = NewCore("DMA", cfg)
	})

	Context("when disabled", func() {
		It("should never issue", func() {
			for i := 0; i < 10; i++ {
				out := core.Step(TickInput{PacketReady: true, BusReady: true})

				Expect(out.Burst).To(BeNil())
				Expect(out.Blocked).To(Equal(BlockedDisabled))
			}

			Expect(core.State()).To(Equal(StateDisabled))
			Expect(core.NumIssued()).To(BeZero())
		})

		It("should never issue after enable is written as zero", func() {
			writes := enableWrites(testBase, testEnd)
			writes[3].Value = 0

			out := core.Step(TickInput{
				RegWrites:   writes,
				PacketReady: true,
				BusReady:    true,
			})

			Expect(out.Burst).To(BeNil())
			Expect(out.RegWriteErrs).To(HaveEach(BeNil()))
			Expect(core.State()).To(Equal(StateDisabled))
		})
	})

	Context("when enabled", func() {
		It("should issue in the same tick if a packet is staged", func() {
			out := core.Step(TickInput{
				RegWrites:   enableWrites(testBase, testEnd),
				PacketReady: true,
				BusReady:    true,
			})

			Expect(out.Burst).NotTo(BeNil())
			Expect(out.Burst.Address).To(Equal(uint64(testBase)))
			Expect(out.Burst.Length).To(Equal(uint64(testPL)))
			Expect(core.State()).To(Equal(StateStreaming))
			Expect(core.Pending()).To(Equal(1))
			Expect(out.Events).To(ContainElement(Event{
				Kind: EventStateChange, From: StateDisabled, To: StateArmed}))
			Expect(out.Events).To(ContainElement(Event{
				Kind: EventStateChange, From: StateArmed, To: StateStreaming}))
		})

		It("should stay armed without packets", func() {
			out := core.Step(TickInput{
				RegWrites: enableWrites(testBase, testEnd),
				BusReady:  true,
			})

			Expect(out.Burst).To(BeNil())
			Expect(out.Blocked).To(Equal(BlockedNoPacket))
			Expect(out.Blocked.IsBackpressure()).To(BeFalse())
			Expect(core.State()).To(Equal(StateArmed))
		})

		It("should wait for the bus", func() {
			out := core.Step(TickInput{
				RegWrites:   enableWrites(testBase, testEnd),
				PacketReady: true,
			})

			Expect(out.Burst).To(BeNil())
			Expect(out.Blocked).To(Equal(BlockedBusBusy))
			Expect(out.Blocked.IsBackpressure()).To(BeTrue())
		})

		It("should issue at consecutive addresses", func() {
			core.Step(TickInput{RegWrites: enableWrites(testBase, testEnd)})

			for i := 0; i < 3; i++ {
				out := core.Step(TickInput{PacketReady: true, BusReady: true})
				Expect(out.Burst.Address).
					To(Equal(uint64(testBase + i*testPL)))
				Expect(out.Burst.Seq).To(Equal(uint64(i)))
			}

			Expect(core.ProjectedWriteAddress()).
				To(Equal(uint64(testBase + 3*testPL)))
			Expect(core.WriteAddress()).To(Equal(uint64(testBase)))
		})

		It("should not have more than K bursts in flight", func() {
			core.Step(TickInput{RegWrites: enableWrites(testBase, testEnd)})

			var out TickOutput
			for i := 0; i < 10; i++ {
				out = core.Step(TickInput{PacketReady: true, BusReady: true})
				Expect(core.Pending()).To(BeNumerically("<=", cfg.MaxOutstanding))
			}

			Expect(core.Pending()).To(Equal(cfg.MaxOutstanding))
			Expect(out.Blocked).To(Equal(BlockedMaxOutstanding))

			out = core.Step(TickInput{
				Completions: []mem.Status{mem.StatusOK},
				PacketReady: true,
				BusReady:    true,
			})

			Expect(out.Burst).NotTo(BeNil())
			Expect(core.Pending()).To(Equal(cfg.MaxOutstanding))
		})

		It("should advance the write pointer on completion", func() {
			core.Step(TickInput{
				RegWrites:   enableWrites(testBase, testEnd),
				PacketReady: true,
				BusReady:    true,
			})

			out := core.Step(TickInput{
				Completions: []mem.Status{mem.StatusOK},
			})

			Expect(core.WriteAddress()).To(Equal(uint64(testBase + testPL)))
			Expect(core.Pending()).To(BeZero())
			Expect(countEvents(out.Events, EventPacketWritten)).To(Equal(1))
			Expect(out.Events).To(ContainElement(HaveField(
				"Address", uint64(testBase))))

			written, err := core.ReadRegister(RegWritten)
			Expect(err).NotTo(HaveOccurred())
			Expect(written).To(Equal(uint32(testBase + testPL)))
		})

		It("should panic on a completion without a burst", func() {
			core.Step(TickInput{RegWrites: enableWrites(testBase, testEnd)})

			Expect(func() {
				core.Step(TickInput{Completions: []mem.Status{mem.StatusOK}})
			}).To(Panic())
		})
	})

	Context("round trip", func() {
		var bus *oneCycleBus

		JustBeforeEach(func() {
			bus = &oneCycleBus{core: core}
			out := bus.step(enableWrites(testBase, testEnd)...)
			Expect(out.Burst).NotTo(BeNil())
		})

		Context("with ReserveOnePacket", func() {
			It("should block after 15 packets", func() {
				Expect(1 + bus.runUntilBlocked()).To(Equal(15))

				out := bus.step()
				Expect(out.Blocked).To(Equal(BlockedRingFull))
				Expect(core.WriteAddress()).
					To(Equal(uint64(testBase + 15*testPL)))
				Expect(core.FreeSpace()).To(BeZero())
			})

			It("should unblock exactly one burst per read advance", func() {
				bus.runUntilBlocked()

				out := bus.step(RegWrite{
					Offset: RegRead, Value: testBase + testPL})
				Expect(out.Burst).NotTo(BeNil())
				Expect(out.Burst.Address).
					To(Equal(uint64(testBase + 15*testPL)))

				Expect(bus.runUntilBlocked()).To(BeZero())
				Expect(core.WriteAddress()).To(Equal(uint64(testBase)))
			})
		})

		Context("with TrackOccupancy", func() {
			BeforeEach(func() {
				cfg.FullDetection = TrackOccupancy
			})

			It("should block after 16 packets", func() {
				Expect(1 + bus.runUntilBlocked()).To(Equal(16))

				Expect(core.WriteAddress()).To(Equal(uint64(testBase)))
				Expect(core.ReadAddress()).To(Equal(uint64(testBase)))
				Expect(core.Occupancy()).To(Equal(uint64(testEnd - testBase)))
				Expect(bus.step().Blocked).To(Equal(BlockedRingFull))
			})

			It("should unblock exactly one burst per read advance", func() {
				bus.runUntilBlocked()

				out := bus.step(RegWrite{
					Offset: RegRead, Value: testBase + testPL})
				Expect(out.Burst).NotTo(BeNil())
				Expect(out.Burst.Address).To(Equal(uint64(testBase)))

				Expect(bus.runUntilBlocked()).To(BeZero())
			})

			It("should free the whole ring when a full lap is consumed", func() {
				bus.runUntilBlocked()

				out := bus.step(RegWrite{Offset: RegRead, Value: testBase})
				Expect(out.Burst).NotTo(BeNil())
				Expect(out.Burst.Address).To(Equal(uint64(testBase)))

				Expect(1 + bus.runUntilBlocked()).To(Equal(16))
				Expect(core.Occupancy()).To(Equal(uint64(testEnd - testBase)))
			})

			It("should keep a partly filled ring on a repeated read pointer",
				func() {
					out := bus.step(RegWrite{Offset: RegRead, Value: testBase})

					Expect(out.Burst).NotTo(BeNil())
					Expect(core.Occupancy()).To(Equal(uint64(2 * testPL)))
				})

			It("should free a full ring consumed while disabled", func() {
				bus.runUntilBlocked()
				bus.step(RegWrite{Offset: RegConfig, Value: 0})
				Expect(core.State()).To(Equal(StateDisabled))

				out := bus.step(enableWrites(testBase, testEnd)...)
				Expect(out.Burst).NotTo(BeNil())
				Expect(out.Burst.Address).To(Equal(uint64(testBase)))
			})

			It("should stay full if re-enabled without a read pointer write",
				func() {
					bus.runUntilBlocked()
					bus.step(RegWrite{Offset: RegConfig, Value: 0})

					out := bus.step(RegWrite{
						Offset: RegConfig, Value: ConfigEnable})
					Expect(out.Burst).To(BeNil())
					Expect(out.Blocked).To(Equal(BlockedRingFull))
				})
		})
	})

	Context("wraparound", func() {
		BeforeEach(func() {
			cfg.FullDetection = TrackOccupancy
		})

		It("should wrap at the end of a four packet ring", func() {
			end := uint32(testBase + 4*testPL)
			bus := &oneCycleBus{core: core}
			bus.step(enableWrites(testBase, end)...)

			region := Region{Base: testBase, End: uint64(end)}
			read := uint64(testBase)
			unread := 0

			for len(bus.issued) < 12 {
				var writes []RegWrite
				if unread > 0 {
					read = region.Advance(read, testPL)
					unread--
					writes = append(writes,
						RegWrite{Offset: RegRead, Value: uint32(read)})
				}

				out := bus.step(writes...)
				unread += countEvents(out.Events, EventPacketWritten)
				Expect(core.WriteAddress()).To(And(
					BeNumerically(">=", testBase),
					BeNumerically("<", end)))
			}

			for i, b := range bus.issued {
				Expect(b.Address).
					To(Equal(uint64(testBase + (i%4)*testPL)))
				Expect(b.Address).To(BeNumerically("<", end))
			}
		})
	})

	Context("no overflow", func() {
		for _, policy := range []FullDetection{ReserveOnePacket, TrackOccupancy} {
			It("should never write into unread data with "+policy.String(), func() {
				cfg.FullDetection = policy
				cfg.MaxOutstanding = 3
				core = NewCore("DMA", cfg)

				rng := rand.New(rand.NewSource(1))
				region := Region{Base: testBase, End: testBase + 8*testPL}
				slots := 8

				core.Step(TickInput{RegWrites: enableWrites(
					uint32(region.Base), uint32(region.End))})

				inflight := 0
				unread := 0
				read := region.Base

				for cycle := 0; cycle < 5000; cycle++ {
					in := TickInput{
						PacketReady: rng.Intn(4) != 0,
						BusReady:    rng.Intn(5) != 0,
					}

					n := rng.Intn(inflight + 1)
					for i := 0; i < n; i++ {
						in.Completions = append(in.Completions, mem.StatusOK)
					}

					if unread > 0 && rng.Intn(6) == 0 {
						read = region.Advance(read, testPL)
						unread--
						in.RegWrites = []RegWrite{
							{Offset: RegRead, Value: uint32(read)}}
					}

					out := core.Step(in)
					inflight -= n
					unread += countEvents(out.Events, EventPacketWritten)

					if out.Burst != nil {
						inflight++
						Expect(region.Distance(read, out.Burst.Address)).
							To(Equal(uint64(unread+inflight-1) * testPL))
					}

					Expect(inflight).To(BeNumerically("<=", cfg.MaxOutstanding))
					if policy == ReserveOnePacket {
						Expect(unread + inflight).To(BeNumerically("<", slots))
					} else {
						Expect(unread + inflight).To(BeNumerically("<=", slots))
					}
				}

				Expect(core.NumIssued()).To(BeNumerically(">", 100))
			})
		}
	})

	Context("disable and re-enable", func() {
		JustBeforeEach(func() {
			core.Step(TickInput{RegWrites: enableWrites(testBase, testEnd)})
			core.Step(TickInput{PacketReady: true, BusReady: true})
			core.Step(TickInput{PacketReady: true, BusReady: true})
		})

		It("should drain before disabling", func() {
			out := core.Step(TickInput{
				RegWrites:   []RegWrite{{Offset: RegConfig, Value: 0}},
				PacketReady: true,
				BusReady:    true,
			})

			Expect(out.Burst).To(BeNil())
			Expect(core.State()).To(Equal(StateDraining))
			Expect(core.Pending()).To(Equal(2))

			core.Step(TickInput{Completions: []mem.Status{mem.StatusOK}})
			Expect(core.State()).To(Equal(StateDraining))

			core.Step(TickInput{Completions: []mem.Status{mem.StatusOK}})
			Expect(core.State()).To(Equal(StateDisabled))
			Expect(core.WriteAddress()).To(Equal(uint64(testBase + 2*testPL)))
		})

		It("should resume where it stopped", func() {
			core.Step(TickInput{
				RegWrites: []RegWrite{{Offset: RegConfig, Value: 0}},
				Completions: []mem.Status{
					mem.StatusOK, mem.StatusOK},
			})
			Expect(core.State()).To(Equal(StateDisabled))

			out := core.Step(TickInput{
				RegWrites:   []RegWrite{{Offset: RegConfig, Value: ConfigEnable}},
				PacketReady: true,
				BusReady:    true,
			})

			Expect(out.Burst.Address).To(Equal(uint64(testBase + 2*testPL)))
		})

		It("should go back to streaming if re-enabled while draining", func() {
			core.Step(TickInput{
				RegWrites: []RegWrite{{Offset: RegConfig, Value: 0}}})
			core.Step(TickInput{
				RegWrites: []RegWrite{{Offset: RegConfig, Value: ConfigEnable}}})

			Expect(core.State()).To(Equal(StateStreaming))
			Expect(core.Pending()).To(Equal(2))
		})

		It("should ignore repeated writes of the same value", func() {
			out := core.Step(TickInput{RegWrites: []RegWrite{
				{Offset: RegConfig, Value: ConfigEnable},
				{Offset: RegConfig, Value: ConfigEnable},
			}})

			Expect(out.Events).To(BeEmpty())
			Expect(core.State()).To(Equal(StateStreaming))

			core.Step(TickInput{
				RegWrites: []RegWrite{
					{Offset: RegConfig, Value: 0},
					{Offset: RegConfig, Value: 0},
				},
				Completions: []mem.Status{mem.StatusOK, mem.StatusOK},
			})
			out = core.Step(TickInput{
				RegWrites: []RegWrite{{Offset: RegConfig, Value: 0}}})

			Expect(out.Events).To(BeEmpty())
			Expect(core.State()).To(Equal(StateDisabled))
		})

		It("should keep the write pointer if the same region is rewritten",
			func() {
				core.Step(TickInput{
					RegWrites:   []RegWrite{{Offset: RegConfig, Value: 0}},
					Completions: []mem.Status{mem.StatusOK, mem.StatusOK},
				})
				Expect(core.State()).To(Equal(StateDisabled))

				out := core.Step(TickInput{
					RegWrites:   enableWrites(testBase, testEnd),
					PacketReady: true,
					BusReady:    true,
				})

				Expect(out.Burst.Address).To(Equal(uint64(testBase + 2*testPL)))
				Expect(core.ReadAddress()).To(Equal(uint64(testBase)))
			})

		It("should restart at the base after the region is rewritten", func() {
			core.Step(TickInput{
				RegWrites:   []RegWrite{{Offset: RegConfig, Value: 0}},
				Completions: []mem.Status{mem.StatusOK, mem.StatusOK},
			})

			out := core.Step(TickInput{
				RegWrites:   enableWrites(0x4000, 0x4800),
				PacketReady: true,
				BusReady:    true,
			})

			Expect(out.Burst.Address).To(Equal(uint64(0x4000)))
			Expect(core.Region()).To(Equal(Region{Base: 0x4000, End: 0x4800}))
		})
	})

	Context("bus errors", func() {
		JustBeforeEach(func() {
			core.Step(TickInput{RegWrites: append(
				enableWrites(testBase, testEnd),
				RegWrite{Offset: RegIRQMask, Value: uint32(interrupt.AllSources)},
			)})

			for i := 0; i < 3; i++ {
				core.Step(TickInput{PacketReady: true, BusReady: true})
			}
		})

		Context("with AdvanceOnError", func() {
			It("should still advance the write pointer", func() {
				out := core.Step(TickInput{
					Completions: []mem.Status{mem.StatusSlaveError},
				})

				Expect(core.WriteAddress()).To(Equal(uint64(testBase + testPL)))
				Expect(core.State()).To(Equal(StateStreaming))
				Expect(hasEvent(out.Events, EventPacketWritten)).To(BeTrue())
				Expect(out.Events).To(ContainElement(Event{
					Kind:      EventBusError,
					Address:   testBase,
					Interrupt: true,
				}))

				status, _ := core.ReadRegister(RegStatus)
				Expect(status & StatusBusError).NotTo(BeZero())

				errAddr, _ := core.ReadRegister(RegErrorAddress)
				Expect(errAddr).To(Equal(uint32(testBase)))
				Expect(core.NumBusErrors()).To(Equal(uint64(1)))
			})

			It("should clear the sticky bit by writing one to irq_status", func() {
				core.Step(TickInput{
					Completions: []mem.Status{mem.StatusSlaveError},
				})
				core.Step(TickInput{RegWrites: []RegWrite{{
					Offset: RegIRQStatus,
					Value:  uint32(interrupt.SourceBusError),
				}}})

				status, _ := core.ReadRegister(RegStatus)
				Expect(status & StatusBusError).To(BeZero())

				irq, _ := core.ReadRegister(RegIRQStatus)
				Expect(irq).To(Equal(uint32(interrupt.SourcePacketWritten)))
			})
		})

		Context("with HaltOnError", func() {
			BeforeEach(func() {
				cfg.BusErrorPolicy = HaltOnError
				cfg.FullDetection = TrackOccupancy
			})

			It("should fault without advancing", func() {
				out := core.Step(TickInput{
					Completions: []mem.Status{mem.StatusSlaveError},
					PacketReady: true,
					BusReady:    true,
				})

				Expect(out.Burst).To(BeNil())
				Expect(core.State()).To(Equal(StateFaulted))
				Expect(core.WriteAddress()).To(Equal(uint64(testBase)))
				Expect(hasEvent(out.Events, EventPacketWritten)).To(BeFalse())
				Expect(hasEvent(out.Events, EventBusError)).To(BeTrue())
			})

			It("should drain without advancing and ignore enable", func() {
				core.Step(TickInput{
					Completions: []mem.Status{mem.StatusSlaveError},
				})
				out := core.Step(TickInput{
					RegWrites:   []RegWrite{{Offset: RegConfig, Value: ConfigEnable}},
					Completions: []mem.Status{mem.StatusOK, mem.StatusOK},
					PacketReady: true,
					BusReady:    true,
				})

				Expect(out.Burst).To(BeNil())
				Expect(core.State()).To(Equal(StateFaulted))
				Expect(core.Pending()).To(BeZero())
				Expect(core.WriteAddress()).To(Equal(uint64(testBase)))
				Expect(core.Occupancy()).To(BeZero())
			})

			It("should resume at the failed address", func() {
				core.Step(TickInput{
					Completions: []mem.Status{
						mem.StatusOK, mem.StatusSlaveError, mem.StatusOK},
				})
				Expect(core.WriteAddress()).To(Equal(uint64(testBase + testPL)))

				core.Step(TickInput{
					RegWrites: []RegWrite{{Offset: RegConfig, Value: 0}}})
				Expect(core.State()).To(Equal(StateDisabled))

				out := core.Step(TickInput{
					RegWrites:   []RegWrite{{Offset: RegConfig, Value: ConfigEnable}},
					PacketReady: true,
					BusReady:    true,
				})

				Expect(out.Burst).NotTo(BeNil())
				Expect(out.Burst.Address).To(Equal(uint64(testBase + testPL)))
				Expect(core.Occupancy()).To(Equal(uint64(2 * testPL)))
			})
		})
	})

	Context("registers", func() {
		It("should reject region writes while enabled", func() {
			core.Step(TickInput{RegWrites: enableWrites(testBase, testEnd)})

			out := core.Step(TickInput{RegWrites: []RegWrite{
				{Offset: RegStart, Value: 0x8000},
				{Offset: RegEnd, Value: 0x9000},
			}})

			Expect(out.RegWriteErrs[0]).To(MatchError(ErrRegisterLocked))
			Expect(out.RegWriteErrs[1]).To(MatchError(ErrRegisterLocked))
			Expect(IsConfigError(out.RegWriteErrs[0])).To(BeTrue())
			Expect(countEvents(out.Events, EventConfigError)).To(Equal(2))
			Expect(core.Region()).To(Equal(Region{Base: testBase, End: testEnd}))

			start, _ := core.ReadRegister(RegStart)
			Expect(start).To(Equal(uint32(testBase)))

			status, _ := core.ReadRegister(RegStatus)
			Expect(status & StatusConfigError).NotTo(BeZero())
		})

		It("should reject writes to read-only registers", func() {
			out := core.Step(TickInput{RegWrites: []RegWrite{
				{Offset: RegWritten, Value: 1},
				{Offset: RegStatus, Value: 1},
				{Offset: RegErrorAddress, Value: 1},
			}})

			Expect(out.RegWriteErrs).To(HaveEach(MatchError(ErrReadOnlyRegister)))
		})

		It("should reject unknown registers", func() {
			out := core.Step(TickInput{
				RegWrites: []RegWrite{{Offset: 0x40, Value: 1}}})
			Expect(out.RegWriteErrs[0]).To(MatchError(ErrUnknownRegister))

			_, err := core.ReadRegister(0x44)
			Expect(err).To(MatchError(ErrUnknownRegister))
		})

		It("should reject a read pointer outside the buffer", func() {
			core.Step(TickInput{RegWrites: enableWrites(testBase, testEnd)})

			out := core.Step(TickInput{
				RegWrites: []RegWrite{{Offset: RegRead, Value: testEnd}}})

			Expect(out.RegWriteErrs[0]).To(MatchError(ErrReadPointerOutOfRange))
			Expect(core.ReadAddress()).To(Equal(uint64(testBase)))

			read, _ := core.ReadRegister(RegRead)
			Expect(read).To(Equal(uint32(testBase)))
		})

		DescribeTable("invalid regions",
			func(base, end uint32, expected error) {
				out := core.Step(TickInput{
					RegWrites:   enableWrites(base, end),
					PacketReady: true,
					BusReady:    true,
				})

				Expect(out.RegWriteErrs[3]).To(MatchError(expected))
				Expect(out.Burst).To(BeNil())
				Expect(core.State()).To(Equal(StateDisabled))
				Expect(core.Enabled()).To(BeFalse())

				status, _ := core.ReadRegister(RegStatus)
				Expect(status & StatusConfigError).NotTo(BeZero())
			},
			Entry("misaligned start", uint32(0x1010), uint32(0x2000),
				ErrMisalignedStart),
			Entry("misaligned end", uint32(0x1000), uint32(0x2010),
				ErrMisalignedEnd),
			Entry("empty", uint32(0x1000), uint32(0x1000), ErrEmptyRegion),
			Entry("not a power of two", uint32(0x1000), uint32(0x1300),
				ErrRegionNotPowerOfTwo),
		)

		It("should report state and pending count in status", func() {
			core.Step(TickInput{RegWrites: enableWrites(testBase, testEnd)})
			core.Step(TickInput{PacketReady: true, BusReady: true})
			core.Step(TickInput{PacketReady: true, BusReady: true})

			status, err := core.ReadRegister(RegStatus)

			Expect(err).NotTo(HaveOccurred())
			Expect(StatusState(status)).To(Equal(StateStreaming))
			Expect(StatusPending(status)).To(Equal(2))

			config, _ := core.ReadRegister(RegConfig)
			Expect(config).To(Equal(ConfigEnable))
		})

		It("should only assert the interrupt for unmasked sources", func() {
			core.Step(TickInput{
				RegWrites:   enableWrites(testBase, testEnd),
				PacketReady: true,
				BusReady:    true,
			})
			out := core.Step(TickInput{
				Completions: []mem.Status{mem.StatusOK}})

			Expect(out.Events).To(ContainElement(HaveField("Interrupt", false)))
			Expect(core.InterruptAsserted()).To(BeFalse())

			core.Step(TickInput{RegWrites: []RegWrite{{
				Offset: RegIRQMask,
				Value:  uint32(interrupt.SourcePacketWritten),
			}}})
			Expect(core.InterruptAsserted()).To(BeTrue())

			core.Step(TickInput{RegWrites: []RegWrite{{
				Offset: RegIRQStatus,
				Value:  uint32(interrupt.SourcePacketWritten),
			}}})
			Expect(core.InterruptAsserted()).To(BeFalse())
		})
	})

	Context("with synchronizer latency", func() {
		BeforeEach(func() {
			cfg.ReadPointerSyncStages = 2
			cfg.WrittenPointerSyncStages = 2
			cfg.FullDetection = TrackOccupancy
		})

		It("should delay the read pointer", func() {
			core.Step(TickInput{RegWrites: enableWrites(testBase, testEnd)})
			core.Step(TickInput{RegWrites: []RegWrite{
				{Offset: RegRead, Value: testBase + testPL}}})

			Expect(core.ReadAddress()).To(Equal(uint64(testBase)))
			Expect(core.Busy()).To(BeTrue())

			read, _ := core.ReadRegister(RegRead)
			Expect(read).To(Equal(uint32(testBase + testPL)))

			for i := 0; i < 4; i++ {
				core.Step(TickInput{})
			}

			Expect(core.ReadAddress()).To(Equal(uint64(testBase + testPL)))
		})

		It("should delay the written register", func() {
			core.Step(TickInput{
				RegWrites:   enableWrites(testBase, testEnd),
				PacketReady: true,
				BusReady:    true,
			})
			core.Step(TickInput{Completions: []mem.Status{mem.StatusOK}})

			written, _ := core.ReadRegister(RegWritten)
			Expect(written).To(Equal(uint32(testBase)))
			Expect(core.Busy()).To(BeTrue())

			core.Step(TickInput{})
			core.Step(TickInput{})

			written, _ = core.ReadRegister(RegWritten)
			Expect(written).To(Equal(uint32(testBase + testPL)))
			Expect(core.Busy()).To(BeFalse())
		})

		It("should apply a crossing read pointer when the engine stops", func() {
			core.Step(TickInput{RegWrites: enableWrites(testBase, testEnd)})
			core.Step(TickInput{RegWrites: []RegWrite{
				{Offset: RegRead, Value: testBase + 3*testPL},
				{Offset: RegConfig, Value: 0},
			}})

			Expect(core.State()).To(Equal(StateDisabled))
			Expect(core.ReadAddress()).To(Equal(uint64(testBase + 3*testPL)))
		})
	})
})
