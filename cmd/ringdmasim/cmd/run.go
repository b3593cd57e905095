package cmd

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"text/tabwriter"

	"github.com/sarchlab/ringdma/driver"
	"github.com/sarchlab/ringdma/monitoring"
	"github.com/sarchlab/ringdma/platform"
	"github.com/sarchlab/ringdma/ringdma"
	"github.com/sarchlab/ringdma/sim"
	"github.com/sarchlab/ringdma/simulation"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario and print a summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true

		s, err := loadScenario(viper.GetViper())
		if err != nil {
			return err
		}

		return runScenario(s, cmd.OutOrStdout())
	},
}

func init() {
	f := runCmd.Flags()
	def := ringdma.DefaultConfig()

	f.Uint64("packets", 1024, "number of packets to produce")
	f.Uint64("packet-length", def.PacketLength, "bytes per packet")
	f.Uint64("beat-width", def.BeatWidth, "bytes per stream beat")
	f.Int("max-outstanding", def.MaxOutstanding, "bursts in flight")
	f.Int("staging-depth", def.StagingDepth, "packets staged in the engine")
	f.String("full-detection", def.FullDetection.String(),
		"reserve-one-packet or track-occupancy")
	f.String("bus-error-policy", def.BusErrorPolicy.String(),
		"advance or halt")
	f.Int("read-sync-stages", 0, "cycles for a read pointer update to cross")
	f.Int("written-sync-stages", 0,
		"cycles for the write pointer to reach the registers")
	f.Uint64("region-base", 0x1000, "first byte of the ring")
	f.Uint64("region-end", 0x11000, "one past the last byte of the ring")
	f.Int("mem-latency", 20, "memory latency in cycles")
	f.Uint64("error-low", 0, "first address that fails")
	f.Uint64("error-high", 0, "one past the last address that fails")
	f.Bool("transient-errors", false, "heal the memory after the first error")
	f.Int("producer-gap", 0, "idle cycles between produced packets")
	f.Int("consume-delay", 0, "cycles the driver spends on a packet")
	f.Int("poll-interval", 100, "cycles between driver status polls")
	f.Int("idle-polls", 16, "idle polls before the driver stops")
	f.Uint64("toggle-every", 0, "packets between enable toggles, 0 for never")
	f.Bool("monitor", false, "serve the web monitor")
	f.Int("monitor-port", 0, "port of the web monitor")
	f.Bool("open-browser", false, "open the web monitor in a browser")
	f.Bool("trace", false, "record burst traces into SQLite")
	f.String("trace-file", "", "trace database name without the extension")

	f.VisitAll(mustBind)

	rootCmd.AddCommand(runCmd)
}

func mustBind(flag *pflag.Flag) {
	if err := viper.BindPFlag(flag.Name, flag); err != nil {
		log.Panic(err)
	}
}

func runScenario(s Scenario, out io.Writer) error {
	cfg, err := s.dmaConfig()
	if err != nil {
		return err
	}

	if err := s.validate(cfg); err != nil {
		return err
	}

	zapLogger, slogger, err := newLogger(
		viper.GetString("log-level"), viper.GetString("log-format"))
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()

	simu := buildSimulation(s, slogger)
	defer simu.Terminate()

	b := s.apply(platform.MakeBuilder().WithSimulation(simu), cfg).
		WithDMAHook(ringdma.NewLogHook(zapLogger))

	monitor := simu.GetMonitor()
	if monitor != nil {
		b = b.WithDMAHook(monitoring.NewMetricsHook(monitor.Registry()))
	}

	p := b.Build()

	if monitor != nil {
		bar := monitor.CreateProgressBar("Packets consumed", s.Packets)
		p.Driver.AcceptHook(sim.HookAt(driver.HookPosPacketConsumed,
			func(sim.HookCtx) { bar.IncrementFinished(1) }))
		defer monitor.CompleteProgressBar(bar)
	}

	zapLogger.Info("scenario started",
		zap.Uint64("packets", s.Packets),
		zap.Stringer("region", s.region()),
		zap.Stringer("full_detection", cfg.FullDetection),
		zap.Stringer("bus_error_policy", cfg.BusErrorPolicy))

	if err := p.Run(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	summary := p.Summary()
	printSummary(out, summary)

	if !p.Driver.Done() {
		return fmt.Errorf("driver did not finish, %d of %d packets consumed",
			summary.Driver.Consumed, s.Packets)
	}

	return nil
}

func buildSimulation(s Scenario, logger *slog.Logger) *simulation.Simulation {
	b := simulation.MakeBuilder().WithLogger(logger)

	if s.Monitor {
		if s.MonitorPort != 0 {
			b = b.WithMonitorPort(s.MonitorPort)
		}

		if s.OpenBrowser {
			b = b.WithBrowser()
		}
	} else {
		b = b.WithoutMonitoring()
	}

	if s.Trace {
		b = b.WithTracing()
		if s.TraceFile != "" {
			b = b.WithOutputFileName(s.TraceFile)
		}
	}

	return b.Build()
}

func printSummary(out io.Writer, s platform.Summary) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	row := func(name string, value any) {
		fmt.Fprintf(w, "%s\t%v\n", name, value)
	}

	row("simulated time (s)", fmt.Sprintf("%.9f", float64(s.Time)))
	row("events handled", s.Events)
	row("packets sent", s.PacketsSent)
	row("producer stalls", s.ProducerStalls)
	row("bursts issued", s.BurstsIssued)
	row("bursts completed", s.BurstsCompleted)
	row("bus errors", s.BusErrors)
	row("avg burst latency (s)", fmt.Sprintf("%.9f", float64(s.AvgBurstLatency)))
	row("max burst latency (s)", fmt.Sprintf("%.9f", float64(s.MaxBurstLatency)))
	row("memory writes", s.MemoryWrites)
	row("memory reads", s.MemoryReads)
	row("final state", s.FinalState)
	row("write pointer", fmt.Sprintf("0x%x", s.FinalWritePtr))
	row("read pointer", fmt.Sprintf("0x%x", s.FinalReadPtr))
	row("packets verified", s.Driver.Verified)
	row("packets skipped", s.Driver.Skipped)
	row("packets lost", s.Driver.Lost)
	row("packets corrupt", s.Driver.Corrupt)
	row("read errors", s.Driver.ReadErrors)
	row("interrupts", s.Driver.Interrupts)
	row("recoveries", s.Driver.Recoveries)
	row("enable toggles", s.Driver.Toggles)
	row("driver errors", s.DriverErrorCount)

	_ = w.Flush()
}
