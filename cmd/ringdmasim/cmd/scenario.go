package cmd

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ringdma/mem"
	"github.com/sarchlab/ringdma/mem/idealmemcontroller"
	"github.com/sarchlab/ringdma/platform"
	"github.com/sarchlab/ringdma/ringdma"
	"github.com/spf13/viper"
)

var errBadScenario = errors.New("invalid scenario")

// Scenario is everything that describes a run. The keys are shared by the
// flags, the scenario file and the environment.
type Scenario struct {
	Packets        uint64 `mapstructure:"packets"`
	PacketLength   uint64 `mapstructure:"packet-length"`
	BeatWidth      uint64 `mapstructure:"beat-width"`
	MaxOutstanding int    `mapstructure:"max-outstanding"`
	StagingDepth   int    `mapstructure:"staging-depth"`
	FullDetection  string `mapstructure:"full-detection"`
	BusErrorPolicy string `mapstructure:"bus-error-policy"`
	ReadSync       int    `mapstructure:"read-sync-stages"`
	WrittenSync    int    `mapstructure:"written-sync-stages"`

	RegionBase uint64 `mapstructure:"region-base"`
	RegionEnd  uint64 `mapstructure:"region-end"`

	MemLatency      int    `mapstructure:"mem-latency"`
	ErrorLow        uint64 `mapstructure:"error-low"`
	ErrorHigh       uint64 `mapstructure:"error-high"`
	TransientErrors bool   `mapstructure:"transient-errors"`

	ProducerGap  int    `mapstructure:"producer-gap"`
	ConsumeDelay int    `mapstructure:"consume-delay"`
	PollInterval int    `mapstructure:"poll-interval"`
	IdlePolls    int    `mapstructure:"idle-polls"`
	ToggleEvery  uint64 `mapstructure:"toggle-every"`

	Monitor     bool   `mapstructure:"monitor"`
	MonitorPort int    `mapstructure:"monitor-port"`
	OpenBrowser bool   `mapstructure:"open-browser"`
	Trace       bool   `mapstructure:"trace"`
	TraceFile   string `mapstructure:"trace-file"`
}

func loadScenario(v *viper.Viper) (Scenario, error) {
	s := Scenario{}
	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("%w: %w", errBadScenario, err)
	}

	return s, nil
}

// dmaConfig converts the scenario into the static engine configuration.
func (s Scenario) dmaConfig() (ringdma.Config, error) {
	fd, err := ringdma.ParseFullDetection(s.FullDetection)
	if err != nil {
		return ringdma.Config{}, err
	}

	policy, err := ringdma.ParseBusErrorPolicy(s.BusErrorPolicy)
	if err != nil {
		return ringdma.Config{}, err
	}

	cfg := ringdma.Config{
		PacketLength:             s.PacketLength,
		BeatWidth:                s.BeatWidth,
		MaxOutstanding:           s.MaxOutstanding,
		StagingDepth:             s.StagingDepth,
		FullDetection:            fd,
		BusErrorPolicy:           policy,
		ReadPointerSyncStages:    s.ReadSync,
		WrittenPointerSyncStages: s.WrittenSync,
	}

	if err := cfg.Validate(); err != nil {
		return ringdma.Config{}, err
	}

	return cfg, nil
}

// validate checks what the builders would otherwise panic on.
func (s Scenario) validate(cfg ringdma.Config) error {
	if s.Packets == 0 {
		return fmt.Errorf("%w: no packet to produce", errBadScenario)
	}

	region := s.region()
	if err := region.Validate(cfg.PacketLength); err != nil {
		return fmt.Errorf("%w: %w", errBadScenario, err)
	}

	if region.Size() < 2*cfg.PacketLength {
		return fmt.Errorf("%w: the ring must hold at least two packets",
			errBadScenario)
	}

	if region.End > 1<<32 {
		return fmt.Errorf("%w: the ring must be below 4GB", errBadScenario)
	}

	if s.MemLatency < 1 {
		return fmt.Errorf("%w: memory latency must be at least 1",
			errBadScenario)
	}

	if s.ErrorHigh < s.ErrorLow {
		return fmt.Errorf("%w: error range 0x%x-0x%x",
			errBadScenario, s.ErrorLow, s.ErrorHigh)
	}

	if s.TransientErrors && !s.hasErrorRange() {
		return fmt.Errorf("%w: transient errors need an error range",
			errBadScenario)
	}

	if s.IdlePolls == 0 {
		return fmt.Errorf("%w: the driver must stop after some idle polls",
			errBadScenario)
	}

	if !s.Monitor && (s.MonitorPort != 0 || s.OpenBrowser) {
		return fmt.Errorf("%w: monitor options need --monitor", errBadScenario)
	}

	if !s.Trace && s.TraceFile != "" {
		return fmt.Errorf("%w: trace file needs --trace", errBadScenario)
	}

	return nil
}

func (s Scenario) region() ringdma.Region {
	return ringdma.Region{Base: s.RegionBase, End: s.RegionEnd}
}

func (s Scenario) hasErrorRange() bool {
	return s.ErrorHigh > s.ErrorLow
}

// apply sets the scenario parameters on a platform builder.
func (s Scenario) apply(b platform.Builder, cfg ringdma.Config) platform.Builder {
	b = b.
		WithDMAConfig(cfg).
		WithRegion(s.region()).
		WithNumPackets(s.Packets).
		WithProducerGap(s.ProducerGap).
		WithMemoryLatency(s.MemLatency).
		WithConsumeDelay(s.ConsumeDelay).
		WithPollInterval(s.PollInterval).
		WithIdlePolls(s.IdlePolls).
		WithToggleEvery(s.ToggleEvery)

	if s.hasErrorRange() {
		b = b.WithErrorRange(idealmemcontroller.ErrorRange{
			Low:    s.ErrorLow,
			High:   s.ErrorHigh,
			Status: mem.StatusSlaveError,
		})
	}

	if s.TransientErrors {
		b = b.WithTransientErrors()
	}

	return b
}
