package simulation

import (
	"log/slog"

	"github.com/rs/xid"
	"github.com/sarchlab/ringdma/datarecording"
	"github.com/sarchlab/ringdma/monitoring"
	"github.com/sarchlab/ringdma/sim"
	"github.com/sarchlab/ringdma/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	openBrowser    bool
	traceOn        bool
	outputFileName string
	logger         *slog.Logger
}

// MakeBuilder creates a new builder. Monitoring is on and tracing is off by
// default.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitoring dashboard once the server starts.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithTracing records the burst traces into a SQLite database.
func (b Builder) WithTracing() Builder {
	b.traceOn = true
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithLogger sets the logger of the simulation.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && (b.monitorPort != 0 || b.openBrowser) {
		panic("monitor options cannot be set when monitoring is disabled")
	}

	if !b.traceOn && b.outputFileName != "" {
		panic("output file name cannot be set when tracing is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:            xid.New().String(),
		compNameIndex: make(map[string]int),
		portNameIndex: make(map[string]int),
		logger:        b.logger,
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.engine = sim.NewSerialEngine()

	if b.traceOn {
		s.outputPath = b.outputFileName
		if s.outputPath == "" {
			s.outputPath = "ringdma_sim_" + s.id
		}

		s.dataRecorder = datarecording.New(s.outputPath)
		s.visTracer = tracing.NewDBTracer(s.engine, s.dataRecorder)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}

		if b.openBrowser {
			s.monitor.WithBrowser()
		}

		s.monitor.RegisterEngine(s.engine)
		s.monitorURL = s.monitor.StartServer()
	}

	s.logger.Info("simulation created",
		slog.String("id", s.id),
		slog.Bool("tracing", b.traceOn),
		slog.String("monitor", s.monitorURL))

	return s
}
