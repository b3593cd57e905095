// Package simulation bundles the services a simulation run needs: the event
// engine, the trace database, the web monitor and a registry of components.
package simulation

import (
	"log/slog"

	"github.com/sarchlab/ringdma/datarecording"
	"github.com/sarchlab/ringdma/monitoring"
	"github.com/sarchlab/ringdma/sim"
	"github.com/sarchlab/ringdma/tracing"
)

// A Simulation provides the service requires to define a simulation.
type Simulation struct {
	id     string
	engine sim.Engine
	logger *slog.Logger

	outputPath   string
	dataRecorder datarecording.DataRecorder
	visTracer    *tracing.DBTracer

	monitor    *monitoring.Monitor
	monitorURL string

	components    []sim.Component
	compNameIndex map[string]int
	ports         []sim.Port
	portNameIndex map[string]int
}

// ID returns the ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetLogger returns the logger of the simulation.
func (s *Simulation) GetLogger() *slog.Logger {
	return s.logger
}

// GetDataRecorder returns the data recorder used in the simulation. It is nil
// if tracing is off.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// OutputPath returns the path of the trace database without the extension.
func (s *Simulation) OutputPath() string {
	return s.outputPath
}

// GetMonitor returns the monitor used in the simulation. It is nil if
// monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitoring dashboard.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// GetVisTracer returns the tracer used in the simulation. It is nil if
// tracing is off.
func (s *Simulation) GetVisTracer() *tracing.DBTracer {
	return s.visTracer
}

// RegisterComponent registers a component with the simulation. Registered
// components are traced and monitored when those services are on.
func (s *Simulation) RegisterComponent(c sim.Component) {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1

	for _, p := range c.Ports() {
		s.registerPort(p)
	}

	if nh, ok := c.(tracing.NamedHookable); ok && s.visTracer != nil {
		tracing.CollectTrace(nh, s.visTracer)
	}

	if s.monitor != nil {
		s.monitor.RegisterComponent(c)
	}

	s.logger.Debug("component registered", slog.String("name", compName))
}

func (s *Simulation) registerPort(p sim.Port) {
	portName := p.Name()
	if _, found := s.portNameIndex[portName]; found {
		panic("port " + portName + " already registered")
	}

	s.ports = append(s.ports, p)
	s.portNameIndex[portName] = len(s.ports) - 1
}

// Components returns all the registered components.
func (s *Simulation) Components() []sim.Component {
	return s.components
}

// GetComponentByName returns the component with the given name.
func (s *Simulation) GetComponentByName(name string) sim.Component {
	i, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[i]
}

// GetPortByName returns the port with the given name.
func (s *Simulation) GetPortByName(name string) sim.Port {
	i, found := s.portNameIndex[name]
	if !found {
		return nil
	}

	return s.ports[i]
}

// Terminate flushes the traces and stops the monitor.
func (s *Simulation) Terminate() {
	if s.visTracer != nil {
		s.visTracer.Terminate()
	}

	if s.dataRecorder != nil {
		if err := s.dataRecorder.Close(); err != nil {
			s.logger.Error("cannot close trace database",
				slog.String("error", err.Error()))
		}
	}

	if s.monitor != nil {
		s.monitor.StopServer()
	}

	s.engine.Finished()
}
