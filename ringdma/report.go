package ringdma

import "fmt"

// Snapshot is a summary of the engine that the monitor shows.
type Snapshot struct {
	State         string `json:"state"`
	Enabled       bool   `json:"enabled"`
	Region        string `json:"region"`
	WriteAddress  string `json:"write_address"`
	ReadAddress   string `json:"read_address"`
	Pending       int    `json:"pending"`
	FreeSpace     uint64 `json:"free_space"`
	Occupancy     uint64 `json:"occupancy"`
	StagedPackets int    `json:"staged_packets"`
	IRQStatus     uint32 `json:"irq_status"`
	NumIssued     uint64 `json:"num_issued"`
	NumCompleted  uint64 `json:"num_completed"`
	NumBusErrors  uint64 `json:"num_bus_errors"`
	DroppedIRQs   uint64 `json:"dropped_irqs"`
	Ticks         uint64 `json:"ticks"`
	IdleTicks     uint64 `json:"idle_ticks"`
}

// Report summarizes the current state of the engine.
func (c *Comp) Report() any {
	irqStatus, _ := c.core.ReadRegister(RegIRQStatus)
	ticks, idleTicks := c.NumTicks()

	return Snapshot{
		State:         c.core.State().String(),
		Enabled:       c.core.Enabled(),
		Region:        c.core.Region().String(),
		WriteAddress:  fmt.Sprintf("0x%x", c.core.WriteAddress()),
		ReadAddress:   fmt.Sprintf("0x%x", c.core.ReadAddress()),
		Pending:       c.core.Pending(),
		FreeSpace:     c.core.FreeSpace(),
		Occupancy:     c.core.Occupancy(),
		StagedPackets: c.stager.NumPackets(),
		IRQStatus:     irqStatus,
		NumIssued:     c.core.NumIssued(),
		NumCompleted:  c.core.NumCompleted(),
		NumBusErrors:  c.core.NumBusErrors(),
		DroppedIRQs:   c.numDropped,
		Ticks:         ticks,
		IdleTicks:     idleTicks,
	}
}
