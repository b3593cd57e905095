package sim

import (
	"log"
	"sort"
)

// DirectConnection connects ports together and delivers messages from one
// port to another with a one-cycle latency. Delivery is round-robin among the
// sending ports so that no port can starve the others.
type DirectConnection struct {
	*TickingComponent

	ports      map[RemotePort]Port
	portList   []Port
	nextPortID int
}

// NewDirectConnection creates a new DirectConnection.
func NewDirectConnection(
	name string,
	engine Engine,
	freq Freq,
) *DirectConnection {
	c := new(DirectConnection)
	c.TickingComponent = NewSecondaryTickingComponent(name, engine, freq, c)
	c.ports = make(map[RemotePort]Port)

	return c
}

// PlugIn marks the port connects to this DirectConnection.
func (c *DirectConnection) PlugIn(port Port) {
	c.Lock()
	defer c.Unlock()

	if _, found := c.ports[port.AsRemote()]; found {
		log.Panicf("port %s is already plugged in", port.Name())
	}

	c.ports[port.AsRemote()] = port
	c.portList = append(c.portList, port)
	sort.Slice(c.portList, func(i, j int) bool {
		return c.portList[i].Name() < c.portList[j].Name()
	})

	port.SetConnection(c)
}

// NotifyAvailable is called by a port to notify that the connection can
// deliver to the port again.
func (c *DirectConnection) NotifyAvailable(_ Port) {
	c.TickLater()
}

// NotifySend is called by a port to notify that the connection has a message
// to deliver.
func (c *DirectConnection) NotifySend() {
	c.TickLater()
}

// Tick moves messages from the outgoing buffers to the incoming buffers.
func (c *DirectConnection) Tick() bool {
	madeProgress := false
	numPorts := len(c.portList)

	for i := 0; i < numPorts; i++ {
		portID := (i + c.nextPortID) % numPorts
		madeProgress = c.forwardMany(c.portList[portID]) || madeProgress
	}

	if numPorts > 0 {
		c.nextPortID = (c.nextPortID + 1) % numPorts
	}

	return madeProgress
}

func (c *DirectConnection) forwardMany(src Port) bool {
	madeProgress := false

	for {
		msg := src.PeekOutgoing()
		if msg == nil {
			break
		}

		dst, found := c.ports[msg.Meta().Dst]
		if !found {
			log.Panicf("destination %s of message from %s is not connected",
				msg.Meta().Dst, msg.Meta().Src)
		}

		if err := dst.Deliver(msg); err != nil {
			break
		}

		src.RetrieveOutgoing()

		madeProgress = true
	}

	return madeProgress
}
