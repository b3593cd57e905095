package sim

import (
	"log"
	"sync"
)

// HookPosPortMsgSend marks when a message is sent out from the port.
var HookPosPortMsgSend = &HookPos{Name: "Port Msg Send"}

// HookPosPortMsgRecvd marks when an inbound message arrives at a the given port
var HookPosPortMsgRecvd = &HookPos{Name: "Port Msg Recv"}

// HookPosPortMsgRetrieveIncoming marks when an inbound message is retrieved
// from the incoming buffer.
var HookPosPortMsgRetrieveIncoming = &HookPos{
	Name: "Port Msg Retrieve Incoming",
}

// A RemotePort is a string that refers to another port.
type RemotePort string

// A Port is the only way a component exchanges messages. The owner sends
// into the outgoing buffer and takes from the incoming buffer. The
// connection does the opposite.
type Port interface {
	Named
	Hookable

	AsRemote() RemotePort

	SetConnection(conn Connection)
	Component() Component

	// For connection
	Deliver(msg Msg) *SendError
	NotifyAvailable()
	RetrieveOutgoing() Msg
	PeekOutgoing() Msg

	// For component
	CanSend() bool
	Send(msg Msg) *SendError
	RetrieveIncoming() Msg
	PeekIncoming() Msg
	NumIncoming() int
}

// PortStats counts the traffic through a port. Rejected sends and refused
// deliveries are back-pressure: the buffer was full and the sender has to
// retry after it is notified.
type PortStats struct {
	Sent      uint64 `json:"sent"`
	Rejected  uint64 `json:"rejected"`
	Delivered uint64 `json:"delivered"`
	Refused   uint64 `json:"refused"`
}

// A PortStatser can report the traffic of a port.
type PortStatser interface {
	Stats() PortStats
}

type defaultPort struct {
	HookableBase

	lock  sync.Mutex
	name  string
	comp  Component
	conn  Connection
	stats PortStats

	incomingBuf Buffer
	outgoingBuf Buffer
}

// NewPort creates a port owned by comp. The buffer capacities bound how many
// messages can wait on each side.
func NewPort(
	comp Component,
	incomingBufCap, outgoingBufCap int,
	name string,
) Port {
	NameMustBeValid(name)

	return &defaultPort{
		name:        name,
		comp:        comp,
		incomingBuf: NewBuffer(name+".IncomingBuf", incomingBufCap),
		outgoingBuf: NewBuffer(name+".OutgoingBuf", outgoingBufCap),
	}
}

func (p *defaultPort) Name() string {
	return p.name
}

func (p *defaultPort) AsRemote() RemotePort {
	return RemotePort(p.name)
}

// SetConnection plugs the port into a connection. A port can only be
// connected once.
func (p *defaultPort) SetConnection(conn Connection) {
	if p.conn != nil {
		log.Panicf("port %s is already connected to %s, cannot connect to %s",
			p.name, p.conn.Name(), conn.Name())
	}

	p.conn = conn
}

func (p *defaultPort) Component() Component {
	return p.comp
}

// Stats returns a copy of the traffic counters.
func (p *defaultPort) Stats() PortStats {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.stats
}

func (p *defaultPort) CanSend() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.outgoingBuf.CanPush()
}

// Send queues a message for the connection. It returns a SendError when the
// outgoing buffer is full. The owner is notified with NotifyPortFree once
// there is room again.
func (p *defaultPort) Send(msg Msg) *SendError {
	p.msgMustBeValid(msg)

	if !p.push(p.outgoingBuf, msg, HookPosPortMsgSend,
		&p.stats.Sent, &p.stats.Rejected) {
		return NewSendError()
	}

	if p.conn == nil {
		log.Panicf("port %s is not connected", p.name)
	}

	p.conn.NotifySend()

	return nil
}

// Deliver is called by the connection to hand a message to the owner.
func (p *defaultPort) Deliver(msg Msg) *SendError {
	if !p.push(p.incomingBuf, msg, HookPosPortMsgRecvd,
		&p.stats.Delivered, &p.stats.Refused) {
		return NewSendError()
	}

	if p.comp != nil {
		p.comp.NotifyRecv(p)
	}

	return nil
}

func (p *defaultPort) push(
	buf Buffer,
	msg Msg,
	pos *HookPos,
	accepted, rejected *uint64,
) bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	if !buf.CanPush() {
		*rejected++
		return false
	}

	*accepted++
	buf.Push(msg)
	p.InvokeHook(HookCtx{Domain: p, Pos: pos, Item: msg})

	return true
}

// pop takes the head of buf and reports if buf was full before.
func (p *defaultPort) pop(buf Buffer) (msg Msg, wasFull bool) {
	p.lock.Lock()
	defer p.lock.Unlock()

	wasFull = !buf.CanPush()

	item := buf.Pop()
	if item == nil {
		return nil, false
	}

	return item.(Msg), wasFull
}

func (p *defaultPort) peek(buf Buffer) Msg {
	p.lock.Lock()
	defer p.lock.Unlock()

	item := buf.Peek()
	if item == nil {
		return nil
	}

	return item.(Msg)
}

// RetrieveIncoming takes the oldest delivered message. If the incoming
// buffer was full, the connection is told it can deliver again.
func (p *defaultPort) RetrieveIncoming() Msg {
	msg, wasFull := p.pop(p.incomingBuf)
	if msg == nil {
		return nil
	}

	if wasFull && p.conn != nil {
		p.conn.NotifyAvailable(p)
	}

	p.InvokeHook(HookCtx{
		Domain: p,
		Pos:    HookPosPortMsgRetrieveIncoming,
		Item:   msg,
	})

	return msg
}

// RetrieveOutgoing is used by the connection to take the oldest sent
// message.
func (p *defaultPort) RetrieveOutgoing() Msg {
	msg, wasFull := p.pop(p.outgoingBuf)
	if msg == nil {
		return nil
	}

	if wasFull && p.comp != nil {
		p.comp.NotifyPortFree(p)
	}

	return msg
}

func (p *defaultPort) PeekIncoming() Msg {
	return p.peek(p.incomingBuf)
}

func (p *defaultPort) PeekOutgoing() Msg {
	return p.peek(p.outgoingBuf)
}

func (p *defaultPort) NumIncoming() int {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.incomingBuf.Size()
}

// NotifyAvailable is called by the connection when it can take messages
// again.
func (p *defaultPort) NotifyAvailable() {
	if p.comp != nil {
		p.comp.NotifyPortFree(p)
	}
}

func (p *defaultPort) msgMustBeValid(msg Msg) {
	meta := msg.Meta()

	switch {
	case string(meta.Src) != p.name:
		log.Panicf("port %s is sending a message from %s", p.name, meta.Src)
	case meta.Dst == "":
		log.Panicf("message %s from %s has no destination", meta.ID, p.name)
	case meta.Src == meta.Dst:
		log.Panicf("port %s is sending to itself", p.name)
	}
}
