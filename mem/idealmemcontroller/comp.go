// Package idealmemcontroller provides a memory controller that serves every
// request after a fixed latency and returns the responses in order.
package idealmemcontroller

import (
	"log"
	"reflect"

	"github.com/sarchlab/ringdma/mem"
	"github.com/sarchlab/ringdma/pipelining"
	"github.com/sarchlab/ringdma/sim"
	"github.com/sarchlab/ringdma/tracing"
)

// An ErrorRange makes every access that touches [Low, High) fail with the
// given status. It is used to inject bus errors.
type ErrorRange struct {
	Low, High uint64
	Status    mem.Status
}

func (r ErrorRange) overlaps(address, size uint64) bool {
	return address < r.High && address+size > r.Low
}

type reqPipelineItem struct {
	req mem.AccessReq
}

func (i reqPipelineItem) TaskID() string {
	return i.req.Meta().ID
}

// A Comp is an ideal memory controller. It accepts one request per cycle,
// keeps it for a fixed number of cycles, and responds in acceptance order.
// Accesses beyond the storage capacity respond with a decode error.
type Comp struct {
	*sim.TickingComponent

	topPort sim.Port
	Storage *mem.Storage

	pipeline    pipelining.Pipeline
	responseBuf sim.Buffer
	errorRanges []ErrorRange

	numReads, numWrites, numErrors uint64
}

// TopPort returns the port that receives requests.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// AddErrorRange registers an address range that fails.
func (c *Comp) AddErrorRange(r ErrorRange) {
	c.errorRanges = append(c.errorRanges, r)
}

// ClearErrorRanges removes all the injected errors.
func (c *Comp) ClearErrorRanges() {
	c.errorRanges = nil
}

// NumReads returns the number of read requests served.
func (c *Comp) NumReads() uint64 {
	return c.numReads
}

// NumWrites returns the number of write requests served.
func (c *Comp) NumWrites() uint64 {
	return c.numWrites
}

// NumErrors returns the number of requests that responded with an error.
func (c *Comp) NumErrors() uint64 {
	return c.numErrors
}

// Tick updates ideal memory controller state.
func (c *Comp) Tick() bool {
	madeProgress := false

	madeProgress = c.respond() || madeProgress
	madeProgress = c.pipeline.Tick() || madeProgress
	madeProgress = c.accept() || madeProgress

	return madeProgress
}

func (c *Comp) accept() bool {
	if !c.pipeline.CanAccept() {
		return false
	}

	msg := c.topPort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	req, ok := msg.(mem.AccessReq)
	if !ok {
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(msg))
	}

	tracing.TraceReqReceive(req, c)
	c.pipeline.Accept(reqPipelineItem{req: req})

	return true
}

func (c *Comp) respond() bool {
	item := c.responseBuf.Peek()
	if item == nil {
		return false
	}

	req := item.(reqPipelineItem).req

	var rsp sim.Msg

	switch req := req.(type) {
	case *mem.ReadReq:
		rsp = c.serveRead(req)
	case *mem.WriteReq:
		rsp = c.serveWrite(req)
	default:
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(req))
	}

	if c.topPort.Send(rsp) != nil {
		return false
	}

	c.commit(req)
	c.responseBuf.Pop()
	tracing.TraceReqComplete(req, c)

	return true
}

func (c *Comp) status(address, size uint64) mem.Status {
	if !c.Storage.Contains(address, size) {
		return mem.StatusDecodeError
	}

	for _, r := range c.errorRanges {
		if r.overlaps(address, size) {
			return r.Status
		}
	}

	return mem.StatusOK
}

func (c *Comp) serveRead(req *mem.ReadReq) *mem.DataReadyRsp {
	status := c.status(req.Address, req.AccessByteSize)

	var data []byte
	if !status.IsError() {
		var err error

		data, err = c.Storage.Read(req.Address, req.AccessByteSize)
		if err != nil {
			log.Panic(err)
		}
	}

	return mem.DataReadyRspBuilder{}.
		WithSrc(c.topPort.AsRemote()).
		WithDst(req.Src).
		WithRspTo(req.ID).
		WithData(data).
		WithStatus(status).
		Build()
}

func (c *Comp) serveWrite(req *mem.WriteReq) *mem.WriteDoneRsp {
	return mem.WriteDoneRspBuilder{}.
		WithSrc(c.topPort.AsRemote()).
		WithDst(req.Src).
		WithRspTo(req.ID).
		WithStatus(c.status(req.Address, req.GetByteSize())).
		Build()
}

// commit applies the side effect of a request once its response is sent.
// Failed writes leave the storage untouched.
func (c *Comp) commit(req mem.AccessReq) {
	status := c.status(req.GetAddress(), req.GetByteSize())
	if status.IsError() {
		c.numErrors++
	}

	switch req := req.(type) {
	case *mem.ReadReq:
		c.numReads++
	case *mem.WriteReq:
		c.numWrites++

		if !status.IsError() {
			err := c.Storage.Write(req.Address, req.Data)
			if err != nil {
				log.Panic(err)
			}
		}
	}
}
