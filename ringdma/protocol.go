package ringdma

import (
	"github.com/sarchlab/ringdma/interrupt"
	"github.com/sarchlab/ringdma/sim"
)

// A BeatMsg carries one beat of the input stream.
type BeatMsg struct {
	sim.MsgMeta

	Data []byte
}

// Meta returns the meta data of the message.
func (m *BeatMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns cloned BeatMsg with different ID
func (m *BeatMsg) Clone() sim.Msg {
	cloneMsg := *m
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// BeatMsgBuilder can build BeatMsgs.
type BeatMsgBuilder struct {
	src, dst sim.RemotePort
	data     []byte
}

// WithSrc sets the source of the message to build.
func (b BeatMsgBuilder) WithSrc(src sim.RemotePort) BeatMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the message to build.
func (b BeatMsgBuilder) WithDst(dst sim.RemotePort) BeatMsgBuilder {
	b.dst = dst
	return b
}

// WithData sets the beat data.
func (b BeatMsgBuilder) WithData(data []byte) BeatMsgBuilder {
	b.data = data
	return b
}

// Build creates a new BeatMsg.
func (b BeatMsgBuilder) Build() *BeatMsg {
	m := &BeatMsg{Data: b.data}
	m.MsgMeta = sim.NewMsgMeta[BeatMsg](
		b.src, b.dst, len(b.data),
	)

	return m
}

// A RegReadReq reads a register.
type RegReadReq struct {
	sim.MsgMeta

	Offset uint32
}

// Meta returns the meta data of the message.
func (r *RegReadReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns cloned RegReadReq with different ID
func (r *RegReadReq) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// A RegReadRsp returns the value of a register.
type RegReadRsp struct {
	sim.MsgMeta

	RespondTo string
	Offset    uint32
	Value     uint32
	Err       error
}

// Meta returns the meta data of the message.
func (r *RegReadRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns cloned RegReadRsp with different ID
func (r *RegReadRsp) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// GetRspTo returns the ID of the request.
func (r *RegReadRsp) GetRspTo() string {
	return r.RespondTo
}

// A RegWriteReq writes a register.
type RegWriteReq struct {
	sim.MsgMeta

	Offset uint32
	Value  uint32
}

// Meta returns the meta data of the message.
func (r *RegWriteReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns cloned RegWriteReq with different ID
func (r *RegWriteReq) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// A RegWriteRsp acknowledges a register write. Err is set if the write was
// rejected.
type RegWriteRsp struct {
	sim.MsgMeta

	RespondTo string
	Offset    uint32
	Err       error
}

// Meta returns the meta data of the message.
func (r *RegWriteRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns cloned RegWriteRsp with different ID
func (r *RegWriteRsp) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// GetRspTo returns the ID of the request.
func (r *RegWriteRsp) GetRspTo() string {
	return r.RespondTo
}

// RegReqBuilder can build register access requests.
type RegReqBuilder struct {
	src, dst sim.RemotePort
	offset   uint32
	value    uint32
}

// WithSrc sets the source of the request to build.
func (b RegReqBuilder) WithSrc(src sim.RemotePort) RegReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b RegReqBuilder) WithDst(dst sim.RemotePort) RegReqBuilder {
	b.dst = dst
	return b
}

// WithOffset sets the register offset.
func (b RegReqBuilder) WithOffset(offset uint32) RegReqBuilder {
	b.offset = offset
	return b
}

// WithValue sets the value to write.
func (b RegReqBuilder) WithValue(value uint32) RegReqBuilder {
	b.value = value
	return b
}

// BuildRead creates a new RegReadReq.
func (b RegReqBuilder) BuildRead() *RegReadReq {
	r := &RegReadReq{Offset: b.offset}
	r.MsgMeta = sim.NewMsgMeta[RegReadReq](
		b.src, b.dst, 4,
	)

	return r
}

// BuildWrite creates a new RegWriteReq.
func (b RegReqBuilder) BuildWrite() *RegWriteReq {
	r := &RegWriteReq{Offset: b.offset, Value: b.value}
	r.MsgMeta = sim.NewMsgMeta[RegWriteReq](
		b.src, b.dst, 8,
	)

	return r
}

// An InterruptMsg is sent for every event whose interrupt source is enabled.
type InterruptMsg struct {
	sim.MsgMeta

	Source  interrupt.Source
	Address uint64

	// Status is the irq_status register when the interrupt was raised.
	Status uint32
}

// Meta returns the meta data of the message.
func (m *InterruptMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns cloned InterruptMsg with different ID
func (m *InterruptMsg) Clone() sim.Msg {
	cloneMsg := *m
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}
