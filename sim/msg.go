package sim

import "reflect"

// A Msg is a piece of information that is transferred between components.
type Msg interface {
	Meta() *MsgMeta
	Clone() Msg
}

// MsgMeta is carried by every message. TrafficClass names the concrete
// message type and TrafficBytes is the payload size used for bandwidth
// accounting.
type MsgMeta struct {
	ID           string
	Src, Dst     RemotePort
	TrafficClass string
	TrafficBytes int
}

// NewMsgMeta creates the meta data for a message of type T with a fresh ID.
func NewMsgMeta[T any](src, dst RemotePort, trafficBytes int) MsgMeta {
	return MsgMeta{
		ID:           GetIDGenerator().Generate(),
		Src:          src,
		Dst:          dst,
		TrafficClass: reflect.TypeOf((*T)(nil)).Elem().String(),
		TrafficBytes: trafficBytes,
	}
}

// Rsp is a message that completes an earlier request.
type Rsp interface {
	Msg
	GetRspTo() string
}

// IsRspTo checks if msg is a response to the request with the given ID.
func IsRspTo(msg Msg, reqID string) bool {
	rsp, ok := msg.(Rsp)
	return ok && rsp.GetRspTo() == reqID
}
