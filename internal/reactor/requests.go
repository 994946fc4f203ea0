package reactor

import (
	"github.com/yourusername/tiler/internal/animation"
	"github.com/yourusername/tiler/internal/raise"
	"github.com/yourusername/tiler/internal/types"
)

// RequestKind names an outbound request to an app actor.
type RequestKind string

const (
	ReqSetWindowFrame      RequestKind = "setWindowFrame"
	ReqSetBatchWindowFrame RequestKind = "setBatchWindowFrame"
	ReqRaise               RequestKind = "raise"
	ReqGetVisibleWindows   RequestKind = "getVisibleWindows"
	ReqTerminate           RequestKind = "terminate"
	ReqSwitchSpace         RequestKind = "switchSpace"
	ReqWarpMouse           RequestKind = "warpMouse"
)

// Request is sent to the actor owning a pid. Only the fields of Kind are
// set. SwitchSpace and WarpMouse go to pid 0, the system actor.
type Request struct {
	Kind     RequestKind         `json:"kind"`
	Window   *types.WindowID     `json:"window,omitempty"`
	Frame    *types.Rect         `json:"frame,omitempty"`
	Frames   []animation.Write   `json:"frames,omitempty"`
	Txid     types.TransactionID `json:"txid,omitempty"`
	SkipAnim bool                `json:"skipAnim,omitempty"`
	Raise    *raise.Request      `json:"raise,omitempty"`
	Force    bool                `json:"force,omitempty"`
	Dir      string              `json:"direction,omitempty"`
	Point    *types.Point        `json:"point,omitempty"`
}

// Sink delivers requests. It may be called from animation and raise
// goroutines as well as the reactor loop.
type Sink interface {
	Send(pid types.Pid, req Request) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(pid types.Pid, req Request) error

func (f SinkFunc) Send(pid types.Pid, req Request) error { return f(pid, req) }

// frameSink adapts a Sink to animation.Sink.
type frameSink struct {
	sink Sink
	obs  func(n int)
}

func (f frameSink) SetBatchWindowFrame(pid types.Pid, frames []animation.Write, txid types.TransactionID) error {
	if f.obs != nil {
		f.obs(len(frames))
	}
	return f.sink.Send(pid, Request{Kind: ReqSetBatchWindowFrame, Frames: frames, Txid: txid})
}

// RaiseSender adapts a Sink to raise.Sender.
func RaiseSender(sink Sink) raise.Sender {
	return raise.SenderFunc(func(pid types.Pid, req raise.Request) error {
		return sink.Send(pid, Request{Kind: ReqRaise, Raise: &req})
	})
}

// WarpFunc returns a mouse warp callback that goes through sink.
func WarpFunc(sink Sink) func(types.Point) {
	return func(p types.Point) {
		_ = sink.Send(0, Request{Kind: ReqWarpMouse, Point: &p})
	}
}
