// Package animation moves windows from their current frames to target
// frames over a fixed number of ticks, one batched write per app per tick.
package animation

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/yourusername/tiler/internal/types"
)

// Size changes below this many points are not worth a write mid-animation.
const sizeThreshold = 1.5

// Write is one window frame in a batch.
type Write struct {
	Window types.WindowID `json:"window"`
	Frame  types.Rect     `json:"frame"`
}

// Batch is everything one app moves in a single tick.
type Batch struct {
	Pid    types.Pid
	Frames []Write
}

// Sink delivers batched frame writes to the app owning the windows.
type Sink interface {
	SetBatchWindowFrame(pid types.Pid, frames []Write, txid types.TransactionID) error
}

// TxidFunc hands out the transaction id for a batch and records it as the
// last one sent for each window.
type TxidFunc func(pid types.Pid, windows []types.WindowID) types.TransactionID

type track struct {
	wid    types.WindowID
	from   types.Rect
	to     types.Rect
	bounds types.Rect
	last   types.Rect
}

// Animation is a set of windows moving together.
type Animation struct {
	fps      float64
	duration float64
	easing   Easing
	tracks   []track
}

// New creates an animation lasting duration seconds at fps ticks per second.
func New(fps, duration float64, easing Easing) *Animation {
	return &Animation{fps: fps, duration: duration, easing: easing}
}

// AddWindow adds a window moving from one frame to another. A non-zero
// bounds keeps every intermediate frame inside it.
func (a *Animation) AddWindow(wid types.WindowID, from, to, bounds types.Rect) {
	for i := range a.tracks {
		if a.tracks[i].wid == wid {
			a.tracks[i].to = to
			a.tracks[i].bounds = bounds
			return
		}
	}
	a.tracks = append(a.tracks, track{wid: wid, from: from, to: to, bounds: bounds, last: from})
}

// Len is the number of windows in the animation
func (a *Animation) Len() int { return len(a.tracks) }

// Windows lists the animated windows in insertion order
func (a *Animation) Windows() []types.WindowID {
	out := make([]types.WindowID, len(a.tracks))
	for i, t := range a.tracks {
		out[i] = t.wid
	}
	return out
}

// Ticks is ceil(fps*duration), at least one.
func (a *Animation) Ticks() int {
	if a.fps <= 0 || a.duration <= 0 {
		return 1
	}
	// tolerate float noise such as 100*0.3
	return max(1, int(math.Ceil(a.fps*a.duration-1e-9)))
}

// Interval is the wall-clock time between ticks.
func (a *Animation) Interval() time.Duration {
	return time.Duration(a.duration * float64(time.Second) / float64(a.Ticks()))
}

// Step computes the batches for tick i, counted from 1. Windows that did
// not move enough since their last write are left out. The last tick
// always writes every window at its exact target.
func (a *Animation) Step(i int) []Batch {
	n := a.Ticks()
	if i >= n {
		return a.final()
	}
	t := float64(i) / float64(n)
	s := a.easing.Ease(t)

	var writes []Write
	for k := range a.tracks {
		tr := &a.tracks[k]
		r := interpolate(tr.from, tr.to, s, t)
		if !tr.bounds.IsZero() {
			r = clamp(r, tr.bounds)
		}
		if !changed(tr.last, r) {
			continue
		}
		tr.last = r
		writes = append(writes, Write{Window: tr.wid, Frame: r})
	}
	return groupByPid(writes)
}

func (a *Animation) final() []Batch {
	writes := make([]Write, 0, len(a.tracks))
	for k := range a.tracks {
		tr := &a.tracks[k]
		r := tr.to
		if !tr.bounds.IsZero() {
			r = clamp(r, tr.bounds)
		}
		tr.last = r
		writes = append(writes, Write{Window: tr.wid, Frame: r})
	}
	return groupByPid(writes)
}

// Run plays the animation, one tick per Interval. When ctx is cancelled it
// stops without writing final frames and returns ctx.Err().
func (a *Animation) Run(ctx context.Context, sink Sink, next TxidFunc) error {
	if len(a.tracks) == 0 {
		return nil
	}
	n := a.Ticks()
	ticker := time.NewTicker(a.Interval())
	defer ticker.Stop()

	for i := 1; i <= n; i++ {
		send(sink, next, a.Step(i))
		if i == n {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// SkipToEnd writes the final frames at once.
func (a *Animation) SkipToEnd(sink Sink, next TxidFunc) {
	send(sink, next, a.final())
}

// without returns a copy restricted to windows not in skip.
func (a *Animation) without(skip map[types.WindowID]struct{}) *Animation {
	out := &Animation{fps: a.fps, duration: a.duration, easing: a.easing}
	for _, tr := range a.tracks {
		if _, ok := skip[tr.wid]; !ok {
			out.tracks = append(out.tracks, tr)
		}
	}
	return out
}

func send(sink Sink, next TxidFunc, batches []Batch) {
	for _, b := range batches {
		wids := make([]types.WindowID, len(b.Frames))
		for i, w := range b.Frames {
			wids[i] = w.Window
		}
		txid := next(b.Pid, wids)
		// a failed send means the app went away; its windows are cleaned up
		// when the termination arrives
		_ = sink.SetBatchWindowFrame(b.Pid, b.Frames, txid)
	}
}

func groupByPid(writes []Write) []Batch {
	var out []Batch
	for _, w := range writes {
		i := slices.IndexFunc(out, func(b Batch) bool { return b.Pid == w.Window.Pid })
		if i < 0 {
			out = append(out, Batch{Pid: w.Window.Pid})
			i = len(out) - 1
		}
		out[i].Frames = append(out[i].Frames, w)
	}
	slices.SortFunc(out, func(a, b Batch) int { return int(a.Pid) - int(b.Pid) })
	return out
}

// interpolate moves origin with the eased progress s. For the first 30% of
// the run the size catches up three times faster.
func interpolate(from, to types.Rect, s, t float64) types.Rect {
	sizeProgress := s
	if t < 0.3 {
		sizeProgress = math.Min(s*3, 1)
	}
	return types.Rect{
		X:      math.Round(lerp(from.X, to.X, s)),
		Y:      math.Round(lerp(from.Y, to.Y, s)),
		Width:  math.Round(lerp(from.Width, to.Width, sizeProgress)),
		Height: math.Round(lerp(from.Height, to.Height, sizeProgress)),
	}
}

func lerp(a, b, p float64) float64 { return a + (b-a)*p }

func changed(last, r types.Rect) bool {
	return math.Abs(r.X-last.X) > 0.5 || math.Abs(r.Y-last.Y) > 0.5 ||
		math.Abs(r.Width-last.Width) > sizeThreshold || math.Abs(r.Height-last.Height) > sizeThreshold
}

func clamp(r, bounds types.Rect) types.Rect {
	if r.X < bounds.X {
		r.X = bounds.X
	}
	if r.Y < bounds.Y {
		r.Y = bounds.Y
	}
	if r.MaxX() > bounds.MaxX() {
		r.X = bounds.MaxX() - r.Width
	}
	if r.MaxY() > bounds.MaxY() {
		r.Y = bounds.MaxY() - r.Height
	}
	return r
}
