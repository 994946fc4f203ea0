package animation

import (
	"context"
	"sync"

	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/types"
)

type running struct {
	anim   *Animation
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler runs animations in the background. Starting an animation
// stops any running one that shares a window with it; the windows of the
// stopped animation that the new one does not cover jump to their targets.
type Scheduler struct {
	sink     Sink
	next     TxidFunc
	lowPower func() bool

	mu       sync.Mutex
	byWindow map[types.WindowID]*running
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler writing through sink. lowPower may be
// nil; when it reports true animations are skipped.
func NewScheduler(sink Sink, next TxidFunc, lowPower func() bool) *Scheduler {
	return &Scheduler{
		sink:     sink,
		next:     next,
		lowPower: lowPower,
		byWindow: make(map[types.WindowID]*running),
	}
}

// Start plays a in the background, or writes its final frames right away
// when animate is false or the machine is in low-power mode.
func (s *Scheduler) Start(ctx context.Context, a *Animation, animate bool) {
	if a.Len() == 0 {
		return
	}
	s.Cancel(a.Windows()...)
	if !animate || (s.lowPower != nil && s.lowPower()) {
		a.SkipToEnd(s.sink, s.next)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &running{anim: a, cancel: cancel, done: make(chan struct{})}
	s.mu.Lock()
	for _, wid := range a.Windows() {
		s.byWindow[wid] = r
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(r.done)
		defer s.release(r)
		if err := a.Run(ctx, s.sink, s.next); err != nil {
			logging.Debug().Err(err).Int("windows", a.Len()).Msg("animation stopped")
		}
	}()
}

// Cancel stops the animations moving any of wids. Their other windows are
// written at their targets.
func (s *Scheduler) Cancel(wids ...types.WindowID) {
	s.mu.Lock()
	stopping := make(map[*running]struct{})
	skip := make(map[types.WindowID]struct{}, len(wids))
	for _, wid := range wids {
		skip[wid] = struct{}{}
		if r, ok := s.byWindow[wid]; ok {
			stopping[r] = struct{}{}
		}
	}
	s.mu.Unlock()

	for r := range stopping {
		r.cancel()
		<-r.done
		r.anim.without(skip).SkipToEnd(s.sink, s.next)
	}
}

// Active reports whether wid is being animated
func (s *Scheduler) Active(wid types.WindowID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byWindow[wid]
	return ok
}

// Wait blocks until every running animation has finished
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) release(r *running) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for wid, cur := range s.byWindow {
		if cur == r {
			delete(s.byWindow, wid)
		}
	}
}
