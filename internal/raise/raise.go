// Package raise orders windows to the front and focuses them, one sequence
// per layout response, with newer requests for the same focus target
// replacing older ones.
package raise

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/types"
)

// DefaultTimeout releases a sequence whose apps never answered
const DefaultTimeout = 400 * time.Millisecond

// ErrClosed is returned by Submit after Run has returned
var ErrClosed = errors.New("raise manager closed")

// Target is a window together with the screen it is on.
type Target struct {
	Window types.WindowID
	Screen int
}

// Request is sent to the app owning Windows. The app raises them in order
// and reports RaiseCompleted for the last one. With Focus set the last
// window also becomes key.
type Request struct {
	Windows  []types.WindowID `json:"windows"`
	Sequence uint64           `json:"sequence"`
	Focus    bool             `json:"focus,omitempty"`
	Quiet    bool             `json:"quiet,omitempty"`
}

// Sender delivers requests to per-app actors.
type Sender interface {
	Raise(pid types.Pid, req Request) error
}

// SenderFunc adapts a function to Sender
type SenderFunc func(pid types.Pid, req Request) error

func (f SenderFunc) Raise(pid types.Pid, req Request) error { return f(pid, req) }

// Event is consumed by the manager loop.
type Event interface{ raiseEvent() }

// RaiseRequest asks for windows to be raised and optionally one to be
// focused. WarpTo, when set, is where the mouse goes once the focus
// request is sent.
type RaiseRequest struct {
	Raise  []Target
	Focus  *Target
	Quiet  bool
	WarpTo *types.Point
}

type RaiseCompleted struct {
	Window   types.WindowID
	Sequence uint64
}

type RaiseTimeout struct {
	Sequence uint64
}

func (RaiseRequest) raiseEvent()   {}
func (RaiseCompleted) raiseEvent() {}
func (RaiseTimeout) raiseEvent()   {}

// sequence is one RaiseRequest in flight.
type sequence struct {
	id          uint64
	focus       *types.WindowID
	outstanding map[types.WindowID]int
	focusReq    *Request
	focusPid    types.Pid
	warpTo      *types.Point
	focusSent   bool
	timer       *time.Timer
	started     time.Time
}

// Pending describes a sequence that has not finished.
type Pending struct {
	Sequence    uint64          `json:"sequence"`
	Focus       *types.WindowID `json:"focus,omitempty"`
	Outstanding int             `json:"outstanding"`
	FocusSent   bool            `json:"focusSent"`
	Age         time.Duration   `json:"age"`
}

// Option configures a Manager
type Option func(*Manager)

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithWarp sets the function that moves the mouse pointer
func WithWarp(warp func(types.Point)) Option {
	return func(m *Manager) { m.warp = warp }
}

// Manager runs raise sequences. Events are handled on the goroutine
// running Run; Pending may be called from anywhere.
type Manager struct {
	sender  Sender
	warp    func(types.Point)
	timeout time.Duration
	events  chan Event
	done    chan struct{}

	mu      sync.Mutex
	nextSeq uint64
	pending map[uint64]*sequence
}

// New creates a manager that sends requests through sender
func New(sender Sender, opts ...Option) *Manager {
	m := &Manager{
		sender:  sender,
		timeout: DefaultTimeout,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
		pending: make(map[uint64]*sequence),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit queues an event for the manager loop
func (m *Manager) Submit(ev Event) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	select {
	case m.events <- ev:
		return nil
	case <-m.done:
		return ErrClosed
	}
}

// Run handles events until ctx is done
func (m *Manager) Run(ctx context.Context) error {
	defer close(m.done)
	defer m.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-m.events:
			m.handle(ev)
		}
	}
}

func (m *Manager) stopTimers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.pending {
		if s.timer != nil {
			s.timer.Stop()
		}
	}
}

func (m *Manager) handle(ev Event) {
	switch ev := ev.(type) {
	case RaiseRequest:
		m.start(ev)
	case RaiseCompleted:
		m.completed(ev)
	case RaiseTimeout:
		m.timedOut(ev.Sequence)
	default:
		logging.Warn().Msgf("unhandled raise event %T", ev)
	}
}

// start begins a sequence. Pending sequences with the same focus target
// are cancelled first; their late completions are ignored.
func (m *Manager) start(req RaiseRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if req.Focus != nil {
		for id, s := range m.pending {
			if s.focus != nil && *s.focus == req.Focus.Window {
				m.finishLocked(id)
				logging.Debug().Uint64("seq", id).Stringer("wid", req.Focus.Window).Msg("raise sequence superseded")
			}
		}
	}

	m.nextSeq++
	s := &sequence{
		id:          m.nextSeq,
		outstanding: make(map[types.WindowID]int),
		warpTo:      req.WarpTo,
		started:     time.Now(),
	}

	for _, g := range groupTargets(req.Raise, req.Focus) {
		r := Request{Windows: g.windows, Sequence: s.id, Quiet: req.Quiet}
		if err := m.sender.Raise(g.pid, r); err != nil {
			logging.Debug().Err(err).Int32("pid", int32(g.pid)).Uint64("seq", s.id).Msg("raise request failed")
			continue
		}
		s.outstanding[g.windows[len(g.windows)-1]]++
	}
	if req.Focus != nil {
		wid := req.Focus.Window
		s.focus = &wid
		s.focusPid = wid.Pid
		s.focusReq = &Request{Windows: []types.WindowID{wid}, Sequence: s.id, Focus: true, Quiet: req.Quiet}
	}

	if len(s.outstanding) == 0 {
		m.sendFocusLocked(s)
	}
	if len(s.outstanding) == 0 && (s.focusReq == nil || !s.focusSent) {
		return
	}
	m.pending[s.id] = s
	id := s.id
	s.timer = time.AfterFunc(m.timeout, func() {
		// dropped when the loop is gone; Run stops the timers anyway
		select {
		case m.events <- RaiseTimeout{Sequence: id}:
		case <-m.done:
		}
	})
}

type group struct {
	pid     types.Pid
	screen  int
	windows []types.WindowID
}

// groupTargets splits raise targets by (pid, screen) keeping first-seen
// order. The focus window is left out; it is raised last on its own.
func groupTargets(targets []Target, focus *Target) []group {
	var out []group
	index := make(map[[2]int64]int)
	for _, t := range targets {
		if focus != nil && t.Window == focus.Window {
			continue
		}
		key := [2]int64{int64(t.Window.Pid), int64(t.Screen)}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, group{pid: t.Window.Pid, screen: t.Screen})
		}
		if !slices.Contains(out[i].windows, t.Window) {
			out[i].windows = append(out[i].windows, t.Window)
		}
	}
	return out
}

func (m *Manager) completed(ev RaiseCompleted) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.pending[ev.Sequence]
	if s == nil {
		logging.Debug().Uint64("seq", ev.Sequence).Stringer("wid", ev.Window).Msg("completion for unknown raise sequence")
		return
	}
	if s.focusSent && s.focus != nil && *s.focus == ev.Window {
		m.finishLocked(s.id)
		return
	}
	if n := s.outstanding[ev.Window]; n > 1 {
		s.outstanding[ev.Window] = n - 1
	} else {
		delete(s.outstanding, ev.Window)
	}
	if len(s.outstanding) > 0 {
		return
	}
	if s.focusReq == nil {
		m.finishLocked(s.id)
		return
	}
	m.sendFocusLocked(s)
	if !s.focusSent {
		m.finishLocked(s.id)
	}
}

// timedOut gives up on a sequence, sending its focus request first if the
// raises never all completed.
func (m *Manager) timedOut(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.pending[id]
	if s == nil {
		return
	}
	logging.Debug().Uint64("seq", id).Int("outstanding", len(s.outstanding)).Msg("raise sequence timed out")
	if s.focusReq != nil && !s.focusSent {
		m.sendFocusLocked(s)
	}
	m.finishLocked(id)
}

func (m *Manager) sendFocusLocked(s *sequence) {
	if s.focusReq == nil || s.focusSent {
		return
	}
	if err := m.sender.Raise(s.focusPid, *s.focusReq); err != nil {
		logging.Debug().Err(err).Int32("pid", int32(s.focusPid)).Uint64("seq", s.id).Msg("focus request failed")
		return
	}
	s.focusSent = true
	if s.warpTo != nil && m.warp != nil {
		m.warp(*s.warpTo)
	}
}

func (m *Manager) finishLocked(id uint64) {
	if s := m.pending[id]; s != nil && s.timer != nil {
		s.timer.Stop()
	}
	delete(m.pending, id)
}

// Pending returns the unfinished sequences, oldest first
func (m *Manager) Pending() []Pending {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Pending, 0, len(m.pending))
	for _, id := range slices.Sorted(maps.Keys(m.pending)) {
		s := m.pending[id]
		out = append(out, Pending{
			Sequence:    id,
			Focus:       s.focus,
			Outstanding: len(s.outstanding),
			FocusSent:   s.focusSent,
			Age:         time.Since(s.started),
		})
	}
	return out
}
