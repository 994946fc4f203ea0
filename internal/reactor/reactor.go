// Package reactor owns the window-management model. It consumes OS and
// user events from a single mailbox, keeps the layout engine informed, and
// turns layout results into frame writes and raise requests.
package reactor

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/yourusername/tiler/internal/animation"
	"github.com/yourusername/tiler/internal/config"
	"github.com/yourusername/tiler/internal/engine"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/mainwindow"
	"github.com/yourusername/tiler/internal/metrics"
	"github.com/yourusername/tiler/internal/power"
	"github.com/yourusername/tiler/internal/raise"
	"github.com/yourusername/tiler/internal/types"
	"github.com/yourusername/tiler/internal/workspace"
)

// ExitSaveFailed is the exit status when SaveAndExit cannot write the layout.
const ExitSaveFailed = 3

// autoSwitchBounce suppresses an activation switch straight back to the
// workspace just left.
const autoSwitchBounce = 300 * time.Millisecond

// rulesSettle is how long after an app-rule pass discovery skips rules for
// apps it has no info for.
const rulesSettle = time.Second

// AppState is one running application.
type AppState struct {
	Info AppInfo
	// hasHandle is false once the app's thread has gone away.
	hasHandle bool
}

// WindowState is the reactor's record of a window.
type WindowState struct {
	Title       string
	Frame       types.Rect
	IsStandard  bool
	IsRoot      bool
	IsMinimized bool
	ServerID    *types.WindowServerID
	BundleID    string
	Path        string
	Role        string
	Subrole     string
	Manageable  bool
}

func newWindowState(info WindowInfo) *WindowState {
	st := &WindowState{}
	st.update(info)
	return st
}

func (w *WindowState) update(info WindowInfo) {
	w.Title = info.Title
	if !info.Frame.IsZero() || w.Frame.IsZero() {
		w.Frame = info.Frame
	}
	w.IsStandard = info.IsStandard
	w.IsRoot = info.IsRoot
	w.IsMinimized = info.IsMinimized
	w.ServerID = info.ServerID
	w.BundleID = info.BundleID
	w.Path = info.Path
	w.Role = info.Role
	w.Subrole = info.Subrole
}

// Screen is a display and the space it shows; space 0 means unmanaged.
type Screen struct {
	Frame types.Rect    `json:"frame"`
	Space types.SpaceID `json:"space"`
}

// Raiser accepts raise manager events. *raise.Manager implements it.
type Raiser interface {
	Submit(ev raise.Event) error
}

type autoSwitch struct {
	at       time.Time
	space    types.SpaceID
	from, to types.WorkspaceID
}

// Options configures a Reactor. Only Config and Sink are required.
type Options struct {
	Config    *config.Config
	Sink      Sink
	Raiser    Raiser
	Metrics   *metrics.Metrics
	StatePath string
	// LowPower defaults to power.LowPower.
	LowPower func() bool
	// Exit defaults to os.Exit.
	Exit func(int)
	Now  func() time.Time
	// Out receives Serialize output; defaults to stdout.
	Out io.Writer
}

// Reactor is not safe for concurrent use. Run it on one goroutine and talk
// to it through its mailbox.
type Reactor struct {
	cfg       *config.Config
	engine    *engine.LayoutEngine
	tracker   *mainwindow.Tracker
	sink      Sink
	raiser    Raiser
	anim      *animation.Scheduler
	txids     *txidStore
	metrics   *metrics.Metrics
	statePath string
	exit      func(int)
	now       func() time.Time
	out       io.Writer
	ctx       context.Context

	apps       map[types.Pid]*AppState
	windows    map[types.WindowID]*WindowState
	windowIDs  map[types.WindowServerID]types.WindowID
	serverInfo map[types.WindowServerID]WindowServerInfo
	visible    map[types.WindowServerID]struct{}
	// front to back, from the last complete window server snapshot
	order   []types.WindowServerID
	screens []Screen

	mouseDown bool
	drag      *dragSession
	swap      *pendingSwap

	menuDepth      int
	missionControl bool

	workspaceSwitch  bool
	switchGeneration uint64
	activeSwitch     uint64
	hasActiveSwitch  bool
	lastAutoSwitch   *autoSwitch

	pendingSpaceChange *SpaceChanged
	staleSuppressed    bool
	rulesAppliedAt     time.Time
}

// New builds a reactor around a fresh layout engine.
func New(opts Options) *Reactor {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	r := &Reactor{
		cfg:        cfg,
		engine:     engine.New(cfg),
		tracker:    mainwindow.New(),
		sink:       opts.Sink,
		raiser:     opts.Raiser,
		txids:      newTxidStore(),
		metrics:    opts.Metrics,
		statePath:  opts.StatePath,
		exit:       opts.Exit,
		now:        opts.Now,
		out:        opts.Out,
		ctx:        context.Background(),
		apps:       make(map[types.Pid]*AppState),
		windows:    make(map[types.WindowID]*WindowState),
		windowIDs:  make(map[types.WindowServerID]types.WindowID),
		serverInfo: make(map[types.WindowServerID]WindowServerInfo),
		visible:    make(map[types.WindowServerID]struct{}),
	}
	if r.sink == nil {
		r.sink = SinkFunc(func(types.Pid, Request) error { return ErrNoHandle })
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	if r.exit == nil {
		r.exit = os.Exit
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.out == nil {
		r.out = os.Stdout
	}
	lowPower := opts.LowPower
	if lowPower == nil {
		lowPower = power.LowPower
	}
	r.anim = animation.NewScheduler(frameSink{sink: r.sink, obs: r.metrics.ObserveFrameWrites}, r.txids.assign, lowPower)
	return r
}

// Engine exposes the layout engine, for restoring saved state before Run.
func (r *Reactor) Engine() *engine.LayoutEngine { return r.engine }

// Run handles events until ctx is done or events is closed.
func (r *Reactor) Run(ctx context.Context, events <-chan Event) error {
	r.ctx = ctx
	defer r.anim.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.HandleEvent(ev)
		}
	}
}

// effects reports what an event did that matters for the layout pass.
type effects struct {
	resize    bool
	destroyed bool
}

// HandleEvent applies one event. A panicking handler is logged and the
// event dropped.
func (r *Reactor) HandleEvent(ev Event) {
	if ev == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			logging.Error().Str("event", ev.eventName()).Str("panic", fmt.Sprint(p)).Msg("event handler panicked")
			r.metrics.ObservePanic()
		}
	}()
	r.metrics.ObserveEvent(ev.eventName())

	if q, ok := ev.(Query); ok {
		r.handleQuery(q)
		return
	}
	logging.Debug().Str("event", ev.eventName()).Msg("handling event")

	raised, hasRaised := r.trackMainWindow(ev)
	eff := r.dispatch(ev)

	if hasRaised {
		if st, ok := r.windows[raised]; ok {
			if space := r.bestSpace(st.Frame); space != 0 {
				r.sendLayout(engine.WindowFocused{Spaces: []types.SpaceID{space}, Window: raised})
			}
		}
	}

	changed := false
	if !r.inDrag() || eff.destroyed {
		changed = r.updateLayout(eff.resize, r.workspaceSwitch)
	}
	r.workspaceSwitch = false
	if r.hasActiveSwitch && !changed {
		r.hasActiveSwitch = false
		logging.Debug().Uint64("generation", r.activeSwitch).Msg("workspace switch settled")
	}
	r.observeModel()
}

func (r *Reactor) dispatch(ev Event) effects {
	var eff effects
	switch ev := ev.(type) {
	case ScreenParametersChanged:
		r.screenParametersChanged(ev)
	case SpaceChanged:
		r.spaceChanged(ev)

	case ApplicationLaunched:
		r.applicationLaunched(ev)
	case ApplyAppRulesToExistingWindows:
		r.applyAppRules(ev)
	case ApplicationTerminated:
		r.applicationTerminated(ev.Pid)
	case ApplicationThreadTerminated:
		if app, ok := r.apps[ev.Pid]; ok {
			app.hasHandle = false
		}
	case ApplicationGloballyActivated:
		r.activationWorkspaceSwitch(ev.Pid)
	case ApplicationActivated, ApplicationDeactivated, ApplicationGloballyDeactivated, ApplicationMainWindowChanged:

	case WindowsDiscovered:
		eff.destroyed = r.windowsDiscovered(ev.Pid, ev.New, ev.KnownVisible)
	case WindowCreated:
		r.windowCreated(ev)
	case WindowDestroyed:
		r.windowDestroyed(ev.Window)
		eff.destroyed = true
	case WindowMinimized:
		r.windowMinimized(ev.Window)
	case WindowDeminiaturized:
		r.windowDeminiaturized(ev.Window)
	case WindowFrameChanged:
		eff.resize = r.windowFrameChanged(ev)
	case WindowTitleChanged:
		if st, ok := r.windows[ev.Window]; ok {
			st.Title = ev.Title
		}
	case WindowServerAppeared:
		r.windowServerAppeared(ev.Info)
	case WindowServerDestroyed:
		eff.destroyed = r.windowServerDestroyed(ev.ID)

	case MouseUp:
		r.mouseUp()
	case MouseMovedOverWindow:
		r.mouseMovedOverWindow(ev.ID)
	case MenuOpened:
		r.menuDepth++
		logging.Debug().Int("depth", r.menuDepth).Msg("menu opened")
	case MenuClosed:
		if r.menuDepth == 0 {
			logging.Debug().Msg("menu closed with zero depth")
		} else {
			r.menuDepth--
		}
	case MissionControlEntered:
		r.setMissionControl(true)
	case MissionControlExited:
		r.setMissionControl(false)
	case SystemWoke:
		r.refreshAllWindows(false)

	case RaiseCompleted:
		r.submitRaise(raise.RaiseCompleted{Window: ev.Window, Sequence: ev.Sequence})
	case RaiseTimeout:
		r.submitRaise(raise.RaiseTimeout{Sequence: ev.Sequence})

	case LayoutCommand:
		r.layoutCommand(ev.Command)
	case ReactorCommand:
		r.reactorCommand(ev.Command)
	case ConfigUpdated:
		r.configUpdated(ev.Config)

	default:
		logging.Warn().Str("event", ev.eventName()).Msg("unhandled event")
	}
	return eff
}

// trackMainWindow feeds the app events the tracker cares about and
// returns the window the user raised, if any.
func (r *Reactor) trackMainWindow(ev Event) (types.WindowID, bool) {
	var mev mainwindow.Event
	switch ev := ev.(type) {
	case ApplicationLaunched:
		mev = mainwindow.AppLaunched{Pid: ev.Pid, Frontmost: ev.Frontmost, MainWindow: ev.MainWindow}
	case ApplicationGloballyActivated:
		mev = mainwindow.AppGloballyActivated{Pid: ev.Pid}
	case ApplicationGloballyDeactivated:
		mev = mainwindow.AppGloballyDeactivated{Pid: ev.Pid}
	case ApplicationTerminated:
		mev = mainwindow.AppTerminated{Pid: ev.Pid}
	case ApplicationMainWindowChanged:
		mev = mainwindow.MainWindowChanged{Pid: ev.Pid, Window: ev.Window, Quiet: ev.Quiet}
	case WindowDestroyed:
		mev = mainwindow.WindowDestroyed{Window: ev.Window}
	default:
		return types.WindowID{}, false
	}
	return r.tracker.HandleEvent(mev)
}

func (r *Reactor) sendLayout(ev engine.LayoutEvent) {
	resp := r.engine.HandleEvent(ev)
	r.handleLayoutResponse(resp)
}

// send delivers req to the app owning pid, if it still has a handle.
func (r *Reactor) send(pid types.Pid, req Request) error {
	app, ok := r.apps[pid]
	if !ok || !app.hasHandle {
		return fmt.Errorf("%w %d", ErrNoHandle, pid)
	}
	return r.sink.Send(pid, req)
}

func (r *Reactor) submitRaise(ev raise.Event) {
	if r.raiser == nil {
		return
	}
	if err := r.raiser.Submit(ev); err != nil {
		logging.Debug().Err(err).Msg("raise manager unavailable")
	}
}

// refreshAllWindows asks every app for its visible windows.
func (r *Reactor) refreshAllWindows(force bool) {
	for pid, app := range r.apps {
		if !app.hasHandle {
			continue
		}
		if err := r.sink.Send(pid, Request{Kind: ReqGetVisibleWindows, Force: force}); err != nil {
			logging.Debug().Err(err).Int32("pid", int32(pid)).Msg("window refresh not delivered")
		}
	}
}

// manageable reports whether the layout should manage a window.
func (r *Reactor) manageable(st *WindowState) bool {
	if st.IsMinimized || st.ServerID == nil {
		return false
	}
	if info, ok := r.serverInfo[*st.ServerID]; ok {
		if info.Layer != 0 || info.Sticky {
			return false
		}
	}
	if st.Frame.Width < minWindowDimension || st.Frame.Height < minWindowDimension {
		return false
	}
	return st.IsStandard && st.IsRoot
}

const minWindowDimension = 2

// bestSpace is the space of the screen containing frame's center, else
// the space of the screen overlapping it most. Zero when there is none.
func (r *Reactor) bestSpace(frame types.Rect) types.SpaceID {
	center := frame.Center()
	for _, s := range r.screens {
		if s.Space != 0 && s.Frame.Contains(center) {
			return s.Space
		}
	}
	var best types.SpaceID
	bestArea := 0.0
	for _, s := range r.screens {
		if a := s.Frame.Overlap(frame); a > bestArea {
			best, bestArea = s.Space, a
		}
	}
	return best
}

func (r *Reactor) screenIndex(space types.SpaceID) int {
	for i, s := range r.screens {
		if s.Space == space && space != 0 {
			return i
		}
	}
	return -1
}

func (r *Reactor) visibleSpaces() []types.SpaceID {
	var out []types.SpaceID
	for _, s := range r.screens {
		if s.Space != 0 {
			out = append(out, s.Space)
		}
	}
	return out
}

func (r *Reactor) mainWindowSpace() types.SpaceID {
	wid, ok := r.tracker.MainWindow()
	if !ok {
		return 0
	}
	st, ok := r.windows[wid]
	if !ok {
		return 0
	}
	return r.bestSpace(st.Frame)
}

// workspaceCommandSpace is where commands without an explicit space act:
// the main window's space, else the first managed screen.
func (r *Reactor) workspaceCommandSpace() types.SpaceID {
	if space := r.mainWindowSpace(); space != 0 {
		return space
	}
	if spaces := r.visibleSpaces(); len(spaces) > 0 {
		return spaces[0]
	}
	return 0
}

func (r *Reactor) windowInfoFor(wid types.WindowID) workspace.WindowInfo {
	info := workspace.WindowInfo{}
	if st, ok := r.windows[wid]; ok {
		info.Title, info.Role, info.Subrole, info.BundleID = st.Title, st.Role, st.Subrole, st.BundleID
	}
	if app, ok := r.apps[wid.Pid]; ok {
		if app.Info.BundleID != "" {
			info.BundleID = app.Info.BundleID
		}
		info.AppName = app.Info.Name
	}
	return info
}

func (r *Reactor) observeModel() {
	r.metrics.SetModel(len(r.windows), r.engine.VirtualWorkspaces().Stats().TotalWorkspaces, len(r.apps), len(r.screens))
}
