package reactor

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tiler/internal/animation"
	"github.com/yourusername/tiler/internal/config"
	"github.com/yourusername/tiler/internal/engine"
	"github.com/yourusername/tiler/internal/metrics"
	"github.com/yourusername/tiler/internal/raise"
	"github.com/yourusername/tiler/internal/types"
)

const testSpace types.SpaceID = 1

var testScreen = types.NewRect(0, 0, 1000, 1000)

type sent struct {
	Pid types.Pid
	Req Request
}

type recorder struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recorder) Send(pid types.Pid, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{pid, req})
	return nil
}

// take returns everything sent so far and clears the log.
func (r *recorder) take() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sent
	r.sent = nil
	return out
}

func frameWrites(all []sent) []sent {
	var out []sent
	for _, s := range all {
		if s.Req.Kind == ReqSetWindowFrame || s.Req.Kind == ReqSetBatchWindowFrame {
			out = append(out, s)
		}
	}
	return out
}

type raiseLog struct {
	mu     sync.Mutex
	events []raise.Event
}

func (l *raiseLog) Submit(ev raise.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *raiseLog) requests() []raise.RaiseRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []raise.RaiseRequest
	for _, ev := range l.events {
		if req, ok := ev.(raise.RaiseRequest); ok {
			out = append(out, req)
		}
	}
	return out
}

type harness struct {
	t      *testing.T
	r      *Reactor
	sink   *recorder
	raises *raiseLog
	out    bytes.Buffer
	now    time.Time
	exit   int
	exited bool
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Settings.Animate = false
	for _, m := range mutate {
		m(cfg)
	}
	h := &harness{t: t, sink: &recorder{}, raises: &raiseLog{}, now: time.Unix(1700000000, 0)}
	h.r = New(Options{
		Config:    cfg,
		Sink:      h.sink,
		Raiser:    h.raises,
		Metrics:   metrics.New(),
		StatePath: filepath.Join(t.TempDir(), "layout.json"),
		LowPower:  func() bool { return false },
		Exit:      func(code int) { h.exit, h.exited = code, true },
		Now:       func() time.Time { return h.now },
		Out:       &h.out,
	})
	return h
}

func wid(pid types.Pid, idx uint32) types.WindowID { return types.NewWindowID(pid, idx) }

func serverID(n uint32) *types.WindowServerID {
	id := types.WindowServerID(n)
	return &id
}

func server(id uint32, pid types.Pid, frame types.Rect) WindowServerInfo {
	return WindowServerInfo{ID: types.WindowServerID(id), Pid: pid, Frame: frame}
}

func reported(w types.WindowID, id uint32, frame types.Rect) ReportedWindow {
	return ReportedWindow{Window: w, Info: WindowInfo{
		Title:      "window",
		Frame:      frame,
		IsStandard: true,
		IsRoot:     true,
		ServerID:   serverID(id),
	}}
}

var (
	w1Start = types.NewRect(100, 100, 400, 300)
	w2Start = types.NewRect(200, 200, 400, 300)
)

func (h *harness) exposeScreen(windows ...WindowServerInfo) {
	h.r.HandleEvent(ScreenParametersChanged{
		Frames:  []types.Rect{testScreen},
		Spaces:  []types.SpaceID{testSpace},
		Windows: windows,
	})
}

// launchOneApp sets up scenario "two windows of one app on one screen"
// and clears the request log.
func (h *harness) launchOneApp() (types.WindowID, types.WindowID) {
	w1, w2 := wid(1, 1), wid(1, 2)
	h.exposeScreen(server(101, 1, w1Start), server(102, 1, w2Start))
	h.r.HandleEvent(ApplicationLaunched{
		Pid:     1,
		Info:    AppInfo{BundleID: "com.example.one", Name: "One"},
		Windows: []ReportedWindow{reported(w1, 101, w1Start), reported(w2, 102, w2Start)},
	})
	return w1, w2
}

func batchFrames(t *testing.T, s sent) map[types.WindowID]types.Rect {
	t.Helper()
	require.Equal(t, ReqSetBatchWindowFrame, s.Req.Kind)
	out := make(map[types.WindowID]types.Rect)
	for _, w := range s.Req.Frames {
		out[w.Window] = w.Frame
	}
	return out
}

func TestLaunchTilesWindowsSideBySide(t *testing.T) {
	h := newHarness(t)
	w1, w2 := h.launchOneApp()

	writes := frameWrites(h.sink.take())
	require.Len(t, writes, 1)
	assert.Equal(t, types.Pid(1), writes[0].Pid)
	assert.Equal(t, types.TransactionID(1), writes[0].Req.Txid)
	assert.Equal(t, map[types.WindowID]types.Rect{
		w1: types.NewRect(0, 0, 500, 1000),
		w2: types.NewRect(500, 0, 500, 1000),
	}, batchFrames(t, writes[0]))

	assert.Equal(t, types.NewRect(0, 0, 500, 1000), h.r.windows[w1].Frame)
	assert.Equal(t, types.TransactionID(1), h.r.txids.lastSent(w1))
	assert.Equal(t, types.TransactionID(1), h.r.txids.lastSent(w2))
}

func TestStaleFrameChangeIsDropped(t *testing.T) {
	h := newHarness(t)
	w1, _ := h.launchOneApp()
	h.sink.take()

	h.r.HandleEvent(WindowFrameChanged{Window: w1, Frame: types.NewRect(0, 0, 250, 1000), LastSeen: 0})

	assert.Empty(t, frameWrites(h.sink.take()))
	assert.Equal(t, types.NewRect(0, 0, 500, 1000), h.r.windows[w1].Frame)
}

func TestRequestedFrameChangeIsDropped(t *testing.T) {
	h := newHarness(t)
	w1, _ := h.launchOneApp()
	h.sink.take()

	h.r.HandleEvent(WindowFrameChanged{Window: w1, Frame: types.NewRect(0, 0, 250, 1000), LastSeen: 1, Requested: true})

	assert.Empty(t, frameWrites(h.sink.take()))
	assert.Equal(t, types.NewRect(0, 0, 500, 1000), h.r.windows[w1].Frame)
}

func TestUserResizeReflowsNeighbours(t *testing.T) {
	h := newHarness(t)
	w1, w2 := h.launchOneApp()
	h.sink.take()

	h.r.HandleEvent(WindowFrameChanged{Window: w1, Frame: types.NewRect(0, 0, 600, 1000), LastSeen: 1})

	writes := frameWrites(h.sink.take())
	require.Len(t, writes, 1)
	assert.Equal(t, map[types.WindowID]types.Rect{
		w2: types.NewRect(600, 0, 400, 1000),
	}, batchFrames(t, writes[0]))
	assert.Equal(t, types.TransactionID(2), h.r.txids.lastSent(w2))
	assert.Equal(t, types.TransactionID(1), h.r.txids.lastSent(w1))
}

func TestDragSuppressesWritesUntilDestroy(t *testing.T) {
	h := newHarness(t)
	w1, w2 := h.launchOneApp()
	h.sink.take()

	h.r.HandleEvent(WindowFrameChanged{Window: w1, Frame: types.NewRect(50, 0, 500, 1000), LastSeen: 1, MouseDown: true})
	assert.True(t, h.r.inDrag())
	assert.Empty(t, frameWrites(h.sink.take()))

	h.r.HandleEvent(WindowDestroyed{Window: w1})

	writes := frameWrites(h.sink.take())
	require.Len(t, writes, 1)
	assert.Equal(t, map[types.WindowID]types.Rect{w2: testScreen}, batchFrames(t, writes[0]))
	assert.NotContains(t, h.r.windows, w1)
	assert.NotContains(t, h.r.engine.AllTiledWindows(), w1)
	assert.NotContains(t, h.r.windowIDs, types.WindowServerID(101))
}

func TestDragStopsRunningAnimation(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Settings.Animate = true
		c.Settings.AnimationFPS = 2
		c.Settings.AnimationDuration = 5
	})
	w1, w2 := h.launchOneApp()
	h.r.anim.Cancel(w1, w2)
	h.sink.take()

	h.r.HandleEvent(LayoutCommand{Command: engine.ToggleOrientation{}})
	require.True(t, h.r.anim.Active(w1))
	time.Sleep(60 * time.Millisecond)
	h.sink.take()

	target := h.r.windows[w1].Frame
	last := h.r.txids.lastSent(w1)
	moved := types.NewRect(target.X+30, target.Y, target.Width, target.Height)
	h.r.HandleEvent(WindowFrameChanged{Window: w1, Frame: moved, LastSeen: last, MouseDown: true})
	require.True(t, h.r.inDrag())
	assert.False(t, h.r.anim.Active(w1))

	time.Sleep(700 * time.Millisecond)
	for _, s := range frameWrites(h.sink.take()) {
		for _, w := range s.Req.Frames {
			assert.NotEqual(t, w1, w.Window, "frame write to the dragged window")
		}
		if s.Req.Window != nil {
			assert.NotEqual(t, w1, *s.Req.Window, "frame write to the dragged window")
		}
	}
	assert.Equal(t, last, h.r.txids.lastSent(w1))
	assert.Equal(t, moved, h.r.windows[w1].Frame)
}

func TestDragOntoWindowSwapsOnRelease(t *testing.T) {
	h := newHarness(t)
	w1, w2 := h.launchOneApp()
	h.sink.take()

	// center of w1 lands inside w2
	h.r.HandleEvent(WindowFrameChanged{Window: w1, Frame: types.NewRect(450, 0, 500, 1000), LastSeen: 1, MouseDown: true})
	require.NotNil(t, h.r.swap)
	assert.Equal(t, w2, h.r.swap.target)
	assert.Empty(t, frameWrites(h.sink.take()))

	h.r.HandleEvent(MouseUp{})

	assert.False(t, h.r.inDrag())
	assert.Equal(t, []types.WindowID{w2, w1}, h.r.engine.TiledWindows(testSpace))
	writes := frameWrites(h.sink.take())
	require.Len(t, writes, 1)
	assert.Equal(t, map[types.WindowID]types.Rect{
		w1: types.NewRect(500, 0, 500, 1000),
		w2: types.NewRect(0, 0, 500, 1000),
	}, batchFrames(t, writes[0]))
}

func TestDragWithoutTargetSnapsBack(t *testing.T) {
	h := newHarness(t)
	w1, _ := h.launchOneApp()
	h.sink.take()

	h.r.HandleEvent(WindowFrameChanged{Window: w1, Frame: types.NewRect(20, 30, 500, 1000), LastSeen: 1, MouseDown: true})
	h.r.HandleEvent(MouseUp{})

	writes := frameWrites(h.sink.take())
	require.Len(t, writes, 1)
	assert.Equal(t, map[types.WindowID]types.Rect{w1: types.NewRect(0, 0, 500, 1000)}, batchFrames(t, writes[0]))
}

func TestWorkspaceMoveAndSwitch(t *testing.T) {
	h := newHarness(t)
	w1, w2 := h.launchOneApp()
	h.sink.take()
	vw := h.r.engine.VirtualWorkspaces()

	h.r.HandleEvent(LayoutCommand{Command: engine.CreateWorkspace{Label: "B"}})
	b, ok := vw.WorkspaceByName(testSpace, "B")
	require.True(t, ok)
	idx, ok := vw.IndexOf(testSpace, b)
	require.True(t, ok)
	assert.Equal(t, 4, idx)

	h.r.HandleEvent(ReactorCommand{Command: FocusWindow{Window: w2}})
	focused, ok := h.r.engine.FocusedWindow()
	require.True(t, ok)
	assert.Equal(t, w2, focused)
	h.sink.take()

	h.r.HandleEvent(LayoutCommand{Command: engine.MoveWindowToWorkspace{Index: idx}})

	writes := frameWrites(h.sink.take())
	require.Len(t, writes, 2)
	hide := writes[0].Req
	assert.Equal(t, ReqSetWindowFrame, hide.Kind)
	assert.True(t, hide.SkipAnim)
	require.NotNil(t, hide.Window)
	assert.Equal(t, w2, *hide.Window)
	assert.Equal(t, types.NewRect(999, 999, 500, 1000), *hide.Frame)
	assert.Equal(t, map[types.WindowID]types.Rect{w1: testScreen}, batchFrames(t, writes[1]))

	h.r.HandleEvent(LayoutCommand{Command: engine.SwitchToWorkspace{Index: idx}})

	active, _ := h.r.engine.ActiveWorkspace(testSpace)
	assert.Equal(t, b, active)
	writes = frameWrites(h.sink.take())
	require.Len(t, writes, 1, "a switch sends one batch per app")
	assert.Equal(t, map[types.WindowID]types.Rect{
		w2: testScreen,
		w1: types.NewRect(999, 999, 1000, 1000),
	}, batchFrames(t, writes[0]))
	assert.True(t, h.r.hasActiveSwitch)

	reqs := h.raises.requests()
	require.NotEmpty(t, reqs)
	last := reqs[len(reqs)-1]
	require.NotNil(t, last.Focus)
	assert.Equal(t, w2, last.Focus.Window)

	// the next pass with nothing to move ends the switch
	h.r.HandleEvent(MenuOpened{})
	assert.False(t, h.r.hasActiveSwitch)
}

func TestEmptyScreenListKeepsLayout(t *testing.T) {
	h := newHarness(t)
	w1, w2 := h.launchOneApp()
	h.sink.take()
	snapshot := []WindowServerInfo{
		server(101, 1, types.NewRect(0, 0, 500, 1000)),
		server(102, 1, types.NewRect(500, 0, 500, 1000)),
	}

	h.r.HandleEvent(ScreenParametersChanged{})
	assert.Empty(t, h.r.screens)
	h.exposeScreen(snapshot...)
	h.r.HandleEvent(WindowsDiscovered{Pid: 1})

	assert.Empty(t, frameWrites(h.sink.take()))
	assert.Contains(t, h.r.windows, w1)
	assert.Contains(t, h.r.windows, w2)
	assert.Equal(t, []types.WindowID{w1, w2}, h.r.engine.TiledWindows(testSpace))
}

func TestUnchangedScreenParametersWriteNothing(t *testing.T) {
	h := newHarness(t)
	h.launchOneApp()
	h.sink.take()

	h.exposeScreen(server(101, 1, types.NewRect(0, 0, 500, 1000)), server(102, 1, types.NewRect(500, 0, 500, 1000)))

	all := h.sink.take()
	assert.Empty(t, frameWrites(all))
	require.Len(t, all, 1)
	assert.Equal(t, ReqGetVisibleWindows, all[0].Req.Kind)
}

func TestStaleWindowRemovedOnDiscovery(t *testing.T) {
	h := newHarness(t)
	w1, w2 := h.launchOneApp()
	// w2 is gone from the window server
	h.exposeScreen(server(101, 1, types.NewRect(0, 0, 500, 1000)))
	h.sink.take()

	h.r.HandleEvent(WindowsDiscovered{Pid: 1, KnownVisible: []types.WindowID{w1}})

	assert.NotContains(t, h.r.windows, w2)
	writes := frameWrites(h.sink.take())
	require.Len(t, writes, 1)
	assert.Equal(t, map[types.WindowID]types.Rect{w1: testScreen}, batchFrames(t, writes[0]))
}

func TestRaiseRequestsCoalesce(t *testing.T) {
	sink := &recorder{}
	mgr := raise.New(RaiseSender(sink), raise.WithTimeout(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Run(ctx)

	cfg := config.DefaultConfig()
	cfg.Settings.Animate = false
	r := New(Options{Config: cfg, Sink: sink, Raiser: mgr, LowPower: func() bool { return false }})
	w1 := wid(1, 1)
	r.HandleEvent(ScreenParametersChanged{
		Frames:  []types.Rect{testScreen},
		Spaces:  []types.SpaceID{testSpace},
		Windows: []WindowServerInfo{server(101, 1, w1Start)},
	})
	r.HandleEvent(ApplicationLaunched{Pid: 1, Windows: []ReportedWindow{reported(w1, 101, w1Start)}})

	r.handleLayoutResponse(engine.EventResponse{FocusWindow: &w1})
	r.handleLayoutResponse(engine.EventResponse{FocusWindow: &w1})

	require.Eventually(t, func() bool {
		p := mgr.Pending()
		return len(p) == 1 && p[0].Sequence == 2
	}, time.Second, 5*time.Millisecond)
	p := mgr.Pending()
	require.NotNil(t, p[0].Focus)
	assert.Equal(t, w1, *p[0].Focus)
}

func TestMouseMoveFocusesWindow(t *testing.T) {
	h := newHarness(t)
	_, w2 := h.launchOneApp()

	h.r.HandleEvent(MouseMovedOverWindow{ID: 102})

	reqs := h.raises.requests()
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].Focus)
	assert.Equal(t, w2, reqs[0].Focus.Window)
	assert.False(t, reqs[0].Quiet)
}

func TestMouseMoveIgnored(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
	}{
		{"menu open", func(h *harness) { h.r.HandleEvent(MenuOpened{}) }},
		{"mission control", func(h *harness) { h.r.HandleEvent(MissionControlEntered{}) }},
		{"disabled", func(h *harness) { h.r.cfg.Settings.FocusFollowsMouse = false }},
		{"unknown window", func(h *harness) { h.r.windowIDs = map[types.WindowServerID]types.WindowID{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.launchOneApp()
			tt.setup(h)
			h.r.HandleEvent(MouseMovedOverWindow{ID: 102})
			assert.Empty(t, h.raises.requests())
		})
	}
}

func TestMenuDepthIsBalanced(t *testing.T) {
	h := newHarness(t)
	h.r.HandleEvent(MenuOpened{})
	h.r.HandleEvent(MenuOpened{})
	h.r.HandleEvent(MenuClosed{})
	assert.Equal(t, 1, h.r.menuDepth)
	h.r.HandleEvent(MenuClosed{})
	h.r.HandleEvent(MenuClosed{})
	assert.Equal(t, 0, h.r.menuDepth)
}

func TestMinimizeRemovesFromLayout(t *testing.T) {
	h := newHarness(t)
	w1, w2 := h.launchOneApp()
	h.sink.take()

	h.r.HandleEvent(WindowMinimized{Window: w1})
	assert.Equal(t, []types.WindowID{w2}, h.r.engine.TiledWindows(testSpace))
	writes := frameWrites(h.sink.take())
	require.Len(t, writes, 1)
	assert.Equal(t, map[types.WindowID]types.Rect{w2: testScreen}, batchFrames(t, writes[0]))

	h.r.HandleEvent(WindowDeminiaturized{Window: w1})
	assert.ElementsMatch(t, []types.WindowID{w1, w2}, h.r.engine.TiledWindows(testSpace))
}

func TestThreadTerminationKeepsWindows(t *testing.T) {
	h := newHarness(t)
	w1, w2 := h.launchOneApp()

	h.r.HandleEvent(ApplicationThreadTerminated{Pid: 1})

	assert.Contains(t, h.r.windows, w1)
	assert.Contains(t, h.r.windows, w2)
	assert.False(t, h.r.apps[1].hasHandle)
}

func TestApplicationTerminatedSendsTerminate(t *testing.T) {
	h := newHarness(t)
	w1, _ := h.launchOneApp()
	h.sink.take()

	h.r.HandleEvent(ApplicationTerminated{Pid: 1})

	all := h.sink.take()
	require.Len(t, all, 1)
	assert.Equal(t, ReqTerminate, all[0].Req.Kind)
	assert.Contains(t, h.r.windows, w1, "windows go away with their destroy events")
	assert.NotContains(t, h.r.apps, types.Pid(1))
}

func TestLastWindowOfTerminatedAppClosesApp(t *testing.T) {
	h := newHarness(t)
	w1, w2 := h.launchOneApp()
	restored := wid(1, 9)
	h.r.engine.HandleEvent(engine.WindowAdded{Space: testSpace, Window: restored})
	h.r.HandleEvent(ApplicationTerminated{Pid: 1})

	h.r.HandleEvent(WindowDestroyed{Window: w1})
	assert.Contains(t, h.r.engine.AllTiledWindows(), restored)

	h.r.HandleEvent(WindowDestroyed{Window: w2})
	assert.Empty(t, h.r.engine.AllTiledWindows())
	_, found := h.r.engine.VirtualWorkspaces().WorkspaceForWindow(testSpace, restored)
	assert.False(t, found)
}

func TestActivationSwitchesToAppWorkspace(t *testing.T) {
	for _, blacklisted := range []bool{false, true} {
		t.Run(map[bool]string{false: "switch", true: "blacklisted"}[blacklisted], func(t *testing.T) {
			h := newHarness(t, func(c *config.Config) {
				if blacklisted {
					c.Settings.AutoFocusBlacklist = []string{"com.example.two"}
				}
			})
			w1, w2 := wid(1, 1), wid(2, 1)
			h.exposeScreen(server(101, 1, w1Start), server(201, 2, w2Start))
			h.r.HandleEvent(ApplicationLaunched{Pid: 1, Info: AppInfo{BundleID: "com.example.one"}, Windows: []ReportedWindow{reported(w1, 101, w1Start)}})
			h.r.HandleEvent(ApplicationLaunched{Pid: 2, Info: AppInfo{BundleID: "com.example.two"}, Windows: []ReportedWindow{reported(w2, 201, w2Start)}})

			h.r.HandleEvent(ReactorCommand{Command: FocusWindow{Window: w2}})
			h.r.HandleEvent(LayoutCommand{Command: engine.MoveWindowToWorkspace{Index: 1}})
			main, _ := h.r.engine.VirtualWorkspaces().WorkspaceByIndex(testSpace, 0)
			dev, _ := h.r.engine.VirtualWorkspaces().WorkspaceByIndex(testSpace, 1)

			h.r.HandleEvent(ApplicationGloballyActivated{Pid: 2})

			active, _ := h.r.engine.ActiveWorkspace(testSpace)
			if blacklisted {
				assert.Equal(t, main, active)
			} else {
				assert.Equal(t, dev, active)
			}
		})
	}
}

func TestSaveAndExit(t *testing.T) {
	h := newHarness(t)
	h.launchOneApp()

	h.r.HandleEvent(ReactorCommand{Command: SaveAndExit{}})
	require.True(t, h.exited)
	assert.Equal(t, 0, h.exit)
	_, err := os.Stat(h.r.statePath)
	assert.NoError(t, err)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	h.r.statePath = filepath.Join(blocker, "layout.json")
	h.r.HandleEvent(ReactorCommand{Command: SaveAndExit{}})
	assert.Equal(t, ExitSaveFailed, h.exit)
}

func TestSwitchSpaceGoesToSystemActor(t *testing.T) {
	h := newHarness(t)
	h.r.HandleEvent(ReactorCommand{Command: SwitchSpace{Direction: types.DirRight}})

	all := h.sink.take()
	require.Len(t, all, 1)
	assert.Equal(t, types.Pid(0), all[0].Pid)
	assert.Equal(t, ReqSwitchSpace, all[0].Req.Kind)
	assert.Equal(t, types.DirRight.String(), all[0].Req.Dir)
}

func TestFocusUnknownWindowRaisesDirectly(t *testing.T) {
	h := newHarness(t)
	h.launchOneApp()
	h.sink.take()
	w := wid(1, 9)

	h.r.HandleEvent(ReactorCommand{Command: FocusWindow{Window: w, ServerID: serverID(109)}})

	all := h.sink.take()
	require.Len(t, all, 1)
	assert.Equal(t, ReqRaise, all[0].Req.Kind)
	require.NotNil(t, all[0].Req.Raise)
	assert.True(t, all[0].Req.Raise.Focus)
	assert.Equal(t, []types.WindowID{w}, all[0].Req.Raise.Windows)
}

func TestPanickingHandlerIsRecovered(t *testing.T) {
	m := metrics.New()
	calls := 0
	sink := SinkFunc(func(types.Pid, Request) error {
		calls++
		if calls == 1 {
			panic("actor gone")
		}
		return nil
	})
	r := New(Options{Sink: sink, Metrics: m, LowPower: func() bool { return false }})

	require.NotPanics(t, func() {
		r.HandleEvent(ApplicationLaunched{Pid: 7})
	})
	assert.Equal(t, int64(1), m.Snapshot().EventPanics)

	r.HandleEvent(SystemWoke{})
	assert.Equal(t, 2, calls)
}

func TestQueries(t *testing.T) {
	h := newHarness(t)
	w1, w2 := h.launchOneApp()

	ask := func(req QueryRequest) QueryResult {
		reply := make(chan QueryResult, 1)
		h.r.HandleEvent(Query{Request: req, Reply: reply})
		return <-reply
	}

	res := ask(QueryWorkspaces{})
	require.NoError(t, res.Err)
	workspaces := res.Value.([]WorkspaceData)
	require.Len(t, workspaces, 4)
	assert.Equal(t, "Main", workspaces[0].Name)
	assert.True(t, workspaces[0].IsActive)
	assert.Equal(t, 2, workspaces[0].WindowCount)
	assert.False(t, workspaces[1].IsActive)

	space := testSpace
	res = ask(QueryWindows{Space: &space})
	require.NoError(t, res.Err)
	assert.Len(t, res.Value.([]WindowData), 2)

	res = ask(QueryWindowInfo{Window: w2})
	info := res.Value.(*WindowData)
	require.NotNil(t, info)
	assert.Equal(t, types.NewRect(500, 0, 500, 1000), info.Frame)
	assert.Equal(t, "One", info.AppName)
	assert.Equal(t, testSpace, info.Space)

	res = ask(QueryWindowInfo{Window: wid(9, 9)})
	assert.Nil(t, res.Value.(*WindowData))

	res = ask(QueryApplications{})
	apps := res.Value.([]ApplicationData)
	require.Len(t, apps, 1)
	assert.Equal(t, 2, apps[0].WindowCount)

	res = ask(QueryLayoutState{Space: uint64(testSpace)})
	require.NoError(t, res.Err)
	state := res.Value.(LayoutStateData)
	assert.Equal(t, []types.WindowID{w1, w2}, state.Tiled)
	assert.Empty(t, state.Floating)

	res = ask(QueryLayoutState{Space: 42})
	assert.ErrorIs(t, res.Err, ErrSpaceNotFound)

	res = ask(QueryMetrics{})
	m := res.Value.(MetricsData)
	assert.Equal(t, 2, m.Windows)
	assert.Equal(t, 2, m.TiledWindows)
	assert.Equal(t, int64(2), m.Counters.FrameWrites)
}

func TestSerializeWritesSnapshot(t *testing.T) {
	h := newHarness(t)
	h.launchOneApp()

	h.r.HandleEvent(ReactorCommand{Command: Serialize{}})

	var got SerializedState
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
	assert.Len(t, got.Windows, 2)
	assert.Len(t, got.Screens, 1)
	assert.Len(t, got.Applications, 1)
}

func TestConfigUpdateAppliesGaps(t *testing.T) {
	h := newHarness(t)
	w1, _ := h.launchOneApp()
	h.sink.take()

	cfg := config.DefaultConfig()
	cfg.Settings.Animate = false
	cfg.Settings.Layout.Gaps.Outer = config.OuterGaps{Top: 10, Left: 10, Bottom: 10, Right: 10}
	h.r.HandleEvent(ConfigUpdated{Config: cfg})

	writes := frameWrites(h.sink.take())
	require.Len(t, writes, 1)
	assert.Equal(t, 10.0, batchFrames(t, writes[0])[w1].X)
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"windowFrameChanged","data":{"window":"3:4","frame":{"x":1,"y":2,"width":30,"height":40},"lastSeen":5}}`))
	require.NoError(t, err)
	fc, ok := ev.(WindowFrameChanged)
	require.True(t, ok)
	assert.Equal(t, wid(3, 4), fc.Window)
	assert.Equal(t, types.NewRect(1, 2, 30, 40), fc.Frame)
	assert.Equal(t, types.TransactionID(5), fc.LastSeen)

	ev, err = DecodeEvent([]byte(`{"type":"mouseUp"}`))
	require.NoError(t, err)
	assert.Equal(t, MouseUp{}, ev)

	_, err = DecodeEvent([]byte(`{"type":"query"}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = DecodeEvent([]byte(`{`))
	assert.Error(t, err)

	assert.Contains(t, InjectableEvents(), "applicationLaunched")
	assert.NotContains(t, InjectableEvents(), "layoutCommand")
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Command
		wantErr bool
	}{
		{"debug", nil, Debug{}, false},
		{"save-and-exit", nil, SaveAndExit{}, false},
		{"switch_space", []string{"Left"}, SwitchSpace{types.DirLeft}, false},
		{"switch_space", []string{"sideways"}, nil, true},
		{"focus_window", []string{"12:3"}, FocusWindow{Window: wid(12, 3)}, false},
		{"focus_window", []string{"12:3", "77"}, FocusWindow{Window: wid(12, 3), ServerID: serverID(77)}, false},
		{"focus_window", nil, nil, true},
		{"set_mission_control_active", []string{"true"}, SetMissionControlActive{true}, false},
		{"nope", nil, nil, true},
	}
	for _, tt := range tests {
		got, err := ParseCommand(tt.name, tt.args)
		if tt.wantErr {
			assert.Error(t, err, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
	_, err := ParseCommand("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestRunStopsOnClosedMailbox(t *testing.T) {
	h := newHarness(t)
	events := make(chan Event, 2)
	events <- MenuOpened{}
	close(events)

	require.NoError(t, h.r.Run(context.Background(), events))
	assert.Equal(t, 1, h.r.menuDepth)
}

func TestFrameSinkCountsWrites(t *testing.T) {
	rec := &recorder{}
	n := 0
	fs := frameSink{sink: rec, obs: func(k int) { n += k }}
	require.NoError(t, fs.SetBatchWindowFrame(3, []animation.Write{{Window: wid(3, 1)}, {Window: wid(3, 2)}}, 9))
	assert.Equal(t, 2, n)
	all := rec.take()
	require.Len(t, all, 1)
	assert.Equal(t, types.TransactionID(9), all[0].Req.Txid)
}
