package reactor

import (
	"fmt"
	"slices"

	"github.com/yourusername/tiler/internal/engine"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/metrics"
	"github.com/yourusername/tiler/internal/types"
)

// QueryRequest is a read-only question for the reactor.
type QueryRequest interface {
	queryName() string
}

type (
	QueryWorkspaces struct{}
	// QueryWindows lists the active-workspace windows of Space, or every
	// known window when Space is nil.
	QueryWindows      struct{ Space *types.SpaceID }
	QueryWindowInfo   struct{ Window types.WindowID }
	QueryApplications struct{}
	QueryLayoutState  struct{ Space uint64 }
	QueryMetrics      struct{}
	QuerySerialize    struct{}
)

func (QueryWorkspaces) queryName() string   { return "workspaces" }
func (QueryWindows) queryName() string      { return "windows" }
func (QueryWindowInfo) queryName() string   { return "windowInfo" }
func (QueryApplications) queryName() string { return "applications" }
func (QueryLayoutState) queryName() string  { return "layoutState" }
func (QueryMetrics) queryName() string      { return "metrics" }
func (QuerySerialize) queryName() string    { return "serialize" }

// QueryResult carries either a value or an error.
type QueryResult struct {
	Value any
	Err   error
}

type WindowData struct {
	ID          types.WindowID        `json:"id"`
	ServerID    *types.WindowServerID `json:"serverId,omitempty"`
	Title       string                `json:"title"`
	AppName     string                `json:"appName,omitempty"`
	BundleID    string                `json:"bundleId,omitempty"`
	Frame       types.Rect            `json:"frame"`
	Pending     *types.Rect           `json:"pendingFrame,omitempty"`
	Space       types.SpaceID         `json:"space,omitempty"`
	Workspace   types.WorkspaceID     `json:"workspace,omitempty"`
	IsFloating  bool                  `json:"isFloating"`
	IsFocused   bool                  `json:"isFocused"`
	IsMinimized bool                  `json:"isMinimized,omitempty"`
	Manageable  bool                  `json:"manageable"`
}

type WorkspaceData struct {
	ID          types.WorkspaceID `json:"id"`
	Space       types.SpaceID     `json:"space"`
	Index       int               `json:"index"`
	Name        string            `json:"name"`
	IsActive    bool              `json:"isActive"`
	WindowCount int               `json:"windowCount"`
	// Frames of an inactive workspace are where its windows would go.
	Windows []WindowData `json:"windows"`
}

type ApplicationData struct {
	Pid         types.Pid `json:"pid"`
	BundleID    string    `json:"bundleId,omitempty"`
	Name        string    `json:"name,omitempty"`
	WindowCount int       `json:"windowCount"`
	IsFrontmost bool      `json:"isFrontmost"`
	HasHandle   bool      `json:"hasHandle"`
}

type LayoutStateData struct {
	Space     types.SpaceID     `json:"space"`
	Workspace types.WorkspaceID `json:"workspace"`
	Floating  []types.WindowID  `json:"floating"`
	Tiled     []types.WindowID  `json:"tiled"`
	Focused   *types.WindowID   `json:"focused,omitempty"`
	Selected  *types.WindowID   `json:"selected,omitempty"`
	Tree      string            `json:"tree,omitempty"`
}

type MetricsData struct {
	Windows         int              `json:"windows"`
	Manageable      int              `json:"manageable"`
	VisibleServer   int              `json:"visibleServerWindows"`
	Applications    int              `json:"applications"`
	Screens         int              `json:"screens"`
	Workspaces      int              `json:"workspaces"`
	TiledWindows    int              `json:"tiledWindows"`
	FloatingWindows int              `json:"floatingWindows"`
	Layouts         int              `json:"layouts"`
	InDrag          bool             `json:"inDrag"`
	MenuDepth       int              `json:"menuDepth"`
	MissionControl  bool             `json:"missionControl"`
	Counters        metrics.Snapshot `json:"counters"`
}

// SerializedState is the full snapshot written by Serialize.
type SerializedState struct {
	Screens      []Screen          `json:"screens"`
	Engine       engine.Snapshot   `json:"engine"`
	Workspaces   []WorkspaceData   `json:"workspaces"`
	Windows      []WindowData      `json:"windows"`
	Applications []ApplicationData `json:"applications"`
}

func (r *Reactor) handleQuery(q Query) {
	res := r.answer(q.Request)
	if q.Reply == nil {
		return
	}
	select {
	case q.Reply <- res:
	default:
		logging.Warn().Msg("query reply dropped")
	}
}

func (r *Reactor) answer(req QueryRequest) QueryResult {
	switch q := req.(type) {
	case QueryWorkspaces:
		return QueryResult{Value: r.workspaceData()}
	case QueryWindows:
		return QueryResult{Value: r.windowList(q.Space)}
	case QueryWindowInfo:
		if _, ok := r.windows[q.Window]; !ok {
			return QueryResult{Value: (*WindowData)(nil)}
		}
		d := r.windowData(q.Window)
		return QueryResult{Value: &d}
	case QueryApplications:
		return QueryResult{Value: r.applicationData()}
	case QueryLayoutState:
		return r.layoutState(types.SpaceID(q.Space))
	case QueryMetrics:
		return QueryResult{Value: r.metricsData()}
	case QuerySerialize:
		return QueryResult{Value: r.serialize()}
	case nil:
		return QueryResult{Err: ErrUnknownQuery}
	}
	return QueryResult{Err: fmt.Errorf("%w: %s", ErrUnknownQuery, req.queryName())}
}

func (r *Reactor) windowData(wid types.WindowID) WindowData {
	st := r.windows[wid]
	d := WindowData{
		ID:          wid,
		ServerID:    st.ServerID,
		Title:       st.Title,
		BundleID:    st.BundleID,
		Frame:       st.Frame,
		IsFloating:  r.engine.IsWindowFloating(wid),
		IsMinimized: st.IsMinimized,
		Manageable:  st.Manageable,
	}
	if app, ok := r.apps[wid.Pid]; ok {
		d.AppName = app.Info.Name
		if d.BundleID == "" {
			d.BundleID = app.Info.BundleID
		}
	}
	if target, ok := r.txids.target(wid); ok && !target.SameAs(st.Frame) {
		d.Pending = &target
	}
	if focused, ok := r.engine.FocusedWindow(); ok && focused == wid {
		d.IsFocused = true
	}
	if space := r.bestSpace(st.Frame); space != 0 {
		d.Space = space
		if ws, ok := r.engine.VirtualWorkspaces().WorkspaceForWindow(space, wid); ok {
			d.Workspace = ws
		}
	}
	return d
}

func (r *Reactor) sortedWindows(keep func(types.WindowID) bool) []types.WindowID {
	var out []types.WindowID
	for wid := range r.windows {
		if keep == nil || keep(wid) {
			out = append(out, wid)
		}
	}
	slices.SortFunc(out, compareWindowIDs)
	return out
}

func (r *Reactor) windowList(space *types.SpaceID) []WindowData {
	var wids []types.WindowID
	if space == nil {
		wids = r.sortedWindows(nil)
	} else {
		for _, wid := range r.engine.WindowsInActiveWorkspace(*space) {
			if _, ok := r.windows[wid]; ok {
				wids = append(wids, wid)
			}
		}
	}
	out := make([]WindowData, 0, len(wids))
	for _, wid := range wids {
		out = append(out, r.windowData(wid))
	}
	return out
}

func (r *Reactor) workspaceData() []WorkspaceData {
	var out []WorkspaceData
	vw := r.engine.VirtualWorkspaces()
	for _, screen := range r.screens {
		if screen.Space == 0 {
			continue
		}
		active, _ := r.engine.ActiveWorkspace(screen.Space)
		for i, ws := range vw.ListWorkspaces(screen.Space) {
			d := WorkspaceData{
				ID:          ws.ID,
				Space:       screen.Space,
				Index:       i,
				Name:        ws.Name,
				IsActive:    ws.ID == active,
				WindowCount: ws.WindowCount(),
				Windows:     []WindowData{},
			}
			var predicted map[types.WindowID]types.Rect
			if !d.IsActive {
				predicted = make(map[types.WindowID]types.Rect)
				for _, f := range r.engine.CalculateLayoutForWorkspace(screen.Space, ws.ID, screen.Frame) {
					predicted[f.Window] = f.Frame
				}
			}
			for _, wid := range ws.Windows() {
				if _, ok := r.windows[wid]; !ok {
					continue
				}
				wd := r.windowData(wid)
				if frame, ok := predicted[wid]; ok {
					wd.Frame = frame
				}
				d.Windows = append(d.Windows, wd)
			}
			out = append(out, d)
		}
	}
	return out
}

func (r *Reactor) applicationData() []ApplicationData {
	counts := make(map[types.Pid]int)
	for wid := range r.windows {
		counts[wid.Pid]++
	}
	front, hasFront := r.tracker.FrontmostPid()
	out := make([]ApplicationData, 0, len(r.apps))
	for pid, app := range r.apps {
		out = append(out, ApplicationData{
			Pid:         pid,
			BundleID:    app.Info.BundleID,
			Name:        app.Info.Name,
			WindowCount: counts[pid],
			IsFrontmost: hasFront && front == pid,
			HasHandle:   app.hasHandle,
		})
	}
	slices.SortFunc(out, func(a, b ApplicationData) int { return int(a.Pid) - int(b.Pid) })
	return out
}

func (r *Reactor) layoutState(space types.SpaceID) QueryResult {
	ws, ok := r.engine.ActiveWorkspace(space)
	if !ok {
		return QueryResult{Err: fmt.Errorf("%w: %d", ErrSpaceNotFound, space)}
	}
	d := LayoutStateData{
		Space:     space,
		Workspace: ws,
		Floating:  r.engine.FloatingWindows(space),
		Tiled:     r.engine.TiledWindows(space),
		Tree:      r.engine.Draw(space),
	}
	if d.Floating == nil {
		d.Floating = []types.WindowID{}
	}
	if d.Tiled == nil {
		d.Tiled = []types.WindowID{}
	}
	if wid, ok := r.engine.FocusedWindow(); ok {
		d.Focused = &wid
	}
	if wid, ok := r.engine.SelectedWindow(space); ok {
		d.Selected = &wid
	}
	return QueryResult{Value: d}
}

func (r *Reactor) metricsData() MetricsData {
	stats := r.engine.Stats()
	d := MetricsData{
		Windows:         len(r.windows),
		VisibleServer:   len(r.visible),
		Applications:    len(r.apps),
		Screens:         len(r.screens),
		Workspaces:      r.engine.VirtualWorkspaces().Stats().TotalWorkspaces,
		TiledWindows:    stats.TiledWindows,
		FloatingWindows: stats.FloatingWindows,
		Layouts:         stats.Layouts,
		InDrag:          r.inDrag(),
		MenuDepth:       r.menuDepth,
		MissionControl:  r.missionControl,
		Counters:        r.metrics.Snapshot(),
	}
	for _, st := range r.windows {
		if st.Manageable {
			d.Manageable++
		}
	}
	return d
}

func (r *Reactor) serialize() SerializedState {
	return SerializedState{
		Screens:      slices.Clone(r.screens),
		Engine:       r.engine.Snapshot(),
		Workspaces:   r.workspaceData(),
		Windows:      r.windowList(nil),
		Applications: r.applicationData(),
	}
}
