package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/yourusername/tiler/internal/models"
	"github.com/yourusername/tiler/internal/types"
)

// PrintWindowsTable prints windows in a table format
func PrintWindowsTable(w io.Writer, windows []models.Window) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Title", "App", "Space", "Workspace", "Frame", "Mode", "Focused")

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].ID.Less(windows[j].ID)
	})

	for _, win := range windows {
		if err := table.Append(
			win.ID.String(),
			truncate(win.Title, 30),
			truncate(appLabel(win), 20),
			optionalID(win.Space),
			optionalID(win.Workspace),
			win.FormatFrame(),
			win.Mode(),
			mark(win.IsFocused),
		); err != nil {
			return err
		}
	}

	return table.Render()
}

// PrintWorkspacesTable prints workspaces grouped by space in index order
func PrintWorkspacesTable(w io.Writer, workspaces []models.Workspace) error {
	table := tablewriter.NewWriter(w)
	table.Header("Space", "Index", "Name", "Active", "Windows")

	sort.SliceStable(workspaces, func(i, j int) bool {
		if workspaces[i].Space != workspaces[j].Space {
			return workspaces[i].Space < workspaces[j].Space
		}
		return workspaces[i].Index < workspaces[j].Index
	})

	for _, ws := range workspaces {
		if err := table.Append(
			strconv.FormatUint(ws.Space, 10),
			strconv.Itoa(ws.Index),
			truncate(ws.Name, 25),
			mark(ws.IsActive),
			strconv.Itoa(ws.WindowCount),
		); err != nil {
			return err
		}
	}

	return table.Render()
}

// PrintApplicationsTable prints applications in a table format
func PrintApplicationsTable(w io.Writer, apps []models.Application) error {
	table := tablewriter.NewWriter(w)
	table.Header("PID", "Name", "Bundle ID", "Frontmost", "Handle", "Windows")

	sort.Slice(apps, func(i, j int) bool {
		if apps[i].Name != apps[j].Name {
			return apps[i].Name < apps[j].Name
		}
		return apps[i].Pid < apps[j].Pid
	})

	for _, app := range apps {
		if err := table.Append(
			strconv.Itoa(int(app.Pid)),
			truncate(app.Name, 25),
			truncate(app.BundleID, 35),
			mark(app.IsFrontmost),
			mark(app.HasHandle),
			strconv.Itoa(app.WindowCount),
		); err != nil {
			return err
		}
	}

	return table.Render()
}

// PrintWindowDetail prints detailed information about a single window
func PrintWindowDetail(w io.Writer, win *models.Window, app *models.Application) {
	fmt.Fprintf(w, "Window ID: %s\n", win.ID)
	if win.ServerID != nil {
		fmt.Fprintf(w, "Server ID: %d\n", *win.ServerID)
	}
	fmt.Fprintf(w, "Title: %s\n", win.Title)
	fmt.Fprintf(w, "Application: %s (PID: %d)\n", appLabel(*win), win.ID.Pid)
	if app != nil && app.BundleID != "" {
		fmt.Fprintf(w, "Bundle ID: %s\n", app.BundleID)
	}
	fmt.Fprintf(w, "Frame: %s\n", win.FormatFrame())
	if win.Pending != nil {
		fmt.Fprintf(w, "Pending Frame: %s\n", *win.Pending)
	}
	fmt.Fprintf(w, "Space: %s\n", optionalID(win.Space))
	fmt.Fprintf(w, "Workspace: %s\n", optionalID(win.Workspace))
	fmt.Fprintf(w, "Mode: %s\n", win.Mode())
	fmt.Fprintf(w, "Focused: %v\n", win.IsFocused)
}

// PrintLayoutState prints the tiled and floating windows of a space
func PrintLayoutState(w io.Writer, ls *models.LayoutState) {
	fmt.Fprintf(w, "Space: %d\n", ls.Space)
	fmt.Fprintf(w, "Workspace: %s\n", optionalID(ls.Workspace))
	fmt.Fprintf(w, "Tiled: %s\n", joinIDs(ls.Tiled))
	fmt.Fprintf(w, "Floating: %s\n", joinIDs(ls.Floating))
	if ls.Focused != nil {
		fmt.Fprintf(w, "Focused: %s\n", *ls.Focused)
	}
	if ls.Selected != nil {
		fmt.Fprintf(w, "Selected: %s\n", *ls.Selected)
	}
	if ls.Tree != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimRight(ls.Tree, "\n"))
	}
}

// PrintMetrics prints a key/value table of daemon metrics
func PrintMetrics(w io.Writer, m *models.Metrics) error {
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")

	rows := [][2]string{
		{"windows", strconv.Itoa(m.Windows)},
		{"manageable", strconv.Itoa(m.Manageable)},
		{"tiled", strconv.Itoa(m.TiledWindows)},
		{"floating", strconv.Itoa(m.FloatingWindows)},
		{"visible server windows", strconv.Itoa(m.VisibleServer)},
		{"applications", strconv.Itoa(m.Applications)},
		{"screens", strconv.Itoa(m.Screens)},
		{"workspaces", strconv.Itoa(m.Workspaces)},
		{"layouts", strconv.Itoa(m.Layouts)},
		{"in drag", strconv.FormatBool(m.InDrag)},
		{"menu depth", strconv.Itoa(m.MenuDepth)},
		{"mission control", strconv.FormatBool(m.MissionControl)},
		{"events handled", strconv.FormatInt(m.Counters.EventsHandled, 10)},
		{"event panics", strconv.FormatInt(m.Counters.EventPanics, 10)},
		{"frame writes", strconv.FormatInt(m.Counters.FrameWrites, 10)},
		{"raise requests", strconv.FormatInt(m.Counters.RaiseRequests, 10)},
	}
	for _, r := range rows {
		if err := table.Append(r[0], r[1]); err != nil {
			return err
		}
	}

	return table.Render()
}

// Helper functions

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}

func appLabel(win models.Window) string {
	switch {
	case win.AppName != "":
		return win.AppName
	case win.BundleID != "":
		return win.BundleID
	}
	return "Unknown"
}

func optionalID(id uint64) string {
	if id == 0 {
		return "-"
	}
	return strconv.FormatUint(id, 10)
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}

func joinIDs(ids []types.WindowID) string {
	if len(ids) == 0 {
		return "-"
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return strings.Join(strs, ", ")
}
