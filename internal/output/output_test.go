package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/yourusername/tiler/internal/models"
	"github.com/yourusername/tiler/internal/types"
)

func testState() *models.State {
	w1 := models.Window{ID: types.NewWindowID(1, 1), Title: "Docs", AppName: "Safari", Frame: types.NewRect(0, 0, 500, 1000), Space: 1, Workspace: 7, IsFocused: true, Manageable: true}
	w2 := models.Window{ID: types.NewWindowID(1, 2), Title: "Mail", AppName: "Safari", Frame: types.NewRect(500, 0, 500, 1000), Space: 1, Workspace: 7, Manageable: true}
	hidden := models.Window{ID: types.NewWindowID(2, 1), AppName: "Notes", Frame: types.NewRect(0, 0, 1000, 1000), Space: 1, Workspace: 8, Manageable: true}
	return &models.State{
		Screens: []models.Screen{{Frame: types.NewRect(0, 0, 1000, 1000), Space: 1}},
		Workspaces: []models.Workspace{
			{ID: 7, Space: 1, Index: 0, Name: "main", IsActive: true, WindowCount: 2, Windows: []models.Window{w1, w2}},
			{ID: 8, Space: 1, Index: 1, Name: "other", WindowCount: 1, Windows: []models.Window{hidden}},
		},
		Windows: []models.Window{w1, w2, hidden},
		Applications: []models.Application{
			{Pid: 2, Name: "Notes", WindowCount: 1, HasHandle: true},
			{Pid: 1, Name: "Safari", BundleID: "com.apple.Safari", WindowCount: 2, IsFrontmost: true, HasHandle: true},
		},
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer title", 8, "a lon..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestScalingFullScreen(t *testing.T) {
	sc := NewScalingContextFromScreen(types.NewRect(0, 0, 1000, 1000), 42, 12)
	x, y, w, h := sc.RectToTerminal(types.NewRect(0, 0, 1000, 1000))
	if x != 1 || y != 1 {
		t.Errorf("origin = (%d, %d), want (1, 1)", x, y)
	}
	if w != 40 || h != 10 {
		t.Errorf("size = %dx%d, want 40x10", w, h)
	}
}

func TestScalingOffsetScreen(t *testing.T) {
	sc := NewScalingContextFromScreen(types.NewRect(1000, 0, 1000, 1000), 42, 12)
	x, y := sc.PixelToTerminal(1000, 0)
	if x != 1 || y != 1 {
		t.Errorf("PixelToTerminal(screen origin) = (%d, %d), want (1, 1)", x, y)
	}
}

func TestScalingAdjacentShareEdge(t *testing.T) {
	sc := NewScalingContextFromScreen(types.NewRect(0, 0, 1000, 1000), 42, 12)
	lx, _, lw, _ := sc.RectToTerminal(types.NewRect(0, 0, 500, 1000))
	rx, _, _, _ := sc.RectToTerminal(types.NewRect(500, 0, 500, 1000))
	if lx+lw-1 != rx {
		t.Errorf("left box ends at %d, right box starts at %d", lx+lw-1, rx)
	}
}

func TestClampToCanvas(t *testing.T) {
	sc := NewScalingContextFromScreen(types.NewRect(0, 0, 100, 100), 20, 10)
	x, y, w, h := sc.ClampToCanvas(-2, -1, 10, 5)
	if x != 0 || y != 0 || w != 8 || h != 4 {
		t.Errorf("ClampToCanvas = (%d, %d, %d, %d), want (0, 0, 8, 4)", x, y, w, h)
	}
	_, _, w, h = sc.ClampToCanvas(15, 8, 10, 5)
	if w != 5 || h != 2 {
		t.Errorf("ClampToCanvas size = %dx%d, want 5x2", w, h)
	}
}

func TestScalingFromWindowsWithoutWindows(t *testing.T) {
	sc := NewScalingContext(nil, 80, 24)
	if sc.Pixels.Width != 1920 || sc.Pixels.Height != 1080 {
		t.Errorf("Pixels = %v, want 1920x1080", sc.Pixels)
	}
}

func TestCanvasBoxAndText(t *testing.T) {
	c := NewCanvas(6, 3, false)
	c.DrawBox(0, 0, 6, 3, false)
	c.DrawText(1, 1, 4, "abcdef")
	want := "+----+\n|abcd|\n+----+"
	if got := c.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}

	c.DrawBox(0, 0, 6, 3, true)
	if got := c.GetCell(0, 0); got != '#' {
		t.Errorf("focused corner = %q, want '#'", got)
	}
	if got := c.GetCell(99, 99); got != ' ' {
		t.Errorf("out of range cell = %q, want ' '", got)
	}
}

func TestVisualizeScreen(t *testing.T) {
	opts := VisualizationOptions{ShowIDs: true, MaxWidth: 42, MaxHeight: 12}
	out, err := VisualizeScreen(testState(), 0, opts)
	if err != nil {
		t.Fatalf("VisualizeScreen() error = %v", err)
	}
	if !strings.Contains(out, `workspace "main"`) {
		t.Errorf("header missing workspace name:\n%s", out)
	}
	if !strings.Contains(out, "[1:1] Safari") || !strings.Contains(out, "[1:2] Safari") {
		t.Errorf("labels missing:\n%s", out)
	}
	if strings.Contains(out, "Notes") {
		t.Errorf("inactive workspace window drawn:\n%s", out)
	}
	if !strings.Contains(out, "Total: 2 windows") {
		t.Errorf("footer missing:\n%s", out)
	}
	if !strings.Contains(out, "#") {
		t.Errorf("focused window not highlighted:\n%s", out)
	}
}

func TestVisualizeScreenErrors(t *testing.T) {
	if _, err := VisualizeScreen(testState(), 3, VisualizationOptions{MaxWidth: 40, MaxHeight: 10}); err == nil {
		t.Error("VisualizeScreen(3) error = nil, want out of range")
	}

	out, err := VisualizeAllScreens(&models.State{}, VisualizationOptions{})
	if err != nil || out != "No screens found\n" {
		t.Errorf("VisualizeAllScreens(empty) = %q, %v", out, err)
	}

	st := &models.State{Screens: []models.Screen{{Frame: types.NewRect(0, 0, 100, 100)}}}
	out, err = VisualizeScreen(st, 0, VisualizationOptions{MaxWidth: 40, MaxHeight: 10})
	if err != nil {
		t.Fatalf("VisualizeScreen() error = %v", err)
	}
	if !strings.Contains(out, "(unmanaged)") || !strings.Contains(out, "(no windows)") {
		t.Errorf("unmanaged screen = %q", out)
	}
}

func TestPrintVisualizationNoColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	opts := VisualizationOptions{MaxWidth: 42, MaxHeight: 12}
	if err := PrintVisualization(&buf, testState(), -1, opts); err != nil {
		t.Fatalf("PrintVisualization() error = %v", err)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Error("output contains escape codes with color disabled")
	}
	if !strings.Contains(buf.String(), "Screen 0") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintWindowsTable(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintWindowsTable(&buf, testState().Windows); err != nil {
		t.Fatalf("PrintWindowsTable() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"1:1", "1:2", "2:1", "Docs", "tiled"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "1:2") > strings.Index(out, "2:1") {
		t.Errorf("rows not sorted by id:\n%s", out)
	}
}

func TestPrintWorkspacesAndApplications(t *testing.T) {
	st := testState()

	var buf bytes.Buffer
	if err := PrintWorkspacesTable(&buf, st.Workspaces); err != nil {
		t.Fatalf("PrintWorkspacesTable() error = %v", err)
	}
	if !strings.Contains(buf.String(), "main") || !strings.Contains(buf.String(), "other") {
		t.Errorf("workspaces table:\n%s", buf.String())
	}

	buf.Reset()
	if err := PrintApplicationsTable(&buf, st.Applications); err != nil {
		t.Fatalf("PrintApplicationsTable() error = %v", err)
	}
	out := buf.String()
	if strings.Index(out, "Notes") > strings.Index(out, "Safari") {
		t.Errorf("applications not sorted by name:\n%s", out)
	}
}

func TestPrintWindowDetail(t *testing.T) {
	st := testState()
	sid := uint32(101)
	win := st.Windows[0]
	win.ServerID = &sid

	var buf bytes.Buffer
	PrintWindowDetail(&buf, &win, st.FindApplication(1))
	out := buf.String()
	for _, want := range []string{"Window ID: 1:1", "Server ID: 101", "Bundle ID: com.apple.Safari", "Frame: (0, 0) 500x1000", "Workspace: 7"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail missing %q:\n%s", want, out)
		}
	}
}

func TestPrintLayoutState(t *testing.T) {
	focused := types.NewWindowID(1, 1)
	ls := &models.LayoutState{
		Space:   1,
		Tiled:   []types.WindowID{types.NewWindowID(1, 1), types.NewWindowID(1, 2)},
		Focused: &focused,
	}
	var buf bytes.Buffer
	PrintLayoutState(&buf, ls)
	out := buf.String()
	for _, want := range []string{"Workspace: -", "Tiled: 1:1, 1:2", "Floating: -", "Focused: 1:1"} {
		if !strings.Contains(out, want) {
			t.Errorf("layout state missing %q:\n%s", want, out)
		}
	}
}

func TestPrintMetrics(t *testing.T) {
	m := &models.Metrics{Windows: 3, Counters: models.Counters{FrameWrites: 12}}
	var buf bytes.Buffer
	if err := PrintMetrics(&buf, m); err != nil {
		t.Fatalf("PrintMetrics() error = %v", err)
	}
	if !strings.Contains(buf.String(), "frame writes") || !strings.Contains(buf.String(), "12") {
		t.Errorf("metrics table:\n%s", buf.String())
	}
}
