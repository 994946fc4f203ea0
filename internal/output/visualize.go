package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/yourusername/tiler/internal/models"
	"golang.org/x/sys/unix"
)

// VisualizationOptions controls the appearance of the visualization
type VisualizationOptions struct {
	UseUnicode bool
	ShowIDs    bool
	MaxWidth   int
	MaxHeight  int
}

// DefaultVisualizationOptions sizes the canvas to the terminal
func DefaultVisualizationOptions() VisualizationOptions {
	width, height := getTerminalSize()
	return VisualizationOptions{
		UseUnicode: supportsUnicode(),
		ShowIDs:    true,
		MaxWidth:   width,
		// header and footer lines
		MaxHeight: max(height-4, 8),
	}
}

// VisualizeScreen renders the windows visible on screen i
func VisualizeScreen(state *models.State, i int, opts VisualizationOptions) (string, error) {
	if i < 0 || i >= len(state.Screens) {
		return "", fmt.Errorf("screen index %d out of range (have %d screens)", i, len(state.Screens))
	}
	screen := state.Screens[i]

	header := fmt.Sprintf("Screen %d: %s", i, screen.Frame)
	if screen.Space == 0 {
		header += " (unmanaged)"
	} else {
		header += fmt.Sprintf(" space %d", screen.Space)
		if ws := state.ActiveWorkspace(screen.Space); ws != nil {
			header += fmt.Sprintf(" workspace %q", ws.Name)
		}
	}

	windows := state.VisibleWindows(i)
	if len(windows) == 0 {
		return header + " (no windows)\n", nil
	}

	sc := NewScalingContextFromScreen(screen.Frame, opts.MaxWidth, opts.MaxHeight)
	canvas := NewCanvas(opts.MaxWidth, opts.MaxHeight, opts.UseUnicode)
	body := renderWindows(windows, sc, canvas, opts.ShowIDs)

	return fmt.Sprintf("%s\n%s\nTotal: %d windows\n", header, body, len(windows)), nil
}

// VisualizeAllScreens renders every screen, one below the other
func VisualizeAllScreens(state *models.State, opts VisualizationOptions) (string, error) {
	if len(state.Screens) == 0 {
		return "No screens found\n", nil
	}

	var result strings.Builder
	for i := range state.Screens {
		vis, err := VisualizeScreen(state, i, opts)
		if err != nil {
			return "", err
		}
		if i > 0 {
			result.WriteString("\n")
		}
		result.WriteString(vis)
	}
	return result.String(), nil
}

// renderWindows draws tiled windows first, then floating ones, and the
// focused window last so its outline is never covered
func renderWindows(windows []models.Window, sc *ScalingContext, canvas *Canvas, showIDs bool) string {
	sorted := make([]models.Window, len(windows))
	copy(sorted, windows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return drawRank(sorted[i]) < drawRank(sorted[j])
	})

	canvas.DrawBox(0, 0, sc.TermWidth, sc.TermHeight, false)

	for _, win := range sorted {
		x, y, w, h := sc.RectToTerminal(win.Frame)
		// Skip if too small
		if w < 3 || h < 2 {
			continue
		}
		if win.IsFloating {
			canvas.ClearRect(x, y, w, h)
		}
		canvas.DrawBox(x, y, w, h, win.IsFocused)
		if h >= 3 {
			canvas.DrawText(x+1, y+1, w-2, windowLabel(win, showIDs))
		}
	}

	return canvas.String()
}

func drawRank(w models.Window) int {
	switch {
	case w.IsFocused:
		return 2
	case w.IsFloating || !w.Manageable:
		return 1
	}
	return 0
}

func windowLabel(win models.Window, showID bool) string {
	label := appLabel(win)
	if win.IsFloating {
		label += " ~"
	}
	if showID {
		return fmt.Sprintf("[%s] %s", win.ID, label)
	}
	return label
}

// getTerminalSize returns the current terminal dimensions
func getTerminalSize() (width, height int) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 {
		return 80, 24
	}
	return int(ws.Col), int(ws.Row)
}

func supportsUnicode() bool {
	lang := os.Getenv("LANG")
	lcAll := os.Getenv("LC_ALL")
	return strings.Contains(lang, "UTF-8") || strings.Contains(lcAll, "UTF-8")
}

// PrintVisualization writes one screen, or all of them when screen is
// negative
func PrintVisualization(w io.Writer, state *models.State, screen int, opts VisualizationOptions) error {
	var result string
	var err error

	if screen < 0 {
		result, err = VisualizeAllScreens(state, opts)
	} else {
		result, err = VisualizeScreen(state, screen, opts)
	}
	if err != nil {
		return err
	}

	if color.NoColor {
		_, err = fmt.Fprint(w, result)
		return err
	}
	_, err = color.New(color.FgCyan).Fprint(w, result)
	return err
}
