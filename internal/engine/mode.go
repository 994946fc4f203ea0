package engine

import (
	"github.com/yourusername/tiler/internal/config"
	"github.com/yourusername/tiler/internal/layout"
	"github.com/yourusername/tiler/internal/logging"
)

func modeFromConfig(s config.Settings) layout.Mode {
	mode, ok := layout.ParseMode(s.Layout.Mode)
	if !ok {
		logging.Warn().Str("mode", s.Layout.Mode).Msg("unknown layout mode, using traditional")
		return layout.ModeTraditional
	}
	return mode
}

// setMode re-tiles every layout under mode. Window order and selections
// carry over; the arrangement inside each layout starts fresh.
func (e *LayoutEngine) setMode(mode layout.Mode) {
	e.mode = mode
	if e.tree.Mode() == mode {
		return
	}
	tree, ids := convertLayouts(e.tree, mode)
	e.tree = tree
	e.layouts.remap(ids)
	for wid, a := range e.floatAnchors {
		a.layout, a.placed = ids[a.layout], false
		e.floatAnchors[wid] = a
	}
	logging.Info().Str("mode", string(mode)).Int("layouts", len(ids)).Msg("layout mode changed")
}

// convertLayouts copies every layout of src into a new tiler of mode and
// returns it with the mapping from old to new layout ids.
func convertLayouts(src layout.Tiler, mode layout.Mode) (layout.Tiler, map[layout.LayoutID]layout.LayoutID) {
	dst := layout.NewTiler(mode)
	ids := make(map[layout.LayoutID]layout.LayoutID)
	for _, id := range src.LayoutIDs() {
		next := dst.CreateLayout()
		for _, wid := range src.Windows(id) {
			dst.AddWindowAfterSelection(next, wid)
		}
		if sel, ok := src.SelectedWindow(id); ok {
			dst.SelectWindow(next, sel)
		}
		ids[id] = next
	}
	return dst, ids
}
