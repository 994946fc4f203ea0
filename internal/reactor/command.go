package reactor

import (
	"encoding/json"
	"strings"

	"github.com/yourusername/tiler/internal/config"
	"github.com/yourusername/tiler/internal/engine"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/raise"
	"github.com/yourusername/tiler/internal/types"
)

func (r *Reactor) layoutCommand(cmd engine.LayoutCommand) {
	if cmd == nil {
		return
	}
	if engine.IsWorkspaceCommand(cmd) {
		space := r.workspaceCommandSpace()
		if space == 0 {
			logging.Debug().Str("cmd", cmd.Name()).Msg("no space for workspace command")
			return
		}
		if engine.IsWorkspaceSwitch(cmd) {
			r.beginWorkspaceSwitch(space)
		}
		r.handleLayoutResponse(r.engine.HandleVirtualWorkspaceCommand(space, cmd))
		return
	}
	space := r.workspaceCommandSpace()
	r.handleLayoutResponse(r.engine.HandleCommand(space, r.visibleSpaces(), cmd))
}

func (r *Reactor) reactorCommand(cmd Command) {
	switch c := cmd.(type) {
	case Debug:
		r.debug()
	case Serialize:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r.serialize()); err != nil {
			logging.Error().Err(err).Msg("failed to write snapshot")
		}
	case SaveAndExit:
		r.saveAndExit()
	case SwitchSpace:
		if err := r.sink.Send(0, Request{Kind: ReqSwitchSpace, Dir: c.Direction.String()}); err != nil {
			logging.Debug().Err(err).Msg("space switch not delivered")
		}
	case FocusWindow:
		r.focusWindow(c)
	case SetMissionControlActive:
		r.setMissionControl(c.Active)
	case nil:
	default:
		logging.Warn().Str("cmd", cmd.Name()).Msg("unhandled reactor command")
	}
}

func (r *Reactor) debug() {
	for _, space := range r.visibleSpaces() {
		logging.Info().Stringer("space", space).Msg("layout\n" + r.engine.Draw(space))
	}
	stats := r.engine.Stats()
	logging.Info().
		Int("windows", len(r.windows)).
		Int("apps", len(r.apps)).
		Int("tiled", stats.TiledWindows).
		Int("floating", stats.FloatingWindows).
		Int("menuDepth", r.menuDepth).
		Bool("inDrag", r.inDrag()).
		Msg("reactor state")
}

func (r *Reactor) saveAndExit() {
	if r.statePath == "" {
		logging.Error().Msg("no layout state path configured")
		r.exit(ExitSaveFailed)
		return
	}
	if err := r.engine.Save(r.statePath); err != nil {
		logging.Error().Err(err).Str("path", r.statePath).Msg("failed to save layout")
		r.exit(ExitSaveFailed)
		return
	}
	logging.Info().Str("path", r.statePath).Msg("layout saved")
	r.exit(0)
}

// focusWindow raises wid and makes it the engine's focus. A window the
// reactor has not seen yet is raised directly by its app.
func (r *Reactor) focusWindow(c FocusWindow) {
	if st, ok := r.windows[c.Window]; ok {
		if space := r.bestSpace(st.Frame); space != 0 {
			r.sendLayout(engine.WindowFocused{Spaces: []types.SpaceID{space}, Window: c.Window})
		}
		wid := c.Window
		r.handleLayoutResponse(engine.EventResponse{FocusWindow: &wid})
		return
	}
	if c.ServerID == nil {
		logging.Debug().Stringer("wid", c.Window).Msg("focus for unknown window")
		return
	}
	pid := c.Window.Pid
	if info, ok := r.serverInfo[*c.ServerID]; ok {
		pid = info.Pid
	}
	req := raise.Request{Windows: []types.WindowID{c.Window}, Focus: true}
	if err := r.send(pid, Request{Kind: ReqRaise, Raise: &req}); err != nil {
		logging.Debug().Err(err).Stringer("wid", c.Window).Msg("direct raise not delivered")
	}
}

func (r *Reactor) configUpdated(cfg *config.Config) {
	if cfg == nil {
		return
	}
	r.cfg = cfg
	r.engine.SetSettings(cfg)
	if lvl := strings.TrimSpace(cfg.Settings.LogLevel); lvl != "" {
		logging.SetLevel(lvl)
	}
	logging.Info().Msg("configuration updated")
}
