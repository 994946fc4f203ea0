package models

import (
	"encoding/json"
	"time"
)

// Methods served over the socket
const (
	MethodPing           = "ping"
	MethodWorkspaces     = "query.workspaces"
	MethodWindows        = "query.windows"
	MethodWindow         = "query.window"
	MethodApplications   = "query.applications"
	MethodLayoutState    = "query.layoutState"
	MethodMetrics        = "query.metrics"
	MethodSerialize      = "serialize"
	MethodLayoutCommand  = "command.layout"
	MethodReactorCommand = "command.reactor"
	MethodConfigReload   = "config.reload"
	MethodInjectEvent    = "events.inject"
	MethodSubscribe      = "requests.subscribe"
)

// EventRequest is the event type carrying an outbound per-app request to
// subscribers.
const EventRequest = "request"

type SpaceParams struct {
	Space *uint64 `json:"space,omitempty"`
}

type WindowParams struct {
	Window string `json:"window"`
}

// CommandParams names a layout or reactor command and its arguments, in
// the same form the CLI takes them.
type CommandParams struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

// InjectParams carries a tagged inbound event: {"type": ..., "data": ...}
type InjectParams struct {
	Event json.RawMessage `json:"event"`
}

type ConfigReloadParams struct {
	Path string `json:"path,omitempty"`
}

type PingResult struct {
	Pong      bool      `json:"pong"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// Ack is the result of methods that only report acceptance
type Ack struct {
	OK bool `json:"ok"`
}

// OutboundRequest is the data of a "request" event
type OutboundRequest struct {
	Pid     int32           `json:"pid"`
	Request json.RawMessage `json:"request"`
}
