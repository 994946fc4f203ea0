package client

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"

	"github.com/yourusername/tiler/internal/models"
	"github.com/yourusername/tiler/internal/types"
)

const (
	socketName     = "tiler.sock"
	DefaultTimeout = 30 * time.Second
)

// DefaultSocketPath is $XDG_RUNTIME_DIR/tiler.sock, or /tmp/tiler.sock
// when there is no runtime directory.
func DefaultSocketPath() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, socketName)
	}
	return filepath.Join("/tmp", socketName)
}

// Client talks to a running tiler daemon
type Client struct {
	conn *Connection
}

// NewClient creates a new client; empty values pick the defaults
func NewClient(socketPath string, timeout time.Duration) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		conn: NewConnection(socketPath, timeout),
	}
}

// Connect establishes connection to the server
func (c *Client) Connect() error {
	return c.conn.Connect()
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// request is a helper to send a request and get the response
func (c *Client) request(ctx context.Context, method string, params any) (*models.Response, error) {
	if !c.conn.IsConnected() {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	req, err := models.NewRequest(uuid.New().String(), method, params)
	if err != nil {
		return nil, err
	}
	return c.conn.SendRequest(ctx, req)
}

// call sends method and decodes a successful result into out
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	resp, err := c.request(ctx, method, params)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("server error: %w", resp.Error)
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// Ping sends a ping request to test connectivity
func (c *Client) Ping(ctx context.Context) (*models.PingResult, error) {
	var out models.PingResult
	if err := c.call(ctx, models.MethodPing, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Workspaces lists the virtual workspaces of every managed space
func (c *Client) Workspaces(ctx context.Context) ([]models.Workspace, error) {
	var out []models.Workspace
	err := c.call(ctx, models.MethodWorkspaces, nil, &out)
	return out, err
}

// Windows lists the active-workspace windows of space, or every window
// when space is nil
func (c *Client) Windows(ctx context.Context, space *uint64) ([]models.Window, error) {
	var out []models.Window
	err := c.call(ctx, models.MethodWindows, models.SpaceParams{Space: space}, &out)
	return out, err
}

// Window returns one window, or nil when the daemon does not know it
func (c *Client) Window(ctx context.Context, wid types.WindowID) (*models.Window, error) {
	var out *models.Window
	err := c.call(ctx, models.MethodWindow, models.WindowParams{Window: wid.String()}, &out)
	return out, err
}

func (c *Client) Applications(ctx context.Context) ([]models.Application, error) {
	var out []models.Application
	err := c.call(ctx, models.MethodApplications, nil, &out)
	return out, err
}

func (c *Client) LayoutState(ctx context.Context, space uint64) (*models.LayoutState, error) {
	var out models.LayoutState
	if err := c.call(ctx, models.MethodLayoutState, models.SpaceParams{Space: &space}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Metrics(ctx context.Context) (*models.Metrics, error) {
	var out models.Metrics
	if err := c.call(ctx, models.MethodMetrics, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// State retrieves the complete daemon state
func (c *Client) State(ctx context.Context) (*models.State, error) {
	var raw json.RawMessage
	if err := c.call(ctx, models.MethodSerialize, nil, &raw); err != nil {
		return nil, err
	}
	return models.ParseState(raw)
}

// LayoutCommand runs a layout or workspace command, e.g. "move_focus left"
func (c *Client) LayoutCommand(ctx context.Context, name string, args ...string) error {
	return c.call(ctx, models.MethodLayoutCommand, models.CommandParams{Name: name, Args: args}, nil)
}

// ReactorCommand runs a reactor command, e.g. "save_and_exit"
func (c *Client) ReactorCommand(ctx context.Context, name string, args ...string) error {
	return c.call(ctx, models.MethodReactorCommand, models.CommandParams{Name: name, Args: args}, nil)
}

// ReloadConfig makes the daemon reload its configuration file, or path
// when set
func (c *Client) ReloadConfig(ctx context.Context, path string) error {
	return c.call(ctx, models.MethodConfigReload, models.ConfigReloadParams{Path: path}, nil)
}

// InjectEvent delivers a tagged event to the reactor mailbox
func (c *Client) InjectEvent(ctx context.Context, event json.RawMessage) error {
	return c.call(ctx, models.MethodInjectEvent, models.InjectParams{Event: event}, nil)
}

// Subscribe turns this connection into a request stream: handle is called
// for every outbound per-app request until ctx is done or the connection
// fails. The client cannot be used for other calls afterwards.
func (c *Client) Subscribe(ctx context.Context, handle func(models.OutboundRequest)) error {
	if err := c.call(ctx, models.MethodSubscribe, nil, nil); err != nil {
		return err
	}

	raw := c.conn.conn
	stop := context.AfterFunc(ctx, func() { raw.Close() })
	defer stop()

	for {
		ev, err := c.conn.ReadEvent()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if ev.EventType != models.EventRequest {
			continue
		}
		var out models.OutboundRequest
		if err := json.Unmarshal(ev.Data, &out); err != nil {
			return fmt.Errorf("failed to decode request event: %w", err)
		}
		handle(out)
	}
}

// CallMethod sends a generic request and returns the raw result
func (c *Client) CallMethod(ctx context.Context, method string, params any) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.call(ctx, method, params, &out)
	return out, err
}
