package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/yourusername/tiler/internal/models"
)

// Connection manages the Unix domain socket connection to the daemon
type Connection struct {
	socketPath string
	conn       net.Conn
	reader     *bufio.Reader
	timeout    time.Duration
}

// NewConnection creates a new connection instance
func NewConnection(socketPath string, timeout time.Duration) *Connection {
	return &Connection{
		socketPath: socketPath,
		timeout:    timeout,
	}
}

// Connect establishes the Unix domain socket connection
func (c *Connection) Connect() error {
	var err error
	c.conn, err = net.Dial("unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to socket %s: %w", c.socketPath, err)
	}
	c.reader = bufio.NewReader(c.conn)
	return nil
}

// Close closes the connection
func (c *Connection) Close() error {
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// SendRequest sends a request and waits for its response. Events that
// arrive first are skipped.
func (c *Connection) SendRequest(ctx context.Context, req *models.MessageEnvelope) (*models.Response, error) {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.write(req); err != nil {
		return nil, err
	}

	respChan := make(chan *models.Response, 1)
	errChan := make(chan error, 1)

	go func() {
		deadline := time.Now().Add(c.timeout)
		if d, ok := ctx.Deadline(); ok {
			deadline = d
		}
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			errChan <- fmt.Errorf("failed to set read deadline: %w", err)
			return
		}
		for {
			envelope, err := c.readEnvelope()
			if err != nil {
				errChan <- err
				return
			}
			if envelope.Type == models.TypeEvent {
				continue
			}
			if envelope.Type != models.TypeResponse {
				errChan <- fmt.Errorf("expected response, got %s", envelope.Type)
				return
			}
			if envelope.Response == nil {
				errChan <- fmt.Errorf("response envelope has nil response")
				return
			}
			if envelope.Response.ID != req.Request.ID {
				continue
			}
			respChan <- envelope.Response
			return
		}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("request cancelled or timed out: %w", ctx.Err())
	case err := <-errChan:
		return nil, err
	case resp := <-respChan:
		return resp, nil
	}
}

// ReadEvent blocks until the next event envelope arrives. There is no
// read deadline; close the connection to unblock it.
func (c *Connection) ReadEvent() (*models.Event, error) {
	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, fmt.Errorf("failed to clear read deadline: %w", err)
	}
	for {
		envelope, err := c.readEnvelope()
		if err != nil {
			return nil, err
		}
		if envelope.Type == models.TypeEvent && envelope.Event != nil {
			return envelope.Event, nil
		}
	}
}

// IsConnected returns true if the connection is established
func (c *Connection) IsConnected() bool {
	return c.conn != nil
}

func (c *Connection) write(env *models.MessageEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	// newline delimited
	data = append(data, '\n')
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}
	return nil
}

func (c *Connection) readEnvelope() (*models.MessageEnvelope, error) {
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var envelope models.MessageEnvelope
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &envelope, nil
}
