package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/models"
)

const writeTimeout = 5 * time.Second

// conn is one client connection. Requests are handled in order; writes go
// through a single writer goroutine so responses and pushed events never
// interleave mid-line.
type conn struct {
	srv     *Server
	nc      net.Conn
	limiter *rate.Limiter
	out     chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func (c *conn) serve(ctx context.Context) {
	go c.writeLoop()
	defer c.close()

	scanner := bufio.NewScanner(c.nc)
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		c.send(c.handleLine(ctx, line))
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		logging.Debug().Err(err).Msg("connection read failed")
	}
}

func (c *conn) handleLine(ctx context.Context, line []byte) *models.MessageEnvelope {
	var env models.MessageEnvelope
	if err := json.Unmarshal(line, &env); err != nil {
		return models.NewErrorResponse("", models.CodeParseError, "parse error: "+err.Error())
	}
	if env.Type != models.TypeRequest || env.Request == nil {
		return models.NewErrorResponse("", models.CodeInvalidRequest, "expected a request envelope")
	}
	req := env.Request
	if !c.limiter.Allow() {
		c.srv.opts.Metrics.ObserveIPC(req.Method, false)
		return models.NewErrorResponse(req.ID, models.CodeRateLimited, "rate limit exceeded")
	}

	result, rerr := c.srv.dispatch(ctx, c, req)
	c.srv.opts.Metrics.ObserveIPC(req.Method, rerr == nil)
	if rerr != nil {
		logging.Debug().Str("method", req.Method).Int("code", rerr.Code).Str("error", rerr.Message).Msg("request failed")
		return models.NewErrorResponse(req.ID, rerr.Code, rerr.Message)
	}
	resp, err := models.NewResponse(req.ID, result)
	if err != nil {
		logging.Error().Err(err).Str("method", req.Method).Msg("failed to encode result")
		return models.NewErrorResponse(req.ID, models.CodeServerError, err.Error())
	}
	return resp
}

// send queues a response, waiting for room unless the connection closes.
func (c *conn) send(env *models.MessageEnvelope) {
	line, err := json.Marshal(env)
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode envelope")
		return
	}
	select {
	case c.out <- line:
	case <-c.done:
	}
}

// enqueue queues a pushed event without blocking the caller.
func (c *conn) enqueue(line []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- line:
		return true
	default:
		return false
	}
}

func (c *conn) writeLoop() {
	for {
		select {
		case line := <-c.out:
			if err := c.nc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				c.close()
				return
			}
			if _, err := c.nc.Write(append(line, '\n')); err != nil {
				logging.Debug().Err(err).Msg("connection write failed")
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.nc.Close()
	})
}
