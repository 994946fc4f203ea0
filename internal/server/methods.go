package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/tiler/internal/engine"
	"github.com/yourusername/tiler/internal/models"
	"github.com/yourusername/tiler/internal/reactor"
	"github.com/yourusername/tiler/internal/types"
)

func invalidParams(format string, args ...any) *models.ErrorInfo {
	return &models.ErrorInfo{Code: models.CodeInvalidParams, Message: fmt.Sprintf(format, args...)}
}

func decode(req *models.Request, v any) *models.ErrorInfo {
	if err := req.DecodeParams(v); err != nil {
		return invalidParams("invalid params for %s: %v", req.Method, err)
	}
	return nil
}

func (s *Server) dispatch(ctx context.Context, c *conn, req *models.Request) (any, *models.ErrorInfo) {
	switch req.Method {
	case models.MethodPing:
		now := s.opts.Now()
		return models.PingResult{
			Pong:      true,
			Version:   s.opts.Version,
			Uptime:    now.Sub(s.started).Round(time.Second).String(),
			Timestamp: now,
		}, nil

	case models.MethodWorkspaces:
		return s.query(ctx, reactor.QueryWorkspaces{})
	case models.MethodWindows:
		var p models.SpaceParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		q := reactor.QueryWindows{}
		if p.Space != nil {
			space := types.SpaceID(*p.Space)
			q.Space = &space
		}
		return s.query(ctx, q)
	case models.MethodWindow:
		var p models.WindowParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		wid, err := types.ParseWindowID(p.Window)
		if err != nil {
			return nil, invalidParams("%v", err)
		}
		return s.query(ctx, reactor.QueryWindowInfo{Window: wid})
	case models.MethodApplications:
		return s.query(ctx, reactor.QueryApplications{})
	case models.MethodLayoutState:
		var p models.SpaceParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		if p.Space == nil {
			return nil, invalidParams("space is required")
		}
		return s.query(ctx, reactor.QueryLayoutState{Space: *p.Space})
	case models.MethodMetrics:
		return s.query(ctx, reactor.QueryMetrics{})
	case models.MethodSerialize:
		return s.query(ctx, reactor.QuerySerialize{})

	case models.MethodLayoutCommand:
		var p models.CommandParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		cmd, err := engine.ParseCommand(p.Name, p.Args)
		if err != nil {
			return nil, invalidParams("%v", err)
		}
		return s.submit(ctx, reactor.LayoutCommand{Command: cmd})
	case models.MethodReactorCommand:
		var p models.CommandParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		cmd, err := reactor.ParseCommand(p.Name, p.Args)
		if err != nil {
			return nil, invalidParams("%v", err)
		}
		return s.submit(ctx, reactor.ReactorCommand{Command: cmd})
	case models.MethodConfigReload:
		var p models.ConfigReloadParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		if s.opts.Reload == nil {
			return nil, &models.ErrorInfo{Code: models.CodeServerError, Message: "config reload is not available"}
		}
		cfg, err := s.opts.Reload(p.Path)
		if err != nil {
			return nil, &models.ErrorInfo{Code: models.CodeServerError, Message: err.Error()}
		}
		return s.submit(ctx, reactor.ConfigUpdated{Config: cfg})

	case models.MethodInjectEvent:
		var p models.InjectParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		ev, err := reactor.DecodeEvent(p.Event)
		if err != nil {
			return nil, invalidParams("%v", err)
		}
		return s.submit(ctx, ev)
	case models.MethodSubscribe:
		s.subscribe(c)
		return models.Ack{OK: true}, nil
	}
	return nil, &models.ErrorInfo{Code: models.CodeMethodNotFound, Message: "method not found: " + req.Method}
}

func timeoutError(what string) *models.ErrorInfo {
	return &models.ErrorInfo{Code: models.CodeTimeout, Message: what + " timed out"}
}

// submit puts ev in the reactor mailbox.
func (s *Server) submit(ctx context.Context, ev reactor.Event) (any, *models.ErrorInfo) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()
	select {
	case s.opts.Events <- ev:
		return models.Ack{OK: true}, nil
	case <-ctx.Done():
		return nil, timeoutError(reactor.EventName(ev))
	}
}

// query sends q to the reactor and waits for its one-shot reply.
func (s *Server) query(ctx context.Context, q reactor.QueryRequest) (any, *models.ErrorInfo) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	reply := make(chan reactor.QueryResult, 1)
	select {
	case s.opts.Events <- reactor.Query{Request: q, Reply: reply}:
	case <-ctx.Done():
		return nil, timeoutError("query")
	}
	select {
	case res := <-reply:
		if res.Err != nil {
			code := models.CodeServerError
			if errors.Is(res.Err, reactor.ErrSpaceNotFound) {
				code = models.CodeInvalidParams
			}
			return nil, &models.ErrorInfo{Code: code, Message: res.Err.Error()}
		}
		return res.Value, nil
	case <-ctx.Done():
		return nil, timeoutError("query")
	}
}
