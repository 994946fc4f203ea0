// Package server exposes the reactor over a unix socket. Each line is a
// JSON envelope; queries wait for the reactor's reply, commands and
// injected events are acknowledged once they are in the mailbox.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yourusername/tiler/internal/config"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/metrics"
	"github.com/yourusername/tiler/internal/models"
	"github.com/yourusername/tiler/internal/reactor"
	"github.com/yourusername/tiler/internal/types"
)

const (
	DefaultQueryTimeout = 5 * time.Second
	DefaultRate         = 50
	DefaultBurst        = 100

	// outbound lines buffered per connection before events are dropped
	sendQueue = 256
	maxLine   = 1 << 20
)

// ErrNoSubscriber is returned by the request sink when no collaborator is
// listening.
var ErrNoSubscriber = errors.New("no request subscriber")

// Options configures a Server. Events is required.
type Options struct {
	SocketPath string
	Events     chan<- reactor.Event
	Metrics    *metrics.Metrics
	// Reload loads the configuration from path, or from the daemon's
	// config path when empty.
	Reload       func(path string) (*config.Config, error)
	QueryTimeout time.Duration
	Rate         rate.Limit
	Burst        int
	Version      string
	// SkipPeerCheck accepts connections from other users.
	SkipPeerCheck bool
	Now           func() time.Time
}

type Server struct {
	opts     Options
	started  time.Time
	listener net.Listener

	mu          sync.Mutex
	conns       map[*conn]struct{}
	subscribers map[*conn]struct{}
	wg          sync.WaitGroup
}

func New(opts Options) *Server {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	if opts.Rate <= 0 {
		opts.Rate = DefaultRate
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		opts:        opts,
		started:     opts.Now(),
		conns:       make(map[*conn]struct{}),
		subscribers: make(map[*conn]struct{}),
	}
}

// Listen creates the socket, replacing a stale one.
func (s *Server) Listen() error {
	path := s.opts.SocketPath
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	l, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("failed to create socket: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		l.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}
	s.listener = l
	logging.Info().Str("socket", path).Msg("server listening")
	return nil
}

// Serve accepts connections until ctx is done. Listen must have been
// called.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}
	stop := context.AfterFunc(ctx, func() { s.listener.Close() })
	defer stop()

	for {
		nc, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			logging.Warn().Err(err).Msg("accept failed")
			continue
		}
		if !s.opts.SkipPeerCheck {
			if err := checkPeer(nc); err != nil {
				logging.Warn().Err(err).Msg("rejected connection")
				nc.Close()
				continue
			}
		}
		c := s.newConn(nc)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.serve(ctx)
			s.drop(c)
		}()
	}

	s.mu.Lock()
	for c := range s.conns {
		c.close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	os.Remove(s.opts.SocketPath)
	return nil
}

// ListenAndServe is Listen followed by Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) newConn(nc net.Conn) *conn {
	c := &conn{
		srv:     s,
		nc:      nc,
		limiter: rate.NewLimiter(s.opts.Rate, s.opts.Burst),
		out:     make(chan []byte, sendQueue),
		done:    make(chan struct{}),
	}
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	return c
}

func (s *Server) drop(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	delete(s.subscribers, c)
	s.mu.Unlock()
}

func (s *Server) subscribe(c *conn) {
	s.mu.Lock()
	s.subscribers[c] = struct{}{}
	s.mu.Unlock()
	logging.Info().Msg("request subscriber attached")
}

// Sink returns the reactor sink that forwards every outbound request to
// the subscribed connections.
func (s *Server) Sink() reactor.Sink {
	return reactor.SinkFunc(s.broadcast)
}

func (s *Server) broadcast(pid types.Pid, req reactor.Request) error {
	s.mu.Lock()
	subs := make([]*conn, 0, len(s.subscribers))
	for c := range s.subscribers {
		subs = append(subs, c)
	}
	s.mu.Unlock()
	if len(subs) == 0 {
		return ErrNoSubscriber
	}

	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	env, err := models.NewEvent(models.EventRequest, models.OutboundRequest{Pid: int32(pid), Request: raw}, s.opts.Now())
	if err != nil {
		return err
	}
	line, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	for _, c := range subs {
		if !c.enqueue(line) {
			logging.Warn().Int32("pid", int32(pid)).Str("kind", string(req.Kind)).Msg("subscriber queue full, request dropped")
		}
	}
	return nil
}
