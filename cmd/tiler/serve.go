package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/tiler/internal/config"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/metrics"
	"github.com/yourusername/tiler/internal/raise"
	"github.com/yourusername/tiler/internal/reactor"
	"github.com/yourusername/tiler/internal/server"
	"github.com/yourusername/tiler/internal/state"
)

// mailboxSize bounds the reactor's inbound queue
const mailboxSize = 1024

var (
	serveConfig      string
	serveMetricsAddr string
	serveStatePath   string
	serveLogStderr   bool
	serveNoRestore   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the window manager daemon",
	Long: `Runs the reactor, the raise manager and the socket server until
interrupted or until a save-and-exit command arrives. Observers and
per-app actors connect to the socket: they deliver events with
events.inject and receive requests with requests.subscribe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveLogStderr {
			w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
			if err := logging.InitWriter(w, logLevel()); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		code, err := serve(ctx)
		if err != nil {
			return err
		}
		if code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

func initServeFlags() {
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Config file (default: first config.{yaml,toml,json} in the config dir)")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address, e.g. 127.0.0.1:9464")
	serveCmd.Flags().StringVar(&serveStatePath, "state", state.GetStatePath(), "Layout state file")
	serveCmd.Flags().BoolVar(&serveLogStderr, "log-stderr", false, "Log to stderr instead of the log file")
	serveCmd.Flags().BoolVar(&serveNoRestore, "no-restore", false, "Do not restore the saved layout state")
}

// serve runs the daemon and returns the exit code requested by the
// reactor.
func serve(ctx context.Context) (int, error) {
	cfgPath := serveConfig
	if cfgPath == "" {
		cfgPath = config.FindConfigFile()
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return 1, fmt.Errorf("failed to load config: %w", err)
	}
	store := config.NewStore(nil)
	apply := func(next *config.Config) {
		store.Replace(next)
		if !verbose && next.Settings.LogLevel != "" {
			logging.SetLevel(next.Settings.LogLevel)
		}
	}
	apply(cfg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exitCode := make(chan int, 1)
	events := make(chan reactor.Event, mailboxSize)
	m := metrics.New()

	srv := server.New(server.Options{
		SocketPath: socketPath,
		Events:     events,
		Metrics:    m,
		Reload: func(path string) (*config.Config, error) {
			if path == "" {
				path = cfgPath
			}
			next, err := config.LoadConfig(path)
			if err != nil {
				return nil, err
			}
			apply(next)
			return next, nil
		},
		Version: version,
	})
	if err := srv.Listen(); err != nil {
		return 1, err
	}

	sink := srv.Sink()
	raiser := raise.New(reactor.RaiseSender(sink), raise.WithWarp(reactor.WarpFunc(sink)))
	r := reactor.New(reactor.Options{
		Config:    cfg,
		Sink:      sink,
		Raiser:    raiser,
		Metrics:   m,
		StatePath: serveStatePath,
		Exit: func(code int) {
			select {
			case exitCode <- code:
			default:
			}
			cancel()
		},
	})

	if !serveNoRestore {
		restored, err := r.Engine().Load(serveStatePath, nil)
		switch {
		case err != nil:
			logging.Warn().Err(err).Str("path", serveStatePath).Msg("ignoring saved layout state")
		case restored:
			logging.Info().Str("path", serveStatePath).Msg("layout state restored")
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.Run(gctx, events) })
	g.Go(func() error { return raiser.Run(gctx) })
	g.Go(func() error { return srv.Serve(gctx) })

	if serveMetricsAddr != "" {
		hs := &http.Server{Addr: serveMetricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logging.Info().Str("addr", serveMetricsAddr).Msg("metrics listening")
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return hs.Shutdown(shutdownCtx)
		})
	}

	if cfgPath != "" {
		g.Go(func() error {
			err := config.Watch(gctx, cfgPath, config.DefaultWatchDebounce, func(next *config.Config) {
				// hotReload of the config in effect decides
				if !store.Load().Settings.HotReload {
					return
				}
				apply(next)
				select {
				case events <- reactor.ConfigUpdated{Config: next}:
				case <-gctx.Done():
				}
			})
			if err != nil {
				logging.Warn().Err(err).Str("path", cfgPath).Msg("config hot reload unavailable")
			}
			return nil
		})
	}

	logging.Info().Str("socket", socketPath).Str("config", cfgPath).Msg("daemon started")
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	select {
	case code := <-exitCode:
		logging.Info().Int("code", code).Msg("daemon exiting")
		return code, err
	default:
		logging.Info().Msg("daemon stopped")
		return 0, err
	}
}
