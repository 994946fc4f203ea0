package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourusername/tiler/internal/client"
	"github.com/yourusername/tiler/internal/config"
	"github.com/yourusername/tiler/internal/engine"
	"github.com/yourusername/tiler/internal/models"
	"github.com/yourusername/tiler/internal/reactor"
)

// layoutCmd sends a layout or workspace command to the daemon
var layoutCmd = &cobra.Command{
	Use:   "cmd <layout-command> [args...]",
	Short: "Run a layout command",
	Long: `Runs a layout or workspace command on the focused space, for example:

  tiler cmd move_focus left
  tiler cmd toggle_float
  tiler cmd switch_to_workspace 2
  tiler cmd create_workspace scratch`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// parse locally so typos fail before reaching the daemon
		if _, err := engine.ParseCommand(args[0], args[1:]); err != nil {
			return err
		}

		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		if err := c.LayoutCommand(context.Background(), args[0], args[1:]...); err != nil {
			return fmt.Errorf("command failed: %w", err)
		}
		if !jsonOutput {
			successColor.Printf("✓ %s\n", strings.Join(args, " "))
		}
		return nil
	},
}

var reactorCmd = &cobra.Command{
	Use:   "reactor <command> [args...]",
	Short: "Run a reactor command (debug, serialize, switch_space, focus_window, ...)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := reactor.ParseCommand(args[0], args[1:]); err != nil {
			return err
		}

		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		if err := c.ReactorCommand(context.Background(), args[0], args[1:]...); err != nil {
			return fmt.Errorf("command failed: %w", err)
		}
		return nil
	},
}

var saveAndExitCmd = &cobra.Command{
	Use:   "save-and-exit",
	Short: "Save the layout state and stop the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		if err := c.ReactorCommand(context.Background(), "save_and_exit"); err != nil {
			return fmt.Errorf("save-and-exit failed: %w", err)
		}
		successColor.Println("✓ Daemon is saving and exiting")
		return nil
	},
}

var injectCmd = &cobra.Command{
	Use:   "inject <event-json|->",
	Short: "Deliver an event to the daemon",
	Long: `Delivers a tagged event, e.g. {"type":"mouseUp"}, to the reactor.
With "-" the event is read from stdin.

Event types: ` + strings.Join(reactor.InjectableEvents(), ", "),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := []byte(args[0])
		if args[0] == "-" {
			var err error
			if raw, err = io.ReadAll(os.Stdin); err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
		}
		if _, err := reactor.DecodeEvent(raw); err != nil {
			return err
		}

		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		if err := c.InjectEvent(context.Background(), raw); err != nil {
			return fmt.Errorf("inject failed: %w", err)
		}
		return nil
	},
}

var subscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Print outbound per-app requests as JSON lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		enc := json.NewEncoder(os.Stdout)
		err := c.Subscribe(ctx, func(req models.OutboundRequest) {
			if err := enc.Encode(req); err != nil {
				stop()
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// configCmd groups config operations
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Show the effective configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(optionalArg(args))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return printJSON(cfg)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := optionalArg(args)
		if path == "" {
			path = config.FindConfigFile()
		}
		if path == "" {
			fmt.Println("No config file found; built-in defaults are in use")
			return nil
		}

		cfg, err := config.ReadConfig(path)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		issues := cfg.Validate()
		if jsonOutput {
			return printJSON(map[string]any{"path": path, "issues": issues, "fixable": cfg.Clone().AutoFix()})
		}
		if len(issues) == 0 {
			successColor.Println("✓ Configuration is valid")
			printField("  Workspaces", fmt.Sprint(cfg.VirtualWorkspaces.DefaultWorkspaceCount))
			printField("  App Rules", fmt.Sprint(len(cfg.VirtualWorkspaces.AppRules)))
			return nil
		}

		for _, issue := range issues {
			errorColor.Print("✗ ")
			fmt.Println(issue)
		}
		fixable := cfg.Clone().AutoFix()
		fmt.Printf("%d issue(s), %d value(s) will be corrected on load\n", len(issues), fixable)
		return fmt.Errorf("%s has %d issue(s)", path, len(issues))
	},
}

var configReloadCmd = &cobra.Command{
	Use:   "reload [path]",
	Short: "Make the daemon reload its configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		if err := c.ReloadConfig(context.Background(), optionalArg(args)); err != nil {
			return fmt.Errorf("reload failed: %w", err)
		}
		successColor.Println("✓ Configuration reloaded")
		return nil
	},
}

func optionalArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
