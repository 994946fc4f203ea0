package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yourusername/tiler/internal/client"
	"github.com/yourusername/tiler/internal/logging"
	"github.com/yourusername/tiler/internal/models"
	"github.com/yourusername/tiler/internal/output"
	"github.com/yourusername/tiler/internal/types"
)

const version = "0.1.0"

var (
	socketPath string
	timeout    time.Duration
	jsonOutput bool
	noColor    bool
	verbose    bool

	// Color functions
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	keyColor     = color.New(color.FgYellow)
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "tiler",
	Short: "Tiling window manager daemon and client",
	Long: `Tiler arranges windows into layout trees over virtual workspaces.

Run "tiler serve" to start the daemon; the other commands talk to a
running daemon over its unix socket.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		return logging.Init(logLevel())
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test connection to the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		start := time.Now()
		result, err := c.Ping(context.Background())
		elapsed := time.Since(start)
		if err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}

		if jsonOutput {
			return printJSON(result)
		}

		successColor.Println("✓ Pong received")
		fmt.Printf("Response time: %v\n", elapsed)
		printField("Version", result.Version)
		printField("Uptime", result.Uptime)
		return nil
	},
}

var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "List virtual workspaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		workspaces, err := c.Workspaces(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list workspaces: %w", err)
		}
		if jsonOutput {
			return printJSON(workspaces)
		}
		return output.PrintWorkspacesTable(os.Stdout, workspaces)
	},
}

var windowsSpace uint64

var windowsCmd = &cobra.Command{
	Use:   "windows [window-id]",
	Short: "List windows, or show one window",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(socketPath, timeout)
		defer c.Close()
		ctx := context.Background()

		if len(args) == 1 {
			return showWindow(ctx, c, args[0])
		}

		var space *uint64
		if cmd.Flags().Changed("space") {
			space = &windowsSpace
		}
		windows, err := c.Windows(ctx, space)
		if err != nil {
			return fmt.Errorf("failed to list windows: %w", err)
		}
		if jsonOutput {
			return printJSON(windows)
		}
		return output.PrintWindowsTable(os.Stdout, windows)
	},
}

func showWindow(ctx context.Context, c *client.Client, arg string) error {
	wid, err := types.ParseWindowID(arg)
	if err != nil {
		return err
	}
	win, err := c.Window(ctx, wid)
	if err != nil {
		return fmt.Errorf("failed to get window: %w", err)
	}
	if win == nil {
		return fmt.Errorf("window %s not found", wid)
	}
	if jsonOutput {
		return printJSON(win)
	}

	apps, err := c.Applications(ctx)
	if err != nil {
		return err
	}
	var app *models.Application
	for i := range apps {
		if apps[i].Pid == int32(wid.Pid) {
			app = &apps[i]
		}
	}
	output.PrintWindowDetail(os.Stdout, win, app)
	return nil
}

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List tracked applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		apps, err := c.Applications(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list applications: %w", err)
		}
		if jsonOutput {
			return printJSON(apps)
		}
		return output.PrintApplicationsTable(os.Stdout, apps)
	},
}

var layoutStateCmd = &cobra.Command{
	Use:   "layout-state <space>",
	Short: "Show the active layout of a space",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		space, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid space id %q", args[0])
		}

		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		ls, err := c.LayoutState(context.Background(), space)
		if err != nil {
			return fmt.Errorf("failed to get layout state: %w", err)
		}
		if jsonOutput {
			return printJSON(ls)
		}
		output.PrintLayoutState(os.Stdout, ls)
		return nil
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show daemon metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		m, err := c.Metrics(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get metrics: %w", err)
		}
		if jsonOutput {
			return printJSON(m)
		}
		return output.PrintMetrics(os.Stdout, m)
	},
}

var (
	visScreen  int
	visASCII   bool
	visUnicode bool
	visNoIDs   bool
	visWidth   int
	visHeight  int
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Draw the windows of each screen",
	Long:  `Draws the visible windows of every screen (or of --screen) as boxes. The focused window has a heavier outline; floating windows are marked with ~.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		st, err := c.State(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get state: %w", err)
		}
		if jsonOutput {
			return printJSON(st)
		}
		return output.PrintVisualization(os.Stdout, st, visScreen, visualizationOptions())
	},
}

func visualizationOptions() output.VisualizationOptions {
	opts := output.DefaultVisualizationOptions()
	if visASCII {
		opts.UseUnicode = false
	}
	if visUnicode {
		opts.UseUnicode = true
	}
	if visNoIDs {
		opts.ShowIDs = false
	}
	if visWidth > 0 {
		opts.MaxWidth = visWidth
	}
	if visHeight > 0 {
		opts.MaxHeight = visHeight
	}
	return opts
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Dump the complete daemon state as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		raw, err := c.CallMethod(context.Background(), models.MethodSerialize, nil)
		if err != nil {
			return fmt.Errorf("failed to get state: %w", err)
		}
		return printJSON(raw)
	},
}

func main() {
	defer logging.Close()

	if err := rootCmd.Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", client.DefaultSocketPath(), "Unix socket path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(workspacesCmd)
	rootCmd.AddCommand(windowsCmd)
	rootCmd.AddCommand(appsCmd)
	rootCmd.AddCommand(layoutStateCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(visualizeCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(reactorCmd)
	rootCmd.AddCommand(saveAndExitCmd)
	rootCmd.AddCommand(injectCmd)
	rootCmd.AddCommand(subscribeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configReloadCmd)

	windowsCmd.Flags().Uint64Var(&windowsSpace, "space", 0, "Only windows on this space")

	visualizeCmd.Flags().IntVar(&visScreen, "screen", -1, "Screen index (default: all screens)")
	visualizeCmd.Flags().BoolVar(&visASCII, "ascii", false, "Force ASCII mode (no Unicode)")
	visualizeCmd.Flags().BoolVar(&visUnicode, "unicode", false, "Force Unicode mode")
	visualizeCmd.Flags().BoolVar(&visNoIDs, "no-ids", false, "Hide window ids")
	visualizeCmd.Flags().IntVar(&visWidth, "width", 0, "Override terminal width")
	visualizeCmd.Flags().IntVar(&visHeight, "height", 0, "Override canvas height")

	initServeFlags()
}

// Helper functions

func logLevel() string {
	if verbose {
		return "debug"
	}
	return "info"
}

func printJSON(data any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printError(msg string) {
	if noColor {
		fmt.Fprintln(os.Stderr, "Error:", msg)
	} else {
		errorColor.Fprint(os.Stderr, "✗ Error: ")
		fmt.Fprintln(os.Stderr, msg)
	}
}

func printField(key, value string) {
	keyColor.Printf("%s: ", key)
	fmt.Println(value)
}
