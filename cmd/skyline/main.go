package main

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yourusername/skyline/internal/daemon"
	"github.com/yourusername/skyline/internal/geometry"
	"github.com/yourusername/skyline/internal/ipc"
	"github.com/yourusername/skyline/internal/output"
	"github.com/yourusername/skyline/internal/platform"
)

var (
	socketPath string
	timeout    time.Duration
	jsonOutput bool
	noColor    bool

	// Color functions
	errorColor = color.New(color.FgRed, color.Bold)
	infoColor  = color.New(color.FgCyan)
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "skyline",
	Short: "Skyline - tiling window manager for macOS",
	Long: `Skyline is a tiling window manager daemon and its client.

The daemon observes windows, spaces and displays and reshapes them
into deterministic layouts. The client sends commands and queries
over a local socket.`,
	Version: "0.1.0",
}

// daemonCmd runs the window manager daemon
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the window manager daemon",
	Long: `Starts the daemon on the current user's session.

The daemon refuses to start when another instance holds the lock
file. Without a native host backend it runs against the simulated
host, which is useful for development and scripting tests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")

		adapter, sa := newHostBackend()
		return daemon.Run(adapter, sa, daemon.Options{
			ConfigPath: cfgPath,
			Debug:      debug,
		})
	},
}

// newHostBackend returns the platform backend. The native macOS
// adapter attaches through the platform.Adapter contract; this build
// ships the simulated host seeded with one display and space.
func newHostBackend() (platform.Adapter, platform.SAChannel) {
	fake := platform.NewFake()
	fake.AddDisplay(platform.DisplayInfo{
		ID:      1,
		Frame:   geometry.Rect{Width: 1920, Height: 1080},
		Builtin: true,
		Main:    true,
	})
	fake.AddSpace(platform.SpaceInfo{ID: 1, Kind: platform.SpaceUser, Display: 1})
	return fake, fake
}

// send performs one request round trip against the daemon.
func send(args []string) ([]byte, error) {
	return ipc.Send(socketPath, args, timeout)
}

// passthrough forwards CLI arguments verbatim to the daemon and
// prints whatever comes back.
func passthrough(domain string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		data, err := send(append([]string{domain}, args...))
		if err != nil {
			return err
		}
		if len(data) > 0 {
			os.Stdout.Write(data)
		}
		return nil
	}
}

var windowCmd = &cobra.Command{
	Use:                "window [selector] --verb [args]",
	Short:              "Focus, move, swap, warp or toggle windows",
	DisableFlagParsing: true,
	RunE:               passthrough("window"),
}

var spaceCmd = &cobra.Command{
	Use:                "space [selector] --verb [args]",
	Short:              "Label, create, destroy, focus or reshape spaces",
	DisableFlagParsing: true,
	RunE:               passthrough("space"),
}

var displayCmd = &cobra.Command{
	Use:                "display [selector] --verb [args]",
	Short:              "Operate on displays",
	DisableFlagParsing: true,
	RunE:               passthrough("display"),
}

var configCmd = &cobra.Command{
	Use:                "config get|set|--reload [args]",
	Short:              "Read or change daemon configuration",
	DisableFlagParsing: true,
	RunE:               passthrough("config"),
}

var ruleCmd = &cobra.Command{
	Use:                "rule --add|--list|--remove [args]",
	Short:              "Manage application rules",
	DisableFlagParsing: true,
	RunE:               passthrough("rule"),
}

var queryCmd = &cobra.Command{
	Use:   "query --windows|--spaces|--displays [filters]",
	Short: "Query daemon state as JSON or tables",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := send(append([]string{"query"}, args...))
		if err != nil {
			return err
		}
		if jsonOutput {
			os.Stdout.Write(data)
			return nil
		}
		switch args[0] {
		case "--windows":
			return output.PrintWindowsTable(data)
		case "--spaces":
			return output.PrintSpacesTable(data)
		case "--displays":
			return output.PrintDisplaysTable(data)
		default:
			os.Stdout.Write(data)
			return nil
		}
	},
}

// pingCmd tests daemon connectivity
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test connection to the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		if _, err := send([]string{"query", "--displays"}); err != nil {
			return err
		}
		infoColor.Printf("daemon reachable (%s)\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "daemon socket path (default /tmp/skyline_$USER.socket)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", ipc.DefaultTimeout, "request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON instead of tables")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	daemonCmd.Flags().String("config", "", "config file path (default ~/.config/skyline/config.yaml)")
	daemonCmd.Flags().Bool("debug", false, "log debug events to stderr")

	rootCmd.AddCommand(
		daemonCmd,
		windowCmd,
		spaceCmd,
		displayCmd,
		configCmd,
		ruleCmd,
		queryCmd,
		pingCmd,
	)
}

func main() {
	cobra.OnInitialize(func() {
		if noColor {
			color.NoColor = true
		}
	})

	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
