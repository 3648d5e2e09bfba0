// hostpulse is a local host monitor. It samples CPU, memory and disk usage
// on a fixed interval and shows the live values and their recent history in
// a terminal UI.
//
// Usage:
//
//	hostpulse [command] [flags]
//
// Commands:
//
//	tui      Launch the interactive TUI (the default)
//	run      Sample headlessly and publish snapshots to the cache directory
//	status   Print the last published snapshot (-o text|json|yaml)
//	diagnose Check data sources, cache directory and sampler
//	version  Print version and exit
//	man      Print the man page in roff format
//
// Global flags:
//
//	-c, --config string      Path to configuration file (default: ~/.config/hostpulse/config.toml)
//	-v, --verbose            Enable debug logging
//	    --interval duration  Sampling interval override
//	    --mount string       Mount path shown on the disk tab
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gitlab.com/tinyland/lab/hostpulse/display/tui"
	"gitlab.com/tinyland/lab/hostpulse/docs/manpage"
	"gitlab.com/tinyland/lab/hostpulse/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hostpulse: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	verbose    bool
	interval   time.Duration
	mount      string
}

// app carries state shared between the root command and its subcommands.
type app struct {
	flags globalFlags
	cfg   *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "hostpulse",
		Short: "Local CPU, memory and disk monitor",
		Long: `hostpulse samples CPU, memory and disk usage once per interval and
shows the current values and their rolling history in a terminal UI.

Run without a command to start the TUI with its own sampler.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context(), false)
		},
	}

	addGlobalFlags(root.PersistentFlags(), &a.flags)

	root.AddCommand(
		newTUICommand(a),
		newRunCommand(a),
		newStatusCommand(a),
		newDiagnoseCommand(a),
		newVersionCommand(),
		newManCommand(),
	)
	return root
}

func addGlobalFlags(fs *pflag.FlagSet, f *globalFlags) {
	fs.StringVarP(&f.configPath, "config", "c", "", "Path to configuration file (default: ~/.config/hostpulse/config.toml)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Enable debug logging")
	fs.DurationVar(&f.interval, "interval", 0, "Sampling interval override, e.g. 2s")
	fs.StringVar(&f.mount, "mount", "", "Mount path shown on the disk tab")
}

// loadConfig reads the configuration file, applies flag overrides and
// validates the result.
func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	var (
		cfg *config.Config
		err error
	)
	if a.flags.configPath != "" {
		cfg, err = config.LoadFromFile(a.flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	applyFlagOverrides(cfg, cmd.Flags(), a.flags)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, ok := tui.LookupThemePreset(cfg.Display.Theme); !ok {
		return fmt.Errorf("config: display.theme %q: want one of %s",
			cfg.Display.Theme, strings.Join(tui.ThemeNames(), ", "))
	}

	a.cfg = cfg
	return nil
}

// applyFlagOverrides copies explicitly set flags over the file and
// environment values.
func applyFlagOverrides(cfg *config.Config, fs *pflag.FlagSet, f globalFlags) {
	if fs.Changed("interval") {
		cfg.Sampler.Interval = config.Duration{Duration: f.interval}
	}
	if fs.Changed("mount") {
		cfg.Sampler.MountPath = f.mount
	}
	if f.verbose {
		cfg.General.LogLevel = "debug"
	}
}

func newTUICommand(a *app) *cobra.Command {
	var attach bool

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive TUI",
		Long: `Launch the interactive TUI. By default the TUI runs its own sampler.
With --attach it instead follows the snapshot published by "hostpulse run".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context(), attach)
		},
	}
	cmd.Flags().BoolVar(&attach, "attach", false, `Follow the snapshot published by "hostpulse run" instead of sampling`)
	return cmd
}

func newRunCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Sample headlessly and publish snapshots",
		Long: `Run the sampler without a UI. Every snapshot is written to
<cache_dir>/sysmetrics.json for "hostpulse status" and "hostpulse tui --attach".
Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(a.cfg.General.LogLevel, cmd.ErrOrStderr())
			d, err := newDaemon(a.cfg, logger)
			if err != nil {
				return err
			}
			return d.run(cmd.Context())
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// No configuration needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
}

func newManCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "man",
		Short:             "Print the man page in roff format",
		Long:              `Print the man page in roff format. View it with "hostpulse man | man -l -".`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), manpage.Generate(cmd.Root(), version, commit, date))
		},
	}
}
