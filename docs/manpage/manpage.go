// Package manpage generates a roff-formatted man page for hostpulse.
//
// Commands and flags are read from the cobra command tree and key bindings
// from the TUI key map, so the page always matches the binary.
//
// Usage:
//
//	hostpulse man | man -l -
//	hostpulse man > ~/.local/share/man/man1/hostpulse.1
package manpage

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gitlab.com/tinyland/lab/hostpulse/display/tui"
)

// Generate produces a complete man(1) page for root. The version, commit
// and date come from the build-time linker variables.
func Generate(root *cobra.Command, version, commit, date string) string {
	var b strings.Builder

	writeHeader(&b, version)
	writeName(&b, root)
	writeSynopsis(&b, root)
	writeDescription(&b, root)
	writeCommands(&b, root)
	writeOptions(&b, root)
	writeKeybindings(&b)
	writeConfiguration(&b)
	writeFiles(&b)
	writeExamples(&b)
	writeEnvironment(&b)
	writeExitStatus(&b)
	writeFooter(&b, version, commit, date)

	return b.String()
}

// roffEscape escapes special roff characters in a string.
func roffEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `-`, `\-`)
	s = strings.ReplaceAll(s, `.`, `\&.`)
	return s
}

// roffText escapes running text. Lines starting with a control character
// are protected with a zero-width escape.
func roffText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `-`, `\-`)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, ".") || strings.HasPrefix(line, "'") {
			lines[i] = `\&` + line
		}
	}
	return strings.Join(lines, "\n")
}

func writeHeader(b *strings.Builder, version string) {
	month := time.Now().Format("January 2006")
	fmt.Fprintf(b, ".TH HOSTPULSE 1 \"%s\" \"hostpulse %s\" \"User Commands\"\n", month, version)
}

func writeName(b *strings.Builder, root *cobra.Command) {
	fmt.Fprintf(b, ".SH NAME\n%s \\- %s\n", roffEscape(root.Name()), roffText(root.Short))
}

func writeSynopsis(b *strings.Builder, root *cobra.Command) {
	fmt.Fprintf(b, ".SH SYNOPSIS\n.B %s\n[\\fICOMMAND\\fR] [\\fIOPTIONS\\fR]\n", roffEscape(root.Name()))
}

func writeDescription(b *strings.Builder, root *cobra.Command) {
	b.WriteString(".SH DESCRIPTION\n")
	b.WriteString(roffText(root.Long) + "\n")
}

// visibleCommands returns the subcommands worth documenting.
func visibleCommands(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, c := range root.Commands() {
		if c.Hidden || c.Name() == "help" || c.Name() == "completion" {
			continue
		}
		cmds = append(cmds, c)
	}
	return cmds
}

func writeCommands(b *strings.Builder, root *cobra.Command) {
	b.WriteString(".SH COMMANDS\n")
	for _, c := range visibleCommands(root) {
		fmt.Fprintf(b, ".TP\n.B %s\n", roffEscape(c.Name()))
		desc := c.Long
		if desc == "" {
			desc = c.Short
		}
		b.WriteString(roffText(desc) + "\n")
		writeFlagList(b, c.LocalNonPersistentFlags())
	}
}

func writeOptions(b *strings.Builder, root *cobra.Command) {
	b.WriteString(".SH OPTIONS\nThese options apply to every command.\n")
	writeFlagList(b, root.PersistentFlags())
}

func writeFlagList(b *strings.Builder, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		b.WriteString(".TP\n")
		name := `\-\-` + roffEscape(f.Name)
		if f.Shorthand != "" {
			name = `\-` + f.Shorthand + ", " + name
		}
		if f.Value.Type() == "bool" {
			fmt.Fprintf(b, ".B %s\n", name)
		} else {
			fmt.Fprintf(b, ".BR \"%s\" \" \\fI%s\\fR\"\n", name, strings.ToUpper(f.Value.Type()))
		}
		desc := f.Usage
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" {
			desc += fmt.Sprintf(" Default: %s.", f.DefValue)
		}
		b.WriteString(roffText(desc) + "\n")
	})
}

func writeKeybindings(b *strings.Builder) {
	b.WriteString(`.SH KEYBINDINGS
Keys active in the TUI. Tabs can also be selected with the mouse.
`)
	for _, group := range tui.HelpGroups() {
		for _, binding := range group {
			keysStr := strings.Join(binding.Keys(), ", ")
			fmt.Fprintf(b, ".TP\n.B %s\n%s\n", roffEscape(keysStr), roffText(binding.Help().Desc))
		}
	}
}

func writeConfiguration(b *strings.Builder) {
	b.WriteString(`.SH CONFIGURATION
Configuration is read from a TOML file at
.B ~/.config/hostpulse/config.toml
by default, or from the path given with \fB\-\-config\fR. A missing file
selects the defaults. Unknown keys are rejected.
.SS [general]
.TP
.B log_level
One of debug, info, warn or error. Default: "info".
.TP
.B cache_dir
Directory for published snapshots, the PID file and the TUI log.
Default: ~/.cache/hostpulse.
.SS [sampler]
.TP
.B interval
Sampling interval, at least 100ms. Default: "1s".
.TP
.B history_size
Samples kept per rolling history. Default: 1000.
.TP
.B mount_path
Mount point shown on the disk tab. Default: "/".
.TP
.B proc_root
Directory holding meminfo and stat. Default: "/proc".
.TP
.B read_timeout
Upper bound for a single source read. Default: "500ms".
.TP
.B cpu_mode
"delta" for usage since the previous sample, "since_boot" for the
cumulative average. Default: "delta".
.SS [publish]
.TP
.B enabled
Write every snapshot to the cache directory. Default: true.
.TP
.B include_history
Include both rolling histories in published snapshots. Default: false.
.SS [display]
.TP
.B chart_height
Chart rows on the RAM and CPU tabs, at least 3. Default: 12.
.TP
.B start_tab
Tab shown at startup: ram, cpu or disk. Default: "ram".
.TP
.B theme
Color theme: monitoring, minimal or high\-contrast. Default: "monitoring".
`)
}

func writeFiles(b *strings.Builder) {
	b.WriteString(`.SH FILES
.TP
.I ~/.config/hostpulse/config.toml
Configuration file.
.TP
.I ~/.cache/hostpulse/sysmetrics.json
Last published snapshot, read by \fBstatus\fR and \fBtui \-\-attach\fR.
.TP
.I ~/.cache/hostpulse/hostpulse.pid
PID file of the process publishing snapshots, "hostpulse run" or a publishing TUI.
.TP
.I ~/.cache/hostpulse/hostpulse.log
TUI log file.
`)
}

func writeExamples(b *strings.Builder) {
	b.WriteString(`.SH EXAMPLES
Launch the TUI with a 2 second interval:
.PP
.nf
hostpulse \-\-interval 2s
.fi
.PP
Sample in the background and follow it from another terminal:
.PP
.nf
hostpulse run &
hostpulse tui \-\-attach
.fi
.PP
Print the last snapshot as JSON:
.PP
.nf
hostpulse status \-o json
.fi
.PP
Check that the data sources are readable:
.PP
.nf
hostpulse diagnose
.fi
.PP
Install this man page:
.PP
.nf
hostpulse man > ~/.local/share/man/man1/hostpulse.1
.fi
`)
}

func writeEnvironment(b *strings.Builder) {
	vars := []struct{ name, desc string }{
		{"HOSTPULSE_INTERVAL", "Overrides sampler.interval."},
		{"HOSTPULSE_HISTORY_SIZE", "Overrides sampler.history_size."},
		{"HOSTPULSE_MOUNT", "Overrides sampler.mount_path."},
		{"HOSTPULSE_PROC_ROOT", "Overrides sampler.proc_root."},
		{"HOSTPULSE_CPU_MODE", "Overrides sampler.cpu_mode."},
		{"HOSTPULSE_LOG_LEVEL", "Overrides general.log_level."},
		{"HOSTPULSE_CACHE_DIR", "Overrides general.cache_dir."},
		{"XDG_CONFIG_HOME", "Base directory for the configuration file."},
		{"XDG_CACHE_HOME", "Base directory for the cache directory."},
	}
	b.WriteString(".SH ENVIRONMENT\nCommand line flags take precedence over the environment, which takes\nprecedence over the configuration file.\n")
	for _, v := range vars {
		fmt.Fprintf(b, ".TP\n.B %s\n%s\n", v.name, v.desc)
	}
}

func writeExitStatus(b *strings.Builder) {
	b.WriteString(".SH EXIT STATUS\n")
	b.WriteString(".TP\n.B 0\n")
	b.WriteString("Success. For \\fBstatus\\fR, a sampler published within three intervals.\n")
	b.WriteString(".TP\n.B 1\n")
	b.WriteString("Failure. For \\fBstatus\\fR, no live sampler; for \\fBdiagnose\\fR, a check failed.\n")
}

func writeFooter(b *strings.Builder, version, commit, date string) {
	fmt.Fprintf(b, ".SH VERSION\n%s (%s) built %s\n", version, commit, date)
}
