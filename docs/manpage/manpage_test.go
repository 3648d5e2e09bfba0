package manpage

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func testRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "hostpulse",
		Short: "Local CPU, memory and disk monitor",
		Long:  "hostpulse samples CPU usage.\n.dotted line",
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	status := &cobra.Command{Use: "status", Short: "Print the last published snapshot"}
	status.Flags().StringP("output", "o", "text", "Output format")
	hidden := &cobra.Command{Use: "secret", Short: "Hidden command", Hidden: true}
	root.AddCommand(status, hidden)
	return root
}

func TestGenerate_ValidRoff(t *testing.T) {
	page := Generate(testRoot(), "0.3.0", "abc1234", "2026-02-06")

	if !strings.HasPrefix(page, ".TH HOSTPULSE 1") {
		t.Errorf("man page should start with .TH header, got: %s", page[:40])
	}

	requiredSections := []string{
		".SH NAME",
		".SH SYNOPSIS",
		".SH DESCRIPTION",
		".SH COMMANDS",
		".SH OPTIONS",
		".SH KEYBINDINGS",
		".SH CONFIGURATION",
		".SH FILES",
		".SH EXAMPLES",
		".SH ENVIRONMENT",
		".SH EXIT STATUS",
		".SH VERSION",
	}
	for _, section := range requiredSections {
		if !strings.Contains(page, section) {
			t.Errorf("man page missing required section: %s", section)
		}
	}
}

func TestGenerate_ContainsVersion(t *testing.T) {
	page := Generate(testRoot(), "1.2.3", "deadbeef", "2026-02-06")

	if !strings.Contains(page, "1.2.3 (deadbeef) built 2026-02-06") {
		t.Error("man page should contain the version line")
	}
}

func TestGenerate_CommandsAndFlags(t *testing.T) {
	page := Generate(testRoot(), "0.3.0", "dev", "unknown")

	tests := []struct {
		name string
		want string
	}{
		{"command", ".B status"},
		{"persistent flag with shorthand", `.BR "\-c, \-\-config" " \fISTRING\fR"`},
		{"bool flag", `.B \-\-verbose`},
		{"local flag default", "Output format Default: text."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(page, tt.want) {
				t.Errorf("man page missing %q", tt.want)
			}
		})
	}

	if strings.Contains(page, "secret") {
		t.Error("hidden commands should not be documented")
	}
}

func TestGenerate_ContainsKeybindings(t *testing.T) {
	page := Generate(testRoot(), "0.3.0", "dev", "unknown")

	for _, want := range []string{".B q, ctrl+c", ".B tab, right, l", ".B ?"} {
		if !strings.Contains(page, want) {
			t.Errorf("man page missing keybinding %q", want)
		}
	}
}

func TestRoffText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"high-contrast", `high\-contrast`},
		{".starts with dot", `\&.starts with dot`},
		{"a\n'quoted", "a\n\\&'quoted"},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := roffText(tt.in); got != tt.want {
			t.Errorf("roffText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
