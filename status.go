package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gitlab.com/tinyland/lab/hostpulse/cache"
	"gitlab.com/tinyland/lab/hostpulse/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/hostpulse/display/widgets"
	"gitlab.com/tinyland/lab/hostpulse/internal/format"
)

var errNoLiveSampler = errors.New(`no live sampler; start one with "hostpulse run"`)

// statusDisk mirrors sysmetrics.DiskUsage with YAML keys.
type statusDisk struct {
	Mount   string `json:"mount" yaml:"mount"`
	Device  string `json:"device,omitempty" yaml:"device,omitempty"`
	Percent int    `json:"percent" yaml:"percent"`
	TotalMB uint64 `json:"total_mb" yaml:"total_mb"`
	UsedMB  uint64 `json:"used_mb" yaml:"used_mb"`
	FreeMB  uint64 `json:"free_mb" yaml:"free_mb"`
}

// statusReport is the output of "hostpulse status".
type statusReport struct {
	State     string     `json:"state" yaml:"state"`
	Snapshot  string     `json:"snapshot" yaml:"snapshot"`
	RunID     string     `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Seq       uint64     `json:"seq,omitempty" yaml:"seq,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Age       string     `json:"age,omitempty" yaml:"age,omitempty"`
	CPU       float64    `json:"cpu_percent" yaml:"cpu_percent"`
	RAM       float64    `json:"ram_percent" yaml:"ram_percent"`
	Disk      statusDisk `json:"disk" yaml:"disk"`
	Stale     []string   `json:"stale,omitempty" yaml:"stale,omitempty"`
	Warnings  []string   `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	freshness widgets.Freshness
	age       time.Duration
}

// buildStatusReport classifies a published snapshot. A snapshot older than
// its publisher's staleness window means no sampler is publishing; maxAge
// stands in for snapshots that carry no interval. A current snapshot with a
// failed metric is stale.
func buildStatusReport(snap *sysmetrics.Snapshot, entry *cache.Entry, path string, maxAge time.Duration) statusReport {
	r := statusReport{Snapshot: path, freshness: widgets.Offline}
	if snap == nil {
		r.State = r.freshness.String()
		return r
	}

	ts := snap.Timestamp
	r.RunID = snap.RunID
	r.Seq = snap.Seq
	r.Timestamp = &ts
	r.CPU = snap.CPU
	r.RAM = snap.RAM
	r.Disk = statusDisk(snap.Disk)
	r.Warnings = snap.Warnings

	for _, m := range []struct {
		name  string
		stale bool
	}{
		{"cpu", snap.CPUStale},
		{"ram", snap.RAMStale},
		{"disk", snap.DiskStale},
	} {
		if m.stale {
			r.Stale = append(r.Stale, m.name)
		}
	}

	if entry != nil {
		r.age = entry.Age
		r.Age = entry.Age.Round(time.Millisecond).String()
	}
	switch {
	case entry == nil || entry.Age > cache.StaleAfter(snap, maxAge):
		r.freshness = widgets.Offline
	case len(r.Stale) > 0:
		r.freshness = widgets.Stale
	default:
		r.freshness = widgets.Live
	}
	r.State = r.freshness.String()
	return r
}

// writeStatus renders r as text, json or yaml.
func writeStatus(w io.Writer, r statusReport, output string, color bool, width int) error {
	switch output {
	case "json":
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		b, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		_, err = w.Write(b)
		return err
	case "text", "":
		return writeStatusText(w, r, color, width)
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", output)
	}
}

func writeStatusText(w io.Writer, r statusReport, color bool, width int) error {
	state := r.State
	if color {
		state = widgets.RenderIndicator(r.freshness)
	}
	fmt.Fprintf(w, "hostpulse %s\n", state)

	if r.Timestamp == nil {
		_, err := fmt.Fprintf(w, "  no snapshot at %s\n", r.Snapshot)
		return err
	}
	fmt.Fprintf(w, "  updated %s (%s)\n", format.Timestamp(*r.Timestamp), format.FormatAge(r.age))

	barWidth := max(min(width-24, 40), 10)
	gauge := func(label string, pct float64) string {
		return widgets.RenderGauge(widgets.GaugeConfig{
			Percent: pct,
			Width:   barWidth,
			Label:   label,
			Plain:   !color,
		})
	}

	device := r.Disk.Device
	if device == "" {
		device = "unknown device"
	}
	fmt.Fprintf(w, "  %s %s\n", gauge("CPU ", r.CPU), format.Percent(r.CPU))
	fmt.Fprintf(w, "  %s %s\n", gauge("RAM ", r.RAM), format.Percent(r.RAM))
	fmt.Fprintf(w, "  %s %d%%\n", gauge("Disk", float64(r.Disk.Percent)), r.Disk.Percent)
	fmt.Fprintf(w, "  %s on %s: %s used of %s, %s free\n",
		device, r.Disk.Mount, format.MB(r.Disk.UsedMB), format.MB(r.Disk.TotalMB), format.MB(r.Disk.FreeMB))

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
	return nil
}

func newStatusCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the last published snapshot",
		Long: `Print the snapshot last published by "hostpulse run" (or a TUI with
publishing enabled). Exits non-zero when no sampler has published within
three sampling intervals.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cache.NewStore(a.cfg.General.CacheDir, nil)
			if err != nil {
				return err
			}

			maxAge := cache.StaleAfterTicks * a.cfg.Sampler.Interval.Duration
			snap, entry, err := cache.ReadSnapshot(store, maxAge)
			if err != nil {
				return err
			}
			report := buildStatusReport(snap, entry, store.Path(cache.SnapshotKey), maxAge)

			out := cmd.OutOrStdout()
			width, color := 80, false
			if f, ok := out.(*os.File); ok {
				width, color = terminalWidth(f)
			}
			if err := writeStatus(out, report, output, color, width); err != nil {
				return err
			}
			if report.freshness == widgets.Offline {
				return errNoLiveSampler
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")
	return cmd
}
