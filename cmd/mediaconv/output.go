package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/media"
)

// errJobFailed makes the process exit non-zero after a failed local run.
var errJobFailed = errors.New("conversion failed")

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// useJSON reports whether results should be JSON: when asked for, or when
// stdout is not a terminal.
func useJSON(cmd *cobra.Command, forced bool) bool {
	if forced {
		return true
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return true
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

func printDescriptor(cmd *cobra.Command, d *job.Descriptor, forceJSON bool) error {
	if useJSON(cmd, forceJSON) {
		if err := writeJSON(cmd, d); err != nil {
			return err
		}
	} else if d == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to convert; no command was dispatched")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, descriptorRows(d)))
	}
	if d != nil && d.Status == job.StatusFailed {
		return fmt.Errorf("%w: %s", errJobFailed, lastLine(d.Error))
	}
	return nil
}

func descriptorRows(d *job.Descriptor) [][]string {
	rows := [][]string{
		{"ID", d.ID},
		{"Name", d.Name},
		{"Method", string(d.Method)},
		{"Status", string(d.Status)},
	}
	if d.JobID != "" && d.JobID != d.ID {
		rows = append(rows, []string{"Job ID", d.JobID})
	}
	if d.DependsOn != "" {
		rows = append(rows, []string{"Depends on", d.DependsOn})
	}
	rows = append(rows, []string{"Output", d.FileOut})
	if d.Frames > 0 {
		rows = append(rows, []string{"Frames", strconv.Itoa(d.Frames)})
	}
	if d.Status.IsTerminal() {
		rows = append(rows, []string{"Exit code", strconv.Itoa(d.ExitCode)})
	}
	if d.Error != "" {
		rows = append(rows, []string{"Error", d.Error})
	}
	rows = append(rows,
		[]string{"Created", formatTime(d.CreatedAt)},
		[]string{"Command", media.Invocation{Binary: first(d.Command), Args: rest(d.Command)}.String()},
	)
	return rows
}

func descriptorListRows(ds []*job.Descriptor) [][]string {
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, []string{
			d.ID,
			string(d.Method),
			string(d.Status),
			d.Name,
			d.FileOut,
			formatTime(d.CreatedAt),
		})
	}
	return rows
}

var descriptorListHeaders = []string{"ID", "Method", "Status", "Name", "Output", "Created"}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	return s[strings.LastIndex(s, "\n")+1:]
}

func first(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	return argv[0]
}

func rest(argv []string) []string {
	if len(argv) < 2 {
		return nil
	}
	return argv[1:]
}
