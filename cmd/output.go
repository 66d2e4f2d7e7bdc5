package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"modelctl/internal/model"
	"modelctl/pkg/interfaces"
	"modelctl/pkg/supervisor"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/pretty"
)

const gib = 1 << 30

// printResult human-readable summary of an operation
func printResult(w io.Writer, res *supervisor.Result, opErr error) {
	if res == nil {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s:\t%s\n", res.Operation, res.Outcome)
	fmt.Fprintf(tw, "state:\t%s\n", res.State)
	fmt.Fprintf(tw, "liveness:\t%s\n", res.Liveness)
	if res.Message != "" {
		fmt.Fprintf(tw, "message:\t%s\n", res.Message)
	}
	if len(res.Signalled) > 0 {
		fmt.Fprintf(tw, "signalled:\t%s\n", joinInts(res.Signalled))
	}
	if res.Launch != nil && res.Launch.Launched {
		fmt.Fprintf(tw, "pid:\t%d\n", res.Launch.PID)
	}
	if res.Record != nil {
		printRecord(tw, res.Record)
	}
	_ = tw.Flush()

	var bootErr *supervisor.BootstrapError
	if errors.As(opErr, &bootErr) {
		printBootstrapFailure(w, bootErr)
	}
}

func printRecord(tw *tabwriter.Writer, record *model.StatusRecord) {
	fmt.Fprintf(tw, "service id:\t%s\n", record.ServiceID)
	fmt.Fprintf(tw, "reported status:\t%s\n", record.OverallStatus)
	fmt.Fprintf(tw, "last heartbeat:\t%s\n", humanize.Time(record.HeartbeatTime()))
	if started := record.StartedTime(); !started.IsZero() {
		fmt.Fprintf(tw, "up since:\t%s (%s)\n", started.Format(time.RFC3339), humanize.Time(started))
	}
	if record.PID > 0 {
		fmt.Fprintf(tw, "worker pid:\t%d\n", record.PID)
	}
	fmt.Fprintf(tw, "crash count:\t%d\n", record.CrashCount)
	if gpu := record.GPUMemory; gpu != nil {
		fmt.Fprintf(tw, "gpu memory:\t%s / %s\n",
			humanize.IBytes(gibToBytes(gpu.AllocatedGB)), humanize.IBytes(gibToBytes(gpu.TotalGB)))
	}
	for _, name := range record.ModelNames() {
		fmt.Fprintf(tw, "model %s:\t%s\n", name, record.Models[name])
	}
}

func printBootstrapFailure(w io.Writer, bootErr *supervisor.BootstrapError) {
	if d := bootErr.Diagnosis; d != nil {
		fmt.Fprintf(w, "\n%s [%s]\n", d.UserMessage, d.ErrorCode)
		fmt.Fprintf(w, "suggestion: %s\n", d.Suggestion)
		if d.Excerpt != "" {
			fmt.Fprintf(w, "\nworker output:\n%s\n", indent(d.Excerpt))
		}
	}
	if bootErr.LogPath != "" {
		fmt.Fprintf(w, "full log: %s\n", bootErr.LogPath)
	}
}

// printRecordJSON prints the raw record, "null" when nothing is reporting
func printRecordJSON(w io.Writer, res *supervisor.Result) error {
	var record *model.StatusRecord
	if res != nil {
		record = res.Record
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal status record: %w", err)
	}
	_, err = w.Write(pretty.Pretty(data))
	return err
}

func printHistory(w io.Writer, entries []*interfaces.LifecycleEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no lifecycle events recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tOPERATION\tOUTCOME\tSTATE\tSERVICE\tDURATION\tMESSAGE")
	for _, e := range entries {
		serviceID := e.ServiceID
		if serviceID == "" {
			serviceID = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%dms\t%s\n",
			humanize.Time(e.OccurredAt), e.Operation, e.Outcome, e.State, serviceID, e.DurationMs, e.Message)
	}
	_ = tw.Flush()
}

// gibToBytes converts a reported GiB figure; negative, NaN and overflowing values are clamped
func gibToBytes(gb float64) uint64 {
	bytes := gb * gib
	switch {
	case !(bytes > 0):
		return 0
	case bytes >= math.MaxUint64:
		return math.MaxUint64
	default:
		return uint64(bytes)
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

func indent(text string) string {
	return "  " + strings.ReplaceAll(strings.TrimRight(text, "\n"), "\n", "\n  ")
}
