package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/alnah/go-posterkit/internal/history"
)

// historyTimeLayout formats run timestamps in tables.
const historyTimeLayout = "2006-01-02 15:04:05"

// runHistoryCmd lists recorded runs, or shows one with "show <id>".
func runHistoryCmd(args []string, env *Environment) error {
	f, positional, err := parseHistoryFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}

	sub := "list"
	if len(positional) > 0 {
		sub, positional = positional[0], positional[1:]
	}
	switch {
	case sub == "list" && len(positional) == 0:
	case sub == "show" && len(positional) == 1:
	default:
		return fmt.Errorf("%w: usage: posterkit history [list | show <id>]", ErrUsage)
	}

	envCfg := loadEnvConfig()
	cfg, err := loadConfig(f.common.config, envCfg)
	if err != nil {
		return err
	}
	path := cfg.History.Path
	if f.path != "" {
		path = f.path
	}
	if path == "" {
		return fmt.Errorf("%w: no history database (set --history or POSTERKIT_HISTORY)", ErrUsage)
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if sub == "show" {
		run, err := store.Get(ctx, positional[0])
		if err != nil {
			return err
		}
		if f.json {
			return writeJSON(env.Stdout, run)
		}
		return printRun(env.Stdout, run)
	}

	runs, err := store.List(ctx, f.limit)
	if err != nil {
		return err
	}
	if f.json {
		return writeJSON(env.Stdout, runs)
	}
	return printRuns(env.Stdout, runs)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRuns writes one table row per run, newest first.
func printRuns(w io.Writer, runs []history.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSUBJECT\tTYPE\tOUTCOME\tDONE\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%d\n",
			r.ID, r.StartedAt.Local().Format(historyTimeLayout), r.Subject,
			r.PosterType, r.Outcome, r.Completed, r.Total, r.Failed)
	}
	return tw.Flush()
}

// printRun writes a run header followed by its tasks.
func printRun(w io.Writer, r *history.Run) error {
	fmt.Fprintf(w, "Run %s\n", r.ID)
	fmt.Fprintf(w, "  Subject:  %s\n", r.Subject)
	fmt.Fprintf(w, "  Type:     %s\n", r.PosterType)
	fmt.Fprintf(w, "  Outcome:  %s\n", r.Outcome)
	fmt.Fprintf(w, "  Started:  %s\n", r.StartedAt.Local().Format(historyTimeLayout))
	fmt.Fprintf(w, "  Duration: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "  Posters:  %d completed, %d failed, %d pending\n", r.Completed, r.Failed, r.Pending)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tARTIFACT\tERROR")
	for _, t := range r.Tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, t.Status, dash(t.Artifact), dash(t.Error))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
