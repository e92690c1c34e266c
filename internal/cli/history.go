package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/specialistvlad/extreg/internal/graphdiff"
	"github.com/specialistvlad/extreg/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCommand(o *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the graphs recorded in the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := o.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return failure("%v", err)
			}
			if len(records) == 0 {
				_, err = fmt.Fprintln(o.outW, "No snapshots recorded.")
				return err
			}
			_, err = io.WriteString(o.outW, historyTable(records))
			return err
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of snapshots to show, 0 for all")
	cmd.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: "Print the listing of one recorded graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return usageError("invalid snapshot id %q", args[0])
			}
			store, err := o.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snap, err := store.Get(cmd.Context(), id)
			if err != nil {
				return failure("snapshot %d: %v", id, err)
			}
			_, err = io.WriteString(o.outW, snap.Listing)
			return err
		},
	})
	return cmd
}

func newDiffCommand(o *rootOptions) *cobra.Command {
	var (
		snapshot     int64
		contextLines int
		exitCode     bool
	)
	cmd := &cobra.Command{
		Use:   "diff [PATH...]",
		Short: "Resolve and compare the graph with a recorded snapshot",
		Long: `diff resolves the descriptors and prints the changes relative to a recorded
snapshot, the most recent one by default. The new graph is recorded as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd.Context(), args)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if a.History() == nil {
				return usageError("diff needs a history database, set --history")
			}

			// The baseline is read before resolving, since resolving records a new snapshot.
			var base history.Snapshot
			baseName := "(none)"
			if snapshot > 0 {
				base, err = a.History().Get(cmd.Context(), snapshot)
			} else {
				base, err = a.History().Latest(cmd.Context())
				if errors.Is(err, history.ErrNoSnapshot) {
					err = nil
				}
			}
			if err != nil {
				return failure("failed to read baseline snapshot: %v", err)
			}
			if base.ID > 0 {
				baseName = fmt.Sprintf("snapshot %d (version %d)", base.ID, base.Version)
			}

			g, err := a.Resolve(cmd.Context())
			if err != nil {
				return failure("resolution failed:\n%v", err)
			}

			result := graphdiff.Compare(base.Listing, g.Text())
			if !result.Changed() {
				_, err = fmt.Fprintf(o.outW, "No changes since %s.\n", baseName)
				return err
			}
			newName := fmt.Sprintf("current (version %d)", g.Version())
			if _, err := io.WriteString(o.outW, result.Format(baseName, newName, contextLines)); err != nil {
				return err
			}
			inserted, deleted := result.Stats()
			fmt.Fprintf(o.outW, "%d line(s) added, %d line(s) removed.\n", inserted, deleted)
			if exitCode {
				return &ExitError{Code: exitFailure, Message: "graph changed"}
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&snapshot, "snapshot", 0, "snapshot id to compare against (default: latest)")
	cmd.Flags().IntVarP(&contextLines, "context", "U", 3, "unchanged lines shown around each change, negative for all")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "exit with status 1 when the graph changed")
	return cmd
}

func (o *rootOptions) openHistory(ctx context.Context) (*history.Store, error) {
	cfg, err := o.readConfig(nil)
	if err != nil {
		return nil, err
	}
	if cfg.HistoryPath == "" {
		return nil, usageError("no history database configured, set --history")
	}
	store, err := history.Open(ctx, cfg.HistoryPath)
	if err != nil {
		return nil, failure("%v", err)
	}
	return store, nil
}

func historyTable(records []history.Record) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			strconv.FormatUint(r.Version, 10),
			r.ResolvedAt.Local().Format(time.DateTime),
			strconv.Itoa(r.Resources),
			strconv.Itoa(r.Edges),
			shortFingerprint(r.Fingerprint),
		})
	}
	return renderTable([]string{"ID", "VERSION", "RESOLVED AT", "RESOURCES", "EDGES", "FINGERPRINT"}, rows)
}
