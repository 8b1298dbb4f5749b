package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"squeeze/internal/encoding"
	"squeeze/internal/history"
)

type historyEntryJSON struct {
	SessionID      string  `json:"session_id"`
	Profile        string  `json:"profile"`
	Codec          string  `json:"codec"`
	Quality        int     `json:"quality"`
	Preset         string  `json:"preset"`
	Source         string  `json:"source"`
	Output         string  `json:"output,omitempty"`
	Outcome        string  `json:"outcome"`
	Reason         string  `json:"reason,omitempty"`
	ExitCode       int     `json:"exit_code"`
	SizeBytes      int64   `json:"size_bytes"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	FinishedAt     string  `json:"finished_at"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear past encodes",
	}
	list := newHistoryListCommand(ctx)
	historyCmd.RunE = list.RunE
	historyCmd.Flags().AddFlagSet(list.Flags())
	historyCmd.AddCommand(list)
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var outcomes []string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent encodes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := requireHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit, outcomes...)
			if err != nil {
				return err
			}
			if asJSON {
				out := make([]historyEntryJSON, 0, len(entries))
				for _, e := range entries {
					out = append(out, historyEntryJSON{
						SessionID:      e.SessionID,
						Profile:        e.Profile,
						Codec:          e.Codec,
						Quality:        e.Quality,
						Preset:         e.Preset,
						Source:         e.SourcePath,
						Output:         e.OutputPath,
						Outcome:        e.Outcome,
						Reason:         e.Reason,
						ExitCode:       e.ExitCode,
						SizeBytes:      e.SizeBytes,
						ElapsedSeconds: e.Elapsed().Seconds(),
						FinishedAt:     e.FinishedAt.Format(time.RFC3339),
					})
				}
				return writeJSON(cmd, out)
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No encodes recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), historyTable(entries).render())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().StringSliceVar(&outcomes, "outcome", nil, "Filter by outcome (success, cancelled, failed)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := requireHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", removed)
			return nil
		},
	}
}

func requireHistory(ctx *commandContext) (*history.Store, error) {
	store, err := ctx.openHistory()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("history is disabled (set history.enabled = true in the config)")
	}
	return store, nil
}

func historyTable(entries []history.Entry) tableView {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		outcome := e.Outcome
		if e.Reason != "" {
			outcome += " (" + e.Reason + ")"
		}
		size := ""
		if e.SizeBytes > 0 {
			size = formatSize(e.SizeBytes)
		}
		rows = append(rows, []string{
			e.FinishedAt.Local().Format("2006-01-02 15:04"),
			e.Profile,
			strconv.Itoa(e.Quality) + "/" + e.Preset,
			outcome,
			encoding.FormatClock(e.Elapsed()),
			size,
			shortID(e.SessionID),
		})
	}
	return tableView{
		Headers:      []string{"Finished", "Profile", "CRF/Preset", "Outcome", "Elapsed", "Size", "Session"},
		Rows:         rows,
		RightAligned: []int{4, 5},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
