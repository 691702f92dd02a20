package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/queue"
	"curator/internal/records"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue statistics and session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, q *queue.Store, r *records.Store) error {
				stats, err := q.Stats(cmd.Context())
				if err != nil {
					return err
				}
				session := r.Session()

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session %s over %s\n", session.SessionID, session.LibraryRoot)
				if session.LastCheckpoint != "" {
					fmt.Fprintf(out, "Last checkpoint: %s\n", session.LastCheckpoint)
				}
				fmt.Fprintf(out, "Errors logged: %d\n\n", session.Statistics.Errors)

				rows := [][]string{
					{"pending scan", strconv.Itoa(stats.PendingScan)},
					{"pending validation", strconv.Itoa(stats.PendingValidation)},
					{"pending review", strconv.Itoa(stats.PendingReview)},
					{"pending fix", strconv.Itoa(stats.PendingFix)},
					{"completed", strconv.Itoa(stats.Completed)},
					{"failed", strconv.Itoa(stats.Failed)},
					{"skipped", strconv.Itoa(stats.Skipped)},
					{"total", strconv.Itoa(stats.Total)},
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Bucket", "Items"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}
