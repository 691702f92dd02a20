package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/queue"
	"curator/internal/records"
)

func newCheckpointCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Snapshot session state for recovery and audit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, q *queue.Store, r *records.Store) error {
				checkpoint, err := r.CreateCheckpoint()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s covering %d item(s)\n", checkpoint.Name, checkpoint.ItemCount)
				return nil
			})
		},
	}
	cmd.AddCommand(newCheckpointListCommand(ctx))
	return cmd
}

func newCheckpointListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List checkpoints in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, q *queue.Store, r *records.Store) error {
				checkpoints, err := r.ListCheckpoints()
				if err != nil {
					return err
				}
				if len(checkpoints) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No checkpoints yet")
					return nil
				}
				rows := make([][]string, 0, len(checkpoints))
				for _, checkpoint := range checkpoints {
					rows = append(rows, []string{
						checkpoint.Name,
						checkpoint.CreatedAt.Format("2006-01-02 15:04:05"),
						strconv.Itoa(checkpoint.ItemCount),
						strconv.Itoa(checkpoint.Session.Statistics.Errors),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Name", "Created", "Items", "Errors"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func newErrorsCommand(ctx *commandContext) *cobra.Command {
	var tail int
	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Show the error ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, q *queue.Store, r *records.Store) error {
				entries, err := r.Errors()
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Error ledger is empty")
					return nil
				}
				if tail > 0 && len(entries) > tail {
					entries = entries[len(entries)-tail:]
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.Timestamp.Format("2006-01-02 15:04:05"),
						entry.Kind,
						entry.ItemID,
						entry.Message,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"When", "Kind", "Item", "Message"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&tail, "tail", 0, "Show only the last N entries")
	return cmd
}
