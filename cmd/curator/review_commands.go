package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/pipeline"
	"curator/internal/queue"
	"curator/internal/records"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "List and resolve items waiting on human review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newReviewListCommand(ctx))
	cmd.AddCommand(newReviewApproveCommand(ctx))
	cmd.AddCommand(newReviewRejectCommand(ctx))
	cmd.AddCommand(newReviewSkipCommand(ctx))
	return cmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the review queue in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, q *queue.Store, r *records.Store) error {
				items, err := q.ReviewQueue(cmd.Context())
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Review queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					confidence := ""
					if v, ok := item.Metadata["confidence"].(float64); ok {
						confidence = strconv.FormatFloat(v, 'f', 2, 64)
					}
					classification, _ := item.Metadata["classification"].(string)
					rows = append(rows, []string{
						item.ID,
						item.Priority.String(),
						confidence,
						classification,
						item.Location,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Priority", "Confidence", "Why", "Location"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newReviewApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>...",
		Short: "Approve reviewed items for the next fix pass",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolveReviewItems(ctx, cmd, args, "approved", func(runCtx context.Context, o *pipeline.Orchestrator, id string) error {
				return o.Approve(runCtx, id)
			})
		},
	}
}

func newReviewRejectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <id>...",
		Short: "Reject reviewed items without applying anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolveReviewItems(ctx, cmd, args, "rejected", func(runCtx context.Context, o *pipeline.Orchestrator, id string) error {
				return o.Reject(runCtx, id)
			})
		},
	}
}

func newReviewSkipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "skip <id>...",
		Short: "Skip items without resolving them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolveReviewItems(ctx, cmd, args, "skipped", func(runCtx context.Context, o *pipeline.Orchestrator, id string) error {
				return o.Skip(runCtx, id)
			})
		},
	}
}

func resolveReviewItems(ctx *commandContext, cmd *cobra.Command, ids []string, label string, resolve func(context.Context, *pipeline.Orchestrator, string) error) error {
	return ctx.withOrchestrator(cmd, false, func(runCtx context.Context, o *pipeline.Orchestrator) error {
		runCtx = pipeline.RequestContext(runCtx)
		var firstErr error
		for _, id := range ids {
			if err := resolve(runCtx, o, id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Item %s: %v\n", id, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Item %s %s\n", id, label)
		}
		return firstErr
	})
}
