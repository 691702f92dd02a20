package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/pipeline"
)

// errPartialRun signals exit code 2: the run completed but some items
// failed or are waiting on review.
var errPartialRun = errors.New("run finished with items needing attention")

func newScanCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Walk the library and enqueue album folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(cmd, dryRun, func(runCtx context.Context, o *pipeline.Orchestrator) error {
				count, err := o.ScanPass(pipeline.RequestContext(runCtx))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d album(s)\n", count)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Trace decisions without mutating state")
	return cmd
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Reconcile scanned items against external catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(cmd, dryRun, func(runCtx context.Context, o *pipeline.Orchestrator) error {
				summary, err := o.ValidatePass(pipeline.RequestContext(runCtx))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"Validated: %d auto-approved, %d need review, %d rejected, %d not found, %d failed\n",
					summary.AutoApproved, summary.NeedsReview, summary.Rejected, summary.NotFound, summary.Failed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Trace decisions without mutating state")
	return cmd
}

func newFixCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Apply stored corrections to validated and approved items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(cmd, dryRun, func(runCtx context.Context, o *pipeline.Orchestrator) error {
				summary, err := o.FixPass(pipeline.RequestContext(runCtx))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Fixed: %d clean, %d partial, %d failed\n",
					summary.Fixed, summary.Partial, summary.Failed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Trace decisions without mutating state")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: scan, validate, fix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(cmd, dryRun, func(runCtx context.Context, o *pipeline.Orchestrator) error {
				summary, err := o.Run(runCtx)
				printRunSummary(cmd, summary)
				if err != nil {
					return err
				}
				if summary.Code == pipeline.ResultPartial {
					return errPartialRun
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Trace decisions without mutating state")
	return cmd
}

func printRunSummary(cmd *cobra.Command, summary pipeline.RunSummary) {
	out := cmd.OutOrStdout()
	label := "Run"
	if summary.DryRun {
		label = "Dry run"
	}
	fmt.Fprintf(out, "%s result: %s\n", label, summary.Code)
	fmt.Fprintf(out, "  scanned:       %d\n", summary.Scanned)
	fmt.Fprintf(out, "  auto-approved: %d\n", summary.Validate.AutoApproved)
	fmt.Fprintf(out, "  needs review:  %d\n", summary.Stats.PendingReview)
	fmt.Fprintf(out, "  rejected:      %d\n", summary.Validate.Rejected)
	fmt.Fprintf(out, "  fixed:         %d\n", summary.Fix.Fixed)
	fmt.Fprintf(out, "  failed:        %d\n", summary.Stats.Failed)
	fmt.Fprintf(out, "  skipped:       %d\n", summary.Stats.Skipped)
}
