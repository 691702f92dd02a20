package pipeline

import (
	"context"
	"fmt"

	"curator/internal/queue"
	"curator/internal/services"
)

// Approve moves a reviewed item to approved so the next fix pass picks it
// up. Only items waiting on review can be approved.
func (o *Orchestrator) Approve(ctx context.Context, id string) error {
	return o.resolveReview(ctx, id, queue.StatusApproved, "approved")
}

// Reject closes out a reviewed item without applying anything.
func (o *Orchestrator) Reject(ctx context.Context, id string) error {
	return o.resolveReview(ctx, id, queue.StatusRejected, "rejected")
}

// Skip marks any non-terminal item skipped.
func (o *Orchestrator) Skip(ctx context.Context, id string) error {
	item, err := o.queue.Get(ctx, id)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "review", "get item", id, err)
	}
	if item == nil {
		return services.Wrap(services.ErrNotFound, "review", "get item", id, nil)
	}
	if item.Status.IsTerminal() {
		return services.Wrap(services.ErrValidation, "review", "skip",
			fmt.Sprintf("item %s is already %s", id, item.Status), nil)
	}
	if err := o.queue.UpdateStatus(ctx, id, queue.StatusSkipped, map[string]any{"review_decision": "skipped"}); err != nil {
		return services.Wrap(services.ErrPersistence, "review", "update status", id, err)
	}
	if _, err := o.records.SaveItemState(item.Location, "skipped", nil); err != nil {
		return services.Wrap(services.ErrPersistence, "review", "save record", item.Location, err)
	}
	return nil
}

func (o *Orchestrator) resolveReview(ctx context.Context, id string, status queue.Status, decision string) error {
	item, err := o.queue.Get(ctx, id)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "review", "get item", id, err)
	}
	if item == nil {
		return services.Wrap(services.ErrNotFound, "review", "get item", id, nil)
	}
	if item.Status != queue.StatusNeedsReview {
		return services.Wrap(services.ErrValidation, "review", "resolve",
			fmt.Sprintf("item %s is %s, not %s", id, item.Status, queue.StatusNeedsReview), nil)
	}
	if err := o.queue.UpdateStatus(ctx, id, status, map[string]any{"review_decision": decision}); err != nil {
		return services.Wrap(services.ErrPersistence, "review", "update status", id, err)
	}
	if _, err := o.records.SaveItemState(item.Location, decision, nil); err != nil {
		return services.Wrap(services.ErrPersistence, "review", "save record", item.Location, err)
	}
	return nil
}
