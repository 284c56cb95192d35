package scheduler

import (
	"context"
	"time"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

// Dispatcher periodically scans for due follow-ups and enqueues a
// dispatch task per row. Actual delivery and claim semantics live in
// the worker; the scan only feeds the queue, so overlapping runs are
// harmless.
type Dispatcher struct {
	service  FollowUpService
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

func NewDispatcher(cfg config.SchedulerConfig, svc FollowUpService, client *Client, log *logger.Logger) *Dispatcher {
	interval := cfg.GetDispatchInterval()
	if interval <= 0 {
		interval = time.Minute
	}

	return &Dispatcher{
		service:  svc,
		client:   client,
		interval: interval,
		log:      log,
	}
}

// Run scans on a ticker until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info("follow-up dispatcher started", "interval", d.interval.String())

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("follow-up dispatcher stopped")
			return
		case <-ticker.C:
			d.dispatchDue(ctx)
		}
	}
}

func (d *Dispatcher) dispatchDue(ctx context.Context) {
	due, err := d.service.GetDueFollowUps(ctx)
	if err != nil {
		d.log.Error("due follow-up scan failed", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	enqueued := 0
	for _, fu := range due {
		if err := d.client.EnqueueDispatch(ctx, fu.ID.String()); err != nil {
			d.log.Error("enqueue follow-up failed", "follow_up_id", fu.ID.String(), "error", err)
			continue
		}
		enqueued++
	}

	d.log.Info("due follow-ups enqueued", "found", len(due), "enqueued", enqueued)
}
