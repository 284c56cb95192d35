package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

// responseWindow is how long a sent follow-up waits for a reply before
// the next attempt is scheduled.
const responseWindow = 24 * time.Hour

// FollowUpService is the slice of the conversation service the worker
// needs.
type FollowUpService interface {
	GetDueFollowUps(ctx context.Context) ([]repository.FollowUp, error)
	SendFollowUp(ctx context.Context, id uuid.UUID) error
	ScheduleNextAttempt(ctx context.Context, followUpID uuid.UUID) (repository.FollowUp, error)
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	service FollowUpService
	client  *Client
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, svc FollowUpService, client *Client, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.GetAsynqConcurrency()
	if concurrency <= 0 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		Logger:      asynqLogger{log: log},
	})

	w := &Worker{
		server:  server,
		mux:     asynq.NewServeMux(),
		service: svc,
		client:  client,
		log:     log,
	}
	w.mux.HandleFunc(TaskFollowUpDispatch, w.handleDispatch)
	w.mux.HandleFunc(TaskFollowUpProgress, w.handleProgress)

	return w, nil
}

// Run starts the worker and blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		w.log.Info("stopping follow-up worker")
		w.server.Shutdown()
	}()

	w.log.Info("follow-up worker started")
	return w.server.Run(w.mux)
}

func (w *Worker) handleDispatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpDispatchPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	id, err := uuid.Parse(payload.FollowUpID)
	if err != nil {
		return fmt.Errorf("%w: invalid follow-up id %q", asynq.SkipRetry, payload.FollowUpID)
	}

	if err := w.service.SendFollowUp(ctx, id); err != nil {
		w.log.Error("follow-up dispatch failed", "follow_up_id", id.String(), "error", err)
		return err
	}

	// The lead gets the response window to reply before the chain
	// advances.
	if err := w.client.EnqueueProgressCheck(ctx, id.String(), time.Now().Add(responseWindow)); err != nil {
		w.log.Error("enqueue progress check failed", "follow_up_id", id.String(), "error", err)
		return err
	}

	return nil
}

func (w *Worker) handleProgress(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpProgressPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	id, err := uuid.Parse(payload.FollowUpID)
	if err != nil {
		return fmt.Errorf("%w: invalid follow-up id %q", asynq.SkipRetry, payload.FollowUpID)
	}

	next, err := w.service.ScheduleNextAttempt(ctx, id)
	if err != nil {
		// Terminal outcomes for a progress check: the lead replied, the
		// follow-up was cancelled or erased, or the chain is exhausted.
		if apperr.Is(err, apperr.KindConflict) ||
			apperr.Is(err, apperr.KindNotFound) ||
			apperr.Is(err, apperr.KindValidation) ||
			apperr.Is(err, apperr.KindPolicyViolation) {
			w.log.Info("follow-up chain ended", "follow_up_id", id.String(), "reason", err.Error())
			return nil
		}
		w.log.Error("follow-up progression failed", "follow_up_id", id.String(), "error", err)
		return err
	}

	w.log.Info("next follow-up scheduled",
		"follow_up_id", next.ID.String(),
		"lead_id", next.LeadID.String(),
		"attempt", next.AttemptNumber,
		"scheduled_at", next.ScheduledAt.Format(time.RFC3339),
	)
	return nil
}

// asynqLogger routes asynq's internal logging through our logger.
type asynqLogger struct {
	log *logger.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
