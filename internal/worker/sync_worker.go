package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"innkeep/internal/database"
	"innkeep/internal/metrics"
	"innkeep/internal/models"

	"github.com/rs/zerolog"
)

const (
	TaskUpsert       = "upsert"
	TaskUpdateStatus = "update_status"
)

// ledgerPayload is persisted in SyncTask.Payload as JSON.
type ledgerPayload struct {
	Order  *models.Order `json:"order,omitempty"`
	Status string        `json:"status,omitempty"`
}

// LedgerClient is the sheets surface the worker needs.
type LedgerClient interface {
	UpsertOrder(ctx context.Context, order *models.Order) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
}

// SyncWorker drains the durable sync_queue into the spreadsheet ledger.
// Tasks are persisted first, then nudged through an in-memory channel;
// a periodic poll picks up anything the channel missed (crash, full
// buffer, retry backoff).
type SyncWorker struct {
	db           *database.DB
	ledger       LedgerClient
	retryPolicy  RetryPolicy
	queue        chan models.SyncTask
	pollInterval time.Duration
	batchSize    int
	log          zerolog.Logger
}

func NewSyncWorker(db *database.DB, ledger LedgerClient, retry RetryPolicy, logger *zerolog.Logger) *SyncWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "sync_worker").Logger()
	}

	return &SyncWorker{
		db:           db,
		ledger:       ledger,
		retryPolicy:  retry,
		queue:        make(chan models.SyncTask, models.WorkerQueueSize),
		pollInterval: 2 * time.Second,
		batchSize:    20,
		log:          log,
	}
}

// EnqueueUpsert schedules a full-row sync of the order.
func (w *SyncWorker) EnqueueUpsert(ctx context.Context, order *models.Order) error {
	payload, err := json.Marshal(ledgerPayload{Order: order})
	if err != nil {
		return fmt.Errorf("failed to marshal upsert payload: %w", err)
	}
	return w.enqueue(ctx, models.SyncTask{
		TaskType: TaskUpsert,
		OrderID:  order.ID,
		Payload:  string(payload),
		Status:   models.SyncStatusPending,
	})
}

// EnqueueStatus schedules a status-cell update for the order's row.
func (w *SyncWorker) EnqueueStatus(ctx context.Context, orderID int64, status string) error {
	payload, err := json.Marshal(ledgerPayload{Status: status})
	if err != nil {
		return fmt.Errorf("failed to marshal status payload: %w", err)
	}
	return w.enqueue(ctx, models.SyncTask{
		TaskType: TaskUpdateStatus,
		OrderID:  orderID,
		Payload:  string(payload),
		Status:   models.SyncStatusPending,
	})
}

// enqueue persists the task, then nudges the in-memory queue. A full
// channel is fine: the poll loop will find the row.
func (w *SyncWorker) enqueue(ctx context.Context, task models.SyncTask) error {
	if err := w.db.CreateSyncTask(ctx, &task); err != nil {
		return err
	}

	select {
	case w.queue <- task:
	default:
		w.log.Warn().Int64("task_id", task.ID).Msg("in-memory queue full, deferring to poll")
	}
	return nil
}

// Start runs the worker loop until the context is cancelled.
func (w *SyncWorker) Start(ctx context.Context) {
	w.log.Info().Dur("poll_interval", w.pollInterval).Msg("sync worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("sync worker stopped")
			return
		case task := <-w.queue:
			w.processTask(ctx, task)
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep processes one batch of pending and due-for-retry tasks.
func (w *SyncWorker) Sweep(ctx context.Context) {
	tasks, err := w.db.GetPendingSyncTasks(ctx, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to poll sync queue")
		return
	}
	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}
		w.processTask(ctx, task)
	}
}

// processTask applies one task. The poll can race the channel and hand
// the same task twice; ledger upserts and status writes are idempotent,
// so the duplicate apply is harmless.
func (w *SyncWorker) processTask(ctx context.Context, task models.SyncTask) {
	if err := w.apply(ctx, task); err != nil {
		w.handleFailure(ctx, task, err)
		return
	}

	if err := w.db.MarkSyncTaskDone(ctx, task.ID); err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark task done")
		return
	}
	metrics.IncSyncTask("done")
	w.log.Debug().Int64("task_id", task.ID).Str("type", task.TaskType).Msg("sync task done")
}

func (w *SyncWorker) apply(ctx context.Context, task models.SyncTask) error {
	var payload ledgerPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}

	switch task.TaskType {
	case TaskUpsert:
		if payload.Order == nil {
			return fmt.Errorf("upsert task %d has no order", task.ID)
		}
		return w.ledger.UpsertOrder(ctx, payload.Order)
	case TaskUpdateStatus:
		return w.ledger.UpdateOrderStatus(ctx, task.OrderID, payload.Status)
	default:
		return fmt.Errorf("unknown task type %q", task.TaskType)
	}
}

func (w *SyncWorker) handleFailure(ctx context.Context, task models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.db.MarkSyncTaskFailed(ctx, task.ID, cause.Error()); err != nil {
			w.log.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark task failed")
		}
		metrics.IncSyncTask("failed")
		w.log.Error().Err(cause).Int64("task_id", task.ID).Int("attempts", attempt).Msg("sync task gave up")
		return
	}

	nextRetry := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.MarkSyncTaskRetry(ctx, task.ID, attempt, nextRetry, cause.Error()); err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("failed to schedule retry")
		return
	}
	metrics.IncSyncTask("retry")
	w.log.Warn().Err(cause).Int64("task_id", task.ID).Int("attempt", attempt).Time("next_retry", nextRetry).Msg("sync task retry scheduled")
}
