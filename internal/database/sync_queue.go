package database

import (
	"context"
	"fmt"
	"time"

	"innkeep/internal/models"
)

func (db *DB) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	query := `INSERT INTO sync_queue (task_type, order_id, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		task.TaskType,
		task.OrderID,
		task.Payload,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sync task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

// GetPendingSyncTasks returns pending and due-for-retry tasks in FIFO
// order.
func (db *DB) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	query := `SELECT id, task_type, order_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
              FROM sync_queue
              WHERE status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, models.SyncStatusPending, models.SyncStatusRetry, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending sync tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.SyncTask
	for rows.Next() {
		var t models.SyncTask
		if err := rows.Scan(
			&t.ID, &t.TaskType, &t.OrderID, &t.Payload, &t.Status, &t.RetryCount,
			&t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync tasks: %w", err)
	}
	return tasks, nil
}

func (db *DB) MarkSyncTaskDone(ctx context.Context, id int64) error {
	query := `UPDATE sync_queue SET status = ?, processed_at = ?, last_error = '' WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, models.SyncStatusDone, time.Now(), id); err != nil {
		return fmt.Errorf("failed to mark sync task done: %w", err)
	}
	return nil
}

// MarkSyncTaskRetry schedules another attempt; once attempts are
// exhausted the caller marks the task failed instead.
func (db *DB) MarkSyncTaskRetry(ctx context.Context, id int64, retryCount int, nextRetryAt time.Time, lastError string) error {
	query := `UPDATE sync_queue SET status = ?, retry_count = ?, next_retry_at = ?, last_error = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, models.SyncStatusRetry, retryCount, nextRetryAt, lastError, id); err != nil {
		return fmt.Errorf("failed to mark sync task for retry: %w", err)
	}
	return nil
}

func (db *DB) MarkSyncTaskFailed(ctx context.Context, id int64, lastError string) error {
	query := `UPDATE sync_queue SET status = ?, processed_at = ?, last_error = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, models.SyncStatusFailed, time.Now(), lastError, id); err != nil {
		return fmt.Errorf("failed to mark sync task failed: %w", err)
	}
	return nil
}
