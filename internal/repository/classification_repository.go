package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/transfer"
)

type ClassificationRepository interface {
	GetByCommentID(ctx context.Context, commentID string) (*models.Classification, error)
	Create(ctx context.Context, tx *sql.Tx, commentID string, maxRetries int) error
	MarkProcessing(ctx context.Context, commentID string, retryCount int) error
	MarkRetry(ctx context.Context, commentID, reason string) error
	MarkFailed(ctx context.Context, commentID, lastError string) error
	MarkCompleted(ctx context.Context, commentID string, result *transfer.ClassificationResult) error
	MarkPending(ctx context.Context, commentID string) error
	MarkRequeued(ctx context.Context, commentID string) error
	ListRetryable(ctx context.Context, pendingBefore time.Time) ([]*models.Classification, error)
}

type classificationRepository struct {
	db *sql.DB
}

func NewClassificationRepository(db *sql.DB) ClassificationRepository {
	return &classificationRepository{db: db}
}

const classificationColumns = `id, comment_id, status, label, confidence, reasoning, sentiment_score, toxicity_score, retry_count, max_retries, last_error, processing_started_at, processing_completed_at, created_at`

func (r *classificationRepository) Create(ctx context.Context, tx *sql.Tx, commentID string, maxRetries int) error {
	query := `
		INSERT INTO classifications (comment_id, status, max_retries)
		VALUES ($1, $2, $3)
		ON CONFLICT (comment_id) DO NOTHING
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, commentID, models.StatusPending, maxRetries)
	} else {
		_, err = r.db.ExecContext(ctx, query, commentID, models.StatusPending, maxRetries)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *classificationRepository) GetByCommentID(ctx context.Context, commentID string) (*models.Classification, error) {
	query := `SELECT ` + classificationColumns + ` FROM classifications WHERE comment_id = $1`
	row := r.db.QueryRowContext(ctx, query, commentID)

	var cl models.Classification
	err := row.Scan(&cl.ID, &cl.CommentID, &cl.Status, &cl.Label, &cl.Confidence, &cl.Reasoning, &cl.SentimentScore, &cl.ToxicityScore, &cl.RetryCount, &cl.MaxRetries, &cl.LastError, &cl.ProcessingStartedAt, &cl.ProcessingCompletedAt, &cl.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &cl, nil
}

func (r *classificationRepository) MarkProcessing(ctx context.Context, commentID string, retryCount int) error {
	query := `
		UPDATE classifications
		SET status = $1,
			processing_started_at = $2,
			retry_count = $3
		WHERE comment_id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.StatusProcessing, time.Now(), retryCount, commentID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *classificationRepository) MarkRetry(ctx context.Context, commentID, reason string) error {
	query := `UPDATE classifications SET status = $1, last_error = $2 WHERE comment_id = $3`
	_, err := r.db.ExecContext(ctx, query, models.StatusRetry, reason, commentID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *classificationRepository) MarkFailed(ctx context.Context, commentID, lastError string) error {
	query := `UPDATE classifications SET status = $1, last_error = $2 WHERE comment_id = $3`
	_, err := r.db.ExecContext(ctx, query, models.StatusFailed, lastError, commentID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *classificationRepository) MarkCompleted(ctx context.Context, commentID string, result *transfer.ClassificationResult) error {
	query := `
		UPDATE classifications
		SET status = $1,
			label = $2,
			confidence = $3,
			reasoning = $4,
			sentiment_score = $5,
			toxicity_score = $6,
			last_error = NULL,
			processing_completed_at = $7
		WHERE comment_id = $8
	`
	_, err := r.db.ExecContext(ctx, query, models.StatusCompleted, result.Classification, result.Confidence, result.Reasoning, result.SentimentScore, result.ToxicityScore, time.Now(), commentID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// MarkPending is the explicit re-queue path. Status otherwise never moves
// back from completed.
func (r *classificationRepository) MarkPending(ctx context.Context, commentID string) error {
	query := `UPDATE classifications SET status = $1, retry_count = 0, last_error = NULL WHERE comment_id = $2`
	_, err := r.db.ExecContext(ctx, query, models.StatusPending, commentID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// MarkRequeued is the sweep re-enqueue path. Each pass through it consumes
// one unit of the retry budget, so a row that keeps failing falls out of
// ListRetryable after max_retries sweeps.
func (r *classificationRepository) MarkRequeued(ctx context.Context, commentID string) error {
	query := `UPDATE classifications SET status = $1, retry_count = retry_count + 1, last_error = NULL WHERE comment_id = $2`
	_, err := r.db.ExecContext(ctx, query, models.StatusPending, commentID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *classificationRepository) ListRetryable(ctx context.Context, pendingBefore time.Time) ([]*models.Classification, error) {
	query := `
		SELECT ` + classificationColumns + `
		FROM classifications
		WHERE status = $1
			OR (status = $2 AND retry_count < max_retries)
			OR (status = $3 AND retry_count < max_retries AND created_at < $4)
	`

	rows, err := r.db.QueryContext(ctx, query, models.StatusRetry, models.StatusFailed, models.StatusPending, pendingBefore)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var classifications []*models.Classification
	for rows.Next() {
		var cl models.Classification
		err := rows.Scan(&cl.ID, &cl.CommentID, &cl.Status, &cl.Label, &cl.Confidence, &cl.Reasoning, &cl.SentimentScore, &cl.ToxicityScore, &cl.RetryCount, &cl.MaxRetries, &cl.LastError, &cl.ProcessingStartedAt, &cl.ProcessingCompletedAt, &cl.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		classifications = append(classifications, &cl)
	}
	return classifications, nil
}
