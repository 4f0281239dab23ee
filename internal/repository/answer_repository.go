package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/transfer"
)

type AnswerRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Answer, error)
	GetByCommentID(ctx context.Context, commentID string) (*models.Answer, error)
	GetByReplyID(ctx context.Context, replyID string) (*models.Answer, error)
	CreateForComment(ctx context.Context, commentID string, maxRetries int) (*models.Answer, error)
	Create(ctx context.Context, answer *models.Answer) (int64, error)
	MarkProcessing(ctx context.Context, id int64, retryCount int) error
	MarkCompleted(ctx context.Context, id int64, result *transfer.AnswerResult) error
	MarkFailed(ctx context.Context, id int64, lastError string) error
	MarkReplySent(ctx context.Context, id int64, replyID string) error
	MarkReplyFailed(ctx context.Context, id int64, replyStatus, replyError string) error
	MarkRequeued(ctx context.Context, id int64) error
	ListRetryable(ctx context.Context) ([]*models.Answer, error)
	UpdateAnswerText(ctx context.Context, id int64, text string) error
	SoftDelete(ctx context.Context, id int64) error
}

type answerRepository struct {
	db *sql.DB
}

func NewAnswerRepository(db *sql.DB) AnswerRepository {
	return &answerRepository{db: db}
}

const answerColumns = `id, comment_id, status, answer, confidence, quality_score, retry_count, max_retries, last_error, reply_id, reply_sent, reply_status, reply_error, reply_sent_at, is_deleted, processing_started_at, processing_completed_at, created_at`

func (r *answerRepository) scanAnswer(row interface{ Scan(...any) error }) (*models.Answer, error) {
	var a models.Answer
	err := row.Scan(&a.ID, &a.CommentID, &a.Status, &a.Answer, &a.Confidence, &a.QualityScore, &a.RetryCount, &a.MaxRetries, &a.LastError, &a.ReplyID, &a.ReplySent, &a.ReplyStatus, &a.ReplyError, &a.ReplySentAt, &a.IsDeleted, &a.ProcessingStartedAt, &a.ProcessingCompletedAt, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &a, nil
}

func (r *answerRepository) GetByID(ctx context.Context, id int64) (*models.Answer, error) {
	query := `SELECT ` + answerColumns + ` FROM answers WHERE id = $1`
	return r.scanAnswer(r.db.QueryRowContext(ctx, query, id))
}

// GetByCommentID returns the live answer for a comment. Soft-deleted answers
// are never the active reply.
func (r *answerRepository) GetByCommentID(ctx context.Context, commentID string) (*models.Answer, error) {
	query := `SELECT ` + answerColumns + ` FROM answers WHERE comment_id = $1 AND is_deleted = FALSE ORDER BY created_at DESC LIMIT 1`
	return r.scanAnswer(r.db.QueryRowContext(ctx, query, commentID))
}

func (r *answerRepository) GetByReplyID(ctx context.Context, replyID string) (*models.Answer, error) {
	query := `SELECT ` + answerColumns + ` FROM answers WHERE reply_id = $1 LIMIT 1`
	return r.scanAnswer(r.db.QueryRowContext(ctx, query, replyID))
}

func (r *answerRepository) CreateForComment(ctx context.Context, commentID string, maxRetries int) (*models.Answer, error) {
	query := `
		INSERT INTO answers (comment_id, status, max_retries)
		VALUES ($1, $2, $3)
		RETURNING ` + answerColumns

	return r.scanAnswer(r.db.QueryRowContext(ctx, query, commentID, models.StatusPending, maxRetries))
}

func (r *answerRepository) Create(ctx context.Context, answer *models.Answer) (int64, error) {
	query := `
		INSERT INTO answers (comment_id, status, answer, confidence, quality_score, max_retries, reply_id, reply_sent, reply_status, reply_sent_at, processing_started_at, processing_completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		answer.CommentID, answer.Status, answer.Answer, answer.Confidence, answer.QualityScore,
		answer.MaxRetries, answer.ReplyID, answer.ReplySent, answer.ReplyStatus, answer.ReplySentAt,
		answer.ProcessingStartedAt, answer.ProcessingCompletedAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *answerRepository) MarkProcessing(ctx context.Context, id int64, retryCount int) error {
	query := `UPDATE answers SET status = $1, processing_started_at = $2, retry_count = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, models.StatusProcessing, time.Now(), retryCount, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *answerRepository) MarkCompleted(ctx context.Context, id int64, result *transfer.AnswerResult) error {
	query := `
		UPDATE answers
		SET status = $1,
			answer = $2,
			confidence = $3,
			quality_score = $4,
			last_error = NULL,
			processing_completed_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query, models.StatusCompleted, result.Answer, result.Confidence, result.QualityScore, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *answerRepository) MarkFailed(ctx context.Context, id int64, lastError string) error {
	query := `UPDATE answers SET status = $1, last_error = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, models.StatusFailed, lastError, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// MarkRequeued is the sweep re-enqueue path. It consumes one unit of the
// retry budget per pass.
func (r *answerRepository) MarkRequeued(ctx context.Context, id int64) error {
	query := `UPDATE answers SET status = $1, retry_count = retry_count + 1, last_error = NULL WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, models.StatusPending, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *answerRepository) ListRetryable(ctx context.Context) ([]*models.Answer, error) {
	query := `
		SELECT ` + answerColumns + `
		FROM answers
		WHERE status = $1 AND retry_count < max_retries AND is_deleted = FALSE
	`

	rows, err := r.db.QueryContext(ctx, query, models.StatusFailed)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var answers []*models.Answer
	for rows.Next() {
		a, err := r.scanAnswer(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, nil
}

// MarkReplySent flips reply_sent false -> true. The WHERE clause keeps it a
// single transition per live answer.
func (r *answerRepository) MarkReplySent(ctx context.Context, id int64, replyID string) error {
	query := `
		UPDATE answers
		SET reply_id = $1,
			reply_sent = TRUE,
			reply_status = $2,
			reply_error = NULL,
			reply_sent_at = $3
		WHERE id = $4 AND reply_sent = FALSE AND is_deleted = FALSE
	`
	_, err := r.db.ExecContext(ctx, query, replyID, models.ReplyStatusSent, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *answerRepository) MarkReplyFailed(ctx context.Context, id int64, replyStatus, replyError string) error {
	query := `UPDATE answers SET reply_status = $1, reply_error = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, replyStatus, replyError, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *answerRepository) UpdateAnswerText(ctx context.Context, id int64, text string) error {
	query := `UPDATE answers SET answer = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, text, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *answerRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE answers SET is_deleted = TRUE, reply_sent = FALSE, reply_status = $1, reply_sent_at = NULL WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, models.ReplyStatusDeleted, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
