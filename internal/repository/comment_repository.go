package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/replyflow/replyflow/internal/models"
)

type CommentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	Create(ctx context.Context, tx *sql.Tx, comment *models.Comment) error
	SetHidden(ctx context.Context, id string, hidden bool) error
	ListRecent(ctx context.Context, limit, offset int) ([]*models.Comment, error)
}

type commentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{db: db}
}

// IsUniqueViolation reports whether err is a Postgres duplicate-key error.
// A concurrent insert losing this race is absorbed as "already exists".
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const commentColumns = `id, parent_id, media_id, user_id, username, text, platform, is_hidden, hidden_at, raw_data, created_at`

func (r *commentRepository) Create(ctx context.Context, tx *sql.Tx, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, parent_id, media_id, user_id, username, text, platform, raw_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, comment.ID, comment.ParentID, comment.MediaID, comment.UserID, comment.Username, comment.Text, comment.Platform, comment.RawData, comment.CreatedAt)
	} else {
		_, err = r.db.ExecContext(ctx, query, comment.ID, comment.ParentID, comment.MediaID, comment.UserID, comment.Username, comment.Text, comment.Platform, comment.RawData, comment.CreatedAt)
	}
	if err != nil {
		if !IsUniqueViolation(err) {
			slog.Info(err.Error())
		}
		return err
	}

	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var comment models.Comment
	err := row.Scan(&comment.ID, &comment.ParentID, &comment.MediaID, &comment.UserID, &comment.Username, &comment.Text, &comment.Platform, &comment.IsHidden, &comment.HiddenAt, &comment.RawData, &comment.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &comment, nil
}

func (r *commentRepository) SetHidden(ctx context.Context, id string, hidden bool) error {
	query := `UPDATE comments SET is_hidden = $1, hidden_at = $2 WHERE id = $3`

	var hiddenAt sql.NullTime
	if hidden {
		hiddenAt = sql.NullTime{Time: time.Now(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query, hidden, hiddenAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *commentRepository) ListRecent(ctx context.Context, limit, offset int) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(&comment.ID, &comment.ParentID, &comment.MediaID, &comment.UserID, &comment.Username, &comment.Text, &comment.Platform, &comment.IsHidden, &comment.HiddenAt, &comment.RawData, &comment.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		comments = append(comments, &comment)
	}
	return comments, nil
}
