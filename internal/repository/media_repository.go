package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/replyflow/replyflow/internal/models"
)

type MediaRepository interface {
	GetByID(ctx context.Context, id string) (*models.Media, error)
	Create(ctx context.Context, media *models.Media) error
	SetContext(ctx context.Context, id, mediaContext string) error
}

type mediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(db *sql.DB) MediaRepository {
	return &mediaRepository{db: db}
}

const mediaColumns = `id, platform, caption, media_type, media_url, permalink, username, comments_count, like_count, media_context, created_at`

func (r *mediaRepository) GetByID(ctx context.Context, id string) (*models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var m models.Media
	err := row.Scan(&m.ID, &m.Platform, &m.Caption, &m.MediaType, &m.MediaURL, &m.Permalink, &m.Username, &m.CommentsCount, &m.LikeCount, &m.MediaContext, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &m, nil
}

func (r *mediaRepository) Create(ctx context.Context, media *models.Media) error {
	query := `
		INSERT INTO media (id, platform, caption, media_type, media_url, permalink, username, comments_count, like_count, media_context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query, media.ID, media.Platform, media.Caption, media.MediaType, media.MediaURL, media.Permalink, media.Username, media.CommentsCount, media.LikeCount, media.MediaContext)
	if err != nil {
		if !IsUniqueViolation(err) {
			slog.Info(err.Error())
		}
		return err
	}
	return nil
}

func (r *mediaRepository) SetContext(ctx context.Context, id, mediaContext string) error {
	query := `UPDATE media SET media_context = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, mediaContext, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
