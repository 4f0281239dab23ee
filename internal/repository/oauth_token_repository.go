package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/replyflow/replyflow/internal/models"
)

type OAuthTokenRepository interface {
	GetByProvider(ctx context.Context, provider string) (*models.OAuthToken, error)
	Upsert(ctx context.Context, token *models.OAuthToken) error
	UpdateTokens(ctx context.Context, provider, accessToken, refreshToken string, expiresAt time.Time) error
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.OAuthToken, error)
}

type oauthTokenRepository struct {
	db *sql.DB
}

func NewOAuthTokenRepository(db *sql.DB) OAuthTokenRepository {
	return &oauthTokenRepository{db: db}
}

const oauthTokenColumns = `id, provider, account_id, account_username, access_token, refresh_token, token_expires_at, created_at, updated_at`

func (r *oauthTokenRepository) GetByProvider(ctx context.Context, provider string) (*models.OAuthToken, error) {
	query := `SELECT ` + oauthTokenColumns + ` FROM oauth_tokens WHERE provider = $1`
	row := r.db.QueryRowContext(ctx, query, provider)

	var t models.OAuthToken
	err := row.Scan(&t.ID, &t.Provider, &t.AccountID, &t.AccountUsername, &t.AccessToken, &t.RefreshToken, &t.TokenExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &t, nil
}

func (r *oauthTokenRepository) Upsert(ctx context.Context, token *models.OAuthToken) error {
	query := `
		INSERT INTO oauth_tokens (provider, account_id, account_username, access_token, refresh_token, token_expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider) DO UPDATE
		SET account_id = EXCLUDED.account_id,
			account_username = EXCLUDED.account_username,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, token.Provider, token.AccountID, token.AccountUsername, token.AccessToken, token.RefreshToken, token.TokenExpiresAt, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *oauthTokenRepository) UpdateTokens(ctx context.Context, provider, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE oauth_tokens
		SET access_token = $1,
			refresh_token = $2,
			token_expires_at = $3,
			updated_at = $4
		WHERE provider = $5
	`
	_, err := r.db.ExecContext(ctx, query, accessToken, refreshToken, expiresAt, time.Now(), provider)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *oauthTokenRepository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.OAuthToken, error) {
	query := `SELECT ` + oauthTokenColumns + ` FROM oauth_tokens WHERE token_expires_at BETWEEN $1 AND $2`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var tokens []*models.OAuthToken
	for rows.Next() {
		var t models.OAuthToken
		err := rows.Scan(&t.ID, &t.Provider, &t.AccountID, &t.AccountUsername, &t.AccessToken, &t.RefreshToken, &t.TokenExpiresAt, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		tokens = append(tokens, &t)
	}
	return tokens, nil
}
