package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/repository"
	"github.com/replyflow/replyflow/internal/service"
)

type TokenRefreshJob struct {
	ot repository.OAuthTokenRepository
	yt service.YoutubeService
	ig service.InstagramService
}

func NewTokenRefreshJob(
	ot repository.OAuthTokenRepository,
	yt service.YoutubeService,
	ig service.InstagramService) *TokenRefreshJob {
	return &TokenRefreshJob{
		ot: ot,
		yt: yt,
		ig: ig,
	}
}

func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	tokens, err := j.ot.ListExpiringBetween(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, token := range tokens {
		switch token.Provider {
		case "google":
			if err := j.yt.RefreshYoutubeToken(ctx); err != nil {
				slog.Info("Unable to refresh tokens for YouTube")
			}
		case models.PlatformInstagram:
			if err := j.ig.RefreshInstagramToken(ctx); err != nil {
				slog.Info("Unable to refresh tokens for Instagram")
			}
		}
	}
}
