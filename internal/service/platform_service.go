package service

import (
	"context"
	"fmt"
	"net/url"

	config "github.com/replyflow/replyflow/configs"
	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/repository"
)

const (
	GOOGLE_AUTH_URL    = "https://accounts.google.com/o/oauth2/v2/auth"
	INSTAGRAM_AUTH_URL = "https://www.instagram.com/oauth/authorize"
)

type PlatformService interface {
	GetAuthURL(ctx context.Context, platform, tokenString string) string
	ListConnected(ctx context.Context) ([]*models.OAuthToken, error)
}

type platformService struct {
	cfg config.Config
	ot  repository.OAuthTokenRepository
}

func NewPlatformService(cfg config.Config, ot repository.OAuthTokenRepository) PlatformService {
	return &platformService{
		cfg: cfg,
		ot:  ot,
	}
}

func (s *platformService) GetAuthURL(ctx context.Context, platform, tokenString string) string {
	switch platform {
	case models.PlatformInstagram:
		params := url.Values{}
		params.Add("client_id", s.cfg.InstagramClientID)
		params.Add("scope", "instagram_business_basic,instagram_business_manage_comments")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.InstagramRedirectURI)
		params.Add("state", tokenString)

		return fmt.Sprintf("%s?%s", INSTAGRAM_AUTH_URL, params.Encode())

	case models.PlatformYoutube:
		params := url.Values{}
		params.Add("client_id", s.cfg.GoogleClientID)
		params.Add("redirect_uri", s.cfg.GoogleRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "https://www.googleapis.com/auth/youtube.force-ssl")
		params.Add("state", tokenString)
		params.Add("access_type", "offline")
		params.Add("prompt", "consent")

		return fmt.Sprintf("%s?%s", GOOGLE_AUTH_URL, params.Encode())

	default:
		return ""
	}
}

func (s *platformService) ListConnected(ctx context.Context) ([]*models.OAuthToken, error) {
	var tokens []*models.OAuthToken
	for _, provider := range []string{models.PlatformInstagram, "google"} {
		token, err := s.ot.GetByProvider(ctx, provider)
		if err != nil {
			return nil, err
		}
		if token != nil {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}
