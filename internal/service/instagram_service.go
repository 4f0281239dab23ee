package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/replyflow/replyflow/configs"
	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/repository"
	"github.com/replyflow/replyflow/internal/transfer"
	"github.com/replyflow/replyflow/pkg/utils"
)

const instagramGraphBase = "https://graph.instagram.com/v21.0"

type InstagramService interface {
	SendReply(ctx context.Context, commentID, text string) (string, error)
	HideComment(ctx context.Context, commentID string, hide bool) error
	DeleteComment(ctx context.Context, commentID string) error
	UpdateComment(ctx context.Context, commentID, text string) (string, error)
	GetMediaInfo(ctx context.Context, mediaID string) (*transfer.InstagramMediaInfo, error)
	InstagramCallback(ctx context.Context, code string) error
	RefreshInstagramToken(ctx context.Context) error
}

type instagramService struct {
	cfg config.Config
	ot  repository.OAuthTokenRepository
}

func NewInstagramService(cfg config.Config, ot repository.OAuthTokenRepository) InstagramService {
	return &instagramService{
		cfg: cfg,
		ot:  ot,
	}
}

func (ig *instagramService) SendReply(ctx context.Context, commentID, text string) (string, error) {
	token, err := ig.accessToken(ctx)
	if err != nil {
		return "", err
	}

	data := url.Values{}
	data.Set("message", text)
	data.Set("access_token", token)

	body, err := ig.doRequest(ctx, http.MethodPost, fmt.Sprintf("%s/%s/replies", instagramGraphBase, commentID), data)
	if err != nil {
		return "", err
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	if resp.ID == "" {
		return "", &PlatformError{StatusCode: http.StatusBadGateway, Message: "reply id missing in response"}
	}

	return resp.ID, nil
}

func (ig *instagramService) HideComment(ctx context.Context, commentID string, hide bool) error {
	token, err := ig.accessToken(ctx)
	if err != nil {
		return err
	}

	data := url.Values{}
	data.Set("hide", fmt.Sprintf("%t", hide))
	data.Set("access_token", token)

	_, err = ig.doRequest(ctx, http.MethodPost, fmt.Sprintf("%s/%s", instagramGraphBase, commentID), data)
	return err
}

func (ig *instagramService) DeleteComment(ctx context.Context, commentID string) error {
	token, err := ig.accessToken(ctx)
	if err != nil {
		return err
	}

	data := url.Values{}
	data.Set("access_token", token)

	_, err = ig.doRequest(ctx, http.MethodDelete, fmt.Sprintf("%s/%s", instagramGraphBase, commentID), data)
	return err
}

// UpdateComment always fails: the Graph API has no comment edit endpoint.
// Callers fall back to delete-and-repost.
func (ig *instagramService) UpdateComment(ctx context.Context, commentID, text string) (string, error) {
	return "", ErrUnsupported
}

func (ig *instagramService) GetMediaInfo(ctx context.Context, mediaID string) (*transfer.InstagramMediaInfo, error) {
	token, err := ig.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	fields := "id,caption,media_type,media_url,permalink,username,comments_count,like_count"
	reqURL := fmt.Sprintf("%s/%s?fields=%s&access_token=%s", instagramGraphBase, mediaID, fields, url.QueryEscape(token))

	body, err := ig.doRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	var info transfer.InstagramMediaInfo
	if err := json.Unmarshal(body, &info); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &info, nil
}

func (ig *instagramService) InstagramCallback(ctx context.Context, code string) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	token, err := ig.exchangeCodeForToken(ctx, code)
	if err != nil {
		return err
	}

	userInfo, err := ig.getUserInfo(ctx, token.LongLivedToken)
	if err != nil {
		return err
	}

	encryptedToken, err := utils.Encrypt([]byte(token.LongLivedToken), []byte(ig.cfg.SecretKey))
	if err != nil {
		return err
	}

	// Instagram long-lived tokens refresh with themselves; there is no
	// separate refresh token.
	return ig.ot.Upsert(ctx, &models.OAuthToken{
		Provider:        models.PlatformInstagram,
		AccountID:       userInfo.UserID,
		AccountUsername: userInfo.Username,
		AccessToken:     encryptedToken,
		RefreshToken:    encryptedToken,
		TokenExpiresAt:  token.ExpiresAt,
	})
}

func (ig *instagramService) RefreshInstagramToken(ctx context.Context) error {
	token, err := ig.accessToken(ctx)
	if err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s/refresh_access_token?grant_type=ig_refresh_token&access_token=%s", instagramGraphBase, url.QueryEscape(token))
	body, err := ig.doRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Info(err.Error())
		return err
	}

	encryptedToken, err := utils.Encrypt([]byte(resp.AccessToken), []byte(ig.cfg.SecretKey))
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	return ig.ot.UpdateTokens(ctx, models.PlatformInstagram, encryptedToken, encryptedToken, expiresAt)
}

func (ig *instagramService) exchangeCodeForToken(ctx context.Context, code string) (*transfer.InstagramToken, error) {
	data := url.Values{}
	data.Set("client_id", ig.cfg.InstagramClientID)
	data.Set("client_secret", ig.cfg.InstagramClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", ig.cfg.InstagramRedirectURI)
	data.Set("code", code)

	resp, err := http.Post(
		"https://api.instagram.com/oauth/access_token",
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to get short-lived token: %v", err)
	}
	defer resp.Body.Close()

	var shortLived struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&shortLived); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	exchangeURL := fmt.Sprintf(
		"https://graph.instagram.com/access_token?grant_type=ig_exchange_token&client_secret=%s&access_token=%s",
		url.QueryEscape(ig.cfg.InstagramClientSecret), url.QueryEscape(shortLived.AccessToken),
	)
	body, err := ig.doRequest(ctx, http.MethodGet, exchangeURL, nil)
	if err != nil {
		return nil, err
	}

	var longLived struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &longLived); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &transfer.InstagramToken{
		AccessToken:    shortLived.AccessToken,
		LongLivedToken: longLived.AccessToken,
		ExpiresAt:      time.Now().Add(time.Duration(longLived.ExpiresIn) * time.Second),
	}, nil
}

func (ig *instagramService) getUserInfo(ctx context.Context, token string) (*transfer.InstagramUserInfo, error) {
	reqURL := fmt.Sprintf("%s/me?fields=id,username,name,profile_picture_url&access_token=%s", instagramGraphBase, url.QueryEscape(token))
	body, err := ig.doRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	var info transfer.InstagramUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &info, nil
}

func (ig *instagramService) accessToken(ctx context.Context) (string, error) {
	token, err := ig.ot.GetByProvider(ctx, models.PlatformInstagram)
	if err != nil {
		return "", err
	}
	if token == nil {
		return "", errors.New("instagram account is not connected")
	}

	return utils.Decrypt(token.AccessToken, []byte(ig.cfg.SecretKey))
}

func (ig *instagramService) doRequest(ctx context.Context, method, reqURL string, data url.Values) ([]byte, error) {
	var reqBody io.Reader
	if data != nil {
		reqBody = strings.NewReader(data.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var igErr transfer.InstagramErrorResponse
		message := string(body)
		if err := json.Unmarshal(body, &igErr); err == nil && igErr.Error.Message != "" {
			message = igErr.Error.Message
		}

		statusCode := resp.StatusCode
		if igErr.Error.IsTransient && statusCode < 500 {
			statusCode = http.StatusServiceUnavailable
		}

		perr := &PlatformError{StatusCode: statusCode, Message: message}
		slog.Info(perr.Error())
		return nil, perr
	}

	return body, nil
}
