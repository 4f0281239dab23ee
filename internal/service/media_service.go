package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/repository"
)

// MediaService resolves the media (post or video) a comment belongs to,
// caching platform lookups in Postgres and producing the context text the
// classifier and answerer see.
type MediaService interface {
	GetOrCreateMedia(ctx context.Context, mediaID, platform string) (*models.Media, error)
	BuildContext(media *models.Media) string
	AnalyzeImage(ctx context.Context, media *models.Media) (string, error)
	SetEmptyContext(ctx context.Context, mediaID string) error
}

type mediaService struct {
	m         repository.MediaRepository
	ig        InstagramService
	yt        YoutubeService
	describer ImageDescriber
	http      *http.Client
}

func NewMediaService(m repository.MediaRepository, ig InstagramService, yt YoutubeService, describer ImageDescriber) MediaService {
	return &mediaService{
		m:         m,
		ig:        ig,
		yt:        yt,
		describer: describer,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *mediaService) GetOrCreateMedia(ctx context.Context, mediaID, platform string) (*models.Media, error) {
	media, err := s.m.GetByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if media != nil {
		return media, nil
	}

	media, err = s.fetchFromPlatform(ctx, mediaID, platform)
	if err != nil {
		slog.Info(err.Error())
		// Classification can still run without post context.
		media = &models.Media{ID: mediaID, Platform: platform}
	}

	if err := s.m.Create(ctx, media); err != nil {
		if repository.IsUniqueViolation(err) {
			return s.m.GetByID(ctx, mediaID)
		}
		return nil, err
	}

	return media, nil
}

func (s *mediaService) fetchFromPlatform(ctx context.Context, mediaID, platform string) (*models.Media, error) {
	switch platform {
	case models.PlatformYoutube:
		return s.yt.GetVideoInfo(ctx, mediaID)
	case models.PlatformInstagram:
		info, err := s.ig.GetMediaInfo(ctx, mediaID)
		if err != nil {
			return nil, err
		}
		return &models.Media{
			ID:            info.ID,
			Platform:      models.PlatformInstagram,
			Caption:       nullString(info.Caption),
			MediaType:     nullString(info.MediaType),
			MediaURL:      nullString(info.MediaURL),
			Permalink:     nullString(info.Permalink),
			Username:      nullString(info.Username),
			CommentsCount: info.CommentsCount,
			LikeCount:     info.LikeCount,
		}, nil
	default:
		return nil, fmt.Errorf("unknown platform: %s", platform)
	}
}

// BuildContext renders the media row into the prompt fragment the LLM tasks
// consume. Returns "" when nothing useful is known about the post.
func (s *mediaService) BuildContext(media *models.Media) string {
	if media == nil {
		return ""
	}

	var b strings.Builder
	if media.Caption.Valid && media.Caption.String != "" {
		fmt.Fprintf(&b, "Post caption: %s\n", media.Caption.String)
	}
	if media.MediaContext.Valid && media.MediaContext.String != "" {
		fmt.Fprintf(&b, "Image description: %s\n", media.MediaContext.String)
	}
	if media.Username.Valid && media.Username.String != "" {
		fmt.Fprintf(&b, "Posted by: %s\n", media.Username.String)
	}

	return b.String()
}

// AnalyzeImage downloads the media image, asks the vision model to describe
// it and persists the description so later comments on the same post reuse it.
func (s *mediaService) AnalyzeImage(ctx context.Context, media *models.Media) (string, error) {
	if !media.MediaURL.Valid || media.MediaURL.String == "" {
		return "", fmt.Errorf("media %s has no image url", media.ID)
	}

	data, mimeType, err := s.downloadImage(ctx, media.MediaURL.String)
	if err != nil {
		return "", err
	}

	description, err := s.describer.DescribeImage(ctx, data, mimeType)
	if err != nil {
		return "", err
	}

	if err := s.m.SetContext(ctx, media.ID, description); err != nil {
		return "", err
	}
	media.MediaContext = sql.NullString{String: description, Valid: true}

	return description, nil
}

// SetEmptyContext records that no image description could be produced so the
// media is not analyzed over and over.
func (s *mediaService) SetEmptyContext(ctx context.Context, mediaID string) error {
	return s.m.SetContext(ctx, mediaID, "")
}

func (s *mediaService) downloadImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &PlatformError{StatusCode: resp.StatusCode, Message: "image download failed"}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return nil, "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return data, mimeType, nil
}
