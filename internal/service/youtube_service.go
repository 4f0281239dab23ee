package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	config "github.com/replyflow/replyflow/configs"
	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/repository"
	"github.com/replyflow/replyflow/internal/transfer"
	"github.com/replyflow/replyflow/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

type YoutubeService interface {
	SendReply(ctx context.Context, parentID, text string) (string, error)
	UpdateComment(ctx context.Context, commentID, text string) (string, error)
	DeleteComment(ctx context.Context, commentID string) error
	SetModerationStatus(ctx context.Context, commentID, status string) error
	ListRecentComments(ctx context.Context, channelID string) ([]*transfer.IncomingComment, error)
	GetVideoInfo(ctx context.Context, videoID string) (*models.Media, error)
	YoutubeCallback(ctx context.Context, code string) error
	RefreshYoutubeToken(ctx context.Context) error
}

type youtubeService struct {
	cfg config.Config
	ot  repository.OAuthTokenRepository
}

func NewYoutubeService(cfg config.Config, ot repository.OAuthTokenRepository) YoutubeService {
	return &youtubeService{
		cfg: cfg,
		ot:  ot,
	}
}

func (s *youtubeService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Scopes:       []string{youtube.YoutubeForceSslScope},
		Endpoint:     google.Endpoint,
	}
}

func (s *youtubeService) client(ctx context.Context) (*youtube.Service, error) {
	stored, err := s.ot.GetByProvider(ctx, "google")
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, errors.New("youtube account is not connected")
	}

	accessToken, err := utils.Decrypt(stored.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}
	refreshToken, err := utils.Decrypt(stored.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiry:       stored.TokenExpiresAt,
	}

	return youtube.NewService(ctx, option.WithTokenSource(s.oauthConfig().TokenSource(ctx, token)))
}

func (s *youtubeService) SendReply(ctx context.Context, parentID, text string) (string, error) {
	svc, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	reply, err := svc.Comments.Insert([]string{"snippet"}, &youtube.Comment{
		Snippet: &youtube.CommentSnippet{
			ParentId:     parentID,
			TextOriginal: text,
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", wrapGoogleErr(err)
	}

	return reply.Id, nil
}

func (s *youtubeService) UpdateComment(ctx context.Context, commentID, text string) (string, error) {
	svc, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	updated, err := svc.Comments.Update([]string{"snippet"}, &youtube.Comment{
		Id: commentID,
		Snippet: &youtube.CommentSnippet{
			TextOriginal: text,
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", wrapGoogleErr(err)
	}

	return updated.Id, nil
}

func (s *youtubeService) DeleteComment(ctx context.Context, commentID string) error {
	svc, err := s.client(ctx)
	if err != nil {
		return err
	}

	if err := svc.Comments.Delete(commentID).Context(ctx).Do(); err != nil {
		return wrapGoogleErr(err)
	}
	return nil
}

func (s *youtubeService) SetModerationStatus(ctx context.Context, commentID, status string) error {
	svc, err := s.client(ctx)
	if err != nil {
		return err
	}

	if err := svc.Comments.SetModerationStatus([]string{commentID}, status).Context(ctx).Do(); err != nil {
		return wrapGoogleErr(err)
	}
	return nil
}

func (s *youtubeService) ListRecentComments(ctx context.Context, channelID string) ([]*transfer.IncomingComment, error) {
	svc, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := svc.CommentThreads.List([]string{"snippet", "replies"}).
		AllThreadsRelatedToChannelId(channelID).
		Order("time").
		MaxResults(50).
		Context(ctx).Do()
	if err != nil {
		return nil, wrapGoogleErr(err)
	}

	var comments []*transfer.IncomingComment
	for _, thread := range resp.Items {
		if thread.Snippet == nil || thread.Snippet.TopLevelComment == nil {
			continue
		}
		top := thread.Snippet.TopLevelComment
		comments = append(comments, youtubeComment(top, ""))

		if thread.Replies != nil {
			for _, reply := range thread.Replies.Comments {
				comments = append(comments, youtubeComment(reply, top.Id))
			}
		}
	}

	return comments, nil
}

func youtubeComment(c *youtube.Comment, parentID string) *transfer.IncomingComment {
	snippet := c.Snippet

	authorID := ""
	if snippet.AuthorChannelId != nil {
		authorID = snippet.AuthorChannelId.Value
	}

	createdAt := time.Now()
	if t, err := time.Parse(time.RFC3339, snippet.PublishedAt); err == nil {
		createdAt = t
	}

	raw, _ := json.Marshal(c)

	return &transfer.IncomingComment{
		ID:        c.Id,
		ParentID:  parentID,
		MediaID:   snippet.VideoId,
		UserID:    authorID,
		Username:  snippet.AuthorDisplayName,
		Text:      snippet.TextOriginal,
		Platform:  models.PlatformYoutube,
		CreatedAt: createdAt,
		RawData:   raw,
	}
}

func (s *youtubeService) GetVideoInfo(ctx context.Context, videoID string) (*models.Media, error) {
	svc, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Videos.List([]string{"snippet", "statistics"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, wrapGoogleErr(err)
	}
	if len(resp.Items) == 0 {
		return nil, &PlatformError{StatusCode: 404, Message: "video not found"}
	}

	video := resp.Items[0]
	media := &models.Media{
		ID:       videoID,
		Platform: models.PlatformYoutube,
	}
	if video.Snippet != nil {
		media.Caption = nullString(video.Snippet.Title + "\n" + video.Snippet.Description)
		media.MediaType = nullString("VIDEO")
		media.Username = nullString(video.Snippet.ChannelTitle)
		media.Permalink = nullString("https://www.youtube.com/watch?v=" + videoID)
	}
	if video.Statistics != nil {
		media.CommentsCount = int(video.Statistics.CommentCount)
		media.LikeCount = int(video.Statistics.LikeCount)
	}

	return media, nil
}

func (s *youtubeService) YoutubeCallback(ctx context.Context, code string) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	oauthConfig := s.oauthConfig()
	if oauthConfig.ClientID == "" || oauthConfig.ClientSecret == "" || oauthConfig.RedirectURL == "" {
		err := errors.New("oauth2 configuration is incomplete")
		slog.Info(err.Error())
		return err
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if token.RefreshToken == "" {
		err = errors.New("refresh token is empty")
		slog.Info(err.Error())
		return err
	}

	svc, err := youtube.NewService(ctx, option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return err
	}

	channels, err := svc.Channels.List([]string{"id", "snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return wrapGoogleErr(err)
	}

	var channelID, channelTitle string
	if len(channels.Items) > 0 {
		channelID = channels.Items[0].Id
		if channels.Items[0].Snippet != nil {
			channelTitle = channels.Items[0].Snippet.Title
		}
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}
	encryptedRefreshToken, err := utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.ot.Upsert(ctx, &models.OAuthToken{
		Provider:        "google",
		AccountID:       channelID,
		AccountUsername: channelTitle,
		AccessToken:     encryptedAccessToken,
		RefreshToken:    encryptedRefreshToken,
		TokenExpiresAt:  token.Expiry,
	})
}

func (s *youtubeService) RefreshYoutubeToken(ctx context.Context) error {
	stored, err := s.ot.GetByProvider(ctx, "google")
	if err != nil {
		return err
	}
	if stored == nil {
		return errors.New("youtube account is not connected")
	}

	refreshToken, err := utils.Decrypt(stored.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	ts := s.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := ts.Token()
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	newRefresh := token.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	encryptedRefreshToken, err := utils.Encrypt([]byte(newRefresh), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.ot.UpdateTokens(ctx, "google", encryptedAccessToken, encryptedRefreshToken, token.Expiry)
}

func wrapGoogleErr(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		perr := &PlatformError{StatusCode: gerr.Code, Message: gerr.Message}
		slog.Info(perr.Error())
		return perr
	}
	slog.Info(err.Error())
	return err
}

func nullString(s string) (ns sql.NullString) {
	if s != "" {
		ns.String = s
		ns.Valid = true
	}
	return ns
}
