package queue

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	config "github.com/replyflow/replyflow/configs"
	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/transfer"
)

func testConfig() config.Config {
	return config.Config{
		BotAccountID: "bot-account",
		BotUsername:  "replybot",
		MaxRetries:   3,
	}
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func (f *fakeEnqueuer) types() []string {
	var out []string
	for _, t := range f.tasks {
		out = append(out, t.Type())
	}
	return out
}

type fakeCommentRepo struct {
	comments map[string]*models.Comment
	hidden   []string
}

func newFakeCommentRepo(comments ...*models.Comment) *fakeCommentRepo {
	f := &fakeCommentRepo{comments: map[string]*models.Comment{}}
	for _, c := range comments {
		f.comments[c.ID] = c
	}
	return f
}

func (f *fakeCommentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	return f.comments[id], nil
}

func (f *fakeCommentRepo) Create(ctx context.Context, tx *sql.Tx, comment *models.Comment) error {
	f.comments[comment.ID] = comment
	return nil
}

func (f *fakeCommentRepo) SetHidden(ctx context.Context, id string, hidden bool) error {
	if c, ok := f.comments[id]; ok {
		c.IsHidden = hidden
	}
	f.hidden = append(f.hidden, id)
	return nil
}

func (f *fakeCommentRepo) ListRecent(ctx context.Context, limit, offset int) ([]*models.Comment, error) {
	var out []*models.Comment
	for _, c := range f.comments {
		out = append(out, c)
	}
	return out, nil
}

type fakeClassificationRepo struct {
	rows      map[string]*models.Classification
	completed map[string]*transfer.ClassificationResult
}

func newFakeClassificationRepo(rows ...*models.Classification) *fakeClassificationRepo {
	f := &fakeClassificationRepo{
		rows:      map[string]*models.Classification{},
		completed: map[string]*transfer.ClassificationResult{},
	}
	for _, cl := range rows {
		f.rows[cl.CommentID] = cl
	}
	return f
}

func (f *fakeClassificationRepo) GetByCommentID(ctx context.Context, commentID string) (*models.Classification, error) {
	return f.rows[commentID], nil
}

func (f *fakeClassificationRepo) Create(ctx context.Context, tx *sql.Tx, commentID string, maxRetries int) error {
	if _, ok := f.rows[commentID]; !ok {
		f.rows[commentID] = &models.Classification{CommentID: commentID, Status: models.StatusPending, MaxRetries: maxRetries}
	}
	return nil
}

func (f *fakeClassificationRepo) MarkProcessing(ctx context.Context, commentID string, retryCount int) error {
	f.rows[commentID].Status = models.StatusProcessing
	f.rows[commentID].RetryCount = retryCount
	return nil
}

func (f *fakeClassificationRepo) MarkRetry(ctx context.Context, commentID, reason string) error {
	f.rows[commentID].Status = models.StatusRetry
	f.rows[commentID].LastError = sql.NullString{String: reason, Valid: true}
	return nil
}

func (f *fakeClassificationRepo) MarkFailed(ctx context.Context, commentID, lastError string) error {
	f.rows[commentID].Status = models.StatusFailed
	f.rows[commentID].LastError = sql.NullString{String: lastError, Valid: true}
	return nil
}

func (f *fakeClassificationRepo) MarkCompleted(ctx context.Context, commentID string, result *transfer.ClassificationResult) error {
	row := f.rows[commentID]
	row.Status = models.StatusCompleted
	row.Label = sql.NullString{String: result.Classification, Valid: true}
	row.Confidence = result.Confidence
	row.Reasoning = sql.NullString{String: result.Reasoning, Valid: true}
	row.SentimentScore = result.SentimentScore
	row.ToxicityScore = result.ToxicityScore
	f.completed[commentID] = result
	return nil
}

func (f *fakeClassificationRepo) MarkPending(ctx context.Context, commentID string) error {
	f.rows[commentID].Status = models.StatusPending
	f.rows[commentID].RetryCount = 0
	return nil
}

func (f *fakeClassificationRepo) MarkRequeued(ctx context.Context, commentID string) error {
	row := f.rows[commentID]
	row.Status = models.StatusPending
	row.RetryCount++
	row.LastError = sql.NullString{}
	return nil
}

func (f *fakeClassificationRepo) ListRetryable(ctx context.Context, pendingBefore time.Time) ([]*models.Classification, error) {
	var out []*models.Classification
	for _, cl := range f.rows {
		switch {
		case cl.Status == models.StatusRetry:
			out = append(out, cl)
		case cl.Status == models.StatusFailed && cl.RetryCount < cl.MaxRetries:
			out = append(out, cl)
		case cl.Status == models.StatusPending && cl.RetryCount < cl.MaxRetries && cl.CreatedAt.Before(pendingBefore):
			out = append(out, cl)
		}
	}
	return out, nil
}

type fakeAnswerRepo struct {
	rows   map[int64]*models.Answer
	nextID int64
}

func newFakeAnswerRepo(rows ...*models.Answer) *fakeAnswerRepo {
	f := &fakeAnswerRepo{rows: map[int64]*models.Answer{}, nextID: 1}
	for _, a := range rows {
		f.rows[a.ID] = a
		if a.ID >= f.nextID {
			f.nextID = a.ID + 1
		}
	}
	return f
}

func (f *fakeAnswerRepo) GetByID(ctx context.Context, id int64) (*models.Answer, error) {
	return f.rows[id], nil
}

func (f *fakeAnswerRepo) GetByCommentID(ctx context.Context, commentID string) (*models.Answer, error) {
	for _, a := range f.rows {
		if a.CommentID == commentID && !a.IsDeleted {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAnswerRepo) GetByReplyID(ctx context.Context, replyID string) (*models.Answer, error) {
	for _, a := range f.rows {
		if a.ReplyID.Valid && a.ReplyID.String == replyID {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAnswerRepo) CreateForComment(ctx context.Context, commentID string, maxRetries int) (*models.Answer, error) {
	a := &models.Answer{ID: f.nextID, CommentID: commentID, Status: models.StatusPending, MaxRetries: maxRetries}
	f.rows[a.ID] = a
	f.nextID++
	return a, nil
}

func (f *fakeAnswerRepo) Create(ctx context.Context, answer *models.Answer) (int64, error) {
	answer.ID = f.nextID
	f.rows[answer.ID] = answer
	f.nextID++
	return answer.ID, nil
}

func (f *fakeAnswerRepo) MarkProcessing(ctx context.Context, id int64, retryCount int) error {
	f.rows[id].Status = models.StatusProcessing
	f.rows[id].RetryCount = retryCount
	return nil
}

func (f *fakeAnswerRepo) MarkCompleted(ctx context.Context, id int64, result *transfer.AnswerResult) error {
	a := f.rows[id]
	a.Status = models.StatusCompleted
	a.Answer = sql.NullString{String: result.Answer, Valid: true}
	a.Confidence = result.Confidence
	a.QualityScore = result.QualityScore
	return nil
}

func (f *fakeAnswerRepo) MarkFailed(ctx context.Context, id int64, lastError string) error {
	a := f.rows[id]
	a.Status = models.StatusFailed
	a.LastError = sql.NullString{String: lastError, Valid: true}
	return nil
}

func (f *fakeAnswerRepo) MarkReplySent(ctx context.Context, id int64, replyID string) error {
	a := f.rows[id]
	if a.ReplySent || a.IsDeleted {
		return nil
	}
	a.ReplySent = true
	a.ReplyID = sql.NullString{String: replyID, Valid: true}
	a.ReplyStatus = sql.NullString{String: models.ReplyStatusSent, Valid: true}
	return nil
}

func (f *fakeAnswerRepo) MarkReplyFailed(ctx context.Context, id int64, replyStatus, replyError string) error {
	a := f.rows[id]
	a.ReplyStatus = sql.NullString{String: replyStatus, Valid: true}
	a.ReplyError = sql.NullString{String: replyError, Valid: true}
	return nil
}

func (f *fakeAnswerRepo) MarkRequeued(ctx context.Context, id int64) error {
	a := f.rows[id]
	a.Status = models.StatusPending
	a.RetryCount++
	a.LastError = sql.NullString{}
	return nil
}

func (f *fakeAnswerRepo) ListRetryable(ctx context.Context) ([]*models.Answer, error) {
	var out []*models.Answer
	for _, a := range f.rows {
		if a.Status == models.StatusFailed && a.RetryCount < a.MaxRetries && !a.IsDeleted {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAnswerRepo) UpdateAnswerText(ctx context.Context, id int64, text string) error {
	f.rows[id].Answer = sql.NullString{String: text, Valid: true}
	return nil
}

func (f *fakeAnswerRepo) SoftDelete(ctx context.Context, id int64) error {
	a := f.rows[id]
	a.IsDeleted = true
	a.ReplySent = false
	a.ReplyStatus = sql.NullString{String: models.ReplyStatusDeleted, Valid: true}
	return nil
}

type fakeMediaService struct {
	media      map[string]*models.Media
	analyzeErr error
	analyzed   []string
	emptied    []string
}

func newFakeMediaService(media ...*models.Media) *fakeMediaService {
	f := &fakeMediaService{media: map[string]*models.Media{}}
	for _, m := range media {
		f.media[m.ID] = m
	}
	return f
}

func (f *fakeMediaService) GetOrCreateMedia(ctx context.Context, mediaID, platform string) (*models.Media, error) {
	if m, ok := f.media[mediaID]; ok {
		return m, nil
	}
	m := &models.Media{ID: mediaID, Platform: platform}
	f.media[mediaID] = m
	return m, nil
}

func (f *fakeMediaService) BuildContext(media *models.Media) string {
	if media != nil && media.Caption.Valid {
		return "Post caption: " + media.Caption.String
	}
	return ""
}

func (f *fakeMediaService) AnalyzeImage(ctx context.Context, media *models.Media) (string, error) {
	if f.analyzeErr != nil {
		return "", f.analyzeErr
	}
	f.analyzed = append(f.analyzed, media.ID)
	media.MediaContext = sql.NullString{String: "a photo", Valid: true}
	return "a photo", nil
}

func (f *fakeMediaService) SetEmptyContext(ctx context.Context, mediaID string) error {
	f.emptied = append(f.emptied, mediaID)
	if m, ok := f.media[mediaID]; ok {
		m.MediaContext = sql.NullString{String: "", Valid: true}
	}
	return nil
}

type fakeClassifier struct {
	result *transfer.ClassificationResult
	errs   []error
	calls  int
}

func (f *fakeClassifier) Classify(ctx context.Context, text, mediaContext string) (*transfer.ClassificationResult, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.result, nil
}

type fakeAnswerer struct {
	result  *transfer.AnswerResult
	err     error
	gotKey  string
	gotUser string
}

func (f *fakeAnswerer) GenerateAnswer(ctx context.Context, question, conversationKey, username string) (*transfer.AnswerResult, error) {
	f.gotKey = conversationKey
	f.gotUser = username
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeInstagram struct {
	replies   map[string]string // comment id -> text
	hidden    []string
	deleted   []string
	sendErr   error
	replyID   string
	updateErr error
}

func newFakeInstagram() *fakeInstagram {
	return &fakeInstagram{replies: map[string]string{}, replyID: "ig-reply-1", updateErr: errors.New("unsupported")}
}

func (f *fakeInstagram) SendReply(ctx context.Context, commentID, text string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.replies[commentID] = text
	return f.replyID, nil
}

func (f *fakeInstagram) HideComment(ctx context.Context, commentID string, hide bool) error {
	f.hidden = append(f.hidden, commentID)
	return nil
}

func (f *fakeInstagram) DeleteComment(ctx context.Context, commentID string) error {
	f.deleted = append(f.deleted, commentID)
	return nil
}

func (f *fakeInstagram) UpdateComment(ctx context.Context, commentID, text string) (string, error) {
	return "", f.updateErr
}

func (f *fakeInstagram) GetMediaInfo(ctx context.Context, mediaID string) (*transfer.InstagramMediaInfo, error) {
	return &transfer.InstagramMediaInfo{ID: mediaID}, nil
}

func (f *fakeInstagram) InstagramCallback(ctx context.Context, code string) error { return nil }
func (f *fakeInstagram) RefreshInstagramToken(ctx context.Context) error          { return nil }

type fakeYoutube struct {
	replies   map[string]string // parent id -> text
	moderated map[string]string
	deleted   []string
	updated   map[string]string
	sendErr   error
	updateErr error
	replyID   string
}

func newFakeYoutube() *fakeYoutube {
	return &fakeYoutube{
		replies:   map[string]string{},
		moderated: map[string]string{},
		updated:   map[string]string{},
		replyID:   "yt-reply-1",
	}
}

func (f *fakeYoutube) SendReply(ctx context.Context, parentID, text string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.replies[parentID] = text
	return f.replyID, nil
}

func (f *fakeYoutube) UpdateComment(ctx context.Context, commentID, text string) (string, error) {
	if f.updateErr != nil {
		return "", f.updateErr
	}
	f.updated[commentID] = text
	return commentID, nil
}

func (f *fakeYoutube) DeleteComment(ctx context.Context, commentID string) error {
	f.deleted = append(f.deleted, commentID)
	return nil
}

func (f *fakeYoutube) SetModerationStatus(ctx context.Context, commentID, status string) error {
	f.moderated[commentID] = status
	return nil
}

func (f *fakeYoutube) ListRecentComments(ctx context.Context, channelID string) ([]*transfer.IncomingComment, error) {
	return nil, nil
}

func (f *fakeYoutube) GetVideoInfo(ctx context.Context, videoID string) (*models.Media, error) {
	return &models.Media{ID: videoID, Platform: models.PlatformYoutube}, nil
}

func (f *fakeYoutube) YoutubeCallback(ctx context.Context, code string) error { return nil }
func (f *fakeYoutube) RefreshYoutubeToken(ctx context.Context) error          { return nil }

type fakeAlertSender struct {
	alerts []*transfer.CommentAlert
	err    error
}

func (f *fakeAlertSender) SendAlert(alert *transfer.CommentAlert) error {
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, alert)
	return nil
}

func newTestQueue(
	c *fakeCommentRepo,
	cl *fakeClassificationRepo,
	a *fakeAnswerRepo,
	ms *fakeMediaService,
	cls *fakeClassifier,
	ans *fakeAnswerer,
	ig *fakeInstagram,
	yt *fakeYoutube,
	alert *fakeAlertSender,
	enq *fakeEnqueuer) *Queue {
	return NewQueue(testConfig(), enq, c, cl, a, ms, cls, ans, ig, yt, alert)
}
