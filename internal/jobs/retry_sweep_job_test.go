package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/queue"
	"github.com/replyflow/replyflow/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassificationRepo struct {
	retryable  []*models.Classification
	listErr    error
	requeued   []string
	requeueErr map[string]bool // comment id -> fail requeue
}

func (s *stubClassificationRepo) GetByCommentID(ctx context.Context, commentID string) (*models.Classification, error) {
	return nil, nil
}

func (s *stubClassificationRepo) Create(ctx context.Context, tx *sql.Tx, commentID string, maxRetries int) error {
	return nil
}

func (s *stubClassificationRepo) MarkProcessing(ctx context.Context, commentID string, retryCount int) error {
	return nil
}

func (s *stubClassificationRepo) MarkRetry(ctx context.Context, commentID, reason string) error {
	return nil
}

func (s *stubClassificationRepo) MarkFailed(ctx context.Context, commentID, lastError string) error {
	return nil
}

func (s *stubClassificationRepo) MarkCompleted(ctx context.Context, commentID string, result *transfer.ClassificationResult) error {
	return nil
}

func (s *stubClassificationRepo) MarkPending(ctx context.Context, commentID string) error {
	return nil
}

func (s *stubClassificationRepo) MarkRequeued(ctx context.Context, commentID string) error {
	if s.requeueErr[commentID] {
		return assert.AnError
	}
	s.requeued = append(s.requeued, commentID)
	return nil
}

func (s *stubClassificationRepo) ListRetryable(ctx context.Context, pendingBefore time.Time) ([]*models.Classification, error) {
	return s.retryable, s.listErr
}

type stubAnswerRepo struct {
	retryable []*models.Answer
	requeued  []int64
}

func (s *stubAnswerRepo) GetByID(ctx context.Context, id int64) (*models.Answer, error) {
	return nil, nil
}
func (s *stubAnswerRepo) GetByCommentID(ctx context.Context, commentID string) (*models.Answer, error) {
	return nil, nil
}
func (s *stubAnswerRepo) GetByReplyID(ctx context.Context, replyID string) (*models.Answer, error) {
	return nil, nil
}
func (s *stubAnswerRepo) CreateForComment(ctx context.Context, commentID string, maxRetries int) (*models.Answer, error) {
	return nil, nil
}
func (s *stubAnswerRepo) Create(ctx context.Context, answer *models.Answer) (int64, error) {
	return 0, nil
}
func (s *stubAnswerRepo) MarkProcessing(ctx context.Context, id int64, retryCount int) error {
	return nil
}
func (s *stubAnswerRepo) MarkCompleted(ctx context.Context, id int64, result *transfer.AnswerResult) error {
	return nil
}
func (s *stubAnswerRepo) MarkFailed(ctx context.Context, id int64, lastError string) error {
	return nil
}
func (s *stubAnswerRepo) MarkReplySent(ctx context.Context, id int64, replyID string) error {
	return nil
}
func (s *stubAnswerRepo) MarkReplyFailed(ctx context.Context, id int64, replyStatus, replyError string) error {
	return nil
}

func (s *stubAnswerRepo) MarkRequeued(ctx context.Context, id int64) error {
	s.requeued = append(s.requeued, id)
	return nil
}

func (s *stubAnswerRepo) ListRetryable(ctx context.Context) ([]*models.Answer, error) {
	return s.retryable, nil
}

func (s *stubAnswerRepo) UpdateAnswerText(ctx context.Context, id int64, text string) error {
	return nil
}
func (s *stubAnswerRepo) SoftDelete(ctx context.Context, id int64) error { return nil }

type stubEnqueuer struct {
	tasks []*asynq.Task
	fail  map[string]bool // comment id -> fail enqueue
}

func (s *stubEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	var payload struct {
		CommentID string `json:"comment_id"`
	}
	_ = json.Unmarshal(task.Payload(), &payload)
	if s.fail[payload.CommentID] {
		return nil, assert.AnError
	}
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func retryRow(commentID, status string, retryCount int) *models.Classification {
	return &models.Classification{CommentID: commentID, Status: status, RetryCount: retryCount, MaxRetries: 3}
}

func TestRetrySweep_EnqueuesRetryableRows(t *testing.T) {
	repo := &stubClassificationRepo{retryable: []*models.Classification{
		retryRow("c1", models.StatusRetry, 1),
		retryRow("c2", models.StatusFailed, 2),
	}}
	enq := &stubEnqueuer{}
	job := NewRetrySweepJob(repo, &stubAnswerRepo{}, enq)

	job.Sweep()

	require.Len(t, enq.tasks, 2)
	for _, task := range enq.tasks {
		assert.Equal(t, queue.TaskTypeClassifyComment, task.Type())
	}
}

// Every re-enqueue must consume retry budget, otherwise a permanently failing
// row would be swept forever.
func TestRetrySweep_ConsumesBudgetOnEveryRequeue(t *testing.T) {
	repo := &stubClassificationRepo{retryable: []*models.Classification{
		retryRow("c1", models.StatusFailed, 0),
		retryRow("c2", models.StatusRetry, 1),
	}}
	enq := &stubEnqueuer{}
	job := NewRetrySweepJob(repo, &stubAnswerRepo{}, enq)

	job.Sweep()

	assert.ElementsMatch(t, []string{"c1", "c2"}, repo.requeued)
	require.Len(t, enq.tasks, 2)
}

func TestRetrySweep_SkipsEnqueueWhenRequeueFails(t *testing.T) {
	repo := &stubClassificationRepo{
		retryable:  []*models.Classification{retryRow("c1", models.StatusFailed, 0)},
		requeueErr: map[string]bool{"c1": true},
	}
	enq := &stubEnqueuer{}
	job := NewRetrySweepJob(repo, &stubAnswerRepo{}, enq)

	job.Sweep()

	assert.Empty(t, enq.tasks)
}

func TestRetrySweep_EnqueuesFailedAnswers(t *testing.T) {
	answers := &stubAnswerRepo{retryable: []*models.Answer{
		{ID: 7, CommentID: "c1", Status: models.StatusFailed, RetryCount: 1, MaxRetries: 3},
	}}
	enq := &stubEnqueuer{}
	job := NewRetrySweepJob(&stubClassificationRepo{}, answers, enq)

	job.Sweep()

	assert.Equal(t, []int64{7}, answers.requeued)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, queue.TaskTypeGenerateAnswer, enq.tasks[0].Type())
}

func TestRetrySweep_ContinuesPastEnqueueFailures(t *testing.T) {
	repo := &stubClassificationRepo{retryable: []*models.Classification{
		retryRow("c1", models.StatusRetry, 1),
		retryRow("c2", models.StatusRetry, 1),
		retryRow("c3", models.StatusFailed, 0),
	}}
	enq := &stubEnqueuer{fail: map[string]bool{"c2": true}}
	job := NewRetrySweepJob(repo, &stubAnswerRepo{}, enq)

	job.Sweep()

	require.Len(t, enq.tasks, 2)
}

func TestRetrySweep_NothingToDo(t *testing.T) {
	enq := &stubEnqueuer{}
	job := NewRetrySweepJob(&stubClassificationRepo{}, &stubAnswerRepo{}, enq)

	job.Sweep()

	assert.Empty(t, enq.tasks)
}
