package queue

import (
	"context"
	"database/sql"
	"testing"

	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/service"
	"github.com/replyflow/replyflow/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answerQueue(ans *fakeAnswerer, a *fakeAnswerRepo, enq *fakeEnqueuer, comments ...*models.Comment) *Queue {
	if len(comments) == 0 {
		comments = []*models.Comment{testComment("c1")}
	}
	return newTestQueue(newFakeCommentRepo(comments...), newFakeClassificationRepo(), a, newFakeMediaService(), &fakeClassifier{}, ans, newFakeInstagram(), newFakeYoutube(), &fakeAlertSender{}, enq)
}

func TestGenerateAnswer_SuccessEnqueuesReply(t *testing.T) {
	ans := &fakeAnswerer{result: &transfer.AnswerResult{Answer: "It ships within 3 days.", Confidence: 0.9, QualityScore: 85}}
	repo := newFakeAnswerRepo()
	enq := &fakeEnqueuer{}
	q := answerQueue(ans, repo, enq)

	res := q.GenerateAnswer(context.Background(), "c1", 0)

	require.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, []string{TaskTypeSendReply}, enq.types())

	answer, err := repo.GetByCommentID(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, models.StatusCompleted, answer.Status)
	assert.Equal(t, "It ships within 3 days.", answer.Answer.String)
	assert.Equal(t, 85, answer.QualityScore)
}

func TestGenerateAnswer_ConversationKeyIsThreadRoot(t *testing.T) {
	reply := testComment("c2")
	reply.ParentID = sql.NullString{String: "root1", Valid: true}

	ans := &fakeAnswerer{result: &transfer.AnswerResult{Answer: "Sure!"}}
	q := answerQueue(ans, newFakeAnswerRepo(), &fakeEnqueuer{}, reply)

	res := q.GenerateAnswer(context.Background(), "c2", 0)

	require.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, "root1", ans.gotKey)
	assert.Equal(t, "alice", ans.gotUser)
}

func TestGenerateAnswer_AlreadyGeneratedSkipsButStillReplies(t *testing.T) {
	existing := &models.Answer{
		ID:        7,
		CommentID: "c1",
		Status:    models.StatusCompleted,
		Answer:    sql.NullString{String: "done already", Valid: true},
	}
	ans := &fakeAnswerer{}
	enq := &fakeEnqueuer{}
	q := answerQueue(ans, newFakeAnswerRepo(existing), enq)

	res := q.GenerateAnswer(context.Background(), "c1", 0)

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Equal(t, []string{TaskTypeSendReply}, enq.types())
}

func TestGenerateAnswer_TransientFailureRetries(t *testing.T) {
	ans := &fakeAnswerer{err: &service.PlatformError{StatusCode: 503, Message: "model overloaded"}}
	repo := newFakeAnswerRepo()
	q := answerQueue(ans, repo, &fakeEnqueuer{})

	res := q.GenerateAnswer(context.Background(), "c1", 0)

	assert.Equal(t, OutcomeRetry, res.Outcome)
	assert.Error(t, res.AsTaskError())

	answer, _ := repo.GetByCommentID(context.Background(), "c1")
	require.NotNil(t, answer)
	assert.Equal(t, models.StatusFailed, answer.Status)
	assert.Contains(t, answer.LastError.String, "model overloaded")
}

func TestGenerateAnswer_PermanentFailureIsTerminal(t *testing.T) {
	ans := &fakeAnswerer{err: &service.PlatformError{StatusCode: 400, Message: "blocked prompt"}}
	repo := newFakeAnswerRepo()
	enq := &fakeEnqueuer{}
	q := answerQueue(ans, repo, enq)

	res := q.GenerateAnswer(context.Background(), "c1", 0)

	assert.Equal(t, OutcomeError, res.Outcome)
	assert.NoError(t, res.AsTaskError())
	assert.Empty(t, enq.tasks)
}

func TestGenerateAnswer_UnknownCommentIsTerminal(t *testing.T) {
	q := answerQueue(&fakeAnswerer{}, newFakeAnswerRepo(), &fakeEnqueuer{})

	res := q.GenerateAnswer(context.Background(), "missing", 0)

	assert.Equal(t, OutcomeError, res.Outcome)
	assert.NoError(t, res.AsTaskError())
}
