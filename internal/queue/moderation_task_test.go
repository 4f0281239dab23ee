package queue

import (
	"context"
	"database/sql"
	"testing"

	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moderationQueue(c *fakeCommentRepo, a *fakeAnswerRepo, ig *fakeInstagram, yt *fakeYoutube) *Queue {
	return newTestQueue(c, newFakeClassificationRepo(), a, newFakeMediaService(), &fakeClassifier{}, &fakeAnswerer{}, ig, yt, &fakeAlertSender{}, &fakeEnqueuer{})
}

func TestHideComment_Instagram(t *testing.T) {
	comments := newFakeCommentRepo(testComment("c1"))
	ig := newFakeInstagram()
	q := moderationQueue(comments, newFakeAnswerRepo(), ig, newFakeYoutube())

	res := q.HideComment(context.Background(), "c1", models.LabelToxic, 0)

	require.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, []string{"c1"}, ig.hidden)
	assert.True(t, comments.comments["c1"].IsHidden)
}

func TestHideComment_YoutubeUsesModerationStatus(t *testing.T) {
	comment := testComment("c1")
	comment.Platform = models.PlatformYoutube
	comments := newFakeCommentRepo(comment)
	yt := newFakeYoutube()
	q := moderationQueue(comments, newFakeAnswerRepo(), newFakeInstagram(), yt)

	res := q.HideComment(context.Background(), "c1", models.LabelUrgentIssue, 0)

	require.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, "rejected", yt.moderated["c1"])
}

func TestHideComment_AlreadyHiddenIsSkipped(t *testing.T) {
	comment := testComment("c1")
	comment.IsHidden = true
	ig := newFakeInstagram()
	q := moderationQueue(newFakeCommentRepo(comment), newFakeAnswerRepo(), ig, newFakeYoutube())

	res := q.HideComment(context.Background(), "c1", models.LabelToxic, 0)

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Empty(t, ig.hidden)
}

func TestReplaceAnswer_UnsentAnswerOnlyUpdatesText(t *testing.T) {
	answer := &models.Answer{
		ID:         1,
		CommentID:  "c1",
		Status:     models.StatusCompleted,
		Answer:     sql.NullString{String: "old text", Valid: true},
		MaxRetries: 3,
	}
	repo := newFakeAnswerRepo(answer)
	ig := newFakeInstagram()
	q := moderationQueue(newFakeCommentRepo(testComment("c1")), repo, ig, newFakeYoutube())

	res := q.ReplaceAnswer(context.Background(), 1, "new text", 0)

	require.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, "new text", answer.Answer.String)
	assert.Empty(t, ig.deleted)
	assert.Empty(t, ig.replies)
}

func TestReplaceAnswer_YoutubeEditsInPlace(t *testing.T) {
	comment := testComment("c1")
	comment.Platform = models.PlatformYoutube
	answer := readyAnswer(1, "c1")
	answer.ReplySent = true
	answer.ReplyID = sql.NullString{String: "yt-old", Valid: true}

	yt := newFakeYoutube()
	q := moderationQueue(newFakeCommentRepo(comment), newFakeAnswerRepo(answer), newFakeInstagram(), yt)

	res := q.ReplaceAnswer(context.Background(), 1, "fresh text", 0)

	require.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, "fresh text", yt.updated["yt-old"])
	assert.Equal(t, "fresh text", answer.Answer.String)
	assert.Empty(t, yt.deleted)
}

func TestReplaceAnswer_InstagramFallsBackToDeleteAndRepost(t *testing.T) {
	answer := readyAnswer(1, "c1")
	answer.ReplySent = true
	answer.ReplyID = sql.NullString{String: "ig-old", Valid: true}

	repo := newFakeAnswerRepo(answer)
	ig := newFakeInstagram()
	ig.updateErr = service.ErrUnsupported
	ig.replyID = "ig-new"
	q := moderationQueue(newFakeCommentRepo(testComment("c1")), repo, ig, newFakeYoutube())

	res := q.ReplaceAnswer(context.Background(), 1, "fresh text", 0)

	require.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, []string{"ig-old"}, ig.deleted)
	assert.Equal(t, "fresh text", ig.replies["c1"])

	// The old row is soft deleted, a new sent row replaces it.
	assert.True(t, answer.IsDeleted)
	assert.False(t, answer.ReplySent)

	replacement, _ := repo.GetByCommentID(context.Background(), "c1")
	require.NotNil(t, replacement)
	assert.NotEqual(t, answer.ID, replacement.ID)
	assert.Equal(t, "fresh text", replacement.Answer.String)
	assert.True(t, replacement.ReplySent)
	assert.Equal(t, "ig-new", replacement.ReplyID.String)
}

func TestReplaceAnswer_TransientEditErrorRetries(t *testing.T) {
	comment := testComment("c1")
	comment.Platform = models.PlatformYoutube
	answer := readyAnswer(1, "c1")
	answer.ReplySent = true
	answer.ReplyID = sql.NullString{String: "yt-old", Valid: true}

	yt := newFakeYoutube()
	yt.updateErr = &service.PlatformError{StatusCode: 503, Message: "backend error"}
	q := moderationQueue(newFakeCommentRepo(comment), newFakeAnswerRepo(answer), newFakeInstagram(), yt)

	res := q.ReplaceAnswer(context.Background(), 1, "fresh text", 0)

	assert.Equal(t, OutcomeRetry, res.Outcome)
	assert.False(t, answer.IsDeleted)
}

func TestReplaceAnswer_EmptyTextIsRejected(t *testing.T) {
	q := moderationQueue(newFakeCommentRepo(), newFakeAnswerRepo(), newFakeInstagram(), newFakeYoutube())

	res := q.ReplaceAnswer(context.Background(), 1, "", 0)

	assert.Equal(t, OutcomeError, res.Outcome)
}
