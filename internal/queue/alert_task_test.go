package queue

import (
	"context"
	"database/sql"
	"testing"

	"github.com/replyflow/replyflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classified(commentID, label string) *models.Classification {
	return &models.Classification{
		CommentID:      commentID,
		Status:         models.StatusCompleted,
		Label:          sql.NullString{String: label, Valid: true},
		Confidence:     91,
		Reasoning:      sql.NullString{String: "clearly " + label, Valid: true},
		SentimentScore: -40,
		MaxRetries:     3,
	}
}

func alertQueue(cl *fakeClassificationRepo, alert *fakeAlertSender) *Queue {
	return newTestQueue(newFakeCommentRepo(testComment("c1")), cl, newFakeAnswerRepo(), newFakeMediaService(), &fakeClassifier{}, &fakeAnswerer{}, newFakeInstagram(), newFakeYoutube(), alert, &fakeEnqueuer{})
}

func TestSendAlert_UrgentIssue(t *testing.T) {
	alert := &fakeAlertSender{}
	q := alertQueue(newFakeClassificationRepo(classified("c1", models.LabelUrgentIssue)), alert)

	res := q.SendAlert(context.Background(), "c1", 0)

	require.Equal(t, OutcomeSuccess, res.Outcome)
	require.Len(t, alert.alerts, 1)
	sent := alert.alerts[0]
	assert.Equal(t, "c1", sent.CommentID)
	assert.Equal(t, models.LabelUrgentIssue, sent.Classification)
	assert.Equal(t, "when does it ship?", sent.CommentText)
	assert.Equal(t, 91, sent.Confidence)
}

func TestSendAlert_LabelsThatAlert(t *testing.T) {
	for _, label := range []string{models.LabelUrgentIssue, models.LabelPartnership, models.LabelCriticalFeedback} {
		alert := &fakeAlertSender{}
		q := alertQueue(newFakeClassificationRepo(classified("c1", label)), alert)

		res := q.SendAlert(context.Background(), "c1", 0)

		assert.Equal(t, OutcomeSuccess, res.Outcome, label)
		assert.Len(t, alert.alerts, 1, label)
	}
}

func TestSendAlert_OtherLabelsAreSkipped(t *testing.T) {
	for _, label := range []string{models.LabelToxic, models.LabelQuestion, models.LabelSpam, models.LabelPositiveFeedback} {
		alert := &fakeAlertSender{}
		q := alertQueue(newFakeClassificationRepo(classified("c1", label)), alert)

		res := q.SendAlert(context.Background(), "c1", 0)

		assert.Equal(t, OutcomeSkipped, res.Outcome, label)
		assert.Empty(t, alert.alerts, label)
	}
}

func TestSendAlert_UnclassifiedCommentIsSkipped(t *testing.T) {
	alert := &fakeAlertSender{}
	q := alertQueue(newFakeClassificationRepo(), alert)

	res := q.SendAlert(context.Background(), "c1", 0)

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Empty(t, alert.alerts)
}

func TestSendAlert_DeliveryFailureRetriesWithinBudget(t *testing.T) {
	alert := &fakeAlertSender{err: assert.AnError}
	q := alertQueue(newFakeClassificationRepo(classified("c1", models.LabelUrgentIssue)), alert)

	res := q.SendAlert(context.Background(), "c1", 0)
	assert.Equal(t, OutcomeRetry, res.Outcome)

	res = q.SendAlert(context.Background(), "c1", 3)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.NoError(t, res.AsTaskError())
}
