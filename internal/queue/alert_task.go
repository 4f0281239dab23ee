package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/transfer"
)

func (q *Queue) HandleAlertTask(ctx context.Context, task *asynq.Task) error {
	var payload AlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	attempt, _ := asynq.GetRetryCount(ctx)
	return q.SendAlert(ctx, payload.CommentID, attempt).AsTaskError()
}

// alertLabels is the set of classifications a human must see.
var alertLabels = map[string]bool{
	models.LabelUrgentIssue:      true,
	models.LabelPartnership:      true,
	models.LabelCriticalFeedback: true,
}

// SendAlert notifies the operator channel about a comment needing attention.
func (q *Queue) SendAlert(ctx context.Context, commentID string, attempt int) Result {
	comment, err := q.c.GetByID(ctx, commentID)
	if err != nil {
		return Retry(err)
	}
	if comment == nil {
		return Error(fmt.Errorf("comment %s not found", commentID))
	}

	cl, err := q.cl.GetByCommentID(ctx, commentID)
	if err != nil {
		return Retry(err)
	}
	if cl == nil || cl.Status != models.StatusCompleted {
		return Skipped("comment not classified")
	}
	if !alertLabels[cl.Label.String] {
		return Skipped("label does not alert")
	}

	alert := &transfer.CommentAlert{
		CommentID:      comment.ID,
		CommentText:    comment.Text,
		Username:       comment.Username,
		Platform:       comment.Platform,
		MediaID:        comment.MediaID,
		Classification: cl.Label.String,
		Confidence:     cl.Confidence,
		Reasoning:      cl.Reasoning.String,
		SentimentScore: cl.SentimentScore,
		ToxicityScore:  cl.ToxicityScore,
		Timestamp:      time.Now().Format(time.RFC3339),
	}

	if err := q.alert.SendAlert(alert); err != nil {
		if attempt < q.cfg.MaxRetries {
			return Retry(err)
		}
		return Error(err)
	}

	slog.Info("alert sent", "comment_id", commentID, "label", cl.Label.String)

	return Success()
}
