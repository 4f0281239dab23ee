package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/service"
)

func (q *Queue) HandleClassifyCommentTask(ctx context.Context, task *asynq.Task) error {
	var payload ClassifyCommentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	attempt, _ := asynq.GetRetryCount(ctx)
	return q.ClassifyComment(ctx, payload.CommentID, attempt).AsTaskError()
}

// ClassifyComment runs the LLM classification for one comment and fans out
// the follow-up tasks its label demands.
func (q *Queue) ClassifyComment(ctx context.Context, commentID string, attempt int) Result {
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
	if cl == nil {
		return Error(fmt.Errorf("no classification row for comment %s", commentID))
	}
	if cl.Status == models.StatusCompleted {
		return Skipped("already classified")
	}
	// A sweep re-enqueue starts a fresh asynq task, so the attempt counter
	// continues from the row, not from zero.
	if cl.RetryCount > attempt {
		attempt = cl.RetryCount
	}

	media, err := q.ms.GetOrCreateMedia(ctx, comment.MediaID, comment.Platform)
	if err != nil {
		slog.Info(err.Error())
	}

	// Image posts are described once before their comments are classified.
	if media != nil && media.NeedsContextAnalysis() {
		q.tryEnqueue(NewAnalyzeMediaTask(media.ID, comment.ID))
		return Skipped("awaiting media context")
	}

	if err := q.cl.MarkProcessing(ctx, commentID, attempt); err != nil {
		return Retry(err)
	}

	result, err := q.cls.Classify(ctx, comment.Text, q.ms.BuildContext(media))
	if err != nil {
		if service.IsTransient(err) && attempt < cl.MaxRetries {
			if markErr := q.cl.MarkRetry(ctx, commentID, err.Error()); markErr != nil {
				slog.Info(markErr.Error())
			}
			return Retry(err)
		}
		if markErr := q.cl.MarkFailed(ctx, commentID, err.Error()); markErr != nil {
			slog.Info(markErr.Error())
		}
		return Error(err)
	}

	if err := q.cl.MarkCompleted(ctx, commentID, result); err != nil {
		return Retry(err)
	}

	slog.Info("comment classified",
		"comment_id", commentID,
		"label", result.Classification,
		"confidence", result.Confidence)

	q.fanOut(comment.ID, result.Classification)

	return Success()
}

// fanOut schedules the follow-up work a label requires. Enqueue failures are
// logged, never fatal: classification state is already committed.
func (q *Queue) fanOut(commentID, label string) {
	switch label {
	case models.LabelQuestion:
		q.tryEnqueue(NewGenerateAnswerTask(commentID))
	case models.LabelUrgentIssue:
		q.tryEnqueue(NewHideCommentTask(commentID, label))
		q.tryEnqueue(NewAlertTask(commentID))
	case models.LabelToxic:
		q.tryEnqueue(NewHideCommentTask(commentID, label))
	case models.LabelPartnership:
		q.tryEnqueue(NewAlertTask(commentID))
	}
}
