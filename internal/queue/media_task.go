package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/replyflow/replyflow/internal/service"
)

func (q *Queue) HandleAnalyzeMediaTask(ctx context.Context, task *asynq.Task) error {
	var payload AnalyzeMediaPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	attempt, _ := asynq.GetRetryCount(ctx)
	return q.AnalyzeMedia(ctx, payload.MediaID, payload.CommentID, attempt).AsTaskError()
}

// AnalyzeMedia describes an image post and hands the waiting comment back to
// classification.
func (q *Queue) AnalyzeMedia(ctx context.Context, mediaID, commentID string, attempt int) Result {
	comment, err := q.c.GetByID(ctx, commentID)
	if err != nil {
		return Retry(err)
	}
	if comment == nil {
		return Error(fmt.Errorf("comment %s not found", commentID))
	}

	media, err := q.ms.GetOrCreateMedia(ctx, mediaID, comment.Platform)
	if err != nil {
		return Retry(err)
	}

	if media.NeedsContextAnalysis() {
		if _, err := q.ms.AnalyzeImage(ctx, media); err != nil {
			if service.IsTransient(err) && attempt < q.cfg.MaxRetries {
				return Retry(err)
			}
			// Classification proceeds without image context.
			slog.Info("image analysis failed", "media_id", mediaID, "error", err.Error())
			if markErr := q.ms.SetEmptyContext(ctx, mediaID); markErr != nil {
				slog.Info(markErr.Error())
			}
		}
	}

	q.tryEnqueue(NewClassifyCommentTask(commentID))

	return Success()
}
