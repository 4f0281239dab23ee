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

func (q *Queue) HandleGenerateAnswerTask(ctx context.Context, task *asynq.Task) error {
	var payload GenerateAnswerPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	attempt, _ := asynq.GetRetryCount(ctx)
	return q.GenerateAnswer(ctx, payload.CommentID, attempt).AsTaskError()
}

// GenerateAnswer produces the reply text for a question comment and hands it
// to the reply task. Generation failures end up in the answers row, they
// never take the worker down.
func (q *Queue) GenerateAnswer(ctx context.Context, commentID string, attempt int) Result {
	comment, err := q.c.GetByID(ctx, commentID)
	if err != nil {
		return Retry(err)
	}
	if comment == nil {
		return Error(fmt.Errorf("comment %s not found", commentID))
	}

	answer, err := q.a.GetByCommentID(ctx, commentID)
	if err != nil {
		return Retry(err)
	}
	if answer == nil {
		answer, err = q.a.CreateForComment(ctx, commentID, q.cfg.MaxRetries)
		if err != nil {
			return Retry(err)
		}
	}

	if answer.Status == models.StatusCompleted && answer.Answer.Valid {
		if !answer.ReplySent {
			q.tryEnqueue(NewSendReplyTask(answer.ID))
		}
		return Skipped("answer already generated")
	}
	if answer.RetryCount > attempt {
		attempt = answer.RetryCount
	}

	if err := q.a.MarkProcessing(ctx, answer.ID, attempt); err != nil {
		return Retry(err)
	}

	// Replies thread under the same root, so the conversation history is
	// keyed by it.
	result, err := q.ans.GenerateAnswer(ctx, comment.Text, comment.ThreadRootID(), comment.Username)
	if err != nil {
		if markErr := q.a.MarkFailed(ctx, answer.ID, err.Error()); markErr != nil {
			slog.Info(markErr.Error())
		}
		if service.IsTransient(err) && attempt < answer.MaxRetries {
			return Retry(err)
		}
		return Error(err)
	}

	if err := q.a.MarkCompleted(ctx, answer.ID, result); err != nil {
		return Retry(err)
	}

	slog.Info("answer generated",
		"comment_id", commentID,
		"answer_id", answer.ID,
		"quality_score", result.QualityScore)

	q.tryEnqueue(NewSendReplyTask(answer.ID))

	return Success()
}
