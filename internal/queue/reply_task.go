package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/service"
)

func (q *Queue) HandleSendReplyTask(ctx context.Context, task *asynq.Task) error {
	var payload SendReplyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	attempt, _ := asynq.GetRetryCount(ctx)
	return q.SendReply(ctx, payload.AnswerID, attempt).AsTaskError()
}

// SendReply posts a generated answer to the platform. Each live answer posts
// at most once: the reply_sent flag only ever moves false to true.
func (q *Queue) SendReply(ctx context.Context, answerID int64, attempt int) Result {
	answer, err := q.a.GetByID(ctx, answerID)
	if err != nil {
		return Retry(err)
	}
	if answer == nil {
		return Error(fmt.Errorf("answer %d not found", answerID))
	}
	if answer.IsDeleted {
		return Skipped("answer deleted")
	}
	if answer.ReplySent {
		return Skipped("reply already sent")
	}
	if !answer.Answer.Valid || answer.Answer.String == "" {
		return Error(fmt.Errorf("answer %d has no text", answerID))
	}

	comment, err := q.c.GetByID(ctx, answer.CommentID)
	if err != nil {
		return Retry(err)
	}
	if comment == nil {
		return Error(fmt.Errorf("comment %s not found", answer.CommentID))
	}
	if comment.UserID == q.cfg.BotAccountID || strings.EqualFold(comment.Username, q.cfg.BotUsername) {
		return Skipped("own comment")
	}

	replyID, err := q.postReply(ctx, comment, answer.Answer.String)
	if err != nil {
		if service.IsTransient(err) && attempt < answer.MaxRetries {
			if markErr := q.a.MarkReplyFailed(ctx, answerID, models.ReplyStatusFailed, err.Error()); markErr != nil {
				slog.Info(markErr.Error())
			}
			return Retry(err)
		}
		if markErr := q.a.MarkReplyFailed(ctx, answerID, models.ReplyStatusError, err.Error()); markErr != nil {
			slog.Info(markErr.Error())
		}
		return Error(err)
	}

	if err := q.a.MarkReplySent(ctx, answerID, replyID); err != nil {
		return Retry(err)
	}

	slog.Info("reply sent",
		"answer_id", answerID,
		"comment_id", comment.ID,
		"reply_id", replyID,
		"platform", comment.Platform)

	return Success()
}

func (q *Queue) postReply(ctx context.Context, comment *models.Comment, text string) (string, error) {
	switch comment.Platform {
	case models.PlatformInstagram:
		return q.ig.SendReply(ctx, comment.ID, text)
	case models.PlatformYoutube:
		// The YouTube API only accepts top-level comments as reply parents.
		return q.yt.SendReply(ctx, comment.ThreadRootID(), text)
	default:
		return "", fmt.Errorf("unknown platform: %s", comment.Platform)
	}
}
