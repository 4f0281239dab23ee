package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/service"
)

func (q *Queue) HandleHideCommentTask(ctx context.Context, task *asynq.Task) error {
	var payload HideCommentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	attempt, _ := asynq.GetRetryCount(ctx)
	return q.HideComment(ctx, payload.CommentID, payload.Reason, attempt).AsTaskError()
}

// HideComment removes a comment from public view on its platform. Hiding is
// idempotent: a comment already hidden is left alone.
func (q *Queue) HideComment(ctx context.Context, commentID, reason string, attempt int) Result {
	comment, err := q.c.GetByID(ctx, commentID)
	if err != nil {
		return Retry(err)
	}
	if comment == nil {
		return Error(fmt.Errorf("comment %s not found", commentID))
	}
	if comment.IsHidden {
		return Skipped("already hidden")
	}

	switch comment.Platform {
	case models.PlatformInstagram:
		err = q.ig.HideComment(ctx, commentID, true)
	case models.PlatformYoutube:
		err = q.yt.SetModerationStatus(ctx, commentID, "rejected")
	default:
		return Error(fmt.Errorf("unknown platform: %s", comment.Platform))
	}
	if err != nil {
		if service.IsTransient(err) && attempt < q.cfg.MaxRetries {
			return Retry(err)
		}
		return Error(err)
	}

	if err := q.c.SetHidden(ctx, commentID, true); err != nil {
		return Retry(err)
	}

	slog.Info("comment hidden",
		"comment_id", commentID,
		"platform", comment.Platform,
		"reason", reason)

	return Success()
}

func (q *Queue) HandleReplaceAnswerTask(ctx context.Context, task *asynq.Task) error {
	var payload ReplaceAnswerPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	attempt, _ := asynq.GetRetryCount(ctx)
	return q.ReplaceAnswer(ctx, payload.AnswerID, payload.NewText, attempt).AsTaskError()
}

// ReplaceAnswer swaps the text of an already generated answer. If the reply
// is live on the platform it is edited in place where the platform allows
// it, otherwise deleted and reposted.
func (q *Queue) ReplaceAnswer(ctx context.Context, answerID int64, newText string, attempt int) Result {
	if newText == "" {
		return Error(errors.New("replacement text is empty"))
	}

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

	// Not posted yet. The pending reply task picks up the new text.
	if !answer.ReplySent || !answer.ReplyID.Valid {
		if err := q.a.UpdateAnswerText(ctx, answerID, newText); err != nil {
			return Retry(err)
		}
		return Success()
	}

	comment, err := q.c.GetByID(ctx, answer.CommentID)
	if err != nil {
		return Retry(err)
	}
	if comment == nil {
		return Error(fmt.Errorf("comment %s not found", answer.CommentID))
	}

	err = q.editReply(ctx, comment.Platform, answer.ReplyID.String, newText)
	if err == nil {
		if err := q.a.UpdateAnswerText(ctx, answerID, newText); err != nil {
			return Retry(err)
		}
		slog.Info("reply edited", "answer_id", answerID, "reply_id", answer.ReplyID.String)
		return Success()
	}
	if service.IsTransient(err) && attempt < answer.MaxRetries {
		return Retry(err)
	}

	// Platform cannot edit the reply. Delete and repost instead.
	return q.repostReply(ctx, comment, answer, newText, attempt)
}

func (q *Queue) editReply(ctx context.Context, platform, replyID, text string) error {
	switch platform {
	case models.PlatformInstagram:
		_, err := q.ig.UpdateComment(ctx, replyID, text)
		return err
	case models.PlatformYoutube:
		_, err := q.yt.UpdateComment(ctx, replyID, text)
		return err
	default:
		return fmt.Errorf("unknown platform: %s", platform)
	}
}

func (q *Queue) repostReply(ctx context.Context, comment *models.Comment, answer *models.Answer, newText string, attempt int) Result {
	var err error
	switch comment.Platform {
	case models.PlatformInstagram:
		err = q.ig.DeleteComment(ctx, answer.ReplyID.String)
	case models.PlatformYoutube:
		err = q.yt.DeleteComment(ctx, answer.ReplyID.String)
	}
	if err != nil && service.IsTransient(err) {
		if attempt < answer.MaxRetries {
			return Retry(err)
		}
		return Error(err)
	}
	// A permanent delete failure usually means the reply is already gone.

	replyID, err := q.postReply(ctx, comment, newText)
	if err != nil {
		if service.IsTransient(err) && attempt < answer.MaxRetries {
			return Retry(err)
		}
		return Error(err)
	}

	if err := q.a.SoftDelete(ctx, answer.ID); err != nil {
		return Retry(err)
	}

	now := time.Now()
	replacement := &models.Answer{
		CommentID:             answer.CommentID,
		Status:                models.StatusCompleted,
		Answer:                sql.NullString{String: newText, Valid: true},
		Confidence:            answer.Confidence,
		QualityScore:          answer.QualityScore,
		MaxRetries:            answer.MaxRetries,
		ReplyID:               sql.NullString{String: replyID, Valid: true},
		ReplySent:             true,
		ReplyStatus:           sql.NullString{String: models.ReplyStatusSent, Valid: true},
		ReplySentAt:           sql.NullTime{Time: now, Valid: true},
		ProcessingStartedAt:   sql.NullTime{Time: now, Valid: true},
		ProcessingCompletedAt: sql.NullTime{Time: now, Valid: true},
	}
	if _, err := q.a.Create(ctx, replacement); err != nil {
		return Retry(err)
	}

	slog.Info("reply replaced",
		"comment_id", comment.ID,
		"old_reply_id", answer.ReplyID.String,
		"new_reply_id", replyID)

	return Success()
}
