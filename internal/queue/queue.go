package queue

import (
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Enqueuer is the narrow slice of the asynq client tasks and jobs use to
// schedule follow-up work.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type asynqEnqueuer struct {
	client   *asynq.Client
	maxRetry int
}

// NewEnqueuer wraps the asynq client so every task carries the configured
// retry budget unless the caller overrides it.
func NewEnqueuer(client *asynq.Client, maxRetry int) Enqueuer {
	return &asynqEnqueuer{client: client, maxRetry: maxRetry}
}

func (e *asynqEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	opts = append([]asynq.Option{asynq.MaxRetry(e.maxRetry)}, opts...)
	return e.client.Enqueue(task, opts...)
}

func NewClassifyCommentTask(commentID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ClassifyCommentPayload{CommentID: commentID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeClassifyComment, payload), nil
}

func NewGenerateAnswerTask(commentID string) (*asynq.Task, error) {
	payload, err := json.Marshal(GenerateAnswerPayload{CommentID: commentID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeGenerateAnswer, payload), nil
}

func NewSendReplyTask(answerID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(SendReplyPayload{AnswerID: answerID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendReply, payload), nil
}

func NewHideCommentTask(commentID, reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(HideCommentPayload{CommentID: commentID, Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeHideComment, payload), nil
}

func NewReplaceAnswerTask(answerID int64, newText string) (*asynq.Task, error) {
	payload, err := json.Marshal(ReplaceAnswerPayload{AnswerID: answerID, NewText: newText})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReplaceAnswer, payload), nil
}

func NewAlertTask(commentID string) (*asynq.Task, error) {
	payload, err := json.Marshal(AlertPayload{CommentID: commentID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAlert, payload), nil
}

func NewAnalyzeMediaTask(mediaID, commentID string) (*asynq.Task, error) {
	payload, err := json.Marshal(AnalyzeMediaPayload{MediaID: mediaID, CommentID: commentID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAnalyzeMedia, payload), nil
}

// tryEnqueue schedules a follow-up task best effort. A broker hiccup here
// must not fail the task that already committed its own state. The gap is
// closed by the retry sweep.
func (q *Queue) tryEnqueue(task *asynq.Task, err error) {
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if _, err := q.enq.Enqueue(task); err != nil {
		slog.Info("enqueue failed", "task_type", task.Type(), "error", err.Error())
	}
}
