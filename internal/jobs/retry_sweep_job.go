package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/replyflow/replyflow/internal/queue"
	"github.com/replyflow/replyflow/internal/repository"
)

// pendingGrace is how long a pending classification may sit untouched before
// the sweep treats its enqueue as lost. Fresh rows inside the window are
// assumed to have a task in flight.
const pendingGrace = 15 * time.Minute

// RetrySweepJob re-enqueues work that asynq lost track of: classifications
// stuck in retry after a worker crash, failed classifications and answers
// with retry budget left, and pending classifications whose enqueue never
// landed. Every re-enqueue consumes one unit of the row's retry budget, so a
// permanently failing row stops being eligible after max_retries sweeps.
type RetrySweepJob struct {
	cl  repository.ClassificationRepository
	a   repository.AnswerRepository
	enq queue.Enqueuer
}

func NewRetrySweepJob(cl repository.ClassificationRepository, a repository.AnswerRepository, enq queue.Enqueuer) *RetrySweepJob {
	return &RetrySweepJob{
		cl:  cl,
		a:   a,
		enq: enq,
	}
}

func (j *RetrySweepJob) Sweep() {
	ctx := context.Background()

	eligible, failed := j.sweepClassifications(ctx)
	ae, af := j.sweepAnswers(ctx)
	eligible += ae
	failed += af

	if eligible == 0 {
		return
	}
	slog.Info("retry sweep finished", "eligible", eligible, "failed", failed)
}

func (j *RetrySweepJob) sweepClassifications(ctx context.Context) (eligible, failed int) {
	retryable, err := j.cl.ListRetryable(ctx, time.Now().Add(-pendingGrace))
	if err != nil {
		slog.Info(err.Error())
		return 0, 0
	}

	for _, cl := range retryable {
		eligible++
		if err := j.cl.MarkRequeued(ctx, cl.CommentID); err != nil {
			failed++
			continue
		}
		task, err := queue.NewClassifyCommentTask(cl.CommentID)
		if err != nil {
			slog.Info(err.Error())
			failed++
			continue
		}
		if _, err := j.enq.Enqueue(task); err != nil {
			slog.Info(err.Error())
			failed++
		}
	}
	return eligible, failed
}

func (j *RetrySweepJob) sweepAnswers(ctx context.Context) (eligible, failed int) {
	retryable, err := j.a.ListRetryable(ctx)
	if err != nil {
		slog.Info(err.Error())
		return 0, 0
	}

	for _, a := range retryable {
		eligible++
		if err := j.a.MarkRequeued(ctx, a.ID); err != nil {
			failed++
			continue
		}
		task, err := queue.NewGenerateAnswerTask(a.CommentID)
		if err != nil {
			slog.Info(err.Error())
			failed++
			continue
		}
		if _, err := j.enq.Enqueue(task); err != nil {
			slog.Info(err.Error())
			failed++
		}
	}
	return eligible, failed
}
