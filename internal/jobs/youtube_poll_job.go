package job

import (
	"context"
	"log/slog"

	config "github.com/replyflow/replyflow/configs"
	"github.com/replyflow/replyflow/internal/queue"
	"github.com/replyflow/replyflow/internal/service"
)

// YoutubePollJob pulls recent channel comments. YouTube has no webhook for
// comments, so ingestion runs on a schedule.
type YoutubePollJob struct {
	cfg    config.Config
	yt     service.YoutubeService
	ingest service.IngestService
	enq    queue.Enqueuer
}

func NewYoutubePollJob(cfg config.Config, yt service.YoutubeService, ingest service.IngestService, enq queue.Enqueuer) *YoutubePollJob {
	return &YoutubePollJob{
		cfg:    cfg,
		yt:     yt,
		ingest: ingest,
		enq:    enq,
	}
}

func (j *YoutubePollJob) Poll() {
	ctx := context.Background()

	if j.cfg.YoutubeChannelID == "" {
		return
	}

	comments, err := j.yt.ListRecentComments(ctx, j.cfg.YoutubeChannelID)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var created int
	for _, c := range comments {
		result, err := j.ingest.ProcessComment(ctx, c)
		if err != nil {
			slog.Info(err.Error())
			continue
		}
		if !result.ShouldClassify {
			continue
		}

		created++
		task, err := queue.NewClassifyCommentTask(result.Comment.ID)
		if err != nil {
			slog.Info(err.Error())
			continue
		}
		if _, err := j.enq.Enqueue(task); err != nil {
			slog.Info(err.Error())
		}
	}

	if created > 0 {
		slog.Info("youtube poll finished", "fetched", len(comments), "created", created)
	}
}
