package queue

import (
	config "github.com/replyflow/replyflow/configs"
	"github.com/replyflow/replyflow/internal/repository"
	"github.com/replyflow/replyflow/internal/service"
)

type Queue struct {
	cfg   config.Config
	enq   Enqueuer
	c     repository.CommentRepository
	cl    repository.ClassificationRepository
	a     repository.AnswerRepository
	ms    service.MediaService
	cls   service.Classifier
	ans   service.Answerer
	ig    service.InstagramService
	yt    service.YoutubeService
	alert service.AlertSender
}

func NewQueue(
	cfg config.Config,
	enq Enqueuer,
	c repository.CommentRepository,
	cl repository.ClassificationRepository,
	a repository.AnswerRepository,
	ms service.MediaService,
	cls service.Classifier,
	ans service.Answerer,
	ig service.InstagramService,
	yt service.YoutubeService,
	alert service.AlertSender) *Queue {
	return &Queue{
		cfg:   cfg,
		enq:   enq,
		c:     c,
		cl:    cl,
		a:     a,
		ms:    ms,
		cls:   cls,
		ans:   ans,
		ig:    ig,
		yt:    yt,
		alert: alert,
	}
}

const (
	TaskTypeClassifyComment = "comment:classify"
	TaskTypeGenerateAnswer  = "comment:answer"
	TaskTypeSendReply       = "comment:reply"
	TaskTypeHideComment     = "comment:hide"
	TaskTypeReplaceAnswer   = "comment:replace_answer"
	TaskTypeAlert           = "comment:alert"
	TaskTypeAnalyzeMedia    = "media:analyze"
)

type ClassifyCommentPayload struct {
	CommentID string `json:"comment_id"`
}

type GenerateAnswerPayload struct {
	CommentID string `json:"comment_id"`
}

type SendReplyPayload struct {
	AnswerID int64 `json:"answer_id"`
}

type HideCommentPayload struct {
	CommentID string `json:"comment_id"`
	Reason    string `json:"reason"`
}

type ReplaceAnswerPayload struct {
	AnswerID int64  `json:"answer_id"`
	NewText  string `json:"new_text"`
}

type AlertPayload struct {
	CommentID string `json:"comment_id"`
}

type AnalyzeMediaPayload struct {
	MediaID   string `json:"media_id"`
	CommentID string `json:"comment_id"` // re-enqueued for classification afterwards
}
