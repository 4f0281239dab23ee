package service

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	config "github.com/replyflow/replyflow/configs"
	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/repository"
	"github.com/replyflow/replyflow/internal/transfer"
)

// Ingest outcomes. Only "created" triggers classification.
const (
	IngestCreated = "created"
	IngestExists  = "exists"
	IngestSkipped = "skipped"
)

type IngestResult struct {
	Status         string
	Reason         string
	Comment        *models.Comment
	ShouldClassify bool
}

// IngestService is the entry gate for inbound comments. It filters out events
// the pipeline must never act on, then persists the comment together with its
// pending classification in one transaction.
type IngestService interface {
	ShouldSkip(ctx context.Context, c *transfer.IncomingComment) (bool, string, error)
	ProcessComment(ctx context.Context, c *transfer.IncomingComment) (*IngestResult, error)
}

type ingestService struct {
	cfg config.Config
	db  *sql.DB
	c   repository.CommentRepository
	cl  repository.ClassificationRepository
	a   repository.AnswerRepository
	m   MediaService
}

func NewIngestService(cfg config.Config, db *sql.DB, c repository.CommentRepository, cl repository.ClassificationRepository, a repository.AnswerRepository, m MediaService) IngestService {
	return &ingestService{
		cfg: cfg,
		db:  db,
		c:   c,
		cl:  cl,
		a:   a,
		m:   m,
	}
}

// ShouldSkip applies the ingestion guard rules in order. The returned reason
// is logged and surfaced to the caller, never stored.
func (s *ingestService) ShouldSkip(ctx context.Context, c *transfer.IncomingComment) (bool, string, error) {
	if c.UserID != "" && c.UserID == s.cfg.BotAccountID {
		return true, "bot reply detected", nil
	}
	if c.Username != "" && strings.EqualFold(c.Username, s.cfg.BotUsername) {
		return true, "bot reply detected", nil
	}

	if strings.TrimSpace(c.Text) == "" {
		return true, "empty text", nil
	}

	if c.IsReply() {
		answer, err := s.a.GetByReplyID(ctx, c.ParentID)
		if err != nil {
			return false, "", err
		}
		if answer != nil {
			return true, "reply to bot comment", nil
		}
	}

	// Some platforms echo our own posted reply back as a new inbound event.
	answer, err := s.a.GetByReplyID(ctx, c.ID)
	if err != nil {
		return false, "", err
	}
	if answer != nil {
		return true, "own reply", nil
	}

	existing, err := s.c.GetByID(ctx, c.ID)
	if err != nil {
		return false, "", err
	}
	if existing != nil {
		return true, "already processed", nil
	}

	return false, "", nil
}

func (s *ingestService) ProcessComment(ctx context.Context, c *transfer.IncomingComment) (*IngestResult, error) {
	skip, reason, err := s.ShouldSkip(ctx, c)
	if err != nil {
		return nil, err
	}
	if skip {
		slog.Info("comment skipped", "comment_id", c.ID, "reason", reason)
		if reason == "already processed" {
			// The comment row exists but an earlier run may have died before
			// classification finished. Re-enqueue unless it completed.
			res := &IngestResult{Status: IngestExists, Reason: reason}
			classification, err := s.cl.GetByCommentID(ctx, c.ID)
			if err != nil {
				slog.Info(err.Error())
				return res, nil
			}
			if classification != nil && classification.Status != models.StatusCompleted {
				res.Comment = &models.Comment{ID: c.ID}
				res.ShouldClassify = true
			}
			return res, nil
		}
		return &IngestResult{Status: IngestSkipped, Reason: reason}, nil
	}

	// Media lookup failures are non-fatal. The comment is still ingested.
	if _, err := s.m.GetOrCreateMedia(ctx, c.MediaID, c.Platform); err != nil {
		slog.Info(err.Error())
	}

	comment := &models.Comment{
		ID:        c.ID,
		MediaID:   c.MediaID,
		UserID:    c.UserID,
		Username:  c.Username,
		Text:      c.Text,
		Platform:  c.Platform,
		RawData:   c.RawData,
		CreatedAt: c.CreatedAt,
	}
	if c.ParentID != "" {
		comment.ParentID = sql.NullString{String: c.ParentID, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer tx.Rollback()

	if err := s.c.Create(ctx, tx, comment); err != nil {
		// Two workers racing on the same event. The first insert wins and
		// owns classification.
		if repository.IsUniqueViolation(err) {
			return &IngestResult{Status: IngestExists, Reason: "already processed", Comment: comment}, nil
		}
		return nil, err
	}

	if err := s.cl.Create(ctx, tx, comment.ID, s.cfg.MaxRetries); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	slog.Info("comment ingested", "comment_id", comment.ID, "platform", comment.Platform)

	return &IngestResult{
		Status:         IngestCreated,
		Comment:        comment,
		ShouldClassify: true,
	}, nil
}
