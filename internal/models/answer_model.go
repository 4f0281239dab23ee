package models

import (
	"database/sql"
	"time"
)

type Answer struct {
	ID                    int64          `db:"id" json:"id"`
	CommentID             string         `db:"comment_id" json:"comment_id"`
	Status                string         `db:"status" json:"status"`
	Answer                sql.NullString `db:"answer" json:"answer"`
	Confidence            float64        `db:"confidence" json:"confidence"`
	QualityScore          int            `db:"quality_score" json:"quality_score"`
	RetryCount            int            `db:"retry_count" json:"retry_count"`
	MaxRetries            int            `db:"max_retries" json:"max_retries"`
	LastError             sql.NullString `db:"last_error" json:"last_error"`
	ReplyID               sql.NullString `db:"reply_id" json:"reply_id"`
	ReplySent             bool           `db:"reply_sent" json:"reply_sent"`
	ReplyStatus           sql.NullString `db:"reply_status" json:"reply_status"`
	ReplyError            sql.NullString `db:"reply_error" json:"reply_error"`
	ReplySentAt           sql.NullTime   `db:"reply_sent_at" json:"reply_sent_at"`
	IsDeleted             bool           `db:"is_deleted" json:"is_deleted"`
	ProcessingStartedAt   sql.NullTime   `db:"processing_started_at" json:"processing_started_at"`
	ProcessingCompletedAt sql.NullTime   `db:"processing_completed_at" json:"processing_completed_at"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
}

const (
	ReplyStatusSent    = "sent"
	ReplyStatusFailed  = "failed"
	ReplyStatusError   = "error"
	ReplyStatusDeleted = "deleted"
)
