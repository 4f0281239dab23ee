package models

import (
	"database/sql"
	"time"
)

type Classification struct {
	ID                    int64          `db:"id" json:"id"`
	CommentID             string         `db:"comment_id" json:"comment_id"`
	Status                string         `db:"status" json:"status"`
	Label                 sql.NullString `db:"label" json:"label"`
	Confidence            int            `db:"confidence" json:"confidence"`
	Reasoning             sql.NullString `db:"reasoning" json:"reasoning"`
	SentimentScore        int            `db:"sentiment_score" json:"sentiment_score"`
	ToxicityScore         int            `db:"toxicity_score" json:"toxicity_score"`
	RetryCount            int            `db:"retry_count" json:"retry_count"`
	MaxRetries            int            `db:"max_retries" json:"max_retries"`
	LastError             sql.NullString `db:"last_error" json:"last_error"`
	ProcessingStartedAt   sql.NullTime   `db:"processing_started_at" json:"processing_started_at"`
	ProcessingCompletedAt sql.NullTime   `db:"processing_completed_at" json:"processing_completed_at"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusRetry      = "retry"
)

const (
	LabelPositiveFeedback = "positive feedback"
	LabelCriticalFeedback = "critical feedback"
	LabelUrgentIssue      = "urgent issue / complaint"
	LabelQuestion         = "question / inquiry"
	LabelSpam             = "spam / irrelevant"
	LabelToxic            = "toxic / abusive"
	LabelPartnership      = "partnership proposal"
)
