package transfer

import (
	"encoding/json"
	"time"
)

// IncomingComment is the platform-neutral shape of one inbound comment event,
// produced by the webhook handler (Instagram) or the poll job (YouTube).
type IncomingComment struct {
	ID        string          `json:"id"`
	ParentID  string          `json:"parent_id,omitempty"`
	MediaID   string          `json:"media_id"`
	UserID    string          `json:"user_id"`
	Username  string          `json:"username"`
	Text      string          `json:"text"`
	Platform  string          `json:"platform"`
	CreatedAt time.Time       `json:"created_at"`
	RawData   json.RawMessage `json:"raw_data,omitempty"`
}

func (c *IncomingComment) IsReply() bool {
	return c.ParentID != ""
}

// ClassificationResult is the output contract of the classification capability.
type ClassificationResult struct {
	Classification string `json:"classification"`
	Confidence     int    `json:"confidence"`
	Reasoning      string `json:"reasoning"`
	SentimentScore int    `json:"sentiment_score"`
	ToxicityScore  int    `json:"toxicity_score"`
}

// AnswerResult is the output contract of the answer generation capability.
type AnswerResult struct {
	Answer       string  `json:"answer"`
	Confidence   float64 `json:"confidence"`
	QualityScore int     `json:"quality_score"`
}

// CommentAlert is the payload handed to the operator notification channel.
type CommentAlert struct {
	CommentID      string `json:"comment_id"`
	CommentText    string `json:"comment_text"`
	Username       string `json:"username"`
	Platform       string `json:"platform"`
	MediaID        string `json:"media_id"`
	Classification string `json:"classification"`
	Confidence     int    `json:"confidence"`
	Reasoning      string `json:"reasoning"`
	SentimentScore int    `json:"sentiment_score"`
	ToxicityScore  int    `json:"toxicity_score"`
	Timestamp      string `json:"timestamp"`
}
