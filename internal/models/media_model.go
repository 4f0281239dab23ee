package models

import (
	"database/sql"
	"time"
)

type Media struct {
	ID            string         `db:"id" json:"id"`
	Platform      string         `db:"platform" json:"platform"`
	Caption       sql.NullString `db:"caption" json:"caption"`
	MediaType     sql.NullString `db:"media_type" json:"media_type"` // IMAGE, VIDEO, CAROUSEL_ALBUM
	MediaURL      sql.NullString `db:"media_url" json:"media_url"`
	Permalink     sql.NullString `db:"permalink" json:"permalink"`
	Username      sql.NullString `db:"username" json:"username"`
	CommentsCount int            `db:"comments_count" json:"comments_count"`
	LikeCount     int            `db:"like_count" json:"like_count"`
	MediaContext  sql.NullString `db:"media_context" json:"media_context"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// NeedsContextAnalysis reports whether the media carries an image that has
// not been described yet. Classification waits on this description.
func (m *Media) NeedsContextAnalysis() bool {
	isImage := m.MediaType.String == "IMAGE" || m.MediaType.String == "CAROUSEL_ALBUM"
	return isImage && m.MediaURL.Valid && m.MediaURL.String != "" && !m.MediaContext.Valid
}
