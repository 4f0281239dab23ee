package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

type Comment struct {
	ID        string          `db:"id" json:"id"`
	ParentID  sql.NullString  `db:"parent_id" json:"parent_id"`
	MediaID   string          `db:"media_id" json:"media_id"`
	UserID    string          `db:"user_id" json:"user_id"`
	Username  string          `db:"username" json:"username"`
	Text      string          `db:"text" json:"text"`
	Platform  string          `db:"platform" json:"platform"` // instagram, youtube
	IsHidden  bool            `db:"is_hidden" json:"is_hidden"`
	HiddenAt  sql.NullTime    `db:"hidden_at" json:"hidden_at"`
	RawData   json.RawMessage `db:"raw_data" json:"raw_data"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

const (
	PlatformInstagram = "instagram"
	PlatformYoutube   = "youtube"
)

// ThreadRootID returns the top-level ancestor of a reply chain. Replies on
// both platforms are at most one level deep, so the parent of a reply is
// always the thread root.
func (c *Comment) ThreadRootID() string {
	if c.ParentID.Valid && c.ParentID.String != "" {
		return c.ParentID.String
	}
	return c.ID
}

func (c *Comment) IsReply() bool {
	return c.ParentID.Valid && c.ParentID.String != ""
}
