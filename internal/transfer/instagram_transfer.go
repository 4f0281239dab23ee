package transfer

import "time"

type InstagramToken struct {
	AccessToken    string    `json:"access_token"`
	LongLivedToken string    `json:"long_lived_token"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type InstagramUserInfo struct {
	UserID         string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profile_picture_url"`
}

type InstagramErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		IsTransient  bool   `json:"is_transient"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

type InstagramMediaInfo struct {
	ID            string `json:"id"`
	Caption       string `json:"caption"`
	MediaType     string `json:"media_type"`
	MediaURL      string `json:"media_url"`
	Permalink     string `json:"permalink"`
	Username      string `json:"username"`
	CommentsCount int    `json:"comments_count"`
	LikeCount     int    `json:"like_count"`
}

// Webhook payload shapes, mirroring the Instagram Graph API comment events.

type WebhookAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type WebhookMedia struct {
	ID               string `json:"id"`
	MediaProductType string `json:"media_product_type"`
}

type WebhookCommentValue struct {
	From     WebhookAuthor `json:"from"`
	Media    WebhookMedia  `json:"media"`
	ID       string        `json:"id"`
	ParentID string        `json:"parent_id"`
	Text     string        `json:"text"`
}

type WebhookChange struct {
	Field string              `json:"field"`
	Value WebhookCommentValue `json:"value"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Time    int64           `json:"time"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}
