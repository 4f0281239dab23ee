package handlers

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/replyflow/replyflow/configs"
	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/queue"
	"github.com/replyflow/replyflow/internal/service"
	"github.com/replyflow/replyflow/internal/transfer"
)

type WebhookHandler struct {
	cfg    config.Config
	ingest service.IngestService
	enq    queue.Enqueuer
}

func NewWebhookHandler(cfg config.Config, ingest service.IngestService, enq queue.Enqueuer) *WebhookHandler {
	return &WebhookHandler{
		cfg:    cfg,
		ingest: ingest,
		enq:    enq,
	}
}

// VerifyWebhook answers the Meta subscription handshake.
func (h *WebhookHandler) VerifyWebhook(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.cfg.WebhookVerifyToken {
		return c.SendString(challenge)
	}

	return c.SendStatus(fiber.StatusForbidden)
}

// HandleWebhook ingests Instagram comment events. It always answers 200 so
// Meta does not disable the subscription: processing failures are recovered
// internally.
func (h *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload transfer.WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		slog.Info(err.Error())
		return c.SendStatus(fiber.StatusOK)
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "comments" {
				continue
			}

			incoming := webhookToComment(entry, change.Value)
			result, err := h.ingest.ProcessComment(c.Context(), incoming)
			if err != nil {
				slog.Info(err.Error())
				continue
			}
			if !result.ShouldClassify {
				continue
			}

			task, err := queue.NewClassifyCommentTask(result.Comment.ID)
			if err != nil {
				slog.Info(err.Error())
				continue
			}
			if _, err := h.enq.Enqueue(task); err != nil {
				slog.Info(err.Error())
			}
		}
	}

	return c.SendStatus(fiber.StatusOK)
}

func webhookToComment(entry transfer.WebhookEntry, value transfer.WebhookCommentValue) *transfer.IncomingComment {
	createdAt := time.Now()
	if entry.Time > 0 {
		createdAt = time.Unix(entry.Time, 0)
	}

	raw, _ := json.Marshal(value)

	return &transfer.IncomingComment{
		ID:        value.ID,
		ParentID:  value.ParentID,
		MediaID:   value.Media.ID,
		UserID:    value.From.ID,
		Username:  value.From.Username,
		Text:      value.Text,
		Platform:  models.PlatformInstagram,
		CreatedAt: createdAt,
		RawData:   raw,
	}
}
