package handlers

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/replyflow/replyflow/internal/queue"
	"github.com/replyflow/replyflow/internal/repository"
)

type CommentHandler struct {
	c   repository.CommentRepository
	cl  repository.ClassificationRepository
	a   repository.AnswerRepository
	enq queue.Enqueuer
}

func NewCommentHandler(c repository.CommentRepository, cl repository.ClassificationRepository, a repository.AnswerRepository, enq queue.Enqueuer) *CommentHandler {
	return &CommentHandler{
		c:   c,
		cl:  cl,
		a:   a,
		enq: enq,
	}
}

func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	comments, err := h.c.ListRecent(c.Context(), limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error getting comments",
		})
	}

	return c.JSON(fiber.Map{"comments": comments})
}

func (h *CommentHandler) GetComment(c *fiber.Ctx) error {
	commentID := c.Params("id")

	comment, err := h.c.GetByID(c.Context(), commentID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error getting comment",
		})
	}
	if comment == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Comment not found",
		})
	}

	classification, err := h.cl.GetByCommentID(c.Context(), commentID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error getting classification",
		})
	}

	answer, err := h.a.GetByCommentID(c.Context(), commentID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error getting answer",
		})
	}

	return c.JSON(fiber.Map{
		"comment":        comment,
		"classification": classification,
		"answer":         answer,
	})
}

// Reclassify resets a classification and runs it again. This is the manual
// re-queue path, so the retry budget starts over.
func (h *CommentHandler) Reclassify(c *fiber.Ctx) error {
	commentID := c.Params("id")

	comment, err := h.c.GetByID(c.Context(), commentID)
	if err != nil || comment == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Comment not found",
		})
	}

	if err := h.cl.MarkPending(c.Context(), commentID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error resetting classification",
		})
	}

	task, err := queue.NewClassifyCommentTask(commentID)
	return h.enqueue(c, task, err)
}

func (h *CommentHandler) GenerateAnswer(c *fiber.Ctx) error {
	commentID := c.Params("id")

	comment, err := h.c.GetByID(c.Context(), commentID)
	if err != nil || comment == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Comment not found",
		})
	}

	task, err := queue.NewGenerateAnswerTask(commentID)
	return h.enqueue(c, task, err)
}

func (h *CommentHandler) HideComment(c *fiber.Ctx) error {
	commentID := c.Params("id")

	comment, err := h.c.GetByID(c.Context(), commentID)
	if err != nil || comment == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Comment not found",
		})
	}

	task, err := queue.NewHideCommentTask(commentID, "manual")
	return h.enqueue(c, task, err)
}

func (h *CommentHandler) ReplaceAnswer(c *fiber.Ctx) error {
	answerID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "AnswerID is not valid",
		})
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&body); err != nil || body.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Replacement text is required",
		})
	}

	answer, err := h.a.GetByID(c.Context(), answerID)
	if err != nil || answer == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Answer not found",
		})
	}

	task, err := queue.NewReplaceAnswerTask(answerID, body.Text)
	return h.enqueue(c, task, err)
}

func (h *CommentHandler) enqueue(c *fiber.Ctx, task *asynq.Task, err error) error {
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error creating task",
		})
	}

	if _, err := h.enq.Enqueue(task); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error scheduling task",
		})
	}

	return c.JSON(fiber.Map{"status": "queued"})
}
