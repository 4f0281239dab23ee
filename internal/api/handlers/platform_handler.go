package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/replyflow/replyflow/configs"
	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/service"
	"github.com/replyflow/replyflow/pkg/utils"
)

type PlatformHandler struct {
	ps  service.PlatformService
	ig  service.InstagramService
	yt  service.YoutubeService
	cfg config.Config
}

func NewPlatformHandler(ps service.PlatformService, ig service.InstagramService, yt service.YoutubeService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{
		ps:  ps,
		ig:  ig,
		yt:  yt,
		cfg: cfg,
	}
}

func (h *PlatformHandler) ConnectAccount(c *fiber.Ctx) error {
	platform := c.Params("platform")

	state, err := utils.GenerateStateToken(h.cfg.SecretKey, platform, 15*time.Minute)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to start authorization",
		})
	}

	authURL := h.ps.GetAuthURL(c.Context(), platform, state)
	if authURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown platform",
		})
	}

	return c.Redirect(authURL)
}

func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	platform := c.Params("platform")

	claims, err := utils.ValidateStateToken(h.cfg.SecretKey, state)
	if err != nil || claims.Platform != platform {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate state",
		})
	}

	switch platform {
	case models.PlatformInstagram:
		err = h.ig.InstagramCallback(c.Context(), code)
	case models.PlatformYoutube:
		err = h.yt.YoutubeCallback(c.Context(), code)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown platform",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Something went wrong",
		})
	}

	return c.Redirect(h.cfg.FrontendURL)
}

func (h *PlatformHandler) ListAccounts(c *fiber.Ctx) error {
	tokens, err := h.ps.ListConnected(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error getting connected accounts",
		})
	}

	return c.JSON(fiber.Map{"accounts": tokens})
}
