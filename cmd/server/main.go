package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/replyflow/replyflow/configs"
	"github.com/replyflow/replyflow/internal/api/handlers"
	"github.com/replyflow/replyflow/internal/api/middleware"
	job "github.com/replyflow/replyflow/internal/jobs"
	"github.com/replyflow/replyflow/internal/queue"
	"github.com/replyflow/replyflow/internal/repository"
	"github.com/replyflow/replyflow/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Api-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	commentRepo := repository.NewCommentRepository(db)
	classificationRepo := repository.NewClassificationRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	oauthTokenRepo := repository.NewOAuthTokenRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	classifier, err := service.NewGeminiClassifier(ctx, cfg.Gemini)
	if err != nil {
		log.Fatalf("Failed to create Gemini classifier: %v", err)
	}
	answerer, err := service.NewGeminiAnswerer(ctx, cfg.Gemini)
	if err != nil {
		log.Fatalf("Failed to create Gemini answerer: %v", err)
	}
	alertSender, err := service.NewTelegramService(cfg.Telegram)
	if err != nil {
		log.Fatalf("Failed to create Telegram bot: %v", err)
	}

	instagramService := service.NewInstagramService(*cfg, oauthTokenRepo)
	youtubeService := service.NewYoutubeService(*cfg, oauthTokenRepo)
	mediaService := service.NewMediaService(mediaRepo, instagramService, youtubeService, classifier)
	ingestService := service.NewIngestService(*cfg, db, commentRepo, classificationRepo, answerRepo, mediaService)
	platformService := service.NewPlatformService(*cfg, oauthTokenRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)

	enqueuer := queue.NewEnqueuer(client, cfg.MaxRetries)
	queueW := queue.NewQueue(*cfg, enqueuer, commentRepo, classificationRepo, answerRepo,
		mediaService, classifier, answerer, instagramService, youtubeService, alertSender)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	webhook := handlers.NewWebhookHandler(*cfg, ingestService, enqueuer)
	app.Get("/webhook/instagram", webhook.VerifyWebhook)
	app.Post("/webhook/instagram", webhook.HandleWebhook)

	platform := handlers.NewPlatformHandler(platformService, instagramService, youtubeService, *cfg)
	app.Get("/auth/:platform", platform.ConnectAccount)
	app.Get("/auth/:platform/callback", platform.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	comments := handlers.NewCommentHandler(commentRepo, classificationRepo, answerRepo, enqueuer)
	api.Get("/comments", comments.ListComments)
	api.Get("/comments/:id", comments.GetComment)
	api.Post("/comments/:id/classify", comments.Reclassify)
	api.Post("/comments/:id/answer", comments.GenerateAnswer)
	api.Post("/comments/:id/hide", comments.HideComment)
	api.Post("/answers/:id/replace", comments.ReplaceAnswer)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	api.Get("/accounts", platform.ListAccounts)

	// cron jobs
	retrySweepJob := job.NewRetrySweepJob(classificationRepo, answerRepo, enqueuer)
	youtubePollJob := job.NewYoutubePollJob(*cfg, youtubeService, ingestService, enqueuer)
	refreshTokenJob := job.NewTokenRefreshJob(oauthTokenRepo, youtubeService, instagramService)

	c := cron.New()
	c.AddFunc(cfg.SweepSchedule, retrySweepJob.Sweep)
	c.AddFunc(cfg.PollSchedule, youtubePollJob.Poll)
	c.AddFunc(cfg.TokenRefreshSchedule, refreshTokenJob.RefreshTokens)
	c.Start()

	baseDelay := time.Duration(cfg.RetryBaseDelaySeconds) * time.Second

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
				return baseDelay * time.Duration(math.Pow(2, float64(n)))
			},
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeClassifyComment, queueW.HandleClassifyCommentTask)
		mux.HandleFunc(queue.TaskTypeGenerateAnswer, queueW.HandleGenerateAnswerTask)
		mux.HandleFunc(queue.TaskTypeSendReply, queueW.HandleSendReplyTask)
		mux.HandleFunc(queue.TaskTypeHideComment, queueW.HandleHideCommentTask)
		mux.HandleFunc(queue.TaskTypeReplaceAnswer, queueW.HandleReplaceAnswerTask)
		mux.HandleFunc(queue.TaskTypeAlert, queueW.HandleAlertTask)
		mux.HandleFunc(queue.TaskTypeAnalyzeMedia, queueW.HandleAnalyzeMediaTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
