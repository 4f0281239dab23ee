package config

import (
	"os"
	"strconv"
)

type Telegram struct {
	BotToken string
	ChatID   int64
}

type Gemini struct {
	APIKey          string
	ClassifierModel string
	AnswerModel     string
}

type Config struct {
	InstagramClientID     string
	InstagramClientSecret string
	InstagramRedirectURI  string
	WebhookVerifyToken    string
	GoogleClientID        string
	GoogleClientSecret    string
	GoogleRedirectURI     string
	YoutubeChannelID      string
	BotUsername           string
	BotAccountID          string
	PostgresURI           string
	RedisURI              string
	FrontendURL           string
	Telegram              Telegram
	Gemini                Gemini
	SecretKey             string
	MaxRetries            int
	RetryBaseDelaySeconds int
	WorkerConcurrency     int
	SweepSchedule         string
	PollSchedule          string
	TokenRefreshSchedule  string
}

func LoadConfig() *Config {
	return &Config{
		InstagramClientID:     getEnv("INSTAGRAM_CLIENT_ID", ""),
		InstagramClientSecret: getEnv("INSTAGRAM_CLIENT_SECRET", ""),
		InstagramRedirectURI:  getEnv("INSTAGRAM_REDIRECT_URI", ""),
		WebhookVerifyToken:    getEnv("WEBHOOK_VERIFY_TOKEN", ""),
		GoogleClientID:        getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:    getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:     getEnv("GOOGLE_REDIRECT_URI", ""),
		YoutubeChannelID:      getEnv("YOUTUBE_CHANNEL_ID", ""),
		BotUsername:           getEnv("BOT_USERNAME", ""),
		BotAccountID:          getEnv("BOT_ACCOUNT_ID", ""),
		PostgresURI:           getEnv("POSTGRES_URI", ""),
		RedisURI:              getEnv("REDIS_URI", "127.0.0.1:6379"),
		FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:5173"),
		Telegram: Telegram{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),
		},
		Gemini: Gemini{
			APIKey:          getEnv("GEMINI_API_KEY", ""),
			ClassifierModel: getEnv("GEMINI_CLASSIFIER_MODEL", "gemini-2.5-flash"),
			AnswerModel:     getEnv("GEMINI_ANSWER_MODEL", "gemini-2.5-flash"),
		},
		SecretKey:             getEnv("SECRET_KEY", ""),
		MaxRetries:            getEnvInt("TASK_MAX_RETRIES", 3),
		RetryBaseDelaySeconds: getEnvInt("TASK_RETRY_BASE_DELAY_SECONDS", 10),
		WorkerConcurrency:     getEnvInt("WORKER_CONCURRENCY", 10),
		SweepSchedule:         getEnv("RETRY_SWEEP_SCHEDULE", "@every 00h15m00s"),
		PollSchedule:          getEnv("YOUTUBE_POLL_SCHEDULE", "@every 00h05m00s"),
		TokenRefreshSchedule:  getEnv("TOKEN_REFRESH_SCHEDULE", "@every 00h10m00s"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
