package service

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	config "github.com/replyflow/replyflow/configs"
	"github.com/replyflow/replyflow/internal/transfer"
)

// AlertSender delivers operator alerts about comments that need human eyes.
type AlertSender interface {
	SendAlert(alert *transfer.CommentAlert) error
}

type telegramService struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramService(cfg config.Telegram) (AlertSender, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	slog.Info("telegram bot authorized", "username", bot.Self.UserName)

	return &telegramService{
		bot:    bot,
		chatID: cfg.ChatID,
	}, nil
}

func (t *telegramService) SendAlert(alert *transfer.CommentAlert) error {
	msg := tgbotapi.NewMessage(t.chatID, formatAlert(alert))
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := t.bot.Send(msg); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func formatAlert(alert *transfer.CommentAlert) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🚨 <b>%s</b>\n\n", escapeHTML(alert.Classification)))
	b.WriteString(fmt.Sprintf("<b>Platform:</b> %s\n", escapeHTML(alert.Platform)))
	b.WriteString(fmt.Sprintf("<b>User:</b> @%s\n", escapeHTML(alert.Username)))
	b.WriteString(fmt.Sprintf("<b>Media:</b> %s\n", escapeHTML(alert.MediaID)))
	b.WriteString(fmt.Sprintf("<b>Comment:</b> %s\n\n", escapeHTML(alert.CommentText)))
	b.WriteString(fmt.Sprintf("<b>Confidence:</b> %d%%\n", alert.Confidence))
	b.WriteString(fmt.Sprintf("<b>Sentiment:</b> %d | <b>Toxicity:</b> %d\n", alert.SentimentScore, alert.ToxicityScore))
	if alert.Reasoning != "" {
		b.WriteString(fmt.Sprintf("<b>Reasoning:</b> %s\n", escapeHTML(alert.Reasoning)))
	}
	b.WriteString(fmt.Sprintf("\n<i>%s</i>", escapeHTML(alert.Timestamp)))

	return b.String()
}

func escapeHTML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
