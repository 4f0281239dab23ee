package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	config "github.com/replyflow/replyflow/configs"
	"github.com/replyflow/replyflow/internal/transfer"
	"google.golang.org/genai"
)

// Answerer is the answer generation capability.
type Answerer interface {
	GenerateAnswer(ctx context.Context, question, conversationKey, username string) (*transfer.AnswerResult, error)
}

const answerPrompt = `You are the social media manager of a brand account. A follower named %s asked under one of the brand's posts:

%s

Write a short, friendly reply suitable for posting as a comment. Then rate your own reply.

Respond with JSON only:
{"answer": "<reply text>", "confidence": <0.0-1.0>, "quality_score": <0-100>}`

type GeminiAnswerer struct {
	client *genai.Client
	model  string

	// history keyed by conversation key (thread root comment id), so follow-up
	// questions in the same thread keep their context.
	mu      sync.Mutex
	history map[string][]*genai.Content
}

func NewGeminiAnswerer(ctx context.Context, cfg config.Gemini) (*GeminiAnswerer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}

	return &GeminiAnswerer{
		client:  client,
		model:   cfg.AnswerModel,
		history: make(map[string][]*genai.Content),
	}, nil
}

func (s *GeminiAnswerer) GenerateAnswer(ctx context.Context, question, conversationKey, username string) (*transfer.AnswerResult, error) {
	if username == "" {
		username = "a follower"
	}
	prompt := fmt.Sprintf(answerPrompt, username, question)

	userTurn := genai.NewContentFromText(prompt, genai.RoleUser)
	contents := append(s.pastTurns(conversationKey), userTurn)

	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	result, err := s.client.Models.GenerateContent(ctx, s.model, contents, genCfg)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty answer response")
	}

	raw := cleanJSON(result.Candidates[0].Content.Parts[0].Text)

	var ar transfer.AnswerResult
	if err := json.Unmarshal([]byte(raw), &ar); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("invalid answer response: %w", err)
	}

	if conversationKey != "" {
		s.recordTurns(conversationKey, userTurn, result.Candidates[0].Content)
	}

	return &ar, nil
}

func (s *GeminiAnswerer) pastTurns(conversationKey string) []*genai.Content {
	if conversationKey == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*genai.Content{}, s.history[conversationKey]...)
}

func (s *GeminiAnswerer) recordTurns(conversationKey string, turns ...*genai.Content) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[conversationKey] = append(s.history[conversationKey], turns...)
}
