package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	config "github.com/replyflow/replyflow/configs"
	"github.com/replyflow/replyflow/internal/transfer"
	"google.golang.org/genai"
)

// Classifier is the comment classification capability.
type Classifier interface {
	Classify(ctx context.Context, text, mediaContext string) (*transfer.ClassificationResult, error)
}

// ImageDescriber produces a short textual description of an image, used as
// media context for classification.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error)
}

const classifierPrompt = `You classify social media comments left under a brand's posts.

Categories:
- positive feedback
- critical feedback
- urgent issue / complaint
- question / inquiry
- spam / irrelevant
- toxic / abusive
- partnership proposal

Respond with JSON only:
{"classification": "<category>", "confidence": <0-100>, "reasoning": "<one sentence>", "sentiment_score": <-100..100>, "toxicity_score": <0-100>}

Post context:
%s

Comment:
%s`

type GeminiClassifier struct {
	client *genai.Client
	model  string
}

func NewGeminiClassifier(ctx context.Context, cfg config.Gemini) (*GeminiClassifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}

	return &GeminiClassifier{
		client: client,
		model:  cfg.ClassifierModel,
	}, nil
}

func (s *GeminiClassifier) Classify(ctx context.Context, text, mediaContext string) (*transfer.ClassificationResult, error) {
	if mediaContext == "" {
		mediaContext = "(none)"
	}
	prompt := fmt.Sprintf(classifierPrompt, mediaContext, text)

	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	result, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), genCfg)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty classification response")
	}

	raw := cleanJSON(result.Candidates[0].Content.Parts[0].Text)

	var cr transfer.ClassificationResult
	if err := json.Unmarshal([]byte(raw), &cr); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("invalid classification response: %w", err)
	}
	cr.Classification = strings.ToLower(strings.TrimSpace(cr.Classification))

	return &cr, nil
}

// DescribeImage sends the raw image to the model and returns a short
// description used as media context during classification.
func (s *GeminiClassifier) DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText("Describe this social media post image in 2-3 sentences, focusing on products, people and text visible in it."),
		genai.NewPartFromBytes(data, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty image description response")
	}

	return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), nil
}

func cleanJSON(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
