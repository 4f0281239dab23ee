package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/replyflow/replyflow/internal/models"
	"github.com/replyflow/replyflow/internal/repository"
	"github.com/replyflow/replyflow/pkg/utils"
)

type ApiKeyService interface {
	Create(ctx context.Context, name string) (string, error)
	List(ctx context.Context) ([]*models.ApiKey, error)
	Validate(ctx context.Context, apiKey string) (bool, error)
	RemoveAPIKey(ctx context.Context, keyID int64) error
}

type apiKeyService struct {
	k repository.ApiKeyRepository
}

func NewApiKeyService(k repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{
		k: k,
	}
}

func (s *apiKeyService) Create(ctx context.Context, name string) (string, error) {
	if name == "" {
		id, err := gonanoid.New()
		if err != nil {
			slog.Info(err.Error())
			return "", err
		}
		name = "key-" + id
	}

	key, err := utils.GenerateRandomKey(16)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("Error generating API key")
	}

	apiKey := &models.ApiKey{
		Name:   name,
		ApiKey: key,
	}

	_, err = s.k.Create(ctx, apiKey)
	if err != nil {
		return "", fmt.Errorf("Error saving API key")
	}
	return key, nil
}

func (s *apiKeyService) Validate(ctx context.Context, apiKey string) (bool, error) {
	if apiKey == "" {
		return false, nil
	}
	return s.k.GetByKey(ctx, apiKey)
}

func (s *apiKeyService) List(ctx context.Context) ([]*models.ApiKey, error) {
	apiKeys, err := s.k.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("Error getting API keys")
	}
	return apiKeys, nil
}

func (s *apiKeyService) RemoveAPIKey(ctx context.Context, keyID int64) error {
	if keyID == 0 {
		err := errors.New("KeyID is not valid")
		slog.Info(err.Error())
		return err
	}

	return s.k.Remove(ctx, keyID)
}
