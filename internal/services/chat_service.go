package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/edgefit-be/internal/llm"
	"github.com/isdelr/edgefit-be/internal/metrics"
	"github.com/isdelr/edgefit-be/internal/models"
	"github.com/isdelr/edgefit-be/internal/repository"
	"github.com/rs/zerolog/log"
)

// SystemPrompt frames every chat completion.
const SystemPrompt = "You are a helpful AI fitness assistant. Be concise and goal-focused. " +
	"Avoid unnecessary dataset analysis unless explicitly asked."

// History limits.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// ChatServiceProvider defines the interface for chat services.
type ChatServiceProvider interface {
	Chat(ctx context.Context, username, prompt string) (string, error)
	SaveInteraction(ctx context.Context, prompt, response string) error
	History(ctx context.Context, username string, limit int) ([]models.ChatRecord, error)
	PurgeHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ChatService proxies prompts to the LLM and records the exchanges.
type ChatService struct {
	chats   repository.ChatRepository
	llm     llm.Completer
	metrics metrics.Recorder
	now     func() time.Time
}

var _ ChatServiceProvider = (*ChatService)(nil)

// NewChatService creates a new ChatService.
func NewChatService(chats repository.ChatRepository, completer llm.Completer, rec metrics.Recorder) *ChatService {
	return &ChatService{
		chats:   chats,
		llm:     completer,
		metrics: rec,
		now:     time.Now,
	}
}

// Chat sends prompt to the LLM on behalf of username and stores the exchange.
func (s *ChatService) Chat(ctx context.Context, username, prompt string) (string, error) {
	start := time.Now()
	response, err := s.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			s.metrics.RecordLLMRequest("error", time.Since(start))
		}
		return "", fmt.Errorf("complete prompt: %w", err)
	}
	s.metrics.RecordLLMRequest("success", time.Since(start))

	err = s.chats.CreateChatRecord(ctx, models.ChatRecord{
		ID:        uuid.NewString(),
		Username:  username,
		Prompt:    prompt,
		Response:  response,
		CreatedAt: s.now(),
	})
	if err != nil {
		// History is best effort; the completion is still returned.
		log.Error().Err(err).Str("username", username).Msg("Failed to save chat history")
	}
	return response, nil
}

// SaveInteraction stores a prompt/response pair supplied by the client.
func (s *ChatService) SaveInteraction(ctx context.Context, prompt, response string) error {
	return s.chats.CreateInteraction(ctx, models.LLMInteraction{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		Response:  response,
		CreatedAt: s.now(),
	})
}

// History returns the newest chat records of username.
func (s *ChatService) History(ctx context.Context, username string, limit int) ([]models.ChatRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.chats.ListChatRecords(ctx, username, limit)
}

// PurgeHistoryBefore deletes chat records older than cutoff.
func (s *ChatService) PurgeHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.chats.DeleteChatRecordsBefore(ctx, cutoff)
}
