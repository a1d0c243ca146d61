package repository

import (
	"context"
	"time"

	"github.com/isdelr/edgefit-be/internal/models"
)

// UserRepository is the credential store.
type UserRepository interface {
	// GetUserByUsername returns models.ErrUserNotFound for unknown usernames.
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	// CreateUser returns models.ErrUsernameTaken if the username exists, also
	// when a concurrent insert wins the race.
	CreateUser(ctx context.Context, user models.User) error
}

// ChatRepository persists chat history and saved LLM interactions.
type ChatRepository interface {
	CreateChatRecord(ctx context.Context, record models.ChatRecord) error
	ListChatRecords(ctx context.Context, username string, limit int) ([]models.ChatRecord, error)
	DeleteChatRecordsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CreateInteraction(ctx context.Context, interaction models.LLMInteraction) error
}
