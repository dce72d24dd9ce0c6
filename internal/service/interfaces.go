package service

import (
	"context"

	"github.com/liliang-cn/standbot/internal/domain"
)

// DocumentStore is the document database as seen by the chat engine
type DocumentStore interface {
	Get(ctx context.Context, id string) (*domain.Document, error)
	Upsert(ctx context.Context, doc *domain.Document) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, website string) ([]*domain.Document, error)
	ListWithEmbeddings(ctx context.Context, website string) ([]*domain.Document, error)
	QueryByField(ctx context.Context, website, field, value string) ([]*domain.Document, error)
	FindByURL(ctx context.Context, website, url string) (*domain.Document, error)
	FindByStandNumber(ctx context.Context, website, number string) (*domain.Document, error)
	Count(ctx context.Context) (int, error)
}

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ChatModel runs a single chat completion
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ProfileStore looks up visitor registrations
type ProfileStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
}

// ChatLogger records completed turns
type ChatLogger interface {
	Record(ctx context.Context, log *domain.ChatLog) error
	ListBySession(ctx context.Context, sessionID string) ([]*domain.ChatLog, error)
	CountChats(ctx context.Context) (int, error)
}
