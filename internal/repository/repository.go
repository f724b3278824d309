package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Houeta/price-radar/internal/models"
)

var (
	// ErrProductNotFound is returned when no record exists for the requested key.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicate is returned when an insert collides with an existing url or product id.
	ErrDuplicate = errors.New("product already exists")
)

// DefaultSearchLimit applies when Search is called with a non-positive limit.
const DefaultSearchLimit = 50

// ProductRepository is the persistent store of product records.
type ProductRepository interface {
	// FindIdentities returns the identity keys of every stored record whose url is in urls
	// or whose product id is in productIDs.
	FindIdentities(ctx context.Context, urls, productIDs []string) ([]models.Identity, error)
	// GetByURL returns the record stored under url or ErrProductNotFound.
	GetByURL(ctx context.Context, url string) (models.Product, error)
	// InsertOne stores a new record. A key collision is reported as ErrDuplicate.
	InsertOne(ctx context.Context, product models.Product) error
	// InsertMany stores all records in a single write; on error nothing is stored.
	InsertMany(ctx context.Context, products []models.Product) error
	// UpsertByURL creates or fully replaces the record keyed by product.URL.
	UpsertByURL(ctx context.Context, product models.Product) error
	// ListProducts returns every stored record.
	ListProducts(ctx context.Context) ([]models.Product, error)
	// Search returns records whose title, description or category contain query, ignoring case.
	Search(ctx context.Context, query string, limit int) ([]models.Product, error)
}

// SubscriptionRepository keeps the chats that receive cycle reports.
type SubscriptionRepository interface {
	SubscribeChat(ctx context.Context, chatID int64) error
	UnsubscribeChat(ctx context.Context, chatID int64) error
	GetSubscribedChats(ctx context.Context) ([]int64, error)
}

// Repository is a complete storage backend.
type Repository interface {
	ProductRepository
	SubscriptionRepository
	Close() error
}

// EncodeHistory serializes a price history for a document column.
func EncodeHistory(history []models.PricePoint) (string, error) {
	if history == nil {
		history = []models.PricePoint{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("failed to encode price history: %w", err)
	}
	return string(raw), nil
}

// DecodeHistory parses a document column written by EncodeHistory. Empty input yields an empty history.
func DecodeHistory(raw string) ([]models.PricePoint, error) {
	if raw == "" {
		return []models.PricePoint{}, nil
	}
	var history []models.PricePoint
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("failed to decode price history: %w", err)
	}
	if history == nil {
		history = []models.PricePoint{}
	}
	return history, nil
}
