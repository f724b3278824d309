package bot

import (
	"context"

	"github.com/Houeta/price-radar/internal/models"
	"github.com/Houeta/price-radar/internal/services/analytics"
	"github.com/Houeta/price-radar/internal/services/scheduler"
	"gopkg.in/telebot.v4"
)

type API interface {
	// Handle lets you set the handler for some command name or one of the supported endpoints. It also applies middleware if such passed to the function.
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
	// Start brings bot into motion by consuming incoming updates (see Bot.Updates channel).
	Start()
	// Stop gracefully shuts the poller down.
	Stop()

	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Scheduler controls the periodic scraping cycle.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
	Status() scheduler.Status
	RunOnce(ctx context.Context) (scheduler.Cycle, error)
}

type Analytics interface {
	PriceAnalysis(ctx context.Context) (analytics.PriceAnalysis, error)
	CategoryAnalysis(ctx context.Context) (analytics.CategoryAnalysis, error)
	GeneralAnalysis(ctx context.Context) (analytics.GeneralAnalysis, error)
}

// ProductSearcher looks up stored products.
type ProductSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Product, error)
}

// Tracker scrapes marketplace search results into the store. It returns
// scheduler.ErrCycleInProgress while a cycle or another search is writing.
type Tracker interface {
	Track(ctx context.Context, query string, maxResults int) (models.CycleResult, error)
}

type Subscriptions interface {
	SubscribeChat(ctx context.Context, chatID int64) error
	UnsubscribeChat(ctx context.Context, chatID int64) error
	GetSubscribedChats(ctx context.Context) ([]int64, error)
}
