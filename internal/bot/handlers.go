package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Houeta/price-radar/internal/services/scheduler"
	"gopkg.in/telebot.v4"
)

const (
	findLimit  = 10
	usageFind  = "Usage: /find <query>"
	usageTrack = "Usage: /track <query>"
)

const helpText = `Price radar tracks marketplace products and their price history.

/subscribe - receive a report after every scheduled cycle
/unsubscribe - stop receiving reports
/scraper_start - start the periodic scraper
/scraper_stop - stop the periodic scraper
/status - scraper state and the last cycle
/run_once - run one cycle now
/stats - catalog statistics
/find <query> - search stored products
/track <query> - scrape marketplace search results into the catalog`

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	b.log.Info("User started the bot", "username", ctx.Sender().Username)

	if err := ctx.Send(helpText); err != nil {
		return fmt.Errorf("failed to send greeting message: %w", err)
	}

	return nil
}

func (b *Bot) subscribeHandler(ctx telebot.Context) error {
	const opn = "bot.subscribeHandler"

	chatID := ctx.Chat().ID
	if err := b.deps.Subscriptions.SubscribeChat(b.ctx, chatID); err != nil {
		b.log.Error("Failed to subscribe chat", "op", opn, "chat_id", chatID, "error", err)
		return b.reply(ctx, "Failed to subscribe, please try again later.")
	}

	b.log.Info("Chat subscribed", "op", opn, "chat_id", chatID)
	return b.reply(ctx, "Subscribed. You will get a report after every scheduled cycle.")
}

func (b *Bot) unsubscribeHandler(ctx telebot.Context) error {
	const opn = "bot.unsubscribeHandler"

	chatID := ctx.Chat().ID
	if err := b.deps.Subscriptions.UnsubscribeChat(b.ctx, chatID); err != nil {
		b.log.Error("Failed to unsubscribe chat", "op", opn, "chat_id", chatID, "error", err)
		return b.reply(ctx, "Failed to unsubscribe, please try again later.")
	}

	return b.reply(ctx, "Unsubscribed.")
}

func (b *Bot) scraperStartHandler(ctx telebot.Context) error {
	const opn = "bot.scraperStartHandler"

	err := b.deps.Scheduler.Start(b.ctx)
	switch {
	case errors.Is(err, scheduler.ErrAlreadyScheduled):
		return b.reply(ctx, "Scraper is already running.")
	case err != nil:
		b.log.Error("Failed to start scraper", "op", opn, "error", err)
		return b.reply(ctx, "Failed to start the scraper.")
	}

	status := b.deps.Scheduler.Status()
	return b.reply(ctx, fmt.Sprintf("Scraper started, running every %s.", status.Interval))
}

func (b *Bot) scraperStopHandler(ctx telebot.Context) error {
	const opn = "bot.scraperStopHandler"

	err := b.deps.Scheduler.Stop()
	switch {
	case errors.Is(err, scheduler.ErrNotScheduled):
		return b.reply(ctx, "Scraper is not running.")
	case err != nil:
		b.log.Error("Failed to stop scraper", "op", opn, "error", err)
		return b.reply(ctx, "Failed to stop the scraper.")
	}

	return b.reply(ctx, "Scraper stopped.")
}

func (b *Bot) statusHandler(ctx telebot.Context) error {
	return b.reply(ctx, formatStatus(b.deps.Scheduler.Status()))
}

func (b *Bot) runOnceHandler(ctx telebot.Context) error {
	const opn = "bot.runOnceHandler"

	if err := b.reply(ctx, "Cycle started, this can take a few minutes."); err != nil {
		return err
	}

	cycle, err := b.deps.Scheduler.RunOnce(b.ctx)
	switch {
	case errors.Is(err, scheduler.ErrCycleInProgress):
		return b.reply(ctx, "A cycle is already running, try again later.")
	case err != nil:
		b.log.Error("Failed to run cycle", "op", opn, "error", err)
		return b.reply(ctx, "Failed to run the cycle.")
	}

	return b.reply(ctx, formatCycle(cycle))
}

func (b *Bot) statsHandler(ctx telebot.Context) error {
	const opn = "bot.statsHandler"

	general, err := b.deps.Analytics.GeneralAnalysis(b.ctx)
	if err != nil {
		b.log.Error("Failed to compute general analysis", "op", opn, "error", err)
		return b.reply(ctx, "Statistics are unavailable right now.")
	}
	prices, err := b.deps.Analytics.PriceAnalysis(b.ctx)
	if err != nil {
		b.log.Error("Failed to compute price analysis", "op", opn, "error", err)
		return b.reply(ctx, "Statistics are unavailable right now.")
	}
	categories, err := b.deps.Analytics.CategoryAnalysis(b.ctx)
	if err != nil {
		b.log.Error("Failed to compute category analysis", "op", opn, "error", err)
		return b.reply(ctx, "Statistics are unavailable right now.")
	}

	return b.reply(ctx, formatStats(general, prices, categories))
}

func (b *Bot) findHandler(ctx telebot.Context) error {
	const opn = "bot.findHandler"

	query := strings.TrimSpace(ctx.Message().Payload)
	if query == "" {
		return b.reply(ctx, usageFind)
	}

	products, err := b.deps.Products.Search(b.ctx, query, findLimit)
	if err != nil {
		b.log.Error("Failed to search products", "op", opn, "query", query, "error", err)
		return b.reply(ctx, "Search failed, please try again later.")
	}
	if len(products) == 0 {
		return b.reply(ctx, fmt.Sprintf("Nothing found for %q.", query))
	}

	return b.reply(ctx, formatProducts(products))
}

func (b *Bot) trackHandler(ctx telebot.Context) error {
	const opn = "bot.trackHandler"

	query := strings.TrimSpace(ctx.Message().Payload)
	if query == "" {
		return b.reply(ctx, usageTrack)
	}

	if err := b.reply(ctx, fmt.Sprintf("Searching the marketplace for %q...", query)); err != nil {
		return err
	}

	result, err := b.deps.Tracker.Track(b.ctx, query, 0)
	switch {
	case errors.Is(err, scheduler.ErrCycleInProgress):
		return b.reply(ctx, "A cycle is already running, try again later.")
	case err != nil:
		b.log.Error("Failed to run search", "op", opn, "query", query, "error", err)
		return b.reply(ctx, "Failed to run the search.")
	}

	return b.reply(ctx, formatResult(result))
}

func (b *Bot) reply(ctx telebot.Context, text string) error {
	if err := ctx.Send(text, telebot.NoPreview); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
