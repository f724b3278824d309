package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/telebot.v4"
)

// Deps are the services the bot commands operate on.
type Deps struct {
	Scheduler     Scheduler
	Analytics     Analytics
	Products      ProductSearcher
	Tracker       Tracker
	Subscriptions Subscriptions
}

// Bot contains the bot API instance and other information.
type Bot struct {
	bot  API
	log  *slog.Logger
	ctx  context.Context //nolint:containedctx // handlers get no context from telebot
	deps Deps
}

func NewBot(ctx context.Context, log *slog.Logger, token string, poller time.Duration, deps Deps) (*Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", bot.Me.Username)

	botInstance := &Bot{bot: bot, log: log, ctx: ctx, deps: deps}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	// Public routes.
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/subscribe", b.subscribeHandler)
	b.bot.Handle("/unsubscribe", b.unsubscribeHandler)
	b.bot.Handle("/status", b.statusHandler)
	b.bot.Handle("/stats", b.statsHandler)
	b.bot.Handle("/find", b.findHandler)

	// Scraper control.
	b.bot.Handle("/scraper_start", b.scraperStartHandler)
	b.bot.Handle("/scraper_stop", b.scraperStopHandler)
	b.bot.Handle("/run_once", b.runOnceHandler)
	b.bot.Handle("/track", b.trackHandler)
}
