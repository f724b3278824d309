package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Houeta/price-radar/internal/models"
	"github.com/Houeta/price-radar/internal/services/analytics"
	"github.com/Houeta/price-radar/internal/services/scheduler"
	"gopkg.in/telebot.v4"
)

const statsTopCategories = 5

// Broadcast sends the cycle summary to every subscribed chat. It matches the scheduler cycle hook.
func (b *Bot) Broadcast(ctx context.Context, cycle scheduler.Cycle) {
	const opn = "bot.Broadcast"
	log := b.log.With("op", opn, "cycle_id", cycle.ID)

	chats, err := b.deps.Subscriptions.GetSubscribedChats(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load subscribed chats", "error", err)
		return
	}

	text := formatCycle(cycle)
	for _, chatID := range chats {
		if _, err = b.bot.Send(&telebot.Chat{ID: chatID}, text, telebot.NoPreview); err != nil {
			log.WarnContext(ctx, "Failed to send cycle report", "chat_id", chatID, "error", err)
		}
	}
	log.InfoContext(ctx, "Cycle report sent", "chats", len(chats))
}

func formatResult(result models.CycleResult) string {
	if !result.Success {
		return "Failed: " + result.Message
	}
	var sb strings.Builder
	sb.WriteString(result.Message)
	if result.Discovered > 0 {
		fmt.Fprintf(&sb, "\nDiscovered: %d, new: %d, scraped: %d, failed: %d, updated: %d",
			result.Discovered, result.Fresh, result.Scraped, result.Failed, result.Updated)
	}
	return sb.String()
}

func formatCycle(cycle scheduler.Cycle) string {
	return fmt.Sprintf("Cycle %s finished in %s\n%s",
		shortID(cycle.ID), cycle.FinishedAt.Sub(cycle.StartedAt).Round(time.Second), formatResult(cycle.Result))
}

func formatStatus(status scheduler.Status) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Scraper: %s\nInterval: %s\nBatch size: %d", status.State, status.Interval, status.BatchSize)
	if status.LastCycle != nil {
		fmt.Fprintf(&sb, "\n\nLast cycle at %s\n%s",
			status.LastCycle.FinishedAt.Format("2006-01-02 15:04 MST"), formatResult(status.LastCycle.Result))
	}
	return sb.String()
}

func formatStats(general analytics.GeneralAnalysis, prices analytics.PriceAnalysis, categories analytics.CategoryAnalysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Products: %d (in stock %d, out of stock %d)\n", general.TotalProducts, general.InStock, general.OutOfStock)
	fmt.Fprintf(&sb, "Price: avg %s, median %s, min %s, max %s\n",
		prices.AveragePrice.StringFixed(2), prices.MedianPrice.StringFixed(2),
		prices.MinPrice.StringFixed(2), prices.MaxPrice.StringFixed(2))
	fmt.Fprintf(&sb, "Average discount: %.2f%%, average rating: %.2f, reviews: %d\n",
		general.AverageDiscount, general.AverageRating, general.TotalReviews)

	if len(categories.Categories) > 0 {
		fmt.Fprintf(&sb, "\nTop categories (%d total):\n", categories.TotalCategories)
		for _, c := range categories.Categories[:min(len(categories.Categories), statsTopCategories)] {
			fmt.Fprintf(&sb, "- %s: %d (%.1f%%)\n", c.Category, c.Count, c.Percentage)
		}
	}
	if len(general.TopDiscountedProducts) > 0 {
		top := general.TopDiscountedProducts[0]
		fmt.Fprintf(&sb, "\nBiggest discount: -%d%% %s\n%s", top.DiscountRate, top.Title, top.URL)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatProducts(products []models.Product) string {
	var sb strings.Builder
	for i, p := range products {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%d. %s\n%s%s", i+1, p.Title, p.Currency, p.CurrentPrice.StringFixed(2))
		if p.LowestPrice.IsPositive() && p.LowestPrice.LessThan(p.CurrentPrice) {
			fmt.Fprintf(&sb, " (lowest %s%s)", p.Currency, p.LowestPrice.StringFixed(2))
		}
		if p.IsOutOfStock {
			sb.WriteString(" - out of stock")
		}
		fmt.Fprintf(&sb, "\n%s", p.URL)
	}
	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
