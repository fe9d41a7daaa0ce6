// Package bot implements the Telegram operator console: ad-hoc moderation
// checks, feed audits and draft reconciliation.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	gocache "github.com/patrickmn/go-cache"

	"studentpress/internal/config"
	"studentpress/internal/fetcher"
	"studentpress/internal/reconcile"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot answers operator commands and delivers scheduler summaries.
type Bot struct {
	api     telegramAPI
	runner  *reconcile.Runner
	checker fetcher.Checker
	fetcher *fetcher.Fetcher
	cfg     *config.Config
	opts    reconcile.Options
	pending *gocache.Cache
	log     *slog.Logger
}

// New creates a Bot with the given Telegram token.
func New(token string, runner *reconcile.Runner, checker fetcher.Checker, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:     api,
		runner:  runner,
		checker: checker,
		fetcher: fetcher.New(http.DefaultClient),
		cfg:     cfg,
		opts: reconcile.Options{
			WindowMinutes:         cfg.Reconcile.WindowMinutes,
			EarlyToleranceMinutes: cfg.Reconcile.EarlyToleranceMinutes,
		},
		pending: gocache.New(purgeTTL, 2*purgeTTL),
		log:     log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if cb := update.CallbackQuery; cb != nil {
				if cb.From == nil || !b.cfg.IsUserAllowed(cb.From.ID) {
					continue
				}
				b.handleCallback(ctx, cb)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if update.Message.From == nil || !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "moderate":
		b.handleModerate(chatID, args)
	case "sanitize":
		b.handleSanitize(chatID, args)
	case "reconcile":
		b.handleReconcile(ctx, chatID, args)
	case "purge":
		b.handlePurge(ctx, chatID, args)
	case "audit":
		b.handleAudit(ctx, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
