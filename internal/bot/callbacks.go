package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"studentpress/internal/reconcile"
)

const (
	cbPurge  = "purge"
	cbCancel = "cancel"

	// purgeTTL bounds how long a /purge preview can be confirmed.
	purgeTTL = 10 * time.Minute
)

// holdPurge keeps the previewed candidates so confirmation deletes exactly
// what the operator saw. It returns the callback token.
func (b *Bot) holdPurge(cands []reconcile.Candidate) string {
	token := uuid.NewString()
	b.pending.Set(token, cands, purgeTTL)
	return token
}

// takePurge returns and forgets the candidates held under token.
func (b *Bot) takePurge(token string) ([]reconcile.Candidate, bool) {
	v, ok := b.pending.Get(token)
	if !ok {
		return nil, false
	}
	b.pending.Delete(token)
	cands, ok := v.([]reconcile.Candidate)
	return cands, ok
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	action, token, ok := strings.Cut(cb.Data, ":")
	if !ok || token == "" {
		return
	}

	logArgs := []any{"action", action, "token", token, "chat_id", chatID}
	if cb.From != nil {
		logArgs = append(logArgs, "user_id", cb.From.ID, "username", cb.From.UserName)
	}
	b.log.Info("callback", logArgs...)

	switch action {
	case cbPurge:
		cands, ok := b.takePurge(token)
		if !ok {
			b.reply(chatID, "This purge has expired or was already handled. Run /purge again.")
			return
		}
		b.applyPurge(ctx, chatID, cands)
	case cbCancel:
		if _, ok := b.takePurge(token); ok {
			b.reply(chatID, "Purge cancelled.")
		}
	}
}

func callbackData(action, token string) string {
	return fmt.Sprintf("%s:%s", action, token)
}
