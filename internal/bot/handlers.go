package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"studentpress/internal/reconcile"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to the studentpress operator console.

Check comments against the moderation rules and clean up drafts
that were already submitted.

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Moderation:
/moderate <text> - run text through the comment rules
/sanitize <text> - show the normalized form of text
/audit <feed url> - moderate every entry of a comment feed

Drafts:
/reconcile [minutes] - list drafts already submitted (dry run)
/purge [minutes] - delete those drafts after confirmation

minutes is the submission window, default from RECONCILE_WINDOW_MINUTES.`)
}

func (b *Bot) handleModerate(chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /moderate <text>")
		return
	}
	body, verdict := b.checker.Check(args)
	b.reply(chatID, FormatVerdict(body, verdict))
}

func (b *Bot) handleSanitize(chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /sanitize <text>")
		return
	}
	body, _ := b.checker.Check(args)
	if body == "" {
		b.reply(chatID, "(empty after sanitizing)")
		return
	}
	b.reply(chatID, body)
}

func (b *Bot) handleReconcile(ctx context.Context, chatID int64, args string) {
	opts, err := b.optionsFromArgs(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: /reconcile [minutes]\n%v", err))
		return
	}

	res, err := b.runner.Run(ctx, reconcile.Request{Options: opts})
	if err != nil {
		b.log.Error("reconcile", "chat_id", chatID, "error", err)
		b.reply(chatID, fmt.Sprintf("Reconcile failed: %v", err))
		return
	}
	b.reply(chatID, FormatMatches(res.Matches, opts.WindowMinutes))
}

func (b *Bot) handlePurge(ctx context.Context, chatID int64, args string) {
	opts, err := b.optionsFromArgs(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: /purge [minutes]\n%v", err))
		return
	}

	res, err := b.runner.Run(ctx, reconcile.Request{Options: opts})
	if err != nil {
		b.log.Error("purge preview", "chat_id", chatID, "error", err)
		b.reply(chatID, fmt.Sprintf("Reconcile failed: %v", err))
		return
	}
	if len(res.Matches) == 0 {
		b.reply(chatID, "Nothing to purge.")
		return
	}

	token := b.holdPurge(res.Matches)
	msg := tgbotapi.NewMessage(chatID, FormatMatches(res.Matches, opts.WindowMinutes)+
		fmt.Sprintf("\nDelete %d draft(s)? This cannot be undone.", len(res.Matches)))
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, delete", callbackData(cbPurge, token)),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", callbackData(cbCancel, token)),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send purge confirmation", "error", err)
	}
}

// applyPurge deletes the previewed candidates. Drafts that vanished since
// the preview are reported as skipped; new matches are left for the next run.
func (b *Bot) applyPurge(ctx context.Context, chatID int64, cands []reconcile.Candidate) {
	report, err := b.runner.ApplyCandidates(ctx, cands)
	if err != nil {
		b.log.Error("purge", "chat_id", chatID, "error", err)
		b.reply(chatID, fmt.Sprintf("Purge interrupted: %v\n%s", err, FormatReport(report)))
		return
	}
	b.reply(chatID, FormatReport(report))
}

func (b *Bot) handleAudit(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /audit <feed url>")
		return
	}

	report, err := b.fetcher.Audit(ctx, args, b.checker)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to fetch feed: %v", err))
		return
	}
	b.reply(chatID, FormatAudit(report))
}

func (b *Bot) optionsFromArgs(args string) (reconcile.Options, error) {
	opts := b.opts
	window, err := ParseMinutesArg(args, opts.WindowMinutes)
	if err != nil {
		return opts, err
	}
	opts.WindowMinutes = window
	return opts, nil
}
