// Package scheduler runs draft reconciliation on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"studentpress/internal/bot"
	"studentpress/internal/reconcile"
)

// Sender is the interface for sending Telegram messages.
type Sender interface {
	SendMessage(chatID int64, text string)
}

// Scheduler periodically reconciles drafts against submissions and reports
// the outcome to the operator chat.
type Scheduler struct {
	runner *reconcile.Runner
	sender Sender
	chatID int64
	req    reconcile.Request
	log    *slog.Logger
	tick   time.Duration
}

// New creates a Scheduler. sender may be nil, or chatID zero, to only log.
func New(runner *reconcile.Runner, sender Sender, chatID int64, req reconcile.Request, log *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		sender: sender,
		chatID: chatID,
		req:    req,
		log:    log,
		tick:   time.Hour,
	}
}

// SetTickInterval overrides the default hourly interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	res, err := s.runner.Run(ctx, s.req)
	if err != nil {
		s.log.Error("scheduled reconcile", "error", err)
		if ctx.Err() == nil {
			s.notify("[reconcile] failed: " + err.Error())
		}
		return
	}

	s.log.Info("scheduled reconcile",
		"apply", s.req.Apply,
		"drafts", res.Drafts,
		"submissions", res.Submissions,
		"matches", len(res.Matches),
	)

	if len(res.Matches) == 0 {
		return
	}
	s.notify(bot.FormatRunSummary(res))
}

func (s *Scheduler) notify(text string) {
	if s.sender == nil || s.chatID == 0 {
		return
	}
	s.sender.SendMessage(s.chatID, text)
}
