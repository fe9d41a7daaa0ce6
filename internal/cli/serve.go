package cli

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"studentpress/internal/bot"
	"studentpress/internal/reconcile"
	"studentpress/internal/scheduler"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram operator console and the reconcile scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if cfg.TelegramBotToken == "" {
				return errors.New("TELEGRAM_BOT_TOKEN is required")
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc, err := a.commentService()
			if err != nil {
				return err
			}

			applier := reconcile.NewApplier(store, a.log)
			applier.SetRate(cfg.Reconcile.Rate)
			runner := reconcile.NewRunner(store, applier, a.log)

			b, err := bot.New(cfg.TelegramBotToken, runner, svc, cfg, a.log)
			if err != nil {
				return err
			}

			sched := scheduler.New(runner, b, cfg.OperatorChatID, reconcile.Request{
				Options: reconcile.Options{
					WindowMinutes:         cfg.Reconcile.WindowMinutes,
					EarlyToleranceMinutes: cfg.Reconcile.EarlyToleranceMinutes,
				},
				Apply: cfg.Reconcile.Apply,
			}, a.log)
			sched.SetTickInterval(cfg.Reconcile.Interval)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a.log.Info("starting bot", "reconcile_interval", cfg.Reconcile.Interval, "reconcile_apply", cfg.Reconcile.Apply)

			go sched.Run(ctx)

			b.Run(ctx)

			a.log.Info("bot stopped")
			return nil
		},
	}
}
