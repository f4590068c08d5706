package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"toolforge/internal/regen"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch the specs directory and keep generated tools in sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		a.manager.Subscribe(func(ev regen.Event) {
			fields := []zap.Field{zap.String("tool", ev.Tool)}
			if ev.Err != nil {
				fields = append(fields, zap.Error(ev.Err))
			}
			logger.Info("lifecycle: "+string(ev.Type), fields...)
		})

		if err := a.manager.Sync(ctx); err != nil {
			return err
		}
		if err := a.manager.Watch(ctx); err != nil {
			return err
		}
		defer a.manager.Stop()

		logger.Info("serving",
			zap.String("specs", cfg.Specs.Dir),
			zap.String("tools", cfg.Specs.ToolsDir),
			zap.Int("catalog_size", len(a.registry.ToolsForLLM(ctx))))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Info("shutting down", zap.String("signal", sig.String()))
		case <-ctx.Done():
		}
		return nil
	},
}
