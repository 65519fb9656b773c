package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadiminshakov/autoswap/internal"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the funding balance and swap, withdraw and report every deposit",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	conf, logger, closeLogger, err := setup()
	if err != nil {
		return err
	}
	defer closeLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := internal.NewTradingBot(ctx, conf, internal.NewBinanceClient(conf), logger)
	if err != nil {
		logger.Error("failed to create trading bot", zap.Error(err))
		return errors.Wrap(err, "failed to create trading bot")
	}

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("trading bot failed", zap.Error(err))
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
