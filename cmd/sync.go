package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadiminshakov/autoswap/internal"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Backfill the trade ledger with exchange trades it does not have yet",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	conf, logger, closeLogger, err := setup()
	if err != nil {
		return err
	}
	defer closeLogger()

	rec, err := internal.NewReconciler(logger, conf, internal.NewBinanceClient(conf))
	if err != nil {
		logger.Error("cannot reconcile", zap.Error(err))
		return err
	}

	result, err := rec.Run(cmd.Context())
	if err != nil {
		logger.Error("reconciliation failed", zap.String("symbol", conf.Symbol), zap.Error(err))
		return errors.Wrap(err, "reconciliation failed")
	}

	cmd.Printf("created: %d skipped: %d failed: %d\n", result.Created, result.Skipped, result.Failed)
	if result.Failed > 0 {
		return errors.Errorf("%d trades could not be reported", result.Failed)
	}
	return nil
}
