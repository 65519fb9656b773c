package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadiminshakov/autoswap/config"
	"github.com/vadiminshakov/autoswap/internal"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [ASSET]",
	Short: "Print the free, locked and total balance of an asset (BTC by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	conf, logger, closeLogger, err := setup()
	if err != nil {
		return err
	}
	defer closeLogger()

	asset := config.DefaultCoin
	if len(args) == 1 {
		asset = strings.ToUpper(args[0])
	}

	balance, err := internal.NewBinanceClient(conf).GetAssetBalance(cmd.Context(), asset)
	if err != nil {
		logger.Error("failed to get balance", zap.String("asset", asset), zap.Error(err))
		return errors.Wrapf(err, "failed to get %s balance", asset)
	}

	cmd.Printf("%s free: %s locked: %s total: %s\n", balance.Asset,
		balance.Free.StringFixed(8), balance.Locked.StringFixed(8), balance.Total().StringFixed(8))
	return nil
}
