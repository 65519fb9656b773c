package main

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadiminshakov/autoswap/internal"
	"github.com/vadiminshakov/autoswap/internal/domain"
)

var defaultManualWithdrawAmount = decimal.RequireFromString("0.000001")

var withdrawAmount string

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Send coins to the configured withdraw address",
	Long: `Send coins to WITHDRAW_ADDRESS on WITHDRAW_NETWORK.

The amount is taken from --amount, then WITHDRAW_AMOUNT, then 0.000001.
The withdrawal minimum is not applied to manual withdrawals.`,
	Args: cobra.NoArgs,
	RunE: runWithdraw,
}

func init() {
	rootCmd.AddCommand(withdrawCmd)

	withdrawCmd.Flags().StringVar(&withdrawAmount, "amount", "", "amount of coin to withdraw")
}

func runWithdraw(cmd *cobra.Command, _ []string) error {
	conf, logger, closeLogger, err := setup()
	if err != nil {
		return err
	}
	defer closeLogger()

	if conf.Withdraw.Address == "" {
		return errors.New("withdraw address is required (set WITHDRAW_ADDRESS)")
	}

	amount := defaultManualWithdrawAmount
	if conf.Withdraw.Amount.Valid {
		amount = conf.Withdraw.Amount.Decimal
	}
	if withdrawAmount != "" {
		amount, err = decimal.NewFromString(withdrawAmount)
		if err != nil {
			return errors.Wrapf(err, "invalid --amount %q", withdrawAmount)
		}
	}
	if !amount.IsPositive() {
		return errors.Errorf("withdraw amount must be greater than zero, got %s", amount)
	}

	logger.Info("sending withdrawal",
		zap.String("coin", conf.Withdraw.Coin),
		zap.String("amount", amount.String()),
		zap.String("network", conf.Withdraw.Network),
		zap.String("address", conf.Withdraw.Address))

	receipt, err := internal.NewBinanceClient(conf).Withdraw(cmd.Context(), domain.Withdrawal{
		Coin:    conf.Withdraw.Coin,
		Address: conf.Withdraw.Address,
		Amount:  amount,
		Network: conf.Withdraw.Network,
	})
	if err != nil {
		logger.Error("withdrawal failed", zap.String("amount", amount.String()), zap.Error(err))
		return err
	}

	cmd.Printf("withdrawal submitted, id: %s\n", receipt.ID)
	return nil
}
