// Command autoswap converts a fiat balance on Binance into BTC as soon as it
// arrives, withdraws the coins and records each purchase in a trade ledger.
//
// Usage:
//
//	autoswap run [--config autoswap.yaml]
//	autoswap sync
//	autoswap balance [ASSET]
//	autoswap withdraw [--amount 0.001]
//
// Credentials are read from BINANCE_API_KEY and BINANCE_API_SECRET, a .env
// file in the working directory is loaded first.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
