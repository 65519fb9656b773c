package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadiminshakov/autoswap/config"
	"github.com/vadiminshakov/autoswap/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "autoswap",
	Short:        "Buy BTC with every fiat deposit on Binance and forward it to a wallet",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to yaml config, environment variables override it")
}

// setup loads the configuration and builds the logger. The returned function flushes the logger.
func setup() (config.Config, *zap.Logger, func(), error) {
	conf, err := config.Get(configPath)
	if err != nil {
		return config.Config{}, nil, nil, errors.Wrap(err, "failed to load configuration")
	}

	logger, closeFn, err := logging.New(logging.Config{Level: conf.LogLevel, File: conf.LogFile})
	if err != nil {
		return config.Config{}, nil, nil, errors.Wrap(err, "failed to create logger")
	}

	return conf, logger, closeFn, nil
}
