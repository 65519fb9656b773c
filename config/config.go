package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFundingAsset = "ARS"
	DefaultBaseURL      = "https://api.binance.com"
	DefaultPollInterval = 10 * time.Second
	DefaultNetwork      = "BSC"
	DefaultCoin         = "BTC"
	DefaultLogLevel     = "info"
)

var maxDurationSeconds = float64(math.MaxInt64) / float64(time.Second)

type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string

	FundingAsset string
	Symbol       string
	PollInterval time.Duration
	MinQuoteQty  decimal.Decimal
	// RulesTTL zero keeps the exchange minimum loaded at startup for the whole run.
	RulesTTL time.Duration

	Withdraw WithdrawConfig

	// LedgerURL empty disables trade reporting and reconciliation.
	LedgerURL      string
	SyncFailClosed bool

	LogLevel string
	LogFile  string
}

type WithdrawConfig struct {
	Coin      string
	Address   string
	Network   string
	MinAmount decimal.Decimal
	// Amount is used by the manual withdraw command.
	Amount decimal.NullDecimal
}

// ConfigTmp is the raw file form; every value is a string so that file and
// environment values go through the same parsing.
type ConfigTmp struct {
	APIKey            string `yaml:"api_key"`
	APISecret         string `yaml:"api_secret"`
	BaseURL           string `yaml:"base_url"`
	TargetAsset       string `yaml:"target_asset"`
	TradeSymbol       string `yaml:"trade_symbol"`
	PollInterval      string `yaml:"poll_interval_seconds"`
	MinQuoteQty       string `yaml:"min_quote_qty"`
	RulesTTL          string `yaml:"rules_ttl"`
	WithdrawCoin      string `yaml:"withdraw_coin"`
	WithdrawAddress   string `yaml:"withdraw_address"`
	WithdrawNetwork   string `yaml:"withdraw_network"`
	WithdrawMinAmount string `yaml:"withdraw_min_amount"`
	WithdrawAmount    string `yaml:"withdraw_amount"`
	LedgerURL         string `yaml:"backend_api_base"`
	SyncFailClosed    string `yaml:"sync_fail_closed"`
	LogLevel          string `yaml:"log_level"`
	LogFile           string `yaml:"log_file"`
}

// Get reads the optional yaml file at path, then applies environment variables
// (including a .env file in the working directory) on top of it.
func Get(path string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	var tmp ConfigTmp
	if path != "" {
		f, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(f, &tmp); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	tmp.applyEnv(getenv)
	return tmp.parse()
}

func (c *ConfigTmp) applyEnv(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.APIKey, "BINANCE_API_KEY", "BINANCE_API")
	set(&c.APISecret, "BINANCE_API_SECRET", "BINANCE_SECRET")
	set(&c.BaseURL, "BINANCE_BASE_URL")
	set(&c.TargetAsset, "TARGET_ASSET")
	set(&c.TradeSymbol, "TRADE_SYMBOL")
	set(&c.PollInterval, "POLL_INTERVAL_SECONDS")
	set(&c.MinQuoteQty, "MIN_QUOTE_QTY")
	set(&c.RulesTTL, "RULES_TTL")
	set(&c.WithdrawCoin, "WITHDRAW_COIN")
	set(&c.WithdrawAddress, "WITHDRAW_ADDRESS")
	set(&c.WithdrawNetwork, "WITHDRAW_NETWORK")
	set(&c.WithdrawMinAmount, "WITHDRAW_MIN_AMOUNT")
	set(&c.WithdrawAmount, "WITHDRAW_AMOUNT")
	set(&c.LedgerURL, "BACKEND_API_BASE", "DCA_API_BASE")
	set(&c.SyncFailClosed, "SYNC_FAIL_CLOSED")
	set(&c.LogLevel, "LOG_LEVEL")
	set(&c.LogFile, "LOG_FILE")
}

func (c ConfigTmp) parse() (Config, error) {
	if c.APIKey == "" || c.APISecret == "" {
		return Config{}, fmt.Errorf("missing credentials: set BINANCE_API_KEY/BINANCE_API and BINANCE_API_SECRET/BINANCE_SECRET")
	}

	conf := Config{
		APIKey:       c.APIKey,
		APISecret:    c.APISecret,
		BaseURL:      strings.TrimRight(orDefault(c.BaseURL, DefaultBaseURL), "/"),
		FundingAsset: strings.ToUpper(orDefault(c.TargetAsset, DefaultFundingAsset)),
		Withdraw: WithdrawConfig{
			Coin:    strings.ToUpper(orDefault(c.WithdrawCoin, DefaultCoin)),
			Address: c.WithdrawAddress,
			Network: strings.ToUpper(orDefault(c.WithdrawNetwork, DefaultNetwork)),
		},
		LedgerURL: strings.TrimRight(c.LedgerURL, "/"),
		LogLevel:  orDefault(c.LogLevel, DefaultLogLevel),
		LogFile:   c.LogFile,
	}
	conf.Symbol = strings.ToUpper(orDefault(c.TradeSymbol, DefaultCoin+conf.FundingAsset))

	conf.PollInterval = DefaultPollInterval
	if c.PollInterval != "" {
		interval, err := parseSeconds(c.PollInterval)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'poll_interval_seconds' param (must be a number greater than zero): %q", c.PollInterval)
		}
		conf.PollInterval = interval
	}

	var err error
	if conf.MinQuoteQty, err = nonNegative("min_quote_qty", c.MinQuoteQty); err != nil {
		return Config{}, err
	}
	if conf.Withdraw.MinAmount, err = nonNegative("withdraw_min_amount", c.WithdrawMinAmount); err != nil {
		return Config{}, err
	}

	if c.WithdrawAmount != "" {
		amount, err := decimal.NewFromString(c.WithdrawAmount)
		if err != nil || !amount.IsPositive() {
			return Config{}, fmt.Errorf("incorrect 'withdraw_amount' param (must be a number greater than zero): %q", c.WithdrawAmount)
		}
		conf.Withdraw.Amount = decimal.NewNullDecimal(amount)
	}

	if c.RulesTTL != "" {
		ttl, err := time.ParseDuration(c.RulesTTL)
		if err != nil || ttl < 0 {
			return Config{}, fmt.Errorf("incorrect 'rules_ttl' param (must be a duration like 10m): %q", c.RulesTTL)
		}
		conf.RulesTTL = ttl
	}

	if c.SyncFailClosed != "" {
		failClosed, err := strconv.ParseBool(c.SyncFailClosed)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'sync_fail_closed' param (must be true or false): %q", c.SyncFailClosed)
		}
		conf.SyncFailClosed = failClosed
	}

	return conf, nil
}

// parseSeconds reads a positive, finite number of seconds that fits a time.Duration.
func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds >= maxDurationSeconds {
		return 0, fmt.Errorf("%q is out of range", raw)
	}

	d := time.Duration(seconds * float64(time.Second))
	if d <= 0 {
		return 0, fmt.Errorf("%q is not positive", raw)
	}
	return d, nil
}

func nonNegative(name, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		return decimal.Zero, fmt.Errorf("incorrect '%s' param (must be a number greater than or equal to zero): %q", name, raw)
	}
	return v, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
