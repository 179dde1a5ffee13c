package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/milka-trade/OldFashionedPeople-sub001/internal/adapters/logger"
	"github.com/milka-trade/OldFashionedPeople-sub001/internal/strategy"
)

// Config holds all application configuration. It is constructed once at
// process start and immutable thereafter; every component receives it (or its
// slice of it) explicitly.
type Config struct {
	// Binance API
	APIKey     string
	SecretKey  string
	IsTestnet  bool
	QuoteAsset string // e.g. "USDT"

	// Universe
	Tickers []string // symbols screened by the buying loop, e.g. BTCUSDT

	// Strategy
	ProfileName string
	Profile     strategy.Profile

	// Exit thresholds (fractional rates)
	MinProfit       float64 // e.g. 0.01 for 1%
	MaxProfit       float64 // e.g. 0.03 for 3%
	CutRate         float64 // e.g. -0.03
	SeverityCutRate float64 // e.g. -0.015, tighter stop on fast declines

	// Position sizing
	BaseFraction     float64
	MaxExposureRatio float64
	MinOrderNotional float64
	SmallCashRatio   float64

	// Loop scheduling
	BuyInterval        time.Duration
	SellInterval       time.Duration
	ReportInterval     time.Duration
	BuyConfirmAttempts int
	BuyConfirmInterval time.Duration
	SellWatchAttempts  int
	PriceMoveGuardPct  float64 // abort a candidate when price moved more than this between verification and submission
	OrderRetryAttempts int
	OrderRetryDelay    time.Duration

	// Restricted trading window (exchange-local time of day)
	RestrictedWindow Window

	// Notifier
	TelegramBotToken string
	TelegramChatID   string

	// Observability
	LogLevel    logger.LogLevel
	MetricsAddr string // empty disables the promhttp listener
}

// profilesFile is the on-disk shape of the strategy profile table. Entries
// are raw nodes so a file can override single fields of a built-in profile
// without restating the rest.
type profilesFile struct {
	Profiles map[string]yaml.Node `yaml:"profiles"`
}

// Load loads configuration from environment variables (.env file) and the
// strategy profiles file.
func Load() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety
	cfg.QuoteAsset = getEnv("QUOTE_ASSET", "USDT")

	if cfg.APIKey == "" {
		errs = append(errs, "BINANCE_API_KEY must be set")
	}
	if cfg.SecretKey == "" {
		errs = append(errs, "BINANCE_API_SECRET must be set")
	}

	// Universe
	for _, t := range strings.Split(getEnv("TICKERS", "BTCUSDT,ETHUSDT"), ",") {
		t = strings.TrimSpace(strings.ToUpper(t))
		if t != "" {
			cfg.Tickers = append(cfg.Tickers, t)
		}
	}
	if len(cfg.Tickers) == 0 {
		errs = append(errs, "TICKERS must list at least one symbol")
	}

	// Strategy profile
	cfg.ProfileName = getEnv("STRATEGY_PROFILE", "standard")
	profile, err := loadProfile(getEnv("PROFILES_PATH", "./config/profiles.yaml"), cfg.ProfileName)
	if err != nil {
		errs = append(errs, err.Error())
	} else {
		cfg.Profile = profile
	}

	// Exit thresholds
	cfg.MinProfit, err = getEnvAsFloatRequired("MIN_PROFIT", 0.01)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_PROFIT: %v", err))
	} else if cfg.MinProfit <= 0 {
		errs = append(errs, "MIN_PROFIT must be positive")
	}

	cfg.MaxProfit, err = getEnvAsFloatRequired("MAX_PROFIT", 0.03)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_PROFIT: %v", err))
	} else if cfg.MaxProfit <= 0 {
		errs = append(errs, "MAX_PROFIT must be positive")
	}
	if cfg.MinProfit >= cfg.MaxProfit {
		errs = append(errs, "MIN_PROFIT must be less than MAX_PROFIT")
	}

	cfg.CutRate, err = getEnvAsFloatRequired("CUT_RATE", -0.03)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CUT_RATE: %v", err))
	} else if cfg.CutRate >= 0 {
		errs = append(errs, "CUT_RATE must be negative")
	}

	cfg.SeverityCutRate, err = getEnvAsFloatRequired("SEVERITY_CUT_RATE", -0.015)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SEVERITY_CUT_RATE: %v", err))
	} else if cfg.SeverityCutRate != 0 && (cfg.SeverityCutRate >= 0 || cfg.SeverityCutRate <= cfg.CutRate) {
		errs = append(errs, "SEVERITY_CUT_RATE must be negative and above CUT_RATE")
	}

	// Position sizing
	cfg.BaseFraction = getEnvAsFloat("BASE_FRACTION", 0.10)
	cfg.MaxExposureRatio = getEnvAsFloat("MAX_EXPOSURE_RATIO", 0.80)
	cfg.MinOrderNotional = getEnvAsFloat("MIN_ORDER_NOTIONAL", 10.0)
	cfg.SmallCashRatio = getEnvAsFloat("SMALL_CASH_RATIO", 0.10)

	// Loop scheduling
	cfg.BuyInterval = getEnvAsDuration("BUY_INTERVAL_SECONDS", 60)
	cfg.SellInterval = getEnvAsDuration("SELL_INTERVAL_SECONDS", 30)
	cfg.ReportInterval = time.Duration(getEnvAsInt("REPORT_INTERVAL_MINUTES", 60)) * time.Minute
	cfg.BuyConfirmAttempts = getEnvAsInt("BUY_CONFIRM_ATTEMPTS", 5)
	cfg.BuyConfirmInterval = getEnvAsDuration("BUY_CONFIRM_INTERVAL_SECONDS", 10)
	cfg.SellWatchAttempts = getEnvAsInt("SELL_WATCH_ATTEMPTS", 120)
	cfg.PriceMoveGuardPct = getEnvAsFloat("PRICE_MOVE_GUARD_PCT", 3.0)
	cfg.OrderRetryAttempts = getEnvAsInt("ORDER_RETRY_ATTEMPTS", 3)
	cfg.OrderRetryDelay = getEnvAsDuration("ORDER_RETRY_DELAY_SECONDS", 2)

	if cfg.BuyConfirmAttempts <= 0 || cfg.SellWatchAttempts <= 0 || cfg.OrderRetryAttempts <= 0 {
		errs = append(errs, "attempt counts must be positive")
	}
	if cfg.BuyInterval <= 0 || cfg.SellInterval <= 0 || cfg.ReportInterval <= 0 {
		errs = append(errs, "loop intervals must be positive")
	}
	if cfg.PriceMoveGuardPct <= 0 {
		errs = append(errs, "PRICE_MOVE_GUARD_PCT must be positive")
	}

	// Restricted trading window
	window, werr := ParseWindow(
		getEnv("RESTRICT_WINDOW_START", "08:50"),
		getEnv("RESTRICT_WINDOW_END", "09:10"),
		getEnv("EXCHANGE_TIMEZONE", "UTC"),
	)
	if werr != nil {
		errs = append(errs, fmt.Sprintf("invalid restricted window: %v", werr))
	} else {
		cfg.RestrictedWindow = window
	}

	// Notifier
	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")

	// Observability
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.MetricsAddr = getEnv("METRICS_ADDR", "")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// loadProfile merges the profiles file (when present) over the built-in
// defaults and selects one by name.
func loadProfile(path, name string) (strategy.Profile, error) {
	profiles := strategy.DefaultProfiles()

	data, err := os.ReadFile(path)
	if err == nil {
		var file profilesFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return strategy.Profile{}, fmt.Errorf("parsing profiles file %s: %w", path, err)
		}
		for key, node := range file.Profiles {
			// Decode on top of the built-in profile of the same name so a
			// file entry only needs the fields it changes. Unknown names
			// start from a zero profile and must be complete.
			p := profiles[key]
			if err := node.Decode(&p); err != nil {
				return strategy.Profile{}, fmt.Errorf("parsing profile %q in %s: %w", key, path, err)
			}
			if p.Name == "" {
				p.Name = key
			}
			profiles[key] = p
		}
	} else if !os.IsNotExist(err) {
		return strategy.Profile{}, fmt.Errorf("reading profiles file %s: %w", path, err)
	}

	profile, ok := profiles[name]
	if !ok {
		known := make([]string, 0, len(profiles))
		for k := range profiles {
			known = append(known, k)
		}
		return strategy.Profile{}, fmt.Errorf("unknown strategy profile %q (known: %s)", name, strings.Join(known, ", "))
	}
	if err := profile.Validate(); err != nil {
		return strategy.Profile{}, err
	}
	return profile, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}
