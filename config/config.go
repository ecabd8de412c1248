package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

// Config holds all configuration values for the trading service
type Config struct {
	// Execution proxy
	HTTPAPIURL     string
	RequestTimeout time.Duration

	LogLevel string
	LogFile  string

	// Trading
	BuyAmountSOL float64
	SlippageBps  int
	BuyInterval  int // minimum seconds between buys
	BotAddress   string
	SellDelay    time.Duration

	// Event stream
	UnixSocketPath string
	StreamAddr     string

	// Chain
	RPCURL              string
	LookupTableAccounts []string
	NoncePubkey         string
	UseNonce            bool

	// Redis
	RedisURL      string
	RedisPoolSize int

	// Gas
	GlobalCULimit    uint64
	GlobalCUPrice    uint64
	GlobalBuyTip     float64
	GlobalSellTip    float64
	EnableHighLowFee bool
	HighCUPrice      uint64
	LowBuyTip        float64
	LowSellTip       float64
	LowCUPrice       uint64
	HighBuyTip       float64
	HighSellTip      float64

	BuyGateFailOpen bool
	MaxWorkers      int

	KafkaBrokers []string
	KafkaTopic   string

	AdminEnabled bool
	AdminPort    int
}

// ConfigManager loads and validates configuration
type ConfigManager struct {
	mutex  sync.RWMutex
	config *Config
	logger *logging.Logger
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		logger: logging.NewLogger("trading-service", "config"),
	}
}

// LoadConfig loads configuration from .env (if present) and environment variables
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		cm.logger.Warn("Failed to read .env file", map[string]interface{}{"error": err.Error()})
	}

	var errs []string
	config := &Config{
		HTTPAPIURL:          getString("HTTP_API_URL", "http://localhost:3000"),
		RequestTimeout:      time.Duration(getInt("REQUEST_TIMEOUT", 30000, &errs)) * time.Millisecond,
		LogLevel:            strings.ToUpper(getString("LOG_LEVEL", "INFO")),
		LogFile:             os.Getenv("LOG_FILE"),
		BuyAmountSOL:        getFloat("BUY_AMOUNT_SOL", 0.01, &errs),
		SlippageBps:         getInt("SLIPPAGE_BPS", 500, &errs),
		BuyInterval:         getInt("BUY_INTERVAL", 60, &errs),
		BotAddress:          os.Getenv("BOT_ADDRESS"),
		SellDelay:           getDuration("SELL_DELAY", 10*time.Second, &errs),
		UnixSocketPath:      getString("UNIX_SOCKET_PATH", "/tmp/parser_proxy.sock"),
		StreamAddr:          os.Getenv("STREAM_ADDR"),
		RPCURL:              getString("RPC_URL", "https://api.mainnet-beta.solana.com"),
		LookupTableAccounts: getList("LOOKUP_TABLE_ACCOUNTS", nil),
		NoncePubkey:         os.Getenv("NONCE_PUBKEY"),
		UseNonce:            getBool("USE_NONCE", false, &errs),
		RedisURL:            getString("REDIS_URL", "redis://localhost:6379"),
		RedisPoolSize:       getInt("REDIS_POOL_SIZE", 10, &errs),
		GlobalCULimit:       getUint("GLOBAL_CU_LIMIT", 1100000, &errs),
		GlobalCUPrice:       getUint("GLOBAL_CU_PRICE", 180000, &errs),
		GlobalBuyTip:        getFloat("GLOBAL_BUY_TIP", 0.0001, &errs),
		GlobalSellTip:       getFloat("GLOBAL_SELL_TIP", 0.0001, &errs),
		EnableHighLowFee:    getBool("ENABLE_HIGH_LOW_FEE", false, &errs),
		HighCUPrice:         getUint("HIGH_CU_PRICE", 500000, &errs),
		LowBuyTip:           getFloat("LOW_BUY_TIP", 0.0001, &errs),
		LowSellTip:          getFloat("LOW_SELL_TIP", 0.0001, &errs),
		LowCUPrice:          getUint("LOW_CU_PRICE", 180000, &errs),
		HighBuyTip:          getFloat("HIGH_BUY_TIP", 0.0002, &errs),
		HighSellTip:         getFloat("HIGH_SELL_TIP", 0.0002, &errs),
		BuyGateFailOpen:     getBool("BUY_GATE_FAIL_OPEN", true, &errs),
		MaxWorkers:          getInt("MAX_WORKERS", 8, &errs),
		KafkaBrokers:        getList("KAFKA_BROKERS", nil),
		KafkaTopic:          getString("KAFKA_TOPIC", "order-events"),
		AdminEnabled:        getBool("ADMIN_ENABLED", true, &errs),
		AdminPort:           getInt("ADMIN_PORT", 8080, &errs),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}

	if err := cm.validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cm.mutex.Lock()
	cm.config = config
	cm.mutex.Unlock()

	cm.logger.Info("Configuration loaded", map[string]interface{}{
		"stream":        config.StreamEndpoint(),
		"proxy":         config.HTTPAPIURL,
		"use_nonce":     config.UseNonce,
		"buy_interval":  config.BuyInterval,
		"fail_open":     config.BuyGateFailOpen,
		"high_low_fee":  config.EnableHighLowFee,
		"kafka_enabled": len(config.KafkaBrokers) > 0,
	})

	return config, nil
}

// GetConfig returns the last successfully loaded configuration
func (cm *ConfigManager) GetConfig() *Config {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.config
}

// StreamEndpoint returns the network and address of the event stream.
func (c *Config) StreamEndpoint() string {
	if c.StreamAddr != "" {
		return "tcp://" + c.StreamAddr
	}
	return "unix://" + c.UnixSocketPath
}

// GasFeeStrategy returns the fee settings sent with every trade. The high/low
// shape reuses GLOBAL_CU_LIMIT as its compute unit limit.
func (c *Config) GasFeeStrategy() models.GasFeeStrategy {
	if c.EnableHighLowFee {
		return models.GasFeeStrategy{
			StrategyType: models.GasStrategyHighLow,
			CULimit:      c.GlobalCULimit,
			HighCUPrice:  c.HighCUPrice,
			LowBuyTip:    c.LowBuyTip,
			LowSellTip:   c.LowSellTip,
			LowCUPrice:   c.LowCUPrice,
			HighBuyTip:   c.HighBuyTip,
			HighSellTip:  c.HighSellTip,
		}
	}
	return models.GasFeeStrategy{
		StrategyType:  models.GasStrategyGlobal,
		GlobalCULimit: c.GlobalCULimit,
		GlobalCUPrice: c.GlobalCUPrice,
		GlobalBuyTip:  c.GlobalBuyTip,
		GlobalSellTip: c.GlobalSellTip,
	}
}

func (cm *ConfigManager) validateConfig(config *Config) error {
	if config.HTTPAPIURL == "" {
		return fmt.Errorf("HTTPAPIURL cannot be empty")
	}
	if _, err := url.ParseRequestURI(config.HTTPAPIURL); err != nil {
		return fmt.Errorf("HTTPAPIURL is not a valid URL: %w", err)
	}
	if config.RequestTimeout <= 0 {
		return fmt.Errorf("RequestTimeout must be positive, got: %v", config.RequestTimeout)
	}
	if _, ok := logging.ParseLevel(config.LogLevel); !ok {
		return fmt.Errorf("LogLevel must be one of DEBUG, INFO, WARN, ERROR, FATAL, got: %s", config.LogLevel)
	}
	if config.BuyAmountSOL <= 0 {
		return fmt.Errorf("BuyAmountSOL must be positive, got: %v", config.BuyAmountSOL)
	}
	if config.SlippageBps < 0 || config.SlippageBps > 10000 {
		return fmt.Errorf("SlippageBps must be between 0 and 10000, got: %d", config.SlippageBps)
	}
	if config.BuyInterval < 0 {
		return fmt.Errorf("BuyInterval cannot be negative, got: %d", config.BuyInterval)
	}
	if config.SellDelay <= 0 {
		return fmt.Errorf("SellDelay must be positive, got: %v", config.SellDelay)
	}
	if config.UnixSocketPath == "" && config.StreamAddr == "" {
		return fmt.Errorf("UnixSocketPath or StreamAddr must be set")
	}
	if config.RPCURL == "" {
		return fmt.Errorf("RPCURL cannot be empty")
	}
	if config.UseNonce && config.NoncePubkey == "" {
		return fmt.Errorf("NoncePubkey is required when UseNonce is enabled")
	}
	if config.RedisURL == "" {
		return fmt.Errorf("RedisURL cannot be empty")
	}
	if config.RedisPoolSize <= 0 {
		return fmt.Errorf("RedisPoolSize must be positive, got: %d", config.RedisPoolSize)
	}
	if config.MaxWorkers <= 0 {
		return fmt.Errorf("MaxWorkers must be positive, got: %d", config.MaxWorkers)
	}
	if len(config.KafkaBrokers) > 0 && config.KafkaTopic == "" {
		return fmt.Errorf("KafkaTopic cannot be empty when KafkaBrokers is set")
	}
	if config.AdminEnabled && (config.AdminPort <= 0 || config.AdminPort > 65535) {
		return fmt.Errorf("AdminPort must be between 1 and 65535, got: %d", config.AdminPort)
	}
	return nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int, errs *[]string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return parsed
}

func getUint(key string, def uint64, errs *[]string) uint64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return parsed
}

func getFloat(key string, def float64, errs *[]string) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return parsed
}

func getBool(key string, def bool, errs *[]string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return parsed
}

// getDuration accepts Go durations ("10s") or plain seconds ("10").
func getDuration(key string, def time.Duration, errs *[]string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return parsed
}

func getList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
