package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir   string `json:"project_dir"`
	ResultsDir   string `json:"results_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`

	// AI Model API keys, one per persona backend
	DeepSeekAPIKey  string `json:"deepseek_api_key"`
	OpenAIAPIKey    string `json:"openai_api_key"`
	DashScopeAPIKey string `json:"dashscope_api_key"`

	DeepSeekBaseURL  string `json:"deepseek_base_url"`
	OpenAIBaseURL    string `json:"openai_base_url"`
	DashScopeBaseURL string `json:"dashscope_base_url"`

	DeepSeekModel  string `json:"deepseek_model"`
	OpenAIModel    string `json:"openai_model"`
	DashScopeModel string `json:"dashscope_model"`

	BackendTimeoutSec int  `json:"backend_timeout_sec"`
	MaxDebateRounds   int  `json:"max_debate_rounds"`
	Debug             bool `json:"debug"`

	// Eino Debug configuration
	EinoDebugEnabled bool `json:"eino_debug_enabled"`
	EinoDebugPort    int  `json:"eino_debug_port"`

	// Market data
	FinnhubAPIKey string  `json:"finnhub_api_key"`
	DefaultPrice  float64 `json:"default_price"` // used when no quote source answers
	CacheEnabled  bool    `json:"cache_enabled"`

	// Usage metering
	DailyQuotaLite  int `json:"daily_quota_lite"`
	DailyQuotaBasic int `json:"daily_quota_basic"`
	DailyQuotaPro   int `json:"daily_quota_pro"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		ProjectDir:   currentDir,
		ResultsDir:   filepath.Join(currentDir, "results"),
		DataDir:      filepath.Join(currentDir, "data"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),

		DeepSeekBaseURL:  "https://api.deepseek.com/v1",
		OpenAIBaseURL:    "https://api.openai.com/v1",
		DashScopeBaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",

		DeepSeekModel:  "deepseek-chat",
		OpenAIModel:    "gpt-4o-mini",
		DashScopeModel: "qwen-plus",

		BackendTimeoutSec: 60,
		MaxDebateRounds:   4,
		Debug:             false,

		EinoDebugEnabled: false,
		EinoDebugPort:    52538,

		DefaultPrice: 70000,
		CacheEnabled: true,

		DailyQuotaLite:  10,
		DailyQuotaBasic: 30,
		DailyQuotaPro:   100,
	}

	// Load environment variables from .env file
	_ = godotenv.Load()

	// Override with environment variables if they exist
	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}

	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("DASHSCOPE_API_KEY"); val != "" {
		c.DashScopeAPIKey = val
	}

	if val := os.Getenv("DEEPSEEK_BASE_URL"); val != "" {
		c.DeepSeekBaseURL = val
	}
	if val := os.Getenv("OPENAI_BASE_URL"); val != "" {
		c.OpenAIBaseURL = val
	}
	if val := os.Getenv("DASHSCOPE_BASE_URL"); val != "" {
		c.DashScopeBaseURL = val
	}

	if val := os.Getenv("DEEPSEEK_MODEL"); val != "" {
		c.DeepSeekModel = val
	}
	if val := os.Getenv("OPENAI_MODEL"); val != "" {
		c.OpenAIModel = val
	}
	if val := os.Getenv("DASHSCOPE_MODEL"); val != "" {
		c.DashScopeModel = val
	}

	if val := os.Getenv("BACKEND_TIMEOUT_SEC"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.BackendTimeoutSec = v
		}
	}
	if val := os.Getenv("MAX_DEBATE_ROUNDS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxDebateRounds = v
		}
	}

	if val := os.Getenv("QUORUMGO_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}

	if val := os.Getenv("EINO_DEBUG_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.EinoDebugEnabled = enabled
		}
	}
	if val := os.Getenv("EINO_DEBUG_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.EinoDebugPort = port
		}
	}

	if val := os.Getenv("QUORUMGO_FINNHUB_API_KEY"); val != "" {
		c.FinnhubAPIKey = val
	}
	if val := os.Getenv("DEFAULT_PRICE"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			c.DefaultPrice = v
		}
	}
	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if cache, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = cache
		}
	}

	if val := os.Getenv("DAILY_QUOTA_LITE"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.DailyQuotaLite = v
		}
	}
	if val := os.Getenv("DAILY_QUOTA_BASIC"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.DailyQuotaBasic = v
		}
	}
	if val := os.Getenv("DAILY_QUOTA_PRO"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.DailyQuotaPro = v
		}
	}
}

// DailyQuota returns the metered request allowance for a tier. Zero means
// the tier is not metered.
func (c *Config) DailyQuota(tier string) int {
	switch tier {
	case "lite":
		return c.DailyQuotaLite
	case "basic":
		return c.DailyQuotaBasic
	case "pro":
		return c.DailyQuotaPro
	default:
		return 0
	}
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir, c.DataDir, c.DataCacheDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
