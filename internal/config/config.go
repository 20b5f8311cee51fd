package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Gateway  GatewayConfig
	Telegram TelegramConfig
	Voice    VoiceConfig
	Advisor  AdvisorConfig
	News     NewsConfig
	Memory   MemoryConfig
	Runtime  RuntimeConfig
}

type GatewayConfig struct {
	BaseURL     string
	StreamURL   string
	UserName    string
	APIKey      string
	AccountName string
}

type TelegramConfig struct {
	BotToken string
	ChatID   string
}

type VoiceConfig struct {
	TTSURL string
	Player string
}

type AdvisorConfig struct {
	APIKey string
	Model  string
}

type NewsConfig struct {
	MarketauxAPIKey string
	CalendarURL     string
}

type MemoryConfig struct {
	DBPath    string
	ExportDir string
}

type RuntimeConfig struct {
	Log         LogConfig
	AgentLogDir string
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Secrets that must be present in the environment (or .env) before the
// assistant can talk to the gateway.
var requiredSecrets = []string{
	"PROJECTX_USERNAME",
	"PROJECTX_API_KEY",
}

func Load() (*Config, error) {
	godotenv.Load()

	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.ReadInConfig()

	setDefaults()

	var missing []string
	for _, key := range requiredSecrets {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("Отсутствуют обязательные переменные окружения: %v", missing)
	}

	cfg := &Config{}

	cfg.Gateway = GatewayConfig{
		BaseURL:     viper.GetString("gateway.base_url"),
		StreamURL:   viper.GetString("gateway.stream_url"),
		UserName:    envSub("gateway.username"),
		APIKey:      envSub("gateway.api_key"),
		AccountName: envSub("gateway.account_name"),
	}

	cfg.Telegram = TelegramConfig{
		BotToken: envSub("telegram.bot_token"),
		ChatID:   envSub("telegram.chat_id"),
	}

	cfg.Voice = VoiceConfig{
		TTSURL: viper.GetString("voice.tts_url"),
		Player: viper.GetString("voice.player"),
	}

	cfg.Advisor = AdvisorConfig{
		APIKey: envSub("advisor.api_key"),
		Model:  viper.GetString("advisor.model"),
	}

	cfg.News = NewsConfig{
		MarketauxAPIKey: envSub("news.marketaux_api_key"),
		CalendarURL:     viper.GetString("news.calendar_url"),
	}

	cfg.Memory = MemoryConfig{
		DBPath:    viper.GetString("memory.db_path"),
		ExportDir: viper.GetString("memory.export_dir"),
	}

	cfg.Runtime = RuntimeConfig{
		Log: LogConfig{
			Level:      viper.GetString("runtime.log.level"),
			Format:     viper.GetString("runtime.log.format"),
			File:       viper.GetString("runtime.log.file"),
			MaxSize:    viper.GetInt("runtime.log.max_size"),
			MaxBackups: viper.GetInt("runtime.log.max_backups"),
			MaxAge:     viper.GetInt("runtime.log.max_age"),
			Compress:   viper.GetBool("runtime.log.compress"),
		},
		AgentLogDir: viper.GetString("runtime.agent_log_dir"),
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("gateway.base_url", "https://api.topstepx.com")
	viper.SetDefault("gateway.stream_url", "wss://rtc.topstepx.com")
	viper.SetDefault("gateway.username", "${PROJECTX_USERNAME}")
	viper.SetDefault("gateway.api_key", "${PROJECTX_API_KEY}")
	viper.SetDefault("gateway.account_name", "${PROJECTX_ACCOUNT_NAME}")
	viper.SetDefault("telegram.bot_token", "${TELEGRAM_BOT_TOKEN}")
	viper.SetDefault("telegram.chat_id", "${TELEGRAM_CHAT_ID}")
	viper.SetDefault("advisor.api_key", "${GEMINI_API_KEY}")
	viper.SetDefault("advisor.model", "gemini-2.5-flash")
	viper.SetDefault("news.marketaux_api_key", "${MARKETAUX_API_KEY}")
	viper.SetDefault("memory.db_path", "memory/jafar.db")
	viper.SetDefault("memory.export_dir", "memory")
	viper.SetDefault("runtime.log.level", "info")
	viper.SetDefault("runtime.log.max_size", 10)
	viper.SetDefault("runtime.log.max_backups", 3)
	viper.SetDefault("runtime.agent_log_dir", "logs/trade_agents")
}

func envSub(key string) string {
	val := viper.GetString(key)
	if val == "" {
		return ""
	}

	re := regexp.MustCompile(`\$\{(\w+)\}`)
	return re.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
