package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"focus-session-be/internal/constant"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Gateway  GatewayConfig
	Engine   EngineConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

// GatewayConfig points at the network-level access gateway that actually
// blocks and unblocks the distracting domains.
type GatewayConfig struct {
	BaseURL string
	APIKey  string
	Domains []string
}

type EngineConfig struct {
	EventTopic           string
	RedisChannel         string
	NotifyEmail          string
	EveningOverrideKinds []string
	SettingDefaults      map[string]string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "FocusSession"),
		},
		Gateway: GatewayConfig{
			BaseURL: getEnv("GATEWAY_BASE_URL", "http://localhost:8088"),
			APIKey:  getEnv("GATEWAY_API_KEY", ""),
			Domains: getEnvAsList("GATEWAY_DOMAINS", "news.ycombinator.com,reddit.com,twitter.com,x.com,youtube.com"),
		},
		Engine: EngineConfig{
			EventTopic:           getEnv("SESSION_EVENT_TOPIC", "SESSION_EVENTS"),
			RedisChannel:         getEnv("REDIS_EVENT_CHANNEL", "focus:events"),
			NotifyEmail:          getEnv("NOTIFY_EMAIL", ""),
			EveningOverrideKinds: getEnvAsList("EVENING_OVERRIDE_KINDS", ""),
			SettingDefaults: map[string]string{
				constant.SettingWorkSeconds:          getEnv("DEFAULT_WORK_SECONDS", "1500"),
				constant.SettingShortBreakSeconds:    getEnv("DEFAULT_SHORT_BREAK_SECONDS", "300"),
				constant.SettingLongBreakSeconds:     getEnv("DEFAULT_LONG_BREAK_SECONDS", "900"),
				constant.SettingDailySessionGoal:     getEnv("DEFAULT_DAILY_SESSION_GOAL", "8"),
				constant.SettingHardSessionCap:       getEnv("DEFAULT_HARD_SESSION_CAP", "12"),
				constant.SettingEveningCutoff:        getEnv("DEFAULT_EVENING_CUTOFF", "21:00"),
				constant.SettingRabbitHoleThreshold:  getEnv("DEFAULT_RABBIT_HOLE_THRESHOLD", "3"),
				constant.SettingRestDayMinimum:       getEnv("DEFAULT_REST_DAY_MINIMUM", "1"),
				constant.SettingSchedulerIntervalSec: getEnv("SCHEDULER_INTERVAL_SECONDS", "30"),
			},
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
