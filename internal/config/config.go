package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config 应用配置，全部来自环境变量（可由 .env 提供）
type Config struct {
	Port          string
	DatabaseURL   string
	SessionSecret string
	LogLevel      string
	SiteURL       string

	SMTP struct {
		Host     string
		Port     string
		User     string
		Password string
		From     string
	}

	LLM struct {
		BaseURL string
		Token   string
		Model   string
		Timeout time.Duration
	}
}

// Load 读取 .env 和环境变量，缺省值适用于本地开发
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, finding env vars from system")
	}

	cfg := &Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseURL = getEnv("DATABASE_URL",
		"host=localhost user=postgres password=postgres dbname=snipshare port=5432 sslmode=disable TimeZone=UTC")
	cfg.SessionSecret = getEnv("SESSION_SECRET", "secret_key_change_me")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.SiteURL = strings.TrimRight(getEnv("SITE_URL", "http://localhost:8080"), "/")

	cfg.SMTP.Host = os.Getenv("SMTP_HOST")
	cfg.SMTP.Port = os.Getenv("SMTP_PORT")
	cfg.SMTP.User = os.Getenv("SMTP_USER")
	cfg.SMTP.Password = os.Getenv("SMTP_PASS")
	cfg.SMTP.From = os.Getenv("SMTP_FROM")

	cfg.LLM.BaseURL = os.Getenv("LLM_BASE_URL")
	cfg.LLM.Token = os.Getenv("LLM_TOKEN")
	cfg.LLM.Model = getEnv("LLM_MODEL", "gpt-4o-mini")
	cfg.LLM.Timeout = getDuration("LLM_TIMEOUT", 30*time.Second)

	return cfg
}

// ApplyLogLevel 设置 logrus 全局日志级别，非法值回退到 info
func (c *Config) ApplyLogLevel() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithError(err).Warnf("Invalid LOG_LEVEL %q, using info", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getDuration 接受 "30s" 这种写法，也接受纯数字（秒）
func getDuration(key string, fallback time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Warnf("Invalid %s %q, using %s", key, raw, fallback)
	return fallback
}
