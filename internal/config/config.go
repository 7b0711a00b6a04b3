package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	Email struct {
		SMTPServer  string
		SMTPPort    int
		Username    string
		Password    string
		FromName    string
		FromAddress string
	}
	API struct {
		Port     string
		BasePath string
	}
	Auth struct {
		CronSecret string
		JWTSecret  string
	}
	BackupCheck struct {
		Schedule        string
		Timeout         time.Duration
		DispatchTimeout time.Duration
	}
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
	Telegram struct {
		BotToken  string
		ChatID    int64
		RateLimit int
	}
	FileMaker struct {
		TokenTTL  time.Duration
		CacheSize int
	}
	Crypto struct {
		EncryptionKey string
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (Config, error) {
	var cfg Config

	cfg.DB.DSN = os.Getenv("DB_DSN")

	// Email settings
	cfg.Email.SMTPServer = os.Getenv("EMAIL_SMTP_SERVER")
	if p, err := strconv.Atoi(os.Getenv("EMAIL_SMTP_PORT")); err == nil {
		cfg.Email.SMTPPort = p
	}
	cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	cfg.Email.FromName = os.Getenv("EMAIL_FROM_NAME")
	cfg.Email.FromAddress = os.Getenv("EMAIL_FROM_ADDRESS")

	// API settings
	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	cfg.Auth.CronSecret = os.Getenv("CRON_SECRET")
	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")

	// Backup check settings
	cfg.BackupCheck.Schedule = os.Getenv("BACKUP_CHECK_SCHEDULE")
	if s, err := strconv.Atoi(os.Getenv("BACKUP_CHECK_TIMEOUT_SECONDS")); err == nil {
		cfg.BackupCheck.Timeout = time.Duration(s) * time.Second
	}
	if s, err := strconv.Atoi(os.Getenv("BACKUP_CHECK_DISPATCH_TIMEOUT_SECONDS")); err == nil {
		cfg.BackupCheck.DispatchTimeout = time.Duration(s) * time.Second
	}

	// Kafka settings
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	// Telegram settings
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if id, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
		cfg.Telegram.ChatID = id
	}
	if r, err := strconv.Atoi(os.Getenv("TELEGRAM_RATE_LIMIT")); err == nil {
		cfg.Telegram.RateLimit = r
	}

	// FileMaker admin API settings
	if s, err := strconv.Atoi(os.Getenv("FILEMAKER_TOKEN_TTL_SECONDS")); err == nil {
		cfg.FileMaker.TokenTTL = time.Duration(s) * time.Second
	}
	if s, err := strconv.Atoi(os.Getenv("FILEMAKER_CACHE_SIZE")); err == nil {
		cfg.FileMaker.CacheSize = s
	}

	cfg.Crypto.EncryptionKey = os.Getenv("ENCRYPTION_KEY")

	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}
	if cfg.Crypto.EncryptionKey != "" && len(cfg.Crypto.EncryptionKey) != 32 {
		return Config{}, fmt.Errorf("ENCRYPTION_KEY must be 32 bytes, got %d", len(cfg.Crypto.EncryptionKey))
	}

	// Apply defaults
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.BackupCheck.Timeout <= 0 {
		cfg.BackupCheck.Timeout = 60 * time.Second
	}
	if cfg.BackupCheck.DispatchTimeout <= 0 {
		cfg.BackupCheck.DispatchTimeout = 10 * time.Second
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Email.FromAddress == "" {
		cfg.Email.FromAddress = cfg.Email.Username
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "server-events"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "status-dashboard"
	}
	if cfg.Telegram.RateLimit == 0 {
		cfg.Telegram.RateLimit = 1
	}
	if cfg.FileMaker.TokenTTL <= 0 {
		// FileMaker Admin API tokens idle out after 15 minutes.
		cfg.FileMaker.TokenTTL = 14 * time.Minute
	}
	if cfg.FileMaker.CacheSize == 0 {
		cfg.FileMaker.CacheSize = 1024 * 1024
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}
