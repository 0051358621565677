package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the bot.
type Config struct {
	BotToken      string
	AllowedAdmins map[int64]struct{}
	EmailDomain   string

	NoticeCooldown time.Duration
	NoticeBatch    int

	DBDriver   string // sqlite or postgres
	DBPath     string // sqlite file path
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		BotToken:       strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		AllowedAdmins:  parseAdminList(os.Getenv("ALLOWED_ADMINS")),
		EmailDomain:    getEnv("EMAIL_DOMAIN", "fizmat.kz"),
		NoticeCooldown: parseSeconds(os.Getenv("NOTICE_COOLDOWN"), 60*time.Second),
		NoticeBatch:    parseInt(os.Getenv("NOTICE_BATCH"), 20),
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBPath:         getEnv("DB_PATH", "gatekeeper.db"),
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	return cfg, nil
}

// IsOperator reports whether userID may run restricted admin commands.
// An empty allow-list leaves them open.
func (c *Config) IsOperator(userID int64) bool {
	if len(c.AllowedAdmins) == 0 {
		return true
	}
	_, ok := c.AllowedAdmins[userID]
	return ok
}

// parseAdminList parses a comma-separated list of Telegram user IDs,
// skipping anything that is not a number.
func parseAdminList(raw string) map[int64]struct{} {
	admins := make(map[int64]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		admins[id] = struct{}{}
	}
	return admins
}

func parseSeconds(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
