// Package config handles application configuration from environment variables
// and an optional YAML file.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath     string  `yaml:"database_path"`
	LogLevel         string  `yaml:"log_level"`
	TelegramBotToken string  `yaml:"-"`
	AllowedUsers     []int64 `yaml:"allowed_users"`
	OperatorChatID   int64   `yaml:"operator_chat_id"`
	ModerationRules  string  `yaml:"moderation_rules"`

	CommentCacheTTL time.Duration `yaml:"comment_cache_ttl"`

	Reconcile Reconcile `yaml:"reconcile"`
}

// Reconcile configures the scheduled draft cleanup.
type Reconcile struct {
	WindowMinutes         float64       `yaml:"window_minutes"`
	EarlyToleranceMinutes float64       `yaml:"early_tolerance_minutes"`
	Interval              time.Duration `yaml:"interval"`
	Apply                 bool          `yaml:"apply"`
	Rate                  float64       `yaml:"rate"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_path", "./data/studentpress.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("comment_cache_ttl", 10*time.Minute)
	v.SetDefault("reconcile.window_minutes", 120.0)
	v.SetDefault("reconcile.early_tolerance_minutes", 1.0)
	v.SetDefault("reconcile.interval", time.Hour)
	v.SetDefault("reconcile.apply", false)
	v.SetDefault("reconcile.rate", 0.0)
}

// Load reads configuration from the optional YAML file at path. Environment
// variables override the file: nested keys map to upper-case names joined by
// underscores, so reconcile.window_minutes is RECONCILE_WINDOW_MINUTES.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	allowedUsers, err := userIDs(v.Get("allowed_users"))
	if err != nil {
		return nil, err
	}

	operatorChat := int64(0)
	if raw := strings.TrimSpace(fmt.Sprint(v.Get("operator_chat_id"))); raw != "" && raw != "<nil>" {
		operatorChat, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OPERATOR_CHAT_ID %q: %w", raw, err)
		}
	}

	cfg := &Config{
		DatabasePath:     v.GetString("database_path"),
		LogLevel:         v.GetString("log_level"),
		TelegramBotToken: v.GetString("telegram_bot_token"),
		AllowedUsers:     allowedUsers,
		OperatorChatID:   operatorChat,
		ModerationRules:  v.GetString("moderation_rules"),
		CommentCacheTTL:  v.GetDuration("comment_cache_ttl"),
		Reconcile: Reconcile{
			WindowMinutes:         v.GetFloat64("reconcile.window_minutes"),
			EarlyToleranceMinutes: v.GetFloat64("reconcile.early_tolerance_minutes"),
			Interval:              v.GetDuration("reconcile.interval"),
			Apply:                 v.GetBool("reconcile.apply"),
			Rate:                  v.GetFloat64("reconcile.rate"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabasePath == "":
		return fmt.Errorf("DATABASE_PATH must not be empty")
	case c.Reconcile.WindowMinutes <= 0:
		return fmt.Errorf("RECONCILE_WINDOW_MINUTES must be positive, got %v", c.Reconcile.WindowMinutes)
	case c.Reconcile.EarlyToleranceMinutes < 0:
		return fmt.Errorf("RECONCILE_EARLY_TOLERANCE_MINUTES must not be negative, got %v", c.Reconcile.EarlyToleranceMinutes)
	case c.Reconcile.Interval <= 0:
		return fmt.Errorf("RECONCILE_INTERVAL must be positive, got %v", c.Reconcile.Interval)
	case c.Reconcile.Rate < 0:
		return fmt.Errorf("RECONCILE_RATE must not be negative, got %v", c.Reconcile.Rate)
	case c.CommentCacheTTL < 0:
		return fmt.Errorf("COMMENT_CACHE_TTL must not be negative, got %v", c.CommentCacheTTL)
	}
	return nil
}

// userIDs accepts a comma separated string (environment) or a YAML list.
func userIDs(raw any) ([]int64, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return parseUserIDs(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return parseUserIDs(strings.Join(parts, ","))
	default:
		return parseUserIDs(fmt.Sprint(v))
	}
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		uid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
		}
		ids = append(ids, uid)
	}
	return ids, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
