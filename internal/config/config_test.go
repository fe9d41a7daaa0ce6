package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var envKeys = []string{
	"TELEGRAM_BOT_TOKEN", "DATABASE_PATH", "LOG_LEVEL", "ALLOWED_USERS",
	"OPERATOR_CHAT_ID", "MODERATION_RULES", "COMMENT_CACHE_TTL",
	"RECONCILE_WINDOW_MINUTES", "RECONCILE_EARLY_TOLERANCE_MINUTES",
	"RECONCILE_INTERVAL", "RECONCILE_APPLY", "RECONCILE_RATE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func defaults() *Config {
	return &Config{
		DatabasePath:    "./data/studentpress.db",
		LogLevel:        "info",
		CommentCacheTTL: 10 * time.Minute,
		Reconcile: Reconcile{
			WindowMinutes:         120,
			EarlyToleranceMinutes: 1,
			Interval:              time.Hour,
		},
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    func() *Config
		wantErr bool
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			want: defaults,
		},
		{
			name: "all values set",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":                "tok",
				"DATABASE_PATH":                     "/tmp/sp.db",
				"LOG_LEVEL":                         "debug",
				"ALLOWED_USERS":                     "111,222,333",
				"OPERATOR_CHAT_ID":                  "-1001",
				"MODERATION_RULES":                  "/etc/sp/rules.yaml",
				"COMMENT_CACHE_TTL":                 "1m",
				"RECONCILE_WINDOW_MINUTES":          "60",
				"RECONCILE_EARLY_TOLERANCE_MINUTES": "2.5",
				"RECONCILE_INTERVAL":                "15m",
				"RECONCILE_APPLY":                   "true",
				"RECONCILE_RATE":                    "5",
			},
			want: func() *Config {
				return &Config{
					TelegramBotToken: "tok",
					DatabasePath:     "/tmp/sp.db",
					LogLevel:         "debug",
					AllowedUsers:     []int64{111, 222, 333},
					OperatorChatID:   -1001,
					ModerationRules:  "/etc/sp/rules.yaml",
					CommentCacheTTL:  time.Minute,
					Reconcile: Reconcile{
						WindowMinutes:         60,
						EarlyToleranceMinutes: 2.5,
						Interval:              15 * time.Minute,
						Apply:                 true,
						Rate:                  5,
					},
				}
			},
		},
		{
			name: "allowed users with spaces",
			env:  map[string]string{"ALLOWED_USERS": " 10 , 20 , "},
			want: func() *Config {
				c := defaults()
				c.AllowedUsers = []int64{10, 20}
				return c
			},
		},
		{
			name:    "invalid user id",
			env:     map[string]string{"ALLOWED_USERS": "123,abc"},
			wantErr: true,
		},
		{
			name:    "invalid operator chat",
			env:     map[string]string{"OPERATOR_CHAT_ID": "ops"},
			wantErr: true,
		},
		{
			name:    "zero window",
			env:     map[string]string{"RECONCILE_WINDOW_MINUTES": "0"},
			wantErr: true,
		},
		{
			name:    "negative tolerance",
			env:     map[string]string{"RECONCILE_EARLY_TOLERANCE_MINUTES": "-1"},
			wantErr: true,
		},
		{
			name:    "negative rate",
			env:     map[string]string{"RECONCILE_RATE": "-3"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load("")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want(), got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "studentpress.yaml")
	data := `database_path: /var/lib/sp.db
allowed_users: [7, 8]
reconcile:
  window_minutes: 30
  apply: true
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RECONCILE_WINDOW_MINUTES", "45")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := defaults()
	want.DatabasePath = "/var/lib/sp.db"
	want.AllowedUsers = []int64{7, 8}
	want.Reconcile.WindowMinutes = 45
	want.Reconcile.Apply = true
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestIsUserAllowed(t *testing.T) {
	tests := []struct {
		name    string
		allowed []int64
		userID  int64
		want    bool
	}{
		{"empty list allows all", nil, 999, true},
		{"user in list", []int64{1, 2, 3}, 2, true},
		{"user not in list", []int64{1, 2, 3}, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AllowedUsers: tt.allowed}
			if got := cfg.IsUserAllowed(tt.userID); got != tt.want {
				t.Errorf("IsUserAllowed(%d) = %v, want %v", tt.userID, got, tt.want)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SP_DOTENV_A=from-env\nSP_DOTENV_B=from-env\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env.local"), []byte("SP_DOTENV_A=from-local\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SP_DOTENV_A", "")
	t.Setenv("SP_DOTENV_B", "")
	os.Unsetenv("SP_DOTENV_A")
	os.Unsetenv("SP_DOTENV_B")

	loaded := LoadDotEnv(dir)
	if len(loaded) != 2 {
		t.Fatalf("loaded %v, want both files", loaded)
	}
	if got := os.Getenv("SP_DOTENV_A"); got != "from-local" {
		t.Errorf("SP_DOTENV_A = %q, want from-local", got)
	}
	if got := os.Getenv("SP_DOTENV_B"); got != "from-env" {
		t.Errorf("SP_DOTENV_B = %q, want from-env", got)
	}
}
