package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManagerCreatesAndUpdates(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	path := filepath.Join(dir, "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	cfg := mgr.Get()
	cfg.MaxDebateRounds = 6
	cfg.DefaultPrice = 123.45

	data, _ := json.Marshal(cfg)
	if err := mgr.UpdateFromJSON(string(data)); err != nil {
		t.Fatalf("UpdateFromJSON: %v", err)
	}

	updated := mgr.Get()
	if updated.MaxDebateRounds != 6 {
		t.Fatalf("expected 6 debate rounds, got %d", updated.MaxDebateRounds)
	}
	if updated.DefaultPrice != 123.45 {
		t.Fatalf("expected default price 123.45, got %f", updated.DefaultPrice)
	}
}

func TestManagerRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg := mgr.Get()
	cfg.MaxDebateRounds = 0
	if err := mgr.Update(cfg); err == nil {
		t.Fatalf("expected validation error for zero debate rounds")
	}

	cfg = mgr.Get()
	cfg.DefaultPrice = -1
	if err := mgr.Update(cfg); err == nil {
		t.Fatalf("expected validation error for negative default price")
	}
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan struct{}, 1)
	if err := mgr.Watch(ctx, func(cfg Config) {
		reloaded <- struct{}{}
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	cfg := mgr.Get()
	cfg.MaxDebateRounds = 5

	if err := writeConfigFile(mgr.Path(), cfg); err != nil {
		t.Fatalf("writeConfigFile: %v", err)
	}

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not fire on config change")
	}
}

func TestDailyQuotaByTier(t *testing.T) {
	cfg := &Config{DailyQuotaLite: 10, DailyQuotaBasic: 30, DailyQuotaPro: 100}

	cases := map[string]int{
		"free":    0,
		"lite":    10,
		"basic":   30,
		"pro":     100,
		"unknown": 0,
	}
	for tier, want := range cases {
		if got := cfg.DailyQuota(tier); got != want {
			t.Fatalf("DailyQuota(%s) = %d, want %d", tier, got, want)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MAX_DEBATE_ROUNDS", "7")
	t.Setenv("DEFAULT_PRICE", "250.5")
	t.Setenv("DEEPSEEK_MODEL", "deepseek-reasoner")

	cfg := DefaultConfig()
	if cfg.MaxDebateRounds != 7 {
		t.Fatalf("expected env override for debate rounds, got %d", cfg.MaxDebateRounds)
	}
	if cfg.DefaultPrice != 250.5 {
		t.Fatalf("expected env override for default price, got %f", cfg.DefaultPrice)
	}
	if cfg.DeepSeekModel != "deepseek-reasoner" {
		t.Fatalf("expected env override for deepseek model, got %s", cfg.DeepSeekModel)
	}
}
