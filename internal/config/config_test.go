package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Setenv("HAMPOD_TTS_CACHE_DIR", "")
	t.Setenv("HAMPOD_TTS_ENGINE", "")
	t.Setenv("HAMPOD_TTS_MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Engine != "piper" {
		t.Errorf("engine = %q, want piper", cfg.Engine)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", cfg.SampleRate)
	}
	if !strings.Contains(cfg.CacheDir, "hampod") {
		t.Errorf("cache dir %q missing hampod component", cfg.CacheDir)
	}
	if cfg.CacheRAMLimit <= 0 || cfg.CacheDiskLimit <= 0 {
		t.Error("default limits must be positive")
	}
}

func TestLoad_ConfigFileOverlay(t *testing.T) {
	viper.Reset()
	t.Setenv("HAMPOD_TTS_CACHE_DIR", "")
	t.Setenv("HAMPOD_TTS_ENGINE", "")
	t.Setenv("HAMPOD_TTS_MODEL", "")

	viper.Set("speech.engine", "mock")
	viper.Set("speech.cache.ram_limit", 1234)
	viper.Set("speech.cache.codec", true)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Engine != "mock" {
		t.Errorf("engine = %q, want mock", cfg.Engine)
	}
	if cfg.CacheRAMLimit != 1234 {
		t.Errorf("ram limit = %d, want 1234", cfg.CacheRAMLimit)
	}
	if !cfg.Codec {
		t.Error("codec setting not applied")
	}
	// Untouched keys keep their defaults.
	if cfg.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want default 16000", cfg.SampleRate)
	}
}

func TestLoad_EnvironmentWins(t *testing.T) {
	viper.Reset()
	viper.Set("speech.engine", "piper")
	viper.Set("speech.cache.dir", "/tmp/from-file")

	t.Setenv("HAMPOD_TTS_CACHE_DIR", "/tmp/from-env")
	t.Setenv("HAMPOD_TTS_ENGINE", "mock")
	t.Setenv("HAMPOD_TTS_MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.CacheDir != "/tmp/from-env" {
		t.Errorf("cache dir = %q, want the environment value", cfg.CacheDir)
	}
	if cfg.Engine != "mock" {
		t.Errorf("engine = %q, want the environment value", cfg.Engine)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"mock engine", func(c *Config) { c.Engine = "mock" }, true},
		{"unknown engine", func(c *Config) { c.Engine = "espeak" }, false},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }, false},
		{"negative ram limit", func(c *Config) { c.CacheRAMLimit = -1 }, false},
		{"empty cache dir", func(c *Config) { c.CacheDir = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate = %v, want nil", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate = nil, want error")
			}
		})
	}
}

func TestConfig_CacheConfig(t *testing.T) {
	cfg := Default()
	cfg.CacheDir = "/var/cache/hampod/tts"
	cfg.Codec = true

	cc := cfg.CacheConfig()
	if cc.Dir != cfg.CacheDir {
		t.Errorf("dir = %q, want %q", cc.Dir, cfg.CacheDir)
	}
	if cc.RAMLimit != cfg.CacheRAMLimit || cc.DiskLimit != cfg.CacheDiskLimit {
		t.Error("limits not carried over")
	}
	if !cc.Codec {
		t.Error("codec not carried over")
	}
}
