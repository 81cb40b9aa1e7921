// Package config resolves the speech daemon's settings from defaults,
// the config file, and environment variables, in that order.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/hampod/speech/internal/cache"
	"github.com/hampod/speech/internal/synth"
)

// Config is the fully resolved configuration.
type Config struct {
	// Engine selects the synthesis backend: "piper" or "mock".
	Engine string

	// PiperBinary and PiperModel configure the piper engine.
	PiperBinary string
	PiperModel  string

	// SampleRate for synthesis and playback.
	SampleRate int

	// CacheDir is the disk tier root.
	CacheDir string

	// CacheRAMLimit and CacheDiskLimit are the tier byte budgets.
	CacheRAMLimit  int64
	CacheDiskLimit int64

	// Codec enables mu-law compaction of cached audio.
	Codec bool

	// Compression enables zstd for raw PCM disk entries.
	Compression bool

	// Debug turns on debug logging.
	Debug bool
}

// envOverrides are the environment variables that win over the config
// file. HAMPOD_TTS_CACHE_DIR matches what the rest of the device
// firmware honors.
type envOverrides struct {
	CacheDir string `env:"HAMPOD_TTS_CACHE_DIR"`
	Engine   string `env:"HAMPOD_TTS_ENGINE"`
	Model    string `env:"HAMPOD_TTS_MODEL"`
	Debug    bool   `env:"HAMPOD_DEBUG"`
}

// Default returns the baseline configuration.
func Default() Config {
	c := cache.DefaultConfig()
	return Config{
		Engine:         "piper",
		SampleRate:     synth.DefaultSampleRate,
		CacheDir:       DefaultCacheDir(),
		CacheRAMLimit:  c.RAMLimit,
		CacheDiskLimit: c.DiskLimit,
		Codec:          c.Codec,
		Compression:    c.Compression,
	}
}

// DefaultCacheDir is ~/.cache/hampod/tts, falling back to a relative
// path when the home directory cannot be resolved.
func DefaultCacheDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".cache", "hampod", "tts")
	}
	return filepath.Join(home, ".cache", "hampod", "tts")
}

// SetViperDefaults registers every key with its default so the config
// subcommand can print a complete template.
func SetViperDefaults() {
	d := Default()
	viper.SetDefault("speech.engine", d.Engine)
	viper.SetDefault("speech.sample_rate", d.SampleRate)
	viper.SetDefault("speech.piper.binary", "")
	viper.SetDefault("speech.piper.model", "")
	viper.SetDefault("speech.cache.dir", d.CacheDir)
	viper.SetDefault("speech.cache.ram_limit", d.CacheRAMLimit)
	viper.SetDefault("speech.cache.disk_limit", d.CacheDiskLimit)
	viper.SetDefault("speech.cache.codec", d.Codec)
	viper.SetDefault("speech.cache.compression", d.Compression)
}

// Load resolves the configuration: defaults, then whatever the config
// file sets, then environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if viper.IsSet("speech.engine") {
		cfg.Engine = viper.GetString("speech.engine")
	}
	if viper.IsSet("speech.sample_rate") {
		cfg.SampleRate = viper.GetInt("speech.sample_rate")
	}
	if viper.IsSet("speech.piper.binary") {
		cfg.PiperBinary = viper.GetString("speech.piper.binary")
	}
	if viper.IsSet("speech.piper.model") {
		cfg.PiperModel = viper.GetString("speech.piper.model")
	}
	if viper.IsSet("speech.cache.dir") {
		cfg.CacheDir = viper.GetString("speech.cache.dir")
	}
	if viper.IsSet("speech.cache.ram_limit") {
		cfg.CacheRAMLimit = viper.GetInt64("speech.cache.ram_limit")
	}
	if viper.IsSet("speech.cache.disk_limit") {
		cfg.CacheDiskLimit = viper.GetInt64("speech.cache.disk_limit")
	}
	if viper.IsSet("speech.cache.codec") {
		cfg.Codec = viper.GetBool("speech.cache.codec")
	}
	if viper.IsSet("speech.cache.compression") {
		cfg.Compression = viper.GetBool("speech.cache.compression")
	}
	if viper.IsSet("debug") {
		cfg.Debug = viper.GetBool("debug")
	}

	overrides, err := env.ParseAs[envOverrides]()
	if err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	if overrides.CacheDir != "" {
		cfg.CacheDir = overrides.CacheDir
	}
	if overrides.Engine != "" {
		cfg.Engine = overrides.Engine
	}
	if overrides.Model != "" {
		cfg.PiperModel = overrides.Model
	}
	if overrides.Debug {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	switch c.Engine {
	case "piper", "mock":
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.CacheRAMLimit <= 0 || c.CacheDiskLimit <= 0 {
		return fmt.Errorf("cache limits must be positive")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache directory is required")
	}
	return nil
}

// CacheConfig maps the resolved settings onto the cache's knobs.
func (c Config) CacheConfig() cache.Config {
	return cache.Config{
		Dir:         c.CacheDir,
		RAMLimit:    c.CacheRAMLimit,
		DiskLimit:   c.CacheDiskLimit,
		Codec:       c.Codec,
		Compression: c.Compression,
	}
}
