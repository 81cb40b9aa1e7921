package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hampod/speech/internal/cache"
	"github.com/hampod/speech/internal/config"
)

var (
	statLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(16).Render
	statValue = lipgloss.NewStyle().Bold(true).Render
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached phrase",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		manager, cfg, err := openCache()
		if err != nil {
			return err
		}
		defer manager.Cleanup()

		if err := manager.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Println("Cleared speech cache at", cfg.CacheDir)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache usage and hit counters",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		manager, cfg, err := openCache()
		if err != nil {
			return err
		}
		defer manager.Cleanup()

		s := manager.Stats()
		fmt.Println(statLabel("cache dir"), statValue(cfg.CacheDir))
		fmt.Println(statLabel("disk used"), statValue(fmt.Sprintf("%s of %s",
			humanize.IBytes(uint64(s.DiskBytes)), humanize.IBytes(uint64(cfg.CacheDiskLimit)))))
		fmt.Println(statLabel("disk entries"), statValue(fmt.Sprint(s.DiskEntries)))
		fmt.Println(statLabel("codec"), statValue(fmt.Sprint(cfg.Codec)))
		if s.Degraded {
			fmt.Println(statLabel("state"), statValue("degraded (pass-through)"))
		}
		return nil
	},
}

// openCache builds a Manager for the maintenance subcommands. The
// resolved config matters here; the engine and player do not.
func openCache() (*cache.Manager, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	manager, err := cache.New(cfg.CacheConfig(), log.Default())
	if err != nil {
		return nil, cfg, fmt.Errorf("open cache: %w", err)
	}
	return manager, cfg, nil
}
