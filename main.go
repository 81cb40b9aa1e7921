// Package main provides the entry point for the hampod speech CLI.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/hampod/speech/internal/audio"
	"github.com/hampod/speech/internal/cache"
	"github.com/hampod/speech/internal/config"
	"github.com/hampod/speech/internal/speech"
	"github.com/hampod/speech/internal/synth"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	engineName string
	cacheDir   string
	useCodec   bool
	noAudio    bool

	keyword = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render

	paragraph = lipgloss.NewStyle().Width(78).Padding(0, 0, 0, 2).Render

	rootCmd = &cobra.Command{
		Use:   "hampod-speech [TEXT...]",
		Short: "Speak phrases through the cached TTS pipeline",
		Long: paragraph(
			fmt.Sprintf("\nSpeak phrases with %s: repeated announcements replay instantly from the two-tier audio cache instead of being re-synthesized.", keyword("cached synthesis")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		RunE:             execute,
	}
)

func execute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(args) == 0 && term.IsTerminal(int(os.Stdin.Fd())) {
		return cmd.Help()
	}

	speaker, err := buildSpeaker(cfg)
	if err != nil {
		return err
	}
	defer speaker.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First interrupt cuts the utterance off; a second one quits.
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		speaker.Interrupt()
		<-sig
		cancel()
	}()

	if len(args) > 0 {
		return speakOne(ctx, speaker, strings.Join(args, " "))
	}

	// Phrases stream in on stdin, one per line, the way the firmware
	// front panel feeds announcements.
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := speakOne(ctx, speaker, line); err != nil {
			return err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return scanner.Err() //nolint:wrapcheck
}

func speakOne(ctx context.Context, speaker *speech.Speaker, text string) error {
	outcome, err := speaker.Speak(ctx, text)
	switch {
	case err == nil:
	case errors.Is(err, speech.ErrInterrupted):
		log.Debug("utterance interrupted", "text", text)
		return nil
	default:
		return fmt.Errorf("speak %q: %w", text, err)
	}
	log.Debug("spoke", "text", text, "outcome", outcome)
	return nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err //nolint:wrapcheck
	}

	// Flags win over both the config file and the environment.
	if engineName != "" {
		cfg.Engine = engineName
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	if useCodec {
		cfg.Codec = true
	}
	if debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	return cfg, cfg.Validate()
}

func buildSpeaker(cfg config.Config) (*speech.Speaker, error) {
	manager, err := cache.New(cfg.CacheConfig(), log.Default())
	if err != nil {
		// Degraded pass-through: every phrase synthesizes fresh.
		log.Warn("running without cache", "error", err)
	}

	var engine synth.Engine
	switch cfg.Engine {
	case "mock":
		engine = &synth.Mock{}
	default:
		engine, err = synth.NewPiper(synth.PiperConfig{
			Binary:     cfg.PiperBinary,
			Model:      cfg.PiperModel,
			SampleRate: cfg.SampleRate,
		}, log.Default())
		if err != nil {
			return nil, fmt.Errorf("configure engine: %w", err)
		}
	}

	var player audio.Player
	if noAudio {
		player = &audio.MockPlayer{}
	} else {
		player, err = audio.NewSpeaker(cfg.SampleRate)
		if err != nil {
			log.Warn("audio device unavailable, discarding output", "error", err)
			player = &audio.MockPlayer{}
		}
	}

	return speech.New(manager, engine, player, log.Default()), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&engineName, "engine", "e", "", "synthesis engine (piper/mock)")
	rootCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "cache directory override")
	rootCmd.Flags().BoolVar(&useCodec, "codec", false, "store cached audio mu-law compacted")
	rootCmd.Flags().BoolVar(&noAudio, "no-audio", false, "synthesize and cache without playing")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(clearCmd, statsCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	config.SetViperDefaults()

	scope := gap.NewScope(gap.User, "hampod")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "hampod")}, dirs...)
	}
	if c := os.Getenv("HAMPOD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("speech")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("hampod")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}
	configFile = filepath.Join(dirs[0], "speech.yml")
}
