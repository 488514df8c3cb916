package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"easybingo/config"
	"easybingo/locale"
	"easybingo/shutdown"
	"easybingo/store"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "easybingo",
	Short:         "Bingo cards and a live tombola session that listens for called numbers",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `EasyBingo generates tombola cards, keeps them in a collection, and runs a
game session that marks called numbers heard on the microphone or typed in,
announcing every Terno, Quine and Bingo as it happens.`,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("data-dir", "", "directory holding saved cards (default: config dir)")
	pf.String("log-path", "", "log directory (default: OS-specific location)")
	pf.String("locale", "", "language: en-US or fr-FR")
	pf.String("theme", "", "colour theme: dark or light")
	pf.String("store", "", "card store: file or redis")
	pf.String("redis-addr", "", "redis address for --store=redis")
	pf.String("redis-key", "", "redis key holding the cards")
}

func Execute() {
	ctx, stop := shutdown.Context(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves settings for cmd. The returned dir is where
// config.yaml lives.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(dir, cmd.Flags())
	if err != nil {
		return nil, "", err
	}
	return cfg, dir, nil
}

// openStore returns the configured card store and a func releasing it.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store {
	case "redis":
		r, err := store.DialRedis(ctx, cfg.RedisAddr, cfg.RedisKey)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	default:
		return store.NewFile(cfg.DataDir), func() {}, nil
	}
}

func loadCards(cmd *cobra.Command) (*config.Config, store.Store, func(), error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	st, closeStore, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open card store: %w", err)
	}
	return cfg, st, closeStore, nil
}

func localizer(cfg *config.Config) *locale.Localizer {
	return locale.New(cfg.Locale)
}
