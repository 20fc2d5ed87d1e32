package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cthucoin/indexer/internal/checkpoint"
	"github.com/cthucoin/indexer/internal/common"
	"github.com/cthucoin/indexer/internal/config"
	"github.com/cthucoin/indexer/internal/indexer"
	"github.com/cthucoin/indexer/internal/logger"
	"github.com/cthucoin/indexer/internal/store/firestore"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║          CthuCoin Indexer v%s          ║
║    Launchpad / Farm / Leaderboard sync    ║
╚═══════════════════════════════════════════╝
`
)

var (
	configPath string
	envFile    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "CthuCoin event indexer",
	Long: `The CthuCoin indexer subscribes to launchpad, farm and leaderboard
contract events and mirrors them into the site's document store.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runIndexer,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "path to a dotenv file with overrides")
}

func runIndexer(cmd *cobra.Command, args []string) error {
	fmt.Printf(banner, version)

	cfg, err := config.Load(resolveConfigPath(cmd.Flags().Changed("config"), configPath), envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger.SetDefaultLogger(log)
	defer func() { _ = log.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Infof("received %s, shutting down gracefully...", sig)
		cancel()
	}()

	log.Infof("connecting to document store (project %s)...", cfg.Store.ProjectID)
	st, err := firestore.New(ctx, cfg.Store.ProjectID, cfg.Store.CredentialsFile)
	if err != nil {
		return fmt.Errorf("failed to create document store client: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warnf("failed to close document store client: %v", err)
		}
	}()

	var checkpoints *checkpoint.Store
	if cfg.Checkpoint.Enabled() {
		checkpoints, err = checkpoint.Open(cfg.Checkpoint.Path, log.WithComponent(common.ComponentCheckpoint))
		if err != nil {
			return fmt.Errorf("failed to open checkpoint db: %w", err)
		}
		defer func() {
			if err := checkpoints.Close(); err != nil {
				log.Warnf("failed to close checkpoint db: %v", err)
			}
		}()
		log.Infof("checkpointing to %s", cfg.Checkpoint.Path)
	} else {
		log.Warn("checkpointing disabled, restarts will index from the current head")
	}

	orch := indexer.New(cfg, st, checkpoints, log)
	if err := orch.Run(ctx); err != nil {
		return fmt.Errorf("indexer failed: %w", err)
	}

	log.Info("indexer stopped")
	return nil
}

// resolveConfigPath drops the default config path when no such file
// exists, so env-only deployments run with no flags at all. A path the
// operator asked for explicitly stays mandatory.
func resolveConfigPath(changed bool, path string) string {
	if changed {
		return path
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ""
	}
	return path
}
