package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/app"
	"github.com/nhle/vanta/internal/credential"
	"github.com/nhle/vanta/internal/keys"
	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/query"
	"github.com/nhle/vanta/internal/session"
	"github.com/nhle/vanta/internal/store"
	appsync "github.com/nhle/vanta/internal/sync"
	"github.com/nhle/vanta/internal/theme"
	"github.com/nhle/vanta/internal/ui"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *model.AppConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vanta",
	Short: "Vanta - job search assistant in the terminal",
	Long: `Vanta tracks job applications on a kanban board, surfaces matching
postings, and keeps notifications, tasks and resumes in one place.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine.
		_ = godotenv.Load()

		var err error
		cfg, err = model.LoadConfig(configPath)
		if err != nil {
			return err
		}
		theme.Use(cfg.Display.Theme)

		logger, err = buildLogger(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildLogger writes JSON logs to the configured file; the terminal
// belongs to the UI.
func buildLogger(lc model.LogConfig) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(lc.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{lc.Path}
	config.ErrorOutputPaths = []string{lc.Path}
	if verbose || lc.Level == "debug" {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

// services are the long-lived collaborators shared by the CLI commands
// and the interactive UI.
type services struct {
	client  *api.Client
	session *session.Manager
}

func newServices() (*services, error) {
	creds, err := credential.Open(model.ConfigDir())
	if err != nil {
		return nil, err
	}
	client := api.NewClient(cfg.API.BaseURL, api.WithLogger(logger))
	sess := session.NewManager(creds, client, logger)
	if _, err := sess.Restore(); err != nil {
		// A broken keyring entry means signing in again.
		logger.Warn("restoring session failed", zap.Error(err))
	}
	return &services{client: client, session: sess}, nil
}

// runInteractive starts the terminal UI.
func runInteractive() error {
	svc, err := newServices()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := store.NewSQLiteStore(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	cache := query.New(query.Options{
		Timeout:   cfg.Timeout(),
		StaleTime: cfg.StaleTime(),
		Retries:   cfg.API.Retries,
	}, logger.Named("query"))

	poller := appsync.New(svc.client, svc.session, db, cfg.PollInterval(), logger.Named("sync"))
	defer poller.Stop()

	env := &ui.Env{
		Client:  svc.client,
		Cache:   cache,
		Session: svc.session,
		Store:   db,
		Keys:    keys.DefaultKeyMap(),
		Logger:  logger,
	}

	logger.Info("starting", zap.String("base_url", cfg.API.BaseURL), zap.Bool("signed_in", svc.session.SignedIn()))
	p := tea.NewProgram(app.New(env, poller), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), cfg.Timeout())
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
