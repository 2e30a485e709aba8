// Package cli contains the reportctl commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/modules/admin/services"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/modules/admin/store"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/shared/config"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/shared/utils"
)

// Version is the current version of reportctl
var Version = "0.1.0"

// globalFlags override the matching config values when set
type globalFlags struct {
	store      string
	sqlitePath string
	seedFile   string
	logLevel   string
}

// NewRootCmd builds the reportctl command tree
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "reportctl",
		Short: "Offline access to the admin reporting engine",
		Long: `reportctl runs the admin reporting engine without the HTTP server.

It reads the same configuration as admin-api (environment, .env and the
optional ADMIN_CONFIG YAML file). --store and --seed-file override it.

Examples:
  reportctl report --range 7d                      # Full dashboard report as JSON
  reportctl report --range 30d --section users     # One section only
  reportctl export --entity users --format xlsx    # Write users_export_<ts>.xlsx
  reportctl seed --users 500 -o seed.json          # Demo dataset as JSON
  reportctl --store memory --seed-file seed.json report
  reportctl --store sqlite --sqlite-path admin.db --seed-file seed.json report`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.store, "store", "", "Store driver override: postgres | sqlite | memory")
	root.PersistentFlags().StringVar(&g.sqlitePath, "sqlite-path", "", "Database file for the sqlite store")
	root.PersistentFlags().StringVar(&g.seedFile, "seed-file", "", "JSON dataset for the memory store or an empty sqlite store")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level override")

	root.AddCommand(newReportCmd(g), newExportCmd(g), newSeedCmd(g))
	return root
}

// Execute runs the command tree and exits non-zero on error
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (g *globalFlags) config() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil && g.store == "" {
		return nil, err
	}
	if err != nil {
		// the override may fix what failed validation, e.g. no DATABASE_URL
		// with --store memory
		cfg = config.Defaults()
	}

	if g.store != "" {
		cfg.StoreDriver = g.store
	}
	if g.sqlitePath != "" {
		cfg.SQLitePath = g.sqlitePath
	}
	if g.seedFile != "" {
		cfg.SeedFile = g.seedFile
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	utils.InitLogger(cfg.LogLevel, cfg.Env)
	return cfg, nil
}

// engine is an opened store plus the services built on it
type engine struct {
	cfg     *config.Config
	store   *store.Store
	reports *services.ReportService
}

func (g *globalFlags) open(ctx context.Context) (*engine, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reports := services.NewReportService(st.Repo, services.ReportOptions{
		Timeout: cfg.ReportTimeout,
		Section: services.SectionOptions{TopN: cfg.TopN, SampleSize: cfg.SampleSize},
		Pinger:  st.Pinger,
	})

	return &engine{cfg: cfg, store: st, reports: reports}, nil
}

func (e *engine) Close() error {
	return e.store.Close()
}
