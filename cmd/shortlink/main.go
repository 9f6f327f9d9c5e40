package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/shortlink/internal/app"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/pkg/postgres"
)

const defaultConfigPath = "configs/local.yml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "shortlink",
		Short:         "URL shortening service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the config file (default $CONFIG_PATH or "+defaultConfigPath+")")

	loadConfig := func() (*config.Config, error) {
		path := configPath
		if path == "" {
			path = os.Getenv("CONFIG_PATH")
		}
		if path == "" {
			path = defaultConfigPath
		}
		return config.Load(path)
	}

	root.AddCommand(
		newServeCmd(loadConfig),
		newMigrateCmd(loadConfig),
		newSweepCmd(loadConfig),
	)

	return root
}

type configLoader func() (*config.Config, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the retention sweeper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			return app.Run(cmd.Context(), cfg, app.NewLogger(cfg, os.Stdout))
		},
	}
}

func newMigrateCmd(load configLoader) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			if err := postgres.RunMigrations(cfg.MigrationsPath, cfg.Postgres.DSN()); err != nil {
				return err
			}

			return printVersion(cmd, cfg)
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Revert migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			if err := postgres.RollbackMigrations(cfg.MigrationsPath, cfg.Postgres.DSN(), steps); err != nil {
				return err
			}

			return printVersion(cmd, cfg)
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert, 0 reverts all")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			return printVersion(cmd, cfg)
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)

	return migrateCmd
}

func printVersion(cmd *cobra.Command, cfg *config.Config) error {
	version, dirty, err := postgres.MigrationVersion(cfg.MigrationsPath, cfg.Postgres.DSN())
	if err != nil {
		return err
	}

	cmd.Printf("schema version %d (dirty: %t)\n", version, dirty)

	return nil
}

func newSweepCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete never-visited URLs and inactive sessions past their retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			res, err := app.Sweep(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			cmd.Printf("removed %d urls and %d sessions\n", res.URLs, res.Sessions)

			return nil
		},
	}
}
