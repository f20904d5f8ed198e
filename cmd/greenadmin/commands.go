package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aussiebroadwan/greenadmin/internal/admin/app"
)

// Flag keys bound into viper. Flags override the environment.
const (
	keyEnvFile  = "env-file"
	keyLogLevel = "log-level"
	keyDriver   = "db-driver"
	keyDSN      = "db-dsn"
	keySeedFile = "seed-file"
	keyForce    = "force"
	keyActor    = "actor"
	keyOutput   = "output"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:          "greenadmin",
		Short:        "Identity administration: clients, scopes, resources, users and roles",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringSlice(keyEnvFile, []string{".env"}, "dotenv files loaded before reading the environment")
	pf.String(keyLogLevel, "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	pf.String(keyDriver, "", "database driver (sqlite, mysql); overrides DATABASE_DRIVER")
	pf.String(keyDSN, "", "database DSN; overrides DATABASE_DSN")
	pf.String(keySeedFile, "", "seed file (yaml, json, toml); overrides SEED_FILE")
	for _, k := range []string{keyEnvFile, keyLogLevel, keyDriver, keyDSN, keySeedFile} {
		if err := v.BindPFlag(k, pf.Lookup(k)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(newServeCmd(v), newSeedCmd(v), newMigrateCmd(v), newExportCmd(v))
	return root
}

// loadConfig reads dotenv files and the environment, then applies flags.
func loadConfig(v *viper.Viper) (app.Config, error) {
	if err := app.LoadDotEnv(v.GetStringSlice(keyEnvFile)...); err != nil {
		return app.Config{}, fmt.Errorf("load env files: %w", err)
	}

	cfg := app.LoadConfig()
	if s := v.GetString(keyLogLevel); s != "" {
		cfg.LogLevel = s
	}
	if s := v.GetString(keyDriver); s != "" {
		cfg.DatabaseDriver = s
	}
	if s := v.GetString(keyDSN); s != "" {
		cfg.DatabaseDSN = s
	}
	if s := v.GetString(keySeedFile); s != "" {
		cfg.SeedFile = s
	}
	return cfg, nil
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API",
		Long: `Run the admin JSON API with health and metrics endpoints. When
SEED_ON_STARTUP is true the seed file is applied before the server listens.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			a, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return a.Run()
		},
	}
}

func newSeedCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [file]",
		Short: "Seed the store from a seed file",
		Long: `Seed every section of the seed file in dependency order. Kinds that
already hold entities are skipped unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if s := v.GetString(keyActor); s != "" {
				cfg.SeedActor = s
			}

			a, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer func() { _ = a.Close() }()

			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			results, err := a.Seed(ctx, path, v.GetBool(keyForce) || cfg.SeedForce)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}

	cmd.Flags().Bool(keyForce, false, "seed kinds that already hold entities")
	cmd.Flags().String(keyActor, "", "actor recorded for the seeding pass; overrides SEED_ACTOR")
	_ = v.BindPFlag(keyForce, cmd.Flags().Lookup(keyForce))
	_ = v.BindPFlag(keyActor, cmd.Flags().Lookup(keyActor))
	return cmd
}

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			// New applies migrations while opening the store.
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			return a.Close()
		},
	}
}

func newExportCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the store as a YAML seed file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			out := cmd.OutOrStdout()
			if path := v.GetString(keyOutput); path != "" && path != "-" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				out = f
			}
			return a.Export(cmd.Context(), out)
		},
	}

	cmd.Flags().StringP(keyOutput, "o", "-", "output file, - for stdout")
	_ = v.BindPFlag(keyOutput, cmd.Flags().Lookup(keyOutput))
	return cmd
}
