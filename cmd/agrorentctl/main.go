package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/farmkit/agrorent/internal/buildinfo"
	"github.com/farmkit/agrorent/internal/config"
	"github.com/farmkit/agrorent/internal/database"
	"github.com/farmkit/agrorent/internal/identity"
)

var rootCmd = &cobra.Command{
	Use:   "agrorentctl",
	Short: "Operator tooling for the AgroRent server.",
	Long: `agrorentctl manages an AgroRent database out of band: provisioning admins,
confirming farmer accounts and loading demo data.

It reads the same environment (or .env file) as the server.`,
	Version:       buildinfo.Summary(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(createAdminCmd, confirmUserCmd, seedCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// env is an open, migrated database plus the identity provider over it
type env struct {
	db       *database.DB
	provider *identity.Provider
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return &env{
		db: db,
		provider: identity.NewProvider(db.DB, nil, identity.Options{
			Secret:                   cfg.JWTSecret,
			RequireEmailConfirmation: cfg.Auth.RequireEmailConfirmation,
		}),
	}, nil
}

func (e *env) Close() error { return e.db.Close() }
