// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for Vaultik using the
// Cobra library. It defines the root command, subcommands (status, verify,
// maintain, export) and the main entry point for execution. Running without
// a subcommand launches the interactive TUI.

package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mirekst/vaultik/buildvars"
	"github.com/mirekst/vaultik/internal/backend"
	"github.com/mirekst/vaultik/internal/config"
	"github.com/mirekst/vaultik/internal/db"
	"github.com/mirekst/vaultik/internal/i18n"
	"github.com/mirekst/vaultik/internal/logging"
	"github.com/mirekst/vaultik/internal/tui"
)

var (
	cfgFile string
	cfg     config.Config
)

// main is the entry point of the application.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

// newRootCmd creates and configures a new root cobra command. This function
// is used for the main application command as well as fresh instances for
// isolated testing.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vaultik",
		Short: "Vaultik is a local, encrypted password vault.",
		Long: `Vaultik keeps your passwords in a locally encrypted vault,
unlocked by a single master password. Secrets are encrypted with a key
derived from the master password and never leave the machine.

Running without a subcommand will launch the interactive TUI.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var explicit *string
			if cfgFile != "" {
				explicit = &cfgFile
			}
			loaded, err := config.LoadConfig[config.Config](cmd, config.Defaults(), explicit)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg = loaded
			logging.SetDebug(cfg.Debug)
			i18n.Init(cfg.Language)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, closeFn, err := openGateway()
			if err != nil {
				return err
			}
			defer closeFn()
			return tui.NewApp(gw, cfg).Run()
		},
	}

	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newMaintainCmd())
	cmd.AddCommand(newExportCmd())

	cmd.Version = buildvars.VersionOrDefault("dev")

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is vaultik.yaml in the user config dir)")
	cmd.PersistentFlags().String("db.type", "", `database type ("sqlite", "postgres", "mysql", "memory")`)
	cmd.PersistentFlags().String("db.dsn", "", "database connection string (DSN)")
	cmd.PersistentFlags().String("language", "", `UI language ("en", "de")`)
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	return cmd
}

// openGateway builds the backend gateway selected by the configuration.
// The returned close function releases the underlying store.
func openGateway() (backend.Gateway, func(), error) {
	if cfg.DB.Type == "memory" {
		return backend.NewMemoryGateway(), func() {}, nil
	}

	store, err := db.Open(cfg.DB.Type, cfg.DB.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open vault database: %w", err)
	}
	store.SetSessionTTL(cfg.Session.TTL())
	gw := db.NewStoreGateway(store)
	return gw, func() { _ = store.Close() }, nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

// newStatusCmd reports whether the vault database is reachable and set up.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show vault database status",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.Open(cfg.DB.Type, cfg.DB.DSN)
			if err != nil {
				return fmt.Errorf("failed to open vault database: %w", err)
			}
			defer store.Close()

			needs, err := store.NeedsSetup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("database: %s (%s)\n", cfg.DB.Type, cfg.DB.DSN)
			if needs {
				fmt.Println("state:    not initialized (no master password set)")
			} else {
				fmt.Println("state:    initialized")
			}
			return nil
		},
	}
}

// newVerifyCmd checks a master password against the stored verifier.
func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify the master password",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.Open(cfg.DB.Type, cfg.DB.DSN)
			if err != nil {
				return fmt.Errorf("failed to open vault database: %w", err)
			}
			defer store.Close()

			master, err := promptPassword("Master password: ")
			if err != nil {
				return err
			}
			ok, token, err := store.VerifyMaster(cmd.Context(), master)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("master password: mismatch")
				os.Exit(1)
			}
			_ = store.EndSession(cmd.Context(), token)
			fmt.Println("master password: ok")
			return nil
		},
	}
}

// newMaintainCmd runs storage-engine maintenance on the vault database.
func newMaintainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maintain",
		Short: "Run database maintenance (vacuum, optimize)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.RunMaintenance(cfg.DB.Type, cfg.DB.DSN); err != nil {
				return fmt.Errorf("maintenance failed: %w", err)
			}
			fmt.Println("maintenance completed")
			return nil
		},
	}
}
