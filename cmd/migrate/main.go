package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/config"
)

const versionTimeFormat = "20060102150405"

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{Use: "migrate"}
	rootCmd.AddCommand(createCommand(), upCommand())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "create an empty up/down SQL migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			version := time.Now().Format(versionTimeFormat)
			up := fmt.Sprintf("%s/%s_%s.up.sql", cfg.MigrationsDir, version, args[0])
			down := fmt.Sprintf("%s/%s_%s.down.sql", cfg.MigrationsDir, version, args[0])
			if err := os.WriteFile(up, []byte{}, 0644); err != nil {
				return err
			}
			if err := os.WriteFile(down, []byte{}, 0644); err != nil {
				return err
			}
			fmt.Println("created", up)
			fmt.Println("created", down)
			return nil
		},
	}
}

func upCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "migrate all the way up",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			m, err := migrate.New(
				fmt.Sprintf("file://%s", cfg.MigrationsDir),
				pgxURL(cfg.PostgresDSN),
			)
			if err != nil {
				return err
			}
			err = m.Up()
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("no change")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println("migrated up")
			return nil
		},
	}
}

// pgxURL rewrites a postgres:// DSN to the scheme the pgx migrate driver expects.
func pgxURL(dsn string) string {
	return "pgx5://" + strings.TrimPrefix(strings.TrimPrefix(dsn, "postgres://"), "postgresql://")
}
