package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sus-party/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

const migrationsDir = "db/migrations"

func main() {
	if _, err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("env file ignored: %v", err)
	}
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manages the match archive schema.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrate()
			if err != nil {
				return err
			}
			if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("database migration failed: %w", err)
			}
			log.Println("database migrations applied")
			return nil
		},
	})
	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return errors.New("--steps must be at least 1")
			}
			m, err := newMigrate()
			if err != nil {
				return err
			}
			if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("database rollback failed: %w", err)
			}
			log.Printf("rolled back %d migration(s)", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	root.AddCommand(down)
	root.AddCommand(&cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty up/down migration pair.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return createMigration(args[0], time.Now().UTC())
		},
	})
	return root
}

func newMigrate() (*migrate.Migrate, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	m, err := migrate.New("file://"+migrationsDir, dsn)
	if err != nil {
		return nil, fmt.Errorf("migration setup failed: %w", err)
	}
	return m, nil
}

func createMigration(name string, now time.Time) error {
	if name == "" {
		return errors.New("migration name is required")
	}
	if strings.ContainsAny(name, " ") {
		return errors.New("migration name must not contain spaces")
	}
	base := fmt.Sprintf("%s_%s", now.Format("20060102150405"), name)
	upPath := filepath.Join(migrationsDir, base+".up.sql")
	downPath := filepath.Join(migrationsDir, base+".down.sql")
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return fmt.Errorf("create migrations dir: %w", err)
	}
	if err := writeFile(upPath, "-- up migration\n"); err != nil {
		return fmt.Errorf("create up migration: %w", err)
	}
	if err := writeFile(downPath, "-- down migration\n"); err != nil {
		return fmt.Errorf("create down migration: %w", err)
	}
	log.Printf("created %s and %s", upPath, downPath)
	return nil
}

func writeFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
