// Command migrate applies the embedded schema migrations to the configured
// PostgreSQL database.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/JaimeStill/agent-forge/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

func main() {
	var (
		url   = flag.String("url", "", "Database URL (defaults to the configured database)")
		down  = flag.Bool("down", false, "Revert all migrations")
		steps = flag.Int("steps", 0, "Apply n migrations (negative reverts)")
		show  = flag.Bool("version", false, "Print the current schema version")
	)
	flag.Parse()

	if *url == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
		cfg.Store = config.StorePostgres
		if err := cfg.Finalize(); err != nil {
			log.Fatalf("config finalize failed: %v", err)
		}
		*url = cfg.Database.URL()
	}

	m, err := newMigrator(*url)
	if err != nil {
		log.Fatalf("migrator init failed: %v", err)
	}
	defer m.Close()

	switch {
	case *show:
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return
		}
		if err != nil {
			log.Fatalf("read version: %v", err)
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		return
	case *down:
		err = m.Down()
	case *steps != 0:
		err = m.Steps(*steps)
	default:
		err = m.Up()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("no change")
		return
	}
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	fmt.Println("migrations applied successfully")
}

func newMigrator(url string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", source, url)
}
