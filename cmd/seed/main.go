package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/JaimeStill/agent-forge/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// EnvDatabaseDSN supplies the connection string when -dsn is not set.
const EnvDatabaseDSN = "DATABASE_DSN"

func main() {
	var (
		dsn   = flag.String("dsn", "", "Database connection string")
		all   = flag.Bool("all", false, "Run all seeders")
		tools = flag.Bool("tools", false, "Seed the tool catalog")
		file  = flag.String("file", "", "External tool seed file (overrides embedded)")
		list  = flag.Bool("list", false, "List available seeders")
	)
	flag.Parse()

	if *list {
		fmt.Println("Available seeders:")
		for _, s := range listSeeders() {
			fmt.Printf("  - %s: %s\n", s.Name(), s.Description())
		}
		return
	}

	if !*all && !*tools {
		fmt.Println("usage: seed [-dsn <connection-string>] [-all|-tools] [-file <path>] [-list]")
		flag.PrintDefaults()
		return
	}

	db, err := open(*dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if *file != "" {
		if s, ok := getSeeder("tools"); ok {
			s.(*ToolSeeder).SetFile(*file)
		}
	}

	selected := listSeeders()
	if !*all {
		s, _ := getSeeder("tools")
		selected = []Seeder{s}
	}

	if err := runSeeders(context.Background(), db, selected...); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	fmt.Printf("%d seeder(s) completed successfully\n", len(selected))
}

// open connects with dsn, falling back to DATABASE_DSN and then to the
// service configuration.
func open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = os.Getenv(EnvDatabaseDSN)
	}
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("no -dsn or %s and config load failed: %w", EnvDatabaseDSN, err)
		}
		cfg.Store = config.StorePostgres
		if err := cfg.Finalize(); err != nil {
			return nil, fmt.Errorf("config finalize failed: %w", err)
		}
		dsn = cfg.Database.Dsn()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}
