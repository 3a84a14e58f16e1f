package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"
)

func main() {
	direction := flag.String("cmd", "up", "migration direction [up | down]")
	migrationsPath := flag.String("migrations", "./migrations", "path to the migrations directory")
	flag.Parse()

	dbURL := os.Getenv("FITMATE_DB_URL")
	if dbURL == "" {
		dbURL = "postgres://postgres@localhost:5432/fitmate?sslmode=disable"
		log.Warnf("FITMATE_DB_URL not set, using default: %s", dbURL)
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", *migrationsPath), dbURL)
	if err != nil {
		log.Fatalf("new migrate: %s", err)
	}

	switch *direction {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migrate up: %s", err)
		}
		log.Println("migration up done")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migrate down: %s", err)
		}
		log.Println("migration down done")
	default:
		log.Fatalf("unknown migration direction: %s", *direction)
	}

	version, dirty, err := m.Version()
	if err != nil {
		log.Warnf("failed to get schema version: %s", err)
		return
	}
	log.Printf("db schema at version %d (dirty: %t)", version, dirty)
}
