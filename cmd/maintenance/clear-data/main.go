package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/smarttransit/rail-booking-core/internal/config"
	"github.com/smarttransit/rail-booking-core/internal/database"
	"github.com/smarttransit/rail-booking-core/internal/models"
)

// Clears all tickets and payments and restores every trip to full capacity.
// Schedule data (stations, routes, trains, trips) is kept.
func main() {
	var dbURLFlag string
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	// Build minimal database config without loading full app config
	dbCfg := config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("Connected to database. Clearing bookings...")

	tx, err := db.Beginx()
	if err != nil {
		log.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`TRUNCATE TABLE payments, tickets`); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	res, err := tx.Exec(fmt.Sprintf(`
		UPDATE trips t
		SET seats_available = LEAST(tr.seat_capacity, %d), updated_at = NOW()
		FROM trains tr
		WHERE tr.id = t.train_id`, models.MaxSellableSeats))
	if err != nil {
		log.Fatalf("failed to reset seat counters: %v", err)
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("failed to commit: %v", err)
	}

	reset, _ := res.RowsAffected()
	fmt.Printf("Bookings cleared, %d trips restored to full capacity.\n", reset)

	// Verify by printing row counts for each table
	tables := []string{"tickets", "payments", "trips"}

	fmt.Println("Post-clear row counts:")
	for _, t := range tables {
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&count); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}
