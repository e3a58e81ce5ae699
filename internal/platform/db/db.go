package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Open connects to the Postgres plan archive and verifies the
// connection before returning. Pool limits are sized for the archive's
// write-mostly workload.
func Open(databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open plan archive: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("verify plan archive connection: %w", err)
	}

	return conn, nil
}
