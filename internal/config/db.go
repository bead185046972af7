package config

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Connect opens and pings the MySQL pool described by c.
func Connect(c DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("mysql", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("config: connect database: %w", err)
	}

	// Keep the pool well under MySQL's max_connections; three binaries
	// may share the same server.
	db.SetMaxOpenConns(40)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
