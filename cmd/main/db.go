package main

import (
	"database/sql"
	"fmt"
)

// openChainDB opens the SQLite chain artifact at path with the driver chosen
// at build time. The artifact is written by a single import at a time, so one
// connection is enough.
func openChainDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not connect to %s: %w", path, err)
	}
	return db, nil
}
