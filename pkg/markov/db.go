package markov

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// SetupSchema initializes the tables used to hold a chain store in the
// provided database. It is idempotent and safe to call on an
// already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaEntities = `
CREATE TABLE IF NOT EXISTS markov_entities (
    entity_id INTEGER PRIMARY KEY,
    entity_name TEXT NOT NULL UNIQUE
);
`
		schemaLinks = `
CREATE TABLE IF NOT EXISTS markov_links (
    entity_id INTEGER NOT NULL,
    word TEXT NOT NULL,
    position INTEGER NOT NULL,
    next_word TEXT NOT NULL,
    PRIMARY KEY (entity_id, word, position)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaEntities); err != nil {
		return fmt.Errorf("could not create entities schema: %w", err)
	}

	if _, err = tx.Exec(schemaLinks); err != nil {
		return fmt.Errorf("could not create links schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Save replaces the contents of the database with the store. The whole
// operation runs in a single transaction, so readers either see the previous
// store or the new one.
func (s *Store) Save(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for save: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM markov_links"); err != nil {
		return fmt.Errorf("failed to clear links: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM markov_entities"); err != nil {
		return fmt.Errorf("failed to clear entities: %w", err)
	}

	stmtInsertEntity, err := tx.PrepareContext(ctx, `INSERT INTO markov_entities (entity_name) VALUES (?) RETURNING entity_id;`)
	if err != nil {
		return fmt.Errorf("failed to prepare entity insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertEntity)

	stmtInsertLink, err := tx.PrepareContext(ctx, `INSERT INTO markov_links (entity_id, word, position, next_word) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare link insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertLink)

	var linkCount int
	for _, entity := range s.Entities() {
		var entityID int
		if err = stmtInsertEntity.QueryRowContext(ctx, entity).Scan(&entityID); err != nil {
			return fmt.Errorf("failed to insert entity '%s': %w", entity, err)
		}
		chain := s.chains[entity]
		for _, word := range chain.Words() {
			next, _ := chain.Next(word)
			for pos, n := range next {
				if _, err = stmtInsertLink.ExecContext(ctx, entityID, word, pos, n); err != nil {
					return fmt.Errorf("failed to insert link (%s -> %s) for entity '%s': %w", word, n, entity, err)
				}
				linkCount++
			}
		}
	}

	s.logger.InfoContext(ctx, "Chain store saved",
		slog.Int("entities", len(s.chains)),
		slog.Int("links", linkCount),
	)

	return tx.Commit()
}

// LoadStoreDB reads a chain store previously written with Store.Save.
func LoadStoreDB(ctx context.Context, db *sql.DB) (*Store, error) {
	names := make(map[int]string)
	rows, err := db.QueryContext(ctx, "SELECT entity_id, entity_name FROM markov_entities")
	if err != nil {
		return nil, fmt.Errorf("could not query entities: %w", err)
	}
	for rows.Next() {
		var id int
		var name string
		if err = rows.Scan(&id, &name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan entity row: %w", err)
		}
		names[id] = name
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating entity rows: %w", err)
	}

	links := make(map[int]map[string][]string, len(names))
	for id := range names {
		links[id] = make(map[string][]string)
	}

	lRows, err := db.QueryContext(ctx, "SELECT entity_id, word, next_word FROM markov_links ORDER BY entity_id, word, position")
	if err != nil {
		return nil, fmt.Errorf("could not query links: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(lRows)

	for lRows.Next() {
		var id int
		var word, next string
		if err = lRows.Scan(&id, &word, &next); err != nil {
			return nil, fmt.Errorf("failed to scan link row: %w", err)
		}
		entityLinks, ok := links[id]
		if !ok {
			return nil, fmt.Errorf("consistency error: link references unknown entity id %d", id)
		}
		entityLinks[word] = append(entityLinks[word], next)
	}
	if err = lRows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating link rows: %w", err)
	}

	chains := make(map[string]*Chain, len(names))
	for id, name := range names {
		chains[name] = NewChain(links[id])
	}
	return NewStore(chains), nil
}
