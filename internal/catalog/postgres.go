package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaSQL creates the catalog table
const SchemaSQL = `CREATE TABLE IF NOT EXISTS mcp_servers (
	id          SERIAL PRIMARY KEY,
	position    INTEGER NOT NULL,
	title       TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	cli_command TEXT NOT NULL DEFAULT '',
	github_url  TEXT NOT NULL DEFAULT '',
	project_url TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	tags        TEXT[] NOT NULL DEFAULT '{}'
)`

// Store reads and writes the catalog in PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the catalog table when missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("failed to create catalog table: %w", err)
	}
	return nil
}

// Replace swaps the stored entries for the catalog's entries in one transaction
func (s *Store) Replace(ctx context.Context, c *Catalog) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM mcp_servers`); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}

	batch := &pgx.Batch{}
	for i, e := range c.entries {
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(
			`INSERT INTO mcp_servers (position, title, description, content, cli_command, github_url, project_url, category, tags)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			i, e.Title, e.Description, e.Content, e.CLICommand, e.GitHubURL, e.ProjectURL, e.Category, tags,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert catalog entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}

// Load reads every entry ordered by position
func (s *Store) Load(ctx context.Context, discoveryURL string) (*Catalog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT title, description, content, cli_command, github_url, project_url, category, tags
		 FROM mcp_servers ORDER BY position, id`)
	if err != nil {
		return nil, &LoadError{Source: "postgres", Message: "query failed", Cause: err}
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Title, &e.Description, &e.Content, &e.CLICommand,
			&e.GitHubURL, &e.ProjectURL, &e.Category, &e.Tags); err != nil {
			return nil, &LoadError{Source: "postgres", Message: "failed to scan row", Cause: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &LoadError{Source: "postgres", Message: "row iteration failed", Cause: err}
	}

	return New(entries, discoveryURL), nil
}

// LoadFromPostgres connects, reads the catalog once and closes the pool
func LoadFromPostgres(ctx context.Context, databaseURL, discoveryURL string) (*Catalog, error) {
	store, err := Connect(ctx, databaseURL)
	if err != nil {
		return nil, &LoadError{Source: "postgres", Message: "connection failed", Cause: err}
	}
	defer store.Close()

	return store.Load(ctx, discoveryURL)
}
