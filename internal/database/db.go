package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// In-memory databases (used in tests) skip filesystem setup
	if !strings.Contains(dbPath, ":memory:") {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Use WAL mode for better concurrency
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// The batch executor owns a single connection for a whole run, so the
	// pool stays small. A second connection covers HTTP handlers. In-memory
	// databases must stay on one connection: every new connection would get
	// its own empty database.
	if strings.Contains(dbPath, ":memory:") {
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(4)
		conn.SetMaxIdleConns(2)
	}

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// AcquireConn checks a single dedicated connection out of the pool.
// The caller owns it until Close.
func (db *DB) AcquireConn(ctx context.Context) (*sql.Conn, error) {
	return db.conn.Conn(ctx)
}

// Migrate creates the pendências tables when they do not exist.
// Table and column names follow the legacy agenda schema.
func (db *DB) Migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS amm_consulta_pendencias (
			id INTEGER PRIMARY KEY,
			id_pendencia INTEGER NOT NULL,
			consulta_pendencia TEXT NOT NULL,
			id_grupo INTEGER,
			nome_pendencia TEXT,
			dt_criacao TEXT,
			dt_modificacao TEXT,
			exibe_contagem INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS amm_usuarios (
			id INTEGER PRIMARY KEY,
			nome TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS amm_usuarios_x_pendencias (
			idUsu INTEGER NOT NULL,
			idPendencia INTEGER NOT NULL,
			PRIMARY KEY (idUsu, idPendencia)
		)`,
		`CREATE TABLE IF NOT EXISTS amm_histPendencias (
			idPendencia INTEGER NOT NULL,
			data TEXT NOT NULL,
			hora TEXT NOT NULL,
			idUsuario INTEGER NOT NULL,
			qtd INTEGER NOT NULL,
			idGestora INTEGER NOT NULL,
			usoSistema INTEGER NOT NULL,
			responsabilidade TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_hist_pendencia_dia
			ON amm_histPendencias (idPendencia, data)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
