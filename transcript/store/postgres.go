package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/transcript"
)

// PostgresStore implements transcript storage using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultPostgresConfig returns default PostgreSQL configuration.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:    "localhost",
		Port:    5432,
		User:    "postgres",
		DBName:  "roundtable",
		SSLMode: "disable",
	}
}

// NewPostgresStore creates a new PostgreSQL-based transcript store.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	if config == nil {
		config = DefaultPostgresConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createTable(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) createTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id VARCHAR(255) PRIMARY KEY,
		topic TEXT NOT NULL,
		status VARCHAR(32) NOT NULL,
		turns JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Save writes a transcript record in a single insert and returns its row
// locator. A record is only ever written once per session, so conflicts on
// the primary key resolve to a no-op.
func (s *PostgresStore) Save(ctx context.Context, record *transcript.Record) (string, error) {
	if record == nil || record.ID == "" {
		return "", fmt.Errorf("transcript record cannot be nil")
	}

	turnsJSON, err := json.Marshal(record.Turns)
	if err != nil {
		return "", fmt.Errorf("failed to marshal turns: %w", err)
	}

	query := `
	INSERT INTO transcripts (id, topic, status, turns, created_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query,
		record.ID, record.Topic, record.Status, turnsJSON,
		record.CreatedAt, record.FinishedAt); err != nil {
		return "", fmt.Errorf("failed to insert transcript: %w", err)
	}

	return "postgres://transcripts/" + record.ID, nil
}

// Load retrieves a transcript record by session id.
func (s *PostgresStore) Load(ctx context.Context, id string) (*transcript.Record, error) {
	query := `
	SELECT id, topic, status, turns, created_at, finished_at
	FROM transcripts WHERE id = $1`

	var record transcript.Record
	var turnsJSON []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID, &record.Topic, &record.Status, &turnsJSON,
		&record.CreatedAt, &record.FinishedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	if err := json.Unmarshal(turnsJSON, &record.Turns); err != nil {
		return nil, fmt.Errorf("failed to decode turns: %w", err)
	}
	return &record, nil
}

// Close releases the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
