package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type DB struct {
	*sql.DB
	dialect string
}

type Config struct {
	Driver   string // sqlite or postgres
	Path     string // sqlite file path
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func New(cfg Config) (*DB, error) {
	var (
		db      *sql.DB
		dialect string
		err     error
	)

	switch cfg.Driver {
	case "postgres":
		connStr := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
		)
		db, err = sql.Open("postgres", connStr)
		dialect = "postgres"
	case "", "sqlite":
		db, err = sql.Open("sqlite", cfg.Path)
		dialect = "sqlite3"
	default:
		return nil, fmt.Errorf("unsupported db driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == "sqlite3" {
		// modernc serializes access itself; one connection also keeps
		// :memory: databases from splitting across the pool.
		db.SetMaxOpenConns(1)
	}

	// The database may still be starting up; ping with a constant backoff.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	backoff := retry.WithMaxRetries(5, retry.NewConstant(2*time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, dialect: dialect}, nil
}

func (db *DB) RunMigrations() error {
	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect(db.dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
