// Package db opens the SQL pools used by the board repository and runs the
// embedded schema migrations.
package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kandev/kanban/internal/common/config"
	"github.com/kandev/kanban/internal/common/logger"
)

// Driver names as registered with database/sql.
const (
	SQLite3 = "sqlite3"
	PGX     = "pgx"
)

// Pool pairs a write pool with a read pool. For SQLite the writer is a single
// connection and the reader is a separate read-only pool; for PostgreSQL both
// are the same *sqlx.DB.
type Pool struct {
	writer *sqlx.DB
	reader *sqlx.DB
}

func NewPool(writer, reader *sqlx.DB) *Pool {
	return &Pool{writer: writer, reader: reader}
}

func (p *Pool) Writer() *sqlx.DB { return p.writer }
func (p *Pool) Reader() *sqlx.DB { return p.reader }

// Close closes both pools, once each.
func (p *Pool) Close() error {
	wErr := p.writer.Close()
	if p.reader != p.writer {
		if rErr := p.reader.Close(); rErr != nil && wErr == nil {
			return rErr
		}
	}
	return wErr
}

// Open connects to the configured SQL database and migrates it to the latest
// schema. It must not be called for the memory driver.
func Open(cfg config.DatabaseConfig, log *logger.Logger) (*Pool, error) {
	switch cfg.Driver {
	case "sqlite":
		w, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := Migrate(w, SQLite3); err != nil {
			_ = w.Close()
			return nil, err
		}
		r, err := OpenSQLiteReader(cfg.Path)
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		log.Info("Database initialized", zap.String("db_path", cfg.Path), zap.String("db_driver", cfg.Driver))
		return NewPool(sqlx.NewDb(w, SQLite3), sqlx.NewDb(r, SQLite3)), nil
	case "postgres":
		conn, err := OpenPostgres(cfg.DSN(), cfg.MaxConns, cfg.MinConns)
		if err != nil {
			return nil, err
		}
		if err := Migrate(conn, PGX); err != nil {
			_ = conn.Close()
			return nil, err
		}
		log.Info("Database initialized",
			zap.String("db_host", cfg.Host), zap.String("db_name", cfg.DBName), zap.String("db_driver", cfg.Driver))
		x := sqlx.NewDb(conn, PGX)
		return NewPool(x, x), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
