package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/config"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/logger"
)

// Dialect is the SQL flavour spoken by the configured engine.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite3"
)

// DialectFor maps a DB_ENGINE value onto its dialect.
func DialectFor(engine string) (Dialect, error) {
	switch strings.ToLower(engine) {
	case "postgresql", "postgres":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database engine: %s", engine)
	}
}

// Placeholder returns the bind parameter for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Placeholders returns count comma separated bind parameters starting at from.
func (d Dialect) Placeholders(from, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = d.Placeholder(from + i)
	}
	return strings.Join(parts, ", ")
}

// Quote quotes an identifier. Identifiers come from compiled-in schemas, never
// from request input.
func (d Dialect) Quote(ident string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// DB bundles the connection pool with its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open establishes a connection to the database
func Open(cfg *config.Config) (*DB, error) {
	logger.Log.Infof("[Database] Connecting to database - Engine: %s, Host: %s, Port: %s, DB: %s",
		cfg.DBEngine, cfg.DBHost, cfg.DBPort, cfg.DBName)

	dialect, err := DialectFor(cfg.DBEngine)
	if err != nil {
		return nil, err
	}

	var dsn string
	switch dialect {
	case Postgres:
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBUser,
			cfg.DBPass,
			cfg.DBName,
			cfg.DBSSLMode,
		)
	case MySQL:
		dsn = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true",
			cfg.DBUser,
			cfg.DBPass,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
	case SQLite:
		dsn = cfg.DBPath
	}

	db, err := OpenDSN(dialect, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// OpenDSN opens a pool for an explicit dialect and data source name.
func OpenDSN(dialect Dialect, dsn string) (*DB, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if dialect == SQLite {
		// a single writer avoids "database is locked" on sqlite files
		db.SetMaxOpenConns(1)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// Bool renders a boolean literal the engine accepts in a WHERE clause.
func (d Dialect) Bool(b bool) string {
	if d == Postgres {
		if b {
			return "true"
		}
		return "false"
	}
	if b {
		return "1"
	}
	return "0"
}
