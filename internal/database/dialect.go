package database

import (
	"database/sql"
	"regexp"
	"strconv"
	"time"
)

// Dialect hides the differences between the supported SQL backends.
// Queries are written with ? placeholders and rewritten per dialect.
type Dialect interface {
	DriverName() string
	DSN(config DialectConfig) string
	RewriteQuery(query string) string
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir names the directory under migrations/ to apply
	MigrationsSubdir() string
	CreateMigrationsTableQuery() string

	// UpsertLocalStorage inserts or replaces a local_storage row.
	// Arguments are key then value.
	UpsertLocalStorage() string
}

// DialectConfig locates the database: a file path for SQLite, a URL otherwise
type DialectConfig struct {
	Path string
	URL  string
}

// configureServerPool sizes the pool for postgres and mysql
func configureServerPool(db *sql.DB) {
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// numberPlaceholders turns ? placeholders into $1, $2, ...
func numberPlaceholders(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
