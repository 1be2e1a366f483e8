package database

import "database/sql"

// DBTX is what the local storage repository needs from a connection
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	GetDialect() Dialect
}

// Tx is a transaction that rewrites placeholders for its dialect
type Tx struct {
	*sql.Tx
	dialect Dialect
}

// Begin starts a new transaction
func (db *DB) Begin() (*Tx, error) {
	tx, err := db.DB.Begin()
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, dialect: db.Dialect}, nil
}

func (db *DB) GetDialect() Dialect {
	return db.Dialect
}

// Exec runs a statement inside the transaction
func (tx *Tx) Exec(query string, args ...any) (sql.Result, error) {
	return tx.Tx.Exec(tx.dialect.RewriteQuery(query), args...)
}

func (tx *Tx) GetDialect() Dialect {
	return tx.dialect
}
