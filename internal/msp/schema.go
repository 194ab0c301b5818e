// Package msp holds the MSP_* table layout read by the importer.
package msp

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// DDL returns the CREATE TABLE statements for every MSP_* table.
func DDL() string { return schemaSQL }

// Statements splits DDL into individual statements.
func Statements() []string {
	var out []string
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Apply creates any missing MSP_* table in db. Tables listed in skip are left out.
func Apply(ctx context.Context, db *sql.DB, skip ...string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range Statements() {
		if skipped(stmt, skip) {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create msp schema: %w", err)
		}
	}
	return tx.Commit()
}

func skipped(stmt string, skip []string) bool {
	for _, name := range skip {
		if strings.Contains(stmt, " "+name+" (") {
			return true
		}
	}
	return false
}
