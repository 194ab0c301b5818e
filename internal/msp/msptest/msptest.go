// Package msptest builds small MPD databases for tests.
package msptest

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"mpdimport/internal/msp"
)

// Record is one row keyed by column name.
type Record map[string]any

// Insert adds rec to table.
func Insert(t testing.TB, db *sql.DB, table string, rec Record) {
	t.Helper()
	cols := make([]string, 0, len(rec))
	for c := range rec {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = rec[c]
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	stmt := "INSERT INTO " + table + " (" + strings.Join(cols, ",") + ") VALUES (" + marks + ")"
	if _, err := db.Exec(stmt, args...); err != nil {
		t.Fatalf("insert %s: %v", table, err)
	}
}

// NewDB creates an empty MPD database in a temp dir and returns its path.
// The connection is closed before NewDB returns.
func NewDB(t testing.TB, seed func(db *sql.DB)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.mpd")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open mpd: %v", err)
	}
	defer db.Close()
	if err := msp.Apply(context.Background(), db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	if seed != nil {
		seed(db)
	}
	return path
}

// Bridge seeds project 1 "Bridge": one base calendar, one resource, two
// tasks linked finish-to-start and one assignment.
func Bridge(t testing.TB) func(db *sql.DB) {
	start := time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)
	return func(db *sql.DB) {
		Insert(t, db, "MSP_PROJECTS", Record{"PROJ_ID": 1, "PROJ_NAME": "Bridge", "PROJ_INFO_START_DATE": start})
		Insert(t, db, "MSP_CALENDARS", Record{"PROJ_ID": 1, "CAL_UID": 1, "CAL_IS_BASE_CAL": 1, "CAL_NAME": "Standard"})
		Insert(t, db, "MSP_RESOURCES", Record{"PROJ_ID": 1, "RES_UID": 1, "RES_ID": 1, "RES_NAME": "Crane"})
		Insert(t, db, "MSP_TASKS", Record{"PROJ_ID": 1, "TASK_UID": 1, "TASK_ID": 1, "TASK_NAME": "Design", "TASK_OUTLINE_LEVEL": 1, "TASK_START_DATE": start})
		Insert(t, db, "MSP_TASKS", Record{"PROJ_ID": 1, "TASK_UID": 2, "TASK_ID": 2, "TASK_NAME": "Build", "TASK_OUTLINE_LEVEL": 1})
		Insert(t, db, "MSP_LINKS", Record{"PROJ_ID": 1, "LINK_UID": 1, "LINK_PRED_UID": 1, "LINK_SUCC_UID": 2, "LINK_TYPE": 1, "LINK_LAG": 0.0, "LINK_LAG_FMT": 7})
		Insert(t, db, "MSP_ASSIGNMENTS", Record{"PROJ_ID": 1, "ASSN_UID": 1, "TASK_UID": 1, "RES_UID": 1, "ASSN_UNITS": 1.0})
	}
}
