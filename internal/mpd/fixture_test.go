package mpd_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"mpdimport/internal/msp"
	"mpdimport/internal/msp/msptest"
)

type record = msptest.Record

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 8, 0, 0, 0, time.UTC)
}

func clock(h int) time.Time {
	return time.Date(1970, time.January, 1, h, 0, 0, 0, time.UTC)
}

func insert(t *testing.T, db *sql.DB, table string, rec record) {
	t.Helper()
	msptest.Insert(t, db, table, rec)
}

// newFixtureDB creates an MPD database holding a small bridge project (id 1)
// and an unrelated project (id 2). Tables named in skip are left out of the
// schema so a test can create them itself.
func newFixtureDB(t *testing.T, skip ...string) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.mpd")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, msp.Apply(context.Background(), db, skip...))

	has := func(table string) bool {
		for _, s := range skip {
			if s == table {
				return false
			}
		}
		return true
	}

	insert(t, db, "MSP_PROJECTS", record{
		"PROJ_ID": 1, "PROJ_NAME": "Bridge", "PROJ_PROP_TITLE": "Bridge rebuild",
		"PROJ_OPT_CURRENCY_SYMBOL": "$", "PROJ_OPT_CURRENCY_POSITION": 1, "PROJ_OPT_CURRENCY_DIGITS": 2,
		"PROJ_OPT_MINUTES_PER_DAY": 480, "PROJ_OPT_MINUTES_PER_WEEK": 2400, "PROJ_OPT_DAYS_PER_MONTH": 20,
		"PROJ_OPT_DUR_ENTRY_FMT": 7, "PROJ_OPT_WORK_ENTRY_FMT": 5,
		"PROJ_OPT_DEF_STD_RATE": 25.0, "PROJ_INFO_SCHED_FROM": 1, "PROJ_OPT_WEEK_START_DAY": 1,
		"PROJ_INFO_START_DATE": day(4), "PROJ_OPT_HONOR_CONSTRAINTS": 1,
	})
	insert(t, db, "MSP_PROJECTS", record{"PROJ_ID": 2, "PROJ_NAME": "Other"})

	// The derived calendar comes first so its base is resolved only after every calendar is read.
	insert(t, db, "MSP_CALENDARS", record{"PROJ_ID": 1, "CAL_UID": 2, "CAL_IS_BASE_CAL": 0, "RES_UID": 1, "CAL_BASE_UID": 1})
	insert(t, db, "MSP_CALENDARS", record{"PROJ_ID": 1, "CAL_UID": 1, "CAL_IS_BASE_CAL": 1, "CAL_NAME": "Standard"})
	insert(t, db, "MSP_CALENDARS", record{"PROJ_ID": 1, "CAL_UID": 0, "CAL_IS_BASE_CAL": 1, "CAL_NAME": "placeholder"})
	insert(t, db, "MSP_CALENDARS", record{"PROJ_ID": 1, "CAL_UID": 3, "CAL_IS_BASE_CAL": 0, "CAL_BASE_UID": 99})
	insert(t, db, "MSP_CALENDARS", record{"PROJ_ID": 2, "CAL_UID": 1, "CAL_IS_BASE_CAL": 1, "CAL_NAME": "Night"})

	insert(t, db, "MSP_CALENDAR_DATA", record{
		"PROJ_ID": 1, "CAL_UID": 1, "CD_DAY_OR_EXCEPTION": 2, "CD_WORKING": 1,
		"CD_FROM_TIME1": clock(8), "CD_TO_TIME1": clock(12),
		"CD_FROM_TIME2": clock(13), "CD_TO_TIME2": clock(17),
		"CD_FROM_TIME3": clock(18),
	})
	insert(t, db, "MSP_CALENDAR_DATA", record{"PROJ_ID": 1, "CAL_UID": 1, "CD_DAY_OR_EXCEPTION": 1, "CD_WORKING": 0})
	insert(t, db, "MSP_CALENDAR_DATA", record{"PROJ_ID": 1, "CAL_UID": 1, "CD_DAY_OR_EXCEPTION": 9, "CD_WORKING": 1})
	insert(t, db, "MSP_CALENDAR_DATA", record{
		"PROJ_ID": 1, "CAL_UID": 1, "CD_DAY_OR_EXCEPTION": 0, "CD_WORKING": 1,
		"CD_FROM_DATE": day(16), "CD_TO_DATE": day(17),
		"CD_FROM_TIME1": clock(9), "CD_TO_TIME1": clock(13),
	})
	insert(t, db, "MSP_CALENDAR_DATA", record{"PROJ_ID": 2, "CAL_UID": 1, "CD_DAY_OR_EXCEPTION": 3, "CD_WORKING": 0})

	insert(t, db, "MSP_RESOURCES", record{
		"PROJ_ID": 1, "RES_UID": 1, "RES_ID": 1, "RES_NAME": "Crane", "RES_TYPE": 1,
		"RES_MAX_UNITS": 1.0, "RES_PEAK": 1.5, "RES_NUM_OBJECTS": 0,
		"RES_STD_RATE": 80.0, "RES_STD_RATE_FMT": 2, "RES_BASE_COST": 10000.0,
		"RES_WORK": 960000.0, "RES_BASE_WORK": 480000.0,
		"RES_RTF_NOTES": `{\rtf1\ansi Heavy lift\par}`,
	})
	insert(t, db, "MSP_RESOURCES", record{"PROJ_ID": 1, "RES_UID": -1, "RES_NAME": "unused"})

	insert(t, db, "MSP_TASKS", record{
		"PROJ_ID": 1, "TASK_UID": 1, "TASK_ID": 1, "TASK_NAME": "Design", "TASK_OUTLINE_LEVEL": 1,
		"TASK_START_DATE": day(4), "TASK_FINISH_DATE": day(15),
		"TASK_DUR": 48000, "TASK_DUR_FMT": 7, "TASK_COST": 500000.0, "TASK_BASE_COST": 400000.0,
		"TASK_FREE_SLACK": 480000.0, "TASK_CAL_UID": 1, "TASK_PRIORITY": 700,
		"TASK_RTF_NOTES": `{\rtf1\ansi Check {\b load} limits\par}`,
	})
	insert(t, db, "MSP_TASKS", record{
		"PROJ_ID": 1, "TASK_UID": 2, "TASK_ID": 2, "TASK_NAME": "Drawings", "TASK_OUTLINE_LEVEL": 2,
		"TASK_START_DATE": day(4), "TASK_FINISH_DATE": day(8), "TASK_DUR": 24000, "TASK_DUR_FMT": 7,
	})
	insert(t, db, "MSP_TASKS", record{"PROJ_ID": 1, "TASK_UID": 3, "TASK_ID": 3})
	insert(t, db, "MSP_TASKS", record{
		"PROJ_ID": 1, "TASK_UID": 4, "TASK_ID": 4, "TASK_NAME": "Build", "TASK_OUTLINE_LEVEL": 1,
		"TASK_START_DATE": day(18), "TASK_FINISH_DATE": day(29), "TASK_IS_COLLAPSED": 1,
		"TASK_DUR": 9600, "TASK_DUR_FMT": 5 | 0x20,
	})
	insert(t, db, "MSP_TASKS", record{"PROJ_ID": 2, "TASK_UID": 1, "TASK_ID": 1, "TASK_NAME": "Elsewhere"})

	if has("MSP_TASK_BASELINES") {
		insert(t, db, "MSP_TASK_BASELINES", record{
			"PROJ_ID": 1, "TASK_UID": 1, "TB_BASE_NUM": 1, "TB_BASE_DUR": 9600, "TB_BASE_DUR_FMT": 7,
			"TB_BASE_COST": 10000.0, "TB_BASE_START": day(4),
		})
		insert(t, db, "MSP_TASK_BASELINES", record{"PROJ_ID": 1, "TASK_UID": 1, "TB_BASE_NUM": 11, "TB_BASE_COST": 1.0})
	}
	if has("MSP_RESOURCE_BASELINES") {
		insert(t, db, "MSP_RESOURCE_BASELINES", record{"PROJ_ID": 1, "RES_UID": 1, "RB_BASE_NUM": 0, "RB_BASE_WORK": 480000.0})
	}

	if has("MSP_LINKS") {
		insert(t, db, "MSP_LINKS", record{
			"PROJ_ID": 1, "LINK_UID": 10, "LINK_PRED_UID": 1, "LINK_SUCC_UID": 4,
			"LINK_TYPE": 1, "LINK_LAG_FMT": 7, "LINK_LAG": 4800.0,
		})
		insert(t, db, "MSP_LINKS", record{"PROJ_ID": 1, "LINK_UID": 11, "LINK_PRED_UID": 1, "LINK_SUCC_UID": 77, "LINK_TYPE": 1})
	}

	insert(t, db, "MSP_ASSIGNMENTS", record{
		"PROJ_ID": 1, "ASSN_UID": 1, "TASK_UID": 1, "RES_UID": 1, "ASSN_UNITS": 1.0,
		"ASSN_DELAY": 120000.0, "ASSN_START_VAR": 4800, "ASSN_COST": 32000.0,
	})
	insert(t, db, "MSP_ASSIGNMENTS", record{"PROJ_ID": 1, "ASSN_UID": 2, "TASK_UID": 99, "RES_UID": 1})
	insert(t, db, "MSP_ASSIGNMENTS", record{"PROJ_ID": 1, "ASSN_UID": 3, "TASK_UID": 4, "RES_UID": 42, "ASSN_UNITS": 0.5})

	if has("MSP_ASSIGNMENT_BASELINES") {
		insert(t, db, "MSP_ASSIGNMENT_BASELINES", record{"PROJ_ID": 1, "ASSN_UID": 1, "AB_BASE_NUM": 2, "AB_BASE_COST": 2500.0})
	}

	text := func(fieldID, ref int, value string) {
		insert(t, db, "MSP_TEXT_FIELDS", record{"PROJ_ID": 1, "TEXT_FIELD_ID": fieldID, "TEXT_REF_UID": ref, "TEXT_VALUE": value})
	}
	text(0x0B400000|63, 1, "north span")
	text(0x0C400000|8, 1, "yard 3")
	text(0x0D400000|8, 1, "ignored")
	text(0x0B400000|15, 1, "overwrite attempt")
	text(0x0B400000|97, 4, `C:\plans\sub.mpp`)
	text(0x0F400000|8, 1, "night shift")
	text(0x0B400000|63, 55, "no such task")

	insert(t, db, "MSP_NUMBER_FIELDS", record{"PROJ_ID": 1, "NUM_FIELD_ID": 0x0B400000 | 106, "NUM_REF_UID": 1, "NUM_VALUE": 12345.0})
	insert(t, db, "MSP_NUMBER_FIELDS", record{"PROJ_ID": 1, "NUM_FIELD_ID": 0x0B400000 | 87, "NUM_REF_UID": 2, "NUM_VALUE": 7.5})
	insert(t, db, "MSP_FLAG_FIELDS", record{"PROJ_ID": 1, "FLAG_FIELD_ID": 0x0B400000 | 72, "FLAG_REF_UID": 4, "FLAG_VALUE": 1})
	insert(t, db, "MSP_DURATION_FIELDS", record{"PROJ_ID": 1, "DUR_FIELD_ID": 0x0B400000 | 103, "DUR_REF_UID": 1, "DUR_VALUE": 9600, "DUR_FMT": 7})
	insert(t, db, "MSP_DATE_FIELDS", record{"PROJ_ID": 1, "DATE_FIELD_ID": 0x0B400000 | 265, "DATE_REF_UID": 2, "DATE_VALUE": day(20)})

	insert(t, db, "MSP_CODE_FIELDS", record{"PROJ_ID": 1, "CODE_FIELD_ID": 1, "CODE_REF_UID": 1, "CODE_UID": 7})
	insert(t, db, "MSP_OUTLINE_CODES", record{"PROJ_ID": 1, "CODE_UID": 7, "OC_FIELD_ID": 0x0B400000 | 416, "OC_NAME": "EU"})

	return db, path
}
