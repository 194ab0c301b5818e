package mpd

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"mpdimport/internal/domain"
)

var (
	// ErrUnknownColumn means a populator asked for a column the record does not have.
	ErrUnknownColumn = errors.New("invalid column name")
	// ErrColumnType means a column value could not be coerced to the requested type.
	ErrColumnType = errors.New("invalid column value")
)

// Row is a column-name indexed view over one source record. Getters for
// optional values return nil when the column is null. Asking for a column the
// record does not carry is recorded and reported by Err; the first such error
// wins and later getters return zero values.
type Row interface {
	String(name string) *string
	Integer(name string) *int
	// Int is Integer with null mapped to 0.
	Int(name string) int
	Double(name string) *float64
	// Currency is Double divided by 100.
	Currency(name string) *float64
	// Bool is false for null; numeric values are true when equal to 1.
	Bool(name string) bool
	Date(name string) *time.Time
	// Duration reads a raw work value (thousandths of a minute) as hours.
	Duration(name string) *domain.Duration
	Bytes(name string) []byte
	Columns() []string
	Err() error
}

// MapRow is a Row over an already materialised name to value mapping.
type MapRow struct {
	values map[string]any
	err    error
}

// NewMapRow wraps values. The map is used as is.
func NewMapRow(values map[string]any) *MapRow {
	if values == nil {
		values = map[string]any{}
	}
	return &MapRow{values: values}
}

func (r *MapRow) Columns() []string {
	cols := make([]string, 0, len(r.values))
	for k := range r.values {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func (r *MapRow) Err() error { return r.err }

// Values exposes the underlying mapping.
func (r *MapRow) Values() map[string]any { return r.values }

func (r *MapRow) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *MapRow) lookup(name string) (any, bool) {
	if r.err != nil {
		return nil, false
	}
	v, ok := r.values[name]
	if !ok {
		r.fail(fmt.Errorf("%w: %s", ErrUnknownColumn, name))
		return nil, false
	}
	if v == nil {
		return nil, false
	}
	return v, true
}

func (r *MapRow) String(name string) *string {
	v, ok := r.lookup(name)
	if !ok {
		return nil
	}
	s, err := toString(v)
	if err != nil {
		r.fail(fmt.Errorf("%w: %s: %v", ErrColumnType, name, err))
		return nil
	}
	return &s
}

func (r *MapRow) Integer(name string) *int {
	v, ok := r.lookup(name)
	if !ok {
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		r.fail(fmt.Errorf("%w: %s: %v", ErrColumnType, name, err))
		return nil
	}
	return &n
}

func (r *MapRow) Int(name string) int {
	if v := r.Integer(name); v != nil {
		return *v
	}
	return 0
}

func (r *MapRow) Double(name string) *float64 {
	v, ok := r.lookup(name)
	if !ok {
		return nil
	}
	f, err := toFloat(v)
	if err != nil {
		r.fail(fmt.Errorf("%w: %s: %v", ErrColumnType, name, err))
		return nil
	}
	return &f
}

func (r *MapRow) Currency(name string) *float64 {
	return Currency(r.Double(name))
}

func (r *MapRow) Bool(name string) bool {
	v, ok := r.lookup(name)
	if !ok {
		return false
	}
	b, err := toBool(v)
	if err != nil {
		r.fail(fmt.Errorf("%w: %s: %v", ErrColumnType, name, err))
		return false
	}
	return b
}

func (r *MapRow) Date(name string) *time.Time {
	v, ok := r.lookup(name)
	if !ok {
		return nil
	}
	t, err := toTime(v)
	if err != nil {
		r.fail(fmt.Errorf("%w: %s: %v", ErrColumnType, name, err))
		return nil
	}
	return &t
}

func (r *MapRow) Duration(name string) *domain.Duration {
	f := r.Double(name)
	if f == nil {
		return nil
	}
	return domain.NewDuration(*f/60000, domain.Hours)
}

func (r *MapRow) Bytes(name string) []byte {
	v, ok := r.lookup(name)
	if !ok {
		return nil
	}
	switch b := v.(type) {
	case []byte:
		return b
	case string:
		return []byte(b)
	}
	r.fail(fmt.Errorf("%w: %s: %T is not binary", ErrColumnType, name, v))
	return nil
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case time.Time:
		return s.Format(time.RFC3339), nil
	case bool:
		return strconv.FormatBool(s), nil
	}
	if f, err := toFloat(v); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("%T is not text", v)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float32:
		return int(n), nil
	case float64:
		return int(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	case []byte:
		return strconv.Atoi(strings.TrimSpace(string(n)))
	}
	return 0, fmt.Errorf("%T is not an integer", v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	case bool:
		return 0, fmt.Errorf("%T is not a number", v)
	}
	i, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%T is not a number", v)
	}
	return float64(i), nil
}

func toBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if s, ok := v.(string); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, nil
		}
	}
	f, err := toFloat(v)
	if err != nil {
		return false, fmt.Errorf("%T is not a boolean", v)
	}
	return f == 1, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"15:04:05",
	"15:04",
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	}
	return time.Time{}, fmt.Errorf("%T is not a timestamp", v)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as timestamp", s)
}
