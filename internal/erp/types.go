package erp

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one remote object as returned by the ERP. The ERP encodes absent
// values as boolean false rather than null, so the accessors below absorb
// that convention instead of leaking it into callers.
type Record map[string]any

func (r Record) Str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	default:
		return ""
	}
}

// Int returns an integer field. Relational fields arrive as a
// [id, display_name] pair; the ID is what callers want.
func (r Record) Int(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case []any:
		if len(v) > 0 {
			return Record{key: v[0]}.Int(key)
		}
	}
	return 0
}

func (r Record) Decimal(key string) decimal.Decimal {
	switch v := r[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int64:
		return decimal.NewFromInt(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}

// Time parses a date or datetime field in the ERP's wire layout.
func (r Record) Time(key, layout string) (time.Time, bool) {
	s := r.Str(key)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Wire layouts the ERP uses for dates and timestamps.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)
