package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCell converts a raw CSV field into the Go value for the column type.
// An empty field is NULL and yields nil. STRING values are kept verbatim,
// so a field of only spaces is a string; numeric fields are trimmed first.
func ParseCell(t ColumnType, raw string) (interface{}, error) {
	if raw == "" {
		return nil, nil
	}
	if t != Integer && t != Float {
		return raw, nil
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	switch t {
	case Integer:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("could not parse %q as INTEGER", raw)
		}
		return i, nil
	case Float:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("could not parse %q as FLOAT", raw)
		}
		return f, nil
	default:
		return raw, nil
	}
}

// SQLiteType maps a column type to the local warehouse's storage class.
func SQLiteType(t ColumnType) string {
	switch t {
	case Integer:
		return "INTEGER"
	case Float:
		return "REAL"
	default:
		return "TEXT"
	}
}

// FromSQLiteType is the inverse of SQLiteType.
func FromSQLiteType(decl string) (ColumnType, error) {
	switch strings.ToUpper(strings.TrimSpace(decl)) {
	case "TEXT":
		return String, nil
	case "INTEGER":
		return Integer, nil
	case "REAL":
		return Float, nil
	}
	return "", fmt.Errorf("unsupported column type %q", decl)
}
