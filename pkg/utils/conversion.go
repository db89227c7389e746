package utils

import (
	"strconv"
	"time"
)

// StringToUint64 parses a decimal id, returning 0 on failure.
func StringToUint64(str string) uint64 {
	val, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0
	}
	return val
}

// ParseID parses a path id and rejects zero and garbage.
func ParseID(str string) (uint64, error) {
	id := StringToUint64(str)
	if id == 0 {
		return 0, ErrValidation("invalid id %q", str)
	}
	return id, nil
}

// ParseOptionalTime parses an RFC3339 query value; empty means nil.
func ParseOptionalTime(str string) (*time.Time, error) {
	if str == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return nil, ErrValidation("invalid time %q, expected RFC3339", str)
	}
	return &t, nil
}

// ParseDate accepts either YYYY-MM-DD or RFC3339.
func ParseDate(str string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", str); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}, ErrValidation("invalid date %q", str)
	}
	return t, nil
}
