package models

import (
	"errors"
	"regexp"
	"time"
)

// MonthKey identifies a snapshot month as "YYYY-MM".
type MonthKey = string

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidateMonthKey checks the "YYYY-MM" shape.
func ValidateMonthKey(key MonthKey) error {
	if !monthKeyPattern.MatchString(key) {
		return errors.New("month_key must be YYYY-MM")
	}
	return nil
}

// MonthKeyOf returns the month key containing t (UTC).
func MonthKeyOf(t time.Time) MonthKey {
	return t.UTC().Format("2006-01")
}

// MonthKeyTime returns the first instant of the month.
func MonthKeyTime(key MonthKey) (time.Time, error) {
	return time.Parse("2006-01", key)
}

// LastMonthKeys returns the n month keys ending at (and including) end,
// oldest first.
func LastMonthKeys(end time.Time, n int) []MonthKey {
	if n <= 0 {
		return nil
	}
	keys := make([]MonthKey, 0, n)
	y, m, _ := end.UTC().Date()
	cur := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, MonthKeyOf(cur.AddDate(0, -i, 0)))
	}
	return keys
}

// PrevMonthKey returns the month key immediately before key.
func PrevMonthKey(key MonthKey) (MonthKey, error) {
	t, err := MonthKeyTime(key)
	if err != nil {
		return "", err
	}
	return MonthKeyOf(t.AddDate(0, -1, 0)), nil
}
