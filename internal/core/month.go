package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var monthKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

var ErrInvalidMonthKey = errors.New("invalid month key")

// MonthKey identifies one calendar month. It names the month sheet and is the
// navigation cursor.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t, in t's location.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// MonthFromDate returns the month of a YYYY-MM-DD date string.
func MonthFromDate(date string) (MonthKey, error) {
	return Expense{Date: date}.Month()
}

// ParseMonthKey accepts exactly YYYY-MM with a month between 01 and 12.
func ParseMonthKey(s string) (MonthKey, error) {
	if !monthKeyPattern.MatchString(s) {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	y, _ := strconv.Atoi(s[:4])
	m, _ := strconv.Atoi(s[5:])
	if m < 1 || m > 12 {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	return MonthKey{Year: y, Month: time.Month(m)}, nil
}

// IsMonthKey reports whether s is a well-formed month key. Sheet titles are
// filtered with it.
func IsMonthKey(s string) bool {
	_, err := ParseMonthKey(s)
	return err == nil
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

func (k MonthKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}

// AddMonths moves the key by n calendar months, normalising the year.
func (k MonthKey) AddMonths(n int) MonthKey {
	t := time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return MonthOf(t)
}

func (k MonthKey) Prev() MonthKey { return k.AddMonths(-1) }

func (k MonthKey) Next() MonthKey { return k.AddMonths(1) }

// Compare returns -1, 0 or +1 in calendar order.
func (k MonthKey) Compare(o MonthKey) int {
	switch {
	case k.Year < o.Year:
		return -1
	case k.Year > o.Year:
		return 1
	case k.Month < o.Month:
		return -1
	case k.Month > o.Month:
		return 1
	}
	return 0
}

func (k MonthKey) Before(o MonthKey) bool { return k.Compare(o) < 0 }

func (k MonthKey) After(o MonthKey) bool { return k.Compare(o) > 0 }

// MarshalText lets month keys travel as "YYYY-MM" in JSON.
func (k MonthKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MonthKey) UnmarshalText(b []byte) error {
	parsed, err := ParseMonthKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
