package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format written into the Date column.
const DateLayout = "2006-01-02"

// CategoryAll is the filter selector meaning "every category".
const CategoryAll Category = "all"

const (
	FoodAndDrink   Category = "Makanan & Minuman"
	Transportation Category = "Transportasi"
	Shopping       Category = "Belanja"
	Entertainment  Category = "Hiburan"
	Health         Category = "Kesehatan"
	Utilities      Category = "Utilitas"
	Other          Category = "Lainnya"
)

// maxNoteLength bounds the free-text note accepted from forms.
const maxNoteLength = 500

type (
	// Category is one of the fixed expense categories. Rows read back from a
	// sheet may carry a value outside the set; those are kept verbatim.
	Category string

	// Expense is one row of a month sheet.
	Expense struct {
		Date     string // YYYY-MM-DD as entered
		Category Category
		Amount   Rupiah
		Note     string
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNoteTooLong     = errors.New("note too long")
)

var categories = []Category{
	FoodAndDrink,
	Transportation,
	Shopping,
	Entertainment,
	Health,
	Utilities,
	Other,
}

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Known reports whether c belongs to the fixed set.
func (c Category) Known() bool {
	for _, k := range categories {
		if c == k {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory resolves user input against the fixed set, ignoring case and
// surrounding space. "all" resolves to CategoryAll.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyCategory
	}
	if strings.EqualFold(s, string(CategoryAll)) {
		return CategoryAll, nil
	}
	for _, k := range categories {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Time parses the row date. Rows written by this program always parse.
func (e Expense) Time() (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(e.Date))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, e.Date)
	}
	return t, nil
}

// Month returns the partition the row belongs to.
func (e Expense) Month() (MonthKey, error) {
	t, err := e.Time()
	if err != nil {
		return MonthKey{}, err
	}
	return MonthOf(t), nil
}

// Validate checks a row before it is written.
func (e Expense) Validate() error {
	if _, err := e.Time(); err != nil {
		return err
	}
	if strings.TrimSpace(string(e.Category)) == "" {
		return ErrEmptyCategory
	}
	if !e.Category.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, e.Category)
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if len(e.Note) > maxNoteLength {
		return fmt.Errorf("%w (max %d characters)", ErrNoteTooLong, maxNoteLength)
	}
	return nil
}
