package tui

import (
	"strings"

	"github.com/charmbracelet/huh"

	"expensetracker/internal/core"
)

// ExpenseValues backs the add-expense form. Amount is raw input; digits are
// extracted when the row is built.
type ExpenseValues struct {
	Date     string
	Category string
	Amount   string
	Note     string
}

// Complete reports whether every required field has a value.
func (v ExpenseValues) Complete() bool {
	return strings.TrimSpace(v.Date) != "" &&
		strings.TrimSpace(v.Category) != "" &&
		strings.TrimSpace(v.Amount) != ""
}

// Expense builds and validates the row.
func (v ExpenseValues) Expense() (core.Expense, error) {
	cat, err := core.ParseCategory(v.Category)
	if err != nil {
		return core.Expense{}, err
	}
	if cat == core.CategoryAll {
		return core.Expense{}, core.ErrUnknownCategory
	}
	amount, err := core.ParseAmountInput(v.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	row := core.Expense{
		Date:     strings.TrimSpace(v.Date),
		Category: cat,
		Amount:   amount,
		Note:     strings.TrimSpace(v.Note),
	}
	if err := row.Validate(); err != nil {
		return core.Expense{}, err
	}
	return row, nil
}

// NewExpenseForm builds the add-expense form over vals.
func NewExpenseForm(vals *ExpenseValues) *huh.Form {
	if vals.Category == "" {
		vals.Category = string(core.FoodAndDrink)
	}
	options := make([]huh.Option[string], 0, len(core.Categories()))
	for _, c := range core.Categories() {
		options = append(options, huh.NewOption(c.String(), c.String()))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Date").
				Placeholder(core.DateLayout).
				Value(&vals.Date).
				Validate(func(s string) error {
					_, err := core.Expense{Date: s}.Time()
					return err
				}),
			huh.NewSelect[string]().
				Title("Category").
				Options(options...).
				Value(&vals.Category),
			huh.NewInput().
				Title("Amount").
				Placeholder("120000").
				Value(&vals.Amount).
				Validate(func(s string) error {
					_, err := core.ParseAmountInput(s)
					return err
				}),
			huh.NewInput().
				Title("Note").
				Placeholder("optional").
				CharLimit(500).
				Value(&vals.Note),
		),
	)
}

// newComparisonForm lets the user pick comparison months among options.
// chosen holds the current selection and receives the result.
func newComparisonForm(selected core.MonthKey, options []core.MonthKey, chosen *[]string) *huh.Form {
	opts := make([]huh.Option[string], 0, len(options))
	for _, m := range options {
		opts = append(opts, huh.NewOption(m.String(), m.String()))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Compare " + selected.String() + " with").
				Options(opts...).
				Value(chosen),
		),
	)
}
