package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/session"
)

const maxBodyBytes = 64 << 10

type expenseJSON struct {
	Date          string `json:"date"`
	Category      string `json:"category"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	Note          string `json:"note,omitempty"`
}

type groupJSON struct {
	Category        string        `json:"category"`
	Count           int           `json:"count"`
	Subtotal        int64         `json:"subtotal"`
	SubtotalDisplay string        `json:"subtotal_display"`
	Items           []expenseJSON `json:"items"`
}

type monthResponse struct {
	Month                core.MonthKey   `json:"month"`
	Category             string          `json:"category"`
	Total                int64           `json:"total"`
	TotalDisplay         string          `json:"total_display"`
	FilteredTotal        int64           `json:"filtered_total"`
	FilteredTotalDisplay string          `json:"filtered_total_display"`
	Expenses             []expenseJSON   `json:"expenses"`
	Groups               []groupJSON     `json:"groups,omitempty"`
	Available            []core.MonthKey `json:"available"`
}

type monthAmountJSON struct {
	Month  core.MonthKey `json:"month"`
	Amount int64         `json:"amount"`
}

type comparisonRowJSON struct {
	Category string            `json:"category"`
	Current  int64             `json:"current"`
	ByMonth  []monthAmountJSON `json:"by_month"`
	Mean     decimal.Decimal   `json:"mean"`
	Diff     decimal.Decimal   `json:"diff"`
	Percent  int64             `json:"percent"`
}

type comparisonResponse struct {
	Month   core.MonthKey       `json:"month"`
	With    []core.MonthKey     `json:"with"`
	Options []core.MonthKey     `json:"options"`
	Rows    []comparisonRowJSON `json:"rows"`
}

type sessionResponse struct {
	SignedIn   bool             `json:"signed_in"`
	Ready      bool             `json:"ready"`
	Profile    *session.Profile `json:"profile,omitempty"`
	DocumentID string           `json:"document_id,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// addExpenseRequest is the POST /api/expenses body. Amount may be a JSON
// number or a string such as "Rp 120.000".
type addExpenseRequest struct {
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Amount   amountInput `json:"amount"`
	Note     string      `json:"note"`
}

type amountInput string

func (a *amountInput) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountInput(s)
		return nil
	}
	*a = amountInput(b)
	return nil
}

func toExpenseJSON(rows []core.Expense) []expenseJSON {
	out := make([]expenseJSON, 0, len(rows))
	for _, r := range rows {
		out = append(out, expenseJSON{
			Date:          r.Date,
			Category:      string(r.Category),
			Amount:        int64(r.Amount),
			AmountDisplay: r.Amount.String(),
			Note:          r.Note,
		})
	}
	return out
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.svc.Session()
	resp := sessionResponse{
		SignedIn:   sess.IsSignedIn(ctx),
		Ready:      sess.IsReady(),
		DocumentID: sess.DocumentID(ctx),
	}
	if resp.SignedIn {
		p := sess.Profile(ctx)
		resp.Profile = &p
	}
	if err := sess.Err(); err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.SignOut(r.Context()); err != nil {
		s.fail(w, r, "Sign out failed", applog.OpSignOut, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Ready: s.svc.Session().IsReady()})
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	available, err := s.svc.AvailableMonths(r.Context())
	if err != nil {
		s.fail(w, r, "List months failed", applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]core.MonthKey{
		"available":  available,
		"navigation": core.NavigationMonths(available, s.svc.Now()),
	})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r, "month", s.svc.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category := core.CategoryAll
	if v := strings.TrimSpace(r.URL.Query().Get("category")); v != "" {
		if category, err = core.ParseCategory(v); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	grouped, _ := strconv.ParseBool(r.URL.Query().Get("group"))

	data, err := s.svc.LoadMonth(r.Context(), month)
	if err != nil {
		s.fail(w, r, "Load month failed", applog.OpRead, err)
		return
	}

	filtered := core.FilterByCategory(data.Rows, category)
	resp := monthResponse{
		Month:                month,
		Category:             string(category),
		Total:                int64(core.Total(data.Rows)),
		TotalDisplay:         core.Total(data.Rows).String(),
		FilteredTotal:        int64(core.Total(filtered)),
		FilteredTotalDisplay: core.Total(filtered).String(),
		Expenses:             toExpenseJSON(core.SortByDateDesc(filtered)),
		Available:            data.Available,
	}
	if grouped {
		for _, g := range core.GroupByCategory(filtered) {
			resp.Groups = append(resp.Groups, groupJSON{
				Category:        string(g.Category),
				Count:           g.Count,
				Subtotal:        int64(g.Subtotal),
				SubtotalDisplay: g.Subtotal.String(),
				Items:           toExpenseJSON(g.Items),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req addExpenseRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is empty")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	date := sanitizeInput(req.Date)
	if date == "" {
		date = s.svc.Now().Format(core.DateLayout)
	}
	category, err := core.ParseCategory(req.Category)
	if err == nil && category == core.CategoryAll {
		err = fmt.Errorf("%w: %q", core.ErrUnknownCategory, req.Category)
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	amount, err := core.ParseAmountInput(string(req.Amount))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	row := core.Expense{Date: date, Category: category, Amount: amount, Note: sanitizeInput(req.Note)}
	month, err := s.svc.AddExpense(r.Context(), row)
	if err != nil {
		s.fail(w, r, "Add expense failed", applog.OpAppend, err)
		return
	}
	s.structured.LogExpenseAdded(r.Context(), month.String(), row.Date, string(row.Category), int64(row.Amount))

	writeJSON(w, http.StatusCreated, map[string]any{
		"month":   month,
		"expense": toExpenseJSON([]core.Expense{row})[0],
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r, "month", s.svc.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	options := core.ComparisonMonthOptions(month, s.svc.Now())

	with, err := parseMonthList(r.URL.Query().Get("with"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(with) == 0 {
		with = core.DefaultComparisonMonths(month, options)
	}
	for _, m := range with {
		if !slices.Contains(options, m) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s cannot be compared with %s", m, month))
			return
		}
	}
	core.SortMonthsAsc(with)

	data, err := s.svc.LoadComparison(r.Context(), month, with)
	if err != nil {
		s.fail(w, r, "Comparison failed", applog.OpCompare, err)
		return
	}

	resp := comparisonResponse{Month: month, With: data.Months, Options: options, Rows: []comparisonRowJSON{}}
	for _, row := range data.Rows {
		out := comparisonRowJSON{
			Category: string(row.Category),
			Current:  int64(row.Current),
			Mean:     row.Mean.Round(2),
			Diff:     row.Diff.Round(2),
			Percent:  row.Percent,
		}
		for _, ma := range row.ByMonth {
			out.ByMonth = append(out.ByMonth, monthAmountJSON{Month: ma.Month, Amount: int64(ma.Amount)})
		}
		resp.Rows = append(resp.Rows, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

// fail logs err and writes it with the status it maps to.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.structured.LogError(r.Context(), msg, err, op, nil)
	} else {
		s.log.WarnContext(r.Context(), msg, applog.FieldOperation, op, applog.FieldError, err.Error())
	}
	writeError(w, status, err.Error())
}
