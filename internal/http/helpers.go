package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/session"
	"expensetracker/internal/sheets"
)

// parseMonth reads a month query parameter. An absent value means the
// calendar month of now.
func parseMonth(r *http.Request, name string, now time.Time) (core.MonthKey, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return core.MonthOf(now), nil
	}
	return core.ParseMonthKey(v)
}

// parseMonthList reads a comma separated list of month keys.
func parseMonthList(s string) ([]core.MonthKey, error) {
	var out []core.MonthKey
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, err := core.ParseMonthKey(part)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func generateRequestID() string {
	return "req_" + uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps an operation error onto a response status.
func statusFor(err error) int {
	var authErr *session.AuthError
	var provErr *sheets.ProviderError
	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, core.ErrNoteTooLong),
		errors.Is(err, core.ErrInvalidMonthKey):
		return http.StatusUnprocessableEntity
	case errors.As(err, &provErr):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
