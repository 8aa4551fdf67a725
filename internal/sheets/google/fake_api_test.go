package google

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	gsheet "google.golang.org/api/sheets/v4"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"
)

// fakeAPI is a small stand-in for the Sheets v4 and Drive v3 endpoints the
// client uses.
type fakeAPI struct {
	t      *testing.T
	token  string
	mu     sync.Mutex
	docs   map[string]*fakeDoc
	nextID int
	calls  []string

	searchStatus int
}

type fakeDoc struct {
	title  string
	order  []string
	sheets map[string][][]any
	bold   bool
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{t: t, token: "tok", docs: map[string]*fakeDoc{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) connector(srv *httptest.Server, now time.Time) *Connector {
	return &Connector{
		SheetsEndpoint: srv.URL + "/",
		DriveEndpoint:  srv.URL + "/drive/v3/",
		HTTPClient:     srv.Client(),
		Now:            func() time.Time { return now },
	}
}

func (f *fakeAPI) addDoc(title string, sheets map[string][][]any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("doc-%d", f.nextID)
	d := &fakeDoc{title: title, sheets: map[string][][]any{}}
	for name, rows := range sheets {
		d.order = append(d.order, name)
		d.sheets[name] = rows
	}
	f.docs[id] = d
	return id
}

func (f *fakeAPI) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeAPI) resetCalls() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	if r.Header.Get("Authorization") != "Bearer "+f.token {
		writeErr(w, http.StatusUnauthorized, "Request had invalid authentication credentials.")
		return
	}

	path := r.URL.Path
	switch {
	case path == "/drive/v3/files":
		f.search(w, r)
	case path == "/v4/spreadsheets" && r.Method == http.MethodPost:
		f.create(w, r)
	case strings.HasPrefix(path, "/v4/spreadsheets/"):
		rest := strings.TrimPrefix(path, "/v4/spreadsheets/")
		if i := strings.Index(rest, "/values/"); i >= 0 {
			f.values(w, r, rest[:i], rest[i+len("/values/"):])
			return
		}
		if strings.HasSuffix(rest, ":batchUpdate") {
			f.batchUpdate(w, r, strings.TrimSuffix(rest, ":batchUpdate"))
			return
		}
		f.get(w, r, rest)
	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}

var nameQuery = regexp.MustCompile(`name='((?:[^'\\]|\\.)*)'`)

func (f *fakeAPI) search(w http.ResponseWriter, r *http.Request) {
	if f.searchStatus != 0 {
		writeErr(w, f.searchStatus, "Backend Error")
		return
	}
	q := r.URL.Query()
	if !strings.Contains(q.Get("q"), "mimeType='application/vnd.google-apps.spreadsheet'") ||
		!strings.Contains(q.Get("q"), "trashed=false") || q.Get("pageSize") != "1" {
		f.t.Errorf("unexpected search query: %s", r.URL.RawQuery)
	}
	m := nameQuery.FindStringSubmatch(q.Get("q"))
	files := []map[string]string{}
	if m != nil {
		title := strings.NewReplacer(`\'`, `'`, `\\`, `\`).Replace(m[1])
		for i := 1; i <= f.nextID; i++ {
			id := fmt.Sprintf("doc-%d", i)
			if d, ok := f.docs[id]; ok && d.title == title {
				files = append(files, map[string]string{"id": id, "name": d.title})
				break
			}
		}
	}
	writeJSON(w, map[string]any{"files": files})
}

func (f *fakeAPI) create(w http.ResponseWriter, r *http.Request) {
	var ss gsheet.Spreadsheet
	if err := json.NewDecoder(r.Body).Decode(&ss); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	f.nextID++
	id := fmt.Sprintf("doc-%d", f.nextID)
	d := &fakeDoc{title: ss.Properties.Title, sheets: map[string][][]any{}}
	for _, s := range ss.Sheets {
		name := s.Properties.Title
		d.order = append(d.order, name)
		var header []any
		for _, gd := range s.Data {
			for _, rd := range gd.RowData {
				for _, cell := range rd.Values {
					header = append(header, *cell.UserEnteredValue.StringValue)
					d.bold = cell.UserEnteredFormat != nil && cell.UserEnteredFormat.TextFormat.Bold
				}
			}
		}
		d.sheets[name] = [][]any{header}
	}
	f.docs[id] = d
	writeJSON(w, map[string]any{"spreadsheetId": id})
}

func (f *fakeAPI) get(w http.ResponseWriter, _ *http.Request, id string) {
	d, ok := f.docs[id]
	if !ok {
		writeErr(w, http.StatusNotFound, "Requested entity was not found.")
		return
	}
	var sheets []map[string]any
	for _, name := range d.order {
		sheets = append(sheets, map[string]any{"properties": map[string]any{"title": name}})
	}
	writeJSON(w, map[string]any{"spreadsheetId": id, "sheets": sheets})
}

func (f *fakeAPI) batchUpdate(w http.ResponseWriter, r *http.Request, id string) {
	d, ok := f.docs[id]
	if !ok {
		writeErr(w, http.StatusNotFound, "Requested entity was not found.")
		return
	}
	var req gsheet.BatchUpdateSpreadsheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, rq := range req.Requests {
		if rq.AddSheet == nil {
			continue
		}
		name := rq.AddSheet.Properties.Title
		if _, exists := d.sheets[name]; exists {
			writeErr(w, http.StatusBadRequest, fmt.Sprintf("A sheet with the name %q already exists.", name))
			return
		}
		d.order = append(d.order, name)
		d.sheets[name] = nil
	}
	writeJSON(w, map[string]any{"spreadsheetId": id})
}

func sheetOf(rng string) string {
	name := rng
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		name = rng[:i]
	}
	name = strings.TrimPrefix(strings.TrimSuffix(name, "'"), "'")
	return strings.ReplaceAll(name, "''", "'")
}

func (f *fakeAPI) values(w http.ResponseWriter, r *http.Request, id, rng string) {
	d, ok := f.docs[id]
	if !ok {
		writeErr(w, http.StatusNotFound, "Requested entity was not found.")
		return
	}
	appending := strings.HasSuffix(rng, ":append")
	rng = strings.TrimSuffix(rng, ":append")
	name := sheetOf(rng)
	rows, exists := d.sheets[name]
	if !exists {
		writeErr(w, http.StatusBadRequest, "Unable to parse range: "+rng)
		return
	}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if q.Get("valueRenderOption") != "UNFORMATTED_VALUE" {
			f.t.Errorf("read without UNFORMATTED_VALUE: %s", r.URL.RawQuery)
		}
		resp := map[string]any{"range": rng, "majorDimension": "ROWS"}
		if len(rows) > 0 {
			resp["values"] = rows
		}
		writeJSON(w, resp)
	case http.MethodPut, http.MethodPost:
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			f.t.Errorf("write without USER_ENTERED: %s", r.URL.RawQuery)
		}
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		if appending {
			d.sheets[name] = append(rows, vr.Values...)
		} else if len(rows) == 0 {
			d.sheets[name] = vr.Values
		} else {
			rows[0] = vr.Values[0]
		}
		writeJSON(w, map[string]any{"spreadsheetId": id})
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func mustMonth(t *testing.T, s string) core.MonthKey {
	t.Helper()
	k, err := core.ParseMonthKey(s)
	if err != nil {
		t.Fatalf("month %q: %v", s, err)
	}
	return k
}

var _ ports.Backend = (*Client)(nil)
