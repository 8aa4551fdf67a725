package memory

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"
)

type document struct {
	title  string
	order  []string
	sheets map[string][]core.Expense
}

// Store keeps documents in process memory with the same provisioning and
// read semantics as the Google backend.
type Store struct {
	mu     sync.Mutex
	title  string
	now    func() time.Time
	docs   map[string]*document
	order  []string
	nextID int
}

var (
	_ ports.Backend   = (*Store)(nil)
	_ ports.Connector = (*Store)(nil)
)

func New(title string, now func() time.Time) *Store {
	if title == "" {
		title = ports.DefaultTitle
	}
	if now == nil {
		now = time.Now
	}
	return &Store{title: title, now: now, docs: map[string]*document{}}
}

// NewFromFile returns a store whose document is pre-filled with the rows of a
// seed file (date,category,amount,note per line; # starts a comment). A
// missing file yields an empty store.
func NewFromFile(title string, now func() time.Time, path string) (*Store, error) {
	s := New(title, now)
	rows, err := readSeed(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return s, nil
	}
	res, _ := s.EnsureDocument(context.Background(), "")
	for _, r := range rows {
		if err := s.AppendRow(context.Background(), res.ID, r); err != nil {
			return nil, fmt.Errorf("seed row %s: %w", r.Date, err)
		}
	}
	return s, nil
}

// Connect rejects empty tokens and otherwise returns the store itself.
func (s *Store) Connect(_ context.Context, token string) (ports.Backend, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ports.ErrNoToken
	}
	return s, nil
}

func (s *Store) EnsureDocument(_ context.Context, cachedID string) (ports.Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cachedID != "" {
		if _, ok := s.docs[cachedID]; ok {
			return ports.Resolution{ID: cachedID}, nil
		}
	}
	for _, id := range s.order {
		if s.docs[id].title == s.title {
			return ports.Resolution{ID: id, Persist: true}, nil
		}
	}

	s.nextID++
	id := fmt.Sprintf("mem-%d", s.nextID)
	month := core.MonthOf(s.now()).String()
	s.docs[id] = &document{
		title:  s.title,
		order:  []string{month},
		sheets: map[string][]core.Expense{month: nil},
	}
	s.order = append(s.order, id)
	return ports.Resolution{ID: id, Persist: true, Created: true}, nil
}

func (s *Store) EnsureMonthSheet(_ context.Context, documentID string, month core.MonthKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc("add sheet", documentID)
	if err != nil {
		return err
	}
	s.ensureSheet(d, month.String())
	return nil
}

func (s *Store) AppendRow(_ context.Context, documentID string, row core.Expense) error {
	month, err := row.Month()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc("append row", documentID)
	if err != nil {
		return err
	}
	name := month.String()
	s.ensureSheet(d, name)
	d.sheets[name] = append(d.sheets[name], row)
	return nil
}

func (s *Store) ReadRows(_ context.Context, documentID string, month core.MonthKey) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc("read rows", documentID)
	if err != nil {
		if ports.IsNotFound(err) {
			return []core.Expense{}, nil
		}
		return nil, err
	}
	return append([]core.Expense{}, d.sheets[month.String()]...), nil
}

func (s *Store) ListAvailableMonths(_ context.Context, documentID string) ([]core.MonthKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc("get spreadsheet", documentID)
	if err != nil {
		return nil, err
	}
	out := make([]core.MonthKey, 0, len(d.order))
	for _, name := range d.order {
		if k, err := core.ParseMonthKey(name); err == nil {
			out = append(out, k)
		}
	}
	core.SortMonthsDesc(out)
	return out, nil
}

// AddSheet creates a sheet with an arbitrary title. Tests use it to put
// non-month sheets into a document.
func (s *Store) AddSheet(documentID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc("add sheet", documentID)
	if err != nil {
		return err
	}
	s.ensureSheet(d, title)
	return nil
}

// Delete drops a document, as if the user removed it outside the program.
func (s *Store) Delete(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, documentID)
	for i, id := range s.order {
		if id == documentID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) doc(op, id string) (*document, error) {
	d, ok := s.docs[id]
	if !ok {
		return nil, &ports.ProviderError{Op: op, Status: http.StatusNotFound, Message: "Requested entity was not found."}
	}
	return d, nil
}

func (s *Store) ensureSheet(d *document, name string) {
	if _, ok := d.sheets[name]; ok {
		return
	}
	d.order = append(d.order, name)
	d.sheets[name] = nil
}

func readSeed(path string) ([]core.Expense, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return parseSeed(f)
}

func parseSeed(r io.Reader) ([]core.Expense, error) {
	var b strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	cr := csv.NewReader(strings.NewReader(b.String()))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	out := make([]core.Expense, 0, len(records))
	for i, rec := range records {
		if len(rec) < 3 {
			return nil, fmt.Errorf("seed line %d: want date,category,amount[,note]", i+1)
		}
		cat, err := core.ParseCategory(rec[1])
		if err != nil {
			return nil, fmt.Errorf("seed line %d: %w", i+1, err)
		}
		amt, err := core.ParseAmountInput(rec[2])
		if err != nil {
			return nil, fmt.Errorf("seed line %d: %w", i+1, err)
		}
		e := core.Expense{Date: rec[0], Category: cat, Amount: amt}
		if len(rec) > 3 {
			e.Note = rec[3]
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("seed line %d: %w", i+1, err)
		}
		out = append(out, e)
	}
	return out, nil
}
