package google

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	ports "expensetracker/internal/sheets"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Connector opens Clients for bearer tokens.
type Connector struct {
	Title string // document title; sheets.DefaultTitle when empty

	// Endpoint overrides, used by tests.
	SheetsEndpoint string
	DriveEndpoint  string
	HTTPClient     *http.Client

	Now    func() time.Time
	Logger *slog.Logger
}

var _ ports.Connector = (*Connector)(nil)

// Connect builds a Sheets and a Drive service authorised with token.
func (c *Connector) Connect(ctx context.Context, token string) (ports.Backend, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ports.ErrNoToken
	}

	base := c.HTTPClient
	if base == nil {
		base = newHTTPClientWithPooling()
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	authed := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)

	sheetOpts := []goption.ClientOption{goption.WithHTTPClient(authed)}
	if c.SheetsEndpoint != "" {
		sheetOpts = append(sheetOpts, goption.WithEndpoint(c.SheetsEndpoint))
	}
	svc, err := gsheet.NewService(ctx, sheetOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	driveOpts := []goption.ClientOption{goption.WithHTTPClient(authed)}
	if c.DriveEndpoint != "" {
		driveOpts = append(driveOpts, goption.WithEndpoint(c.DriveEndpoint))
	}
	drv, err := gdrive.NewService(ctx, driveOpts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	title := c.Title
	if title == "" {
		title = ports.DefaultTitle
	}
	now := c.Now
	if now == nil {
		now = time.Now
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{sheets: svc, drive: drv, title: title, now: now, log: logger}, nil
}

// newHTTPClientWithPooling is the transport shared by the Google services.
// Connection setup is bounded; requests themselves are not.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{Transport: transport}
}

// Client is a ports.Backend over Google Sheets and Drive for one user.
type Client struct {
	sheets *gsheet.Service
	drive  *gdrive.Service
	title  string
	now    func() time.Time
	log    *slog.Logger
}

// Ensure interface conformance
var _ ports.Backend = (*Client)(nil)

func (c *Client) EnsureDocument(ctx context.Context, cachedID string) (ports.Resolution, error) {
	if cachedID != "" {
		_, err := c.sheets.Spreadsheets.Get(cachedID).Fields("spreadsheetId").Context(ctx).Do()
		if err == nil {
			return ports.Resolution{ID: cachedID}, nil
		}
		c.log.DebugContext(ctx, "Cached spreadsheet did not resolve", applog.FieldDocumentID, cachedID, applog.FieldError, err)
	}

	q := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", escapeQuery(c.title), spreadsheetMimeType)
	list, err := c.drive.Files.List().Q(q).PageSize(1).Fields("files(id,name)").Context(ctx).Do()
	if err != nil {
		return ports.Resolution{}, providerError("search spreadsheet", err)
	}
	if len(list.Files) > 0 {
		c.log.InfoContext(ctx, "Found spreadsheet", applog.FieldDocumentID, list.Files[0].Id)
		return ports.Resolution{ID: list.Files[0].Id, Persist: true}, nil
	}

	month := core.MonthOf(c.now()).String()
	created, err := c.sheets.Spreadsheets.Create(&gsheet.Spreadsheet{
		Properties: &gsheet.SpreadsheetProperties{Title: c.title},
		Sheets: []*gsheet.Sheet{{
			Properties: &gsheet.SheetProperties{Title: month},
			Data: []*gsheet.GridData{{
				RowData: []*gsheet.RowData{{Values: headerCells()}},
			}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return ports.Resolution{}, providerError("create spreadsheet", err)
	}
	c.log.InfoContext(ctx, "Created spreadsheet", applog.FieldDocumentID, created.SpreadsheetId, applog.FieldMonth, month)
	return ports.Resolution{ID: created.SpreadsheetId, Persist: true, Created: true}, nil
}

func (c *Client) EnsureMonthSheet(ctx context.Context, documentID string, month core.MonthKey) error {
	titles, err := c.sheetTitles(ctx, documentID)
	if err != nil {
		return err
	}
	name := month.String()
	for _, t := range titles {
		if t == name {
			return nil
		}
	}

	_, err = c.sheets.Spreadsheets.BatchUpdate(documentID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return providerError("add sheet", err)
	}

	header := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	_, err = c.sheets.Spreadsheets.Values.Update(documentID, a1(name, "A1:D1"), &gsheet.ValueRange{
		Values: [][]any{header},
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return providerError("write header", err)
	}
	c.log.InfoContext(ctx, "Added month sheet", applog.FieldDocumentID, documentID, applog.FieldMonth, name)
	return nil
}

func (c *Client) AppendRow(ctx context.Context, documentID string, row core.Expense) error {
	month, err := row.Month()
	if err != nil {
		return err
	}
	if err := c.EnsureMonthSheet(ctx, documentID, month); err != nil {
		return err
	}

	vr := &gsheet.ValueRange{Values: [][]any{{row.Date, string(row.Category), int64(row.Amount), row.Note}}}
	_, err = c.sheets.Spreadsheets.Values.Append(documentID, a1(month.String(), "A:D"), vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return providerError("append row", err)
	}
	c.log.DebugContext(ctx, "Appended row", applog.FieldDocumentID, documentID, applog.FieldMonth, month.String())
	return nil
}

func (c *Client) ReadRows(ctx context.Context, documentID string, month core.MonthKey) ([]core.Expense, error) {
	resp, err := c.sheets.Spreadsheets.Values.Get(documentID, a1(month.String(), "A1:D")).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		perr := providerError("read rows", err)
		if ports.IsNotFound(perr) {
			c.log.DebugContext(ctx, "Month sheet not found, treating as empty", applog.FieldMonth, month.String())
			return []core.Expense{}, nil
		}
		return nil, perr
	}
	rows := parseRows(resp.Values)
	c.log.DebugContext(ctx, "Read rows", applog.FieldMonth, month.String(), applog.FieldRows, len(rows))
	return rows, nil
}

func (c *Client) ListAvailableMonths(ctx context.Context, documentID string) ([]core.MonthKey, error) {
	titles, err := c.sheetTitles(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return monthKeys(titles), nil
}

func (c *Client) sheetTitles(ctx context.Context, documentID string) ([]string, error) {
	ss, err := c.sheets.Spreadsheets.Get(documentID).Fields("sheets(properties(title))").Context(ctx).Do()
	if err != nil {
		return nil, providerError("get spreadsheet", err)
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

func headerCells() []*gsheet.CellData {
	cells := make([]*gsheet.CellData, 0, len(ports.Header))
	for _, h := range ports.Header {
		v := h
		cells = append(cells, &gsheet.CellData{
			UserEnteredValue: &gsheet.ExtendedValue{StringValue: &v},
			UserEnteredFormat: &gsheet.CellFormat{
				TextFormat:      &gsheet.TextFormat{Bold: true},
				BackgroundColor: &gsheet.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
			},
		})
	}
	return cells
}

// a1 builds an A1 range on a quoted sheet name.
func a1(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}
