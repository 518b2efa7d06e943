package spreadsheet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const SPREADSHEET = "1WUBUMIw0fk_dnFO_jnMUTCMS_t_esnYKPYndZIFXhIs"

type tab struct {
	ID      int64
	Title   string
	Rows    int64
	Columns int64
}

type request struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   map[string]any
}

// fake is a minimal in-memory Sheets API server. Values are stored by the (decoded) range in
// the request path.
type fake struct {
	sync.Mutex
	t *testing.T

	title    string
	locale   string
	timezone string
	tabs     []tab
	values   map[string][][]any
	failures []int
	requests []request
}

func newFake(t *testing.T) *fake {
	return &fake{
		t:        t,
		title:    "Budget",
		locale:   "en_US",
		timezone: "America/New_York",
		tabs: []tab{
			{ID: 0, Title: "Sales", Rows: 1000, Columns: 26},
			{ID: 1729, Title: "Q1 Report", Rows: 100, Columns: 10},
		},
		values: map[string][][]any{},
	}
}

// service starts the fake server and returns a Sheets service that connects to it.
func (f *fake) service() *sheets.Service {
	f.t.Helper()

	srv := httptest.NewServer(f)
	f.t.Cleanup(srv.Close)

	service, err := sheets.NewService(context.Background(), option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		f.t.Fatalf("error creating Sheets service (%v)", err)
	}

	return service
}

// open opens the test spreadsheet through a fake server.
func (f *fake) open(opts ...Option) *Spreadsheet {
	f.t.Helper()

	options := []Option{
		WithService(f.service()),
		WithBackoff(gax.Backoff{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1}),
	}

	ss, err := Open(context.Background(), SPREADSHEET, append(options, opts...)...)
	if err != nil {
		f.t.Fatalf("error opening spreadsheet (%v)", err)
	}

	return ss
}

func (f *fake) fail(codes ...int) {
	f.Lock()
	defer f.Unlock()

	f.failures = append(f.failures, codes...)
}

func (f *fake) set(rng string, values [][]any) {
	f.Lock()
	defer f.Unlock()

	f.values[rng] = values
}

func (f *fake) get(rng string) ([][]any, bool) {
	f.Lock()
	defer f.Unlock()

	v, ok := f.values[rng]

	return v, ok
}

func (f *fake) reset() {
	f.Lock()
	defer f.Unlock()

	f.requests = nil
}

func (f *fake) calls() []request {
	f.Lock()
	defer f.Unlock()

	return append([]request{}, f.requests...)
}

func (f *fake) last() request {
	f.t.Helper()

	list := f.calls()
	if len(list) == 0 {
		f.t.Fatalf("no requests")
	}

	return list[len(list)-1]
}

func (f *fake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.Lock()
	defer f.Unlock()

	rq := request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
	}

	if b, err := io.ReadAll(r.Body); err == nil && len(b) > 0 {
		if err := json.Unmarshal(b, &rq.Body); err != nil {
			f.t.Errorf("invalid request body (%v)", err)
		}
	}

	f.requests = append(f.requests, rq)

	if len(f.failures) > 0 {
		code := f.failures[0]
		f.failures = f.failures[1:]
		f.error(w, code, "injected failure")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/")
	if !strings.HasPrefix(path, SPREADSHEET) {
		f.error(w, http.StatusNotFound, "Requested entity was not found.")
		return
	}

	path = strings.TrimPrefix(path, SPREADSHEET)

	switch {
	case path == "" && r.Method == http.MethodGet:
		f.reply(w, f.metadata())

	case path == ":batchUpdate":
		f.addSheet(w, rq.Body)

	case path == "/values:batchGet":
		list := []any{}
		for _, rng := range rq.Query["ranges"] {
			list = append(list, map[string]any{"range": rng, "majorDimension": "ROWS", "values": f.values[rng]})
		}
		f.reply(w, map[string]any{"spreadsheetId": SPREADSHEET, "valueRanges": list})

	case path == "/values:batchUpdate":
		total := 0
		data, _ := rq.Body["data"].([]any)
		for _, d := range data {
			vr := d.(map[string]any)
			values := rows(vr["values"])
			f.values[vr["range"].(string)] = values
			total += count(values)
		}
		f.reply(w, map[string]any{"spreadsheetId": SPREADSHEET, "totalUpdatedCells": total})

	case path == "/values:batchClear":
		cleared := []string{}
		ranges, _ := rq.Body["ranges"].([]any)
		for _, rng := range ranges {
			delete(f.values, rng.(string))
			cleared = append(cleared, rng.(string))
		}
		f.reply(w, map[string]any{"spreadsheetId": SPREADSHEET, "clearedRanges": cleared})

	case strings.HasPrefix(path, "/values/") && strings.HasSuffix(path, ":append"):
		rng := strings.TrimSuffix(strings.TrimPrefix(path, "/values/"), ":append")
		values := rows(rq.Body["values"])
		f.values[rng] = append(f.values[rng], values...)
		f.reply(w, map[string]any{
			"spreadsheetId": SPREADSHEET,
			"tableRange":    rng,
			"updates": map[string]any{
				"updatedRange": rng,
				"updatedRows":  len(values),
				"updatedCells": count(values),
			},
		})

	case strings.HasPrefix(path, "/values/") && strings.HasSuffix(path, ":clear"):
		rng := strings.TrimSuffix(strings.TrimPrefix(path, "/values/"), ":clear")
		delete(f.values, rng)
		f.reply(w, map[string]any{"spreadsheetId": SPREADSHEET, "clearedRange": rng})

	case strings.HasPrefix(path, "/values/") && r.Method == http.MethodGet:
		rng := strings.TrimPrefix(path, "/values/")
		response := map[string]any{"range": rng, "majorDimension": "ROWS"}
		if values, ok := f.values[rng]; ok {
			response["values"] = values
		}
		f.reply(w, response)

	case strings.HasPrefix(path, "/values/") && r.Method == http.MethodPut:
		rng := strings.TrimPrefix(path, "/values/")
		values := rows(rq.Body["values"])
		width := 0
		for _, row := range values {
			width = max(width, len(row))
		}
		f.values[rng] = values
		f.reply(w, map[string]any{
			"spreadsheetId":  SPREADSHEET,
			"updatedRange":   rng,
			"updatedRows":    len(values),
			"updatedColumns": width,
			"updatedCells":   count(values),
		})

	default:
		f.error(w, http.StatusNotFound, fmt.Sprintf("unexpected request %v %v", r.Method, r.URL.Path))
	}
}

func (f *fake) metadata() map[string]any {
	list := []any{}
	for i, t := range f.tabs {
		list = append(list, map[string]any{
			"properties": map[string]any{
				"sheetId": t.ID,
				"title":   t.Title,
				"index":   i,
				"gridProperties": map[string]any{
					"rowCount":    t.Rows,
					"columnCount": t.Columns,
				},
			},
		})
	}

	return map[string]any{
		"spreadsheetId": SPREADSHEET,
		"properties": map[string]any{
			"title":    f.title,
			"locale":   f.locale,
			"timeZone": f.timezone,
		},
		"sheets": list,
	}
}

func (f *fake) addSheet(w http.ResponseWriter, body map[string]any) {
	requests, _ := body["requests"].([]any)
	if len(requests) != 1 {
		f.error(w, http.StatusBadRequest, "expected 1 request")
		return
	}

	title := requests[0].(map[string]any)["addSheet"].(map[string]any)["properties"].(map[string]any)["title"].(string)
	for _, t := range f.tabs {
		if t.Title == title {
			f.error(w, http.StatusBadRequest, fmt.Sprintf("A sheet with the name %q already exists.", title))
			return
		}
	}

	t := tab{ID: int64(1000 + len(f.tabs)), Title: title, Rows: 1000, Columns: 26}
	f.tabs = append(f.tabs, t)

	f.reply(w, map[string]any{
		"spreadsheetId": SPREADSHEET,
		"replies": []any{
			map[string]any{"addSheet": map[string]any{"properties": map[string]any{"sheetId": t.ID, "title": t.Title}}},
		},
	})
}

func (f *fake) reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		f.t.Errorf("error encoding response (%v)", err)
	}
}

func (f *fake) error(w http.ResponseWriter, code int, message string) {
	reasons := map[int]string{
		http.StatusBadRequest:         "badRequest",
		http.StatusNotFound:           "notFound",
		http.StatusTooManyRequests:    "rateLimitExceeded",
		http.StatusServiceUnavailable: "backendError",
	}

	reason := reasons[code]
	if reason == "" {
		reason = "backendError"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"errors":  []any{map[string]any{"reason": reason, "message": message}},
		},
	})
}

func rows(v any) [][]any {
	list, _ := v.([]any)
	values := [][]any{}
	for _, row := range list {
		r, _ := row.([]any)
		values = append(values, r)
	}

	return values
}

func count(values [][]any) int {
	n := 0
	for _, row := range values {
		n += len(row)
	}

	return n
}
