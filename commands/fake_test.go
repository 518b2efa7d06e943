package commands

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/uhppoted/gsheets/spreadsheet"
)

const SPREADSHEET = "1WUBUMIw0fk_dnFO_jnMUTCMS_t_esnYKPYndZIFXhIs"

// fake is an in-memory Sheets API server with a 'Sales' and an 'Archive' sheet.
type fake struct {
	sync.Mutex
	t      *testing.T
	values map[string][][]any
	paths  []string
}

func newFake(t *testing.T) *fake {
	return &fake{
		t:      t,
		values: map[string][][]any{},
	}
}

// options returns the global options for executing a command against the fake server.
func (f *fake) options() *Options {
	srv := httptest.NewServer(f)
	f.t.Cleanup(srv.Close)

	service, err := sheets.NewService(context.Background(), option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		f.t.Fatalf("error creating Sheets service (%v)", err)
	}

	return &Options{
		Env:         filepath.Join(f.t.TempDir(), ".env"),
		Logger:      zap.NewNop(),
		Spreadsheet: []spreadsheet.Option{spreadsheet.WithService(service)},
	}
}

func (f *fake) get(rng string) [][]any {
	f.Lock()
	defer f.Unlock()

	return f.values[rng]
}

func (f *fake) set(rng string, values [][]any) {
	f.Lock()
	defer f.Unlock()

	f.values[rng] = values
}

func (f *fake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.Lock()
	defer f.Unlock()

	f.paths = append(f.paths, r.Method+" "+r.URL.Path)

	var body struct {
		Values [][]any `json:"values"`
	}

	if b, err := io.ReadAll(r.Body); err == nil && len(b) > 0 {
		if err := json.Unmarshal(b, &body); err != nil {
			f.t.Errorf("invalid request body (%v)", err)
		}
	}

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/"+SPREADSHEET)
	rng := strings.TrimPrefix(path, "/values/")

	switch {
	case path == "":
		reply(w, map[string]any{
			"spreadsheetId": SPREADSHEET,
			"properties":    map[string]any{"title": "Budget", "locale": "en_GB", "timeZone": "Europe/London"},
			"sheets": []any{
				map[string]any{"properties": map[string]any{"sheetId": 0, "title": "Sales", "index": 0, "gridProperties": map[string]any{"rowCount": 1000, "columnCount": 26}}},
				map[string]any{"properties": map[string]any{"sheetId": 42, "title": "Archive", "index": 1, "gridProperties": map[string]any{"rowCount": 50, "columnCount": 5}}},
			},
		})

	case strings.HasSuffix(rng, ":append"):
		rng = strings.TrimSuffix(rng, ":append")
		f.values[rng] = append(f.values[rng], body.Values...)
		reply(w, map[string]any{"tableRange": rng, "updates": map[string]any{"updatedRange": rng, "updatedRows": len(body.Values)}})

	case strings.HasSuffix(rng, ":clear"):
		rng = strings.TrimSuffix(rng, ":clear")
		delete(f.values, rng)
		reply(w, map[string]any{"clearedRange": rng})

	case r.Method == http.MethodPut:
		f.values[rng] = body.Values
		reply(w, map[string]any{"updatedRange": rng, "updatedRows": len(body.Values)})

	case r.Method == http.MethodGet:
		reply(w, map[string]any{"range": rng, "values": f.values[rng]})

	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 404, "message": "not found"}})
	}
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
