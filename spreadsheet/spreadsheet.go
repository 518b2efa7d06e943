// Package spreadsheet exposes a Google Sheets spreadsheet and its worksheets, with the values
// in A1-addressed ranges read and written through the Sheets API.
//
//	ss, err := spreadsheet.Open(ctx, "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms")
//	sales, err := ss.Sheet("Sales")
//	rows, err := sales.Get(ctx, "A1:G12")
//	_, err = sales.Set(ctx, "B1", 42)
package spreadsheet

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/uhppoted/gsheets/a1"
	"github.com/uhppoted/gsheets/auth"
)

type Spreadsheet struct {
	ID string

	service *sheets.Service
	log     *zap.Logger
	retries int
	backoff gax.Backoff

	mu       sync.RWMutex
	name     string
	locale   string
	timezone string
	sheets   []SheetInfo
}

// SheetInfo is the metadata for a single worksheet.
type SheetInfo struct {
	Title   string
	ID      int64
	Index   int64
	Rows    int64
	Columns int64
}

// ValueRange is the result of reading a range: the range actually returned by the API and
// the values as rows (or columns) of cells.
type ValueRange struct {
	Range          string
	MajorDimension string
	Values         [][]any
}

const metadataFields = "spreadsheetId,properties(title,locale,timeZone),sheets.properties(sheetId,title,index,gridProperties)"

// Open authorises access to a spreadsheet and retrieves the spreadsheet metadata. Unless a
// service is supplied with WithService, the credentials are resolved from the auth.Config given
// with WithAuth (default 'auth/cred.json' and 'auth/token.json').
func Open(ctx context.Context, id string, opts ...Option) (*Spreadsheet, error) {
	o := options{
		auth:    auth.DefaultConfig(),
		log:     zap.NewNop(),
		retries: DEFAULT_RETRIES,
		backoff: DefaultBackoff,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("missing spreadsheet ID")
	}

	service := o.service
	if service == nil {
		cfg := o.auth
		if cfg.Logger == nil {
			cfg.Logger = o.log
		}

		// ... token refreshes outlive the Open call
		client, err := auth.NewClient(context.WithoutCancel(ctx), cfg)
		if err != nil {
			return nil, fmt.Errorf("authentication/authorization error (%w)", err)
		}

		if service, err = sheets.NewService(ctx, option.WithHTTPClient(client)); err != nil {
			return nil, fmt.Errorf("unable to create new Sheets client (%w)", err)
		}
	}

	ss := Spreadsheet{
		ID:      strings.TrimSpace(id),
		service: service,
		log:     o.log.With(zap.String("spreadsheet", strings.TrimSpace(id))),
		retries: o.retries,
		backoff: o.backoff,
	}

	if err := ss.Refresh(ctx); err != nil {
		return nil, err
	}

	return &ss, nil
}

func (ss *Spreadsheet) Name() string {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	return ss.name
}

func (ss *Spreadsheet) Locale() string {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	return ss.locale
}

func (ss *Spreadsheet) TimeZone() string {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	return ss.timezone
}

// Sheets returns the worksheet metadata in tab order.
func (ss *Spreadsheet) Sheets() []SheetInfo {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	list := make([]SheetInfo, len(ss.sheets))
	copy(list, ss.sheets)

	return list
}

// Refresh retrieves the spreadsheet metadata.
func (ss *Spreadsheet) Refresh(ctx context.Context) error {
	metadata, err := call(ctx, ss, "Spreadsheet.Refresh", "", func(ctx context.Context) (*sheets.Spreadsheet, error) {
		return ss.service.Spreadsheets.Get(ss.ID).Fields(googleapi.Field(metadataFields)).Context(ctx).Do()
	})

	if err != nil {
		return err
	}

	if metadata.Properties == nil {
		return newError("Spreadsheet.Refresh", "", fmt.Errorf("spreadsheet metadata missing properties"))
	}

	list := []SheetInfo{}
	for _, sheet := range metadata.Sheets {
		if sheet == nil || sheet.Properties == nil {
			continue
		}

		info := SheetInfo{
			Title: sheet.Properties.Title,
			ID:    sheet.Properties.SheetId,
			Index: sheet.Properties.Index,
		}

		if grid := sheet.Properties.GridProperties; grid != nil {
			info.Rows = grid.RowCount
			info.Columns = grid.ColumnCount
		}

		list = append(list, info)
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].Index < list[j].Index })

	ss.mu.Lock()
	defer ss.mu.Unlock()

	ss.name = metadata.Properties.Title
	ss.locale = metadata.Properties.Locale
	ss.timezone = metadata.Properties.TimeZone
	ss.sheets = list

	ss.log.Debug("refreshed metadata", zap.String("title", ss.name), zap.Int("sheets", len(list)))

	return nil
}

// Sheet returns the worksheet with the title. An exact match is preferred, falling back to a
// case-insensitive match.
func (ss *Spreadsheet) Sheet(title string) (*Sheet, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	for _, info := range ss.sheets {
		if info.Title == title {
			return &Sheet{spreadsheet: ss, info: info}, nil
		}
	}

	for _, info := range ss.sheets {
		if strings.EqualFold(strings.TrimSpace(info.Title), strings.TrimSpace(title)) {
			return &Sheet{spreadsheet: ss, info: info}, nil
		}
	}

	return nil, invalid("Spreadsheet.Sheet", "", ErrSheetNotFound, "'%v' - check the spelling or refresh the metadata", title)
}

func (ss *Spreadsheet) SheetByID(id int64) (*Sheet, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	for _, info := range ss.sheets {
		if info.ID == id {
			return &Sheet{spreadsheet: ss, info: info}, nil
		}
	}

	return nil, invalid("Spreadsheet.SheetByID", "", ErrSheetNotFound, "sheet ID %v", id)
}

func (ss *Spreadsheet) lookup(id int64, title string) (SheetInfo, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	for _, info := range ss.sheets {
		if info.ID == id {
			return info, true
		}
	}

	for _, info := range ss.sheets {
		if info.Title == title {
			return info, true
		}
	}

	return SheetInfo{}, false
}

// AddSheet creates a new worksheet and refreshes the spreadsheet metadata.
func (ss *Spreadsheet) AddSheet(ctx context.Context, title string) (*Sheet, error) {
	const op = "Spreadsheet.AddSheet"

	if strings.TrimSpace(title) == "" {
		return nil, invalid(op, "", ErrInvalidOption, "missing sheet title")
	}

	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: title,
					},
				},
			},
		},
	}

	if _, err := call(ctx, ss, op, "", func(ctx context.Context) (*sheets.BatchUpdateSpreadsheetResponse, error) {
		return ss.service.Spreadsheets.BatchUpdate(ss.ID, &rq).Context(ctx).Do()
	}); err != nil {
		return nil, err
	}

	ss.log.Info("added sheet", zap.String("title", title))

	if err := ss.Refresh(ctx); err != nil {
		return nil, err
	}

	return ss.Sheet(title)
}

// BatchGet reads multiple ranges in a single request. Ranges without a sheet prefix refer to the
// first sheet.
func (ss *Spreadsheet) BatchGet(ctx context.Context, ranges ...string) ([]ValueRange, error) {
	const op = "Spreadsheet.BatchGet"

	qualified, err := ss.validate(op, ranges)
	if err != nil {
		return nil, err
	}

	response, err := call(ctx, ss, op, strings.Join(qualified, ","), func(ctx context.Context) (*sheets.BatchGetValuesResponse, error) {
		return ss.service.Spreadsheets.Values.BatchGet(ss.ID).Ranges(qualified...).Context(ctx).Do()
	})

	if err != nil {
		return nil, err
	}

	list := []ValueRange{}
	for _, v := range response.ValueRanges {
		if v != nil {
			list = append(list, ValueRange{
				Range:          v.Range,
				MajorDimension: v.MajorDimension,
				Values:         v.Values,
			})
		}
	}

	return list, nil
}

// BatchUpdate writes multiple ranges in a single request and returns the total number of
// updated cells.
func (ss *Spreadsheet) BatchUpdate(ctx context.Context, data map[string][][]any, input InputOption) (int64, error) {
	const op = "Spreadsheet.BatchUpdate"

	if input == "" {
		input = UserEntered
	}

	if !input.valid() {
		return 0, invalid(op, "", ErrInvalidOption, "input option '%v'", input)
	}

	ranges := make([]string, 0, len(data))
	for k := range data {
		ranges = append(ranges, k)
	}

	sort.Strings(ranges)

	qualified, err := ss.validate(op, ranges)
	if err != nil {
		return 0, err
	}

	rq := sheets.BatchUpdateValuesRequest{
		ValueInputOption: string(input),
		Data:             []*sheets.ValueRange{},
	}

	for i, r := range ranges {
		rq.Data = append(rq.Data, &sheets.ValueRange{
			Range:  qualified[i],
			Values: data[r],
		})
	}

	response, err := call(ctx, ss, op, strings.Join(qualified, ","), func(ctx context.Context) (*sheets.BatchUpdateValuesResponse, error) {
		return ss.service.Spreadsheets.Values.BatchUpdate(ss.ID, &rq).Context(ctx).Do()
	})

	if err != nil {
		return 0, err
	}

	ss.log.Debug("batch update", zap.Strings("ranges", qualified), zap.Int64("cells", response.TotalUpdatedCells))

	return response.TotalUpdatedCells, nil
}

// BatchClear clears multiple ranges in a single request and returns the cleared ranges.
func (ss *Spreadsheet) BatchClear(ctx context.Context, ranges ...string) ([]string, error) {
	const op = "Spreadsheet.BatchClear"

	qualified, err := ss.validate(op, ranges)
	if err != nil {
		return nil, err
	}

	rq := sheets.BatchClearValuesRequest{
		Ranges: qualified,
	}

	response, err := call(ctx, ss, op, strings.Join(qualified, ","), func(ctx context.Context) (*sheets.BatchClearValuesResponse, error) {
		return ss.service.Spreadsheets.Values.BatchClear(ss.ID, &rq).Context(ctx).Do()
	})

	if err != nil {
		return nil, err
	}

	return response.ClearedRanges, nil
}

// validate checks that every range is either a valid A1 range (with an optional sheet prefix)
// or the title of a known sheet, and returns the ranges with sheet titles quoted as required.
// A title that is also an A1 range (e.g. 'Q1') is taken as the range.
func (ss *Spreadsheet) validate(op string, ranges []string) ([]string, error) {
	if len(ranges) == 0 {
		return nil, invalid(op, "", ErrInvalidRange, "no ranges")
	}

	qualified := make([]string, len(ranges))
	for i, r := range ranges {
		if a1.Validate(r) {
			qualified[i] = r
			continue
		}

		if info, ok := ss.lookup(-1, strings.TrimSpace(r)); ok {
			qualified[i] = a1.Qualify(info.Title, "")
			continue
		}

		return nil, invalid(op, r, ErrInvalidRange, "'%v'", r)
	}

	return qualified, nil
}
