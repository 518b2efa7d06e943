package spreadsheet

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"

	"github.com/uhppoted/gsheets/a1"
)

// Sheet is a single worksheet (tab) in a spreadsheet. Ranges passed to Sheet operations may
// omit the sheet prefix, and any prefix that is supplied is replaced by the sheet title.
type Sheet struct {
	spreadsheet *Spreadsheet

	mu   sync.RWMutex
	info SheetInfo
}

type UpdateResult struct {
	Range          string
	UpdatedRange   string
	UpdatedRows    int64
	UpdatedColumns int64
	UpdatedCells   int64
}

type AppendResult struct {
	Range        string
	TableRange   string
	UpdatedRange string
	UpdatedRows  int64
	UpdatedCells int64
}

func (s *Sheet) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.info.Title
}

func (s *Sheet) ID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.info.ID
}

func (s *Sheet) Info() SheetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.info
}

func (s *Sheet) Spreadsheet() *Spreadsheet {
	return s.spreadsheet
}

func (s *Sheet) String() string {
	info := s.Info()

	return fmt.Sprintf("sheet %q  ID:%v  spreadsheet:%q  rows:%v  columns:%v",
		info.Title, info.ID, s.spreadsheet.Name(), info.Rows, info.Columns)
}

// qualify validates a range and prefixes it with the sheet title. An empty range addresses
// the whole sheet.
func (s *Sheet) qualify(op, rng string) (string, error) {
	title := s.Title()

	if strings.TrimSpace(rng) == "" {
		return a1.Qualify(title, ""), nil
	}

	if !a1.Validate(rng) {
		return "", invalid(op, rng, ErrInvalidRange, "'%v'", rng)
	}

	return a1.Qualify(title, a1.Normalise(rng)), nil
}

// Get returns the rows of values in a range, or all the values in the sheet if the range is
// empty. Trailing empty rows and cells are omitted by the API, so the rows may be ragged.
func (s *Sheet) Get(ctx context.Context, rng string) ([][]any, error) {
	v, err := s.Values(ctx, rng)
	if err != nil {
		return nil, err
	}

	return v.Values, nil
}

// Values is Get but also returns the range returned by the API.
func (s *Sheet) Values(ctx context.Context, rng string) (*ValueRange, error) {
	const op = "Sheet.Get"

	qualified, err := s.qualify(op, rng)
	if err != nil {
		return nil, err
	}

	ss := s.spreadsheet
	response, err := call(ctx, ss, op, qualified, func(ctx context.Context) (*sheets.ValueRange, error) {
		return ss.service.Spreadsheets.Values.Get(ss.ID, qualified).Context(ctx).Do()
	})

	if err != nil {
		return nil, err
	}

	ss.log.Debug("get", zap.String("range", qualified), zap.Int("rows", len(response.Values)))

	return &ValueRange{
		Range:          response.Range,
		MajorDimension: response.MajorDimension,
		Values:         response.Values,
	}, nil
}

// Set writes a value to a cell or a range. A scalar value written to a single cell is an
// UpdateCell, anything else is converted to rows (a slice is a single row, a slice of slices
// is a block) and written with Update.
func (s *Sheet) Set(ctx context.Context, rng string, value any) (*UpdateResult, error) {
	if a1.IsCell(rng) && !isSlice(value) {
		return s.UpdateCell(ctx, rng, value)
	}

	return s.Update(ctx, rng, rowsOf(value), UpdateOptions{})
}

// Update writes a block of values. A single cell range is expanded to cover the block, e.g.
// 2 rows x 3 values at B2 updates B2:D3.
func (s *Sheet) Update(ctx context.Context, rng string, values [][]any, opts UpdateOptions) (*UpdateResult, error) {
	const op = "Sheet.Update"

	if strings.TrimSpace(rng) == "" {
		return nil, invalid(op, "", ErrInvalidRange, "no range specified")
	}

	opts = opts.withDefaults()

	if !opts.Input.valid() {
		return nil, invalid(op, rng, ErrInvalidOption, "input option '%v'", opts.Input)
	}

	if !opts.Dimension.valid() {
		return nil, invalid(op, rng, ErrInvalidOption, "major dimension '%v'", opts.Dimension)
	}

	if !a1.Validate(rng) {
		return nil, invalid(op, rng, ErrInvalidRange, "'%v'", rng)
	}

	cells := a1.Normalise(rng)
	if a1.IsCell(cells) {
		block := values
		if opts.Dimension == Columns {
			block = transpose(values)
		}

		cells = a1.Expand(cells, block)
	}

	qualified := a1.Qualify(s.Title(), cells)

	ss := s.spreadsheet
	body := sheets.ValueRange{
		MajorDimension: string(opts.Dimension),
		Values:         values,
	}

	response, err := call(ctx, ss, op, qualified, func(ctx context.Context) (*sheets.UpdateValuesResponse, error) {
		return ss.service.Spreadsheets.Values.Update(ss.ID, qualified, &body).
			ValueInputOption(string(opts.Input)).
			Context(ctx).
			Do()
	})

	if err != nil {
		return nil, err
	}

	ss.log.Debug("update", zap.String("range", qualified), zap.Int64("cells", response.UpdatedCells))

	return &UpdateResult{
		Range:          qualified,
		UpdatedRange:   response.UpdatedRange,
		UpdatedRows:    response.UpdatedRows,
		UpdatedColumns: response.UpdatedColumns,
		UpdatedCells:   response.UpdatedCells,
	}, nil
}

// UpdateCell writes a single value to a single cell.
func (s *Sheet) UpdateCell(ctx context.Context, cell string, value any) (*UpdateResult, error) {
	const op = "Sheet.UpdateCell"

	if !a1.IsCell(cell) {
		return nil, invalid(op, cell, ErrInvalidRange, "'%v' is not a cell", cell)
	}

	result, err := s.Update(ctx, cell, [][]any{{value}}, UpdateOptions{})
	if err != nil {
		return nil, newError(op, cell, err)
	}

	return result, nil
}

// Append adds rows after the last row of the table found in the range (or the sheet if the range
// is empty).
func (s *Sheet) Append(ctx context.Context, rng string, values [][]any, opts AppendOptions) (*AppendResult, error) {
	const op = "Sheet.Append"

	if len(values) == 0 {
		return nil, invalid(op, rng, ErrNoValues, "nothing to append")
	}

	opts = opts.withDefaults()

	if !opts.Input.valid() {
		return nil, invalid(op, rng, ErrInvalidOption, "input option '%v'", opts.Input)
	}

	if !opts.Insert.valid() {
		return nil, invalid(op, rng, ErrInvalidOption, "insert data option '%v'", opts.Insert)
	}

	qualified, err := s.qualify(op, rng)
	if err != nil {
		return nil, err
	}

	ss := s.spreadsheet
	body := sheets.ValueRange{
		Values: values,
	}

	response, err := call(ctx, ss, op, qualified, func(ctx context.Context) (*sheets.AppendValuesResponse, error) {
		return ss.service.Spreadsheets.Values.Append(ss.ID, qualified, &body).
			ValueInputOption(string(opts.Input)).
			InsertDataOption(string(opts.Insert)).
			Context(ctx).
			Do()
	})

	if err != nil {
		return nil, err
	}

	result := AppendResult{
		Range:      qualified,
		TableRange: response.TableRange,
	}

	if response.Updates != nil {
		result.UpdatedRange = response.Updates.UpdatedRange
		result.UpdatedRows = response.Updates.UpdatedRows
		result.UpdatedCells = response.Updates.UpdatedCells
	}

	ss.log.Debug("append", zap.String("range", qualified), zap.Int64("rows", result.UpdatedRows))

	return &result, nil
}

// Clear removes the values (but not the formatting) from a range, or the whole sheet if the
// range is empty. Returns the cleared range.
func (s *Sheet) Clear(ctx context.Context, rng string) (string, error) {
	const op = "Sheet.Clear"

	qualified, err := s.qualify(op, rng)
	if err != nil {
		return "", err
	}

	ss := s.spreadsheet
	response, err := call(ctx, ss, op, qualified, func(ctx context.Context) (*sheets.ClearValuesResponse, error) {
		return ss.service.Spreadsheets.Values.Clear(ss.ID, qualified, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	})

	if err != nil {
		return "", err
	}

	ss.log.Debug("clear", zap.String("range", qualified), zap.String("cleared", response.ClearedRange))

	return response.ClearedRange, nil
}

// Refresh reloads the spreadsheet metadata and updates the sheet from it, matching by sheet ID
// first so that a renamed sheet is still found.
func (s *Sheet) Refresh(ctx context.Context) error {
	if err := s.spreadsheet.Refresh(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.spreadsheet.lookup(s.info.ID, s.info.Title)
	if !ok {
		return invalid("Sheet.Refresh", "", ErrSheetNotFound, "'%v' (ID %v) may have been deleted", s.info.Title, s.info.ID)
	}

	s.info = info

	return nil
}

func isSlice(v any) bool {
	if v == nil {
		return false
	}

	k := reflect.TypeOf(v).Kind()

	return k == reflect.Slice || k == reflect.Array
}

func rowsOf(v any) [][]any {
	if rows, ok := v.([][]any); ok {
		return rows
	}

	if !isSlice(v) {
		return [][]any{{v}}
	}

	value := reflect.ValueOf(v)
	if value.Len() == 0 {
		return [][]any{}
	}

	nested := false
	for i := 0; i < value.Len(); i++ {
		if isSlice(value.Index(i).Interface()) {
			nested = true
			break
		}
	}

	if !nested {
		return [][]any{items(value)}
	}

	rows := [][]any{}
	for i := 0; i < value.Len(); i++ {
		e := value.Index(i).Interface()
		if isSlice(e) {
			rows = append(rows, items(reflect.ValueOf(e)))
		} else {
			rows = append(rows, []any{e})
		}
	}

	return rows
}

func items(value reflect.Value) []any {
	row := make([]any, value.Len())
	for i := range row {
		row[i] = value.Index(i).Interface()
	}

	return row
}

func transpose(values [][]any) [][]any {
	width := 0
	for _, row := range values {
		if len(row) > width {
			width = len(row)
		}
	}

	columns := make([][]any, width)
	for i := range columns {
		columns[i] = make([]any, len(values))
	}

	for r, row := range values {
		for c, v := range row {
			columns[c][r] = v
		}
	}

	return columns
}
