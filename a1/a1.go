// Package a1 implements the A1 notation used by Google Sheets to address cells and ranges.
package a1

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidRange = errors.New("invalid range")

// MAX_COLUMNS is the number of columns addressable in a sheet i.e. A to ZZZ.
const MAX_COLUMNS = 18278

var (
	full    = regexp.MustCompile(`^([A-Z]{1,3})([1-9][0-9]*):([A-Z]{1,3})([1-9][0-9]*)$`)
	single  = regexp.MustCompile(`^([A-Z]{1,3})([1-9][0-9]*)$`)
	columns = regexp.MustCompile(`^([A-Z]{1,3}):([A-Z]{1,3})$`)
	rows    = regexp.MustCompile(`^([1-9][0-9]*):([1-9][0-9]*)$`)
	r1c1    = regexp.MustCompile(`^R[0-9]*C[0-9]*$`)
	plain   = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// ColumnIndex returns the 0-based index of a column, e.g. A -> 0, Z -> 25, AA -> 26.
// Returns -1 if the column is not a sequence of letters or is past ZZZ.
func ColumnIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	if column == "" || len(column) > 3 {
		return -1
	}

	index := 0
	for _, ch := range column {
		if ch < 'A' || ch > 'Z' {
			return -1
		}

		index = index*26 + int(ch-'A'+1)
	}

	return index - 1
}

// ColumnLetters is the inverse of ColumnIndex, e.g. 0 -> A, 26 -> AA.
func ColumnLetters(index int) string {
	if index < 0 {
		return ""
	}

	column := ""
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		column = string(rune('A'+(n-1)%26)) + column
	}

	return column
}

// Split separates the optional sheet prefix from a range, e.g. 'My Sheet'!A1:B2 -> (My Sheet, A1:B2).
func Split(rng string) (string, string) {
	rng = strings.TrimSpace(rng)

	ix := strings.LastIndex(rng, "!")
	if ix < 0 {
		return "", rng
	}

	sheet := rng[:ix]
	cells := rng[ix+1:]

	if len(sheet) >= 2 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}

	return sheet, cells
}

// Qualify prefixes a range with a sheet title, quoting the title if it contains
// anything other than letters, digits and underscores or if it could be read as a
// cell reference (e.g. a sheet named 'Q1').
func Qualify(sheet, cells string) string {
	title := sheet
	if !plain.MatchString(sheet) || Validate(sheet) || r1c1.MatchString(strings.ToUpper(sheet)) {
		title = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}

	if cells == "" {
		return title
	}

	return fmt.Sprintf("%v!%v", title, cells)
}

// Normalise strips the sheet prefix and whitespace and converts the range to uppercase.
func Normalise(rng string) string {
	_, cells := Split(rng)

	return strings.ToUpper(strings.TrimSpace(cells))
}

// Validate returns true for ranges of the form A1:B2, A1, A:B and 1:10 (with an optional
// sheet prefix) where the second corner does not precede the first.
func Validate(rng string) bool {
	cells := Normalise(rng)

	if single.MatchString(cells) {
		return true
	}

	if match := full.FindStringSubmatch(cells); match != nil {
		top, _ := strconv.Atoi(match[2])
		bottom, _ := strconv.Atoi(match[4])

		return top <= bottom && ColumnIndex(match[1]) <= ColumnIndex(match[3])
	}

	if match := columns.FindStringSubmatch(cells); match != nil {
		return ColumnIndex(match[1]) <= ColumnIndex(match[2])
	}

	if match := rows.FindStringSubmatch(cells); match != nil {
		top, _ := strconv.Atoi(match[1])
		bottom, _ := strconv.Atoi(match[2])

		return top <= bottom
	}

	return false
}

// IsCell returns true if the range addresses a single cell e.g. B7.
func IsCell(rng string) bool {
	return single.MatchString(Normalise(rng))
}

// Cell returns the 0-based column and 1-based row of a single cell reference.
func Cell(cell string) (int, int, error) {
	match := single.FindStringSubmatch(Normalise(cell))
	if match == nil {
		return 0, 0, fmt.Errorf("%w: '%v' is not a cell reference", ErrInvalidRange, cell)
	}

	row, err := strconv.Atoi(match[2])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: '%v' (%v)", ErrInvalidRange, cell, err)
	}

	return ColumnIndex(match[1]), row, nil
}

// Expand returns the range covered by a block of values anchored at a cell. A range
// that is not a single cell is returned unchanged.
func Expand(cell string, values [][]any) string {
	column, row, err := Cell(cell)
	if err != nil {
		return cell
	}

	width := 0
	for _, v := range values {
		if len(v) > width {
			width = len(v)
		}
	}

	if len(values) == 0 || width == 0 {
		return Normalise(cell)
	}

	return fmt.Sprintf("%v%v:%v%v",
		ColumnLetters(column), row,
		ColumnLetters(column+width-1), row+len(values)-1)
}
