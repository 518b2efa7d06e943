package a1

import (
	"fmt"
	"strconv"
)

// GridRange is the 0-based, end-exclusive equivalent of an A1 range as used by the
// Sheets batchUpdate requests.
type GridRange struct {
	SheetID     *int64 `json:"sheetId,omitempty"`
	StartRow    int64  `json:"startRowIndex"`
	EndRow      int64  `json:"endRowIndex"`
	StartColumn int64  `json:"startColumnIndex"`
	EndColumn   int64  `json:"endColumnIndex"`
}

func ToGridRange(rng string) (GridRange, error) {
	if !Validate(rng) {
		return GridRange{}, fmt.Errorf("%w: '%v'", ErrInvalidRange, rng)
	}

	cells := Normalise(rng)

	if match := single.FindStringSubmatch(cells); match != nil {
		column := int64(ColumnIndex(match[1]))
		row, _ := strconv.ParseInt(match[2], 10, 64)

		return GridRange{
			StartRow:    row - 1,
			EndRow:      row,
			StartColumn: column,
			EndColumn:   column + 1,
		}, nil
	}

	if match := full.FindStringSubmatch(cells); match != nil {
		top, _ := strconv.ParseInt(match[2], 10, 64)
		bottom, _ := strconv.ParseInt(match[4], 10, 64)

		return GridRange{
			StartRow:    top - 1,
			EndRow:      bottom,
			StartColumn: int64(ColumnIndex(match[1])),
			EndColumn:   int64(ColumnIndex(match[3])) + 1,
		}, nil
	}

	return GridRange{}, fmt.Errorf("%w: '%v' is not a bounded range", ErrInvalidRange, rng)
}

func FromGridRange(g GridRange) (string, error) {
	if err := ValidateGridRange(g); err != nil {
		return "", err
	}

	return fmt.Sprintf("%v%v:%v%v",
		ColumnLetters(int(g.StartColumn)), g.StartRow+1,
		ColumnLetters(int(g.EndColumn-1)), g.EndRow), nil
}

func ValidateGridRange(g GridRange) error {
	switch {
	case g.StartRow < 0 || g.EndRow < 0 || g.StartColumn < 0 || g.EndColumn < 0:
		return fmt.Errorf("%w: negative grid index %+v", ErrInvalidRange, g)

	case g.StartRow >= g.EndRow:
		return fmt.Errorf("%w: start row %v overlaps end row %v", ErrInvalidRange, g.StartRow, g.EndRow)

	case g.StartColumn >= g.EndColumn:
		return fmt.Errorf("%w: start column %v overlaps end column %v", ErrInvalidRange, g.StartColumn, g.EndColumn)
	}

	return nil
}
