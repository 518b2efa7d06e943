package spreadsheet

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/uhppoted/gsheets/a1"
)

var (
	ErrInvalidRange  = a1.ErrInvalidRange
	ErrInvalidOption = errors.New("invalid option")
	ErrNoValues      = errors.New("no values")
	ErrSheetNotFound = errors.New("sheet not found")
)

// Error is returned by all Spreadsheet and Sheet operations. Code, Reason and Message are
// populated from the Sheets API error response (or the OAuth2 token endpoint response) when
// there is one.
type Error struct {
	Op      string
	Range   string
	Code    int
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.Op)
	if e.Range != "" {
		fmt.Fprintf(&b, " %v", e.Range)
	}

	if e.Code != 0 {
		fmt.Fprintf(&b, ": %v", e.Code)
		if e.Reason != "" {
			fmt.Fprintf(&b, " %v", e.Reason)
		}
		if e.Message != "" {
			fmt.Fprintf(&b, " %v", e.Message)
		}

		return b.String()
	}

	fmt.Fprintf(&b, ": %v", e.Err)

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, rng string, err error) *Error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{
			Op:      op,
			Range:   existing.Range,
			Code:    existing.Code,
			Reason:  existing.Reason,
			Message: existing.Message,
			Err:     existing.Err,
		}
	}

	e := Error{
		Op:    op,
		Range: rng,
		Err:   err,
	}

	var apierr *googleapi.Error
	var autherr *oauth2.RetrieveError

	switch {
	case errors.As(err, &apierr):
		e.Code = apierr.Code
		e.Message = apierr.Message
		if len(apierr.Errors) > 0 {
			e.Reason = apierr.Errors[0].Reason
		}

	case errors.As(err, &autherr) && autherr.Response != nil:
		e.Code = autherr.Response.StatusCode
		e.Reason = autherr.ErrorCode
		e.Message = autherr.ErrorDescription
	}

	return &e
}

func invalid(op, rng string, sentinel error, format string, args ...any) *Error {
	return &Error{
		Op:    op,
		Range: rng,
		Err:   fmt.Errorf("%w: %v", sentinel, fmt.Sprintf(format, args...)),
	}
}
