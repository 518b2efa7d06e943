package spreadsheet

import (
	"time"

	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"

	"github.com/uhppoted/gsheets/auth"
)

// InputOption determines how input data is interpreted: RAW values are stored as-is, USER_ENTERED
// values are parsed as if typed into the UI (numbers, dates, formulas).
type InputOption string

// InsertDataOption determines how existing data is changed by an append: INSERT_ROWS inserts
// rows for the new data, OVERWRITE overwrites the cells after the table.
type InsertDataOption string

// MajorDimension determines whether values are given as rows or as columns.
type MajorDimension string

const (
	Raw         InputOption = "RAW"
	UserEntered InputOption = "USER_ENTERED"

	InsertRows InsertDataOption = "INSERT_ROWS"
	Overwrite  InsertDataOption = "OVERWRITE"

	Rows    MajorDimension = "ROWS"
	Columns MajorDimension = "COLUMNS"
)

func (o InputOption) valid() bool {
	return o == Raw || o == UserEntered
}

func (o InsertDataOption) valid() bool {
	return o == InsertRows || o == Overwrite
}

func (d MajorDimension) valid() bool {
	return d == Rows || d == Columns
}

// UpdateOptions for Sheet.Update. The zero value is USER_ENTERED and ROWS.
type UpdateOptions struct {
	Input     InputOption
	Dimension MajorDimension
}

// AppendOptions for Sheet.Append. The zero value is USER_ENTERED and INSERT_ROWS.
type AppendOptions struct {
	Input  InputOption
	Insert InsertDataOption
}

func (o UpdateOptions) withDefaults() UpdateOptions {
	if o.Input == "" {
		o.Input = UserEntered
	}

	if o.Dimension == "" {
		o.Dimension = Rows
	}

	return o
}

func (o AppendOptions) withDefaults() AppendOptions {
	if o.Input == "" {
		o.Input = UserEntered
	}

	if o.Insert == "" {
		o.Insert = InsertRows
	}

	return o
}

const DEFAULT_RETRIES = 3

var DefaultBackoff = gax.Backoff{
	Initial:    1 * time.Second,
	Max:        32 * time.Second,
	Multiplier: 2,
}

type Option func(*options)

type options struct {
	auth    auth.Config
	service *sheets.Service
	log     *zap.Logger
	retries int
	backoff gax.Backoff
}

// WithAuth sets the credentials and tokens files used to authorise access to the spreadsheet.
func WithAuth(cfg auth.Config) Option {
	return func(o *options) {
		o.auth = cfg
	}
}

// WithService uses an existing Sheets service instead of authorising a new one.
func WithService(service *sheets.Service) Option {
	return func(o *options) {
		o.service = service
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithRetries sets the maximum number of attempts for an API call that fails with a
// retryable status (429, 500, 502, 503, 504).
func WithRetries(attempts int) Option {
	return func(o *options) {
		if attempts > 0 {
			o.retries = attempts
		}
	}
}

func WithBackoff(backoff gax.Backoff) Option {
	return func(o *options) {
		o.backoff = backoff
	}
}
