package spreadsheet

import (
	"context"
	"errors"
	"net/http"

	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

var retryable = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// call invokes an API request, retrying rate limited and transient server failures with
// exponential backoff.
func call[T any](ctx context.Context, ss *Spreadsheet, op, rng string, f func(context.Context) (T, error)) (T, error) {
	var zero T

	backoff := ss.backoff

	for attempt := 1; ; attempt++ {
		v, err := f(ctx)
		if err == nil {
			return v, nil
		}

		var apierr *googleapi.Error
		if !errors.As(err, &apierr) || !retryable[apierr.Code] || attempt >= ss.retries {
			return zero, newError(op, rng, err)
		}

		delay := backoff.Pause()

		ss.log.Warn("retrying request",
			zap.String("op", op),
			zap.String("range", rng),
			zap.Int("status", apierr.Code),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay))

		if err := gax.Sleep(ctx, delay); err != nil {
			return zero, newError(op, rng, err)
		}
	}
}
