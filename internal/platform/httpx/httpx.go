package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// StatusCode returns the first HTTP status exposed by an error in err's chain, or 0.
func StatusCode(err error) int {
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return 0
}

var overloadMarkers = []string{
	"overloaded",
	"service unavailable",
}

// IsOverloadError reports whether err signals a transient provider overload:
// a 503 status anywhere in the chain, or an overload phrase in the message.
func IsOverloadError(err error) bool {
	if err == nil {
		return false
	}
	if StatusCode(err) == http.StatusServiceUnavailable {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range overloadMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// BackoffDelay returns base * 2^(attempt-1) for a 1-based attempt number.
func BackoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 || attempt <= 0 {
		return 0
	}
	d := base
	for i := 1; i < attempt; i++ {
		if d > time.Duration(1<<62)/2 {
			return d
		}
		d *= 2
	}
	return d
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
