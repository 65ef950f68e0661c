package strava

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"strava-kudos-bot/infrastructure/logger"

	"github.com/cenkalti/backoff/v4"
)

// RetryTransport retries connection failures and 500/502/503/504 responses
// with exponential backoff. Once retries are exhausted the last response is
// returned untouched so the caller sees the real status.
type RetryTransport struct {
	Base            http.RoundTripper
	MaxRetries      int
	InitialInterval time.Duration
}

func (t *RetryTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *RetryTransport) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if t.InitialInterval > 0 {
		b.InitialInterval = t.InitialInterval
	}
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	maxRetries := t.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(t.newBackOff(), uint64(maxRetries)), req.Context())

	var resp *http.Response
	attempt := 0
	operation := func() error {
		attempt++
		attemptReq, err := rewind(req, attempt)
		if err != nil {
			return backoff.Permanent(err)
		}
		r, err := t.base().RoundTrip(attemptReq)
		if err != nil {
			resp = nil
			return err
		}
		if retryableStatus(r.StatusCode) && attempt <= maxRetries {
			_, _ = io.Copy(io.Discard, r.Body)
			_ = r.Body.Close()
			resp = nil
			return fmt.Errorf("retryable status %d", r.StatusCode)
		}
		resp = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":   err.Error(),
			"method":  req.Method,
			"url":     req.URL.Redacted(),
			"attempt": attempt,
			"retryIn": wait.String(),
		}).Warn("Strava request failed, retrying")
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return resp, nil
}

// rewind prepares a copy of req for the given attempt with a body that can be read again
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody || (attempt == 1 && req.GetBody == nil) {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body for %s %s cannot be replayed", req.Method, req.URL.Redacted())
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}
