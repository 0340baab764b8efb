package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	osdk "github.com/openai/openai-go/v3"
)

// Kind classifies a describe failure.
type Kind string

const (
	KindRead          Kind = "read"
	KindAuth          Kind = "auth"
	KindRateLimit     Kind = "rate_limit"
	KindUpstream      Kind = "upstream"
	KindTimeout       Kind = "timeout"
	KindTransport     Kind = "transport"
	KindEmptyResponse Kind = "empty_response"
)

// DescribeError is returned by Client.Describe for every failure.
type DescribeError struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *DescribeError) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("describe %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("describe %s: %v", e.Kind, e.Err)
}

func (e *DescribeError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// KindFromError returns the failure kind, or "" when err is not a DescribeError.
func KindFromError(err error) Kind {
	var describeErr *DescribeError
	if errors.As(err, &describeErr) {
		return describeErr.Kind
	}

	return ""
}

// classify maps an inference call error to a DescribeError.
func classify(err error) *DescribeError {
	var apiErr *osdk.Error
	if errors.As(err, &apiErr) {
		kind := KindUpstream
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = KindAuth
		case http.StatusTooManyRequests:
			kind = KindRateLimit
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			kind = KindTimeout
		}
		return &DescribeError{Kind: kind, StatusCode: apiErr.StatusCode, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &DescribeError{Kind: KindTimeout, Err: err}
	}

	return &DescribeError{Kind: KindTransport, Err: err}
}
