package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Failure taxonomy for the synthesis pipeline. Every error surfaced by the
// orchestrator wraps exactly one of these sentinels so callers can classify
// with errors.Is.
var (
	// ErrConfiguration indicates a missing or invalid required setting.
	// Surfaced before any network call; never retried.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrAuthentication indicates the provider rejected the credential.
	ErrAuthentication = errors.New("authentication rejected")

	// ErrUnsupportedLanguage indicates the provider cannot serve the
	// requested language/model combination.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrRateLimited indicates the provider signalled throttling. Retryable.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderUnavailable indicates a transport failure, timeout or
	// provider-side outage. Retryable.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrAudioDecode indicates the assembler could not produce a valid
	// output asset from the per-chunk audio.
	ErrAudioDecode = errors.New("audio decode failure")
)

// IsRetryable reports whether an error is transient and worth another
// attempt under the bounded backoff policy.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProviderUnavailable)
}

// ClassifyStatus maps a non-2xx provider response onto the taxonomy. Both
// provider clients share this table so retry behavior cannot drift between
// them.
func ClassifyStatus(statusCode int, detail string) error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", ErrAuthentication, statusCode, detail)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", ErrRateLimited, statusCode, detail)
	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: status %d: %s", ErrUnsupportedLanguage, statusCode, detail)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, statusCode, detail)
	}
}

// ClassifyTransport maps a failed round trip (connection refused, DNS,
// context deadline) onto ErrProviderUnavailable. A context cancelled by the
// caller is passed through untouched.
func ClassifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
}
