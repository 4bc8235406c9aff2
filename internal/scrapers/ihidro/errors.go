package ihidro

import (
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrTransport is returned when the portal could not be reached or answered with a
	// non-success http status.
	ErrTransport = errors.New("ihidro: transport error")

	// ErrLoginFailed wraps every error returned from a login attempt.
	ErrLoginFailed = errors.New("ihidro: login failed")

	// ErrAuthFailed is returned when the portal answered the login but did not accept
	// the credentials.
	ErrAuthFailed = errors.New("ihidro: credentials rejected")

	// ErrScrapeIncomplete is returned when a page required for submission is missing
	// one of the fields the submission depends on.
	ErrScrapeIncomplete = errors.New("ihidro: required fields missing from page")

	// ErrSubmissionRejected is returned when the portal did not confirm a submission.
	ErrSubmissionRejected = errors.New("ihidro: submission rejected")

	// ErrClientClosed is returned by every operation after Close.
	ErrClientClosed = errors.New("ihidro: client closed")

	// ErrAccountNotConfigured is returned by submissions on a client that was
	// created without a utility account number.
	ErrAccountNotConfigured = errors.New("ihidro: utility account number not configured")

	// ErrInvalidReading is returned when the reading to submit is not a meter index.
	ErrInvalidReading = errors.New("ihidro: invalid meter reading")
)

func transportError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}

// checkResponse turns a failed request or a non-2xx response into an ErrTransport.
func checkResponse(op string, res *resty.Response, err error) error {
	if err != nil {
		return transportError(op, err)
	}
	if res.IsError() {
		return transportError(op, fmt.Errorf("unexpected status %s", res.Status()))
	}
	return nil
}
