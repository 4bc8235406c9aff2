package service

import (
	"context"
	"errors"
	"ihidro-assist/internal/scrapers/ihidro"
)

// Reporter is where an Account sends the results of its operations, ex. a history
// store or a notifier.
//
// note: fault injection point
type Reporter interface {
	// ReportStatus receives every successfully fetched status.
	ReportStatus(ctx context.Context, account string, status ihidro.StatusRecord) error
	// ReportSubmissionResult receives the outcome of every submission that reached
	// the portal.
	ReportSubmissionResult(ctx context.Context, account, value string, ok bool) error
}

// MultiReporter reports to every Reporter in order, a failing Reporter does not
// stop the others.
type MultiReporter []Reporter

func (m MultiReporter) ReportStatus(ctx context.Context, account string, status ihidro.StatusRecord) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.ReportStatus(ctx, account, status))
	}
	return errors.Join(errs...)
}

func (m MultiReporter) ReportSubmissionResult(ctx context.Context, account, value string, ok bool) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.ReportSubmissionResult(ctx, account, value, ok))
	}
	return errors.Join(errs...)
}

// DiscardReporter drops everything reported to it.
type DiscardReporter struct{}

func (DiscardReporter) ReportStatus(context.Context, string, ihidro.StatusRecord) error {
	return nil
}

func (DiscardReporter) ReportSubmissionResult(context.Context, string, string, bool) error {
	return nil
}
