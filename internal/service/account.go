package service

import (
	"context"
	"errors"
	"fmt"
	"ihidro-assist/internal/components/assert"
	"ihidro-assist/internal/components/telemetry"
	"ihidro-assist/internal/scrapers/ihidro"
)

const (
	report_account_login       = "account.login"
	report_account_refresh     = "account.refresh"
	report_account_submit      = "account.submit"
	report_account_prereqs     = "account.prerequisites"
	report_account_close       = "account.close"
	report_reporter_status     = "reporter.status"
	report_reporter_submission = "reporter.submission"
)

// PortalAPI is everything an Account needs from a portal session, it is implemented
// by *ihidro.Client.
//
// note: fault injection point
type PortalAPI interface {
	Login(ctx context.Context) error
	FetchStatus(ctx context.Context) (ihidro.StatusRecord, error)
	SubmitReading(ctx context.Context, value string) error
	Prerequisites(ctx context.Context) (ihidro.SubmissionPrerequisites, error)
	State() ihidro.AuthState
	Close() error
}

var _ PortalAPI = (*ihidro.Client)(nil)

// Account drives the portal session of a single account and hands every result to
// a Reporter.
//
// note: there should not be any cron jobs running in here, scheduling belongs to
// whatever owns the Account.
type Account struct {
	name     string
	portal   PortalAPI
	reporter Reporter
	tel      telemetry.API
}

type accountConfig struct {
	tel telemetry.API
}

type AccountOption func(cfg *accountConfig)

func WithCustomTelemetryAPI(tel telemetry.API) AccountOption {
	return func(cfg *accountConfig) {
		cfg.tel = tel
	}
}

// NewAccount creates an Account, it takes ownership of `portal` and closes it on Close.
func NewAccount(name string, portal PortalAPI, reporter Reporter, options ...AccountOption) Account {
	assert.NotEmptyStr(name)
	assert.NotNil(portal)
	assert.NotNil(reporter)

	cfg := accountConfig{}
	for _, opt := range options {
		opt(&cfg)
	}
	tel := cfg.tel
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}

	return Account{
		name:     name,
		portal:   portal,
		reporter: reporter,
		tel:      telemetry.NewScopedAPI("service", tel),
	}
}

func (a Account) Name() string {
	return a.name
}

func (a Account) State() ihidro.AuthState {
	return a.portal.State()
}

// Login checks the account credentials with a single login attempt.
func (a Account) Login(ctx context.Context) error {
	err := a.portal.Login(ctx)
	if err != nil {
		// rejected credentials are a user error, not a broken component
		if errors.Is(err, ihidro.ErrAuthFailed) {
			a.tel.ReportWarning(report_account_login, err, a.name)
		} else {
			a.tel.ReportBroken(report_account_login, err, a.name)
		}
		return err
	}
	return nil
}

// Refresh fetches the current status and reports it.
func (a Account) Refresh(ctx context.Context) (ihidro.StatusRecord, error) {
	status, err := a.portal.FetchStatus(ctx)
	if err != nil {
		a.tel.ReportBroken(report_account_refresh, err, a.name)
		return ihidro.StatusRecord{}, err
	}

	err = a.reporter.ReportStatus(ctx, a.name, status)
	if err != nil {
		a.tel.ReportBroken(report_reporter_status, err, a.name)
		return status, fmt.Errorf("report status: %w", err)
	}
	return status, nil
}

// Prerequisites returns what the portal currently shows as the basis for a new
// reading, nothing is reported.
func (a Account) Prerequisites(ctx context.Context) (ihidro.SubmissionPrerequisites, error) {
	prereqs, err := a.portal.Prerequisites(ctx)
	if err != nil {
		a.tel.ReportBroken(report_account_prereqs, err, a.name)
		return ihidro.SubmissionPrerequisites{}, err
	}
	return prereqs, nil
}

// Submit submits `value` as the new reading and reports the outcome. Submissions
// refused before anything was sent to the portal are not reported.
func (a Account) Submit(ctx context.Context, value string) error {
	err := a.portal.SubmitReading(ctx, value)
	if err != nil {
		a.tel.ReportBroken(report_account_submit, err, a.name, value)
		if !attempted(err) {
			return err
		}
	}

	reportErr := a.reporter.ReportSubmissionResult(ctx, a.name, value, err == nil)
	if reportErr != nil {
		a.tel.ReportBroken(report_reporter_submission, reportErr, a.name)
		return errors.Join(err, fmt.Errorf("report submission: %w", reportErr))
	}
	return err
}

func attempted(err error) bool {
	return !errors.Is(err, ihidro.ErrInvalidReading) &&
		!errors.Is(err, ihidro.ErrAccountNotConfigured) &&
		!errors.Is(err, ihidro.ErrClientClosed)
}

// Close closes the underlying portal session.
func (a Account) Close() error {
	err := a.portal.Close()
	if err != nil {
		a.tel.ReportBroken(report_account_close, err, a.name)
	}
	return err
}
