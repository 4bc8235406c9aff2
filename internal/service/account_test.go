package service

import (
	"context"
	"errors"
	"fmt"
	"ihidro-assist/internal/components/testutil"
	"ihidro-assist/internal/scrapers/ihidro"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePortal struct {
	state     ihidro.AuthState
	status    ihidro.StatusRecord
	prereqs   ihidro.SubmissionPrerequisites
	loginErr  error
	statusErr error
	submitErr error
	submitted []string
	closed    int
}

func (f *fakePortal) Login(context.Context) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.state = ihidro.LoggedIn
	return nil
}

func (f *fakePortal) FetchStatus(context.Context) (ihidro.StatusRecord, error) {
	if f.statusErr != nil {
		return ihidro.StatusRecord{}, f.statusErr
	}
	return f.status, nil
}

func (f *fakePortal) SubmitReading(_ context.Context, value string) error {
	f.submitted = append(f.submitted, value)
	return f.submitErr
}

func (f *fakePortal) Prerequisites(context.Context) (ihidro.SubmissionPrerequisites, error) {
	return f.prereqs, nil
}

func (f *fakePortal) State() ihidro.AuthState {
	return f.state
}

func (f *fakePortal) Close() error {
	f.closed++
	return nil
}

type submission struct {
	account string
	value   string
	ok      bool
}

type fakeReporter struct {
	statuses    []ihidro.StatusRecord
	submissions []submission
	err         error
}

func (f *fakeReporter) ReportStatus(_ context.Context, _ string, status ihidro.StatusRecord) error {
	f.statuses = append(f.statuses, status)
	return f.err
}

func (f *fakeReporter) ReportSubmissionResult(_ context.Context, account, value string, ok bool) error {
	f.submissions = append(f.submissions, submission{account: account, value: value, ok: ok})
	return f.err
}

var openStatus = ihidro.StatusRecord{
	TransmissionWindow: "15.03.2025 - 25.03.2025",
	InvoiceText:        "Sold curent: 0,00 lei",
	IsWindowOpen:       true,
}

func newTestAccount(portal *fakePortal, reporter Reporter) (Account, *testutil.RecordingAPI) {
	tel := &testutil.RecordingAPI{}
	return NewAccount("home", portal, reporter, WithCustomTelemetryAPI(tel)), tel
}

func TestRefresh(t *testing.T) {
	portal := &fakePortal{status: openStatus}
	reporter := &fakeReporter{}
	account, _ := newTestAccount(portal, reporter)

	status, err := account.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, openStatus, status)
	require.Equal(t, []ihidro.StatusRecord{openStatus}, reporter.statuses)
}

func TestRefreshFailure(t *testing.T) {
	portal := &fakePortal{statusErr: fmt.Errorf("%w: %w", ihidro.ErrLoginFailed, ihidro.ErrAuthFailed)}
	reporter := &fakeReporter{}
	account, tel := newTestAccount(portal, reporter)

	_, err := account.Refresh(context.Background())
	require.ErrorIs(t, err, ihidro.ErrAuthFailed)
	require.Empty(t, reporter.statuses)
	require.True(t, tel.Has(testutil.KindBroken, report_account_refresh))
}

func TestRefreshReporterFailure(t *testing.T) {
	portal := &fakePortal{status: openStatus}
	reporter := &fakeReporter{err: errors.New("disk full")}
	account, tel := newTestAccount(portal, reporter)

	status, err := account.Refresh(context.Background())
	require.ErrorIs(t, err, reporter.err)
	require.Equal(t, openStatus, status)
	require.True(t, tel.Has(testutil.KindBroken, report_reporter_status))
}

func TestSubmit(t *testing.T) {
	testCases := []struct {
		name      string
		submitErr error
		reported  []submission
	}{
		{
			name:     "accepted",
			reported: []submission{{account: "home", value: "4400", ok: true}},
		},
		{
			name:      "rejected",
			submitErr: ihidro.ErrSubmissionRejected,
			reported:  []submission{{account: "home", value: "4400", ok: false}},
		},
		{
			name:      "incomplete",
			submitErr: fmt.Errorf("%w: \"POD\"", ihidro.ErrScrapeIncomplete),
			reported:  []submission{{account: "home", value: "4400", ok: false}},
		},
		{
			name:      "never sent",
			submitErr: ihidro.ErrAccountNotConfigured,
		},
		{
			name:      "closed",
			submitErr: ihidro.ErrClientClosed,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			portal := &fakePortal{submitErr: test.submitErr}
			reporter := &fakeReporter{}
			account, _ := newTestAccount(portal, reporter)

			err := account.Submit(context.Background(), "4400")
			if test.submitErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, test.submitErr)
			}
			require.Equal(t, []string{"4400"}, portal.submitted)
			require.Equal(t, test.reported, reporter.submissions)
		})
	}
}

func TestSubmitReporterFailure(t *testing.T) {
	portal := &fakePortal{submitErr: ihidro.ErrSubmissionRejected}
	reporter := &fakeReporter{err: errors.New("disk full")}
	account, _ := newTestAccount(portal, reporter)

	err := account.Submit(context.Background(), "4400")
	require.ErrorIs(t, err, ihidro.ErrSubmissionRejected)
	require.ErrorIs(t, err, reporter.err)
}

func TestLogin(t *testing.T) {
	portal := &fakePortal{}
	account, _ := newTestAccount(portal, DiscardReporter{})

	require.NoError(t, account.Login(context.Background()))
	require.Equal(t, ihidro.LoggedIn, account.State())

	portal = &fakePortal{loginErr: fmt.Errorf("%w: %w", ihidro.ErrLoginFailed, ihidro.ErrAuthFailed)}
	account, tel := newTestAccount(portal, DiscardReporter{})
	require.ErrorIs(t, account.Login(context.Background()), ihidro.ErrAuthFailed)
	require.True(t, tel.Has(testutil.KindWarning, report_account_login))
	require.False(t, tel.Has(testutil.KindBroken, report_account_login))
}

func TestClose(t *testing.T) {
	portal := &fakePortal{}
	account, _ := newTestAccount(portal, DiscardReporter{})
	require.NoError(t, account.Close())
	require.Equal(t, 1, portal.closed)
}

func TestMultiReporter(t *testing.T) {
	first := &fakeReporter{err: errors.New("first broke")}
	second := &fakeReporter{}
	multi := MultiReporter{first, second}

	err := multi.ReportStatus(context.Background(), "home", openStatus)
	require.ErrorIs(t, err, first.err)
	require.Len(t, first.statuses, 1)
	require.Len(t, second.statuses, 1)

	err = multi.ReportSubmissionResult(context.Background(), "home", "4400", true)
	require.ErrorIs(t, err, first.err)
	require.Equal(t, []submission{{account: "home", value: "4400", ok: true}}, second.submissions)

	require.NoError(t, MultiReporter{second}.ReportStatus(context.Background(), "home", openStatus))
}
