package main

import (
	"context"
	"errors"
	"ihidro-assist/internal/components/testutil"
	"ihidro-assist/internal/history"
	"ihidro-assist/internal/history/db"
	"ihidro-assist/internal/scrapers/ihidro"
	"ihidro-assist/internal/service"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubPortal struct {
	status ihidro.StatusRecord
	err    error
	closed bool
}

func (p *stubPortal) Login(context.Context) error {
	return p.err
}

func (p *stubPortal) FetchStatus(context.Context) (ihidro.StatusRecord, error) {
	return p.status, p.err
}

func (p *stubPortal) SubmitReading(context.Context, string) error {
	return p.err
}

func (p *stubPortal) Prerequisites(context.Context) (ihidro.SubmissionPrerequisites, error) {
	return ihidro.SubmissionPrerequisites{}, p.err
}

func (p *stubPortal) State() ihidro.AuthState {
	return ihidro.LoggedIn
}

func (p *stubPortal) Close() error {
	p.closed = true
	return nil
}

type recordingCron struct {
	specs     []string
	callbacks []func()
}

func (c *recordingCron) Cron(spec string, callback func()) error {
	c.specs = append(c.specs, spec)
	c.callbacks = append(c.callbacks, callback)
	return nil
}

func TestRefresher(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.March, 15, 9, 0, 0, 0, time.UTC)
	clock := testutil.FixedTime{Time: now}
	store := history.NewStore(testutil.SetupStore(t, db.Schema), clock)
	tel := &testutil.RecordingAPI{}

	home := &stubPortal{status: ihidro.StatusRecord{
		TransmissionWindow: "15.03.2025 - 25.03.2025",
		IsWindowOpen:       true,
	}}
	broken := &stubPortal{err: ihidro.ErrTransport}
	cabana := &stubPortal{status: ihidro.StatusRecord{TransmissionWindow: ihidro.WindowClosed}}

	r := refresher{
		accounts: []service.Account{
			service.NewAccount("home", home, store, service.WithCustomTelemetryAPI(tel)),
			service.NewAccount("broken", broken, store, service.WithCustomTelemetryAPI(tel)),
			service.NewAccount("cabana", cabana, store, service.WithCustomTelemetryAPI(tel)),
		},
		store:     &store,
		retention: 24 * time.Hour,
		time:      clock,
		tel:       tel,
	}

	cron := &recordingCron{}
	require.NoError(t, r.schedule(ctx, cron, "0 9 * * *"))
	require.Equal(t, []string{"0 9 * * *"}, cron.specs)
	cron.callbacks[0]()

	latest, found, err := store.LatestStatus(ctx, "home")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, latest.Status.IsWindowOpen)

	// a failing account does not stop the ones after it
	_, found, err = store.LatestStatus(ctx, "cabana")
	require.NoError(t, err)
	require.True(t, found)
	_, found, err = store.LatestStatus(ctx, "broken")
	require.NoError(t, err)
	require.False(t, found)
	require.True(t, tel.Has(testutil.KindWarning, report_refresh_account))

	counts := tel.Reports(testutil.KindCount)
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(1)}, counts[0].Params)

	r.close()
	require.True(t, home.closed)
	require.True(t, broken.closed)
	require.True(t, cabana.closed)
}

func TestRefresherPrune(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	database := testutil.SetupStore(t, db.Schema)

	old := history.NewStore(database, testutil.FixedTime{Time: start})
	require.NoError(t, old.ReportStatus(ctx, "home", ihidro.StatusRecord{TransmissionWindow: ihidro.WindowClosed}))

	clock := testutil.FixedTime{Time: start.Add(10 * 24 * time.Hour)}
	store := history.NewStore(database, clock)
	portal := &stubPortal{status: ihidro.StatusRecord{TransmissionWindow: "1 - 9", IsWindowOpen: true}}
	r := refresher{
		accounts:  []service.Account{service.NewAccount("home", portal, store)},
		store:     &store,
		retention: 7 * 24 * time.Hour,
		time:      clock,
		tel:       &testutil.RecordingAPI{},
	}
	r.run(ctx)

	entries, err := store.StatusHistory(ctx, "home", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "1 - 9", entries[0].Status.TransmissionWindow)
}

func TestRefresherStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	portal := &stubPortal{err: errors.New("should not be called")}
	tel := &testutil.RecordingAPI{}
	r := refresher{
		accounts: []service.Account{service.NewAccount("home", portal, service.DiscardReporter{})},
		tel:      tel,
	}
	r.run(ctx)
	require.False(t, tel.Has(testutil.KindWarning, report_refresh_account))
}
