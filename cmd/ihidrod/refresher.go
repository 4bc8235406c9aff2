package main

import (
	"context"
	"ihidro-assist/internal/components/chrono"
	"ihidro-assist/internal/components/telemetry"
	"ihidro-assist/internal/history"
	"ihidro-assist/internal/service"
	"time"
)

const (
	report_refresh_account = "refresh.account"
	report_refresh_prune   = "refresh.prune"
	report_refresh_close   = "refresh.close"
	report_refresh_count   = "refresh.open-windows"
)

// bounds a single account refresh, a login and a page fetch
const refreshTimeout = 3 * time.Minute

type refresher struct {
	accounts []service.Account
	// nil if history is not kept
	store *history.Store
	// zero keeps history forever
	retention time.Duration
	time      chrono.TimeAPI
	tel       telemetry.API
}

func (r refresher) schedule(ctx context.Context, cron chrono.CronAPI, spec string) error {
	return cron.Cron(spec, func() {
		r.run(ctx)
	})
}

// run refreshes every account one after another, then prunes old history.
func (r refresher) run(ctx context.Context) {
	var open int64
	for _, account := range r.accounts {
		if ctx.Err() != nil {
			return
		}
		accountCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
		status, err := account.Refresh(accountCtx)
		cancel()
		if err != nil {
			r.tel.ReportWarning(report_refresh_account, err, account.Name())
			continue
		}
		if status.IsWindowOpen {
			open++
		}
	}
	r.tel.ReportCount(report_refresh_count, open)

	if r.store == nil || r.retention <= 0 {
		return
	}
	err := r.store.Prune(ctx, r.time.Now().Add(-r.retention))
	if err != nil {
		r.tel.ReportBroken(report_refresh_prune, err)
	}
}

func (r refresher) close() {
	for _, account := range r.accounts {
		err := account.Close()
		if err != nil {
			r.tel.ReportBroken(report_refresh_close, err, account.Name())
		}
	}
}
