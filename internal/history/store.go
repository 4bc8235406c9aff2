package history

import (
	"context"
	"database/sql"
	"fmt"
	"ihidro-assist/internal/components/assert"
	"ihidro-assist/internal/components/chrono"
	"ihidro-assist/internal/history/db"
	"ihidro-assist/internal/scrapers/ihidro"
	"time"
)

// Store keeps every status and submission reported for each account.
// It implements service.Reporter.
type Store struct {
	db   *sql.DB
	qry  *db.Queries
	time chrono.TimeAPI
}

func NewStore(database *sql.DB, clock chrono.TimeAPI) Store {
	assert.NotNil(database)
	assert.NotNil(clock)

	return Store{
		db:   database,
		qry:  db.New(database),
		time: clock,
	}
}

// Migrate creates the tables the store needs if they do not exist yet.
func Migrate(ctx context.Context, database *sql.DB) error {
	for _, stmt := range db.SchemaStatements() {
		_, err := database.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s Store) ReportStatus(ctx context.Context, account string, status ihidro.StatusRecord) error {
	return s.qry.CreateStatusReport(ctx, db.CreateStatusReportParams{
		Account:                  account,
		CreatedAt:                s.time.Now().Unix(),
		PerioadaTransmitereIndex: status.TransmissionWindow,
		TextFactura:              status.InvoiceText,
		EstePerioadaDeTrimitere:  status.IsWindowOpen,
	})
}

func (s Store) ReportSubmissionResult(ctx context.Context, account, value string, ok bool) error {
	return s.qry.CreateSubmissionReport(ctx, db.CreateSubmissionReportParams{
		Account:   account,
		CreatedAt: s.time.Now().Unix(),
		Value:     value,
		Success:   ok,
	})
}

type StatusEntry struct {
	Time   time.Time
	Status ihidro.StatusRecord
}

type SubmissionEntry struct {
	Time    time.Time
	Value   string
	Success bool
}

func fromUnix(seconds int64) time.Time {
	return time.Unix(seconds, 0).In(chrono.Bucharest())
}

// StatusHistory returns the last `limit` statuses of an account, newest first.
func (s Store) StatusHistory(ctx context.Context, account string, limit int) ([]StatusEntry, error) {
	rows, err := s.qry.ListStatusReports(ctx, db.ListStatusReportsParams{
		Account: account,
		Limit:   int64(limit),
	})
	if err != nil {
		return nil, err
	}

	entries := make([]StatusEntry, len(rows))
	for i, r := range rows {
		entries[i] = StatusEntry{
			Time: fromUnix(r.CreatedAt),
			Status: ihidro.StatusRecord{
				TransmissionWindow: r.PerioadaTransmitereIndex,
				InvoiceText:        r.TextFactura,
				IsWindowOpen:       r.EstePerioadaDeTrimitere,
			},
		}
	}
	return entries, nil
}

// LatestStatus returns the last status of an account, the boolean is false if
// nothing was ever reported for it.
func (s Store) LatestStatus(ctx context.Context, account string) (StatusEntry, bool, error) {
	entries, err := s.StatusHistory(ctx, account, 1)
	if err != nil {
		return StatusEntry{}, false, err
	}
	if len(entries) == 0 {
		return StatusEntry{}, false, nil
	}
	return entries[0], true, nil
}

// Submissions returns the last `limit` submissions of an account, newest first.
func (s Store) Submissions(ctx context.Context, account string, limit int) ([]SubmissionEntry, error) {
	rows, err := s.qry.ListSubmissionReports(ctx, db.ListSubmissionReportsParams{
		Account: account,
		Limit:   int64(limit),
	})
	if err != nil {
		return nil, err
	}

	entries := make([]SubmissionEntry, len(rows))
	for i, r := range rows {
		entries[i] = SubmissionEntry{
			Time:    fromUnix(r.CreatedAt),
			Value:   r.Value,
			Success: r.Success,
		}
	}
	return entries, nil
}

// Prune removes everything reported before `before`.
func (s Store) Prune(ctx context.Context, before time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.DeleteStatusReportsBefore(ctx, before.Unix())
	if err != nil {
		return err
	}
	err = txqry.DeleteSubmissionReportsBefore(ctx, before.Unix())
	if err != nil {
		return err
	}
	return tx.Commit()
}
