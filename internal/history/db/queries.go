package db

import (
	"context"
)

const createStatusReport = `
insert into status_report (
    account, created_at, perioada_transmitere_index, text_factura, este_perioada_de_trimitere
) values (?, ?, ?, ?, ?)
`

type CreateStatusReportParams struct {
	Account                  string
	CreatedAt                int64
	PerioadaTransmitereIndex string
	TextFactura              string
	EstePerioadaDeTrimitere  bool
}

func (q *Queries) CreateStatusReport(ctx context.Context, arg CreateStatusReportParams) error {
	_, err := q.db.ExecContext(ctx, createStatusReport,
		arg.Account,
		arg.CreatedAt,
		arg.PerioadaTransmitereIndex,
		arg.TextFactura,
		arg.EstePerioadaDeTrimitere,
	)
	return err
}

const createSubmissionReport = `
insert into submission_report (account, created_at, value, success) values (?, ?, ?, ?)
`

type CreateSubmissionReportParams struct {
	Account   string
	CreatedAt int64
	Value     string
	Success   bool
}

func (q *Queries) CreateSubmissionReport(ctx context.Context, arg CreateSubmissionReportParams) error {
	_, err := q.db.ExecContext(ctx, createSubmissionReport,
		arg.Account,
		arg.CreatedAt,
		arg.Value,
		arg.Success,
	)
	return err
}

const listStatusReports = `
select id, account, created_at, perioada_transmitere_index, text_factura, este_perioada_de_trimitere
from status_report
where account = ?
order by created_at desc, id desc
limit ?
`

type ListStatusReportsParams struct {
	Account string
	Limit   int64
}

func (q *Queries) ListStatusReports(ctx context.Context, arg ListStatusReportsParams) ([]StatusReport, error) {
	rows, err := q.db.QueryContext(ctx, listStatusReports, arg.Account, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StatusReport
	for rows.Next() {
		var i StatusReport
		if err := rows.Scan(
			&i.ID,
			&i.Account,
			&i.CreatedAt,
			&i.PerioadaTransmitereIndex,
			&i.TextFactura,
			&i.EstePerioadaDeTrimitere,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listSubmissionReports = `
select id, account, created_at, value, success
from submission_report
where account = ?
order by created_at desc, id desc
limit ?
`

type ListSubmissionReportsParams struct {
	Account string
	Limit   int64
}

func (q *Queries) ListSubmissionReports(ctx context.Context, arg ListSubmissionReportsParams) ([]SubmissionReport, error) {
	rows, err := q.db.QueryContext(ctx, listSubmissionReports, arg.Account, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SubmissionReport
	for rows.Next() {
		var i SubmissionReport
		if err := rows.Scan(
			&i.ID,
			&i.Account,
			&i.CreatedAt,
			&i.Value,
			&i.Success,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteStatusReportsBefore = `
delete from status_report where created_at < ?
`

func (q *Queries) DeleteStatusReportsBefore(ctx context.Context, before int64) error {
	_, err := q.db.ExecContext(ctx, deleteStatusReportsBefore, before)
	return err
}

const deleteSubmissionReportsBefore = `
delete from submission_report where created_at < ?
`

func (q *Queries) DeleteSubmissionReportsBefore(ctx context.Context, before int64) error {
	_, err := q.db.ExecContext(ctx, deleteSubmissionReportsBefore, before)
	return err
}
