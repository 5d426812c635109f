package pg

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	db "github.com/airbusgeo/s2-exporter/interface/database"
	"github.com/lib/pq"
)

//go:embed db.sql
var schema string

// pgInterface allows to use either a sql.DB or a sql.Tx
type pgInterface interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// BackendDB implements db.Ledger
type BackendDB struct {
	*sql.DB
	Backend
}

// Backend implements db.Ledger
type Backend struct {
	pgInterface
}

/* http://www.postgresql.org/docs/9.3/static/errcodes-appendix.html */
const (
	noError           = "00000"
	connectionFailure = "08006"
	uniqueViolation   = "23505"

	notPqError = "X"
)

func pqErrorCode(err error) pq.ErrorCode {
	if err == nil {
		return noError
	}
	var pqerr *pq.Error
	if errors.As(err, &pqerr) {
		return pqerr.Code
	}
	return notPqError
}

// New creates a new backend using Postgres
func New(ctx context.Context, dbConnection string) (*BackendDB, error) {
	db, err := sql.Open("postgres", dbConnection)
	if err != nil {
		return nil, fmt.Errorf("sql.open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("New.Ping: %w", err)
	}
	return &BackendDB{db, Backend{pgInterface: db}}, nil
}

// CreateSchema creates the tables if they do not exist
func (b Backend) CreateSchema(ctx context.Context) error {
	if _, err := b.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("CreateSchema.exec: %w", err)
	}
	return nil
}

// RecordJob implements db.Ledger
func (b Backend) RecordJob(ctx context.Context, job db.Job) error {
	_, err := b.ExecContext(ctx,
		"insert into export_jobs(run_id, description, product, backend, handle_id, status, message, submitted_at, rank) values($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		job.RunID, job.Description, job.Product, job.Backend, job.HandleID, job.Status, job.Message, job.SubmittedAt, job.Rank)
	switch pqErrorCode(err) {
	case noError:
		return nil
	case uniqueViolation:
		return db.ErrAlreadyExists{Type: "export job", ID: job.RunID + "/" + job.Description}
	default:
		return fmt.Errorf("RecordJob.exec: %w", err)
	}
}

// ListJobs implements db.Ledger
func (b Backend) ListJobs(ctx context.Context, runID string) ([]db.Job, error) {
	rows, err := b.QueryContext(ctx,
		"select run_id, description, product, backend, handle_id, status, message, submitted_at, rank from export_jobs where run_id = $1 ORDER BY rank, description", runID)
	if err != nil {
		return nil, fmt.Errorf("ListJobs.QueryContext: %w", err)
	}
	defer rows.Close()
	jobs := make([]db.Job, 0)
	for rows.Next() {
		var j db.Job
		if err := rows.Scan(&j.RunID, &j.Description, &j.Product, &j.Backend, &j.HandleID, &j.Status, &j.Message, &j.SubmittedAt, &j.Rank); err != nil {
			return nil, fmt.Errorf("ListJobs.Scan: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListJobs.rows.err: %w", err)
	}
	if len(jobs) == 0 {
		return nil, db.ErrNotFound{Type: "run", ID: runID}
	}
	return jobs, nil
}
