// Package pgstore provides a PostgreSQL implementation of vuln.Store.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/warden/internal/postgres"
	"github.com/linnemanlabs/warden/internal/vuln"
)

var tracer = otel.Tracer("github.com/linnemanlabs/warden/internal/vuln/pgstore")

//go:embed schema.sql
var schema string

// Store persists vulnerability records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on pool and returns a ready Store. The caller owns the pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const recordColumns = `id, title, endpoint, severity, cve, description, sensor, created_at, updated_at`

func startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(postgres.WithOperation(ctx, name), name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// List returns every record ordered by creation time.
func (s *Store) List(ctx context.Context) ([]vuln.Record, error) {
	ctx, span := startSpan(ctx, "pgstore.List", "SELECT")
	defer span.End()

	rows, err := s.pool.Query(ctx, `SELECT `+recordColumns+` FROM vulnerabilities ORDER BY created_at, id`)
	if err != nil {
		fail(span, err)
		return nil, fmt.Errorf("query vulnerabilities: %w", err)
	}
	defer rows.Close()

	var out []vuln.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			fail(span, err)
			return nil, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		fail(span, err)
		return nil, fmt.Errorf("iterate vulnerabilities: %w", err)
	}
	span.SetAttributes(attribute.Int("db.rows", len(out)))
	return out, nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (*vuln.Record, bool, error) {
	ctx, span := startSpan(ctx, "pgstore.Get", "SELECT")
	defer span.End()

	r, err := scanRecord(s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM vulnerabilities WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		fail(span, err)
		return nil, false, err
	}
	return r, true, nil
}

// Put inserts or updates a record. created_at is kept from the first insert.
func (s *Store) Put(ctx context.Context, r *vuln.Record) error {
	ctx, span := startSpan(ctx, "pgstore.Put", "UPSERT")
	defer span.End()

	query := `INSERT INTO vulnerabilities (` + recordColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	ON CONFLICT (id) DO UPDATE SET
		title       = EXCLUDED.title,
		endpoint    = EXCLUDED.endpoint,
		severity    = EXCLUDED.severity,
		cve         = EXCLUDED.cve,
		description = EXCLUDED.description,
		sensor      = EXCLUDED.sensor,
		updated_at  = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query,
		r.ID, r.Title, r.Endpoint, r.Severity, r.CVE, r.Description, r.Sensor,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		fail(span, err)
		return fmt.Errorf("upsert vulnerability: %w", err)
	}
	return nil
}

// Delete removes a record, reporting whether a row was deleted.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := startSpan(ctx, "pgstore.Delete", "DELETE")
	defer span.End()

	tag, err := s.pool.Exec(ctx, `DELETE FROM vulnerabilities WHERE id = $1`, id)
	if err != nil {
		fail(span, err)
		return false, fmt.Errorf("delete vulnerability: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// scanRecord scans one row; pgx.ErrNoRows is returned unwrapped-compatible.
func scanRecord(row pgx.Row) (*vuln.Record, error) {
	var r vuln.Record
	err := row.Scan(
		&r.ID, &r.Title, &r.Endpoint, &r.Severity, &r.CVE, &r.Description, &r.Sensor,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return &r, nil
}
