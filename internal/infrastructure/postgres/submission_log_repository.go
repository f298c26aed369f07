package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/verifactu-api/internal/application/billing"
	"github.com/jhoicas/verifactu-api/internal/domain/entity"
	"github.com/jhoicas/verifactu-api/internal/domain/repository"
)

var (
	_ repository.SubmissionLogRepository = (*SubmissionLogRepo)(nil)
	_ billing.SubmissionArchive          = (*SubmissionLogRepo)(nil)
)

// SchemaSubmissions DDL de la tabla de auditoría.
const SchemaSubmissions = `
	CREATE TABLE IF NOT EXISTS verifactu_submissions (
		id             UUID PRIMARY KEY,
		operation      TEXT        NOT NULL,
		record_kind    TEXT        NOT NULL,
		issuer_nif     TEXT        NOT NULL,
		series_number  TEXT,
		issue_date     TEXT,
		hash           TEXT,
		total_amount   NUMERIC(14,2),
		status         TEXT        NOT NULL,
		csv            TEXT,
		error_message  TEXT,
		request_xml    TEXT,
		response_xml   TEXT,
		created_at     TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_verifactu_submissions_issuer
		ON verifactu_submissions (issuer_nif, created_at DESC);`

const maxListLimit = 500

// SubmissionLogRepo implementación de SubmissionLogRepository (usable con pool o tx).
type SubmissionLogRepo struct {
	q Querier
}

// NewSubmissionLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSubmissionLogRepository(q Querier) *SubmissionLogRepo {
	return &SubmissionLogRepo{q: q}
}

// EnsureSchema crea la tabla si no existe.
func (r *SubmissionLogRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, SchemaSubmissions); err != nil {
		return fmt.Errorf("crear verifactu_submissions: %w", err)
	}
	return nil
}

// Save inserta una entrada; asigna ID y fecha si faltan. El NIF se guarda
// normalizado para que ListByIssuer lo encuentre con el NIF del token.
func (r *SubmissionLogRepo) Save(ctx context.Context, entry *entity.SubmissionLog) error {
	entry.IssuerNIF = normalizeNIF(entry.IssuerNIF)
	entry.SeriesNumber = strings.TrimSpace(entry.SeriesNumber)
	entry.IssueDate = strings.TrimSpace(entry.IssueDate)
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO verifactu_submissions (id, operation, record_kind, issuer_nif, series_number, issue_date, hash,
			total_amount, status, csv, error_message, request_xml, response_xml, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		entry.ID, entry.Operation, string(entry.RecordKind), entry.IssuerNIF,
		nullIfEmpty(entry.SeriesNumber), nullIfEmpty(entry.IssueDate), nullIfEmpty(entry.Hash),
		entry.TotalAmount, entry.Status, nullIfEmpty(entry.CSV), nullIfEmpty(entry.ErrorMessage),
		nullIfEmpty(entry.RequestXML), nullIfEmpty(entry.ResponseXML), entry.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("envío %s ya archivado: %w", entry.ID, err)
		}
		return fmt.Errorf("insert verifactu_submission: %w", err)
	}
	return nil
}

// ListByIssuer devuelve los últimos envíos del NIF (sin los XML).
func (r *SubmissionLogRepo) ListByIssuer(ctx context.Context, issuerNIF string, limit int) ([]*entity.SubmissionLog, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	query := `
		SELECT id::text, operation, record_kind, issuer_nif, COALESCE(series_number, ''), COALESCE(issue_date, ''),
		       COALESCE(hash, ''), total_amount, status, COALESCE(csv, ''), COALESCE(error_message, ''), created_at
		FROM verifactu_submissions
		WHERE issuer_nif = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, normalizeNIF(issuerNIF), limit)
	if err != nil {
		return nil, fmt.Errorf("list verifactu_submissions: %w", err)
	}
	defer rows.Close()

	var list []*entity.SubmissionLog
	for rows.Next() {
		var (
			e     entity.SubmissionLog
			kind  string
			total decimal.NullDecimal
		)
		if err := rows.Scan(&e.ID, &e.Operation, &kind, &e.IssuerNIF, &e.SeriesNumber, &e.IssueDate,
			&e.Hash, &total, &e.Status, &e.CSV, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan verifactu_submission: %w", err)
		}
		e.RecordKind = entity.RecordKind(kind)
		if total.Valid {
			e.TotalAmount = &total.Decimal
		}
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar verifactu_submissions: %w", err)
	}
	return list, nil
}

func normalizeNIF(nif string) string {
	return strings.ToUpper(strings.TrimSpace(nif))
}
