package repository

import (
	"context"

	"github.com/jhoicas/verifactu-api/internal/domain/entity"
)

// SubmissionLogRepository puerto de persistencia del archivo de envíos a la AEAT.
// Es solo de auditoría: nunca se lee para construir el encadenamiento.
type SubmissionLogRepository interface {
	Save(ctx context.Context, entry *entity.SubmissionLog) error
	// ListByIssuer devuelve los últimos envíos de un NIF, del más reciente al más antiguo.
	ListByIssuer(ctx context.Context, issuerNIF string, limit int) ([]*entity.SubmissionLog, error)
}
