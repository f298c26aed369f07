package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del archivo de envíos.
const (
	SubmissionStatusAccepted  = "ACCEPTED"
	SubmissionStatusPartial   = "PARTIAL"
	SubmissionStatusRejected  = "REJECTED"
	SubmissionStatusFailed    = "FAILED" // fallo de transmisión o de respuesta
	SubmissionStatusQueryDone = "QUERIED"
)

// SubmissionLog traza de un envío a la AEAT (auditoría, no fuente del encadenamiento).
type SubmissionLog struct {
	ID           string
	Operation    string
	RecordKind   RecordKind
	IssuerNIF    string
	SeriesNumber string
	IssueDate    string
	Hash         string
	TotalAmount  *decimal.Decimal
	Status       string
	CSV          string
	ErrorMessage string
	RequestXML   string
	ResponseXML  string
	CreatedAt    time.Time
}
