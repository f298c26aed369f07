package verifactu

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/jhoicas/verifactu-api/internal/domain/entity"
)

// Claves de la cadena de huella. El orden lo fija la AEAT, no el struct.
const (
	keyIssuerNIF       = "IDEmisorFactura"
	keySeriesNumber    = "NumSerieFactura"
	keyIssueDate       = "FechaExpedicionFactura"
	keyInvoiceType     = "TipoFactura"
	keyTaxAmount       = "CuotaTotal"
	keyTotalAmount     = "ImporteTotal"
	keyPreviousHash    = "Huella"
	keyRecordTimestamp = "FechaHoraHusoGenRegistro"

	keyCancelIssuerNIF    = "IDEmisorFacturaAnulada"
	keyCancelSeriesNumber = "NumSerieFacturaAnulada"
	keyCancelIssueDate    = "FechaExpedicionFacturaAnulada"
)

// HashGeneratorService calcula la huella (SHA-256 en Base64) de un registro
// de alta o de anulación a partir del registro anterior de la cadena.
type HashGeneratorService struct{}

// NewHashGeneratorService crea el servicio.
func NewHashGeneratorService() *HashGeneratorService {
	return &HashGeneratorService{}
}

type pair struct{ key, value string }

// Input devuelve la cadena canónica clave=valor&... que entra en el hash.
// Para el primer registro de la cadena el valor de Huella es vacío.
func (s *HashGeneratorService) Input(rec entity.Record) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("%w: registro nulo", ErrUnsupportedRecordType)
	}
	var pairs []pair
	switch rec.Kind() {
	case entity.RecordKindSubmission:
		r, ok := rec.(*entity.InvoiceSubmission)
		if !ok || r == nil {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedRecordType, rec.Kind())
		}
		pairs = []pair{
			{keyIssuerNIF, NormalizeText(r.ID.IssuerNIF)},
			{keySeriesNumber, NormalizeText(r.ID.SeriesNumber)},
			{keyIssueDate, NormalizeText(r.ID.IssueDate)},
			{keyInvoiceType, NormalizeText(r.InvoiceType)},
			{keyTaxAmount, NormalizeAmount(r.TaxAmount)},
			{keyTotalAmount, NormalizeAmount(r.TotalAmount)},
			{keyPreviousHash, NormalizeText(r.Chaining.PreviousHash())},
			{keyRecordTimestamp, NormalizeText(r.RecordTimestamp)},
		}
	case entity.RecordKindCancellation:
		r, ok := rec.(*entity.InvoiceCancellation)
		if !ok || r == nil {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedRecordType, rec.Kind())
		}
		pairs = []pair{
			{keyCancelIssuerNIF, NormalizeText(r.ID.IssuerNIF)},
			{keyCancelSeriesNumber, NormalizeText(r.ID.SeriesNumber)},
			{keyCancelIssueDate, NormalizeText(r.ID.IssueDate)},
			{keyPreviousHash, NormalizeText(r.Chaining.PreviousHash())},
			{keyRecordTimestamp, NormalizeText(r.RecordTimestamp)},
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedRecordType, rec.Kind())
	}

	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(p.key)
		sb.WriteByte('=')
		sb.WriteString(p.value)
	}
	return sb.String(), nil
}

// Compute devuelve base64(SHA-256(Input(rec))). No modifica el registro.
func (s *HashGeneratorService) Compute(rec entity.Record) (string, error) {
	input, err := s.Input(rec)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(input))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}
