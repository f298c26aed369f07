package verifactu

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Categorías de fallo del ciclo de envío. Los rechazos de negocio de la AEAT
// no son errores: llegan como respuesta con estado Incorrecto.
var (
	ErrValidationFailed      = errors.New("verifactu: validación fallida")
	ErrUnsupportedRecordType = errors.New("verifactu: tipo de registro no soportado")
	ErrSigningFailed         = errors.New("verifactu: firma fallida")
	ErrTransmissionFailed    = errors.New("verifactu: transmisión fallida")
	ErrParsingFailed         = errors.New("verifactu: respuesta no interpretable")
	ErrHashAlreadySet        = errors.New("verifactu: la huella ya fue generada")
	ErrSerializationFailed   = errors.New("verifactu: error interno de serialización")
)

// Etapas de validación.
const (
	StagePreHash  = "pre-hash"
	StagePostHash = "post-hash"
	StageQuery    = "query"
)

// FieldErrors agrupa los mensajes de error por campo.
type FieldErrors map[string][]string

// Add registra un mensaje para el campo.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Fields devuelve los campos con error en orden alfabético.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for f := range fe {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (fe FieldErrors) String() string {
	parts := make([]string, 0, len(fe))
	for _, f := range fe.Fields() {
		parts = append(parts, f+": "+strings.Join(fe[f], ", "))
	}
	return strings.Join(parts, "; ")
}

// ValidationError resultado fallido de la validación de un registro.
// Cause, si existe, es la condición concreta (p. ej. ErrHashAlreadySet).
type ValidationError struct {
	Stage  string
	Fields FieldErrors
	Cause  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%s): %s", ErrValidationFailed.Error(), e.Stage, e.Fields.String())
}

// Unwrap permite errors.Is(err, ErrValidationFailed) y errors.Is(err, Cause).
func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrValidationFailed, e.Cause}
	}
	return []error{ErrValidationFailed}
}
