// Package verifactu contiene el núcleo del encadenamiento VERI*FACTU:
// normalización de campos, reglas de validación, cálculo de la huella y
// contenido del código QR de cotejo.
package verifactu

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeDecimal formatea un importe como lo hace el verificador de la AEAT:
// dos decimales con punto, sin ceros finales ni separador sobrante.
//
//	21.00 → "21", 10.50 → "10.5", 21.05 → "21.05", 0.00 → "0"
func NormalizeDecimal(d decimal.Decimal) string {
	s := d.StringFixed(2)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// NormalizeAmount como NormalizeDecimal; un importe no informado queda vacío.
func NormalizeAmount(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return NormalizeDecimal(d.Decimal)
}

// NormalizeText solo recorta espacios; sin cambios de mayúsculas ni de locale.
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}
