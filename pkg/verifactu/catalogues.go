// Package verifactu contiene catálogos, puertos y la selección de entorno del
// sistema VERI*FACTU de la AEAT (Orden HAC/1177/2024).
package verifactu

// =============================================================================
// L2 - Tipo de factura (TipoFactura)
// =============================================================================

const (
	InvoiceTypeStandard             = "F1" // Factura (art. 6, 7.2 y 7.3 del RD 1619/2012)
	InvoiceTypeSimplified           = "F2" // Factura simplificada y sin identificación del destinatario
	InvoiceTypeReplacesSimplified   = "F3" // Factura emitida en sustitución de facturas simplificadas
	InvoiceTypeCorrectiveLaw        = "R1" // Rectificativa (art. 80.1, 80.2 y error fundado en derecho)
	InvoiceTypeCorrectiveArt80_3    = "R2" // Rectificativa (art. 80.3)
	InvoiceTypeCorrectiveArt80_4    = "R3" // Rectificativa (art. 80.4)
	InvoiceTypeCorrectiveOther      = "R4" // Rectificativa (resto)
	InvoiceTypeCorrectiveSimplified = "R5" // Rectificativa en facturas simplificadas
)

// ValidInvoiceTypes tipos de factura admitidos en RegistroAlta.
var ValidInvoiceTypes = map[string]bool{
	InvoiceTypeStandard: true, InvoiceTypeSimplified: true, InvoiceTypeReplacesSimplified: true,
	InvoiceTypeCorrectiveLaw: true, InvoiceTypeCorrectiveArt80_3: true, InvoiceTypeCorrectiveArt80_4: true,
	InvoiceTypeCorrectiveOther: true, InvoiceTypeCorrectiveSimplified: true,
}

// =============================================================================
// L1 - Impuesto
// =============================================================================

const (
	TaxVAT   = "01" // IVA
	TaxIPSI  = "02" // Impuesto sobre la Producción, los Servicios y la Importación (Ceuta y Melilla)
	TaxIGIC  = "03" // Impuesto General Indirecto Canario
	TaxOther = "05" // Otros
)

// ValidTaxTypes impuestos admitidos en DetalleDesglose.
var ValidTaxTypes = map[string]bool{
	TaxVAT: true, TaxIPSI: true, TaxIGIC: true, TaxOther: true,
}

// =============================================================================
// L9 - Calificación de la operación / L10 - Operación exenta
// =============================================================================

const (
	QualificationSubject            = "S1" // Sujeta y no exenta, sin inversión del sujeto pasivo
	QualificationSubjectReverse     = "S2" // Sujeta y no exenta, con inversión del sujeto pasivo
	QualificationNotSubjectArt7_14  = "N1" // No sujeta (art. 7, 14, otros)
	QualificationNotSubjectLocation = "N2" // No sujeta por reglas de localización
)

// ValidQualifications calificaciones admitidas.
var ValidQualifications = map[string]bool{
	QualificationSubject: true, QualificationSubjectReverse: true,
	QualificationNotSubjectArt7_14: true, QualificationNotSubjectLocation: true,
}

// ValidExemptions causas de exención E1..E6.
var ValidExemptions = map[string]bool{
	"E1": true, "E2": true, "E3": true, "E4": true, "E5": true, "E6": true,
}

// =============================================================================
// L8A - Clave de régimen (IVA), subconjunto de uso habitual
// =============================================================================

const (
	RegimeGeneral        = "01" // Operación de régimen general
	RegimeExport         = "02" // Exportación
	RegimeUsedGoods      = "03" // Bienes usados, objetos de arte, antigüedades
	RegimeCashAccounting = "18" // Criterio de caja
)

// =============================================================================
// Otros
// =============================================================================

const (
	Yes = "S"
	No  = "N"

	// HashTypeSHA256 es el único TipoHuella definido.
	HashTypeSHA256 = "01"

	// SchemaVersion es el IDVersion de los registros.
	SchemaVersion = "1.0"
)

// Estados globales del envío (EstadoEnvio) y por registro (EstadoRegistro).
const (
	StatusCorrect            = "Correcto"
	StatusPartiallyCorrect   = "ParcialmenteCorrecto"
	StatusIncorrect          = "Incorrecto"
	StatusAcceptedWithErrors = "AceptadoConErrores"
)

// Resultado de una consulta (ResultadoConsulta).
const (
	QueryResultWithData    = "ConDatos"
	QueryResultWithoutData = "SinDatos"
)

// Operaciones del servicio VerifactuSOAP.
const (
	OperationSuministroLR = "SuministroLR"
	OperationConsultaLR   = "ConsultaLR"
)
