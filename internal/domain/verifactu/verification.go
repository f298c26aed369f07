package verifactu

import (
	"net/url"
	"strings"

	"github.com/jhoicas/verifactu-api/internal/domain/entity"
)

// BuildVerificationContent construye la URL de cotejo que codifica el QR:
// baseURL?nif=…&num=…&fecha=…&huella=… en ese orden fijo.
func BuildVerificationContent(rec entity.ChainedRecord, baseURL string) string {
	id := rec.Identity()
	params := []struct{ key, value string }{
		{"nif", NormalizeText(id.IssuerNIF)},
		{"num", NormalizeText(id.SeriesNumber)},
		{"fecha", NormalizeText(id.IssueDate)},
		{"huella", NormalizeText(rec.CurrentHash())},
	}

	var sb strings.Builder
	sb.WriteString(baseURL)
	switch {
	case strings.HasSuffix(baseURL, "?"), strings.HasSuffix(baseURL, "&"):
	case strings.Contains(baseURL, "?"):
		sb.WriteByte('&')
	default:
		sb.WriteByte('?')
	}
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.value))
	}
	return sb.String()
}
