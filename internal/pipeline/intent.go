package pipeline

import (
	"strings"

	"pedibot/internal"
)

// ClassifyIntent routes a message body by its leading prefix. Exact,
// case-insensitive prefixes only; anything else is dropped.
func ClassifyIntent(body string) internal.Intent {
	lower := strings.ToLower(strings.TrimSpace(body))
	switch {
	case strings.HasPrefix(lower, "reporte:"):
		return internal.IntentReport
	case strings.HasPrefix(lower, "pedido:"):
		return internal.IntentOrder
	case strings.HasPrefix(lower, "agregar articulo"):
		return internal.IntentCatalogUpload
	default:
		return internal.IntentNone
	}
}
