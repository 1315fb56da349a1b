package chat

import (
	"fmt"
	"strings"

	"github.com/milinea/milinea-backend/internal/model"
)

// FormatResults turns a ranked result set into a short natural-language
// summary.
func FormatResults(opts []*model.RouteOption) string {
	if len(opts) == 0 {
		return "No encontré líneas cercanas para ese trayecto. Verifica que los puntos estén en la ciudad o da otra referencia."
	}
	best := opts[0]
	if len(opts) == 1 {
		return fmt.Sprintf("Toma la línea %s (%s). Tiempo estimado %.0f min.", best.Code, best.Headsign, best.ETAMinutes)
	}

	n := len(opts)
	if n > 4 {
		n = 4
	}
	extras := make([]string, 0, n-1)
	for _, o := range opts[1:n] {
		extras = append(extras, fmt.Sprintf("%s %s ~%.0fm", o.Code, o.Headsign, o.ETAMinutes))
	}
	return fmt.Sprintf("La más rápida: %s (%s) ~%.0f min. Otras: %s.",
		best.Code, best.Headsign, best.ETAMinutes, strings.Join(extras, ", "))
}
