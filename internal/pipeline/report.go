package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pedibot/internal"
	"pedibot/internal/dates"
	"pedibot/internal/storage"
)

var ErrReportFormat = errors.New("invalid date format")

// ReportProcessor answers "reporte:" messages with an aggregated
// quantity-by-product summary over a date range.
type ReportProcessor struct {
	db  *storage.DB
	log *slog.Logger
	now func() time.Time
}

func NewReportProcessor(db *storage.DB, log *slog.Logger) *ReportProcessor {
	return &ReportProcessor{db: db, log: log, now: time.Now}
}

// Process parses the range expression on line 1 of the body and returns the
// formatted report text.
func (p *ReportProcessor) Process(body string) (string, error) {
	lines := strings.Split(body, "\n")
	if len(lines) < 2 {
		return "", ErrReportFormat
	}

	start, end, err := dates.ParseRange(lines[1], p.now())
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrReportFormat, strings.TrimSpace(lines[1]))
	}

	rows, err := p.db.AggregateReport(start, end)
	if err != nil {
		return "", err
	}
	p.log.Info("report generated", "start", start, "end", end, "products", len(rows))

	return FormatReport(start, end, rows), nil
}

// FormatReport renders one line per product; an empty result set yields an
// explicit "no orders" message instead of an empty body.
func FormatReport(start, end string, rows []internal.ReportRow) string {
	if len(rows) == 0 {
		return fmt.Sprintf("No hay pedidos registrados entre %s y %s.", start, end)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Reporte de pedidos desde %s hasta %s:\n", start, end)
	for _, row := range rows {
		fmt.Fprintf(&b, "- %dx %s\n", row.TotalQty, row.DisplayName)
	}
	return b.String()
}
