package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"pedibot/internal"
	"pedibot/internal/storage"
	"pedibot/internal/util"
)

// Spreadsheet columns a catalog upload must carry. Header names are matched
// exactly after trimming.
var requiredColumns = []string{"Descripcion", "Presentacion", "Codigo", "Institucional", "Mayorista"}

var allowedMimeTypes = map[string]struct{}{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
	"application/vnd.ms-excel": {},
}

// IsAllowedCatalogMime reports whether a document attachment may be loaded
// as a catalog. Anything else is rejected without a response.
func IsAllowedCatalogMime(mimeType string) bool {
	_, ok := allowedMimeTypes[strings.TrimSpace(mimeType)]
	return ok
}

// CatalogLoader upserts product records from an Excel file.
type CatalogLoader struct {
	db  *storage.DB
	log *slog.Logger
}

func NewCatalogLoader(db *storage.DB, log *slog.Logger) *CatalogLoader {
	return &CatalogLoader{db: db, log: log}
}

// LoadXLSX parses the first sheet of the workbook. A missing required
// column fails the whole load before any upsert. Rows missing description,
// presentation or code are dropped; missing prices default to 0. A row
// whose upsert fails aborts the load (rows already written stay).
func (l *CatalogLoader) LoadXLSX(data []byte) (internal.CatalogResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return internal.CatalogResult{}, fmt.Errorf("invalid spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return internal.CatalogResult{}, errors.New("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return internal.CatalogResult{}, err
	}

	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	columns := map[string]int{}
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return internal.CatalogResult{}, fmt.Errorf("el archivo no contiene la columna requerida: %s", required)
		}
	}

	result := internal.CatalogResult{}
	for _, row := range rows[1:] {
		parsed, ok := parseCatalogRow(row, columns)
		if !ok {
			result.Skipped++
			continue
		}

		presentationID, err := l.db.UpsertPresentation(parsed.Presentation)
		if err != nil {
			return result, fmt.Errorf("upsert presentation %q: %w", parsed.Presentation, err)
		}
		if err := l.db.UpsertProduct(parsed.Description, parsed.Code, presentationID,
			parsed.InstitutionalPrice, parsed.WholesalePrice); err != nil {
			return result, fmt.Errorf("upsert product %q: %w", parsed.Description, err)
		}
		result.Inserted++
	}

	l.log.Info("catalog load complete", "inserted", result.Inserted, "skipped", result.Skipped)
	return result, nil
}

func parseCatalogRow(row []string, columns map[string]int) (internal.CatalogRow, bool) {
	cell := func(name string) string {
		idx := columns[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	out := internal.CatalogRow{
		Description:  cell("Descripcion"),
		Presentation: cell("Presentacion"),
		Code:         cell("Codigo"),
	}
	if out.Description == "" || out.Presentation == "" || out.Code == "" {
		return internal.CatalogRow{}, false
	}
	out.Presentation = util.CapitalizeFirst(out.Presentation)
	out.InstitutionalPrice = parsePrice(cell("Institucional"))
	out.WholesalePrice = parsePrice(cell("Mayorista"))
	return out, true
}

func parsePrice(raw string) float64 {
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0
	}
	return value
}
