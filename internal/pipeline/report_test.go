package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedibot/internal"
)

func TestReportProcessEmpty(t *testing.T) {
	db := newTestDB(t)
	proc := NewReportProcessor(db, testLogger())
	proc.now = func() time.Time { return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC) }

	msg, err := proc.Process("reporte:\n3")
	require.NoError(t, err)
	assert.Equal(t, "No hay pedidos registrados entre 2025-03-07 y 2025-03-10.", msg)
}

func TestReportProcessIncludesTodaysOrders(t *testing.T) {
	db := newTestDB(t)
	seedRoster(t, db)

	clients, err := db.ListClients()
	require.NoError(t, err)
	products, err := db.ListProducts()
	require.NoError(t, err)

	invoiceID, err := db.CreateInvoice(clients[0].ID, "2025-03-15", internal.TierInstitutional)
	require.NoError(t, err)
	require.NoError(t, db.AppendInvoiceLine(invoiceID, products[0].ID, 5, 5))

	proc := NewReportProcessor(db, testLogger())
	msg, err := proc.Process("reporte:\nhoy")
	require.NoError(t, err)
	assert.Contains(t, msg, "📊 Reporte de pedidos desde")
	assert.Contains(t, msg, "- 5x "+products[0].DisplayName)
}

func TestReportProcessInvalidRange(t *testing.T) {
	db := newTestDB(t)
	proc := NewReportProcessor(db, testLogger())

	for _, body := range []string{"reporte:", "reporte:\nayer", "reporte:\n-2"} {
		_, err := proc.Process(body)
		assert.ErrorIs(t, err, ErrReportFormat, "body=%q", body)
	}
}

func TestFormatReport(t *testing.T) {
	rows := []internal.ReportRow{
		{DisplayName: "Papel (Rollo)", TotalQty: 7},
		{DisplayName: "Jabon (Barra)", TotalQty: 3},
	}
	msg := FormatReport("2025-03-07", "2025-03-10", rows)
	assert.Equal(t, "📊 Reporte de pedidos desde 2025-03-07 hasta 2025-03-10:\n- 7x Papel (Rollo)\n- 3x Jabon (Barra)\n", msg)
}
