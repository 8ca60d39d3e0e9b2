package pipeline

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedibot/internal"
	"pedibot/internal/config"
	"pedibot/internal/storage"
)

func testConfig() config.Config {
	return config.Config{
		ClientMatchCutoff:  70,
		ProductMatchCutoff: 90,
		TierMatchCutoff:    80,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedRoster(t *testing.T, db *storage.DB) {
	t.Helper()
	_, err := db.UpsertClient("Acme", "50611112222")
	require.NoError(t, err)
	_, err = db.UpsertClient("Hotel Central", "50633334444")
	require.NoError(t, err)

	barra, err := db.UpsertPresentation("Barra")
	require.NoError(t, err)
	rollo, err := db.UpsertPresentation("Rollo")
	require.NoError(t, err)
	require.NoError(t, db.UpsertProduct("Jabon", "JB-01", barra, 5, 4))
	require.NoError(t, db.UpsertProduct("Papel", "PP-01", rollo, 2, 1))
}

func TestProcessOrderWholesale(t *testing.T) {
	db := newTestDB(t)
	seedRoster(t, db)
	proc := NewOrderProcessor(db, testConfig(), testLogger())

	body := "pedido:\ncliente acme mayorista\n15/03/2025\n3 jabon\n2 papel"
	detail, err := proc.Process(context.Background(), body)
	require.NoError(t, err)

	assert.Equal(t, internal.TierWholesale, detail.Tier)
	assert.Equal(t, "Acme", detail.ClientName)
	assert.Equal(t, "2025-03-15", detail.DeliveryDate)
	require.Len(t, detail.Lines, 2)
	assert.Equal(t, 4.0, detail.Lines[0].UnitPrice)
	assert.Equal(t, 1.0, detail.Lines[1].UnitPrice)
	assert.Equal(t, 3*4.0+2*1.0, detail.Total)
}

func TestProcessOrderInstitutionalPricing(t *testing.T) {
	db := newTestDB(t)
	seedRoster(t, db)
	proc := NewOrderProcessor(db, testConfig(), testLogger())

	detail, err := proc.Process(context.Background(), "pedido:\nacme\n15/03/2025\n2 jabon")
	require.NoError(t, err)

	assert.Equal(t, internal.TierInstitutional, detail.Tier)
	require.Len(t, detail.Lines, 1)
	assert.Equal(t, 5.0, detail.Lines[0].UnitPrice)
	assert.Equal(t, 10.0, detail.Total)
}

func TestProcessOrderSkipsMalformedAndUnknownLines(t *testing.T) {
	db := newTestDB(t)
	seedRoster(t, db)
	proc := NewOrderProcessor(db, testConfig(), testLogger())

	body := "pedido:\nacme\n15/03/2025\ntres jabon\n2\n2 tornillo\n4 papel"
	detail, err := proc.Process(context.Background(), body)
	require.NoError(t, err)

	require.Len(t, detail.Lines, 1)
	assert.Equal(t, "Papel (Rollo)", detail.Lines[0].DisplayName)
	assert.Equal(t, 4, detail.Lines[0].Qty)
}

func TestProcessOrderInvalidDeliveryDate(t *testing.T) {
	db := newTestDB(t)
	seedRoster(t, db)
	proc := NewOrderProcessor(db, testConfig(), testLogger())

	_, err := proc.Process(context.Background(), "pedido:\nacme\n31/02/2025\n3 jabon")
	assert.ErrorIs(t, err, ErrInvalidDeliveryDate)

	count, err := db.CountInvoices()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProcessOrderClientNotFound(t *testing.T) {
	db := newTestDB(t)
	seedRoster(t, db)
	proc := NewOrderProcessor(db, testConfig(), testLogger())

	_, err := proc.Process(context.Background(), "pedido:\nzzzzzz\n15/03/2025\n3 jabon")
	assert.ErrorIs(t, err, ErrClientNotFound)

	count, err := db.CountInvoices()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProcessOrderNoResolvableLines(t *testing.T) {
	db := newTestDB(t)
	seedRoster(t, db)
	proc := NewOrderProcessor(db, testConfig(), testLogger())

	_, err := proc.Process(context.Background(), "pedido:\nacme\n15/03/2025\n3 tornillo\n9 tuerca")
	assert.ErrorIs(t, err, ErrNoResolvableLines)

	count, err := db.CountInvoices()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProcessOrderTooShort(t *testing.T) {
	db := newTestDB(t)
	proc := NewOrderProcessor(db, testConfig(), testLogger())

	_, err := proc.Process(context.Background(), "pedido:\nacme")
	assert.ErrorIs(t, err, ErrOrderFormat)
}

func TestParseOrderLine(t *testing.T) {
	qty, name, ok := parseOrderLine("  3 jabon en barra ")
	require.True(t, ok)
	assert.Equal(t, 3, qty)
	assert.Equal(t, "jabon en barra", name)

	_, _, ok = parseOrderLine("tres jabon")
	assert.False(t, ok)
	_, _, ok = parseOrderLine("3")
	assert.False(t, ok)
	_, _, ok = parseOrderLine("")
	assert.False(t, ok)
}

func TestFormatInvoiceMessage(t *testing.T) {
	detail := &internal.InvoiceDetail{
		ID:           7,
		ClientName:   "Acme",
		ClientPhone:  "50611112222",
		CreatedAt:    "2025-03-10 14:30:00",
		DeliveryDate: "2025-03-15",
		Tier:         internal.TierWholesale,
		Lines: []internal.InvoiceLineDetail{
			{DisplayName: "Jabon (Barra)", Qty: 3, UnitPrice: 4, Subtotal: 12},
		},
		Total: 12,
	}

	msg := FormatInvoiceMessage(detail)
	assert.Contains(t, msg, "🧾 Factura #7")
	assert.Contains(t, msg, "👤 Cliente: Acme")
	assert.Contains(t, msg, "🛒 Tipo: Mayorista")
	assert.Contains(t, msg, "- 3x Jabon (Barra) (₡4.00 c/u) = ₡12.00")
	assert.Contains(t, msg, "💰 Total: ₡12.00")
}
