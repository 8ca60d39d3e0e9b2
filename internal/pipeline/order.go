package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"pedibot/internal"
	"pedibot/internal/config"
	"pedibot/internal/dates"
	"pedibot/internal/fuzzy"
	"pedibot/internal/storage"
	"pedibot/internal/util"
)

var (
	ErrOrderFormat         = errors.New("invalid order format")
	ErrInvalidDeliveryDate = errors.New("invalid delivery date")
	ErrClientNotFound      = errors.New("client not found")
	ErrNoResolvableLines   = errors.New("could not create invoice")
)

// Keywords that mark an order as wholesale. Matched fuzzily against the
// client line so a typo like "mallorista" still flips the tier.
var tierKeywords = []string{"mayorista", "wholesale", "distribuidor", "b2b"}

// OrderProcessor turns a "pedido:" message body into a persisted invoice.
//
// Body layout: line 0 is the intent marker, line 1 the client, line 2 the
// delivery date, lines 3..N the items as "<qty> <product name>".
type OrderProcessor struct {
	db  *storage.DB
	cfg config.Config
	log *slog.Logger
	now func() time.Time
}

func NewOrderProcessor(db *storage.DB, cfg config.Config, log *slog.Logger) *OrderProcessor {
	return &OrderProcessor{db: db, cfg: cfg, log: log, now: time.Now}
}

// Process resolves the order and persists it. A date or client failure
// aborts before anything is written; unresolvable item lines are skipped.
// The invoice row is only created once the first item line resolves, so an
// order with zero resolvable products never leaves a record behind.
func (p *OrderProcessor) Process(ctx context.Context, body string) (*internal.InvoiceDetail, error) {
	req, err := p.parse(body)
	if err != nil {
		return nil, err
	}

	client, err := p.resolveClient(req.ClientRaw)
	if err != nil {
		return nil, err
	}
	p.log.Info("client resolved",
		"client", client.Name, "score", client.Score, "tier", client.Tier)

	// One roster fetch per order rather than one per line; the match
	// outcome is identical because nothing mutates the roster mid-order.
	products, err := p.db.ListProducts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(products))
	for i, product := range products {
		names[i] = product.DisplayName
	}

	var invoiceID int64
	for _, line := range req.Lines {
		match, ok := fuzzy.ExtractOne(line.RawName, names, p.cfg.ProductMatchCutoff)
		if !ok {
			p.log.Warn("product not found, skipping line", "name", line.RawName)
			continue
		}
		product := products[match.Index]

		unitPrice := product.InstitutionalPrice
		if client.Tier == internal.TierWholesale {
			unitPrice = product.WholesalePrice
		}

		if invoiceID == 0 {
			invoiceID, err = p.db.CreateInvoice(client.ID, req.DeliveryDate, client.Tier)
			if err != nil {
				return nil, err
			}
		}
		if err := p.db.AppendInvoiceLine(invoiceID, product.ID, line.Qty, unitPrice); err != nil {
			return nil, err
		}
		p.log.Info("line item resolved",
			"product", product.DisplayName, "score", match.Score, "qty", line.Qty, "unitPrice", unitPrice)
	}

	if invoiceID == 0 {
		return nil, ErrNoResolvableLines
	}

	if err := p.db.FinalizeInvoiceTotal(invoiceID); err != nil {
		return nil, err
	}
	detail, err := p.db.GetInvoiceDetail(invoiceID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, fmt.Errorf("invoice %d vanished after finalize", invoiceID)
	}
	return detail, nil
}

func (p *OrderProcessor) parse(body string) (internal.OrderRequest, error) {
	lines := strings.Split(body, "\n")
	if len(lines) < 3 {
		return internal.OrderRequest{}, ErrOrderFormat
	}

	req := internal.OrderRequest{
		ClientRaw:   strings.ToLower(strings.TrimSpace(lines[1])),
		DeliveryRaw: strings.TrimSpace(lines[2]),
	}

	date, err := dates.ParseDate(req.DeliveryRaw, p.now())
	if err != nil {
		return internal.OrderRequest{}, fmt.Errorf("%w: %q", ErrInvalidDeliveryDate, req.DeliveryRaw)
	}
	req.DeliveryDate = date

	for _, line := range lines[3:] {
		qty, name, ok := parseOrderLine(line)
		if !ok {
			p.log.Warn("malformed item line, skipping", "line", strings.TrimSpace(line))
			continue
		}
		req.Lines = append(req.Lines, internal.OrderLine{Qty: qty, RawName: name})
	}
	return req, nil
}

func (p *OrderProcessor) resolveClient(clientLine string) (internal.ResolvedClient, error) {
	tier := internal.TierInstitutional
	if _, ok := fuzzy.ExtractOne(clientLine, tierKeywords, p.cfg.TierMatchCutoff); ok {
		tier = internal.TierWholesale
	}
	name := stripTierKeywords(clientLine)

	roster, err := p.db.ListClients()
	if err != nil {
		return internal.ResolvedClient{}, err
	}
	names := make([]string, len(roster))
	for i, client := range roster {
		names[i] = client.Name
	}

	match, ok := fuzzy.ExtractOne(name, names, p.cfg.ClientMatchCutoff)
	if !ok {
		return internal.ResolvedClient{}, fmt.Errorf("%w: %q", ErrClientNotFound, name)
	}

	return internal.ResolvedClient{
		ID:    roster[match.Index].ID,
		Name:  roster[match.Index].Name,
		Score: match.Score,
		Tier:  tier,
	}, nil
}

func stripTierKeywords(clientLine string) string {
	out := clientLine
	for _, keyword := range tierKeywords {
		out = strings.ReplaceAll(out, keyword, "")
	}
	return util.CollapseSpaces(out)
}

// parseOrderLine splits "<qty> <product name>"; the quantity must be a
// bare integer.
func parseOrderLine(line string) (int, string, bool) {
	trimmed := strings.TrimSpace(line)
	parts := strings.SplitN(trimmed, " ", 2)
	if len(parts) < 2 {
		return 0, "", false
	}
	qty, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", false
	}
	name := strings.TrimSpace(parts[1])
	if name == "" {
		return 0, "", false
	}
	return qty, name, true
}

// FormatInvoiceMessage renders the WhatsApp confirmation for a persisted
// invoice.
func FormatInvoiceMessage(detail *internal.InvoiceDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 Factura #%d\n", detail.ID)
	fmt.Fprintf(&b, "👤 Cliente: %s\n📞 Teléfono: %s\n", detail.ClientName, detail.ClientPhone)
	fmt.Fprintf(&b, "📅 Fecha: %s\n🚚 Entrega: %s\n", detail.CreatedAt, detail.DeliveryDate)
	fmt.Fprintf(&b, "🛒 Tipo: %s\n", detail.Tier)
	b.WriteString("📦 Detalle:\n")
	for _, line := range detail.Lines {
		fmt.Fprintf(&b, "- %dx %s (₡%.2f c/u) = ₡%.2f\n", line.Qty, line.DisplayName, line.UnitPrice, line.Subtotal)
	}
	fmt.Fprintf(&b, "\n💰 Total: ₡%.2f", detail.Total)
	return b.String()
}
