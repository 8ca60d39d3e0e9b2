package internal

import "encoding/json"

// Tier is the pricing classification of a client. It decides which of the
// two catalog prices applies to every line of an invoice.
type Tier string

const (
	TierWholesale     Tier = "Mayorista"
	TierInstitutional Tier = "Institucional"
)

type Intent string

const (
	IntentOrder         Intent = "order"
	IntentReport        Intent = "report"
	IntentCatalogUpload Intent = "catalog_upload"
	IntentNone          Intent = "none"
)

// DocumentRef points at a media object held by the WhatsApp platform. The
// bytes are fetched separately via the Graph API.
type DocumentRef struct {
	ID       string
	Filename string
	MimeType string
}

// InboundMessage is one message lifted out of a webhook envelope. Immutable
// once built; consumed exactly once by the pipeline.
type InboundMessage struct {
	ID       string
	From     string
	Body     string
	Document *DocumentRef
	Raw      json.RawMessage
}

type ClientRow struct {
	ID    int64
	Name  string
	Phone string
}

// ProductRow carries both catalog prices; the order processor picks one by
// tier. DisplayName is "Descripcion (Presentacion)" and is the string fuzzy
// matching runs against.
type ProductRow struct {
	ID                 int64
	DisplayName        string
	Description        string
	Code               string
	PresentationID     int64
	InstitutionalPrice float64
	WholesalePrice     float64
}

// ResolvedClient is a roster entry that cleared the client cutoff.
type ResolvedClient struct {
	ID    int64
	Name  string
	Score float64
	Tier  Tier
}

type ResolvedLineItem struct {
	ProductID int64
	Name      string
	Score     float64
	Qty       int
	UnitPrice float64
}

type OrderLine struct {
	Qty     int
	RawName string
}

// OrderRequest is the parsed shape of a "pedido:" body before any roster
// resolution has happened.
type OrderRequest struct {
	ClientRaw    string
	DeliveryRaw  string
	DeliveryDate string
	Lines        []OrderLine
}

type InvoiceLineDetail struct {
	ProductID   int64
	DisplayName string
	Qty         int
	UnitPrice   float64
	Subtotal    float64
}

type InvoiceDetail struct {
	ID           int64
	ClientName   string
	ClientPhone  string
	CreatedAt    string
	DeliveryDate string
	Tier         Tier
	Lines        []InvoiceLineDetail
	Total        float64
}

// ReportRow is one aggregated product line of a date-range report.
type ReportRow struct {
	ProductID   int64
	DisplayName string
	TotalQty    int
}

type CatalogRow struct {
	Description        string
	Presentation       string
	Code               string
	InstitutionalPrice float64
	WholesalePrice     float64
}

type CatalogResult struct {
	Inserted int
	Skipped  int
}
