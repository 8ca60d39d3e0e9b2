package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"pedibot/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS webhooks (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  messageId TEXT NOT NULL UNIQUE,
  sender TEXT NOT NULL,
  body TEXT,
  rawJson TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS clients (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  phone TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS presentations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  description TEXT NOT NULL,
  code TEXT NOT NULL,
  presentationId INTEGER NOT NULL,
  institutionalPrice REAL NOT NULL DEFAULT 0,
  wholesalePrice REAL NOT NULL DEFAULT 0,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(description, code, presentationId),
  FOREIGN KEY(presentationId) REFERENCES presentations(id)
);
CREATE INDEX IF NOT EXISTS idx_products_description ON products(description);

CREATE TABLE IF NOT EXISTS invoices (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  clientId INTEGER NOT NULL,
  deliveryDate TEXT NOT NULL,
  tier TEXT NOT NULL,
  total REAL NOT NULL DEFAULT 0,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(clientId) REFERENCES clients(id)
);

CREATE TABLE IF NOT EXISTS invoice_lines (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  invoiceId INTEGER NOT NULL,
  productId INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  unitPrice REAL NOT NULL,
  FOREIGN KEY(invoiceId) REFERENCES invoices(id),
  FOREIGN KEY(productId) REFERENCES products(id)
);
CREATE INDEX IF NOT EXISTS idx_invoice_lines_invoiceId ON invoice_lines(invoiceId);
`

	_, err := d.conn.Exec(schema)
	return err
}

// RegisterWebhook records a message id with insert-if-absent semantics and
// reports whether the id had been seen before. The UNIQUE constraint makes
// the check-and-mark atomic, so two concurrent deliveries of the same id
// cannot both pass.
func (d *DB) RegisterWebhook(messageID, sender, body, rawJSON string) (bool, error) {
	result, err := d.conn.Exec(`
INSERT INTO webhooks (messageId, sender, body, rawJson)
VALUES (?, ?, ?, ?)
ON CONFLICT(messageId) DO NOTHING
`, messageID, sender, body, rawJSON)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 0, nil
}

func (d *DB) ListClients() ([]internal.ClientRow, error) {
	rows, err := d.conn.Query(`SELECT id, name, COALESCE(phone, '') FROM clients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ClientRow
	for rows.Next() {
		var row internal.ClientRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Phone); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListProducts returns the product roster with the display name the fuzzy
// matcher runs against: "Descripcion (Presentacion)".
func (d *DB) ListProducts() ([]internal.ProductRow, error) {
	rows, err := d.conn.Query(`
SELECT p.id, p.description || ' (' || pr.name || ')', p.description, p.code,
       p.presentationId, p.institutionalPrice, p.wholesalePrice
FROM products p
JOIN presentations pr ON pr.id = p.presentationId
ORDER BY p.id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ProductRow
	for rows.Next() {
		var row internal.ProductRow
		if err := rows.Scan(
			&row.ID, &row.DisplayName, &row.Description, &row.Code,
			&row.PresentationID, &row.InstitutionalPrice, &row.WholesalePrice,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) CreateInvoice(clientID int64, deliveryDate string, tier internal.Tier) (int64, error) {
	result, err := d.conn.Exec(`
INSERT INTO invoices (clientId, deliveryDate, tier) VALUES (?, ?, ?)
`, clientID, deliveryDate, string(tier))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) AppendInvoiceLine(invoiceID, productID int64, qty int, unitPrice float64) error {
	_, err := d.conn.Exec(`
INSERT INTO invoice_lines (invoiceId, productId, qty, unitPrice) VALUES (?, ?, ?, ?)
`, invoiceID, productID, qty, unitPrice)
	return err
}

func (d *DB) FinalizeInvoiceTotal(invoiceID int64) error {
	_, err := d.conn.Exec(`
UPDATE invoices
SET total = COALESCE((SELECT SUM(qty * unitPrice) FROM invoice_lines WHERE invoiceId = ?), 0)
WHERE id = ?
`, invoiceID, invoiceID)
	return err
}

func (d *DB) GetInvoiceDetail(invoiceID int64) (*internal.InvoiceDetail, error) {
	var detail internal.InvoiceDetail
	var tier string
	err := d.conn.QueryRow(`
SELECT i.id, c.name, COALESCE(c.phone, ''), i.createdAt, i.deliveryDate, i.tier, i.total
FROM invoices i
JOIN clients c ON c.id = i.clientId
WHERE i.id = ?
`, invoiceID).Scan(
		&detail.ID, &detail.ClientName, &detail.ClientPhone,
		&detail.CreatedAt, &detail.DeliveryDate, &tier, &detail.Total,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	detail.Tier = internal.Tier(tier)

	rows, err := d.conn.Query(`
SELECT l.productId, p.description || ' (' || pr.name || ')', l.qty, l.unitPrice, l.qty * l.unitPrice
FROM invoice_lines l
JOIN products p ON p.id = l.productId
JOIN presentations pr ON pr.id = p.presentationId
WHERE l.invoiceId = ?
ORDER BY l.id
`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line internal.InvoiceLineDetail
		if err := rows.Scan(&line.ProductID, &line.DisplayName, &line.Qty, &line.UnitPrice, &line.Subtotal); err != nil {
			return nil, err
		}
		detail.Lines = append(detail.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &detail, nil
}

// AggregateReport sums ordered quantities per product over invoices created
// in the inclusive [start, end] date range.
func (d *DB) AggregateReport(start, end string) ([]internal.ReportRow, error) {
	rows, err := d.conn.Query(`
SELECT l.productId, p.description || ' (' || pr.name || ')', SUM(l.qty)
FROM invoice_lines l
JOIN invoices i ON i.id = l.invoiceId
JOIN products p ON p.id = l.productId
JOIN presentations pr ON pr.id = p.presentationId
WHERE date(i.createdAt) BETWEEN ? AND ?
GROUP BY l.productId
ORDER BY SUM(l.qty) DESC, p.description
`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ReportRow
	for rows.Next() {
		var row internal.ReportRow
		if err := rows.Scan(&row.ProductID, &row.DisplayName, &row.TotalQty); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpsertPresentation dedups presentations by name and returns the stored id.
func (d *DB) UpsertPresentation(name string) (int64, error) {
	if _, err := d.conn.Exec(`
INSERT INTO presentations (name) VALUES (?) ON CONFLICT(name) DO NOTHING
`, name); err != nil {
		return 0, err
	}

	var id int64
	err := d.conn.QueryRow(`SELECT id FROM presentations WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to upsert presentation %q", name)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (d *DB) UpsertProduct(description, code string, presentationID int64, institutionalPrice, wholesalePrice float64) error {
	_, err := d.conn.Exec(`
INSERT INTO products (description, code, presentationId, institutionalPrice, wholesalePrice)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(description, code, presentationId) DO UPDATE SET
  institutionalPrice = excluded.institutionalPrice,
  wholesalePrice = excluded.wholesalePrice,
  updatedAt = CURRENT_TIMESTAMP
`, description, code, presentationID, institutionalPrice, wholesalePrice)
	return err
}

func (d *DB) UpsertClient(name, phone string) (int64, error) {
	if _, err := d.conn.Exec(`
INSERT INTO clients (name, phone) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET phone = excluded.phone
`, name, phone); err != nil {
		return 0, err
	}

	var id int64
	err := d.conn.QueryRow(`SELECT id FROM clients WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to upsert client %q", name)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CountInvoices reports how many invoices exist, used by callers that need
// to assert nothing was persisted on a failed order.
func (d *DB) CountInvoices() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM invoices`).Scan(&n)
	return n, err
}
