package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"pedibot/internal"
	"pedibot/internal/config"
	"pedibot/internal/storage"
)

// Notifier delivers outbound WhatsApp text. Failures are logged and
// swallowed, never retried.
type Notifier interface {
	SendText(ctx context.Context, to, body string) error
}

// MediaFetcher resolves and downloads document attachments.
type MediaFetcher interface {
	ResolveMediaURL(ctx context.Context, mediaID string) (string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Service is the per-message processing unit: idempotency check, intent
// dispatch, notification. One call per inbound message.
type Service struct {
	db       *storage.DB
	cfg      config.Config
	notifier Notifier
	media    MediaFetcher
	raw      *MediaStore
	orders   *OrderProcessor
	reports  *ReportProcessor
	catalog  *CatalogLoader
	log      *slog.Logger
}

func NewService(db *storage.DB, cfg config.Config, notifier Notifier, media MediaFetcher, log *slog.Logger) *Service {
	return &Service{
		db:       db,
		cfg:      cfg,
		notifier: notifier,
		media:    media,
		raw:      NewMediaStore(cfg.MediaDir),
		orders:   NewOrderProcessor(db, cfg, log),
		reports:  NewReportProcessor(db, log),
		catalog:  NewCatalogLoader(db, log),
		log:      log,
	}
}

// ProcessMessage runs the whole pipeline for one inbound message. It never
// returns an error: every failure is logged here and the message dropped,
// so a bad message cannot take down its worker.
func (s *Service) ProcessMessage(ctx context.Context, msg internal.InboundMessage) {
	log := s.log.With("traceId", uuid.NewString(), "messageId", msg.ID, "from", msg.From)
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing message", "panic", r)
		}
	}()

	seen, err := s.db.RegisterWebhook(msg.ID, msg.From, msg.Body, string(msg.Raw))
	if err != nil {
		log.Error("webhook registration failed", "error", err)
		return
	}
	if seen {
		log.Info("message already processed, skipping")
		return
	}

	switch ClassifyIntent(msg.Body) {
	case internal.IntentOrder:
		s.handleOrder(ctx, log, msg)
	case internal.IntentReport:
		s.handleReport(ctx, log, msg)
	case internal.IntentCatalogUpload:
		s.handleCatalogUpload(ctx, log, msg)
	default:
		log.Info("no recognized intent, dropping")
	}
}

func (s *Service) handleOrder(ctx context.Context, log *slog.Logger, msg internal.InboundMessage) {
	detail, err := s.orders.Process(ctx, msg.Body)
	if err != nil {
		log.Warn("order failed", "error", err)
		return
	}

	log.Info("invoice created", "invoiceId", detail.ID, "lines", len(detail.Lines), "total", detail.Total)
	if err := s.notifier.SendText(ctx, msg.From, FormatInvoiceMessage(detail)); err != nil {
		log.Error("invoice confirmation send failed", "error", err)
	}
}

func (s *Service) handleReport(ctx context.Context, log *slog.Logger, msg internal.InboundMessage) {
	report, err := s.reports.Process(msg.Body)
	if err != nil {
		log.Warn("report failed", "error", err)
		return
	}

	if err := s.notifier.SendText(ctx, msg.From, report); err != nil {
		log.Error("report send failed", "error", err)
	}
}

func (s *Service) handleCatalogUpload(ctx context.Context, log *slog.Logger, msg internal.InboundMessage) {
	if msg.Document == nil {
		log.Info("catalog upload without document, ignoring")
		return
	}
	if !IsAllowedCatalogMime(msg.Document.MimeType) {
		log.Info("catalog upload with unsupported mime type, ignoring", "mimeType", msg.Document.MimeType)
		return
	}

	url, err := s.media.ResolveMediaURL(ctx, msg.Document.ID)
	if err != nil {
		log.Warn("media url lookup failed", "error", err)
		return
	}
	data, err := s.media.Download(ctx, url)
	if err != nil {
		log.Warn("media download failed", "error", err)
		return
	}

	if path, err := s.raw.Store(msg.Document.Filename, data); err != nil {
		log.Warn("raw media store failed", "error", err)
	} else {
		log.Info("raw media stored", "path", path)
	}

	result, err := s.catalog.LoadXLSX(data)
	if err != nil {
		log.Warn("catalog load failed", "error", err, "inserted", result.Inserted)
		return
	}
	log.Info("catalog upload done", "inserted", result.Inserted, "skipped", result.Skipped)
}
