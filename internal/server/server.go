package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"pedibot/internal/config"
	"pedibot/internal/whatsapp"
	"pedibot/internal/worker"
)

// Server exposes the WhatsApp webhook. POST acknowledges immediately and
// hands the message to the worker pool; processing outcome never reaches
// the HTTP response.
type Server struct {
	cfg  config.Config
	pool *worker.Pool
	mux  *http.ServeMux
	log  *slog.Logger
}

func New(cfg config.Config, pool *worker.Pool, log *slog.Logger) *Server {
	s := &Server{cfg: cfg, pool: pool, mux: http.NewServeMux(), log: log}
	s.routes()
	return s
}

func (s *Server) Router() http.Handler { return s.mux }

func (s *Server) routes() {
	s.mux.HandleFunc("/webhook", s.handleWebhook)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleVerify(w, r)
	case http.MethodPost:
		s.handleInbound(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleVerify answers the Meta subscription handshake.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("hub.mode") != "subscribe" || query.Get("hub.verify_token") != s.cfg.VerifyToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	_, _ = w.Write([]byte(query.Get("hub.challenge")))
}

func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil || len(raw) == 0 {
		http.Error(w, `{"error":"empty payload"}`, http.StatusBadRequest)
		return
	}

	msg, ok := whatsapp.ParseInbound(raw)
	if ok {
		if !s.pool.Submit(msg) {
			// Still ack: the platform retries on non-2xx and the queue
			// being full is our problem, not the sender's.
			s.log.Warn("queue full, message dropped", "messageId", msg.ID, "from", msg.From)
		}
	} else {
		s.log.Info("webhook payload without consumable message, acked and ignored")
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}
