// Package webhook exposes the HTTP hook the back office calls after
// editing the catalog or margin coefficients.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const SecretHeader = "X-Webhook-Secret"

type Reloader interface {
	Reload(ctx context.Context) error
	Version() string
}

type Handler struct {
	reloader Reloader
	secret   string
	logger   *zap.Logger
}

func NewHandler(reloader Reloader, secret string, logger *zap.Logger) *Handler {
	return &Handler{reloader: reloader, secret: secret, logger: logger}
}

type payload struct {
	EventType string `json:"event_type"`
}

type response struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Routes mounts the hook on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/hooks/catalog-reload", h.HandleCatalogReload)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (h *Handler) HandleCatalogReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if h.secret == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), []byte(h.secret)) != 1 {
		h.logger.Warn("Rejected webhook call", zap.String("remote_addr", r.RemoteAddr))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var p payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: "invalid payload"})
		return
	}

	switch p.EventType {
	case "catalog_updated", "coefficients_updated":
	default:
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: "unsupported event"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	if err := h.reloader.Reload(ctx); err != nil {
		h.logger.Error("Webhook reload failed", zap.String("event", p.EventType), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, response{Status: "error", Error: "reload failed"})
		return
	}

	h.logger.Info("Catalog reloaded from webhook", zap.String("event", p.EventType))
	writeJSON(w, http.StatusOK, response{Status: "ok", Version: h.reloader.Version()})
}

func writeJSON(w http.ResponseWriter, status int, v response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs the hook server until ctx is cancelled.
func Serve(ctx context.Context, addr string, h *Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Webhook server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
