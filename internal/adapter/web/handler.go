// Package web exposes the inbound HTTP surface: the webhook endpoint
// and a health check.
package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	gh "github.com/google/go-github/v82/github"
	"go.uber.org/zap"

	"github.com/bkyoung/review-bot/internal/domain"
	"github.com/bkyoung/review-bot/internal/usecase/review"
)

// maxBodyBytes caps webhook payloads; GitHub's own limit is 25 MB.
const maxBodyBytes = 25 << 20

// EventHandler processes one webhook event to completion.
type EventHandler interface {
	Handle(ctx context.Context, event domain.WebhookEvent) review.RunResult
}

// Handler routes inbound HTTP traffic. Webhook deliveries are
// acknowledged immediately and reviewed in the background.
type Handler struct {
	pipeline      EventHandler
	logger        *zap.Logger
	webhookSecret []byte

	inflight sync.WaitGroup
}

// NewHandler creates the HTTP handler. An empty webhookSecret disables
// signature validation.
func NewHandler(pipeline EventHandler, logger *zap.Logger, webhookSecret string) *Handler {
	return &Handler{
		pipeline:      pipeline,
		logger:        logger,
		webhookSecret: []byte(webhookSecret),
	}
}

// Routes returns the full handler chain.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", h.handleWebhook)
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	return h.loggingMiddleware(h.recoveryMiddleware(mux))
}

// handleWebhook validates and acknowledges a delivery, then runs the
// review asynchronously. The hosting platform retries undelivered
// webhooks, so the ack must not wait for the review to finish.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := h.readPayload(r)
	if err != nil {
		h.logger.Warn("webhook signature validation failed", zap.Error(err))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var event domain.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		// Unrecognized payloads are acknowledged and ignored, the same
		// as events without a pull request.
		h.logger.Warn("ignoring malformed webhook payload", zap.Error(err))
		w.WriteHeader(http.StatusAccepted)
		return
	}

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		h.pipeline.Handle(context.Background(), event)
	}()

	w.WriteHeader(http.StatusAccepted)
}

// readPayload reads the request body, verifying the HMAC signature when
// a secret is configured.
func (h *Handler) readPayload(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	if len(h.webhookSecret) == 0 {
		return io.ReadAll(r.Body)
	}
	return gh.ValidatePayload(r, h.webhookSecret)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Drain waits for in-flight reviews to finish, up to the context
// deadline. Used during graceful shutdown.
func (h *Handler) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
