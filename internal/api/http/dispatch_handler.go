// internal/api/http/dispatch_handler.go
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"workqueue-lambdas/internal/domain"
	"workqueue-lambdas/internal/metrics"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Dispatcher is the use case behind POST /dispatch.
type Dispatcher interface {
	Dispatch(ctx context.Context, items []domain.WorkItem) ([]domain.DispatchRecord, error)
}

// DispatchHandler serves the scheduler daemon API.
type DispatchHandler struct {
	service  Dispatcher
	leader   domain.LeaderElectionManager
	nodeID   string
	logger   *slog.Logger
	validate *validator.Validate
	tracer   trace.Tracer
}

// NewDispatchHandler creates a DispatchHandler. leader may be nil when the
// daemon runs without election.
func NewDispatchHandler(service Dispatcher, leader domain.LeaderElectionManager, nodeID string, logger *slog.Logger) *DispatchHandler {
	validate := validator.New()
	_ = validate.RegisterValidation("worktype", func(fl validator.FieldLevel) bool {
		return domain.WorkType(fl.Field().String()).Known()
	})

	return &DispatchHandler{
		service:  service,
		leader:   leader,
		nodeID:   nodeID,
		logger:   logger.With("component", "dispatch-handler"),
		validate: validate,
		tracer:   otel.Tracer("workqueue-api"),
	}
}

// A helper struct to capture the status code
type instrumentedResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *instrumentedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// RegisterRoutes registers the API routes on mux.
func (h *DispatchHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /dispatch", h.instrument("/dispatch", h.handleDispatch))
	mux.Handle("GET /healthz", h.instrument("/healthz", h.handleHealth))
}

func (h *DispatchHandler) instrument(path string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "HTTP "+r.Method+" "+path, trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		))
		defer span.End()

		iw := &instrumentedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(iw, r.WithContext(ctx))

		metrics.HttpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(iw.statusCode)).Inc()
		span.SetAttributes(attribute.Int("http.status_code", iw.statusCode))
		if iw.statusCode >= 500 {
			span.SetStatus(codes.Error, "Server Error")
		}
	})
}

func (h *DispatchHandler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.Dispatch")
	defer span.End()

	var req DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		span.SetStatus(codes.Error, "Failed to decode request body")
		span.RecordError(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		span.RecordError(err)
		var details []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details = append(details, "Field '"+fe.Namespace()+"' failed on the '"+fe.Tag()+"' tag.")
			}
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Validation failed",
			"details": details,
		})
		return
	}

	records, err := h.service.Dispatch(ctx, req.ToDomainItems())
	if err != nil {
		span.SetStatus(codes.Error, "Dispatch failed")
		span.RecordError(err)
		h.logger.Error("manual dispatch failed", "error", err)
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, domain.ErrUnknownWorkType):
			status = http.StatusBadRequest
		case errors.Is(err, domain.ErrLockNotAcquired):
			status = http.StatusConflict
		}
		writeJSON(w, status, DispatchResponse{MessagesSent: records, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, DispatchResponse{MessagesSent: records})
}

func (h *DispatchHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", NodeID: h.nodeID}
	if h.leader != nil {
		resp.Leader = h.leader.IsLeader()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
