// internal/health/handler.go
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"workqueue-lambdas/internal/domain"

	"github.com/aws/aws-lambda-go/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const recentLimit = 5

// Body is the JSON document returned to API clients.
type Body struct {
	Message     string   `json:"message"`
	Timestamp   string   `json:"timestamp"`
	Environment string   `json:"environment"`
	Database    Database `json:"database"`
}

type Database struct {
	Connected    bool                  `json:"connected"`
	Error        *string               `json:"error"`
	QueryResults []domain.HealthRecord `json:"query_results"`
}

// Handler exercises the database with a write and a read on every call.
type Handler struct {
	repo        domain.HealthRepository
	environment string
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

func NewHandler(repo domain.HealthRepository, environment string, logger *slog.Logger) *Handler {
	return &Handler{
		repo:        repo,
		environment: environment,
		logger:      logger.With("component", "health"),
		tracer:      otel.Tracer("workqueue-health"),
		now:         time.Now,
	}
}

// Check queries the database and builds the body. Database errors are reported in
// the body; they are never returned.
func (h *Handler) Check(ctx context.Context) Body {
	ctx, span := h.tracer.Start(ctx, "health.Check")
	defer span.End()

	body := Body{Environment: h.environment}
	records, err := h.query(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database query failed")
		h.logger.Error("database error", "error", err)

		msg := err.Error()
		body.Message = "Database connection failed"
		body.Database = Database{Connected: false, Error: &msg}
	} else {
		h.logger.Info("database query successful", "rows", len(records))
		body.Message = "Hello from Lambda with Database!"
		body.Database = Database{Connected: true, QueryResults: records}
	}
	body.Timestamp = h.now().UTC().Format(time.RFC3339Nano)
	return body
}

func (h *Handler) query(ctx context.Context) ([]domain.HealthRecord, error) {
	if err := h.repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Lambda execution at %s", h.now().UTC().Format(time.RFC3339Nano))
	if err := h.repo.Insert(ctx, msg); err != nil {
		return nil, err
	}
	return h.repo.Recent(ctx, recentLimit)
}

// Handle answers an API Gateway proxy request.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.logger.Info("health check requested", "path", req.Path, "request_id", req.RequestContext.RequestID)

	body := h.Check(ctx)
	status := http.StatusOK
	if !body.Database.Connected {
		status = http.StatusInternalServerError
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("failed to encode health response: %w", err)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(payload),
	}, nil
}
