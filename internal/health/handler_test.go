package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"workqueue-lambdas/internal/domain"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rows      []domain.HealthRecord
	schemaErr error
	insertErr error
}

func (f *fakeRepo) EnsureSchema(context.Context) error { return f.schemaErr }

func (f *fakeRepo) Insert(_ context.Context, message string) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows = append([]domain.HealthRecord{{ID: int64(len(f.rows) + 1), Timestamp: time.Now(), Message: message}}, f.rows...)
	return nil
}

func (f *fakeRepo) Recent(_ context.Context, limit int) ([]domain.HealthRecord, error) {
	if len(f.rows) > limit {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func newHandler(repo domain.HealthRepository) *Handler {
	return NewHandler(repo, "dev", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleConnected(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 7; i++ {
		require.NoError(t, repo.Insert(context.Background(), "earlier"))
	}

	resp, err := newHandler(repo).Handle(context.Background(), events.APIGatewayProxyRequest{Path: "/health"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	var body Body
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.True(t, body.Database.Connected)
	assert.Nil(t, body.Database.Error)
	assert.Equal(t, "dev", body.Environment)
	require.Len(t, body.Database.QueryResults, 5)
	assert.True(t, strings.HasPrefix(body.Database.QueryResults[0].Message, "Lambda execution at "))
}

func TestHandleDatabaseFailure(t *testing.T) {
	for _, repo := range []*fakeRepo{
		{schemaErr: errors.New("connection refused")},
		{insertErr: errors.New("connection refused")},
	} {
		resp, err := newHandler(repo).Handle(context.Background(), events.APIGatewayProxyRequest{})
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		var raw map[string]any
		require.NoError(t, json.Unmarshal([]byte(resp.Body), &raw))
		assert.Equal(t, "Database connection failed", raw["message"])
		db := raw["database"].(map[string]any)
		assert.Equal(t, false, db["connected"])
		assert.Equal(t, "connection refused", db["error"])
		assert.Nil(t, db["query_results"])
	}
}
