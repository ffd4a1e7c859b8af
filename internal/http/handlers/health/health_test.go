package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name           string
		checks         map[string]Checker
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "no checks",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"error":0,"data":{"status":"ok"}}`,
		},
		{
			name:           "all healthy",
			checks:         map[string]Checker{"postgres": ok, "redis": ok},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"error":0,"data":{"status":"ok","postgres":"ok","redis":"ok"}}`,
		},
		{
			name:           "redis down",
			checks:         map[string]Checker{"postgres": ok, "redis": down},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody: `{"error":-1,"kind":"internal","msg":"service unavailable",
				"data":{"postgres":"ok","redis":"unavailable"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			New(log, tt.checks).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
