package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func TestAccessLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(AccessLog(NewJSON(&buf, slog.LevelInfo)))
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	var line struct {
		Level     string `json:"level"`
		Msg       string `json:"msg"`
		Status    int    `json:"status"`
		Path      string `json:"path"`
		RequestID string `json:"request_id"`
	}

	err := json.Unmarshal(buf.Bytes(), &line)
	if err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}

	if line.Level != "ERROR" || line.Status != 500 || line.Path != "/boom" || line.RequestID == "" {
		t.Fatalf("unexpected log line: %+v", line)
	}
}

func TestNewJSON_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := NewJSON(&buf, slog.LevelWarn)
	logger.Info("hidden")

	if buf.Len() != 0 {
		t.Fatalf("info line should be filtered at warn level: %s", buf.String())
	}
}
