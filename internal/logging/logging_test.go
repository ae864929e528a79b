package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLoggerWritesRotatedFiles(t *testing.T) {
	dir := t.TempDir()
	if err := InitLogger(dir, "info"); err != nil {
		t.Fatalf("InitLogger: %v", err)
	}
	AppLogger.Info("hello from test")
	LogDuration(context.Background(), "unit")()
	Sync()

	b, err := os.ReadFile(filepath.Join(dir, "app.log"))
	if err != nil {
		t.Fatalf("read app.log: %v", err)
	}
	if !strings.Contains(string(b), "hello from test") {
		t.Fatalf("app.log missing message: %s", b)
	}
	b, err = os.ReadFile(filepath.Join(dir, "timer.log"))
	if err != nil {
		t.Fatalf("read timer.log: %v", err)
	}
	if !strings.Contains(string(b), `"func":"unit"`) {
		t.Fatalf("timer.log missing func field: %s", b)
	}
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	if err := InitLogger(t.TempDir(), "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestRequestMiddlewarePassesThrough(t *testing.T) {
	h := RequestMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pot", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.String() != "short and stout" {
		t.Fatalf("body = %q", rr.Body.String())
	}
}
