package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"tiledash/internal/log"
)

func testLogger(buf *bytes.Buffer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Handler = nil
	cfg.Output = buf
	return log.New(cfg)
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(testLogger(&buf), func(r *http.Request) string { return "198.51.100.1" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tiles/9", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("request id %q is not a UUID", seen)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Error("response header should echo the request id")
	}
	if !strings.Contains(buf.String(), "status_code=404") {
		t.Errorf("completion log missing status: %s", buf.String())
	}
	if m.GetMetrics().TotalRequests != 1 {
		t.Errorf("TotalRequests = %d", m.GetMetrics().TotalRequests)
	}
}

func TestMiddleware_KeepsIncomingID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(testLogger(&buf), nil)
	in := uuid.NewString()

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, in)
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen != in {
		t.Errorf("request id = %q, want incoming %q", seen, in)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, "not a uuid <script>")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen == "not a uuid <script>" {
		t.Error("invalid incoming id should be replaced")
	}
}

func TestLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := testLogger(&buf)
	m := NewMiddleware(base, nil)

	h := m.Middleware(LoggerMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).InfoContext(r.Context(), "inside handler")
	})))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	id := uuid.NewString()
	r.Header.Set(HeaderRequestID, id)
	h.ServeHTTP(httptest.NewRecorder(), r)

	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "inside handler") && !strings.Contains(line, id) {
			t.Errorf("handler log missing request id: %s", line)
		}
	}
}
