package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// gateway wraps h the way cmd/storefront does.
func gateway(logger *slog.Logger, h http.HandlerFunc) http.Handler {
	return Chain(Recovery(logger), RequestID(), Logging(logger))(h)
}

func TestLoggingLevelByStatus(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		status    int // 0 writes a body without WriteHeader
		wantLevel string
		wantCode  string
	}{
		{"cart add", "POST", "/api/cart/items", http.StatusCreated, "level=INFO", "status=201"},
		{"implicit ok", "GET", "/api/cart", 0, "level=INFO", "status=200"},
		{"missing store", "GET", "/api/stores/9", http.StatusNotFound, "level=INFO", "status=404"},
		{"backend down", "GET", "/api/stores/7/products", http.StatusBadGateway, "level=WARN", "status=502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				w.Write([]byte(`{"success":true}`))
			}))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("User-Agent", "shopctl")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			logged := buf.String()
			for _, want := range []string{tt.wantLevel, tt.wantCode, "method=" + tt.method, "path=" + tt.path, "user_agent=shopctl"} {
				if !strings.Contains(logged, want) {
					t.Errorf("log missing %q: %s", want, logged)
				}
			}
		})
	}
}

func TestGatewayLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := gateway(logger, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("DELETE", "/api/cart", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get(HeaderRequestID); got != "req-42" {
		t.Errorf("response id = %q, want req-42", got)
	}
	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("log should carry the request id: %s", buf.String())
	}
}

func TestGatewayRecoversHandlerPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := gateway(logger, func(w http.ResponseWriter, r *http.Request) {
		panic("nil cart")
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/checkout", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", w.Code)
	}
	if w.Header().Get(HeaderRequestID) == "" {
		t.Error("request id should be set before the handler runs")
	}
	logged := buf.String()
	for _, want := range []string{"panic recovered", "nil cart", "path=/api/checkout"} {
		if !strings.Contains(logged, want) {
			t.Errorf("log missing %q: %s", want, logged)
		}
	}
}

func TestRecoveryPassesThrough(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/wishlist", nil))

	if w.Code != http.StatusOK || w.Body.String() != `{"items":[]}` {
		t.Errorf("response = %d %s", w.Code, w.Body.String())
	}
}

func TestRecoveryAfterHeadersSent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late panic")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusAccepted {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusAccepted)
	}
	if strings.Contains(w.Body.String(), "Internal Server Error") {
		t.Error("should not write an error body after headers were sent")
	}
}

func TestChainOrder(t *testing.T) {
	var trace []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name+">")
				next.ServeHTTP(w, r)
				trace = append(trace, "<"+name)
			})
		}
	}

	Chain(tag("outer"), tag("inner"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		trace = append(trace, "handler")
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := "outer> inner> handler <inner <outer"
	if got := strings.Join(trace, " "); got != want {
		t.Errorf("trace = %q, want %q", got, want)
	}
}

func TestResponseWriterKeepsFirstStatus(t *testing.T) {
	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

	rw.WriteHeader(http.StatusConflict)
	rw.WriteHeader(http.StatusOK)
	rw.Write([]byte("conflict"))

	if rw.status != http.StatusConflict || w.Code != http.StatusConflict {
		t.Errorf("status = %d, recorded = %d, want 409", rw.status, w.Code)
	}
}

func TestStreamingFlushThroughGateway(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var flushErr error
	h := gateway(logger, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: message\n\n"))
		flushErr = http.NewResponseController(w).Flush()
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", nil))

	if flushErr != nil {
		t.Fatalf("Flush() error = %v", flushErr)
	}
	if !w.Flushed {
		t.Error("flush should reach the underlying writer")
	}
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		wantSame bool
	}{
		{"caller id kept", "abc-123", true},
		{"missing id generated", "", false},
		{"oversized id replaced", strings.Repeat("x", 129), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFrom(r.Context())
			}))

			req := httptest.NewRequest("GET", "/api/session", nil)
			if tt.incoming != "" {
				req.Header.Set(HeaderRequestID, tt.incoming)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if tt.wantSame && seen != tt.incoming {
				t.Errorf("context id = %q, want %q", seen, tt.incoming)
			}
			if !tt.wantSame && len(seen) != 36 {
				t.Errorf("generated id = %q, want uuid", seen)
			}
			if w.Header().Get(HeaderRequestID) != seen {
				t.Error("response header should echo the context id")
			}
		})
	}

	if got := RequestIDFrom(httptest.NewRequest("GET", "/", nil).Context()); got != "" {
		t.Errorf("RequestIDFrom on bare context = %q, want empty", got)
	}
}
