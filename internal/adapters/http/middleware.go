package httpadapter

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	requestIDHeader    = "X-Request-Id"
	maxRequestIDLength = 128
)

type requestIDContextKey struct{}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// acceptableRequestID reports whether a client supplied id can be echoed into
// response headers and log lines as is.
func acceptableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if !acceptableRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDContextKey{}, id)))
	})
}

// accessLogMiddleware writes one http_request line per dashboard call.
func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Log(r.Context(), logLevelForStatus(rec.status), "http_request", accessLogAttrs(r, rec, time.Since(started))...)
	})
}

func accessLogAttrs(r *http.Request, rec *responseRecorder, elapsed time.Duration) []any {
	attrs := []any{
		"request_id", requestIDFromContext(r.Context()),
		"session", sessionFromRequest(r),
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration_ms", float64(elapsed.Microseconds()) / 1000.0,
		"bytes", rec.written,
		"remote_addr", clientHost(r.RemoteAddr),
	}
	if ua := r.UserAgent(); ua != "" {
		attrs = append(attrs, "user_agent", ua)
	}
	if r.Header.Get("HX-Request") == "true" {
		attrs = append(attrs, "htmx", true, "htmx_target", r.Header.Get("HX-Target"))
	}
	return attrs
}

// logLevelForStatus keeps shed requests at debug so a traffic spike does not
// flood the log with warnings.
func logLevelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status == http.StatusTooManyRequests:
		return slog.LevelDebug
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func clientHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *responseRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
