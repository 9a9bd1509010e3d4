package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}

func (w *loggingResponseWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.statusCode = statusCode
}

// MiddlewareLogging attaches a request-scoped logger carrying a generated
// correlation id and logs the request and response.
func MiddlewareLogging(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	ctx := r.Context()
	logger := LoggerFromContext(ctx)

	logger = logger.With(
		"correlation_id", uuid.NewString(),
		"request_method", r.Method,
		"request_path", r.URL.Path,
		"request_remote_addr", r.RemoteAddr,
	)

	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	startTime := time.Now()

	logger.Debug("read request")

	next(lrw, r.WithContext(ContextWithLogger(ctx, logger)))

	logger.Info("send response",
		"response_status_code", lrw.statusCode,
		"body_written_bytes", lrw.bytesWritten,
		"duration", time.Since(startTime).Seconds())
}

// MiddlewarePanic recovers a panicking handler and converts it into an
// internal server error response.
func MiddlewarePanic(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	defer func() {
		if e := recover(); e != nil {
			if logger, ok := r.Context().Value(contextKeyLogger).(*slog.Logger); ok {
				logger.Error(fmt.Sprintf("panic: %#v\n%s\n", e, string(debug.Stack())))
			}
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}()

	next(w, r)
}
