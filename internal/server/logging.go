package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type logFieldsKey struct{}

// LoggingMiddleware emits one "request completed" record per request with
// the fields handlers attached through AddLogField.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := GetRequestID(r.Context())

			fields := map[string]string{}
			if token := r.Header.Get(IdempotencyHeader); token != "" {
				fields["idempotency_token"] = token
			}
			ctx := context.WithValue(r.Context(), logFieldsKey{}, fields)

			logger.DebugContext(ctx, "request started",
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			)

			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			attrs := make([]slog.Attr, 0, 5+len(fields))
			attrs = append(attrs,
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.status),
				slog.Duration("duration", time.Since(start)),
			)
			for k, v := range fields {
				attrs = append(attrs, slog.String(k, v))
			}
			logger.LogAttrs(ctx, levelForStatus(rw.status), "request completed", attrs...)
		})
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// statusRecorder remembers the first status code written.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// AddLogField attaches key=value to the request's completion record. Empty
// values are dropped. It does nothing outside LoggingMiddleware.
func AddLogField(ctx context.Context, key, value string) {
	if value == "" {
		return
	}
	if fields, ok := ctx.Value(logFieldsKey{}).(map[string]string); ok {
		fields[key] = value
	}
}

// AddError records err under "error". A nil err is ignored.
func AddError(ctx context.Context, err error) {
	if err != nil {
		AddLogField(ctx, "error", err.Error())
	}
}
