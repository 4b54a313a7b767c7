package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tjfontaine/hackpack/internal/auth"
)

type eventKindKey struct{}

// SignatureMiddleware rejects webhook requests that are not validly signed.
// Rejected requests get a 403 with a plain text body and never reach next.
// m may be nil.
func SignatureMiddleware(v *auth.Validator, m *Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			kind, err := v.Validate(r)
			if err != nil {
				result := "invalid"
				switch {
				case errors.Is(err, auth.ErrMissingSignature):
					result = "missing"
				case errors.Is(err, auth.ErrUnknownEvent):
					result = "unknown_event"
				}
				m.observeSignature(string(kind), result)
				AddError(r.Context(), err)
				logger.Warn("rejected webhook request",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("path", r.URL.Path),
					slog.String("kind", string(kind)),
					slog.String("error", err.Error()),
				)
				http.Error(w, "Forbidden: request could not be verified as coming from Twilio.", http.StatusForbidden)
				return
			}

			m.observeSignature(string(kind), "valid")
			AddLogField(r.Context(), "event_kind", string(kind))
			AddLogField(r.Context(), "call_sid", r.PostForm.Get("CallSid"))
			AddLogField(r.Context(), "message_sid", r.PostForm.Get("MessageSid"))
			AddLogField(r.Context(), "sms_sid", r.PostForm.Get("SmsSid"))
			ctx := context.WithValue(r.Context(), eventKindKey{}, kind)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetEventKind returns the kind recorded by SignatureMiddleware, or "" if unset.
func GetEventKind(ctx context.Context) auth.EventKind {
	if kind, ok := ctx.Value(eventKindKey{}).(auth.EventKind); ok {
		return kind
	}
	return ""
}
