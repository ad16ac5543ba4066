package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// RequestID returns the request id attached by RequestIDMiddleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestIDMiddleware attaches an id to every request, honoring a client
// supplied X-Request-Id, and echoes it on the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// AMPCORSMiddleware sets the headers AMP-capable email clients require on
// action-xhr responses. Gmail sends AMP-Email-Sender and the
// __amp_source_origin query parameter; both must be echoed back for the
// client to accept the response.
func AMPCORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		sender := r.Header.Get("AMP-Email-Sender")
		if sender == "" {
			sender = "*"
		}
		h.Set("AMP-Email-Allow-Sender", sender)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Expose-Headers", "AMP-Access-Control-Allow-Source-Origin, AMP-Email-Allow-Sender")

		if origin := r.Header.Get("Origin"); origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
		}
		if sourceOrigin := r.URL.Query().Get("__amp_source_origin"); sourceOrigin != "" {
			h.Set("AMP-Access-Control-Allow-Source-Origin", sourceOrigin)
		}

		next.ServeHTTP(w, r)
	})
}
