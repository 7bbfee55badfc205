package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// requestIDHeader carries the request ID to and from clients.
const requestIDHeader = "X-Request-ID"

// RequestID assigns every request an ID, honoring one supplied by the
// caller. The ID is stored in the request context and echoed in the
// response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))
	})
}
