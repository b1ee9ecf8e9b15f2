package logging

import (
	"net/http"

	"github.com/google/uuid"
)

// Middleware scopes a child of the given logger to each HTTP request. The
// child is named after the request path and tagged with a request id, so
// logging.Track works per request.
func Middleware(logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scoped := logger.Named(r.URL.Path).With("request_id", uuid.NewString())
			next.ServeHTTP(w, r.WithContext(With(r.Context(), scoped)))
		})
	}
}
