package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/dojo-starter/internal/api/apierr"
	"github.com/mcoot/dojo-starter/internal/middleware"
)

// Recovery answers handler panics with a JSON internal error naming the request ID
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, r *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError(middleware.RequestID(r.Context())))
	})
}
