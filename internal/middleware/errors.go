package middleware

import (
	"net/http"

	"github.com/go-chi/render"

	apierrors "admissionsdash/internal/errors"
	"admissionsdash/internal/infrastructure"
)

// writeProblem renders an RFC 7807 response carrying the request trace id.
// Middleware short-circuits use it instead of the full ErrorHandler because
// they run before routing and have no error value to map.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, title, detail string) {
	problem := apierrors.NewProblemDetails(status, problemType, title, detail, r.URL.Path)
	if traceID := infrastructure.GetTraceID(r.Context()); traceID != "" {
		problem.WithExtension("trace_id", traceID)
	}

	render.Render(w, r, problem)
}
