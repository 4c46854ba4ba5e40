package httpapi

import (
	"net/http"
)

// NewMux returns a mux with the health check and static files registered.
// Feature routes are added by the caller.
func NewMux(staticDir string, deps HealthDeps) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, deps)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	return mux
}
