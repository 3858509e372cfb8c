package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"adlens/internal/ui/assets"
)

// MountRoutes mounts the UI pages and static assets under the given router,
// which is expected to be rooted at /ui.
func MountRoutes(r chi.Router, h *Handler) {
	staticFS, err := fs.Sub(assets.StaticFS(), "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/ui/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Get("/", h.Home)
	r.Get("/runs/{runID}", h.RunDetail)
}
