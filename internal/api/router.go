package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/postconf/internal/postservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *postservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Put("/title", h.SetTitle)
		r.Post("/title/edits", h.EditTitle)
		r.Put("/date", h.SetDate)
		r.Post("/categories", h.AddCategory)
		r.Delete("/categories/{index}", h.DeleteCategory)
		r.Post("/tags", h.AddTag)
		r.Delete("/tags/{index}", h.DeleteTag)
		r.Put("/output-dir", h.SetOutputDir)
		r.Post("/save", h.Save)
	})

	r.Get("/posts", h.ListPosts)
	r.Get("/posts/*", h.GetPost)
	r.Get("/search", h.Search)
	r.Get("/vocabulary", h.Vocabulary)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
