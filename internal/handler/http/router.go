package http

import (
	"net/http"

	middleware_http "inventory-api/internal/middleware/http"
	"inventory-api/internal/upload"

	"github.com/go-chi/chi/v5"
)

// NewRouter wires the public surface: auth and health are open,
// product routes sit behind the bearer middleware, and stored images
// are served statically.
func NewRouter(products *ProductHandler, auth *AuthHandler, health *HealthHandler, verifier middleware_http.TokenVerifier, uploadDir string) http.Handler {
	r := chi.NewRouter()

	r.Post("/auth/register", auth.Register)
	r.Post("/auth/login", auth.Login)
	r.Get("/healthz", health.Check)
	r.Handle(upload.PublicPrefix+"/*", http.StripPrefix(upload.PublicPrefix+"/", http.FileServer(http.Dir(uploadDir))))

	r.Group(func(pr chi.Router) {
		pr.Use(middleware_http.Auth(verifier))
		pr.Get("/products", products.List)
		pr.Get("/products/stats", products.Stats)
		pr.Get("/products/{id}", products.GetByID)
		pr.Post("/products", products.Create)
		pr.Put("/products/{id}", products.Update)
		pr.Delete("/products/{id}", products.Delete)
	})

	return r
}
