package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"studio/internal/http/handlers"
	"studio/internal/middleware"
)

// NewRouter wires the provenance API.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	var origins []string
	rateLimit := 60
	jwtSecret := ""
	if app.Config != nil {
		origins = app.Config.CORSAllowedOrigins
		if app.Config.RateLimitPerMin > 0 {
			rateLimit = app.Config.RateLimitPerMin
		}
		jwtSecret = app.Config.JWTSecret
	}

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(origins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(jwtSecret))
		r.Use(middleware.RateLimit(rateLimit, time.Minute))

		r.Get("/v1/assets/{id}/download", app.DownloadAsset)
		r.Post("/v1/assets/download", app.DownloadBatch)
		r.Post("/v1/watermarks/extract", app.ExtractWatermark)
	})

	return r
}
