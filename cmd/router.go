package cmd

import (
	"net/http"

	"moodsync/internal/handlers"
	"moodsync/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func newRouter(checkIns *handlers.CheckInHandler, ws *handlers.WebSocketHandler, maxBodyBytes int64) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS)

	// Routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", checkIns.Health)
		r.Get("/ws", ws.HandleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.RequestSize(maxBodyBytes))
			r.Post("/emotions", checkIns.CreateCheckIn)
			r.Get("/emotions", checkIns.ListCheckIns)
		})
	})

	return r
}
