package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskr-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskr-api/internal/api/middleware"
	"github.com/phrazzld/taskr-api/internal/domain"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)

			r.With(apiMiddleware.RequireRole(domain.UserRoleAdmin)).
				Get("/admin", taskHandler.ListAllTasks)

			r.Get("/{id}", taskHandler.GetTask)
			r.Patch("/{id}", taskHandler.UpdateTask)
			r.Delete("/{id}", taskHandler.DeleteTask)
			r.Get("/{id}/logs", taskHandler.GetTaskLogs)
		})

		r.Get("/users/{id}/tasks", taskHandler.ListUserTasks)
	})

	r.Get("/health", api.Health)

	return r
}
