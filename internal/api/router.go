package api

import (
	"database/sql"
	"net/http"

	"github.com/mlakar/shramba/internal/auth"
	"github.com/mlakar/shramba/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, a *auth.Authenticator) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Auth: a}
	usersHandler := &UsersHandler{DB: db}
	locationsHandler := &LocationsHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	logsHandler := &LogsHandler{DB: db}

	authMW := TokenMiddleware(a)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: token issuance.
	mux.HandleFunc("POST /v1/api/auth/token/{$}", authHandler.ObtainToken)

	// Authenticated token management.
	mux.Handle("POST /v1/api/auth/revoke/{$}", authMW(http.HandlerFunc(authHandler.RevokeToken)))
	mux.Handle("POST /v1/api/auth/refresh/{$}", authMW(http.HandlerFunc(authHandler.RefreshToken)))
	mux.Handle("GET /v1/api/auth/info/{$}", authMW(http.HandlerFunc(authHandler.TokenInfo)))

	// Users (admin only).
	mux.Handle("GET /v1/api/users/{$}", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /v1/api/users/{$}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /v1/api/users/{id}/{$}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /v1/api/users/{id}/{$}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /v1/api/users/{id}/password/{$}", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /v1/api/users/{id}/{$}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Locations.
	mux.Handle("GET /v1/api/locations/{$}", authMW(http.HandlerFunc(locationsHandler.List)))
	mux.Handle("POST /v1/api/locations/{$}", authMW(http.HandlerFunc(locationsHandler.Create)))
	mux.Handle("GET /v1/api/locations/{id}/{$}", authMW(http.HandlerFunc(locationsHandler.Get)))
	mux.Handle("PUT /v1/api/locations/{id}/{$}", authMW(http.HandlerFunc(locationsHandler.Update)))
	mux.Handle("DELETE /v1/api/locations/{id}/{$}", authMW(http.HandlerFunc(locationsHandler.Delete)))
	mux.Handle("GET /v1/api/locations/{id}/items/{$}", authMW(http.HandlerFunc(locationsHandler.Items)))
	mux.Handle("GET /v1/api/locations/{id}/children/{$}", authMW(http.HandlerFunc(locationsHandler.Children)))
	mux.Handle("PUT /v1/api/locations/{id}/image/{$}", authMW(http.HandlerFunc(locationsHandler.UploadImage)))
	mux.Handle("GET /v1/api/locations/{id}/image/{$}", authMW(http.HandlerFunc(locationsHandler.GetImage)))

	// Items.
	mux.Handle("GET /v1/api/items/{$}", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /v1/api/items/{$}", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /v1/api/items/{id}/{$}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /v1/api/items/{id}/{$}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /v1/api/items/{id}/{$}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("GET /v1/api/items/{id}/logs/{$}", authMW(http.HandlerFunc(itemsHandler.Logs)))
	mux.Handle("PUT /v1/api/items/{id}/image/{$}", authMW(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("GET /v1/api/items/{id}/image/{$}", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Audit log.
	mux.Handle("GET /v1/api/logs/{$}", authMW(http.HandlerFunc(logsHandler.List)))

	return LoggingMiddleware(mux)
}
