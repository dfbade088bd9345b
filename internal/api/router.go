package api

import (
	"net/http"

	"github.com/joetm/ckanext-feeds/internal/auth"
)

// SetupRoutes configures the application routes on the given mux.
func SetupRoutes(mux *http.ServeMux, feedHandler *FeedHandler, activityHandler *ActivityHandlers, authHandler *AuthHandler, authConfig auth.Config) {
	authMiddleware := auth.Middleware(authConfig)

	// Authentication (public)
	mux.HandleFunc("/api/auth/login", authHandler.Login)

	// Dashboard feed; the handler falls back to the plain dashboard view
	// when no format is requested
	mux.Handle("/dashboard", authMiddleware(http.HandlerFunc(feedHandler.GetDashboardFeed)))

	// Activity recording and listing (authenticated)
	mux.Handle("/api/activities", authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			activityHandler.DashboardPage(w, r)
		case http.MethodPost:
			activityHandler.RecordActivity(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))
}
