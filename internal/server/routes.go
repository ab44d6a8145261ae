package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Label queries (dropdown widget)
	mux.HandleFunc("/api/labels", s.app.LabelHandler.SearchHandler)          // GET ?query=
	mux.HandleFunc("/api/labels/options", s.app.LabelHandler.OptionsHandler) // GET ?query= -> [{label, value}]

	// API routes - Refresh
	mux.HandleFunc("/api/sync", s.app.SyncHandler.TriggerHandler)       // POST - enqueue a refresh
	mux.HandleFunc("/api/sync/status", s.app.SyncHandler.StatusHandler) // GET - last report, mode, queue depth

	// API routes - Notifications from Jira
	mux.HandleFunc("/api/events/field-config-changed", s.app.EventHandler.FieldConfigChangedHandler)

	// WebSocket - refresh event stream
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}
