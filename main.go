package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/cors"

	"github.com/taskfuchs/server/config"
	"github.com/taskfuchs/server/database"
	"github.com/taskfuchs/server/handlers"
	"github.com/taskfuchs/server/services"
)

func main() {
	cfg := config.MustLoad(os.Getenv("CONFIG_PATH"))

	// Initialize database
	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize services
	authService := services.NewAuthService(cfg.JWTSecret, services.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	dataService := database.NewDataService(db)

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, dataService, cfg.AdminEmail)
	syncHandler := handlers.NewSyncHandler(dataService, hub)
	taskHandler := handlers.NewTaskHandler(dataService)
	tagHandler := handlers.NewTagHandler(dataService)
	columnHandler := handlers.NewColumnHandler(dataService)
	noteHandler := handlers.NewNoteHandler(dataService)
	pinHandler := handlers.NewPinColumnHandler(dataService)
	settingsHandler := handlers.NewSettingsHandler(dataService)
	calendarHandler := handlers.NewCalendarHandler(dataService)
	adminHandler := handlers.NewAdminHandler(dataService)
	wsHandler := handlers.NewWebSocketHandler(authService, hub)
	authMiddleware := handlers.NewAuthMiddleware(authService, dataService)

	// Setup router
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Auth routes
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/magic-link", authHandler.HandleMagicLink).Methods("GET")

	// Protected routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Auth)

	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	// Full-state sync
	api.HandleFunc("/sync/full", syncHandler.GetFull).Methods("GET")
	api.HandleFunc("/sync", syncHandler.Sync).Methods("POST")

	// Tasks
	api.HandleFunc("/tasks", taskHandler.List).Methods("GET")
	api.HandleFunc("/tasks", taskHandler.Create).Methods("POST")
	api.HandleFunc("/tasks/archived", taskHandler.ListArchived).Methods("GET")
	api.HandleFunc("/tasks/bulk", taskHandler.Bulk).Methods("POST")
	api.HandleFunc("/tasks/reorder", taskHandler.Reorder).Methods("POST")
	api.HandleFunc("/tasks/{id}", taskHandler.Get).Methods("GET")
	api.HandleFunc("/tasks/{id}", taskHandler.Update).Methods("PUT")
	api.HandleFunc("/tasks/{id}", taskHandler.Delete).Methods("DELETE")
	api.HandleFunc("/tasks/{id}/archive", taskHandler.Archive).Methods("POST")
	api.HandleFunc("/tasks/{id}/restore", taskHandler.Restore).Methods("POST")

	// Tags
	api.HandleFunc("/tags", tagHandler.List).Methods("GET")
	api.HandleFunc("/tags", tagHandler.Create).Methods("POST")
	api.HandleFunc("/tags/bulk", tagHandler.Bulk).Methods("POST")
	api.HandleFunc("/tags/{id}", tagHandler.Update).Methods("PUT")
	api.HandleFunc("/tags/{id}", tagHandler.Delete).Methods("DELETE")

	// Columns
	api.HandleFunc("/columns", columnHandler.List).Methods("GET")
	api.HandleFunc("/columns", columnHandler.Create).Methods("POST")
	api.HandleFunc("/columns/bulk", columnHandler.Bulk).Methods("POST")
	api.HandleFunc("/columns/reorder", columnHandler.Reorder).Methods("PUT")
	api.HandleFunc("/columns/{id}", columnHandler.Update).Methods("PUT")
	api.HandleFunc("/columns/{id}", columnHandler.Delete).Methods("DELETE")

	// Notes
	api.HandleFunc("/notes", noteHandler.List).Methods("GET")
	api.HandleFunc("/notes", noteHandler.Create).Methods("POST")
	api.HandleFunc("/notes/bulk", noteHandler.Bulk).Methods("POST")
	api.HandleFunc("/notes/{id}", noteHandler.Get).Methods("GET")
	api.HandleFunc("/notes/{id}", noteHandler.Update).Methods("PUT")
	api.HandleFunc("/notes/{id}", noteHandler.Delete).Methods("DELETE")

	// Pin columns
	api.HandleFunc("/pin-columns", pinHandler.List).Methods("GET")
	api.HandleFunc("/pin-columns", pinHandler.Create).Methods("POST")
	api.HandleFunc("/pin-columns/{id}", pinHandler.Update).Methods("PUT")
	api.HandleFunc("/pin-columns/{id}", pinHandler.Delete).Methods("DELETE")

	// Preferences and view state
	api.HandleFunc("/preferences", settingsHandler.GetPreferences).Methods("GET")
	api.HandleFunc("/preferences", settingsHandler.PutPreferences).Methods("PUT")
	api.HandleFunc("/preferences", settingsHandler.PatchPreferences).Methods("PATCH")
	api.HandleFunc("/view-state", settingsHandler.GetViewState).Methods("GET")
	api.HandleFunc("/view-state", settingsHandler.PutViewState).Methods("PUT")
	api.HandleFunc("/view-state", settingsHandler.PatchViewState).Methods("PATCH")

	// Calendar
	api.HandleFunc("/calendar/sources", calendarHandler.ListSources).Methods("GET")
	api.HandleFunc("/calendar/sources", calendarHandler.CreateSource).Methods("POST")
	api.HandleFunc("/calendar/sources/{id}", calendarHandler.UpdateSource).Methods("PUT")
	api.HandleFunc("/calendar/sources/{id}", calendarHandler.DeleteSource).Methods("DELETE")
	api.HandleFunc("/calendar/events", calendarHandler.ListEvents).Methods("GET")
	api.HandleFunc("/calendar/events", calendarHandler.ReplaceEvents).Methods("POST")
	api.HandleFunc("/calendar/events", calendarHandler.DeleteEvents).Methods("DELETE")

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware.Admin)
	admin.HandleFunc("/users", adminHandler.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id}", adminHandler.GetUser).Methods("GET")
	admin.HandleFunc("/users/{id}", adminHandler.DeleteUser).Methods("DELETE")
	admin.HandleFunc("/users/{id}/admin", adminHandler.SetAdmin).Methods("PUT")
	admin.HandleFunc("/stats", adminHandler.Stats).Methods("GET")

	// WebSocket route for real-time updates
	r.HandleFunc("/api/ws", wsHandler.Handle)

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, change to your domain
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Start server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(server.ListenAndServe())
}
