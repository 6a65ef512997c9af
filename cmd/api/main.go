package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/khaledmahi/linkup/internal/assets"
	"github.com/khaledmahi/linkup/internal/comment"
	"github.com/khaledmahi/linkup/internal/config"
	"github.com/khaledmahi/linkup/internal/database"
	"github.com/khaledmahi/linkup/internal/group"
	"github.com/khaledmahi/linkup/internal/message"
	"github.com/khaledmahi/linkup/internal/post"
	"github.com/khaledmahi/linkup/internal/user"
	"github.com/khaledmahi/linkup/pkg/logger"
	"github.com/khaledmahi/linkup/pkg/middleware"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	logg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		logg.Fatal("failed to connect to database", "error", err)
	}

	logg.Info("connected to database")

	// Remote image hosting
	assetStore := assets.NewClient(cfg.AssetStoreURL, cfg.AssetStoreKey, cfg.AssetStoreSecret, logg)

	// Cookie sessions
	sessions := middleware.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo, assetStore, logg)
	userHandler := user.NewHandler(userService, sessions)

	// Group / post features reference each other through narrow interfaces:
	// posts check membership against the group repo, the group feed lists
	// through the post service.
	groupRepo := group.NewRepository(db)
	postRepo := post.NewRepository(db)
	postService := post.NewService(postRepo, groupRepo, assetStore, logg)
	postHandler := post.NewHandler(postService, sessions)

	groupService := group.NewService(groupRepo, postService, assetStore, logg)
	groupHandler := group.NewHandler(groupService, sessions)

	// Comment feature
	commentRepo := comment.NewRepository(db)
	commentService := comment.NewService(commentRepo, logg)
	commentHandler := comment.NewHandler(commentService, sessions)

	// Message feature
	messageRepo := message.NewRepository(db)
	messageService := message.NewService(messageRepo, logg)
	messageHandler := message.NewHandler(messageService, sessions)

	r := chi.NewRouter()

	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/users", userHandler.Routes())
		r.Mount("/groups", groupHandler.Routes())
		r.Mount("/posts", postHandler.Routes())
		r.Mount("/comments", commentHandler.Routes())
		r.Mount("/messages", messageHandler.Routes())
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logg.Info("server starting", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logg.Fatal("server failed to start", "error", err)
	}
}
