package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/HeyImBrandon1/clawding/internal/config"
	"github.com/HeyImBrandon1/clawding/internal/database"
	"github.com/HeyImBrandon1/clawding/internal/handlers"
	"github.com/HeyImBrandon1/clawding/internal/middleware"
	"github.com/HeyImBrandon1/clawding/internal/routes"
	"github.com/HeyImBrandon1/clawding/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	if cfg.AdminToken == "" {
		log.Println("⚠️  WARNING: ADMIN_TOKEN not set. Admin endpoints will be unavailable.")
	}
	if cfg.ResendAPIKey == "" {
		log.Println("⚠️  WARNING: RESEND_API_KEY not set. Registration emails cannot be sent.")
	}

	log.Printf("Connecting to PostgreSQL...")
	db, err := database.Connect(cfg.PostgresURI)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer db.Close()

	log.Printf("Connecting to Redis...")
	rdb, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	store := services.NewPostgresFeedStore(db)
	claims := services.NewClaimStore(rdb)
	limits := services.NewRateLimiter(rdb)
	mailer := services.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom, cfg.SiteURL)
	hub := services.NewFeedHub(rdb)
	hub.StartSubscriber(context.Background())

	h := handlers.New(cfg, store, claims, limits, mailer, hub)

	r := chi.NewRouter()

	// Edge admission: CORS allow-list → security headers → blanket per-IP quota
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.IPAdmission)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r, h)

	log.Println("📋 Registered routes:")
	log.Println("  GET    /health")
	log.Println("  POST   /api/claim")
	log.Println("  POST   /api/claim/verify")
	log.Println("  POST   /api/post/{slug}")
	log.Println("  DELETE /api/delete/{slug}")
	log.Println("  GET    /api/global")
	log.Println("  GET    /api/stats")
	log.Println("  GET    /api/active")
	log.Println("  GET    /api/profiles")
	log.Println("  GET    /api/feeds/{slug}")
	log.Println("  PATCH  /api/admin/feeds/{slug}")
	log.Println("  GET    /i")
	log.Println("  GET    /ws/feed")

	log.Printf("🚀 Clawding backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
