package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/cultural-survey/backend/internal/cache"
	"github.com/cultural-survey/backend/internal/database"
	"github.com/cultural-survey/backend/internal/questionbank"
	"github.com/cultural-survey/backend/internal/review"
	"github.com/cultural-survey/backend/internal/session"
)

func main() {
	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Load the survey question tree. A malformed tree aborts startup.
	questionsPath := os.Getenv("QUESTIONS_PATH")
	if questionsPath == "" {
		questionsPath = "data/questions.json"
	}
	tree, err := questionbank.Load(questionsPath)
	if err != nil {
		log.Fatalf("Failed to load questions from %s: %v", questionsPath, err)
	}

	// Session cache: Redis when configured, in-process otherwise.
	var sessionCache cache.SessionCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		sessionCache = cache.NewSessionCache(client)
		log.Printf("Session cache using Redis at %s", addr)
	} else {
		sessionCache = cache.NewMemoryCache()
		log.Println("Session cache using in-process store")
	}

	// Services and handlers
	store := session.NewStore(db)
	svc := session.NewService(store, sessionCache, tree, session.LoadConfig())
	reviewer := review.NewReviewer()
	handler := session.NewHandler(svc, reviewer)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	handler.RegisterRoutes(api)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, c.Handler(r)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
