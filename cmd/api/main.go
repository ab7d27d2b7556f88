package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	datafeed "github.com/tradelab/fvgscanner/Internal/database"
	"github.com/tradelab/fvgscanner/cmd/api/internal"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../../.env")

	if err := datafeed.InitDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer datafeed.CloseDatabase()

	apiServer := &internal.API{}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(internal.CorsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		internal.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/patterns", apiServer.HandleGetPatterns)
	r.Get("/api/signals", apiServer.HandleGetSignals)
	r.Get("/api/stats", apiServer.HandleGetStats)

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("API server listening on :%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
