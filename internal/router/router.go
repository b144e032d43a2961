package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/handlers"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/middleware"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/services"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/utils"
)

func NewRouter(analysisService services.AnalysisService, logger *utils.Logger, limits handlers.Limits) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Metrics())

	analysisHandler := handlers.NewAnalysisHandler(analysisService, logger, limits)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Analysis endpoints
	api.HandleFunc("/analyses", analysisHandler.CreateAnalysis).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/analyses/{id}", analysisHandler.GetAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id}/documents", analysisHandler.AddDocuments).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/analyses/{id}/documents/{position}", analysisHandler.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id}/report", analysisHandler.GetReport).Methods(http.MethodGet)

	// Simulation endpoints
	api.HandleFunc("/simulation-params", analysisHandler.DeriveSimulationParams).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/simulations", analysisHandler.TriggerSimulation).Methods(http.MethodPost, http.MethodOptions)

	return r
}
