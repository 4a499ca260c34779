package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/kyuwon/riskbook/internal/api/handlers"
	"github.com/kyuwon/riskbook/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(
	profileHandler *handlers.ProfileHandler,
	simHandler *handlers.SimulationHandler,
	journalHandler *handlers.JournalHandler,
	schedHandler *handlers.SchedulerHandler,
	requestsPerMin int,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Risk profile endpoints
	api.HandleFunc("/profiles", profileHandler.List).Methods("GET")
	api.HandleFunc("/profiles", profileHandler.Create).Methods("POST")
	api.HandleFunc("/profiles/{id}", profileHandler.Get).Methods("GET")
	api.HandleFunc("/profiles/{id}", profileHandler.Update).Methods("PUT")
	api.HandleFunc("/profiles/{id}", profileHandler.Delete).Methods("DELETE")
	api.HandleFunc("/profiles/validate", profileHandler.Validate).Methods("POST")

	// Simulation endpoints — CPU를 태우는 경로라 rate limit 적용
	sims := api.PathPrefix("/simulations").Subrouter()
	sims.HandleFunc("", simHandler.Run).Methods("POST")
	sims.HandleFunc("/ws", simHandler.RunWS) // websocket은 Methods 매칭 없이
	sims.Use(rateLimitMiddleware(requestsPerMin, log))

	// Journal endpoints
	api.HandleFunc("/journal/trades", journalHandler.List).Methods("GET")
	api.HandleFunc("/journal/trades", journalHandler.Create).Methods("POST")
	api.HandleFunc("/journal/trades/{id}", journalHandler.Get).Methods("GET")
	api.HandleFunc("/journal/trades/{id}", journalHandler.Delete).Methods("DELETE")
	api.HandleFunc("/journal/import", journalHandler.ImportCSV).Methods("POST")
	api.HandleFunc("/journal/export", journalHandler.ExportCSV).Methods("GET")
	api.HandleFunc("/journal/stats", journalHandler.Stats).Methods("GET")

	// Scheduler endpoints — 스케줄러가 꺼져 있으면 라우트도 없음
	if schedHandler != nil {
		api.HandleFunc("/scheduler/jobs", schedHandler.List).Methods("GET")
		api.HandleFunc("/scheduler/jobs/{name}/run", schedHandler.Run).Methods("POST")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "riskbook-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware caps request throughput with a token bucket.
// 단일 사용자 앱이라 글로벌 리미터 하나로 충분
func rateLimitMiddleware(requestsPerMin int, log *logger.Logger) mux.MiddlewareFunc {
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMin)/60), requestsPerMin)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.WithField("path", r.URL.Path).Warn("Rate limit exceeded")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many simulation requests",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
