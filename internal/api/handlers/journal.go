package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/kyuwon/riskbook/internal/journal"
	"github.com/kyuwon/riskbook/pkg/logger"
	"github.com/kyuwon/riskbook/pkg/redis"
)

// maxImportBytes CSV 임포트 요청 상한 (브로커 1년치도 수 MB 수준)
const maxImportBytes = 16 << 20

// JournalHandler handles trade-journal API endpoints
// ⭐ SSOT: 저널 API 핸들러는 이 구조체에서만
type JournalHandler struct {
	repo   *journal.Repository
	cache  *redis.Cache
	logger *logger.Logger
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(repo *journal.Repository, cache *redis.Cache, log *logger.Logger) *JournalHandler {
	return &JournalHandler{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

// List returns an account's trades, optionally filtered by closed-at window
// GET /api/journal/trades?account_id=...&from=...&to=...
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		respondError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	from, to, err := parseWindow(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	trades, err := h.repo.ListByAccount(r.Context(), accountID, from, to)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list trades")
		respondError(w, http.StatusInternalServerError, "Failed to list trades")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trades": trades,
		"count":  len(trades),
	})
}

// Create records a single trade
// POST /api/journal/trades
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var t journal.Trade
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trade JSON")
		return
	}
	if t.AccountID == "" || t.Symbol == "" {
		respondError(w, http.StatusUnprocessableEntity, "account_id and symbol are required")
		return
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	if err := h.repo.Save(r.Context(), &t); err != nil {
		h.logger.WithError(err).Error("Failed to save trade")
		respondError(w, http.StatusInternalServerError, "Failed to save trade")
		return
	}

	h.invalidateDashboard(r, t.AccountID)
	respondJSON(w, http.StatusCreated, t)
}

// Get returns a single trade
// GET /api/journal/trades/{id}
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	t, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, journal.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Trade not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get trade")
		respondError(w, http.StatusInternalServerError, "Failed to get trade")
		return
	}

	respondJSON(w, http.StatusOK, t)
}

// Delete removes a trade
// DELETE /api/journal/trades/{id}
func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.repo.Delete(r.Context(), id)
	if errors.Is(err, journal.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Trade not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to delete trade")
		respondError(w, http.StatusInternalServerError, "Failed to delete trade")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// ImportCSV ingests a broker-statement CSV atomically
// POST /api/journal/import?account_id=...  (body: text/csv)
func (h *JournalHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		respondError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	trades, err := journal.ImportCSV(http.MaxBytesReader(w, r.Body, maxImportBytes), accountID)
	if err != nil {
		var importErr journal.ImportError
		if errors.As(err, &importErr) {
			respondError(w, http.StatusUnprocessableEntity, importErr.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "Failed to read CSV")
		return
	}

	if err := h.repo.SaveBatch(r.Context(), trades); err != nil {
		h.logger.WithError(err).Error("Failed to import trades")
		respondError(w, http.StatusInternalServerError, "Failed to import trades")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"account_id": accountID,
		"count":      len(trades),
	}).Info("CSV import completed")

	h.invalidateDashboard(r, accountID)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"imported": len(trades),
	})
}

// ExportCSV streams an account's trades as CSV
// GET /api/journal/export?account_id=...&from=...&to=...
func (h *JournalHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		respondError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	from, to, err := parseWindow(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	trades, err := h.repo.ListByAccount(r.Context(), accountID, from, to)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list trades")
		respondError(w, http.StatusInternalServerError, "Failed to export trades")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trades.csv"`)
	if err := journal.ExportCSV(w, trades); err != nil {
		h.logger.WithError(err).Error("Failed to write CSV export")
	}
}

// Stats returns dashboard aggregates for an account
// GET /api/journal/stats?account_id=...
func (h *JournalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		respondError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	cacheKey := redis.DashboardKey(accountID)
	var cached journal.Stats
	if hit, err := h.cache.Get(r.Context(), cacheKey, &cached); err == nil && hit {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	trades, err := h.repo.ListByAccount(r.Context(), accountID, time.Time{}, time.Time{})
	if err != nil {
		h.logger.WithError(err).Error("Failed to list trades")
		respondError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	stats := journal.Compute(trades)
	if err := h.cache.Set(r.Context(), cacheKey, stats, redis.TTLDashboard); err != nil {
		h.logger.WithError(err).Warn("Failed to cache dashboard stats")
	}

	respondJSON(w, http.StatusOK, stats)
}

// invalidateDashboard 저널 변경 시 대시보드 캐시 무효화
func (h *JournalHandler) invalidateDashboard(r *http.Request, accountID string) {
	if err := h.cache.Delete(r.Context(), redis.DashboardKey(accountID)); err != nil {
		h.logger.WithError(err).Warn("Failed to invalidate dashboard cache")
	}
}

// parseWindow reads optional from/to RFC3339 query params
func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, errors.New("from must be RFC3339")
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, errors.New("to must be RFC3339")
		}
	}

	return from, to, nil
}
