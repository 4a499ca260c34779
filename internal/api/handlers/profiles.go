package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/kyuwon/riskbook/internal/profile"
	"github.com/kyuwon/riskbook/pkg/logger"
)

// ProfileHandler handles risk-profile API endpoints
// ⭐ SSOT: 프로필 API 핸들러는 이 구조체에서만
type ProfileHandler struct {
	repo   *profile.Repository
	logger *logger.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(repo *profile.Repository, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		repo:   repo,
		logger: log,
	}
}

// List returns all profiles for an account
// GET /api/profiles?account_id=...
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		respondError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	profiles, err := h.repo.ListByAccount(r.Context(), accountID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list profiles")
		respondError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// Create stores a new profile after validation
// POST /api/profiles
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid profile JSON")
		return
	}

	if err := profile.Validate(&p); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	if err := h.repo.Save(r.Context(), &p); err != nil {
		h.logger.WithError(err).Error("Failed to save profile")
		respondError(w, http.StatusInternalServerError, "Failed to save profile")
		return
	}

	// 유효하지만 공격적인 설정은 경고와 함께 반환
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"profile":  p,
		"warnings": profile.Warn(&p),
	})
}

// Get returns a single profile
// GET /api/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, profile.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get profile")
		respondError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// Update replaces an existing profile
// PUT /api/profiles/{id}
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.repo.Get(r.Context(), id); errors.Is(err, profile.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	} else if err != nil {
		h.logger.WithError(err).Error("Failed to get profile")
		respondError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid profile JSON")
		return
	}
	p.ID = id

	if err := profile.Validate(&p); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.repo.Save(r.Context(), &p); err != nil {
		h.logger.WithError(err).Error("Failed to update profile")
		respondError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profile":  p,
		"warnings": profile.Warn(&p),
	})
}

// Delete removes a profile
// DELETE /api/profiles/{id}
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.repo.Delete(r.Context(), id)
	if errors.Is(err, profile.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to delete profile")
		respondError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// Validate dry-runs profile validation without persisting
// POST /api/profiles/validate
// UI가 편집 중 실시간 피드백에 사용
func (h *ProfileHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid profile JSON")
		return
	}

	if err := profile.Validate(&p); err != nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"valid":    true,
		"warnings": profile.Warn(&p),
	})
}
