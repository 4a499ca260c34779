package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kyuwon/riskbook/internal/profile"
	"github.com/kyuwon/riskbook/internal/sim"
	"github.com/kyuwon/riskbook/pkg/config"
	"github.com/kyuwon/riskbook/pkg/logger"
	"github.com/kyuwon/riskbook/pkg/redis"
)

// SimulationHandler handles Monte Carlo simulation endpoints
// ⭐ SSOT: 시뮬레이션 API 핸들러는 이 구조체에서만
type SimulationHandler struct {
	profileRepo *profile.Repository
	cache       *redis.Cache
	simCfg      config.SimulationConfig
	logger      *logger.Logger

	upgrader websocket.Upgrader
}

// NewSimulationHandler creates a new simulation handler
func NewSimulationHandler(
	profileRepo *profile.Repository,
	cache *redis.Cache,
	simCfg config.SimulationConfig,
	log *logger.Logger,
) *SimulationHandler {
	return &SimulationHandler{
		profileRepo: profileRepo,
		cache:       cache,
		simCfg:      simCfg,
		logger:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// 개인용 앱 — 프론트엔드 origin 검사는 리버스 프록시에 위임
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SimulationRequest is the JSON payload for both POST and websocket runs.
// 프로필은 저장본(profile_id) 또는 인라인(profile) 중 하나로 지정
type SimulationRequest struct {
	ProfileID string           `json:"profile_id,omitempty"`
	Profile   *profile.Profile `json:"profile,omitempty"`
	Overrides *sim.Overrides   `json:"overrides,omitempty"`
	Request   sim.Request      `json:"request"`
}

// Run executes a simulation synchronously and returns the summary
// POST /api/simulations
func (h *SimulationHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid simulation request JSON")
		return
	}

	cfg, cacheKey, err := h.prepare(r, &req)
	if err != nil {
		h.respondPrepareError(w, err)
		return
	}

	// 동일 프로필+오버라이드+요청 조합은 캐시에서 즉시 반환
	var cached sim.Summary
	if hit, err := h.cache.Get(r.Context(), cacheKey, &cached); err == nil && hit {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"summary": cached,
			"cached":  true,
		})
		return
	}

	runner := sim.NewRunner(sim.WithWorkers(h.simCfg.Workers))
	start := time.Now()
	result, err := runner.Run(r.Context(), cfg, req.Request)
	if err != nil {
		h.respondPrepareError(w, err)
		return
	}

	summary := sim.Aggregate(result, cfg)

	h.logger.WithFields(map[string]interface{}{
		"run_id":   summary.RunID,
		"trials":   summary.TrialCount,
		"status":   summary.Status,
		"duration": time.Since(start),
	}).Info("Simulation completed")

	if summary.Status == sim.StatusCompleted {
		if err := h.cache.Set(r.Context(), cacheKey, summary, redis.TTLSummary); err != nil {
			h.logger.WithError(err).Warn("Failed to cache simulation summary")
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"summary": summary,
		"cached":  false,
	})
}

// wsMessage is one server-to-client frame on the progress socket
type wsMessage struct {
	Type    string       `json:"type"` // progress | summary | error
	Done    int          `json:"done,omitempty"`
	Total   int          `json:"total,omitempty"`
	Summary *sim.Summary `json:"summary,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// RunWS executes a simulation with live progress over a websocket.
// 클라이언트가 연결을 끊으면 실행을 협조적으로 취소한다.
// GET /api/simulations/ws
func (h *SimulationHandler) RunWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// 첫 메시지가 시뮬레이션 요청
	var req SimulationRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(wsMessage{Type: "error", Error: "Invalid simulation request JSON"})
		return
	}

	cfg, cacheKey, err := h.prepare(r, &req)
	if err != nil {
		conn.WriteJSON(wsMessage{Type: "error", Error: err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// read pump: 연결 종료 감지 → 취소
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	// 워커 고루틴들이 콜백을 동시에 호출하므로 websocket 쓰기는
	// 이 핸들러 고루틴 하나로 직렬화한다
	progressCh := make(chan [2]int, 1)
	runner := sim.NewRunner(
		sim.WithWorkers(h.simCfg.Workers),
		sim.WithProgress(func(done, total int) {
			select {
			case progressCh <- [2]int{done, total}:
			default: // 프레임 드랍 허용 — 마지막 진행률만 중요
			}
		}),
	)

	type runOutcome struct {
		result *sim.Result
		err    error
	}
	doneCh := make(chan runOutcome, 1)
	go func() {
		result, err := runner.Run(ctx, cfg, req.Request)
		doneCh <- runOutcome{result, err}
	}()

	for {
		select {
		case p := <-progressCh:
			if err := conn.WriteJSON(wsMessage{Type: "progress", Done: p[0], Total: p[1]}); err != nil {
				cancel()
			}

		case out := <-doneCh:
			if out.err != nil {
				conn.WriteJSON(wsMessage{Type: "error", Error: out.err.Error()})
				return
			}

			summary := sim.Aggregate(out.result, cfg)
			if summary.Status == sim.StatusCompleted {
				if err := h.cache.Set(r.Context(), cacheKey, summary, redis.TTLSummary); err != nil {
					h.logger.WithError(err).Warn("Failed to cache simulation summary")
				}
			}
			conn.WriteJSON(wsMessage{Type: "summary", Summary: summary})
			return
		}
	}
}

// prepare resolves the profile, compiles the execution plan and applies caps.
// 반환된 cacheKey는 (프로필 해시, 오버라이드+요청 해시)로 결정된다.
func (h *SimulationHandler) prepare(r *http.Request, req *SimulationRequest) (*sim.Config, string, error) {
	var p *profile.Profile
	switch {
	case req.ProfileID != "":
		var err error
		p, err = h.profileRepo.Get(r.Context(), req.ProfileID)
		if err != nil {
			return nil, "", err
		}
	case req.Profile != nil:
		if err := profile.Validate(req.Profile); err != nil {
			return nil, "", err
		}
		p = req.Profile
	default:
		return nil, "", sim.ConfigurationError{Field: "profile", Message: "profile_id or profile is required"}
	}

	overrides := sim.DefaultOverrides()
	if req.Overrides != nil {
		overrides = *req.Overrides
	}

	// 서버 보호 상한
	if req.Request.SimulationCount == 0 {
		req.Request.SimulationCount = h.simCfg.DefaultTrials
	}
	if req.Request.SimulationCount > h.simCfg.MaxTrials {
		return nil, "", sim.ConfigurationError{Field: "request.simulation_count", Message: "exceeds server maximum"}
	}
	if req.Request.SampleCurves > h.simCfg.MaxSampledCurves {
		req.Request.SampleCurves = h.simCfg.MaxSampledCurves
	}

	cfg, err := sim.Compile(p, overrides)
	if err != nil {
		return nil, "", err
	}

	profileHash, err := profile.Hash(p)
	if err != nil {
		return nil, "", err
	}
	requestHash, err := hashRequest(overrides, req.Request)
	if err != nil {
		return nil, "", err
	}

	return cfg, redis.SummaryKey(profileHash, requestHash), nil
}

func (h *SimulationHandler) respondPrepareError(w http.ResponseWriter, err error) {
	var cfgErr sim.ConfigurationError
	switch {
	case errors.Is(err, profile.ErrNotFound):
		respondError(w, http.StatusNotFound, "Profile not found")
	case errors.As(err, &cfgErr):
		respondError(w, http.StatusUnprocessableEntity, cfgErr.Error())
	default:
		var valErr profile.ValidationError
		if errors.As(err, &valErr) {
			respondError(w, http.StatusUnprocessableEntity, valErr.Error())
			return
		}
		h.logger.WithError(err).Error("Simulation failed")
		respondError(w, http.StatusInternalServerError, "Simulation failed")
	}
}

// hashRequest 오버라이드+요청의 canonical JSON SHA256
func hashRequest(ov sim.Overrides, req sim.Request) (string, error) {
	payload, err := json.Marshal(struct {
		Overrides sim.Overrides `json:"overrides"`
		Request   sim.Request   `json:"request"`
	}{ov, req})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
