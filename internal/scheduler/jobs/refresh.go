package jobs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/kyuwon/riskbook/internal/profile"
	"github.com/kyuwon/riskbook/internal/sim"
	"github.com/kyuwon/riskbook/pkg/config"
	"github.com/kyuwon/riskbook/pkg/logger"
	"github.com/kyuwon/riskbook/pkg/redis"
)

// UI가 보내는 기본 시뮬레이션 기간과 일치해야 캐시가 적중한다
const (
	defaultMonthsToTrade       = 12
	defaultTradingDaysPerMonth = 21
)

// SummaryRefreshJob re-simulates every saved profile with default
// overrides and warms the Redis summary cache.
// 아침에 대시보드를 열면 24h TTL 캐시가 바로 응답하도록 야간 실행
type SummaryRefreshJob struct {
	profileRepo *profile.Repository
	cache       *redis.Cache
	simCfg      config.SimulationConfig
	schedule    string
	logger      *logger.Logger
}

// NewSummaryRefreshJob creates the nightly summary refresh job
func NewSummaryRefreshJob(
	profileRepo *profile.Repository,
	cache *redis.Cache,
	simCfg config.SimulationConfig,
	schedule string,
	log *logger.Logger,
) *SummaryRefreshJob {
	return &SummaryRefreshJob{
		profileRepo: profileRepo,
		cache:       cache,
		simCfg:      simCfg,
		schedule:    schedule,
		logger:      log,
	}
}

// Name returns the job name
func (j *SummaryRefreshJob) Name() string {
	return "summary_refresh"
}

// Schedule returns the cron schedule expression
func (j *SummaryRefreshJob) Schedule() string {
	return j.schedule
}

// Run re-simulates all profiles and refreshes their cached summaries.
// 프로필 하나가 실패해도 나머지는 계속 — 마지막에 합산 보고
func (j *SummaryRefreshJob) Run(ctx context.Context) error {
	profiles, err := j.profileRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}

	runner := sim.NewRunner(sim.WithWorkers(j.simCfg.Workers))
	overrides := sim.DefaultOverrides()
	req := sim.Request{
		SimulationCount:     j.simCfg.DefaultTrials,
		MonthsToTrade:       defaultMonthsToTrade,
		TradingDaysPerMonth: defaultTradingDaysPerMonth,
		Mode:                sim.ModeAdvanced,
	}

	refreshed, failed := 0, 0
	for _, p := range profiles {
		if err := j.refreshProfile(ctx, runner, p, overrides, req); err != nil {
			failed++
			j.logger.WithFields(map[string]interface{}{
				"profile_id": p.ID,
				"error":      err.Error(),
			}).Warn("Profile summary refresh failed")
			continue
		}
		refreshed++
	}

	j.logger.WithFields(map[string]interface{}{
		"refreshed": refreshed,
		"failed":    failed,
	}).Info("Summary refresh completed")

	if failed > 0 && refreshed == 0 {
		return fmt.Errorf("all %d profile refreshes failed", failed)
	}
	return nil
}

func (j *SummaryRefreshJob) refreshProfile(
	ctx context.Context,
	runner *sim.Runner,
	p *profile.Profile,
	overrides sim.Overrides,
	req sim.Request,
) error {
	cfg, err := sim.Compile(p, overrides)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	result, err := runner.Run(ctx, cfg, req)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	summary := sim.Aggregate(result, cfg)
	if summary.Status != sim.StatusCompleted {
		return fmt.Errorf("run ended with status %s", summary.Status)
	}

	profileHash, err := profile.Hash(p)
	if err != nil {
		return fmt.Errorf("hash profile: %w", err)
	}
	requestHash, err := hashRequest(overrides, req)
	if err != nil {
		return fmt.Errorf("hash request: %w", err)
	}

	key := redis.SummaryKey(profileHash, requestHash)
	if err := j.cache.Set(ctx, key, summary, redis.TTLSummary); err != nil {
		return fmt.Errorf("cache summary: %w", err)
	}

	return nil
}

// hashRequest mirrors the API handler's cache-key derivation.
// 여기와 핸들러가 어긋나면 warm 캐시가 영원히 미스난다
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
