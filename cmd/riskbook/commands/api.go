package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kyuwon/riskbook/internal/api"
	"github.com/kyuwon/riskbook/internal/api/handlers"
	"github.com/kyuwon/riskbook/internal/journal"
	"github.com/kyuwon/riskbook/internal/profile"
	"github.com/kyuwon/riskbook/internal/scheduler"
	"github.com/kyuwon/riskbook/internal/scheduler/jobs"
	"github.com/kyuwon/riskbook/pkg/config"
	"github.com/kyuwon/riskbook/pkg/database"
	"github.com/kyuwon/riskbook/pkg/logger"
	"github.com/kyuwon/riskbook/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 리스크 프로필 CRUD / 시뮬레이션 / 저널 엔드포인트 제공
- 야간 요약 캐시 리프레시 스케줄러 시작 (설정 시)

Endpoints:
  GET  /health                    - Health check
  GET  /api/profiles              - 프로필 목록
  POST /api/simulations           - 시뮬레이션 실행
  GET  /api/simulations/ws        - 시뮬레이션 (websocket 진행률)
  POST /api/journal/import        - 브로커 CSV 임포트
  GET  /api/journal/stats         - 저널 대시보드 집계
  GET  /api/scheduler/jobs        - 스케줄 작업 + 실행 이력 (스케줄러 활성 시)

Example:
  go run ./cmd/riskbook api
  go run ./cmd/riskbook api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT env)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== riskbook API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to Redis (disabled면 no-op 캐시)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, "riskbook")

	// 5. Create repositories
	profileRepo := profile.NewRepository(db.Pool)
	journalRepo := journal.NewRepository(db.Pool)

	// 6. Create scheduler (optional — 핸들러가 이력을 노출하므로 라우터보다 먼저)
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(log)
		refreshJob := jobs.NewSummaryRefreshJob(
			profileRepo, cache, cfg.Simulation, cfg.Scheduler.RefreshSchedule, log,
		)
		if err := sched.AddJob(refreshJob); err != nil {
			return fmt.Errorf("add refresh job: %w", err)
		}
	}

	// 7. Create handlers
	profileHandler := handlers.NewProfileHandler(profileRepo, log)
	simHandler := handlers.NewSimulationHandler(profileRepo, cache, cfg.Simulation, log)
	journalHandler := handlers.NewJournalHandler(journalRepo, cache, log)
	var schedHandler *handlers.SchedulerHandler
	if sched != nil {
		schedHandler = handlers.NewSchedulerHandler(sched, log)
	}

	// 8. Create router & server, start scheduler
	router := api.NewRouter(profileHandler, simHandler, journalHandler, schedHandler, cfg.Simulation.RequestsPerMin, log)
	server := api.New(cfg, log, router)

	if sched != nil {
		sched.Start()
		defer sched.Stop()
	}

	// 9. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/profiles")
	fmt.Println("  POST /api/simulations")
	fmt.Println("  GET  /api/simulations/ws")
	fmt.Println("  POST /api/journal/import")
	fmt.Println("  GET  /api/journal/stats")
	if sched != nil {
		fmt.Println("  GET  /api/scheduler/jobs")
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	fmt.Println("✅ Server stopped")
	return nil
}
