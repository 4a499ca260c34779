package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kyuwon/riskbook/internal/scheduler"
	"github.com/kyuwon/riskbook/pkg/logger"
)

// latestResultsPerJob 응답에 싣는 작업당 최근 실행 결과 수
const latestResultsPerJob = 5

// SchedulerHandler handles scheduler inspection requests
type SchedulerHandler struct {
	sched  *scheduler.Scheduler
	logger *logger.Logger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(sched *scheduler.Scheduler, log *logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{
		sched:  sched,
		logger: log,
	}
}

// jobStatus is one registered job with its recent run history
type jobStatus struct {
	Name     string                `json:"name"`
	Schedule string                `json:"schedule"`
	Latest   []scheduler.JobResult `json:"latest"`
}

// List returns all registered jobs with their latest run results
// GET /api/scheduler/jobs
func (h *SchedulerHandler) List(w http.ResponseWriter, r *http.Request) {
	names := h.sched.GetAllJobs()
	statuses := make([]jobStatus, 0, len(names))

	for _, name := range names {
		schedule, err := h.sched.GetJobSchedule(name)
		if err != nil {
			continue // 조회 사이에 제거된 작업
		}
		history, err := h.sched.GetJobHistory(name)
		if err != nil {
			continue
		}
		statuses = append(statuses, jobStatus{
			Name:     name,
			Schedule: schedule,
			Latest:   history.GetLatestResults(latestResultsPerJob),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": statuses,
	})
}

// Run triggers a job immediately, outside its schedule
// POST /api/scheduler/jobs/{name}/run
func (h *SchedulerHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.sched.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.WithField("job", name).Info("Job triggered manually")

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job":    name,
		"status": "triggered",
	})
}
