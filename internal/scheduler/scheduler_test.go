package scheduler

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/kyuwon/riskbook/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
	runs     chan struct{}
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) error {
	if j.runs != nil {
		j.runs <- struct{}{}
	}
	return nil
}

func newStubJob(name string) *stubJob {
	return &stubJob{name: name, schedule: "0 0 3 * * *"}
}

func TestAddJobRejectsDuplicate(t *testing.T) {
	s := New(logger.Nop())

	if err := s.AddJob(newStubJob("refresh")); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := s.AddJob(newStubJob("refresh")); err == nil {
		t.Error("expected duplicate job name to be rejected")
	}
}

func TestGetAllJobsSorted(t *testing.T) {
	s := New(logger.Nop())

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.AddJob(newStubJob(name)); err != nil {
			t.Fatalf("add %s failed: %v", name, err)
		}
	}

	want := []string{"alpha", "mid", "zeta"}
	if got := s.GetAllJobs(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGetJobScheduleUnknownJob(t *testing.T) {
	s := New(logger.Nop())

	if _, err := s.GetJobSchedule("ghost"); err == nil {
		t.Error("expected error for unknown job")
	}
	if _, err := s.GetJobHistory("ghost"); err == nil {
		t.Error("expected error for unknown job history")
	}
	if err := s.RunJob("ghost"); err == nil {
		t.Error("expected error for running unknown job")
	}
}

func TestRunJobRecordsHistory(t *testing.T) {
	s := New(logger.Nop())
	job := newStubJob("refresh")
	job.runs = make(chan struct{}, 1)

	if err := s.AddJob(job); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := s.RunJob("refresh"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	select {
	case <-job.runs:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}

	// 이력 기록은 Run 반환 직후에 이뤄지므로 짧게 폴링
	deadline := time.Now().Add(2 * time.Second)
	for {
		history, err := s.GetJobHistory("refresh")
		if err != nil {
			t.Fatalf("history lookup failed: %v", err)
		}
		if len(history.Results) > 0 {
			result := history.Results[0]
			if result.JobName != "refresh" {
				t.Errorf("expected job name refresh, got %s", result.JobName)
			}
			if !result.Success {
				t.Errorf("expected success, got error %q", result.Error)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("history never recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestGetJobHistoryReturnsSnapshot(t *testing.T) {
	s := New(logger.Nop())
	if err := s.AddJob(newStubJob("refresh")); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	first, err := s.GetJobHistory("refresh")
	if err != nil {
		t.Fatalf("history lookup failed: %v", err)
	}
	first.AddResult(JobResult{JobName: "injected"})

	second, err := s.GetJobHistory("refresh")
	if err != nil {
		t.Fatalf("history lookup failed: %v", err)
	}
	if len(second.Results) != 0 {
		t.Errorf("snapshot mutation leaked into scheduler state: %v", second.Results)
	}
}

func TestJobHistoryCapsAndLatest(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{JobName: fmt.Sprintf("run-%d", i)})
	}

	if len(h.Results) != 100 {
		t.Errorf("expected history capped at 100, got %d", len(h.Results))
	}

	latest := h.GetLatestResults(5)
	if len(latest) != 5 {
		t.Fatalf("expected 5 latest results, got %d", len(latest))
	}
	if latest[4].JobName != "run-149" {
		t.Errorf("expected newest result last, got %s", latest[4].JobName)
	}

	if got := h.GetLatestResults(500); len(got) != 100 {
		t.Errorf("expected clamp to history length, got %d", len(got))
	}
	if got := (&JobHistory{}).GetLatestResults(5); len(got) != 0 {
		t.Errorf("expected empty slice for empty history, got %d", len(got))
	}
}
