package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/leave"
)

// Escalator moves stale pending leaves up the approval chain.
type Escalator interface {
	EscalateStale(ctx context.Context) (leave.EscalationResult, error)
}

type LeaveJobs struct {
	escalator Escalator
	interval  time.Duration
}

func NewLeaveJobs(escalator Escalator, interval time.Duration) *LeaveJobs {
	return &LeaveJobs{escalator: escalator, interval: interval}
}

func (j *LeaveJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("escalate_stale_leaves", j.interval, j.EscalateStaleLeaves)
}

func (j *LeaveJobs) EscalateStaleLeaves(ctx context.Context) error {
	result, err := j.escalator.EscalateStale(ctx)
	if err != nil {
		return fmt.Errorf("failed to escalate stale leaves: %w", err)
	}
	if result.Escalated > 0 || result.Skipped > 0 {
		slog.Info("Cron: leave escalation sweep finished", "escalated", result.Escalated, "skipped", result.Skipped)
	}
	return nil
}
