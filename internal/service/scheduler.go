package service

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"adlens/internal/domain"
)

// Scheduler runs recurring audits from a schedule definition.
type Scheduler struct {
	cron   *cron.Cron
	svc    *AuditService
	logger *slog.Logger
}

// NewScheduler creates a scheduler over the audit service.
func NewScheduler(svc *AuditService, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		svc:    svc,
		logger: logger,
	}
}

// Start registers every definition and starts the cron loop. A definition
// with a bad cron expression is rejected up front.
func (s *Scheduler) Start(sf *ScheduleFile) error {
	for _, audit := range sf.Audits {
		audit := audit
		_, err := s.cron.AddFunc(audit.Cron, func() { s.runAudit(audit) })
		if err != nil {
			return domain.ErrValidation("audit %q: bad cron expression %q: %v", audit.Name, audit.Cron, err)
		}
	}
	s.cron.Start()
	s.logger.Info("audit scheduler started", "audits", len(sf.Audits))
	return nil
}

// Stop stops the cron loop; running audits finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("audit scheduler stopped")
}

// runAudit executes one scheduled audit. Failures are logged, never fatal:
// the next tick gets another chance.
func (s *Scheduler) runAudit(audit ScheduledAudit) {
	ctx := context.Background()
	opts := audit.Options()

	var err error
	switch audit.Direction {
	case domain.DirectionAncestor:
		_, _, err = s.svc.MemberOf(ctx, audit.Root, opts)
	case domain.DirectionDescendant:
		_, _, err = s.svc.MembersOf(ctx, audit.Root, opts)
	}
	if err != nil {
		s.logger.Warn("scheduled audit failed", "audit", audit.Name, "error", err)
		return
	}
	s.logger.Info("scheduled audit completed", "audit", audit.Name)
}
