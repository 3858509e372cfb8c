// Package service orchestrates closure traversals, records audit-run
// history, and schedules recurring audits.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"adlens/internal/closure"
	"adlens/internal/domain"
)

// AuditService runs membership closures against the directory and records
// each invocation in the audit history store.
type AuditService struct {
	dir    domain.DirectoryRepository
	runs   domain.AuditRepository
	logger *slog.Logger
}

// NewAuditService creates the service. The runs repository may be nil, in
// which case invocations are not recorded.
func NewAuditService(dir domain.DirectoryRepository, runs domain.AuditRepository, logger *slog.Logger) *AuditService {
	return &AuditService{dir: dir, runs: runs, logger: logger}
}

// MemberOf computes the ancestor closure of the identity: every group it
// transitively belongs to.
func (s *AuditService) MemberOf(ctx context.Context, identity string, opts closure.Options) (*domain.AncestorClosure, *domain.AuditRun, error) {
	opts.Logger = s.logger
	run := s.startRun(ctx, domain.DirectionAncestor, identity)

	cl, err := closure.NewAncestorResolver(s.dir, opts).Resolve(ctx, identity)
	if err != nil {
		s.failRun(ctx, run, err)
		return nil, nil, err
	}

	run.RootDN = cl.Root.DN
	run.ObjectCount = len(cl.Objects) - 1 // the root is not a finding
	run.WarningCount = len(cl.Warnings)
	run.Truncated = cl.Truncated
	s.finishRun(ctx, run, AncestorFindings(cl))
	return cl, run, nil
}

// MembersOf computes the descendant closure of the identity, which must
// resolve to a group: every object it transitively contains.
func (s *AuditService) MembersOf(ctx context.Context, identity string, opts closure.Options) (*domain.DescendantClosure, *domain.AuditRun, error) {
	opts.Logger = s.logger
	run := s.startRun(ctx, domain.DirectionDescendant, identity)

	cl, err := closure.NewDescendantResolver(s.dir, opts).Resolve(ctx, identity)
	if err != nil {
		s.failRun(ctx, run, err)
		return nil, nil, err
	}

	run.RootDN = cl.Root.DN
	run.ObjectCount = len(cl.Members)
	run.WarningCount = len(cl.Warnings)
	run.Truncated = cl.Truncated
	s.finishRun(ctx, run, DescendantFindings(cl))
	return cl, run, nil
}

// GetRun fetches one recorded run.
func (s *AuditService) GetRun(ctx context.Context, id string) (*domain.AuditRun, error) {
	if s.runs == nil {
		return nil, domain.ErrNotFound("audit history is not enabled")
	}
	return s.runs.GetRun(ctx, id)
}

// ListRuns returns recent recorded runs, newest first.
func (s *AuditService) ListRuns(ctx context.Context, limit int) ([]domain.AuditRun, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.ListRuns(ctx, limit)
}

// ListFindings returns the findings of a recorded run.
func (s *AuditService) ListFindings(ctx context.Context, runID string) ([]domain.AuditFinding, error) {
	if s.runs == nil {
		return nil, domain.ErrNotFound("audit history is not enabled")
	}
	return s.runs.ListFindings(ctx, runID)
}

// startRun opens a history record. History failures never fail the audit
// itself; the closure result is the deliverable.
func (s *AuditService) startRun(ctx context.Context, direction, identity string) *domain.AuditRun {
	run := &domain.AuditRun{
		ID:           uuid.NewString(),
		Direction:    direction,
		RootIdentity: identity,
		Status:       domain.RunStatusRunning,
		StartedAt:    time.Now().UTC(),
	}
	if s.runs != nil {
		if err := s.runs.CreateRun(ctx, run); err != nil {
			s.logger.Warn("audit history write failed", "run", run.ID, "error", err)
		}
	}
	return run
}

func (s *AuditService) failRun(ctx context.Context, run *domain.AuditRun, cause error) {
	msg := cause.Error()
	run.Status = domain.RunStatusFailed
	run.ErrorMessage = &msg
	now := time.Now().UTC()
	run.FinishedAt = &now
	if s.runs != nil {
		if err := s.runs.FinishRun(ctx, run); err != nil {
			s.logger.Warn("audit history write failed", "run", run.ID, "error", err)
		}
	}
}

func (s *AuditService) finishRun(ctx context.Context, run *domain.AuditRun, findings []domain.AuditFinding) {
	run.Status = domain.RunStatusCompleted
	now := time.Now().UTC()
	run.FinishedAt = &now
	if s.runs == nil {
		return
	}
	if err := s.runs.AddFindings(ctx, run.ID, findings); err != nil {
		s.logger.Warn("audit history write failed", "run", run.ID, "error", err)
	}
	if err := s.runs.FinishRun(ctx, run); err != nil {
		s.logger.Warn("audit history write failed", "run", run.ID, "error", err)
	}
}

// AncestorFindings flattens an ancestor closure into finding rows, one per
// group, with the first recorded edge as the source.
func AncestorFindings(cl *domain.AncestorClosure) []domain.AuditFinding {
	out := make([]domain.AuditFinding, 0, len(cl.Objects))
	for dn, obj := range cl.Objects {
		if dn == cl.Root.DN {
			continue
		}
		source := ""
		if edges := cl.Parents[dn]; len(edges) > 0 {
			source = edges[0].Child
		}
		out = append(out, domain.AuditFinding{
			DN:          dn,
			Kind:        obj.Kind,
			Name:        obj.DisplayName(),
			SourceGroup: source,
		})
	}
	return out
}

// DescendantFindings flattens a descendant closure into finding rows in
// discovery order.
func DescendantFindings(cl *domain.DescendantClosure) []domain.AuditFinding {
	out := make([]domain.AuditFinding, 0, len(cl.Members))
	for _, m := range cl.Members {
		out = append(out, domain.AuditFinding{
			DN:          m.Object.DN,
			Kind:        m.Object.Kind,
			Name:        m.Object.DisplayName(),
			Depth:       m.Depth,
			SourceGroup: m.SourceGroup,
			Inactive:    m.Inactive,
		})
	}
	return out
}
