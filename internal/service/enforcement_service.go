package service

import (
	"context"
	"time"

	"focus-session-be/internal/apperror"
	"focus-session-be/internal/constant"
	"focus-session-be/internal/dto"
	"focus-session-be/internal/pkg/clock"
	"focus-session-be/internal/pkg/logger"
	"focus-session-be/internal/pkg/mailer"
	"focus-session-be/internal/repository/specification"
	"focus-session-be/internal/repository/unitofwork"
	"focus-session-be/pkg/events"
)

// IEnforcementService is the recurring background process that drives the
// engine's expiry transition for sessions whose deadline passed without a
// client callback, and that reconciles state once at startup.
type IEnforcementService interface {
	Run(ctx context.Context) error
}

type enforcementService struct {
	uowFactory unitofwork.RepositoryFactory
	engine     ISessionService
	settings   ISettingsService
	publisher  IPublisherService
	mailer     mailer.IEmailService
	logger     logger.ILogger
	clock      clock.Clock

	notifyEmail string

	// day of the last wind-down notice, so the cutoff fires once per day
	lastCutoffNotice string
}

func NewEnforcementService(
	uowFactory unitofwork.RepositoryFactory,
	engine ISessionService,
	settings ISettingsService,
	publisher IPublisherService,
	emailService mailer.IEmailService,
	sysLogger logger.ILogger,
	clk clock.Clock,
	notifyEmail string,
) IEnforcementService {
	return &enforcementService{
		uowFactory:  uowFactory,
		engine:      engine,
		settings:    settings,
		publisher:   publisher,
		mailer:      emailService,
		logger:      sysLogger,
		clock:       clk,
		notifyEmail: notifyEmail,
	}
}

// Run blocks until ctx is cancelled. One reconcile pass happens immediately
// so a deadline that expired while the process was down is applied (and a
// distraction-session domain re-blocked) without waiting a full interval.
func (s *enforcementService) Run(ctx context.Context) error {
	if err := s.engine.RecoverBreakWindow(ctx); err != nil {
		s.logger.Error("scheduler", "break window recovery failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.reconcile(ctx)
	s.checkEveningCutoff(ctx)

	interval := s.settings.SchedulerInterval(ctx)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cutoffTicker := time.NewTicker(time.Minute)
	defer cutoffTicker.Stop()

	s.logger.Info("scheduler", "enforcement scheduler started", map[string]interface{}{
		"interval": interval.String(),
	})

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler", "enforcement scheduler stopped", nil)
			return ctx.Err()
		case <-ticker.C:
			s.reconcile(ctx)
		case <-cutoffTicker.C:
			s.checkEveningCutoff(ctx)
		}
	}
}

// reconcile completes every session whose deadline has passed. One
// session's failure must not block the others in the same pass.
func (s *enforcementService) reconcile(ctx context.Context) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	pending, err := uow.SessionRepository().FindAll(ctx,
		specification.TimerPending{Now: s.clock.Now()},
	)
	if err != nil {
		s.logger.Error("scheduler", "pending-session query failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for _, session := range pending {
		_, err := s.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: session.Id})
		if err == nil {
			s.logger.Info("scheduler", "expired session completed", map[string]interface{}{
				"session_id": session.Id.String(),
			})
			continue
		}
		if apperror.Is(err, constant.CodeTimerNotElapsed) {
			// Lost a race with a client callback recomputing state; the
			// next tick sees the flag and skips it.
			continue
		}
		s.logger.Error("scheduler", "failed to complete expired session", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}
}

// checkEveningCutoff publishes the informational mode transition once per
// day and sends a best-effort wind-down notice.
func (s *enforcementService) checkEveningCutoff(ctx context.Context) {
	now := s.clock.Now()
	hour, minute := s.settings.EveningCutoff(ctx)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.Before(cutoff) {
		return
	}

	day := now.Format("2006-01-02")
	if s.lastCutoffNotice == day {
		return
	}
	s.lastCutoffNotice = day

	cutoffLabel := cutoff.Format("15:04")
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewEveningCutoff(cutoffLabel)); err != nil {
			s.logger.Warn("scheduler", "cutoff event publish failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if s.mailer != nil && s.notifyEmail != "" {
		if err := s.mailer.SendWindDown(s.notifyEmail, cutoffLabel); err != nil {
			s.logger.Warn("scheduler", "wind-down mail failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.logger.Info("scheduler", "evening cutoff reached", map[string]interface{}{
		"cutoff": cutoffLabel,
	})
}
