package service

import (
	"context"
	"sync"
	"time"

	"focus-session-be/internal/apperror"
	"focus-session-be/internal/constant"
	"focus-session-be/internal/dto"
	"focus-session-be/internal/entity"
	"focus-session-be/internal/pkg/clock"
	"focus-session-be/internal/pkg/logger"
	"focus-session-be/internal/repository/contract"
	"focus-session-be/internal/repository/specification"
	"focus-session-be/internal/repository/unitofwork"
	"focus-session-be/pkg/events"
	"focus-session-be/pkg/gateway"

	"github.com/google/uuid"
)

// ISessionService is the session lifecycle engine: it validates start/end
// requests, computes cycle position and break duration, flags rabbit-hole
// conditions and drives the access gateway.
type ISessionService interface {
	Start(ctx context.Context, req *dto.StartSessionRequest) (*dto.SessionResponse, error)
	CompleteTimer(ctx context.Context, req *dto.CompleteTimerRequest) (*dto.BreakInfoResponse, error)
	End(ctx context.Context, req *dto.EndSessionRequest) (*dto.SessionResponse, error)
	Abandon(ctx context.Context) (*dto.SessionResponse, error)
	Gate(ctx context.Context) (*dto.GateResponse, error)
	QuickStart(ctx context.Context, label string) *dto.QuickStartResponse
	Status(ctx context.Context) (*dto.StatusResponse, error)

	// RecoverBreakWindow re-derives the in-process break window from the
	// session log. The scheduler runs it once at process startup.
	RecoverBreakWindow(ctx context.Context) error
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	settings   ISettingsService
	gateway    gateway.AccessGateway
	publisher  IPublisherService
	logger     logger.ILogger
	clock      clock.Clock

	domains       []string
	overrideKinds map[string]bool

	// mu is the single-writer boundary for the break window and every
	// check-then-act transition. The HTTP handlers and the scheduler tick
	// both serialize here.
	mu             sync.Mutex
	breakUntil     time.Time
	breakSessionID uuid.UUID
}

// completeTimerGrace absorbs client/server clock skew on timer callbacks.
const completeTimerGrace = 2 * time.Second

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	settings ISettingsService,
	accessGateway gateway.AccessGateway,
	publisher IPublisherService,
	sysLogger logger.ILogger,
	clk clock.Clock,
	distractionDomains []string,
	eveningOverrideKinds []string,
) ISessionService {
	overrides := make(map[string]bool, len(eveningOverrideKinds))
	for _, kind := range eveningOverrideKinds {
		overrides[kind] = true
	}

	return &sessionService{
		uowFactory:    uowFactory,
		settings:      settings,
		gateway:       accessGateway,
		publisher:     publisher,
		logger:        sysLogger,
		clock:         clk,
		domains:       distractionDomains,
		overrideKinds: overrides,
	}
}

// Start validates the preconditions in order (first failure wins) and
// creates the session. For distraction sessions the gateway unblock must
// succeed first: never grant access that can't later be revoked.
func (s *sessionService) Start(ctx context.Context, req *dto.StartSessionRequest) (*dto.SessionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	// 1. On break
	if remaining := s.breakRemainingLocked(now); remaining > 0 {
		return nil, ErrOnBreak.WithExtra("remaining_seconds", int(remaining.Seconds()))
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SessionRepository()

	// 2 + 3. Active session / questionnaire pending
	active, err := s.findActiveLocked(ctx, repo)
	if err != nil {
		return nil, err
	}
	if active != nil {
		if active.TimerCompleted {
			return nil, ErrQuestionnairePending.WithExtra("session_id", active.Id.String())
		}
		return nil, ErrSessionAlreadyActive.WithExtra("session_id", active.Id.String())
	}

	// 4. Hard cap on today's ended work sessions
	endedToday, err := s.countEndedToday(ctx, repo, now)
	if err != nil {
		return nil, err
	}
	if endedToday >= int64(s.settings.HardSessionCap(ctx)) {
		return nil, ErrPastHardCap
	}

	// 5. Evening cutoff
	if s.pastCutoff(ctx, now) && !s.overrideKinds[req.Kind] {
		return nil, ErrPastEveningCutoff
	}

	planned := int(s.settings.WorkDuration(ctx).Seconds())
	if req.Kind == constant.KindDistraction {
		planned = req.DurationSeconds
	}

	// 6. Gateway. Distraction starts fail closed; other kinds issue a
	// best-effort defensive re-block so a stuck-open gateway self-heals.
	if req.Kind == constant.KindDistraction {
		if err := s.unblockDomains(ctx); err != nil {
			s.logger.Error("engine", "gateway unblock failed, refusing distraction session", map[string]interface{}{
				"error": err.Error(),
			})
			return nil, ErrGatewayUnavailable
		}
	} else {
		go s.blockDomainsBestEffort("defensive reset on session start")
	}

	session := &entity.Session{
		Id:             uuid.Must(uuid.NewV7()),
		Kind:           req.Kind,
		Label:          req.Label,
		StartedAt:      now,
		PlannedSeconds: planned,
		CreatedAt:      now,
	}

	if err := repo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.publish(events.NewSessionStarted(session.Id, session.Kind, session.Label, session.PlannedSeconds))
	s.logger.Info("engine", "session started", map[string]interface{}{
		"session_id": session.Id.String(),
		"kind":       session.Kind,
		"planned":    session.PlannedSeconds,
	})

	return toSessionResponse(session, false), nil
}

// CompleteTimer applies the expiry transition. It is idempotent: the
// timer_completed flag is checked and set inside the critical section, and
// a repeat call returns the break info computed the first time without
// touching the break window or the gateway again.
func (s *sessionService) CompleteTimer(ctx context.Context, req *dto.CompleteTimerRequest) (*dto.BreakInfoResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SessionRepository()

	session, err := repo.FindOne(ctx, specification.ByID{ID: req.SessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.TimerCompleted {
		until := session.TimerCompletedAt.Add(time.Duration(session.BreakSeconds) * time.Second)
		return &dto.BreakInfoResponse{
			BreakSeconds: session.BreakSeconds,
			IsLongBreak:  session.IsLongBreak,
			Until:        until,
		}, nil
	}

	if session.EndedAt != nil {
		// Abandoned before the timer fired; nothing to expire.
		return nil, ErrNoActiveSession
	}

	if now.Add(completeTimerGrace).Before(session.Deadline()) {
		return nil, ErrTimerNotElapsed.WithExtra(
			"remaining_seconds", int(session.Deadline().Sub(now).Seconds()),
		)
	}

	position, err := s.cyclePosition(ctx, repo, now)
	if err != nil {
		return nil, err
	}

	isLong := position == constant.CycleLength-1
	breakDur := s.settings.ShortBreak(ctx)
	if isLong {
		breakDur = s.settings.LongBreak(ctx)
	}

	// Flag first, inside the lock, so a concurrent caller cannot re-enter
	// this transition while the gateway call below is in flight.
	session.TimerCompleted = true
	session.TimerCompletedAt = &now
	session.BreakSeconds = int(breakDur.Seconds())
	session.IsLongBreak = isLong
	if err := repo.Update(ctx, session); err != nil {
		return nil, err
	}

	s.breakUntil = now.Add(breakDur)
	s.breakSessionID = session.Id

	if session.Kind == constant.KindDistraction {
		// Fail open on revocation: the break still starts, and the
		// defensive re-block on the next start bounds the exposure window.
		if err := s.blockDomains(ctx); err != nil {
			s.logger.Error("engine", "gateway block failed after timer completion", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
		}
	}

	s.publish(events.NewSessionCompleted(session.Id, session.Kind, session.BreakSeconds, isLong))
	s.logger.Info("engine", "timer completed", map[string]interface{}{
		"session_id":    session.Id.String(),
		"break_seconds": session.BreakSeconds,
		"is_long_break": isLong,
	})

	return &dto.BreakInfoResponse{
		BreakSeconds: session.BreakSeconds,
		IsLongBreak:  isLong,
		Until:        s.breakUntil,
	}, nil
}

// End submits the questionnaire for the active session whose timer has
// already elapsed. A rabbit-hole acknowledgement extends the break window
// monotonically; it never shortens a longer pending window.
func (s *sessionService) End(ctx context.Context, req *dto.EndSessionRequest) (*dto.SessionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SessionRepository()

	session, err := s.findActiveLocked(ctx, repo)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}
	if !session.TimerCompleted {
		return nil, ErrTimerNotElapsed
	}

	prompted, err := s.rabbitHolePrompted(ctx, repo)
	if err != nil {
		return nil, err
	}

	session.EndedAt = &now
	session.Outcome = &entity.Outcome{
		DistractionLevel:       req.DistractionLevel,
		GoalMet:                req.GoalMet,
		RabbitHoleAcknowledged: req.RabbitHoleAcknowledged,
		Notes:                  req.Notes,
	}
	if err := repo.Update(ctx, session); err != nil {
		return nil, err
	}

	if req.RabbitHoleAcknowledged {
		candidate := now.Add(s.settings.LongBreak(ctx))
		if candidate.After(s.breakUntil) {
			s.breakUntil = candidate
			s.breakSessionID = session.Id
		}
	}

	s.publish(events.NewSessionEnded(session.Id, session.Kind, req.RabbitHoleAcknowledged))
	s.logger.Info("engine", "session ended", map[string]interface{}{
		"session_id":          session.Id.String(),
		"rabbit_hole":         req.RabbitHoleAcknowledged,
		"rabbit_hole_prompted": prompted,
	})

	return toSessionResponse(session, prompted), nil
}

// Abandon terminates the active session without an outcome. No break is
// granted; a distraction session's domains are re-blocked immediately.
func (s *sessionService) Abandon(ctx context.Context) (*dto.SessionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SessionRepository()

	session, err := s.findActiveLocked(ctx, repo)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}

	session.EndedAt = &now
	session.Abandoned = true
	if err := repo.Update(ctx, session); err != nil {
		return nil, err
	}

	if session.Kind == constant.KindDistraction {
		go s.blockDomainsBestEffort("abandon of distraction session")
	}

	s.publish(events.NewSessionAbandoned(session.Id, session.Kind))
	s.logger.Info("engine", "session abandoned", map[string]interface{}{
		"session_id": session.Id.String(),
	})

	return toSessionResponse(session, false), nil
}

// Gate is the read query consumed by external tools. Its only mutation is
// the lazy clear of an expired break window.
func (s *sessionService) Gate(ctx context.Context) (*dto.GateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	if remaining := s.breakRemainingLocked(now); remaining > 0 {
		return &dto.GateResponse{
			Allowed:          false,
			Reason:           constant.GateReasonOnBreak,
			RemainingSeconds: int(remaining.Seconds()),
		}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := s.findActiveLocked(ctx, uow.SessionRepository())
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &dto.GateResponse{
			Allowed: false,
			Reason:  constant.GateReasonNoActiveSession,
		}, nil
	}
	if session.TimerCompleted {
		return &dto.GateResponse{
			Allowed: false,
			Reason:  constant.GateReasonQuestionnairePending,
		}, nil
	}

	remaining := session.Deadline().Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return &dto.GateResponse{
		Allowed:          true,
		Reason:           constant.GateReasonOK,
		RemainingSeconds: int(remaining.Seconds()),
	}, nil
}

// QuickStart is the terminal-friendly start used by the developer-tool
// hook: it never returns an error, only {ok, reason}.
func (s *sessionService) QuickStart(ctx context.Context, label string) *dto.QuickStartResponse {
	if label == "" {
		label = "focus"
	}

	res, err := s.Start(ctx, &dto.StartSessionRequest{
		Kind:  constant.KindExpected,
		Label: label,
	})
	if err != nil {
		reason := "internal_error"
		if appErr, ok := apperror.As(err); ok {
			reason = appErr.Code
		}
		return &dto.QuickStartResponse{Ok: false, Reason: reason}
	}

	return &dto.QuickStartResponse{Ok: true, SessionId: &res.Id}
}

func (s *sessionService) Status(ctx context.Context) (*dto.StatusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SessionRepository()

	endedToday, err := s.countEndedToday(ctx, repo, now)
	if err != nil {
		return nil, err
	}

	status := &dto.StatusResponse{
		EndedToday:       int(endedToday),
		DailySessionGoal: s.settings.DailySessionGoal(ctx),
		HardSessionCap:   s.settings.HardSessionCap(ctx),
		RestDayMinimum:   s.settings.RestDayMinimum(ctx),
	}

	if remaining := s.breakRemainingLocked(now); remaining > 0 {
		status.OnBreak = true
		status.BreakRemainingSeconds = int(remaining.Seconds())
	}

	active, err := s.findActiveLocked(ctx, repo)
	if err != nil {
		return nil, err
	}
	if active != nil {
		status.ActiveSession = toSessionResponse(active, false)
	}

	return status, nil
}

// RecoverBreakWindow rebuilds the break window after a restart from the
// most recent expiry transition and, if longer, the most recent rabbit-hole
// acknowledgement.
func (s *sessionService) RecoverBreakWindow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SessionRepository()

	completed, err := repo.FindOne(ctx,
		specification.TimerCompletedOnly{},
		specification.OrderBy{Field: "timer_completed_at", Desc: true},
	)
	if err != nil {
		return err
	}
	if completed != nil && completed.TimerCompletedAt != nil {
		until := completed.TimerCompletedAt.Add(time.Duration(completed.BreakSeconds) * time.Second)
		if until.After(now) && until.After(s.breakUntil) {
			s.breakUntil = until
			s.breakSessionID = completed.Id
		}
	}

	lastEnded, err := repo.FindOne(ctx,
		specification.EndedOnly{},
		specification.OrderBy{Field: "ended_at", Desc: true},
	)
	if err != nil {
		return err
	}
	if lastEnded != nil && lastEnded.Outcome != nil && lastEnded.Outcome.RabbitHoleAcknowledged {
		until := lastEnded.EndedAt.Add(s.settings.LongBreak(ctx))
		if until.After(now) && until.After(s.breakUntil) {
			s.breakUntil = until
			s.breakSessionID = lastEnded.Id
		}
	}

	if !s.breakUntil.IsZero() {
		s.logger.Info("engine", "break window recovered", map[string]interface{}{
			"until":      s.breakUntil,
			"session_id": s.breakSessionID.String(),
		})
	}
	return nil
}

// --- internals (callers hold s.mu where noted) ---

// breakRemainingLocked returns the remaining break time and lazily clears
// an expired window, so every read self-heals.
func (s *sessionService) breakRemainingLocked(now time.Time) time.Duration {
	if s.breakUntil.IsZero() {
		return 0
	}
	if !now.Before(s.breakUntil) {
		s.breakUntil = time.Time{}
		s.breakSessionID = uuid.Nil
		return 0
	}
	return s.breakUntil.Sub(now)
}

func (s *sessionService) findActiveLocked(ctx context.Context, repo contract.SessionRepository) (*entity.Session, error) {
	active, err := repo.FindAll(ctx, specification.ActiveOnly{})
	if err != nil {
		return nil, err
	}
	switch len(active) {
	case 0:
		return nil, nil
	case 1:
		return active[0], nil
	default:
		// Never silently resolved: refuse until an operator intervenes.
		s.logger.Error("engine", "invariant violated: multiple active sessions", map[string]interface{}{
			"count": len(active),
		})
		return nil, ErrInvariantViolation
	}
}

func (s *sessionService) countEndedToday(ctx context.Context, repo contract.SessionRepository, now time.Time) (int64, error) {
	return repo.Count(ctx,
		specification.EndedBetween{From: startOfDay(now), To: now},
		specification.KindIn{Kinds: []string{constant.KindExpected, constant.KindPersonal}},
	)
}

// cyclePosition derives the 0..3 position from the session log. It is
// never stored: if time since the last ended work session exceeds the long
// break the user is naturally rested and the cycle restarts at 0.
func (s *sessionService) cyclePosition(ctx context.Context, repo contract.SessionRepository, now time.Time) (int, error) {
	lastEnded, err := repo.FindOne(ctx,
		specification.EndedOnly{},
		specification.KindIn{Kinds: []string{constant.KindExpected, constant.KindPersonal}},
		specification.OrderBy{Field: "ended_at", Desc: true},
	)
	if err != nil {
		return 0, err
	}
	if lastEnded == nil {
		return 0, nil
	}
	if now.Sub(*lastEnded.EndedAt) > s.settings.LongBreak(ctx) {
		return 0, nil
	}

	count, err := s.countEndedToday(ctx, repo, now)
	if err != nil {
		return 0, err
	}
	return int(count % constant.CycleLength), nil
}

// rabbitHolePrompted reports whether the consecutive-personal streak has
// reached the threshold. The streak is derived by scanning ended sessions
// backwards; it resets at an expected session or an acknowledged rabbit
// hole. Advisory only: a missing answer is recorded as false, not refused.
func (s *sessionService) rabbitHolePrompted(ctx context.Context, repo contract.SessionRepository) (bool, error) {
	threshold := s.settings.RabbitHoleThreshold(ctx)
	if threshold <= 0 {
		return false, nil
	}

	recent, err := repo.FindAll(ctx,
		specification.EndedOnly{},
		specification.OrderBy{Field: "ended_at", Desc: true},
		specification.Limit{N: threshold * 4},
	)
	if err != nil {
		return false, err
	}

	streak := 0
	for _, session := range recent {
		if session.Kind != constant.KindPersonal {
			break
		}
		if session.Outcome != nil && session.Outcome.RabbitHoleAcknowledged {
			break
		}
		streak++
	}
	return streak >= threshold, nil
}

func (s *sessionService) pastCutoff(ctx context.Context, now time.Time) bool {
	hour, minute := s.settings.EveningCutoff(ctx)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	return !now.Before(cutoff)
}

func (s *sessionService) unblockDomains(ctx context.Context) error {
	for _, domain := range s.domains {
		if err := s.gateway.Unblock(ctx, domain); err != nil {
			return err
		}
	}
	return nil
}

func (s *sessionService) blockDomains(ctx context.Context) error {
	for _, domain := range s.domains {
		if err := s.gateway.Block(ctx, domain); err != nil {
			return err
		}
	}
	return nil
}

func (s *sessionService) blockDomainsBestEffort(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.blockDomains(ctx); err != nil {
		s.logger.Warn("engine", "best-effort block failed", map[string]interface{}{
			"reason": reason,
			"error":  err.Error(),
		})
	}
}

func (s *sessionService) publish(event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.Background(), event); err != nil {
		s.logger.Warn("engine", "event publish failed", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func toSessionResponse(s *entity.Session, rabbitHolePrompted bool) *dto.SessionResponse {
	res := &dto.SessionResponse{
		Id:                 s.Id,
		Kind:               s.Kind,
		Label:              s.Label,
		StartedAt:          s.StartedAt,
		PlannedSeconds:     s.PlannedSeconds,
		EndedAt:            s.EndedAt,
		TimerCompleted:     s.TimerCompleted,
		BreakSeconds:       s.BreakSeconds,
		IsLongBreak:        s.IsLongBreak,
		Abandoned:          s.Abandoned,
		RabbitHolePrompted: rabbitHolePrompted,
	}
	if s.Outcome != nil {
		res.Outcome = &dto.OutcomeResponse{
			DistractionLevel:       s.Outcome.DistractionLevel,
			GoalMet:                s.Outcome.GoalMet,
			RabbitHoleAcknowledged: s.Outcome.RabbitHoleAcknowledged,
			Notes:                  s.Outcome.Notes,
		}
	}
	return res
}
