package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"focus-session-be/internal/apperror"
	"focus-session-be/internal/constant"
	"focus-session-be/internal/dto"
	"focus-session-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	engine   ISessionService
	clock    *fakeClock
	gateway  *fakeGateway
	repo     *fakeSessionRepo
	settings *fakeSettings
	pub      *fakePublisher
}

func newEngineFixture(overrideKinds ...string) *engineFixture {
	factory := newFakeUowFactory()
	clk := newFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	gw := &fakeGateway{}
	settings := newFakeSettings()
	pub := &fakePublisher{}

	engine := NewSessionService(
		factory,
		settings,
		gw,
		pub,
		noopLogger{},
		clk,
		[]string{"reddit.com", "youtube.com"},
		overrideKinds,
	)

	return &engineFixture{
		engine:   engine,
		clock:    clk,
		gateway:  gw,
		repo:     factory.uow.sessions,
		settings: settings,
		pub:      pub,
	}
}

func (f *engineFixture) seedEnded(kind string, endedAt time.Time, acked bool) {
	started := endedAt.Add(-25 * time.Minute)
	f.repo.sessions = append(f.repo.sessions, &entity.Session{
		Id:             uuid.Must(uuid.NewV7()),
		Kind:           kind,
		StartedAt:      started,
		PlannedSeconds: 1500,
		EndedAt:        &endedAt,
		TimerCompleted: true,
		Outcome:        &entity.Outcome{RabbitHoleAcknowledged: acked},
	})
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, code), "expected code %s, got %v", code, err)
}

func TestStartCreatesExpectedSession(t *testing.T) {
	f := newEngineFixture()

	res, err := f.engine.Start(context.Background(), &dto.StartSessionRequest{
		Kind:  constant.KindExpected,
		Label: "implement parser",
	})
	require.NoError(t, err)

	assert.Equal(t, constant.KindExpected, res.Kind)
	assert.Equal(t, "implement parser", res.Label)
	assert.Equal(t, 1500, res.PlannedSeconds)
	assert.Nil(t, res.EndedAt)

	stored := f.repo.get(res.Id)
	require.NotNil(t, stored)
	assert.Nil(t, stored.EndedAt)
	assert.Contains(t, f.pub.Types(), "SESSION_STARTED")
}

func TestStartRejectsSecondSession(t *testing.T) {
	f := newEngineFixture()

	_, err := f.engine.Start(context.Background(), &dto.StartSessionRequest{
		Kind: constant.KindPersonal,
	})
	require.NoError(t, err)

	_, err = f.engine.Start(context.Background(), &dto.StartSessionRequest{
		Kind:  constant.KindExpected,
		Label: "second",
	})
	assertCode(t, err, constant.CodeSessionAlreadyActive)

	count, _ := f.repo.Count(context.Background())
	assert.EqualValues(t, 1, count)
}

func TestStartWithQuestionnairePending(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{Kind: constant.KindPersonal})
	require.NoError(t, err)

	f.clock.Advance(26 * time.Minute)
	_, err = f.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: res.Id})
	require.NoError(t, err)

	// Break has to pass too, or we'd hit ON_BREAK first.
	f.clock.Advance(10 * time.Minute)

	_, err = f.engine.Start(ctx, &dto.StartSessionRequest{Kind: constant.KindPersonal})
	assertCode(t, err, constant.CodeQuestionnairePending)
}

func TestStartWhileOnBreak(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{Kind: constant.KindPersonal})
	require.NoError(t, err)

	f.clock.Advance(25 * time.Minute)
	_, err = f.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: res.Id})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	_, err = f.engine.Start(ctx, &dto.StartSessionRequest{Kind: constant.KindPersonal})
	assertCode(t, err, constant.CodeOnBreak)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, 180, appErr.Extra["remaining_seconds"])
}

func TestStartPastHardCap(t *testing.T) {
	f := newEngineFixture()

	for i := 0; i < 12; i++ {
		f.seedEnded(constant.KindExpected, f.clock.Now().Add(-time.Duration(i+1)*time.Minute), false)
	}

	_, err := f.engine.Start(context.Background(), &dto.StartSessionRequest{
		Kind:  constant.KindExpected,
		Label: "one too many",
	})
	assertCode(t, err, constant.CodePastHardCap)
}

func TestStartPastEveningCutoff(t *testing.T) {
	f := newEngineFixture("personal")
	f.clock.Advance(13 * time.Hour) // 22:00, past the 21:00 cutoff
	ctx := context.Background()

	_, err := f.engine.Start(ctx, &dto.StartSessionRequest{
		Kind:  constant.KindExpected,
		Label: "late work",
	})
	assertCode(t, err, constant.CodePastEveningCutoff)

	// Configured override kinds may still start.
	_, err = f.engine.Start(ctx, &dto.StartSessionRequest{Kind: constant.KindPersonal})
	assert.NoError(t, err)
}

func TestStartDistractionFailsClosed(t *testing.T) {
	f := newEngineFixture()
	f.gateway.unblockErr = errors.New("gateway down")

	_, err := f.engine.Start(context.Background(), &dto.StartSessionRequest{
		Kind:            constant.KindDistraction,
		DurationSeconds: 600,
	})
	assertCode(t, err, constant.CodeGatewayUnavailable)

	// No session row may exist when the unblock was refused.
	count, _ := f.repo.Count(context.Background())
	assert.EqualValues(t, 0, count)
}

func TestStartDistractionUnblocksEveryDomain(t *testing.T) {
	f := newEngineFixture()

	res, err := f.engine.Start(context.Background(), &dto.StartSessionRequest{
		Kind:            constant.KindDistraction,
		DurationSeconds: 600,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, f.gateway.UnblockCalls())
	assert.Equal(t, 600, res.PlannedSeconds)
}

func TestCompleteTimerEarly(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{Kind: constant.KindPersonal})
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	_, err = f.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: res.Id})
	assertCode(t, err, constant.CodeTimerNotElapsed)

	appErr, _ := apperror.As(err)
	assert.Equal(t, 900, appErr.Extra["remaining_seconds"])
}

func TestCompleteTimerUnknownSession(t *testing.T) {
	f := newEngineFixture()

	_, err := f.engine.CompleteTimer(context.Background(), &dto.CompleteTimerRequest{
		SessionId: uuid.Must(uuid.NewV7()),
	})
	assertCode(t, err, constant.CodeSessionNotFound)
}

func TestCompleteTimerIsIdempotent(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{
		Kind:            constant.KindDistraction,
		DurationSeconds: 600,
	})
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	first, err := f.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: res.Id})
	require.NoError(t, err)
	blocksAfterFirst := f.gateway.BlockCalls()

	// Client retry and scheduler tick land on the same transition.
	f.clock.Advance(30 * time.Second)
	second, err := f.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: res.Id})
	require.NoError(t, err)

	assert.Equal(t, first.BreakSeconds, second.BreakSeconds)
	assert.Equal(t, first.IsLongBreak, second.IsLongBreak)
	assert.True(t, first.Until.Equal(second.Until))
	assert.Equal(t, blocksAfterFirst, f.gateway.BlockCalls(), "repeat call must not touch the gateway")
}

func TestFourthSessionGetsLongBreak(t *testing.T) {
	f := newEngineFixture()
	f.settings.work = 5 * time.Minute
	ctx := context.Background()

	// Three work sessions already ended within the long-break horizon.
	for i := 3; i >= 1; i-- {
		f.seedEnded(constant.KindExpected, f.clock.Now().Add(-time.Duration(i)*time.Minute), false)
	}

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{
		Kind:  constant.KindExpected,
		Label: "fourth",
	})
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)
	info, err := f.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: res.Id})
	require.NoError(t, err)

	assert.True(t, info.IsLongBreak)
	assert.Equal(t, 900, info.BreakSeconds)
}

func TestCycleResetsAfterLongIdle(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	// Three sessions ended hours ago: the user is naturally rested, so the
	// next completion is position 0 again, not position 3.
	for i := 3; i >= 1; i-- {
		f.seedEnded(constant.KindExpected, f.clock.Now().Add(-time.Duration(i)*time.Hour), false)
	}

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{
		Kind:  constant.KindExpected,
		Label: "after lunch",
	})
	require.NoError(t, err)

	f.clock.Advance(25 * time.Minute)
	info, err := f.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: res.Id})
	require.NoError(t, err)

	assert.False(t, info.IsLongBreak)
	assert.Equal(t, 300, info.BreakSeconds)
}

func TestEndRequiresElapsedTimer(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	_, err := f.engine.Start(ctx, &dto.StartSessionRequest{Kind: constant.KindPersonal})
	require.NoError(t, err)

	_, err = f.engine.End(ctx, &dto.EndSessionRequest{})
	assertCode(t, err, constant.CodeTimerNotElapsed)
}

func TestEndWithoutActiveSession(t *testing.T) {
	f := newEngineFixture()

	_, err := f.engine.End(context.Background(), &dto.EndSessionRequest{})
	assertCode(t, err, constant.CodeNoActiveSession)
}

func TestEndRecordsOutcome(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{
		Kind:  constant.KindExpected,
		Label: "write tests",
	})
	require.NoError(t, err)

	f.clock.Advance(25 * time.Minute)
	_, err = f.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: res.Id})
	require.NoError(t, err)

	goalMet := true
	ended, err := f.engine.End(ctx, &dto.EndSessionRequest{
		DistractionLevel: "low",
		GoalMet:          &goalMet,
		Notes:            "done early",
	})
	require.NoError(t, err)

	require.NotNil(t, ended.EndedAt)
	require.NotNil(t, ended.Outcome)
	assert.Equal(t, "low", ended.Outcome.DistractionLevel)
	assert.Equal(t, &goalMet, ended.Outcome.GoalMet)
	assert.Contains(t, f.pub.Types(), "SESSION_ENDED")
}

func TestRabbitHoleAckExtendsBreakMonotonically(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{Kind: constant.KindPersonal})
	require.NoError(t, err)

	f.clock.Advance(25 * time.Minute)
	info, err := f.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: res.Id})
	require.NoError(t, err)
	assert.Equal(t, 300, info.BreakSeconds)

	// Acknowledging a rabbit hole one minute into the short break replaces
	// it with a long break measured from the acknowledgement.
	f.clock.Advance(time.Minute)
	_, err = f.engine.End(ctx, &dto.EndSessionRequest{RabbitHoleAcknowledged: true})
	require.NoError(t, err)

	gate, err := f.engine.Gate(ctx)
	require.NoError(t, err)
	assert.False(t, gate.Allowed)
	assert.Equal(t, constant.GateReasonOnBreak, gate.Reason)
	assert.Equal(t, 900, gate.RemainingSeconds)
}

func TestRabbitHolePromptAfterPersonalStreak(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	for i := 3; i >= 1; i-- {
		f.seedEnded(constant.KindPersonal, f.clock.Now().Add(-time.Duration(i)*time.Minute), false)
	}

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{Kind: constant.KindPersonal})
	require.NoError(t, err)

	f.clock.Advance(25 * time.Minute)
	_, err = f.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: res.Id})
	require.NoError(t, err)

	ended, err := f.engine.End(ctx, &dto.EndSessionRequest{})
	require.NoError(t, err)
	assert.True(t, ended.RabbitHolePrompted)
}

func TestRabbitHoleStreakResetByExpectedSession(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	now := f.clock.Now()
	f.seedEnded(constant.KindPersonal, now.Add(-4*time.Minute), false)
	f.seedEnded(constant.KindPersonal, now.Add(-3*time.Minute), false)
	f.seedEnded(constant.KindExpected, now.Add(-2*time.Minute), false)
	f.seedEnded(constant.KindPersonal, now.Add(-1*time.Minute), false)

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{Kind: constant.KindPersonal})
	require.NoError(t, err)

	f.clock.Advance(25 * time.Minute)
	_, err = f.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: res.Id})
	require.NoError(t, err)

	ended, err := f.engine.End(ctx, &dto.EndSessionRequest{})
	require.NoError(t, err)
	assert.False(t, ended.RabbitHolePrompted)
}

func TestAbandonGrantsNoBreak(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{Kind: constant.KindPersonal})
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)
	abandoned, err := f.engine.Abandon(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Id, abandoned.Id)
	assert.True(t, abandoned.Abandoned)

	gate, err := f.engine.Gate(ctx)
	require.NoError(t, err)
	assert.False(t, gate.Allowed)
	assert.Equal(t, constant.GateReasonNoActiveSession, gate.Reason)
}

func TestCompleteTimerAfterAbandon(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{Kind: constant.KindPersonal})
	require.NoError(t, err)

	_, err = f.engine.Abandon(ctx)
	require.NoError(t, err)

	f.clock.Advance(30 * time.Minute)
	_, err = f.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: res.Id})
	assertCode(t, err, constant.CodeNoActiveSession)
}

func TestGateStates(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	gate, err := f.engine.Gate(ctx)
	require.NoError(t, err)
	assert.False(t, gate.Allowed)
	assert.Equal(t, constant.GateReasonNoActiveSession, gate.Reason)

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{
		Kind:  constant.KindExpected,
		Label: "deep work",
	})
	require.NoError(t, err)

	f.clock.Advance(22 * time.Minute)
	gate, err = f.engine.Gate(ctx)
	require.NoError(t, err)
	assert.True(t, gate.Allowed)
	assert.Equal(t, constant.GateReasonOK, gate.Reason)
	assert.Equal(t, 180, gate.RemainingSeconds)

	f.clock.Advance(3 * time.Minute)
	_, err = f.engine.CompleteTimer(ctx, &dto.CompleteTimerRequest{SessionId: res.Id})
	require.NoError(t, err)

	// Break window wins over the questionnaire-pending state.
	gate, err = f.engine.Gate(ctx)
	require.NoError(t, err)
	assert.False(t, gate.Allowed)
	assert.Equal(t, constant.GateReasonOnBreak, gate.Reason)

	f.clock.Advance(10 * time.Minute)
	gate, err = f.engine.Gate(ctx)
	require.NoError(t, err)
	assert.False(t, gate.Allowed)
	assert.Equal(t, constant.GateReasonQuestionnairePending, gate.Reason)
}

func TestMultipleActiveSessionsRefused(t *testing.T) {
	f := newEngineFixture()
	now := f.clock.Now()

	for i := 0; i < 2; i++ {
		f.repo.sessions = append(f.repo.sessions, &entity.Session{
			Id:             uuid.Must(uuid.NewV7()),
			Kind:           constant.KindPersonal,
			StartedAt:      now.Add(-time.Minute),
			PlannedSeconds: 1500,
		})
	}

	_, err := f.engine.Start(context.Background(), &dto.StartSessionRequest{
		Kind: constant.KindPersonal,
	})
	assertCode(t, err, constant.CodeInvariantViolation)
}

func TestQuickStart(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	res := f.engine.QuickStart(ctx, "")
	require.True(t, res.Ok)
	require.NotNil(t, res.SessionId)

	stored := f.repo.get(*res.SessionId)
	require.NotNil(t, stored)
	assert.Equal(t, "focus", stored.Label)

	again := f.engine.QuickStart(ctx, "another")
	assert.False(t, again.Ok)
	assert.Equal(t, constant.CodeSessionAlreadyActive, again.Reason)
	assert.Nil(t, again.SessionId)
}

func TestStatus(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	f.seedEnded(constant.KindExpected, f.clock.Now().Add(-time.Hour), false)

	res, err := f.engine.Start(ctx, &dto.StartSessionRequest{Kind: constant.KindPersonal})
	require.NoError(t, err)

	status, err := f.engine.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.EndedToday)
	assert.Equal(t, 8, status.DailySessionGoal)
	assert.False(t, status.OnBreak)
	require.NotNil(t, status.ActiveSession)
	assert.Equal(t, res.Id, status.ActiveSession.Id)
}

func TestRecoverBreakWindow(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	now := f.clock.Now()

	completedAt := now.Add(-2 * time.Minute)
	endedAt := now.Add(-1 * time.Minute)
	f.repo.sessions = append(f.repo.sessions, &entity.Session{
		Id:               uuid.Must(uuid.NewV7()),
		Kind:             constant.KindPersonal,
		StartedAt:        completedAt.Add(-25 * time.Minute),
		PlannedSeconds:   1500,
		EndedAt:          &endedAt,
		TimerCompleted:   true,
		TimerCompletedAt: &completedAt,
		BreakSeconds:     300,
		Outcome:          &entity.Outcome{},
	})

	require.NoError(t, f.engine.RecoverBreakWindow(ctx))

	gate, err := f.engine.Gate(ctx)
	require.NoError(t, err)
	assert.False(t, gate.Allowed)
	assert.Equal(t, constant.GateReasonOnBreak, gate.Reason)
	assert.Equal(t, 180, gate.RemainingSeconds)
}

func TestRecoverBreakWindowPrefersRabbitHoleAck(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	now := f.clock.Now()

	completedAt := now.Add(-4 * time.Minute)
	endedAt := now.Add(-3 * time.Minute)
	f.repo.sessions = append(f.repo.sessions, &entity.Session{
		Id:               uuid.Must(uuid.NewV7()),
		Kind:             constant.KindPersonal,
		StartedAt:        completedAt.Add(-25 * time.Minute),
		PlannedSeconds:   1500,
		EndedAt:          &endedAt,
		TimerCompleted:   true,
		TimerCompletedAt: &completedAt,
		BreakSeconds:     300,
		Outcome:          &entity.Outcome{RabbitHoleAcknowledged: true},
	})

	require.NoError(t, f.engine.RecoverBreakWindow(ctx))

	// ended_at + long break (12m out) beats timer_completed_at + 5m (1m out).
	gate, err := f.engine.Gate(ctx)
	require.NoError(t, err)
	assert.Equal(t, constant.GateReasonOnBreak, gate.Reason)
	assert.Equal(t, 720, gate.RemainingSeconds)
}
