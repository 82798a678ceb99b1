package constant

// Session kinds.
const (
	KindExpected    = "expected"
	KindPersonal    = "personal"
	KindDistraction = "distraction"
)

// Structured error codes surfaced to clients. Precondition violations are
// expected, user-facing, non-retryable outcomes and always carry one of
// these codes, never a generic failure.
const (
	CodeOnBreak              = "ON_BREAK"
	CodeSessionAlreadyActive = "SESSION_ALREADY_ACTIVE"
	CodeQuestionnairePending = "QUESTIONNAIRE_PENDING"
	CodePastHardCap          = "PAST_HARD_CAP"
	CodePastEveningCutoff    = "PAST_EVENING_CUTOFF"
	CodeGatewayUnavailable   = "GATEWAY_UNAVAILABLE"
	CodeNoActiveSession      = "NO_ACTIVE_SESSION"
	CodeTimerNotElapsed      = "TIMER_NOT_ELAPSED"
	CodeSessionNotFound      = "SESSION_NOT_FOUND"
	CodeInvariantViolation   = "INVARIANT_VIOLATION"
)

// Gate reasons (read-only query consumed by external tools).
const (
	GateReasonOK                   = "session_active"
	GateReasonOnBreak              = "on_break"
	GateReasonNoActiveSession      = "no_active_session"
	GateReasonQuestionnairePending = "questionnaire_pending"
)

// Settings keys. Seeded on boot, read through the settings cache.
const (
	SettingWorkSeconds          = "work_seconds"
	SettingShortBreakSeconds    = "short_break_seconds"
	SettingLongBreakSeconds     = "long_break_seconds"
	SettingDailySessionGoal     = "daily_session_goal"
	SettingHardSessionCap       = "hard_session_cap"
	SettingEveningCutoff        = "evening_cutoff"
	SettingRabbitHoleThreshold  = "rabbit_hole_threshold"
	SettingRestDayMinimum       = "rest_day_minimum"
	SettingSchedulerIntervalSec = "scheduler_interval_seconds"
)

// Sessions in a cycle before a long break is granted.
const CycleLength = 4

// Bounds for the user-chosen duration of a distraction session.
const (
	MinDistractionSeconds = 60
	MaxDistractionSeconds = 2 * 60 * 60
)
