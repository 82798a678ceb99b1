package service

import (
	"net/http"

	"focus-session-be/internal/apperror"
	"focus-session-be/internal/constant"
)

// Precondition violations are expected, user-facing, non-retryable
// outcomes. They always carry a distinct code so clients can branch on
// the reason instead of parsing messages.
var (
	ErrOnBreak = apperror.New(constant.CodeOnBreak,
		"a break is in progress", http.StatusConflict)

	ErrSessionAlreadyActive = apperror.New(constant.CodeSessionAlreadyActive,
		"another session is already active", http.StatusConflict)

	ErrQuestionnairePending = apperror.New(constant.CodeQuestionnairePending,
		"the previous session's questionnaire has not been submitted", http.StatusConflict)

	ErrPastHardCap = apperror.New(constant.CodePastHardCap,
		"the daily hard session cap has been reached", http.StatusConflict)

	ErrPastEveningCutoff = apperror.New(constant.CodePastEveningCutoff,
		"the evening cutoff has passed", http.StatusConflict)

	ErrGatewayUnavailable = apperror.New(constant.CodeGatewayUnavailable,
		"the access gateway is unreachable; session not created", http.StatusBadGateway)

	ErrNoActiveSession = apperror.New(constant.CodeNoActiveSession,
		"no active session", http.StatusNotFound)

	ErrTimerNotElapsed = apperror.New(constant.CodeTimerNotElapsed,
		"the session timer has not elapsed", http.StatusConflict)

	ErrSessionNotFound = apperror.New(constant.CodeSessionNotFound,
		"session not found", http.StatusNotFound)

	ErrInvariantViolation = apperror.New(constant.CodeInvariantViolation,
		"session state invariant violated", http.StatusInternalServerError)
)
