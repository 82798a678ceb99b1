package dto

import (
	"time"

	"github.com/google/uuid"
)

type StartSessionRequest struct {
	Kind            string `json:"kind" validate:"required,oneof=expected personal distraction"`
	Label           string `json:"label" validate:"required_if=Kind expected,max=200"`
	DurationSeconds int    `json:"duration_seconds" validate:"required_if=Kind distraction,omitempty,min=60,max=7200"`
}

type CompleteTimerRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
}

type EndSessionRequest struct {
	DistractionLevel       string `json:"distraction_level" validate:"omitempty,oneof=none low medium high"`
	GoalMet                *bool  `json:"goal_met"`
	RabbitHoleAcknowledged bool   `json:"rabbit_hole_acknowledged"`
	Notes                  string `json:"notes" validate:"max=2000"`
}

type OutcomeResponse struct {
	DistractionLevel       string `json:"distraction_level,omitempty"`
	GoalMet                *bool  `json:"goal_met,omitempty"`
	RabbitHoleAcknowledged bool   `json:"rabbit_hole_acknowledged"`
	Notes                  string `json:"notes,omitempty"`
}

type SessionResponse struct {
	Id                 uuid.UUID        `json:"id"`
	Kind               string           `json:"kind"`
	Label              string           `json:"label,omitempty"`
	StartedAt          time.Time        `json:"started_at"`
	PlannedSeconds     int              `json:"planned_seconds"`
	EndedAt            *time.Time       `json:"ended_at,omitempty"`
	Outcome            *OutcomeResponse `json:"outcome,omitempty"`
	TimerCompleted     bool             `json:"timer_completed"`
	BreakSeconds       int              `json:"break_seconds,omitempty"`
	IsLongBreak        bool             `json:"is_long_break,omitempty"`
	Abandoned          bool             `json:"abandoned,omitempty"`
	RabbitHolePrompted bool             `json:"rabbit_hole_prompted,omitempty"`
}

type BreakInfoResponse struct {
	BreakSeconds int       `json:"break_seconds"`
	IsLongBreak  bool      `json:"is_long_break"`
	Until        time.Time `json:"until"`
}

type GateResponse struct {
	Allowed          bool   `json:"allowed"`
	Reason           string `json:"reason"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

type QuickStartRequest struct {
	Label string `json:"label" validate:"max=200"`
}

// QuickStartResponse never rides an error status; the terminal hook reads
// Ok and degrades gracefully.
type QuickStartResponse struct {
	Ok        bool       `json:"ok"`
	Reason    string     `json:"reason,omitempty"`
	SessionId *uuid.UUID `json:"session_id,omitempty"`
}

type StatusResponse struct {
	EndedToday            int              `json:"ended_today"`
	DailySessionGoal      int              `json:"daily_session_goal"`
	HardSessionCap        int              `json:"hard_session_cap"`
	RestDayMinimum        int              `json:"rest_day_minimum"`
	OnBreak               bool             `json:"on_break"`
	BreakRemainingSeconds int              `json:"break_remaining_seconds,omitempty"`
	ActiveSession         *SessionResponse `json:"active_session,omitempty"`
}
