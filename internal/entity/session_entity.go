package entity

import (
	"time"

	"github.com/google/uuid"
)

// Outcome holds the structured questionnaire answers submitted when a
// session ends. Populated exactly once, together with EndedAt.
type Outcome struct {
	DistractionLevel       string `json:"distraction_level,omitempty"`
	GoalMet                *bool  `json:"goal_met,omitempty"`
	RabbitHoleAcknowledged bool   `json:"rabbit_hole_acknowledged"`
	Notes                  string `json:"notes,omitempty"`
}

// Session is one timed unit of focused or distraction-mode activity.
// At most one Session has EndedAt absent at any time.
type Session struct {
	Id             uuid.UUID
	Kind           string
	Label          string
	StartedAt      time.Time
	PlannedSeconds int
	EndedAt        *time.Time
	Outcome        *Outcome

	// TimerCompleted marks that the expiry transition has been applied.
	// It is the idempotency guard for CompleteTimer and is only ever set
	// inside the engine's critical section.
	TimerCompleted   bool
	TimerCompletedAt *time.Time
	BreakSeconds     int
	IsLongBreak      bool

	Abandoned bool

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Deadline is the instant the planned duration elapses.
func (s *Session) Deadline() time.Time {
	return s.StartedAt.Add(time.Duration(s.PlannedSeconds) * time.Second)
}
