package events

import (
	"time"

	"github.com/google/uuid"
)

// Session lifecycle event types consumed by the sink relay.
const (
	TypeSessionStarted   = "SESSION_STARTED"
	TypeSessionCompleted = "SESSION_TIMER_COMPLETED"
	TypeSessionEnded     = "SESSION_ENDED"
	TypeSessionAbandoned = "SESSION_ABANDONED"
	TypeEveningCutoff    = "EVENING_CUTOFF"
)

func NewSessionStarted(id uuid.UUID, kind, label string, plannedSeconds int) Event {
	return BaseEvent{
		Type: TypeSessionStarted,
		Data: map[string]interface{}{
			"session_id":      id.String(),
			"kind":            kind,
			"label":           label,
			"planned_seconds": plannedSeconds,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionCompleted(id uuid.UUID, kind string, breakSeconds int, isLong bool) Event {
	return BaseEvent{
		Type: TypeSessionCompleted,
		Data: map[string]interface{}{
			"session_id":    id.String(),
			"kind":          kind,
			"break_seconds": breakSeconds,
			"is_long_break": isLong,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionEnded(id uuid.UUID, kind string, rabbitHole bool) Event {
	return BaseEvent{
		Type: TypeSessionEnded,
		Data: map[string]interface{}{
			"session_id":              id.String(),
			"kind":                    kind,
			"rabbit_hole_acknowledged": rabbitHole,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionAbandoned(id uuid.UUID, kind string) Event {
	return BaseEvent{
		Type: TypeSessionAbandoned,
		Data: map[string]interface{}{
			"session_id": id.String(),
			"kind":       kind,
		},
		OccurredAt: time.Now(),
	}
}

func NewEveningCutoff(cutoff string) Event {
	return BaseEvent{
		Type:       TypeEveningCutoff,
		Data:       map[string]interface{}{"cutoff": cutoff},
		OccurredAt: time.Now(),
	}
}
