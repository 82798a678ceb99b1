package mapper

import (
	"encoding/json"
	"time"

	"focus-session-be/internal/entity"
	"focus-session-be/internal/model"

	"gorm.io/datatypes"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.Session) *entity.Session {
	if s == nil {
		return nil
	}

	var outcome *entity.Outcome
	if len(s.Outcome) > 0 {
		var o entity.Outcome
		if err := json.Unmarshal(s.Outcome, &o); err == nil {
			outcome = &o
		}
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.Session{
		Id:               s.Id,
		Kind:             s.Kind,
		Label:            s.Label,
		StartedAt:        s.StartedAt,
		PlannedSeconds:   s.PlannedSeconds,
		EndedAt:          s.EndedAt,
		Outcome:          outcome,
		TimerCompleted:   s.TimerCompleted,
		TimerCompletedAt: s.TimerCompletedAt,
		BreakSeconds:     s.BreakSeconds,
		IsLongBreak:      s.IsLongBreak,
		Abandoned:        s.Abandoned,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *SessionMapper) ToModel(s *entity.Session) *model.Session {
	if s == nil {
		return nil
	}

	var outcome datatypes.JSON
	if s.Outcome != nil {
		raw, err := json.Marshal(s.Outcome)
		if err == nil {
			outcome = raw
		}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.Session{
		Id:               s.Id,
		Kind:             s.Kind,
		Label:            s.Label,
		StartedAt:        s.StartedAt,
		PlannedSeconds:   s.PlannedSeconds,
		EndedAt:          s.EndedAt,
		Outcome:          outcome,
		TimerCompleted:   s.TimerCompleted,
		TimerCompletedAt: s.TimerCompletedAt,
		BreakSeconds:     s.BreakSeconds,
		IsLongBreak:      s.IsLongBreak,
		Abandoned:        s.Abandoned,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *SessionMapper) ToEntities(sessions []*model.Session) []*entity.Session {
	entities := make([]*entity.Session, len(sessions))
	for i, s := range sessions {
		entities[i] = m.ToEntity(s)
	}
	return entities
}
