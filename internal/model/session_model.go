package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Session struct {
	Id             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Kind           string     `gorm:"type:varchar(20);not null;index"`
	Label          string     `gorm:"type:varchar(200)"`
	StartedAt      time.Time  `gorm:"not null;index"`
	PlannedSeconds int        `gorm:"not null"`
	EndedAt        *time.Time `gorm:"index"`
	Outcome        datatypes.JSON

	TimerCompleted   bool `gorm:"not null;default:false;index"`
	TimerCompletedAt *time.Time
	BreakSeconds     int
	IsLongBreak      bool

	Abandoned bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Session) TableName() string {
	return "sessions"
}
