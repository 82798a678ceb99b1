package specification

import (
	"time"

	"gorm.io/gorm"
)

// ActiveOnly selects sessions with no termination timestamp.
type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("ended_at IS NULL")
}

// EndedOnly selects terminated sessions.
type EndedOnly struct{}

func (s EndedOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("ended_at IS NOT NULL")
}

// KindIn filters by session kind.
type KindIn struct {
	Kinds []string
}

func (s KindIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("kind IN ?", s.Kinds)
}

// EndedBetween selects sessions whose termination falls in [From, To).
type EndedBetween struct {
	From time.Time
	To   time.Time
}

func (s EndedBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("ended_at >= ? AND ended_at < ?", s.From, s.To)
}

// TimerPending selects sessions whose deadline has passed but whose expiry
// transition has not been applied yet. This is the scheduler's poll query;
// it keys off the timer_completed flag, not off break-window state.
type TimerPending struct {
	Now time.Time
}

func (s TimerPending) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(
		"ended_at IS NULL AND timer_completed = false AND started_at + make_interval(secs => planned_seconds) <= ?",
		s.Now,
	)
}

// TimerCompletedOnly selects sessions whose expiry transition has run.
type TimerCompletedOnly struct{}

func (s TimerCompletedOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("timer_completed = true")
}
