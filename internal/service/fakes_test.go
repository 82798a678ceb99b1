package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"focus-session-be/internal/dto"
	"focus-session-be/internal/entity"
	"focus-session-be/internal/repository/contract"
	"focus-session-be/internal/repository/specification"
	"focus-session-be/internal/repository/unitofwork"
	"focus-session-be/pkg/events"

	"github.com/google/uuid"
)

// --- clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- gateway ---

type fakeGateway struct {
	mu           sync.Mutex
	blockCalls   int
	unblockCalls int
	blockErr     error
	unblockErr   error
}

func (g *fakeGateway) Block(ctx context.Context, domain string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.blockErr != nil {
		return g.blockErr
	}
	g.blockCalls++
	return nil
}

func (g *fakeGateway) Unblock(ctx context.Context, domain string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unblockErr != nil {
		return g.unblockErr
	}
	g.unblockCalls++
	return nil
}

func (g *fakeGateway) BlockCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.blockCalls
}

func (g *fakeGateway) UnblockCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unblockCalls
}

// --- session repository ---

// fakeSessionRepo interprets the same specifications the gorm implementation
// translates to SQL, over an in-memory slice.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions []*entity.Session

	createErr error
	updateErr error
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *session
	r.sessions = append(r.sessions, &cp)
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	for i, existing := range r.sessions {
		if existing.Id == session.Id {
			cp := *session
			r.sessions[i] = &cp
			return nil
		}
	}
	return errors.New("session not found")
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	matches, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	limit := -1
	var order *specification.OrderBy

	matches := make([]*entity.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		keep := true
		for _, spec := range specs {
			switch sp := spec.(type) {
			case specification.ActiveOnly:
				keep = keep && session.EndedAt == nil
			case specification.EndedOnly:
				keep = keep && session.EndedAt != nil
			case specification.ByID:
				keep = keep && session.Id == sp.ID
			case specification.KindIn:
				found := false
				for _, kind := range sp.Kinds {
					if session.Kind == kind {
						found = true
					}
				}
				keep = keep && found
			case specification.EndedBetween:
				keep = keep && session.EndedAt != nil &&
					!session.EndedAt.Before(sp.From) && session.EndedAt.Before(sp.To)
			case specification.TimerPending:
				keep = keep && session.EndedAt == nil && !session.TimerCompleted &&
					!session.Deadline().After(sp.Now)
			case specification.TimerCompletedOnly:
				keep = keep && session.TimerCompleted
			case specification.OrderBy:
				o := sp
				order = &o
			case specification.Limit:
				limit = sp.N
			}
		}
		if keep {
			cp := *session
			matches = append(matches, &cp)
		}
	}

	if order != nil {
		sort.SliceStable(matches, func(i, j int) bool {
			a := sortKey(matches[i], order.Field)
			b := sortKey(matches[j], order.Field)
			if order.Desc {
				return a.After(b)
			}
			return a.Before(b)
		})
	}
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func sortKey(s *entity.Session, field string) time.Time {
	switch field {
	case "ended_at":
		if s.EndedAt != nil {
			return *s.EndedAt
		}
	case "timer_completed_at":
		if s.TimerCompletedAt != nil {
			return *s.TimerCompletedAt
		}
	case "started_at":
		return s.StartedAt
	}
	return time.Time{}
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	matches, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(matches)), nil
}

func (r *fakeSessionRepo) get(id uuid.UUID) *entity.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.Id == id {
			cp := *session
			return &cp
		}
	}
	return nil
}

// --- setting repository ---

type fakeSettingRepo struct {
	mu      sync.Mutex
	values  map[string]string
	changes []*entity.SettingChange
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{values: make(map[string]string)}
}

func (r *fakeSettingRepo) Get(ctx context.Context, key string) (*entity.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.values[key]
	if !ok {
		return nil, nil
	}
	return &entity.Setting{Key: key, Value: value}, nil
}

func (r *fakeSettingRepo) GetAll(ctx context.Context) ([]*entity.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Setting, 0, len(r.values))
	for key, value := range r.values {
		out = append(out, &entity.Setting{Key: key, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *fakeSettingRepo) Upsert(ctx context.Context, setting *entity.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[setting.Key] = setting.Value
	return nil
}

func (r *fakeSettingRepo) SeedDefault(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.values[key]; !exists {
		r.values[key] = value
	}
	return nil
}

func (r *fakeSettingRepo) LogChange(ctx context.Context, change *entity.SettingChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
	return nil
}

// --- unit of work ---

type fakeUnitOfWork struct {
	sessions *fakeSessionRepo
	settings *fakeSettingRepo
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }

func (u *fakeUnitOfWork) SessionRepository() contract.SessionRepository {
	return u.sessions
}

func (u *fakeUnitOfWork) SettingRepository() contract.SettingRepository {
	return u.settings
}

type fakeUowFactory struct {
	uow *fakeUnitOfWork
}

func newFakeUowFactory() *fakeUowFactory {
	return &fakeUowFactory{uow: &fakeUnitOfWork{
		sessions: &fakeSessionRepo{},
		settings: newFakeSettingRepo(),
	}}
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

// --- settings facade ---

type fakeSettings struct {
	work                time.Duration
	shortBreak          time.Duration
	longBreak           time.Duration
	dailyGoal           int
	hardCap             int
	cutoffHour          int
	cutoffMinute        int
	rabbitHoleThreshold int
	restDayMinimum      int
	schedulerInterval   time.Duration
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{
		work:                25 * time.Minute,
		shortBreak:          5 * time.Minute,
		longBreak:           15 * time.Minute,
		dailyGoal:           8,
		hardCap:             12,
		cutoffHour:          21,
		cutoffMinute:        0,
		rabbitHoleThreshold: 3,
		restDayMinimum:      1,
		schedulerInterval:   30 * time.Second,
	}
}

func (s *fakeSettings) Seed(ctx context.Context, defaults map[string]string) error { return nil }

func (s *fakeSettings) GetAll(ctx context.Context) ([]*dto.SettingResponse, error) {
	return nil, nil
}

func (s *fakeSettings) Update(ctx context.Context, key, value string) (*dto.SettingResponse, error) {
	return &dto.SettingResponse{Key: key, Value: value}, nil
}

func (s *fakeSettings) WorkDuration(ctx context.Context) time.Duration { return s.work }
func (s *fakeSettings) ShortBreak(ctx context.Context) time.Duration   { return s.shortBreak }
func (s *fakeSettings) LongBreak(ctx context.Context) time.Duration    { return s.longBreak }
func (s *fakeSettings) DailySessionGoal(ctx context.Context) int       { return s.dailyGoal }
func (s *fakeSettings) HardSessionCap(ctx context.Context) int         { return s.hardCap }
func (s *fakeSettings) EveningCutoff(ctx context.Context) (int, int) {
	return s.cutoffHour, s.cutoffMinute
}
func (s *fakeSettings) RabbitHoleThreshold(ctx context.Context) int { return s.rabbitHoleThreshold }
func (s *fakeSettings) RestDayMinimum(ctx context.Context) int      { return s.restDayMinimum }
func (s *fakeSettings) SchedulerInterval(ctx context.Context) time.Duration {
	return s.schedulerInterval
}

// --- publisher ---

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// --- logger ---

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }
