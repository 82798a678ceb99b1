package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"focus-session-be/internal/constant"
	"focus-session-be/internal/dto"
	"focus-session-be/internal/entity"
	"focus-session-be/internal/pkg/logger"
	"focus-session-be/internal/repository/unitofwork"

	gocache "github.com/patrickmn/go-cache"
)

// ISettingsService serves the engine's tunables. Reads are served from a
// short-lived cache so the hot paths (start, gate, scheduler ticks) never
// block on the database for a value that changes rarely.
type ISettingsService interface {
	Seed(ctx context.Context, defaults map[string]string) error
	GetAll(ctx context.Context) ([]*dto.SettingResponse, error)
	Update(ctx context.Context, key, value string) (*dto.SettingResponse, error)

	WorkDuration(ctx context.Context) time.Duration
	ShortBreak(ctx context.Context) time.Duration
	LongBreak(ctx context.Context) time.Duration
	DailySessionGoal(ctx context.Context) int
	HardSessionCap(ctx context.Context) int
	EveningCutoff(ctx context.Context) (hour, minute int)
	RabbitHoleThreshold(ctx context.Context) int
	RestDayMinimum(ctx context.Context) int
	SchedulerInterval(ctx context.Context) time.Duration
}

type settingsService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *gocache.Cache
	defaults   map[string]string
	logger     logger.ILogger
}

func NewSettingsService(
	uowFactory unitofwork.RepositoryFactory,
	defaults map[string]string,
	sysLogger logger.ILogger,
) ISettingsService {
	return &settingsService{
		uowFactory: uowFactory,
		cache:      gocache.New(30*time.Second, 5*time.Minute),
		defaults:   defaults,
		logger:     sysLogger,
	}
}

func (s *settingsService) Seed(ctx context.Context, defaults map[string]string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	for key, value := range defaults {
		if err := uow.SettingRepository().SeedDefault(ctx, key, value); err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	return nil
}

func (s *settingsService) GetAll(ctx context.Context) ([]*dto.SettingResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	settings, err := uow.SettingRepository().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.SettingResponse, len(settings))
	for i, setting := range settings {
		result[i] = &dto.SettingResponse{
			Key:       setting.Key,
			Value:     setting.Value,
			UpdatedAt: setting.UpdatedAt,
		}
	}
	return result, nil
}

func (s *settingsService) Update(ctx context.Context, key, value string) (*dto.SettingResponse, error) {
	if _, known := s.defaults[key]; !known {
		return nil, fmt.Errorf("unknown setting key: %s", key)
	}
	if err := validateSettingValue(key, value); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SettingRepository()

	old, err := repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	oldValue := ""
	if old != nil {
		oldValue = old.Value
	}

	now := time.Now()
	if err := repo.Upsert(ctx, &entity.Setting{Key: key, Value: value}); err != nil {
		return nil, err
	}

	// Change log is for later correlation; failure to write it must not
	// undo the setting itself.
	if err := repo.LogChange(ctx, &entity.SettingChange{
		Key:       key,
		OldValue:  oldValue,
		NewValue:  value,
		ChangedAt: now,
	}); err != nil {
		s.logger.Warn("settings", "failed to log setting change", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	s.cache.Delete(key)
	s.logger.Info("settings", "setting updated", map[string]interface{}{
		"key": key, "old": oldValue, "new": value,
	})

	return &dto.SettingResponse{Key: key, Value: value, UpdatedAt: now}, nil
}

func validateSettingValue(key, value string) error {
	switch key {
	case constant.SettingEveningCutoff:
		if _, _, err := parseCutoff(value); err != nil {
			return err
		}
		return nil
	default:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("setting %s requires a positive integer, got %q", key, value)
		}
		return nil
	}
}

func parseCutoff(value string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("evening cutoff must be HH:MM, got %q", value)
	}
	return t.Hour(), t.Minute(), nil
}

// get reads a value through the cache, falling back to the compiled-in
// default when the row is missing or the database is unreachable.
func (s *settingsService) get(ctx context.Context, key string) string {
	if cached, found := s.cache.Get(key); found {
		return cached.(string)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	setting, err := uow.SettingRepository().Get(ctx, key)
	if err != nil {
		s.logger.Warn("settings", "setting read failed, using default", map[string]interface{}{
			"key": key, "error": err.Error(),
		})
		return s.defaults[key]
	}

	value := s.defaults[key]
	if setting != nil {
		value = setting.Value
	}
	s.cache.Set(key, value, gocache.DefaultExpiration)
	return value
}

func (s *settingsService) getInt(ctx context.Context, key string) int {
	value := s.get(ctx, key)
	n, err := strconv.Atoi(value)
	if err != nil {
		n, _ = strconv.Atoi(s.defaults[key])
	}
	return n
}

func (s *settingsService) WorkDuration(ctx context.Context) time.Duration {
	return time.Duration(s.getInt(ctx, constant.SettingWorkSeconds)) * time.Second
}

func (s *settingsService) ShortBreak(ctx context.Context) time.Duration {
	return time.Duration(s.getInt(ctx, constant.SettingShortBreakSeconds)) * time.Second
}

func (s *settingsService) LongBreak(ctx context.Context) time.Duration {
	return time.Duration(s.getInt(ctx, constant.SettingLongBreakSeconds)) * time.Second
}

func (s *settingsService) DailySessionGoal(ctx context.Context) int {
	return s.getInt(ctx, constant.SettingDailySessionGoal)
}

func (s *settingsService) HardSessionCap(ctx context.Context) int {
	return s.getInt(ctx, constant.SettingHardSessionCap)
}

func (s *settingsService) EveningCutoff(ctx context.Context) (int, int) {
	hour, minute, err := parseCutoff(s.get(ctx, constant.SettingEveningCutoff))
	if err != nil {
		hour, minute, _ = parseCutoff(s.defaults[constant.SettingEveningCutoff])
	}
	return hour, minute
}

func (s *settingsService) RabbitHoleThreshold(ctx context.Context) int {
	return s.getInt(ctx, constant.SettingRabbitHoleThreshold)
}

func (s *settingsService) RestDayMinimum(ctx context.Context) int {
	return s.getInt(ctx, constant.SettingRestDayMinimum)
}

func (s *settingsService) SchedulerInterval(ctx context.Context) time.Duration {
	return time.Duration(s.getInt(ctx, constant.SettingSchedulerIntervalSec)) * time.Second
}
