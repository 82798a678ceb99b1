package implementation

import (
	"context"
	"errors"

	"focus-session-be/internal/entity"
	"focus-session-be/internal/model"
	"focus-session-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepositoryImpl struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) contract.SettingRepository {
	return &SettingRepositoryImpl{db: db}
}

func (r *SettingRepositoryImpl) Get(ctx context.Context, key string) (*entity.Setting, error) {
	var m model.Setting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entity.Setting{Key: m.Key, Value: m.Value, UpdatedAt: m.UpdatedAt}, nil
}

func (r *SettingRepositoryImpl) GetAll(ctx context.Context) ([]*entity.Setting, error) {
	var models []*model.Setting
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	settings := make([]*entity.Setting, len(models))
	for i, m := range models {
		settings[i] = &entity.Setting{Key: m.Key, Value: m.Value, UpdatedAt: m.UpdatedAt}
	}
	return settings, nil
}

func (r *SettingRepositoryImpl) Upsert(ctx context.Context, setting *entity.Setting) error {
	m := model.Setting{Key: setting.Key, Value: setting.Value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&m).Error
}

func (r *SettingRepositoryImpl) SeedDefault(ctx context.Context, key, value string) error {
	m := model.Setting{Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&m).Error
}

func (r *SettingRepositoryImpl) LogChange(ctx context.Context, change *entity.SettingChange) error {
	m := model.SettingChange{
		Key:       change.Key,
		OldValue:  change.OldValue,
		NewValue:  change.NewValue,
		ChangedAt: change.ChangedAt,
	}
	return r.db.WithContext(ctx).Create(&m).Error
}
