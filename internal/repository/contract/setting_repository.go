package contract

import (
	"context"

	"focus-session-be/internal/entity"
)

type SettingRepository interface {
	Get(ctx context.Context, key string) (*entity.Setting, error)
	GetAll(ctx context.Context) ([]*entity.Setting, error)
	Upsert(ctx context.Context, setting *entity.Setting) error
	// SeedDefault inserts the key only if it does not exist yet.
	SeedDefault(ctx context.Context, key, value string) error
	LogChange(ctx context.Context, change *entity.SettingChange) error
}
