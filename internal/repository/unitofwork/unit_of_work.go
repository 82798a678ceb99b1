package unitofwork

import (
	"context"

	"focus-session-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() contract.SessionRepository
	SettingRepository() contract.SettingRepository
}
