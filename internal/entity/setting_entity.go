package entity

import "time"

type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// SettingChange is an append-only audit row kept so behavior shifts can be
// correlated with tunable changes later.
type SettingChange struct {
	Id        int64
	Key       string
	OldValue  string
	NewValue  string
	ChangedAt time.Time
}
