package model

import "time"

type Setting struct {
	Key       string    `gorm:"type:varchar(100);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Setting) TableName() string {
	return "settings"
}

type SettingChange struct {
	Id        int64     `gorm:"primaryKey;autoIncrement"`
	Key       string    `gorm:"type:varchar(100);not null;index"`
	OldValue  string    `gorm:"type:text"`
	NewValue  string    `gorm:"type:text;not null"`
	ChangedAt time.Time `gorm:"not null"`
}

func (SettingChange) TableName() string {
	return "setting_changes"
}
