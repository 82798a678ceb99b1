package dto

import "time"

type SettingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateSettingRequest struct {
	Value string `json:"value" validate:"required,max=100"`
}
