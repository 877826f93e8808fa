package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UserSettings struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	DisplayName     *string   `json:"display_name"`
	ClinicName      *string   `json:"clinic_name"`
	DefaultProvider string    `json:"default_provider"`
	NotifyByEmail   bool      `json:"notify_by_email"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
