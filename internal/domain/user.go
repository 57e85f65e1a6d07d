package domain

import "time"

type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Email             string     `gorm:"size:320;uniqueIndex;not null" json:"email"`
	Password          string     `gorm:"size:1024;not null" json:"-"`
	IsVerified        bool       `gorm:"not null;default:false" json:"is_verified"`
	VerificationToken *string    `gorm:"size:128;uniqueIndex" json:"-"`
	TokenExpiry       *time.Time `json:"-"`
	ResetToken        *string    `gorm:"size:128;uniqueIndex" json:"-"`
	ResetTokenExpiry  *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
