package domain

import (
	"time"

	"gorm.io/datatypes"
)

type AccessLogEntry struct {
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Timestamp time.Time `json:"timestamp"`
}

// Link is a short alias pointing at a target URL. Accessed always equals
// len(AccessLog); both are only ever changed together by one UPDATE.
type Link struct {
	ID        uint                                `gorm:"primaryKey" json:"id"`
	UserID    uint                                `gorm:"index;not null" json:"user_id"`
	URL       string                              `gorm:"size:2048;not null" json:"url"`
	Alias     string                              `gorm:"size:64;uniqueIndex;not null" json:"alias"`
	Accessed  int64                               `gorm:"not null;default:0" json:"accessed"`
	AccessLog datatypes.JSONSlice[AccessLogEntry] `gorm:"not null" json:"access_log"`
	CreatedAt time.Time                           `json:"created_at"`
}
