package models

import (
	"time"
)

// User mirrors an identity-provider account locally.
// ID is the provider's subject claim; rows are upserted on authenticated requests.
type User struct {
	ID          string     `gorm:"primaryKey;size:64" json:"id"`
	Email       string     `gorm:"index;size:320" json:"email"`
	DisplayName string     `gorm:"size:255" json:"displayName"`
	IsAdmin     bool       `gorm:"not null;default:false" json:"isAdmin"`
	LastSeenAt  *time.Time `json:"lastSeenAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
