package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Username    *string   `gorm:"uniqueIndex" json:"username,omitempty"`
	Password    string    `gorm:"column:password_hash;not null" json:"-"` // Not shown in JSON
	IsActive    bool      `gorm:"default:true;not null" json:"is_active"`
	IsSuperuser bool      `gorm:"default:false;not null" json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Associations
	CollectionEntries []CollectionEntry `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	// If the ID is not already set, generate a new one.
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

func (User) TableName() string {
	return "users"
}
