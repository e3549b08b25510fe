package models

import "time"

type CollectionEntry struct {
	ID              int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID          string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_anime"`
	AnimeID         int64     `json:"anime_id" gorm:"not null;uniqueIndex:idx_user_anime"`
	EpisodesWatched int       `json:"episodes_watched" gorm:"not null;default:0;check:episodes_watched >= 0"`
	Rating          *float64  `json:"rating,omitempty" gorm:"type:decimal(4,2);check:rating IS NULL OR (rating >= 0 AND rating <= 10)"`
	Notes           *string   `json:"notes,omitempty" gorm:"type:text"`
	IsFavorite      bool      `json:"is_favorite" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Associations
	User  *User  `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	Anime *Anime `json:"anime,omitempty" gorm:"foreignKey:AnimeID;constraint:OnDelete:CASCADE;"`
}

func (CollectionEntry) TableName() string {
	return "collection_entries"
}
