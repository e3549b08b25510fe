package models

import "time"

type Anime struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	ExternalID  *string    `json:"external_id,omitempty" gorm:"uniqueIndex:idx_source_external;size:64"`
	Source      *string    `json:"source,omitempty" gorm:"uniqueIndex:idx_source_external;size:32"`
	Title       string     `json:"title" gorm:"not null;index"`
	Synopsis    *string    `json:"synopsis,omitempty" gorm:"type:text"`
	Episodes    *int       `json:"episodes,omitempty"`
	Score       *float64   `json:"score,omitempty" gorm:"type:decimal(5,2)"` // provider-native scale
	ImageURL    *string    `json:"image_url,omitempty" gorm:"size:500"`
	ReleaseYear *int       `json:"release_year,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" gorm:"autoUpdateTime"`

	// association
	CollectionEntries []CollectionEntry `json:"-" gorm:"foreignKey:AnimeID;constraint:OnDelete:CASCADE;"`
}

func (Anime) TableName() string {
	return "anime"
}
