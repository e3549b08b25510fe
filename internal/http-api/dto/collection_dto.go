package dto

import (
	"time"

	"animevault/internal/http-api/models"
)

// CreateEntryDTO used for POST /api/v1/collection
type CreateEntryDTO struct {
	AnimeID         int64    `json:"anime_id" binding:"required"`
	EpisodesWatched int      `json:"episodes_watched" binding:"gte=0"`
	Rating          *float64 `json:"rating,omitempty" binding:"omitempty,gte=0,lte=10"`
	Notes           *string  `json:"notes,omitempty"`
	IsFavorite      bool     `json:"is_favorite"`
}

// UpdateEntryDTO used for PATCH /api/v1/collection/item/:id (partial updates allowed)
type UpdateEntryDTO struct {
	EpisodesWatched *int     `json:"episodes_watched,omitempty" binding:"omitempty,gte=0"`
	Rating          *float64 `json:"rating,omitempty" binding:"omitempty,gte=0,lte=10"`
	Notes           *string  `json:"notes,omitempty"`
	IsFavorite      *bool    `json:"is_favorite,omitempty"`
}

// EntryResponse DTO for responses
type EntryResponse struct {
	ID              int64          `json:"id"`
	UserID          string         `json:"user_id"`
	AnimeID         int64          `json:"anime_id"`
	EpisodesWatched int            `json:"episodes_watched"`
	Rating          *float64       `json:"rating,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
	IsFavorite      bool           `json:"is_favorite"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Anime           *AnimeResponse `json:"anime,omitempty"`
}

// Converters
func (d CreateEntryDTO) ToModel(userID string) models.CollectionEntry {
	return models.CollectionEntry{
		UserID:          userID,
		AnimeID:         d.AnimeID,
		EpisodesWatched: d.EpisodesWatched,
		Rating:          d.Rating,
		Notes:           d.Notes,
		IsFavorite:      d.IsFavorite,
	}
}

func (d UpdateEntryDTO) ToUpdates() map[string]interface{} {
	updates := make(map[string]interface{})
	if d.EpisodesWatched != nil {
		updates["episodes_watched"] = *d.EpisodesWatched
	}
	if d.Rating != nil {
		updates["rating"] = *d.Rating
	}
	if d.Notes != nil {
		updates["notes"] = *d.Notes
	}
	if d.IsFavorite != nil {
		updates["is_favorite"] = *d.IsFavorite
	}
	return updates
}

func FromEntryModel(e models.CollectionEntry) EntryResponse {
	resp := EntryResponse{
		ID:              e.ID,
		UserID:          e.UserID,
		AnimeID:         e.AnimeID,
		EpisodesWatched: e.EpisodesWatched,
		Rating:          e.Rating,
		Notes:           e.Notes,
		IsFavorite:      e.IsFavorite,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if e.Anime != nil {
		anime := FromAnimeModel(*e.Anime)
		resp.Anime = &anime
	}
	return resp
}
