package dto

import (
	"time"

	"animevault/internal/http-api/models"
)

// CreateAnimeDTO used for POST /api/v1/anime
type CreateAnimeDTO struct {
	Title       string   `json:"title" binding:"required"`
	Synopsis    *string  `json:"synopsis,omitempty"`
	Episodes    *int     `json:"episodes,omitempty" binding:"omitempty,gte=0"`
	Score       *float64 `json:"score,omitempty" binding:"omitempty,gte=0"`
	ImageURL    *string  `json:"image_url,omitempty"`
	ReleaseYear *int     `json:"release_year,omitempty"`
}

// UpdateAnimeDTO used for PATCH /api/v1/anime/:anime_id (partial updates allowed)
type UpdateAnimeDTO struct {
	Title       *string  `json:"title,omitempty"`
	Synopsis    *string  `json:"synopsis,omitempty"`
	Episodes    *int     `json:"episodes,omitempty" binding:"omitempty,gte=0"`
	Score       *float64 `json:"score,omitempty" binding:"omitempty,gte=0"`
	ImageURL    *string  `json:"image_url,omitempty"`
	ReleaseYear *int     `json:"release_year,omitempty"`
}

// AnimeResponse DTO for responses
type AnimeResponse struct {
	ID          int64      `json:"id"`
	ExternalID  *string    `json:"external_id,omitempty"`
	Source      *string    `json:"source,omitempty"`
	Title       string     `json:"title"`
	Synopsis    *string    `json:"synopsis,omitempty"`
	Episodes    *int       `json:"episodes,omitempty"`
	Score       *float64   `json:"score,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	ReleaseYear *int       `json:"release_year,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// Converters
func (d CreateAnimeDTO) ToModel() models.Anime {
	return models.Anime{
		Title:       d.Title,
		Synopsis:    d.Synopsis,
		Episodes:    d.Episodes,
		Score:       d.Score,
		ImageURL:    d.ImageURL,
		ReleaseYear: d.ReleaseYear,
	}
}

// ToUpdates builds the column-keyed map consumed by the store; only fields
// the client actually sent are included.
func (d UpdateAnimeDTO) ToUpdates() map[string]interface{} {
	updates := make(map[string]interface{})
	if d.Title != nil {
		updates["title"] = *d.Title
	}
	if d.Synopsis != nil {
		updates["synopsis"] = *d.Synopsis
	}
	if d.Episodes != nil {
		updates["episodes"] = *d.Episodes
	}
	if d.Score != nil {
		updates["score"] = *d.Score
	}
	if d.ImageURL != nil {
		updates["image_url"] = *d.ImageURL
	}
	if d.ReleaseYear != nil {
		updates["release_year"] = *d.ReleaseYear
	}
	return updates
}

func FromAnimeModel(m models.Anime) AnimeResponse {
	return AnimeResponse{
		ID:          m.ID,
		ExternalID:  m.ExternalID,
		Source:      m.Source,
		Title:       m.Title,
		Synopsis:    m.Synopsis,
		Episodes:    m.Episodes,
		Score:       m.Score,
		ImageURL:    m.ImageURL,
		ReleaseYear: m.ReleaseYear,
		CreatedAt:   m.CreatedAt,
	}
}
