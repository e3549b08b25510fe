package repository

import (
	"context"
	"errors"
	"fmt"

	"animevault/internal/http-api/models"
	"animevault/internal/sources"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// AnimeRepository is the local catalog store. The GORM implementation below
// is the default; internal/filestore provides a flat-file variant.
type AnimeRepository interface {
	FindByExternalID(ctx context.Context, source, externalID string) (*models.Anime, error)
	// Upsert inserts a new record for an unseen (source, external id) pair and
	// reports created=true; an existing record is returned unchanged.
	Upsert(ctx context.Context, cand sources.Candidate) (*models.Anime, bool, error)
	GetByID(ctx context.Context, id int64) (*models.Anime, error)
	List(ctx context.Context, skip, limit int) ([]models.Anime, int64, error)
	Create(ctx context.Context, anime *models.Anime) error
	Update(ctx context.Context, id int64, updates map[string]interface{}) (*models.Anime, error)
	Delete(ctx context.Context, id int64) (*models.Anime, error)
}

type animeRepository struct {
	db *gorm.DB
}

func NewAnimeRepository(db *gorm.DB) AnimeRepository {
	return &animeRepository{db: db}
}

func (r *animeRepository) FindByExternalID(ctx context.Context, source, externalID string) (*models.Anime, error) {
	var a models.Anime
	err := r.db.WithContext(ctx).
		Where("source = ? AND external_id = ?", source, externalID).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find anime by external id: %w", err)
	}
	return &a, nil
}

func (r *animeRepository) Upsert(ctx context.Context, cand sources.Candidate) (*models.Anime, bool, error) {
	existing, err := r.FindByExternalID(ctx, cand.Source, cand.ExternalID)
	if err == nil {
		// Idempotent save: the stored record wins over the fresh fetch.
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	anime := CandidateToAnime(cand)
	if err := r.db.WithContext(ctx).Create(anime).Error; err != nil {
		// The unique index on (source, external_id) backstops concurrent
		// saves of the same candidate; whoever lost the race reads back.
		if existing, findErr := r.FindByExternalID(ctx, cand.Source, cand.ExternalID); findErr == nil {
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create anime: %w", err)
	}
	return anime, true, nil
}

func (r *animeRepository) GetByID(ctx context.Context, id int64) (*models.Anime, error) {
	var a models.Anime
	err := r.db.WithContext(ctx).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get anime: %w", err)
	}
	return &a, nil
}

func (r *animeRepository) List(ctx context.Context, skip, limit int) ([]models.Anime, int64, error) {
	var list []models.Anime
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Anime{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Order("created_at asc").
		Offset(skip).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *animeRepository) Create(ctx context.Context, anime *models.Anime) error {
	if err := r.db.WithContext(ctx).Create(anime).Error; err != nil {
		return fmt.Errorf("create anime: %w", err)
	}
	// GORM populates anime.ID and anime.CreatedAt
	return nil
}

func (r *animeRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) (*models.Anime, error) {
	anime, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return anime, nil
	}
	if err := r.db.WithContext(ctx).Model(anime).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update anime: %w", err)
	}
	return anime, nil
}

// Delete removes the record and its dependent collection entries in one
// transaction, so the cascade does not depend on driver-level FK support.
func (r *animeRepository) Delete(ctx context.Context, id int64) (*models.Anime, error) {
	anime, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("anime_id = ?", id).Delete(&models.CollectionEntry{}).Error; err != nil {
			return fmt.Errorf("delete collection entries: %w", err)
		}
		if err := tx.Delete(&models.Anime{}, id).Error; err != nil {
			return fmt.Errorf("delete anime: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return anime, nil
}

// CandidateToAnime maps a normalized candidate onto the stored shape.
func CandidateToAnime(cand sources.Candidate) *models.Anime {
	anime := &models.Anime{
		ExternalID: &cand.ExternalID,
		Source:     &cand.Source,
		Title:      cand.Title,
		Episodes:   cand.Episodes,
		Score:      cand.Score,
	}
	if cand.Synopsis != "" {
		anime.Synopsis = &cand.Synopsis
	}
	if cand.ImageURL != "" {
		anime.ImageURL = &cand.ImageURL
	}
	if cand.ReleaseYear != nil {
		anime.ReleaseYear = cand.ReleaseYear
	}
	return anime
}
