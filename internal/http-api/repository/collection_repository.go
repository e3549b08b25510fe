package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"animevault/internal/http-api/models"

	"gorm.io/gorm"
)

type CollectionRepository interface {
	Create(ctx context.Context, entry *models.CollectionEntry) error
	GetByID(ctx context.Context, id int64) (*models.CollectionEntry, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) (*models.CollectionEntry, error)
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID string, skip, limit int) ([]models.CollectionEntry, int64, error)
	ExistsPair(ctx context.Context, userID string, animeID int64) (bool, error)
}

type collectionRepository struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) Create(ctx context.Context, entry *models.CollectionEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		// idx_user_anime backstops the service-level existence check
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create collection entry: %w", err)
	}
	return nil
}

func (r *collectionRepository) GetByID(ctx context.Context, id int64) (*models.CollectionEntry, error) {
	var entry models.CollectionEntry
	err := r.db.WithContext(ctx).Preload("Anime").First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get collection entry: %w", err)
	}
	return &entry, nil
}

func (r *collectionRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) (*models.CollectionEntry, error) {
	entry, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return entry, nil
	}
	if err := r.db.WithContext(ctx).Model(entry).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update collection entry: %w", err)
	}
	return entry, nil
}

func (r *collectionRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.CollectionEntry{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete collection entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *collectionRepository) ListByUser(ctx context.Context, userID string, skip, limit int) ([]models.CollectionEntry, int64, error) {
	var entries []models.CollectionEntry
	var total int64

	if err := r.db.WithContext(ctx).
		Model(&models.CollectionEntry{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Preload("Anime").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Offset(skip).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("list collection entries: %w", err)
	}

	return entries, total, nil
}

func (r *collectionRepository) ExistsPair(ctx context.Context, userID string, animeID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CollectionEntry{}).
		Where("user_id = ? AND anime_id = ?", userID, animeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// isUniqueViolation matches unique-constraint errors from both sqlite and
// postgres without depending on driver error types.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
