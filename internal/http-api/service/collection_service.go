package service

import (
	"context"
	"errors"

	"animevault/internal/http-api/models"
	"animevault/internal/http-api/repository"
)

var (
	ErrDuplicateEntry  = errors.New("anime already in collection")
	ErrForbidden       = errors.New("not allowed to access this collection entry")
	ErrInvalidRating   = errors.New("rating must be between 0 and 10")
	ErrInvalidEpisodes = errors.New("episodes watched must not be negative")
)

type CollectionService interface {
	Add(ctx context.Context, entry *models.CollectionEntry) (*models.CollectionEntry, error)
	Update(ctx context.Context, entryID int64, updates map[string]interface{}, requester *Claims) (*models.CollectionEntry, error)
	Remove(ctx context.Context, entryID int64, requester *Claims) (*models.CollectionEntry, error)
	ListForUser(ctx context.Context, userID string, skip, limit int, requester *Claims) ([]models.CollectionEntry, int64, error)
}

type collectionService struct {
	repo      repository.CollectionRepository
	animeRepo repository.AnimeRepository
}

func NewCollectionService(repo repository.CollectionRepository, animeRepo repository.AnimeRepository) CollectionService {
	return &collectionService{
		repo:      repo,
		animeRepo: animeRepo,
	}
}

// Add creates a collection entry for (entry.UserID, entry.AnimeID). At most
// one entry per pair: a lookup guards the common case, the store's unique
// index closes the race window between check and insert.
func (s *collectionService) Add(ctx context.Context, entry *models.CollectionEntry) (*models.CollectionEntry, error) {
	if err := validateEntryFields(entry.EpisodesWatched, entry.Rating); err != nil {
		return nil, err
	}

	// The anime must exist locally before it can be collected.
	if _, err := s.animeRepo.GetByID(ctx, entry.AnimeID); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsPair(ctx, entry.UserID, entry.AnimeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEntry
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateEntry
		}
		return nil, err
	}
	return entry, nil
}

func (s *collectionService) Update(ctx context.Context, entryID int64, updates map[string]interface{}, requester *Claims) (*models.CollectionEntry, error) {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !canAccess(entry, requester) {
		return nil, ErrForbidden
	}
	if err := validateUpdates(updates); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, entryID, updates)
}

func (s *collectionService) Remove(ctx context.Context, entryID int64, requester *Claims) (*models.CollectionEntry, error) {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !canAccess(entry, requester) {
		return nil, ErrForbidden
	}
	if err := s.repo.Delete(ctx, entryID); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *collectionService) ListForUser(ctx context.Context, userID string, skip, limit int, requester *Claims) ([]models.CollectionEntry, int64, error) {
	if requester.UserID != userID && !requester.IsSuperuser {
		return nil, 0, ErrForbidden
	}
	return s.repo.ListByUser(ctx, userID, skip, limit)
}

// canAccess allows the owning user or a superuser.
func canAccess(entry *models.CollectionEntry, requester *Claims) bool {
	return requester.UserID == entry.UserID || requester.IsSuperuser
}

func validateEntryFields(episodesWatched int, rating *float64) error {
	if episodesWatched < 0 {
		return ErrInvalidEpisodes
	}
	if rating != nil && (*rating < 0 || *rating > 10) {
		return ErrInvalidRating
	}
	return nil
}

func validateUpdates(updates map[string]interface{}) error {
	if v, ok := updates["episodes_watched"]; ok {
		if episodes, ok := v.(int); ok && episodes < 0 {
			return ErrInvalidEpisodes
		}
	}
	if v, ok := updates["rating"]; ok {
		if rating, ok := v.(float64); ok && (rating < 0 || rating > 10) {
			return ErrInvalidRating
		}
	}
	return nil
}
