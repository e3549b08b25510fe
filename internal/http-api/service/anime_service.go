package service

import (
	"context"
	"log/slog"

	"animevault/internal/cache"
	"animevault/internal/http-api/models"
	"animevault/internal/http-api/repository"
	"animevault/internal/sources"
)

type AnimeService interface {
	GetAll(ctx context.Context, skip, limit int) ([]models.Anime, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Anime, error)
	Create(ctx context.Context, anime *models.Anime) error
	Update(ctx context.Context, id int64, updates map[string]interface{}) (*models.Anime, error)
	Delete(ctx context.Context, id int64) (*models.Anime, error)
	// SearchExternal queries the aggregator and persists every candidate
	// into the local catalog as a side effect.
	SearchExternal(ctx context.Context, query string, page, perPage int) ([]models.Anime, string, error)
	// SaveExternal fetches one anime by external id across sources and
	// upserts it locally.
	SaveExternal(ctx context.Context, externalID string) (*models.Anime, error)
}

// Aggregator is the slice of sources.Aggregator this service needs;
// declared here so tests can substitute a mock.
type Aggregator interface {
	Search(ctx context.Context, query string, page, perPage int) ([]sources.Candidate, string, error)
	FetchByID(ctx context.Context, externalID string) (*sources.Candidate, string, error)
}

type animeService struct {
	repo       repository.AnimeRepository
	aggregator Aggregator
	cache      *cache.SearchCache
	logger     *slog.Logger
}

func NewAnimeService(repo repository.AnimeRepository, aggregator Aggregator, searchCache *cache.SearchCache, logger *slog.Logger) AnimeService {
	return &animeService{
		repo:       repo,
		aggregator: aggregator,
		cache:      searchCache,
		logger:     logger,
	}
}

func (s *animeService) GetAll(ctx context.Context, skip, limit int) ([]models.Anime, int64, error) {
	return s.repo.List(ctx, skip, limit)
}

func (s *animeService) GetByID(ctx context.Context, id int64) (*models.Anime, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *animeService) Create(ctx context.Context, anime *models.Anime) error {
	return s.repo.Create(ctx, anime)
}

func (s *animeService) Update(ctx context.Context, id int64, updates map[string]interface{}) (*models.Anime, error) {
	return s.repo.Update(ctx, id, updates)
}

func (s *animeService) Delete(ctx context.Context, id int64) (*models.Anime, error) {
	return s.repo.Delete(ctx, id)
}

// cachedSearch is the shape stored in the search cache.
type cachedSearch struct {
	Candidates []sources.Candidate `json:"candidates"`
	Source     string              `json:"source"`
}

func (s *animeService) SearchExternal(ctx context.Context, query string, page, perPage int) ([]models.Anime, string, error) {
	candidates, sourceUsed, err := s.lookupCandidates(ctx, query, page, perPage)
	if err != nil {
		return nil, "", err
	}

	// Upserts are idempotent, so replaying a cached result is harmless.
	saved := make([]models.Anime, 0, len(candidates))
	for _, cand := range candidates {
		record, created, err := s.repo.Upsert(ctx, cand)
		if err != nil {
			return nil, "", err
		}
		if created {
			s.logger.Info("saved anime from external source",
				"title", record.Title, "source", cand.Source, "external_id", cand.ExternalID)
		}
		saved = append(saved, *record)
	}
	return saved, sourceUsed, nil
}

func (s *animeService) lookupCandidates(ctx context.Context, query string, page, perPage int) ([]sources.Candidate, string, error) {
	key := cache.Key(query, page, perPage)

	var cached cachedSearch
	if s.cache.Get(ctx, key, &cached) {
		return cached.Candidates, cached.Source, nil
	}

	candidates, sourceUsed, err := s.aggregator.Search(ctx, query, page, perPage)
	if err != nil {
		return nil, "", err
	}
	if len(candidates) > 0 {
		s.cache.Set(ctx, key, cachedSearch{Candidates: candidates, Source: sourceUsed})
	}
	return candidates, sourceUsed, nil
}

func (s *animeService) SaveExternal(ctx context.Context, externalID string) (*models.Anime, error) {
	cand, sourceUsed, err := s.aggregator.FetchByID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	record, created, err := s.repo.Upsert(ctx, *cand)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("saved anime from external source",
			"title", record.Title, "source", sourceUsed, "external_id", externalID)
	}
	return record, nil
}
