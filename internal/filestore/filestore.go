// Package filestore is a JSON flat-file implementation of the anime catalog
// store. All writes funnel through one process-wide lock and land via
// write-to-temp-then-rename, so a reader never observes a half-written file.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"animevault/internal/http-api/models"
	"animevault/internal/http-api/repository"
	"animevault/internal/sources"
)

type catalogFile struct {
	NextID int64          `json:"next_id"`
	Anime  []models.Anime `json:"anime"`
}

type Store struct {
	path string
	mu   sync.Mutex
}

// interface conformance
var _ repository.AnimeRepository = (*Store)(nil)

func New(path string) (*Store, error) {
	s := &Store{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		if err := s.write(&catalogFile{NextID: 1}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) read() (*catalogFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var cf catalogFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if cf.NextID == 0 {
		cf.NextID = 1
	}
	return &cf, nil
}

// write replaces the catalog atomically: temp file in the same directory,
// then rename over the target.
func (s *Store) write(cf *catalogFile) error {
	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp catalog file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace catalog file: %w", err)
	}
	return nil
}

func (s *Store) FindByExternalID(ctx context.Context, source, externalID string) (*models.Anime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range cf.Anime {
		a := &cf.Anime[i]
		if a.Source != nil && *a.Source == source && a.ExternalID != nil && *a.ExternalID == externalID {
			out := *a
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) Upsert(ctx context.Context, cand sources.Candidate) (*models.Anime, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.read()
	if err != nil {
		return nil, false, err
	}
	for i := range cf.Anime {
		a := &cf.Anime[i]
		if a.Source != nil && *a.Source == cand.Source && a.ExternalID != nil && *a.ExternalID == cand.ExternalID {
			out := *a
			return &out, false, nil
		}
	}

	anime := repository.CandidateToAnime(cand)
	anime.ID = cf.NextID
	now := time.Now().UTC()
	anime.CreatedAt = &now
	anime.UpdatedAt = &now
	cf.NextID++
	cf.Anime = append(cf.Anime, *anime)

	if err := s.write(cf); err != nil {
		return nil, false, err
	}
	return anime, true, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*models.Anime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range cf.Anime {
		if cf.Anime[i].ID == id {
			out := cf.Anime[i]
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) List(ctx context.Context, skip, limit int) ([]models.Anime, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.read()
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(cf.Anime))

	// entries are appended in creation order
	if skip >= len(cf.Anime) {
		return []models.Anime{}, total, nil
	}
	end := skip + limit
	if limit <= 0 || end > len(cf.Anime) {
		end = len(cf.Anime)
	}
	out := make([]models.Anime, end-skip)
	copy(out, cf.Anime[skip:end])
	return out, total, nil
}

func (s *Store) Create(ctx context.Context, anime *models.Anime) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.read()
	if err != nil {
		return err
	}
	anime.ID = cf.NextID
	now := time.Now().UTC()
	anime.CreatedAt = &now
	anime.UpdatedAt = &now
	cf.NextID++
	cf.Anime = append(cf.Anime, *anime)
	return s.write(cf)
}

func (s *Store) Update(ctx context.Context, id int64, updates map[string]interface{}) (*models.Anime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range cf.Anime {
		if cf.Anime[i].ID != id {
			continue
		}
		applyUpdates(&cf.Anime[i], updates)
		now := time.Now().UTC()
		cf.Anime[i].UpdatedAt = &now
		if err := s.write(cf); err != nil {
			return nil, err
		}
		out := cf.Anime[i]
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (s *Store) Delete(ctx context.Context, id int64) (*models.Anime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range cf.Anime {
		if cf.Anime[i].ID != id {
			continue
		}
		removed := cf.Anime[i]
		cf.Anime = append(cf.Anime[:i], cf.Anime[i+1:]...)
		if err := s.write(cf); err != nil {
			return nil, err
		}
		return &removed, nil
	}
	return nil, repository.ErrNotFound
}

// applyUpdates mirrors the column-keyed update maps used by the GORM store.
func applyUpdates(a *models.Anime, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "title":
			if v, ok := value.(string); ok {
				a.Title = v
			}
		case "synopsis":
			if v, ok := value.(string); ok {
				a.Synopsis = &v
			}
		case "episodes":
			if v, ok := value.(int); ok {
				a.Episodes = &v
			}
		case "score":
			if v, ok := value.(float64); ok {
				a.Score = &v
			}
		case "image_url":
			if v, ok := value.(string); ok {
				a.ImageURL = &v
			}
		case "release_year":
			if v, ok := value.(int); ok {
				a.ReleaseYear = &v
			}
		}
	}
}
