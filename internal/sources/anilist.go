package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	anilistEndpoint = "https://graphql.anilist.co"

	// AniList allows ~90 requests per minute
	anilistRateLimit = 1 // requests per second
	anilistRateBurst = 5
)

const anilistSearchQuery = `query ($search: String, $page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    media(search: $search, type: ANIME) {
      id
      title { english romaji native }
      description(asHtml: false)
      episodes
      averageScore
      seasonYear
      startDate { year }
      coverImage { large }
    }
  }
}`

const anilistByIDQuery = `query ($id: Int) {
  Media(id: $id, type: ANIME) {
    id
    title { english romaji native }
    description(asHtml: false)
    episodes
    averageScore
    seasonYear
    startDate { year }
    coverImage { large }
  }
}`

// AniListClient queries the AniList GraphQL API.
// Scores are on AniList's native 0-100 scale.
type AniListClient struct {
	apiURL      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

func NewAniListClient(timeout time.Duration) *AniListClient {
	return &AniListClient{
		apiURL:      anilistEndpoint,
		rateLimiter: rate.NewLimiter(rate.Limit(anilistRateLimit), anilistRateBurst),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *AniListClient) Name() string { return "anilist" }

type anilistMedia struct {
	ID    int `json:"id"`
	Title struct {
		English string `json:"english"`
		Romaji  string `json:"romaji"`
		Native  string `json:"native"`
	} `json:"title"`
	Description  string `json:"description"`
	Episodes     *int   `json:"episodes"`
	AverageScore *int   `json:"averageScore"`
	SeasonYear   *int   `json:"seasonYear"`
	StartDate    struct {
		Year *int `json:"year"`
	} `json:"startDate"`
	CoverImage struct {
		Large string `json:"large"`
	} `json:"coverImage"`
}

func (c *AniListClient) Search(ctx context.Context, query string, page, perPage int) ([]Candidate, error) {
	variables := map[string]interface{}{
		"search":  query,
		"page":    page,
		"perPage": perPage,
	}

	var result struct {
		Page struct {
			Media []anilistMedia `json:"media"`
		} `json:"Page"`
	}
	if err := c.doRequest(ctx, anilistSearchQuery, variables, &result); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(result.Page.Media))
	for _, m := range result.Page.Media {
		out = append(out, c.normalize(m))
	}
	return out, nil
}

func (c *AniListClient) FetchByID(ctx context.Context, externalID string) (*Candidate, error) {
	id, err := strconv.Atoi(externalID)
	if err != nil {
		// AniList ids are numeric, anything else cannot exist there
		return nil, ErrNotFound
	}

	var result struct {
		Media *anilistMedia `json:"Media"`
	}
	if err := c.doRequest(ctx, anilistByIDQuery, map[string]interface{}{"id": id}, &result); err != nil {
		return nil, err
	}
	if result.Media == nil || result.Media.ID == 0 {
		return nil, ErrNotFound
	}

	cand := c.normalize(*result.Media)
	return &cand, nil
}

func (c *AniListClient) normalize(m anilistMedia) Candidate {
	cand := Candidate{
		ExternalID: strconv.Itoa(m.ID),
		Title:      titleOrUnknown(m.Title.English, m.Title.Romaji, m.Title.Native),
		Synopsis:   stripMarkup(m.Description),
		Episodes:   m.Episodes,
		ImageURL:   m.CoverImage.Large,
		Source:     c.Name(),
	}
	if m.AverageScore != nil {
		score := float64(*m.AverageScore)
		cand.Score = &score
	}
	switch {
	case m.SeasonYear != nil:
		cand.ReleaseYear = m.SeasonYear
	case m.StartDate.Year != nil:
		cand.ReleaseYear = m.StartDate.Year
	}
	return cand
}

// doRequest performs a GraphQL request with rate limiting.
func (c *AniListClient) doRequest(ctx context.Context, query string, variables map[string]interface{}, result interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", ErrSourceUnavailable, err)
	}

	bodyJSON, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrSourceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(bodyJSON))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrSourceUnavailable, err)
	}

	var gqlResp struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
			Status  int    `json:"status"`
		} `json:"errors"`
	}

	// AniList reports missing media as HTTP 404 with a GraphQL error body
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d: %s", ErrSourceUnavailable, resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return fmt.Errorf("%w: parse GraphQL response: %v", ErrSourceUnavailable, err)
	}
	for _, e := range gqlResp.Errors {
		if e.Status == http.StatusNotFound {
			return ErrNotFound
		}
	}
	if len(gqlResp.Errors) > 0 {
		return fmt.Errorf("%w: GraphQL error: %s", ErrSourceUnavailable, gqlResp.Errors[0].Message)
	}

	if err := json.Unmarshal(gqlResp.Data, result); err != nil {
		return fmt.Errorf("%w: parse data: %v", ErrSourceUnavailable, err)
	}
	return nil
}
