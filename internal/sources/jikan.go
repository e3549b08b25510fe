package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	jikanEndpoint = "https://api.jikan.moe/v4"

	// Jikan enforces 3 req/sec, 60 req/min
	jikanRateLimit = 1
	jikanRateBurst = 3
)

// JikanClient queries the Jikan (MyAnimeList) REST API.
// Scores are on MAL's native 0-10 scale.
type JikanClient struct {
	apiURL      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

func NewJikanClient(timeout time.Duration) *JikanClient {
	return &JikanClient{
		apiURL:      jikanEndpoint,
		rateLimiter: rate.NewLimiter(rate.Limit(jikanRateLimit), jikanRateBurst),
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

func (c *JikanClient) Name() string { return "jikan" }

type jikanAnime struct {
	MalID    int      `json:"mal_id"`
	Title    string   `json:"title"`
	TitleEn  string   `json:"title_english"`
	TitleJp  string   `json:"title_japanese"`
	Synopsis string   `json:"synopsis"`
	Episodes *int     `json:"episodes"`
	Score    *float64 `json:"score"`
	Year     *int     `json:"year"`
	Images   struct {
		JPG struct {
			LargeImageURL string `json:"large_image_url"`
			ImageURL      string `json:"image_url"`
		} `json:"jpg"`
	} `json:"images"`
}

func (c *JikanClient) Search(ctx context.Context, query string, page, perPage int) ([]Candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(perPage))

	body, err := c.get(ctx, fmt.Sprintf("%s/anime?%s", c.apiURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data []jikanAnime `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrSourceUnavailable, err)
	}

	out := make([]Candidate, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		out = append(out, c.normalize(d))
	}
	return out, nil
}

func (c *JikanClient) FetchByID(ctx context.Context, externalID string) (*Candidate, error) {
	if _, err := strconv.Atoi(externalID); err != nil {
		// MAL ids are numeric
		return nil, ErrNotFound
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/anime/%s", c.apiURL, url.PathEscape(externalID)))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data *jikanAnime `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrSourceUnavailable, err)
	}
	if parsed.Data == nil || parsed.Data.MalID == 0 {
		return nil, ErrNotFound
	}

	cand := c.normalize(*parsed.Data)
	return &cand, nil
}

func (c *JikanClient) normalize(d jikanAnime) Candidate {
	return Candidate{
		ExternalID:  strconv.Itoa(d.MalID),
		Title:       titleOrUnknown(d.TitleEn, d.Title, d.TitleJp),
		Synopsis:    stripMarkup(d.Synopsis),
		Episodes:    d.Episodes,
		Score:       d.Score,
		ImageURL:    firstNonEmpty(d.Images.JPG.LargeImageURL, d.Images.JPG.ImageURL),
		ReleaseYear: d.Year,
		Source:      c.Name(),
	}
}

func (c *JikanClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrSourceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrSourceUnavailable, err)
	}
	return body, nil
}
