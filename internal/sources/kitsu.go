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
	kitsuEndpoint = "https://kitsu.io/api/edge"

	kitsuRateLimit = 2
	kitsuRateBurst = 5
)

// KitsuClient queries the Kitsu JSON:API.
// Scores are on Kitsu's native 0-100 scale (averageRating).
type KitsuClient struct {
	apiURL      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

func NewKitsuClient(timeout time.Duration) *KitsuClient {
	return &KitsuClient{
		apiURL:      kitsuEndpoint,
		rateLimiter: rate.NewLimiter(rate.Limit(kitsuRateLimit), kitsuRateBurst),
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

func (c *KitsuClient) Name() string { return "kitsu" }

type kitsuResource struct {
	ID         string `json:"id"`
	Attributes struct {
		CanonicalTitle string `json:"canonicalTitle"`
		Titles         struct {
			En   string `json:"en"`
			EnJp string `json:"en_jp"`
			JaJp string `json:"ja_jp"`
		} `json:"titles"`
		Synopsis      string  `json:"synopsis"`
		EpisodeCount  *int    `json:"episodeCount"`
		AverageRating *string `json:"averageRating"`
		StartDate     string  `json:"startDate"`
		PosterImage   struct {
			Original string `json:"original"`
		} `json:"posterImage"`
	} `json:"attributes"`
}

func (c *KitsuClient) Search(ctx context.Context, query string, page, perPage int) ([]Candidate, error) {
	// Kitsu uses offset-based paging
	offset := (page - 1) * perPage
	params := url.Values{}
	params.Set("filter[text]", query)
	params.Set("page[limit]", strconv.Itoa(perPage))
	params.Set("page[offset]", strconv.Itoa(offset))

	body, err := c.get(ctx, fmt.Sprintf("%s/anime?%s", c.apiURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data []kitsuResource `json:"data"`
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

func (c *KitsuClient) FetchByID(ctx context.Context, externalID string) (*Candidate, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/anime/%s", c.apiURL, url.PathEscape(externalID)))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data *kitsuResource `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrSourceUnavailable, err)
	}
	if parsed.Data == nil || parsed.Data.ID == "" {
		return nil, ErrNotFound
	}

	cand := c.normalize(*parsed.Data)
	return &cand, nil
}

func (c *KitsuClient) normalize(d kitsuResource) Candidate {
	attr := d.Attributes
	cand := Candidate{
		ExternalID: d.ID,
		Title:      titleOrUnknown(attr.Titles.En, attr.CanonicalTitle, attr.Titles.EnJp, attr.Titles.JaJp),
		Synopsis:   stripMarkup(attr.Synopsis),
		Episodes:   attr.EpisodeCount,
		ImageURL:   attr.PosterImage.Original,
		Source:     c.Name(),
	}
	if attr.AverageRating != nil {
		if score, err := strconv.ParseFloat(*attr.AverageRating, 64); err == nil {
			cand.Score = &score
		}
	}
	// startDate is "YYYY-MM-DD"
	if len(attr.StartDate) >= 4 {
		if year, err := strconv.Atoi(attr.StartDate[:4]); err == nil {
			cand.ReleaseYear = &year
		}
	}
	return cand
}

func (c *KitsuClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrSourceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/vnd.api+json")

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
