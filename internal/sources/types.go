package sources

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// ErrSourceUnavailable covers transport failures, non-2xx responses and
	// malformed payloads from a single provider.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNotFound means the provider answered but has no such anime.
	ErrNotFound = errors.New("anime not found")
)

// Candidate is the canonical anime shape shared by all providers.
// Score stays on the provider's native scale; callers must not compare
// scores across sources.
type Candidate struct {
	ExternalID  string   `json:"external_id"`
	Title       string   `json:"title"`
	Synopsis    string   `json:"synopsis,omitempty"`
	Episodes    *int     `json:"episodes,omitempty"`
	Score       *float64 `json:"score,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	ReleaseYear *int     `json:"release_year,omitempty"`
	Source      string   `json:"source"`
}

// Client is the contract every provider adapter fulfils.
type Client interface {
	Name() string
	Search(ctx context.Context, query string, page, perPage int) ([]Candidate, error)
	FetchByID(ctx context.Context, externalID string) (*Candidate, error)
}

var markupPolicy = bluemonday.StrictPolicy()

// stripMarkup removes HTML tags and entities from provider descriptions.
func stripMarkup(s string) string {
	return strings.TrimSpace(html.UnescapeString(markupPolicy.Sanitize(s)))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// titleOrUnknown applies the title resolution policy: localized first,
// romanized/native next, literal "Unknown" last.
func titleOrUnknown(vals ...string) string {
	if t := firstNonEmpty(vals...); t != "" {
		return t
	}
	return "Unknown"
}
