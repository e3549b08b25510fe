package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUpstreamUnavailable is returned when every configured source failed
// outright. An empty result from a reachable source is not a failure.
var ErrUpstreamUnavailable = errors.New("all external sources unavailable")

// Aggregator tries sources in a fixed priority order and returns the first
// non-empty answer. Sequential on purpose: fallback keeps outbound request
// volume bounded and results deterministic for a given query.
type Aggregator struct {
	clients []Client
	logger  *slog.Logger
}

func NewAggregator(logger *slog.Logger, clients ...Client) *Aggregator {
	return &Aggregator{clients: clients, logger: logger}
}

// Search queries each source in order until one returns results. The name of
// the source that answered is returned alongside the candidates. When every
// source hard-fails the error wraps ErrUpstreamUnavailable with the last
// underlying failure attached; sources that merely return nothing count as
// answered, so an all-empty sweep yields an empty list and a nil error.
func (a *Aggregator) Search(ctx context.Context, query string, page, perPage int) ([]Candidate, string, error) {
	var lastErr error
	failures := 0

	for _, client := range a.clients {
		results, err := client.Search(ctx, query, page, perPage)
		if err != nil {
			failures++
			lastErr = err
			a.logger.Warn("source search failed, falling back",
				"source", client.Name(), "query", query, "error", err)
			continue
		}
		if len(results) == 0 {
			a.logger.Debug("source returned no results, falling back",
				"source", client.Name(), "query", query)
			continue
		}
		return results, client.Name(), nil
	}

	if failures == len(a.clients) && failures > 0 {
		return nil, "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
	}
	return []Candidate{}, "", nil
}

// FetchByID looks an id up across sources with the same fallback policy.
// A not-found from one source advances to the next; only when a source
// actually has the id does the chain stop.
func (a *Aggregator) FetchByID(ctx context.Context, externalID string) (*Candidate, string, error) {
	var lastErr error

	for _, client := range a.clients {
		cand, err := client.FetchByID(ctx, externalID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			lastErr = err
			a.logger.Warn("source fetch failed, falling back",
				"source", client.Name(), "external_id", externalID, "error", err)
			continue
		}
		return cand, client.Name(), nil
	}

	if lastErr != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
	}
	return nil, "", ErrNotFound
}
