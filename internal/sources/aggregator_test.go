package sources

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient mocks the Client interface
type MockClient struct {
	mock.Mock
	name string
}

func (m *MockClient) Name() string { return m.name }

func (m *MockClient) Search(ctx context.Context, query string, page, perPage int) ([]Candidate, error) {
	args := m.Called(query, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Candidate), args.Error(1)
}

func (m *MockClient) FetchByID(ctx context.Context, externalID string) (*Candidate, error) {
	args := m.Called(externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Candidate), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestSearch_PrimaryWins(t *testing.T) {
	primary := &MockClient{name: "anilist"}
	secondary := &MockClient{name: "kitsu"}

	primary.On("Search", "naruto", 1, 10).
		Return([]Candidate{{ExternalID: "20", Title: "Naruto", Source: "anilist"}}, nil)

	agg := NewAggregator(testLogger(), primary, secondary)
	results, source, err := agg.Search(context.Background(), "naruto", 1, 10)

	require.NoError(t, err)
	assert.Equal(t, "anilist", source)
	require.Len(t, results, 1)
	assert.Equal(t, "Naruto", results[0].Title)

	primary.AssertExpectations(t)
	secondary.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_FallbackOnFailure(t *testing.T) {
	primary := &MockClient{name: "anilist"}
	secondary := &MockClient{name: "kitsu"}

	primary.On("Search", "bleach", 1, 10).Return(nil, ErrSourceUnavailable)
	secondary.On("Search", "bleach", 1, 10).
		Return([]Candidate{{ExternalID: "245", Title: "Bleach", Source: "kitsu"}}, nil)

	agg := NewAggregator(testLogger(), primary, secondary)
	results, source, err := agg.Search(context.Background(), "bleach", 1, 10)

	require.NoError(t, err)
	assert.Equal(t, "kitsu", source)
	require.Len(t, results, 1)
	assert.Equal(t, "Bleach", results[0].Title)

	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)
}

func TestSearch_FallbackOnEmpty(t *testing.T) {
	primary := &MockClient{name: "anilist"}
	secondary := &MockClient{name: "kitsu"}

	primary.On("Search", "obscure title", 1, 10).Return([]Candidate{}, nil)
	secondary.On("Search", "obscure title", 1, 10).
		Return([]Candidate{{ExternalID: "9", Title: "Obscure Title", Source: "kitsu"}}, nil)

	agg := NewAggregator(testLogger(), primary, secondary)
	results, source, err := agg.Search(context.Background(), "obscure title", 1, 10)

	require.NoError(t, err)
	assert.Equal(t, "kitsu", source)
	assert.Len(t, results, 1)
}

func TestSearch_ExhaustionReturnsEmptyNotError(t *testing.T) {
	// One source empty, one failing: at least one source answered, so this
	// is an empty result rather than an upstream failure.
	primary := &MockClient{name: "anilist"}
	secondary := &MockClient{name: "kitsu"}

	primary.On("Search", "nothing", 1, 10).Return([]Candidate{}, nil)
	secondary.On("Search", "nothing", 1, 10).Return(nil, ErrSourceUnavailable)

	agg := NewAggregator(testLogger(), primary, secondary)
	results, source, err := agg.Search(context.Background(), "nothing", 1, 10)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, "", source)
}

func TestSearch_AllFailedReturnsUpstreamUnavailable(t *testing.T) {
	primary := &MockClient{name: "anilist"}
	secondary := &MockClient{name: "kitsu"}

	primary.On("Search", "down", 1, 10).Return(nil, ErrSourceUnavailable)
	secondary.On("Search", "down", 1, 10).Return(nil, ErrSourceUnavailable)

	agg := NewAggregator(testLogger(), primary, secondary)
	results, _, err := agg.Search(context.Background(), "down", 1, 10)

	assert.Empty(t, results)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestFetchByID_FallbackPastNotFound(t *testing.T) {
	primary := &MockClient{name: "anilist"}
	secondary := &MockClient{name: "kitsu"}

	primary.On("FetchByID", "7442").Return(nil, ErrNotFound)
	secondary.On("FetchByID", "7442").
		Return(&Candidate{ExternalID: "7442", Title: "Attack on Titan", Source: "kitsu"}, nil)

	agg := NewAggregator(testLogger(), primary, secondary)
	cand, source, err := agg.FetchByID(context.Background(), "7442")

	require.NoError(t, err)
	assert.Equal(t, "kitsu", source)
	assert.Equal(t, "Attack on Titan", cand.Title)
}

func TestFetchByID_AllNotFound(t *testing.T) {
	primary := &MockClient{name: "anilist"}
	secondary := &MockClient{name: "kitsu"}

	primary.On("FetchByID", "999999").Return(nil, ErrNotFound)
	secondary.On("FetchByID", "999999").Return(nil, ErrNotFound)

	agg := NewAggregator(testLogger(), primary, secondary)
	cand, _, err := agg.FetchByID(context.Background(), "999999")

	assert.Nil(t, cand)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchByID_HardFailureSurfacesUpstreamUnavailable(t *testing.T) {
	primary := &MockClient{name: "anilist"}
	secondary := &MockClient{name: "kitsu"}

	primary.On("FetchByID", "20").Return(nil, ErrSourceUnavailable)
	secondary.On("FetchByID", "20").Return(nil, ErrNotFound)

	agg := NewAggregator(testLogger(), primary, secondary)
	cand, _, err := agg.FetchByID(context.Background(), "20")

	assert.Nil(t, cand)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}
