package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAniListClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"Page": {
					"media": [{
						"id": 21,
						"title": {"english": "One Piece", "romaji": "One Piece", "native": "ワンピース"},
						"description": "<p>Gold Roger was known as the <b>Pirate King</b>.</p>",
						"episodes": 1000,
						"averageScore": 88,
						"seasonYear": 1999,
						"coverImage": {"large": "https://img.example/21.jpg"}
					}]
				}
			}
		}`))
	}))
	defer srv.Close()

	client := NewAniListClient(5 * time.Second)
	client.apiURL = srv.URL

	results, err := client.Search(context.Background(), "one piece", 1, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, "21", got.ExternalID)
	assert.Equal(t, "One Piece", got.Title)
	assert.Equal(t, "Gold Roger was known as the Pirate King.", got.Synopsis)
	require.NotNil(t, got.Episodes)
	assert.Equal(t, 1000, *got.Episodes)
	require.NotNil(t, got.Score)
	assert.Equal(t, 88.0, *got.Score) // native 0-100 scale, no rescaling
	require.NotNil(t, got.ReleaseYear)
	assert.Equal(t, 1999, *got.ReleaseYear)
	assert.Equal(t, "anilist", got.Source)
}

func TestAniListClient_TitleFallsBackToRomaji(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": {
				"Page": {
					"media": [{
						"id": 5,
						"title": {"english": "", "romaji": "Gintama", "native": "銀魂"}
					}]
				}
			}
		}`))
	}))
	defer srv.Close()

	client := NewAniListClient(5 * time.Second)
	client.apiURL = srv.URL

	results, err := client.Search(context.Background(), "gintama", 1, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Gintama", results[0].Title)
}

func TestAniListClient_ServerErrorIsSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewAniListClient(5 * time.Second)
	client.apiURL = srv.URL

	_, err := client.Search(context.Background(), "anything", 1, 10)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestAniListClient_FetchByID_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"data": {"Media": null}, "errors": [{"message": "Not Found.", "status": 404}]}`))
	}))
	defer srv.Close()

	client := NewAniListClient(5 * time.Second)
	client.apiURL = srv.URL

	_, err := client.FetchByID(context.Background(), "123456789")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAniListClient_FetchByID_NonNumericID(t *testing.T) {
	client := NewAniListClient(5 * time.Second)
	_, err := client.FetchByID(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKitsuClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cowboy bebop", r.URL.Query().Get("filter[text]"))
		assert.Equal(t, "10", r.URL.Query().Get("page[limit]"))
		assert.Equal(t, "10", r.URL.Query().Get("page[offset]"))
		w.Write([]byte(`{
			"data": [{
				"id": "1",
				"attributes": {
					"canonicalTitle": "Cowboy Bebop",
					"titles": {"en": "Cowboy Bebop", "en_jp": "Cowboy Bebop", "ja_jp": "カウボーイビバップ"},
					"synopsis": "In the year 2071, humanity has colonized the solar system.",
					"episodeCount": 26,
					"averageRating": "82.32",
					"startDate": "1998-04-03",
					"posterImage": {"original": "https://media.kitsu.io/1.jpg"}
				}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewKitsuClient(5 * time.Second)
	client.apiURL = srv.URL

	// page 2 exercises the offset computation
	results, err := client.Search(context.Background(), "cowboy bebop", 2, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, "1", got.ExternalID)
	assert.Equal(t, "Cowboy Bebop", got.Title)
	require.NotNil(t, got.Score)
	assert.InDelta(t, 82.32, *got.Score, 0.001)
	require.NotNil(t, got.ReleaseYear)
	assert.Equal(t, 1998, *got.ReleaseYear)
	assert.Equal(t, "kitsu", got.Source)
}

func TestKitsuClient_FetchByID_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewKitsuClient(5 * time.Second)
	client.apiURL = srv.URL

	_, err := client.FetchByID(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKitsuClient_MalformedPayloadIsSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": "not an array"`))
	}))
	defer srv.Close()

	client := NewKitsuClient(5 * time.Second)
	client.apiURL = srv.URL

	_, err := client.Search(context.Background(), "anything", 1, 10)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestJikanClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "death note", r.URL.Query().Get("q"))
		w.Write([]byte(`{
			"data": [{
				"mal_id": 1535,
				"title": "Death Note",
				"title_english": "Death Note",
				"title_japanese": "デスノート",
				"synopsis": "A shinigami drops a notebook into the human realm.",
				"episodes": 37,
				"score": 8.62,
				"year": 2006,
				"images": {"jpg": {"large_image_url": "https://cdn.myanimelist.net/1535l.jpg", "image_url": "https://cdn.myanimelist.net/1535.jpg"}}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewJikanClient(5 * time.Second)
	client.apiURL = srv.URL

	results, err := client.Search(context.Background(), "death note", 1, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, "1535", got.ExternalID)
	assert.Equal(t, "Death Note", got.Title)
	require.NotNil(t, got.Score)
	assert.InDelta(t, 8.62, *got.Score, 0.001) // native 0-10 scale
	assert.Equal(t, "https://cdn.myanimelist.net/1535l.jpg", got.ImageURL)
	assert.Equal(t, "jikan", got.Source)
}

func TestJikanClient_FetchByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/anime/1535", r.URL.Path)
		w.Write([]byte(`{
			"data": {
				"mal_id": 1535,
				"title": "Death Note",
				"episodes": 37,
				"score": 8.62
			}
		}`))
	}))
	defer srv.Close()

	client := NewJikanClient(5 * time.Second)
	client.apiURL = srv.URL

	cand, err := client.FetchByID(context.Background(), "1535")
	require.NoError(t, err)
	assert.Equal(t, "Death Note", cand.Title)
	assert.Equal(t, "1535", cand.ExternalID)
}

func TestTitleOrUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", titleOrUnknown("", "", ""))
	assert.Equal(t, "Romaji", titleOrUnknown("", "Romaji", "Native"))
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "Bold and italic text.", stripMarkup("<b>Bold</b> and <i>italic</i> text."))
	assert.Equal(t, "A & B", stripMarkup("A &amp; B"))
	assert.Equal(t, "plain", stripMarkup("  plain  "))
}
