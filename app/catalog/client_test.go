package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const playlistPayloadJSON = `{
  "data": [
    {
      "relationships": {
        "tracks": {
          "data": [
            {
              "id": "1001",
              "attributes": {
                "name": "Song A",
                "artistName": "Artist A",
                "albumName": "Album A",
                "url": "https://music.apple.com/us/song/1001",
                "releaseDate": "2023-01-01",
                "genreNames": ["Pop"],
                "durationInMillis": 215000,
                "isrc": "USUM72300001",
                "artwork": {"url": "https://example.mzstatic.com/{w}x{h}.jpg"},
                "audioVariants": ["dolby-atmos", "lossless"]
              }
            },
            {
              "id": "1002",
              "attributes": {
                "name": "Song B",
                "artistName": "Artist B",
                "albumName": "Album B",
                "releaseDate": "2023-01-02",
                "audioVariants": ["lossless"]
              }
            },
            {
              "id": "1003",
              "attributes": {
                "name": "Song C",
                "artistName": "Artist C",
                "albumName": "Album C",
                "releaseDate": "2023-01-03",
                "audioTraits": ["spatial"]
              }
            },
            {
              "id": "1004",
              "attributes": {
                "name": "Song D",
                "albumName": "Album D",
                "releaseDate": "2023-01-04",
                "audioVariants": ["dolby-atmos"]
              }
            }
          ],
          "next": ""
        }
      }
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(NewStaticTokenProvider("test-token"), ClientOptions{
		BaseURL:    server.URL,
		Storefront: "us",
		Timeout:    5 * time.Second,
	})
}

func TestFetchCandidatesPlaylist(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(playlistPayloadJSON))
	})

	source := Source{Kind: SourcePlaylist, Ref: "pl.test", Name: "Test Playlist"}
	candidates, err := client.FetchCandidates(context.Background(), source)
	if err != nil {
		t.Fatalf("FetchCandidates failed: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("Expected bearer auth header, got %q", gotAuth)
	}

	// Song B is lossless-only, Song D lacks an artist; both must be dropped
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.ExternalID != "1001" {
		t.Errorf("Expected external id 1001, got %s", first.ExternalID)
	}
	if first.Format != "Dolby Atmos" {
		t.Errorf("Expected Dolby Atmos format, got %s", first.Format)
	}
	if first.Platform != "Apple Music" {
		t.Errorf("Expected Apple Music platform, got %s", first.Platform)
	}
	if first.ReleaseDate.Format("2006-01-02") != "2023-01-01" {
		t.Errorf("Unexpected release date: %v", first.ReleaseDate)
	}
	if first.SpatialReleaseDate == nil || !first.SpatialReleaseDate.Equal(first.ReleaseDate) {
		t.Errorf("Expected spatial date to match release date, got %v", first.SpatialReleaseDate)
	}
	if first.MusicLink != "https://music.apple.com/us/song/1001" {
		t.Errorf("Unexpected music link: %s", first.MusicLink)
	}
	if first.Metadata["artwork_url"] != "https://example.mzstatic.com/300x300.jpg" {
		t.Errorf("Unexpected artwork url: %v", first.Metadata["artwork_url"])
	}

	// Song C qualifies through the audioTraits fallback
	if candidates[1].ExternalID != "1003" {
		t.Errorf("Expected external id 1003, got %s", candidates[1].ExternalID)
	}
}

func TestFetchCandidatesSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("term") != "dolby atmos" {
			t.Errorf("Unexpected search term: %s", r.URL.Query().Get("term"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
  "results": {
    "songs": {
      "data": [
        {
          "id": "2001",
          "attributes": {
            "name": "Song E",
            "artistName": "Artist E",
            "albumName": "Album E",
            "releaseDate": "2024-05-01",
            "audioVariants": ["dolby-atmos"]
          }
        }
      ]
    }
  }
}`))
	})

	source := Source{Kind: SourceSearch, Ref: "dolby atmos", Name: "Atmos search"}
	candidates, err := client.FetchCandidates(context.Background(), source)
	if err != nil {
		t.Fatalf("FetchCandidates failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ExternalID != "2001" {
		t.Errorf("Expected one candidate with id 2001, got %+v", candidates)
	}
}

func TestFetchCandidatesUpstreamError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		source := Source{Kind: SourcePlaylist, Ref: "pl.test", Name: "Test Playlist"}
		if _, err := client.FetchCandidates(context.Background(), source); err == nil {
			t.Errorf("Expected error for HTTP %d", status)
		}
	}
}

func TestFetchCandidatesMissingToken(t *testing.T) {
	client := NewClient(NewStaticTokenProvider(""), ClientOptions{BaseURL: "http://localhost:0"})

	source := Source{Kind: SourcePlaylist, Ref: "pl.test", Name: "Test Playlist"}
	if _, err := client.FetchCandidates(context.Background(), source); err == nil {
		t.Error("Expected error when no developer token is configured")
	}
}

func TestFetchCandidatesUnknownKind(t *testing.T) {
	client := NewClient(NewStaticTokenProvider("test-token"), ClientOptions{BaseURL: "http://localhost:0"})

	if _, err := client.FetchCandidates(context.Background(), Source{Kind: "album", Ref: "x"}); err == nil {
		t.Error("Expected error for unknown source kind")
	}
}

func TestDetectSpatialAudio(t *testing.T) {
	cases := []struct {
		name    string
		attrs   songAttributes
		spatial bool
	}{
		{"atmos variant", songAttributes{AudioVariants: []string{"dolby-atmos"}}, true},
		{"lossless only", songAttributes{AudioVariants: []string{"lossless", "lossy-stereo"}}, false},
		{"traits fallback", songAttributes{AudioTraits: []string{"spatial"}}, true},
		{"no signals", songAttributes{}, false},
	}

	for _, tc := range cases {
		spatial, _ := detectSpatialAudio(tc.attrs)
		if spatial != tc.spatial {
			t.Errorf("%s: detectSpatialAudio = %v, want %v", tc.name, spatial, tc.spatial)
		}
	}
}

func TestParseReleaseDate(t *testing.T) {
	parsed := parseReleaseDate("2023-06-15")
	if parsed.Format("2006-01-02") != "2023-06-15" {
		t.Errorf("Unexpected date: %v", parsed)
	}

	parsed = parseReleaseDate("2023-06-15T10:30:00Z")
	if parsed.Format("2006-01-02") != "2023-06-15" {
		t.Errorf("Unexpected date from RFC3339 input: %v", parsed)
	}

	// Unparsable input falls back to today rather than failing the record
	parsed = parseReleaseDate("not-a-date")
	if parsed.IsZero() {
		t.Error("Expected fallback date, got zero value")
	}
}

func TestAlbumArtEmoji(t *testing.T) {
	if emoji := albumArtEmoji([]string{"Rock"}); emoji != "🎸" {
		t.Errorf("Expected guitar for Rock, got %s", emoji)
	}
	if emoji := albumArtEmoji([]string{"Progressive Rock"}); emoji != "🎸" {
		t.Errorf("Expected partial genre match, got %s", emoji)
	}
	if emoji := albumArtEmoji(nil); emoji != "🎵" {
		t.Errorf("Expected default emoji, got %s", emoji)
	}
}
