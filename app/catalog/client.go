package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.music.apple.com/v1"

// pageSize is the Apple Music API maximum for tracks per playlist page.
const pageSize = 100

// maxTracksPerSource bounds how deep one scan walks a single source.
const maxTracksPerSource = 300

type ClientOptions struct {
	BaseURL        string
	Storefront     string
	MusicUserToken string
	UserAgent      string
	Timeout        time.Duration
	RetryCount     int
	RetryWait      time.Duration
}

// Client talks to the Apple Music catalog API and normalizes its responses
// into spatial audio track candidates.
type Client struct {
	http       *resty.Client
	tokens     TokenProvider
	storefront string
	userToken  string
}

func NewClient(tokens TokenProvider, opts ClientOptions) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	storefront := opts.Storefront
	if storefront == "" {
		storefront = "us"
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait)

	if opts.UserAgent != "" {
		http.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Client{
		http:       http,
		tokens:     tokens,
		storefront: storefront,
		userToken:  opts.MusicUserToken,
	}
}

// FetchCandidates retrieves all spatial audio candidates from one curated
// source. Non-qualifying tracks are filtered out here so the discovery
// pipeline never sees them.
func (c *Client) FetchCandidates(ctx context.Context, source Source) ([]Candidate, error) {
	var songs []songPayload
	var err error

	switch source.Kind {
	case SourcePlaylist, SourceChart:
		songs, err = c.fetchPlaylistTracks(ctx, source.Ref)
	case SourceSearch:
		songs, err = c.fetchSearchTracks(ctx, source.Ref)
	default:
		return nil, fmt.Errorf("unknown source kind: %s", source.Kind)
	}

	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(songs))
	for _, song := range songs {
		hasSpatial, hasAtmos := detectSpatialAudio(song.Attributes)
		if !hasSpatial {
			continue
		}

		candidate, err := normalizeSong(song, hasAtmos)
		if err != nil {
			slog.Warn("Skipping malformed catalog record", "source", source.Name, "error", err)
			continue
		}

		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func (c *Client) fetchPlaylistTracks(ctx context.Context, playlistID string) ([]songPayload, error) {
	var songs []songPayload
	offset := 0

	for {
		req, err := c.newRequest(ctx)
		if err != nil {
			return nil, err
		}

		var out playlistResponse
		resp, err := req.
			SetResult(&out).
			SetQueryParams(map[string]string{
				"include":       "tracks",
				"extend":        "audioVariants",
				"limit[tracks]": strconv.Itoa(pageSize),
			}).
			SetQueryParam("offset[tracks]", strconv.Itoa(offset)).
			Get(fmt.Sprintf("/catalog/%s/playlists/%s", c.storefront, playlistID))
		if err != nil {
			return nil, fmt.Errorf("playlist request failed: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("playlist request failed: HTTP %d", resp.StatusCode())
		}
		if len(out.Data) == 0 {
			return nil, fmt.Errorf("playlist response carries no data")
		}

		page := out.Data[0].Relationships.Tracks
		songs = append(songs, page.Data...)

		if page.Next == "" || len(page.Data) == 0 || len(songs) >= maxTracksPerSource {
			break
		}
		offset += len(page.Data)
	}

	return songs, nil
}

func (c *Client) fetchSearchTracks(ctx context.Context, term string) ([]songPayload, error) {
	req, err := c.newRequest(ctx)
	if err != nil {
		return nil, err
	}

	var out searchResponse
	resp, err := req.
		SetResult(&out).
		SetQueryParams(map[string]string{
			"types":  "songs",
			"term":   term,
			"extend": "audioVariants",
			"limit":  "25",
		}).
		Get(fmt.Sprintf("/catalog/%s/search", c.storefront))
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search request failed: HTTP %d", resp.StatusCode())
	}

	return out.Results.Songs.Data, nil
}

func (c *Client) newRequest(ctx context.Context) (*resty.Request, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}

	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token)

	if c.userToken != "" {
		req.SetHeader("Music-User-Token", c.userToken)
	}

	return req, nil
}

// detectSpatialAudio checks the audioVariants attribute (the reliable signal
// since WWDC 2022) with a fallback to the older audioTraits attribute.
func detectSpatialAudio(attrs songAttributes) (hasSpatial, hasAtmos bool) {
	for _, variant := range attrs.AudioVariants {
		v := strings.ToLower(variant)
		if strings.Contains(v, "atmos") || strings.Contains(v, "dolby") {
			return true, true
		}
	}

	for _, trait := range attrs.AudioTraits {
		t := strings.ToLower(trait)
		if strings.Contains(t, "spatial") || strings.Contains(t, "atmos") {
			return true, true
		}
	}

	return false, false
}

func normalizeSong(song songPayload, hasAtmos bool) (Candidate, error) {
	attrs := song.Attributes

	if song.ID == "" {
		return Candidate{}, fmt.Errorf("missing track id")
	}
	if attrs.Name == "" || attrs.ArtistName == "" || attrs.AlbumName == "" {
		return Candidate{}, fmt.Errorf("missing title, artist or album for track %s", song.ID)
	}

	releaseDate := parseReleaseDate(attrs.ReleaseDate)

	format := "Spatial Audio"
	var spatialDate *time.Time
	if hasAtmos {
		format = "Dolby Atmos"
		// The API reports no separate Atmos date; assume the mix shipped
		// with the release until upstream says otherwise
		spatialDate = &releaseDate
	}

	var artworkURL string
	if attrs.Artwork.URL != "" {
		artworkURL = strings.NewReplacer("{w}", "300", "{h}", "300").Replace(attrs.Artwork.URL)
	}

	return Candidate{
		ExternalID:         song.ID,
		Title:              attrs.Name,
		Artist:             attrs.ArtistName,
		Album:              attrs.AlbumName,
		Format:             format,
		Platform:           "Apple Music",
		ReleaseDate:        releaseDate,
		SpatialReleaseDate: spatialDate,
		MusicLink:          attrs.URL,
		AlbumArt:           albumArtEmoji(attrs.GenreNames),
		Metadata: map[string]any{
			"genre":          attrs.GenreNames,
			"duration_ms":    attrs.DurationInMillis,
			"isrc":           attrs.ISRC,
			"audio_variants": attrs.AudioVariants,
			"artwork_url":    artworkURL,
			"composer":       attrs.ComposerName,
			"track_number":   attrs.TrackNumber,
			"disc_number":    attrs.DiscNumber,
		},
	}, nil
}

func parseReleaseDate(value string) time.Time {
	if value == "" {
		return time.Now().UTC().Truncate(24 * time.Hour)
	}

	if len(value) == 10 {
		if parsed, err := time.Parse("2006-01-02", value); err == nil {
			return parsed
		}
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC().Truncate(24 * time.Hour)
	}

	return time.Now().UTC().Truncate(24 * time.Hour)
}

var genreEmojis = map[string]string{
	"Pop":         "🎵",
	"Rock":        "🎸",
	"Hip-Hop":     "🎤",
	"Rap":         "🎤",
	"Jazz":        "🎷",
	"Classical":   "🎻",
	"Electronic":  "🎹",
	"Dance":       "💃",
	"Country":     "🤠",
	"R&B":         "💿",
	"Soul":        "💿",
	"Metal":       "🤘",
	"Alternative": "🎧",
	"Indie":       "🎧",
	"Latin":       "💃",
	"Reggae":      "🌴",
	"Blues":       "🎺",
	"Folk":        "🪕",
	"Soundtrack":  "🎬",
	"K-Pop":       "⭐",
	"J-Pop":       "🌸",
	"Ambient":     "🌌",
}

func albumArtEmoji(genres []string) string {
	for _, genre := range genres {
		if emoji, ok := genreEmojis[genre]; ok {
			return emoji
		}
		for key, emoji := range genreEmojis {
			if strings.Contains(strings.ToLower(genre), strings.ToLower(key)) {
				return emoji
			}
		}
	}
	return "🎵"
}
