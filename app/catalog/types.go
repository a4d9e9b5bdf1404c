package catalog

import (
	"time"
)

type SourceKind string

const (
	SourcePlaylist SourceKind = "playlist"
	SourceChart    SourceKind = "chart"
	SourceSearch   SourceKind = "search"
)

// Source is a curated upstream collection the client polls for candidates:
// an Apple Music playlist, a chart playlist, or a search term.
type Source struct {
	Kind SourceKind `yaml:"kind"`
	Ref  string     `yaml:"ref"`
	Name string     `yaml:"name"`
}

// Candidate is a normalized track record as extracted from the upstream
// catalog, prior to validation and storage.
type Candidate struct {
	ExternalID         string
	Title              string
	Artist             string
	Album              string
	Format             string
	Platform           string
	ReleaseDate        time.Time
	SpatialReleaseDate *time.Time
	MusicLink          string
	AlbumArt           string
	Metadata           map[string]any
}

// Wire types for the subset of the Apple Music API responses we consume.

type artworkPayload struct {
	URL string `json:"url"`
}

type songAttributes struct {
	Name             string         `json:"name"`
	ArtistName       string         `json:"artistName"`
	AlbumName        string         `json:"albumName"`
	URL              string         `json:"url"`
	ReleaseDate      string         `json:"releaseDate"`
	GenreNames       []string       `json:"genreNames"`
	DurationInMillis int64          `json:"durationInMillis"`
	ISRC             string         `json:"isrc"`
	ComposerName     string         `json:"composerName"`
	TrackNumber      int            `json:"trackNumber"`
	DiscNumber       int            `json:"discNumber"`
	Artwork          artworkPayload `json:"artwork"`
	AudioVariants    []string       `json:"audioVariants"`
	AudioTraits      []string       `json:"audioTraits"`
}

type songPayload struct {
	ID         string         `json:"id"`
	Attributes songAttributes `json:"attributes"`
}

type trackListPayload struct {
	Data []songPayload `json:"data"`
	Next string        `json:"next"`
}

type playlistRelationships struct {
	Tracks trackListPayload `json:"tracks"`
}

type playlistPayload struct {
	Relationships playlistRelationships `json:"relationships"`
}

type playlistResponse struct {
	Data []playlistPayload `json:"data"`
}

type searchResults struct {
	Songs trackListPayload `json:"songs"`
}

type searchResponse struct {
	Results searchResults `json:"results"`
}
