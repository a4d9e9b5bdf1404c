package database

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrDuplicateTrack = errors.New("track with this external id already exists")

// ValidFormats is the whitelist of spatial audio formats accepted for storage.
var ValidFormats = map[string]bool{
	"Dolby Atmos":       true,
	"Spatial Audio":     true,
	"360 Reality Audio": true,
}

// ValidPlatforms is the whitelist of source platforms accepted for storage.
var ValidPlatforms = map[string]bool{
	"Apple Music":  true,
	"Amazon Music": true,
	"Tidal":        true,
}

const (
	MaxQueryLimit  = 1000
	MaxQueryOffset = 10000
)

// NewTrack carries the fields of a track candidate prior to insertion.
type NewTrack struct {
	Title              string
	Artist             string
	Album              string
	Format             string
	Platform           string
	ReleaseDate        time.Time
	SpatialReleaseDate *time.Time
	ExternalID         string
	MusicLink          string
	AlbumArt           string
	ExtraMetadata      string
}

// TrackChanges is a partial update; nil fields are left untouched.
type TrackChanges struct {
	Title              *string
	Artist             *string
	Album              *string
	Format             *string
	Platform           *string
	ReleaseDate        *time.Time
	SpatialReleaseDate *time.Time
	MusicLink          *string
	AlbumArt           *string
	ExtraMetadata      *string
}

// IsEmpty reports whether the change set carries no field updates.
func (c TrackChanges) IsEmpty() bool {
	return c.Title == nil && c.Artist == nil && c.Album == nil &&
		c.Format == nil && c.Platform == nil &&
		c.ReleaseDate == nil && c.SpatialReleaseDate == nil &&
		c.MusicLink == nil && c.AlbumArt == nil && c.ExtraMetadata == nil
}

type TrackFilters struct {
	Platform string
	Format   string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// Validate enforces the filter allow-list and pagination bounds. Unknown
// filter values are rejected rather than silently ignored.
func (f TrackFilters) Validate() error {
	if f.Platform != "" && !ValidPlatforms[f.Platform] {
		return fmt.Errorf("unknown platform: %s", f.Platform)
	}
	if f.Format != "" && !ValidFormats[f.Format] {
		return fmt.Errorf("unknown format: %s", f.Format)
	}
	if f.Limit < 1 || f.Limit > MaxQueryLimit {
		return fmt.Errorf("limit must be between 1 and %d, got %d", MaxQueryLimit, f.Limit)
	}
	if f.Offset < 0 || f.Offset > MaxQueryOffset {
		return fmt.Errorf("offset must be between 0 and %d, got %d", MaxQueryOffset, f.Offset)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return fmt.Errorf("date range end precedes start")
	}
	return nil
}

// ValidateNewTrack enforces the storage invariants on a candidate record.
// Records violating them are rejected, not stored.
func ValidateNewTrack(t NewTrack) error {
	if t.ExternalID == "" {
		return fmt.Errorf("external id is required")
	}
	if t.Title == "" || t.Artist == "" || t.Album == "" {
		return fmt.Errorf("title, artist and album are required")
	}
	if !ValidFormats[t.Format] {
		return fmt.Errorf("unknown format: %s", t.Format)
	}
	if !ValidPlatforms[t.Platform] {
		return fmt.Errorf("unknown platform: %s", t.Platform)
	}
	if t.ReleaseDate.IsZero() {
		return fmt.Errorf("release date is required")
	}
	if t.SpatialReleaseDate != nil && t.SpatialReleaseDate.Before(t.ReleaseDate) {
		return fmt.Errorf("spatial release date precedes original release date")
	}
	if t.MusicLink != "" && !strings.HasPrefix(t.MusicLink, "https://") {
		return fmt.Errorf("music link must be an HTTPS URL")
	}
	return nil
}
