package database

import (
	"time"
)

type Track struct {
	ID                 int64
	Title              string
	Artist             string
	Album              string
	Format             string // e.g. "Dolby Atmos"
	Platform           string // e.g. "Apple Music"
	ReleaseDate        time.Time
	SpatialReleaseDate *time.Time // never earlier than ReleaseDate
	ExternalID         string     // upstream catalog id, unique
	MusicLink          string
	AlbumArt           string
	ExtraMetadata      string // JSON blob: genres, duration, ISRC, audio variants
	HallOfShame        bool
	AvgImmersiveness   *float64
	DiscoveredAt       time.Time
	UpdatedAt          time.Time
}

type Rating struct {
	ID        int64
	TrackID   int64
	Score     int // 1-10
	IsFake    bool
	UserHash  string
	CreatedAt time.Time
}

type RatingSummary struct {
	Count     int
	Average   float64
	FakeCount int
}

type CatalogStats struct {
	TotalTracks int
	ByPlatform  map[string]int
	ByFormat    map[string]int
	NewTracks   int // released within the last 30 days
}
