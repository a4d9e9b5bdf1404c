package database

type TrackRepository interface {
	GetTrack(id int64) (*Track, error)
	GetTrackByExternalID(externalID string) (*Track, error)
	GetTrackCount() (int, error)

	InsertTrack(track NewTrack) (*Track, error)
	UpdateTrack(id int64, changes TrackChanges) error

	ListTracks(filters TrackFilters) ([]Track, error)
	ListRecentTracks(days int) ([]Track, error)
	GetStats() (*CatalogStats, error)
}

type RatingRepository interface {
	InsertRating(trackID int64, score int, isFake bool, userHash string) error
	GetRatingSummary(trackID int64) (*RatingSummary, error)
}
