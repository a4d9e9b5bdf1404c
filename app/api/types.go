package api

import (
	"encoding/json"
	"time"

	"github.com/spatialselecta/backend/app/database"
	"github.com/spatialselecta/backend/app/discovery"
)

// SchedulerInterface is the handler's view of the discovery scheduler.
type SchedulerInterface interface {
	TriggerScan() (*discovery.ScanResult, error)
	Status() discovery.SchedulerStatus
}

var _ SchedulerInterface = (*discovery.Scheduler)(nil)

type Handler struct {
	trackRepo  database.TrackRepository
	ratingRepo database.RatingRepository
	scheduler  SchedulerInterface
	limiter    ClientLimiter
}

type TrackResponse struct {
	ID                 int64           `json:"id"`
	Title              string          `json:"title"`
	Artist             string          `json:"artist"`
	Album              string          `json:"album"`
	Format             string          `json:"format"`
	Platform           string          `json:"platform"`
	ReleaseDate        string          `json:"release_date"`
	SpatialReleaseDate *string         `json:"spatial_release_date,omitempty"`
	ExternalID         string          `json:"external_id"`
	MusicLink          string          `json:"music_link,omitempty"`
	AlbumArt           string          `json:"album_art,omitempty"`
	ExtraMetadata      json.RawMessage `json:"extra_metadata,omitempty"`
	HallOfShame        bool            `json:"hall_of_shame"`
	AvgImmersiveness   *float64        `json:"avg_immersiveness,omitempty"`
	DiscoveredAt       time.Time       `json:"discovered_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func toTrackResponse(track database.Track) TrackResponse {
	resp := TrackResponse{
		ID:               track.ID,
		Title:            track.Title,
		Artist:           track.Artist,
		Album:            track.Album,
		Format:           track.Format,
		Platform:         track.Platform,
		ReleaseDate:      track.ReleaseDate.Format("2006-01-02"),
		ExternalID:       track.ExternalID,
		MusicLink:        track.MusicLink,
		AlbumArt:         track.AlbumArt,
		HallOfShame:      track.HallOfShame,
		AvgImmersiveness: track.AvgImmersiveness,
		DiscoveredAt:     track.DiscoveredAt,
		UpdatedAt:        track.UpdatedAt,
	}

	if track.SpatialReleaseDate != nil {
		formatted := track.SpatialReleaseDate.Format("2006-01-02")
		resp.SpatialReleaseDate = &formatted
	}
	if track.ExtraMetadata != "" && json.Valid([]byte(track.ExtraMetadata)) {
		resp.ExtraMetadata = json.RawMessage(track.ExtraMetadata)
	}

	return resp
}

func toTrackResponses(tracks []database.Track) []TrackResponse {
	responses := make([]TrackResponse, 0, len(tracks))
	for _, track := range tracks {
		responses = append(responses, toTrackResponse(track))
	}
	return responses
}

type RefreshResponse struct {
	Status         string    `json:"status"`
	Message        string    `json:"message"`
	ScanID         string    `json:"scan_id"`
	TracksAdded    int       `json:"tracks_added"`
	TracksUpdated  int       `json:"tracks_updated"`
	SourcesScanned int       `json:"sources_scanned"`
	SourcesFailed  int       `json:"sources_failed"`
	Timestamp      time.Time `json:"timestamp"`
}

type RateRequest struct {
	Score  int  `json:"score"`
	IsFake bool `json:"is_fake"`
}
