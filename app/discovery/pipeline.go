package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spatialselecta/backend/app/catalog"
	"github.com/spatialselecta/backend/app/database"
)

var _ ScanRunner = (*Pipeline)(nil)

// Pipeline turns the curated source list into reconciled track rows, once
// per invocation. A failing source or record degrades to a log line and a
// skip; it never fails the scan.
type Pipeline struct {
	client    CatalogClient
	trackRepo database.TrackRepository
	sources   []catalog.Source
}

func NewPipeline(client CatalogClient, trackRepo database.TrackRepository, sources []catalog.Source) *Pipeline {
	return &Pipeline{
		client:    client,
		trackRepo: trackRepo,
		sources:   sources,
	}
}

func (p *Pipeline) RunScan(ctx context.Context) (*ScanResult, error) {
	result := &ScanResult{
		ScanID:    uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	slog.Info("Scan started", "scan_id", result.ScanID, "sources", len(p.sources))

	for _, source := range p.sources {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		candidates, err := p.client.FetchCandidates(ctx, source)
		if err != nil {
			slog.Warn("Source fetch failed, treating as empty", "scan_id", result.ScanID,
				"source", source.Name, "kind", source.Kind, "error", err)
			result.SourcesFailed++
			continue
		}
		result.SourcesScanned++

		slog.Debug("Source fetched", "scan_id", result.ScanID, "source", source.Name, "candidates", len(candidates))

		for _, candidate := range candidates {
			p.processCandidate(result, candidate)
		}
	}

	result.Duration = time.Since(result.StartedAt)

	slog.Info("Scan completed", "scan_id", result.ScanID,
		"added", result.Added, "updated", result.Updated, "skipped", result.Skipped,
		"sources_scanned", result.SourcesScanned, "sources_failed", result.SourcesFailed,
		"duration", result.Duration)

	return result, nil
}

func (p *Pipeline) processCandidate(result *ScanResult, candidate catalog.Candidate) {
	record, err := newTrackFromCandidate(candidate)
	if err != nil {
		slog.Warn("Skipping invalid candidate", "scan_id", result.ScanID,
			"external_id", candidate.ExternalID, "title", candidate.Title, "error", err)
		result.Skipped++
		return
	}

	existing, err := p.trackRepo.GetTrackByExternalID(record.ExternalID)
	if err != nil {
		slog.Error("Track lookup failed, skipping candidate", "scan_id", result.ScanID,
			"external_id", record.ExternalID, "error", err)
		result.Skipped++
		return
	}

	if existing == nil {
		if _, err := p.trackRepo.InsertTrack(record); err != nil {
			if errors.Is(err, database.ErrDuplicateTrack) {
				// The lookup said the id was unseen; treat as a bug guard,
				// not a scan failure
				slog.Error("Insert hit duplicate external id after lookup miss",
					"scan_id", result.ScanID, "external_id", record.ExternalID)
			} else {
				slog.Error("Track insert failed, skipping candidate", "scan_id", result.ScanID,
					"external_id", record.ExternalID, "error", err)
			}
			result.Skipped++
			return
		}
		result.Added++
		slog.Debug("Track added", "scan_id", result.ScanID,
			"external_id", record.ExternalID, "title", record.Title, "artist", record.Artist)
		return
	}

	changes := diffTrack(existing, record)
	if changes.IsEmpty() {
		result.Skipped++
		return
	}

	if err := p.trackRepo.UpdateTrack(existing.ID, changes); err != nil {
		slog.Error("Track update failed, skipping candidate", "scan_id", result.ScanID,
			"external_id", record.ExternalID, "error", err)
		result.Skipped++
		return
	}
	result.Updated++
	slog.Debug("Track updated", "scan_id", result.ScanID,
		"external_id", record.ExternalID, "title", record.Title)
}

func newTrackFromCandidate(candidate catalog.Candidate) (database.NewTrack, error) {
	metadata := ""
	if len(candidate.Metadata) > 0 {
		encoded, err := json.Marshal(candidate.Metadata)
		if err != nil {
			return database.NewTrack{}, fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = string(encoded)
	}

	record := database.NewTrack{
		Title:              candidate.Title,
		Artist:             candidate.Artist,
		Album:              candidate.Album,
		Format:             candidate.Format,
		Platform:           candidate.Platform,
		ReleaseDate:        candidate.ReleaseDate,
		SpatialReleaseDate: candidate.SpatialReleaseDate,
		ExternalID:         candidate.ExternalID,
		MusicLink:          candidate.MusicLink,
		AlbumArt:           candidate.AlbumArt,
		ExtraMetadata:      metadata,
	}

	if err := database.ValidateNewTrack(record); err != nil {
		return database.NewTrack{}, err
	}

	return record, nil
}

// diffTrack compares an upstream candidate against the stored row and
// returns the fields that changed. Within one scan a repeated external id
// flows through here against the just-written row, so the last occurrence
// wins.
func diffTrack(existing *database.Track, record database.NewTrack) database.TrackChanges {
	var changes database.TrackChanges

	if existing.Title != record.Title {
		changes.Title = &record.Title
	}
	if existing.Artist != record.Artist {
		changes.Artist = &record.Artist
	}
	if existing.Album != record.Album {
		changes.Album = &record.Album
	}
	if existing.Format != record.Format {
		changes.Format = &record.Format
	}
	if existing.Platform != record.Platform {
		changes.Platform = &record.Platform
	}
	if !existing.ReleaseDate.Equal(record.ReleaseDate) {
		changes.ReleaseDate = &record.ReleaseDate
	}
	if record.SpatialReleaseDate != nil &&
		(existing.SpatialReleaseDate == nil || !existing.SpatialReleaseDate.Equal(*record.SpatialReleaseDate)) {
		changes.SpatialReleaseDate = record.SpatialReleaseDate
	}
	if existing.MusicLink != record.MusicLink {
		changes.MusicLink = &record.MusicLink
	}
	if existing.AlbumArt != record.AlbumArt {
		changes.AlbumArt = &record.AlbumArt
	}
	if existing.ExtraMetadata != record.ExtraMetadata {
		changes.ExtraMetadata = &record.ExtraMetadata
	}

	return changes
}
