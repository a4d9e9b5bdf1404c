package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type trackRepository struct {
	db *DB
}

func NewTrackRepository(db *DB) TrackRepository {
	return &trackRepository{db: db}
}

const trackColumns = `id, title, artist, album, format, platform,
	release_date, spatial_release_date, external_id, music_link, album_art,
	extra_metadata, hall_of_shame, avg_immersiveness, discovered_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTrack reads one row. The driver converts DATE and TIMESTAMP columns
// into time.Time, so date columns scan directly; dateLayout matters only on
// the write side.
func scanTrack(row rowScanner) (*Track, error) {
	var t Track
	var spatialDate sql.NullTime
	var hallOfShame int
	var avg sql.NullFloat64

	err := row.Scan(
		&t.ID, &t.Title, &t.Artist, &t.Album, &t.Format, &t.Platform,
		&t.ReleaseDate, &spatialDate, &t.ExternalID, &t.MusicLink, &t.AlbumArt,
		&t.ExtraMetadata, &hallOfShame, &avg, &t.DiscoveredAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if spatialDate.Valid {
		parsed := spatialDate.Time
		t.SpatialReleaseDate = &parsed
	}
	t.HallOfShame = hallOfShame != 0
	if avg.Valid {
		t.AvgImmersiveness = &avg.Float64
	}

	return &t, nil
}

func (r *trackRepository) GetTrack(id int64) (*Track, error) {
	row := r.db.QueryRow(`SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)

	track, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}

	return track, nil
}

func (r *trackRepository) GetTrackByExternalID(externalID string) (*Track, error) {
	row := r.db.QueryRow(`SELECT `+trackColumns+` FROM tracks WHERE external_id = ?`, externalID)

	track, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track by external id: %w", err)
	}

	return track, nil
}

func (r *trackRepository) GetTrackCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get track count: %w", err)
	}
	return count, nil
}

func (r *trackRepository) InsertTrack(track NewTrack) (*Track, error) {
	if err := ValidateNewTrack(track); err != nil {
		return nil, fmt.Errorf("invalid track: %w", err)
	}

	var spatialDate any
	if track.SpatialReleaseDate != nil {
		spatialDate = track.SpatialReleaseDate.Format(dateLayout)
	}

	now := time.Now().UTC()
	result, err := r.db.Exec(`
		INSERT INTO tracks (title, artist, album, format, platform,
			release_date, spatial_release_date, external_id, music_link,
			album_art, extra_metadata, discovered_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		track.Title, track.Artist, track.Album, track.Format, track.Platform,
		track.ReleaseDate.Format(dateLayout), spatialDate, track.ExternalID,
		track.MusicLink, track.AlbumArt, track.ExtraMetadata, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicateTrack
		}
		return nil, fmt.Errorf("failed to insert track: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted track id: %w", err)
	}

	return r.GetTrack(id)
}

func (r *trackRepository) UpdateTrack(id int64, changes TrackChanges) error {
	setClauses := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if changes.Title != nil {
		setClauses = append(setClauses, "title = ?")
		args = append(args, *changes.Title)
	}
	if changes.Artist != nil {
		setClauses = append(setClauses, "artist = ?")
		args = append(args, *changes.Artist)
	}
	if changes.Album != nil {
		setClauses = append(setClauses, "album = ?")
		args = append(args, *changes.Album)
	}
	if changes.Format != nil {
		if !ValidFormats[*changes.Format] {
			return fmt.Errorf("unknown format: %s", *changes.Format)
		}
		setClauses = append(setClauses, "format = ?")
		args = append(args, *changes.Format)
	}
	if changes.Platform != nil {
		if !ValidPlatforms[*changes.Platform] {
			return fmt.Errorf("unknown platform: %s", *changes.Platform)
		}
		setClauses = append(setClauses, "platform = ?")
		args = append(args, *changes.Platform)
	}
	if changes.ReleaseDate != nil {
		setClauses = append(setClauses, "release_date = ?")
		args = append(args, changes.ReleaseDate.Format(dateLayout))
	}
	if changes.SpatialReleaseDate != nil {
		setClauses = append(setClauses, "spatial_release_date = ?")
		args = append(args, changes.SpatialReleaseDate.Format(dateLayout))
	}
	if changes.MusicLink != nil {
		if *changes.MusicLink != "" && !strings.HasPrefix(*changes.MusicLink, "https://") {
			return fmt.Errorf("music link must be an HTTPS URL")
		}
		setClauses = append(setClauses, "music_link = ?")
		args = append(args, *changes.MusicLink)
	}
	if changes.AlbumArt != nil {
		setClauses = append(setClauses, "album_art = ?")
		args = append(args, *changes.AlbumArt)
	}
	if changes.ExtraMetadata != nil {
		setClauses = append(setClauses, "extra_metadata = ?")
		args = append(args, *changes.ExtraMetadata)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tracks SET %s WHERE id = ?", strings.Join(setClauses, ", "))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("track %d not found", id)
	}

	return nil
}

func (r *trackRepository) ListTracks(filters TrackFilters) ([]Track, error) {
	if err := filters.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filters: %w", err)
	}

	whereClauses := []string{}
	args := []any{}

	if filters.Platform != "" {
		whereClauses = append(whereClauses, "platform = ?")
		args = append(args, filters.Platform)
	}
	if filters.Format != "" {
		whereClauses = append(whereClauses, "format = ?")
		args = append(args, filters.Format)
	}
	if filters.From != nil {
		whereClauses = append(whereClauses, "release_date >= ?")
		args = append(args, filters.From.Format(dateLayout))
	}
	if filters.To != nil {
		whereClauses = append(whereClauses, "release_date <= ?")
		args = append(args, filters.To.Format(dateLayout))
	}

	query := `SELECT ` + trackColumns + ` FROM tracks`
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += " ORDER BY release_date DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filters.Limit, filters.Offset)

	return r.queryTracks(query, args...)
}

func (r *trackRepository) ListRecentTracks(days int) ([]Track, error) {
	if days < 1 || days > 365 {
		return nil, fmt.Errorf("days must be between 1 and 365, got %d", days)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(dateLayout)

	return r.queryTracks(`
		SELECT `+trackColumns+` FROM tracks
		WHERE release_date >= ?
		ORDER BY release_date DESC, id DESC`, cutoff)
}

func (r *trackRepository) GetStats() (*CatalogStats, error) {
	stats := &CatalogStats{
		ByPlatform: make(map[string]int),
		ByFormat:   make(map[string]int),
	}

	err := r.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&stats.TotalTracks)
	if err != nil {
		return nil, fmt.Errorf("failed to get total track count: %w", err)
	}

	if err := r.countGrouped("platform", stats.ByPlatform); err != nil {
		return nil, err
	}
	if err := r.countGrouped("format", stats.ByFormat); err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -30).Format(dateLayout)
	err = r.db.QueryRow(`SELECT COUNT(*) FROM tracks WHERE release_date >= ?`, cutoff).Scan(&stats.NewTracks)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent track count: %w", err)
	}

	return stats, nil
}

func (r *trackRepository) countGrouped(column string, dest map[string]int) error {
	rows, err := r.db.Query(fmt.Sprintf(`SELECT %s, COUNT(*) FROM tracks GROUP BY %s`, column, column))
	if err != nil {
		return fmt.Errorf("failed to count tracks by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		dest[key] = count
	}

	return rows.Err()
}

func (r *trackRepository) queryTracks(query string, args ...any) ([]Track, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		tracks = append(tracks, *track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating track rows: %w", err)
	}

	return tracks, nil
}
