package database

import (
	"database/sql"
	"fmt"
	"time"
)

// A track lands in the hall of shame once this many fake-Atmos reports
// accumulate against it.
const hallOfShameThreshold = 3

type ratingRepository struct {
	db *DB
}

func NewRatingRepository(db *DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) InsertRating(trackID int64, score int, isFake bool, userHash string) error {
	if score < 1 || score > 10 {
		return fmt.Errorf("score must be between 1 and 10, got %d", score)
	}
	if userHash == "" {
		return fmt.Errorf("user hash is required")
	}

	fake := 0
	if isFake {
		fake = 1
	}

	_, err := r.db.Exec(`
		INSERT INTO ratings (track_id, score, is_fake, user_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		trackID, score, fake, userHash, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert rating: %w", err)
	}

	return r.refreshTrackAggregate(trackID)
}

func (r *ratingRepository) GetRatingSummary(trackID int64) (*RatingSummary, error) {
	var summary RatingSummary
	var avg sql.NullFloat64

	err := r.db.QueryRow(`
		SELECT COUNT(*), AVG(score), COALESCE(SUM(is_fake), 0)
		FROM ratings WHERE track_id = ?`, trackID).
		Scan(&summary.Count, &avg, &summary.FakeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating summary: %w", err)
	}

	if avg.Valid {
		summary.Average = avg.Float64
	}

	return &summary, nil
}

func (r *ratingRepository) refreshTrackAggregate(trackID int64) error {
	summary, err := r.GetRatingSummary(trackID)
	if err != nil {
		return err
	}

	hallOfShame := 0
	if summary.FakeCount >= hallOfShameThreshold {
		hallOfShame = 1
	}

	_, err = r.db.Exec(`
		UPDATE tracks
		SET avg_immersiveness = ?, hall_of_shame = ?, updated_at = ?
		WHERE id = ?`,
		summary.Average, hallOfShame, time.Now().UTC(), trackID,
	)
	if err != nil {
		return fmt.Errorf("failed to refresh track rating aggregate: %w", err)
	}

	return nil
}
