package database

import (
	"testing"
)

func TestInsertRatingAndSummary(t *testing.T) {
	db := newTestDB(t)
	trackRepo := NewTrackRepository(db)
	ratingRepo := NewRatingRepository(db)

	track, err := trackRepo.InsertTrack(testTrack("rated-1"))
	if err != nil {
		t.Fatalf("InsertTrack failed: %v", err)
	}

	if err := ratingRepo.InsertRating(track.ID, 8, false, "user-a"); err != nil {
		t.Fatalf("InsertRating failed: %v", err)
	}
	if err := ratingRepo.InsertRating(track.ID, 6, false, "user-b"); err != nil {
		t.Fatalf("InsertRating failed: %v", err)
	}

	summary, err := ratingRepo.GetRatingSummary(track.ID)
	if err != nil {
		t.Fatalf("GetRatingSummary failed: %v", err)
	}
	if summary.Count != 2 {
		t.Errorf("Expected 2 ratings, got %d", summary.Count)
	}
	if summary.Average != 7 {
		t.Errorf("Expected average 7, got %f", summary.Average)
	}
	if summary.FakeCount != 0 {
		t.Errorf("Expected no fake reports, got %d", summary.FakeCount)
	}

	updated, err := trackRepo.GetTrack(track.ID)
	if err != nil {
		t.Fatalf("GetTrack failed: %v", err)
	}
	if updated.AvgImmersiveness == nil || *updated.AvgImmersiveness != 7 {
		t.Errorf("Expected cached average 7, got %v", updated.AvgImmersiveness)
	}
}

func TestInsertRatingValidation(t *testing.T) {
	db := newTestDB(t)
	trackRepo := NewTrackRepository(db)
	ratingRepo := NewRatingRepository(db)

	track, err := trackRepo.InsertTrack(testTrack("rated-2"))
	if err != nil {
		t.Fatalf("InsertTrack failed: %v", err)
	}

	if err := ratingRepo.InsertRating(track.ID, 0, false, "user-a"); err == nil {
		t.Error("Expected error for score below 1")
	}
	if err := ratingRepo.InsertRating(track.ID, 11, false, "user-a"); err == nil {
		t.Error("Expected error for score above 10")
	}
	if err := ratingRepo.InsertRating(track.ID, 5, false, ""); err == nil {
		t.Error("Expected error for missing user hash")
	}
}

func TestHallOfShameThreshold(t *testing.T) {
	db := newTestDB(t)
	trackRepo := NewTrackRepository(db)
	ratingRepo := NewRatingRepository(db)

	track, err := trackRepo.InsertTrack(testTrack("shamed-1"))
	if err != nil {
		t.Fatalf("InsertTrack failed: %v", err)
	}

	users := []string{"user-a", "user-b", "user-c"}
	for i, user := range users {
		if err := ratingRepo.InsertRating(track.ID, 1, true, user); err != nil {
			t.Fatalf("InsertRating failed: %v", err)
		}

		updated, err := trackRepo.GetTrack(track.ID)
		if err != nil {
			t.Fatalf("GetTrack failed: %v", err)
		}

		wantShamed := i == len(users)-1
		if updated.HallOfShame != wantShamed {
			t.Errorf("After %d fake reports: hall_of_shame = %v, want %v", i+1, updated.HallOfShame, wantShamed)
		}
	}
}
