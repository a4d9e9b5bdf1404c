package api

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spatialselecta/backend/app/database"
	"github.com/spatialselecta/backend/app/discovery"
)

func NewHandler(trackRepo database.TrackRepository, ratingRepo database.RatingRepository,
	scheduler SchedulerInterface, limiter ClientLimiter) *Handler {
	return &Handler{
		trackRepo:  trackRepo,
		ratingRepo: ratingRepo,
		scheduler:  scheduler,
		limiter:    limiter,
	}
}

func (h *Handler) ListTracks(c *gin.Context) {
	filters := database.TrackFilters{
		Platform: c.Query("platform"),
		Format:   c.Query("format"),
		Limit:    100,
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		filters.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
			return
		}
		filters.Offset = offset
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be a YYYY-MM-DD date"})
			return
		}
		filters.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be a YYYY-MM-DD date"})
			return
		}
		filters.To = &to
	}

	if err := filters.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tracks, err := h.trackRepo.ListTracks(filters)
	if err != nil {
		slog.Error("Database error", "operation", "list_tracks", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tracks": toTrackResponses(tracks),
		"total":  len(tracks),
	})
}

// GetTrack serves both /api/tracks/<id> and /api/tracks/new; gin's route
// tree cannot hold a static segment next to the :id parameter
func (h *Handler) GetTrack(c *gin.Context) {
	raw := c.Param("id")
	if raw == "new" {
		h.listNewTracks(c)
		return
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "track id must be a positive integer"})
		return
	}

	track, err := h.trackRepo.GetTrack(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_track", "track_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if track == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
		return
	}

	c.JSON(http.StatusOK, toTrackResponse(*track))
}

func (h *Handler) listNewTracks(c *gin.Context) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer"})
			return
		}
		days = parsed
	}
	if days < 1 || days > 365 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
		return
	}

	tracks, err := h.trackRepo.ListRecentTracks(days)
	if err != nil {
		slog.Error("Database error", "operation", "list_recent_tracks", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tracks": toTrackResponses(tracks),
		"total":  len(tracks),
		"days":   days,
	})
}

func (h *Handler) RateTrack(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "track id must be a positive integer"})
		return
	}

	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Score < 1 || req.Score > 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "score must be between 1 and 10"})
		return
	}

	track, err := h.trackRepo.GetTrack(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_track", "track_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if track == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
		return
	}

	if err := h.ratingRepo.InsertRating(id, req.Score, req.IsFake, hashClientIP(c.ClientIP())); err != nil {
		slog.Error("Database error", "operation", "insert_rating", "track_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	summary, err := h.ratingRepo.GetRatingSummary(id)
	if err != nil {
		slog.Error("Database error", "operation", "rating_summary", "track_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"track_id":     id,
		"ratings":      summary.Count,
		"average":      summary.Average,
		"fake_reports": summary.FakeCount,
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.trackRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_tracks":            stats.TotalTracks,
		"by_platform":             stats.ByPlatform,
		"by_format":               stats.ByFormat,
		"new_tracks_last_30_days": stats.NewTracks,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"scheduler": h.scheduler.Status().State,
	}

	if count, err := h.trackRepo.GetTrackCount(); err == nil {
		health["tracks"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) AdminRefresh(c *gin.Context) {
	h.runRefresh(c)
}

func (h *Handler) PublicRefresh(c *gin.Context) {
	clientIP := c.ClientIP()

	allowed, retryAfter := h.limiter.Peek(clientIP)
	if !allowed {
		h.rateLimited(c, retryAfter)
		return
	}

	if h.runRefresh(c) {
		// Only a successful trigger consumes the client's token
		h.limiter.Allow(clientIP)
	}
}

func (h *Handler) RefreshStatus(c *gin.Context) {
	available, retryAfter := h.limiter.Peek(c.ClientIP())
	status := h.scheduler.Status()

	resp := gin.H{
		"refresh_available":   available,
		"retry_after_seconds": int(retryAfter.Seconds()),
		"scheduler_state":     status.State,
		"next_scheduled_run":  status.NextRunAt.UTC().Format(time.RFC3339),
	}

	if status.LastResult != nil {
		resp["last_scan"] = status.LastResult
	}
	if status.LastError != "" {
		resp["last_error"] = status.LastError
	}

	c.JSON(http.StatusOK, resp)
}

// runRefresh triggers a scan synchronously and reports whether it ran.
func (h *Handler) runRefresh(c *gin.Context) bool {
	result, err := h.scheduler.TriggerScan()
	if errors.Is(err, discovery.ErrScanInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "A scan is already in progress"})
		return false
	}
	if err != nil {
		slog.Error("Manual refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Refresh failed"})
		return false
	}

	c.JSON(http.StatusOK, RefreshResponse{
		Status: "success",
		Message: fmt.Sprintf("Refresh completed: %d tracks added, %d updated",
			result.Added, result.Updated),
		ScanID:         result.ScanID,
		TracksAdded:    result.Added,
		TracksUpdated:  result.Updated,
		SourcesScanned: result.SourcesScanned,
		SourcesFailed:  result.SourcesFailed,
		Timestamp:      time.Now().UTC(),
	})
	return true
}

func (h *Handler) rateLimited(c *gin.Context, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds()) + 1
	c.Header("Retry-After", strconv.Itoa(seconds))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":               "Rate limit exceeded, try again later",
		"retry_after_seconds": seconds,
	})
}

func hashClientIP(clientIP string) string {
	sum := sha256.Sum256([]byte(clientIP))
	return hex.EncodeToString(sum[:])
}
