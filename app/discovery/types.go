package discovery

import (
	"context"
	"time"

	"github.com/spatialselecta/backend/app/catalog"
)

// CatalogClient abstracts the upstream music catalog for the pipeline.
type CatalogClient interface {
	FetchCandidates(ctx context.Context, source catalog.Source) ([]catalog.Candidate, error)
}

// ScanResult summarizes one discovery run. It is returned to the scheduled
// job log and to the manual-trigger API responses; it is not persisted.
type ScanResult struct {
	ScanID         string        `json:"scan_id"`
	Added          int           `json:"added"`
	Updated        int           `json:"updated"`
	Skipped        int           `json:"skipped"`
	SourcesScanned int           `json:"sources_scanned"`
	SourcesFailed  int           `json:"sources_failed"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
}

// ScanRunner is the scheduler's view of the discovery pipeline.
type ScanRunner interface {
	RunScan(ctx context.Context) (*ScanResult, error)
}
