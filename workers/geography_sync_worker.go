// workers/geography_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"tournament-registry-system/models"
	"tournament-registry-system/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// geographyChangesResponse is the shape of the national registry service's
// administrative-unit feed.
type geographyChangesResponse struct {
	Counties    []models.County    `json:"counties"`
	SubCounties []models.SubCounty `json:"sub_counties"`
	Wards       []models.Ward      `json:"wards"`
}

// GeographySyncWorker mirrors county/sub-county/ward reference rows from the
// national registry service. Player records denormalize against these tables,
// so the mirror only ever grows or updates, it never deletes.
type GeographySyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewGeographySyncWorker(db *gorm.DB, registryBaseURL, endpointPath, serviceToken string) *GeographySyncWorker {
	return &GeographySyncWorker{
		db:           db,
		interval:     15 * time.Minute,
		baseURL:      registryBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *GeographySyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Geography Sync Worker (registry-service → counties/sub_counties/wards)…")
	go w.run(ctx)
}

func (w *GeographySyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time.
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial geography sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("❌ Geography sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Geography Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt across the mirrored tables.
func (w *GeographySyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw(`SELECT GREATEST(
		COALESCE((SELECT MAX(updated_at) FROM counties), 'epoch'::timestamptz),
		COALESCE((SELECT MAX(updated_at) FROM sub_counties), 'epoch'::timestamptz),
		COALESCE((SELECT MAX(updated_at) FROM wards), 'epoch'::timestamptz)
	)`).Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches administrative-unit changes since the cursor and upserts
// them into the local mirror tables.
func (w *GeographySyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)
	log.Printf("[GEO_SYNC] 📡 Fetching geography changes since=%s", sinceStr)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid registry service URL '%s': %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(w.endpointPath)
	q := endpoint.Query()
	q.Set("since", sinceStr)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build sync request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("registry service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("registry service returned %d: %s", resp.StatusCode, string(body))
	}

	var changes geographyChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&changes); err != nil {
		return fmt.Errorf("failed to decode geography response: %w", err)
	}

	total := len(changes.Counties) + len(changes.SubCounties) + len(changes.Wards)
	if total == 0 {
		return nil
	}

	// Parents before children so ward lineage resolution never sees a ward
	// whose sub-county has not landed yet.
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}
	if len(changes.Counties) > 0 {
		if err := w.db.Clauses(upsert).Create(&changes.Counties).Error; err != nil {
			return fmt.Errorf("failed to upsert counties: %w", err)
		}
	}
	if len(changes.SubCounties) > 0 {
		if err := w.db.Clauses(upsert).Create(&changes.SubCounties).Error; err != nil {
			return fmt.Errorf("failed to upsert sub-counties: %w", err)
		}
	}
	if len(changes.Wards) > 0 {
		if err := w.db.Clauses(upsert).Create(&changes.Wards).Error; err != nil {
			return fmt.Errorf("failed to upsert wards: %w", err)
		}
	}

	log.Printf("[GEO_SYNC] ✅ Upserted %d counties, %d sub-counties, %d wards",
		len(changes.Counties), len(changes.SubCounties), len(changes.Wards))
	return nil
}
