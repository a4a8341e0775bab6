package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ReportCache caches assembled reports in Redis keyed by contract and
// version pair. Snapshots are immutable, so a cached report only goes
// stale when the pair is re-detected or the contract's detection history
// is purged.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a ReportCache with the given TTL.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

func detectionKey(contractID uuid.UUID, oldVersion, newVersion string) string {
	return fmt.Sprintf("detection:report:%s:%s:%s", contractID, oldVersion, newVersion)
}

func impactKey(contractID uuid.UUID, oldVersion, newVersion string) string {
	return fmt.Sprintf("impact:report:%s:%s:%s", contractID, oldVersion, newVersion)
}

// GetDetectionReport retrieves a cached change-detection report. A cache
// miss returns (nil, nil).
func (c *ReportCache) GetDetectionReport(ctx context.Context, contractID uuid.UUID, oldVersion, newVersion string) (*ChangeDetectionReport, error) {
	key := detectionKey(contractID, oldVersion, newVersion)

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var report ChangeDetectionReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		// Corrupt entry, drop it rather than serving garbage.
		c.client.Del(ctx, key)
		return nil, fmt.Errorf("failed to unmarshal detection report: %w", err)
	}
	return &report, nil
}

// SetDetectionReport caches a change-detection report.
func (c *ReportCache) SetDetectionReport(ctx context.Context, report *ChangeDetectionReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal detection report: %w", err)
	}
	key := detectionKey(report.ContractID, report.OldVersion, report.NewVersion)
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// GetImpactReport retrieves a cached impact-analysis report. A cache miss
// returns (nil, nil).
func (c *ReportCache) GetImpactReport(ctx context.Context, contractID uuid.UUID, oldVersion, newVersion string) (*ImpactAnalysisReport, error) {
	key := impactKey(contractID, oldVersion, newVersion)

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var report ImpactAnalysisReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		c.client.Del(ctx, key)
		return nil, fmt.Errorf("failed to unmarshal impact report: %w", err)
	}
	return &report, nil
}

// SetImpactReport caches an impact-analysis report.
func (c *ReportCache) SetImpactReport(ctx context.Context, report *ImpactAnalysisReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal impact report: %w", err)
	}
	key := impactKey(report.ContractID, report.OldVersion, report.NewVersion)
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// InvalidateImpactReport removes the cached impact report for one version
// pair. Deleting a missing key is not an error.
func (c *ReportCache) InvalidateImpactReport(ctx context.Context, contractID uuid.UUID, oldVersion, newVersion string) error {
	return c.client.Del(ctx, impactKey(contractID, oldVersion, newVersion)).Err()
}

// InvalidateContract removes all cached reports for a contract.
func (c *ReportCache) InvalidateContract(ctx context.Context, contractID uuid.UUID) error {
	patterns := []string{
		fmt.Sprintf("detection:report:%s:*", contractID),
		fmt.Sprintf("impact:report:%s:*", contractID),
	}
	for _, pattern := range patterns {
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan failed for pattern %s: %w", pattern, err)
		}
	}
	return nil
}
