package services

import (
	"context"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// AnalyticsService memoizes aggregator snapshots per user and day. Writes
// invalidate through the SnapshotInvalidator interface.
type AnalyticsService struct {
	aggregator *analytics.Aggregator
	snapshots  *cache.LRUCache[core.AnalyticsData]
	logger     *log.Logger
}

func NewAnalyticsService(aggregator *analytics.Aggregator, snapshots *cache.LRUCache[core.AnalyticsData], logger *log.Logger) *AnalyticsService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AnalyticsService{
		aggregator: aggregator,
		snapshots:  snapshots,
		logger:     logger.WithComponent(log.ComponentAnalytics),
	}
}

func snapshotKey(userID string, now time.Time) string {
	return userID + "|" + now.UTC().Format("2006-01-02")
}

// Snapshot returns the user's analytics for the day containing now,
// computing and caching on miss.
func (s *AnalyticsService) Snapshot(ctx context.Context, userID string, now time.Time) (core.AnalyticsData, error) {
	key := snapshotKey(userID, now)
	if s.snapshots != nil {
		if data, ok := s.snapshots.Get(key); ok {
			return data, nil
		}
	}

	data, err := s.aggregator.Snapshot(ctx, userID, now)
	if err != nil {
		return core.AnalyticsData{}, err
	}
	if s.snapshots != nil {
		s.snapshots.Set(key, data)
	}

	s.logger.DebugContext(ctx, "Analytics snapshot computed",
		log.FieldUserID, userID,
		log.FieldOperation, log.OpSnapshot)
	return data, nil
}

// Invalidate drops every cached snapshot belonging to userID.
func (s *AnalyticsService) Invalidate(userID string) {
	if s.snapshots != nil {
		s.snapshots.DeletePrefix(userID + "|")
	}
}
