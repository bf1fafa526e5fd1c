package service

import (
	"context"
	"time"

	"matchd/pkg/logger"
)

// RunSnapshotJob writes periodic snapshots until ctx is cancelled. A
// failed snapshot is logged and retried on the next tick.
func (s *OrderService) RunSnapshotJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.WriteSnapshot(); err != nil {
				s.log.Error(err, logger.Field{Key: "job", Value: "snapshot"})
			}
		}
	}
}
