package server

import (
	"context"
	"time"

	"github.com/myuser/astrobase/internal/storage/kvlog"
)

// Compacter is a backend whose log can be rewritten down to its live records.
type Compacter interface {
	Compact() (kvlog.CompactStats, error)
}

// RunCompactor compacts c every interval until ctx is cancelled. Each pass
// resyncs the record count with the number of live keys it found. Requests
// served by s wait for the pass, so no insert or delete is lost from the
// count.
func (s *Service) RunCompactor(ctx context.Context, c Compacter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.compact(c)
		}
	}
}

func (s *Service) compact(c Compacter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	cs, err := c.Compact()
	if err != nil {
		s.logger.Error().Err(err).Msg("compaction failed")
		return
	}
	s.stats.SetRecords(cs.Live)
	s.logger.Info().Int("records", cs.Records).Int("live", cs.Live).Dur("took", time.Since(start)).Msg("compacted")
}
