package scheduler

import (
	"github.com/rs/zerolog"

	"coinscan/internal/storage"
)

// CacheCleanupJob drops expired candle-cache entries so the cache database
// does not grow without bound.
type CacheCleanupJob struct {
	cache *storage.CandleCache
	log   zerolog.Logger
}

// NewCacheCleanupJob creates a cache cleanup job.
func NewCacheCleanupJob(cache *storage.CandleCache, log zerolog.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache: cache,
		log:   log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Run deletes expired cache entries.
func (j *CacheCleanupJob) Run() error {
	deleted, err := j.cache.DeleteExpired()
	if err != nil {
		return err
	}
	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Candle cache cleaned")
	}
	return nil
}

// Name returns the job name.
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}
