package analytics

import (
	"context"

	"github.com/itemhub/itemhub/pkg/logger"
)

// ViewRepository defines the interface for persisting view counts.
type ViewRepository interface {
	BatchIncrementViewCounts(ctx context.Context, counts map[int64]int64) error
}

// RepositoryFlusher implements Flusher using a repository.
type RepositoryFlusher struct {
	repo ViewRepository
	log  *logger.Logger
}

// NewRepositoryFlusher creates a new RepositoryFlusher.
func NewRepositoryFlusher(repo ViewRepository, log *logger.Logger) *RepositoryFlusher {
	return &RepositoryFlusher{
		repo: repo,
		log:  log,
	}
}

// FlushViews persists view counts to the repository.
func (f *RepositoryFlusher) FlushViews(ctx context.Context, counts map[int64]int64) error {
	if len(counts) == 0 {
		return nil
	}

	err := f.repo.BatchIncrementViewCounts(ctx, counts)
	if err != nil {
		if f.log != nil {
			f.log.Error("failed to flush view counts", "error", err.Error(), "count", len(counts))
		}
		return err
	}

	if f.log != nil {
		total := int64(0)
		for _, c := range counts {
			total += c
		}
		f.log.Debug("flushed view counts", "items", len(counts), "total_views", total)
	}

	return nil
}
