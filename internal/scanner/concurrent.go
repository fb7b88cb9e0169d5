package scanner

// concurrent.go holds the worker pool for parallel narrative analysis.
//
// Each snapshot requires two analyzer calls plus one probe per correlated
// asset; analyzing them in parallel keeps the cycle time bounded by the
// slowest analyzer rather than the sum of all calls.

import (
	"context"
	"runtime"
	"sync"

	"github.com/rawelabs/rawe/internal/domain"
)

// analyzeSnapshotsConcurrent fans snapshots out over a worker pool and
// flattens the results back in snapshot order, so the final stable sort
// still ties-breaks by arrival order.
//
// If workers <= 0 it uses runtime.NumCPU() × 2.
func analyzeSnapshotsConcurrent(
	ctx context.Context,
	s *Scanner,
	snapshots []domain.NarrativeSnapshot,
	nvx float64,
) []domain.ArbitrageSignal {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if workers > len(snapshots) && len(snapshots) > 0 {
		workers = len(snapshots)
	}

	results := make([][]domain.ArbitrageSignal, len(snapshots))
	workCh := make(chan int, len(snapshots))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				results[i] = s.analyzeSnapshot(ctx, snapshots[i], nvx)
			}
		}()
	}

	for i := range snapshots {
		workCh <- i
	}
	close(workCh)
	wg.Wait()

	var out []domain.ArbitrageSignal
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}
