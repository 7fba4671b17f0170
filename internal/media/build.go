package media

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Zuo-Peng/chatview/internal/archive"
)

// BlobReader reads one archive entry's bytes.
type BlobReader interface {
	ReadBlob(e archive.Entry) ([]byte, error)
}

// DefaultWorkers bounds concurrent extractions when Build gets workers <= 0.
const DefaultWorkers = 8

// Build extracts every entry concurrently and returns once all of them have
// finished. Each extraction fills its own slot; the merge into the index runs
// afterwards in entry order, so basename collisions resolve to the last entry.
func Build(ctx context.Context, r BlobReader, entries []archive.Entry, workers int) (*Index, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	blobs := make([][]byte, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := r.ReadBlob(e)
			if err != nil {
				return fmt.Errorf("extract %s: %w", e.Path, err)
			}
			blobs[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	x := NewIndex()
	for i, e := range entries {
		x.put(e.Path, blobs[i])
	}
	return x, nil
}
