package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aqarhub/property-service/internal/platform/metrics"
	"github.com/aqarhub/property-service/internal/property/domain"
)

// uploadGroup uploads one gallery's attachments concurrently. The returned
// slice holds every asset that reached remote storage even when err is
// non-nil; positions that never finished stay zero-valued and are filtered
// out, so the caller can reverse exactly what landed.
func uploadGroup(
	ctx context.Context,
	storage domain.MediaStorage,
	mm *metrics.MetricsManager,
	timeout time.Duration,
	group string,
	files []domain.Attachment,
) ([]domain.MediaAsset, error) {
	uploadCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		uploadCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	results := make([]domain.MediaAsset, len(files))
	g, gctx := errgroup.WithContext(uploadCtx)
	for i, att := range files {
		i, att := i, att
		g.Go(func() error {
			asset, err := storage.Upload(gctx, att)
			if err != nil {
				return &domain.UploadError{Group: group, Err: err}
			}
			results[i] = asset
			return nil
		})
	}
	err := g.Wait()

	assets := make([]domain.MediaAsset, 0, len(files))
	for _, asset := range results {
		if asset.PublicID != "" {
			assets = append(assets, asset)
		}
	}
	mm.AddUploads(len(assets))
	return assets, err
}
