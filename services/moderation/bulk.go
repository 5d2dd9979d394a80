package moderation

import (
	"context"
	"fmt"
	neturl "net/url"

	"snapbook/apperr"
	"snapbook/models"

	"golang.org/x/sync/errgroup"
)

func (s *DefaultModerationService) BulkApprove(ctx context.Context, photoIDs []string, actor models.Actor) ([]BulkResult, error) {
	return s.fanOut(ctx, photoIDs, func(ctx context.Context, id string) BulkResult {
		p, err := s.ApprovePhoto(ctx, id, actor)
		return BulkResult{Photo: p, Err: err}
	})
}

func (s *DefaultModerationService) BulkReject(ctx context.Context, photoIDs []string, actor models.Actor, reason string) ([]BulkResult, error) {
	return s.fanOut(ctx, photoIDs, func(ctx context.Context, id string) BulkResult {
		p, err := s.RejectPhoto(ctx, id, actor, reason)
		return BulkResult{Photo: p, Err: err}
	})
}

// BulkDownload signs a download URL for every photo the actor may see.
func (s *DefaultModerationService) BulkDownload(ctx context.Context, photoIDs []string, actor models.Actor) ([]BulkResult, error) {
	if s.Signer == nil {
		return nil, fmt.Errorf("bulkDownload: no url signer configured")
	}
	return s.fanOut(ctx, photoIDs, func(ctx context.Context, id string) BulkResult {
		p, err := s.GetPhoto(ctx, id, actor)
		if err != nil {
			return BulkResult{Err: err}
		}
		url, err := s.Signer.DownloadURL(ctx, p.FileRef)
		if err != nil {
			return BulkResult{Photo: p, Err: err}
		}
		enhanced, err := s.enhancedURL(ctx, p)
		if err != nil {
			return BulkResult{Photo: p, Err: err}
		}
		return BulkResult{Photo: p, URL: url, EnhancedURL: enhanced}
	})
}

// enhancedURL signs a stored enhanced file ref. Derivatives rendered by the
// Enhancer are already signed delivery URLs and pass through.
func (s *DefaultModerationService) enhancedURL(ctx context.Context, p *models.Photo) (string, error) {
	if !p.IsEnhanced || p.EnhancedRef == "" {
		return "", nil
	}
	if u, err := neturl.Parse(p.EnhancedRef); err == nil && (u.Scheme == "https" || u.Scheme == "http") {
		return p.EnhancedRef, nil
	}
	return s.Signer.DownloadURL(ctx, p.EnhancedRef)
}

// fanOut runs fn for every id with bounded concurrency. One result is
// returned per id, in input order; a failing item never stops the others.
func (s *DefaultModerationService) fanOut(ctx context.Context, photoIDs []string, fn func(context.Context, string) BulkResult) ([]BulkResult, error) {
	if len(photoIDs) == 0 {
		return nil, fmt.Errorf("bulk: no photo ids: %w", apperr.ErrInvalidInput)
	}
	if s.MaxBulk > 0 && len(photoIDs) > s.MaxBulk {
		return nil, fmt.Errorf("bulk: %d photos exceeds limit %d: %w", len(photoIDs), s.MaxBulk, apperr.ErrInvalidInput)
	}

	results := make([]BulkResult, len(photoIDs))
	g, gctx := errgroup.WithContext(ctx)
	if s.BulkConcurrency > 0 {
		g.SetLimit(s.BulkConcurrency)
	}
	for i, id := range photoIDs {
		g.Go(func() error {
			r := fn(gctx, id)
			r.PhotoID = id
			if r.Err != nil {
				r.Error = r.Err.Error()
				r.Code = apperr.Code(r.Err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
