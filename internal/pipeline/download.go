package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"danmux/internal/fileutil"
	"danmux/internal/history"
	"danmux/internal/logging"
	"danmux/internal/media"
	"danmux/internal/media/overlay"
	"danmux/internal/services"
)

// DownloadVideo runs the full video workflow for every URL in the request:
// fetch, comment acquisition, correlation, and overlay embedding. URLs are
// processed concurrently up to the configured limit; one URL failing does
// not stop its siblings.
func (p *Pipeline) DownloadVideo(ctx context.Context, req Request) error {
	ctx = services.WithWorkflow(ctx, "download-video")
	return p.forEachURL(ctx, req, func(ctx context.Context, sourceURL string) error {
		return p.downloadOne(ctx, sourceURL, req, history.KindVideo)
	})
}

// DownloadAudio runs the audio-only workflow: fetch and archive, with no
// comment acquisition or embedding.
func (p *Pipeline) DownloadAudio(ctx context.Context, req Request) error {
	ctx = services.WithWorkflow(ctx, "download-audio")
	return p.forEachURL(ctx, req, func(ctx context.Context, sourceURL string) error {
		return p.downloadOne(ctx, sourceURL, req, history.KindAudio)
	})
}

func (p *Pipeline) forEachURL(ctx context.Context, req Request, fn func(ctx context.Context, sourceURL string) error) error {
	if len(req.URLs) == 0 {
		return services.Wrap(services.ErrUsage, "pipeline", "download", "no source URLs given", nil)
	}

	sem := make(chan struct{}, p.concurrency())
	var wg sync.WaitGroup
	errs := make([]error, len(req.URLs))

	for i, sourceURL := range req.URLs {
		wg.Add(1)
		go func(i int, sourceURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			errs[i] = fn(ctx, sourceURL)
		}(i, sourceURL)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// downloadOne processes a single source URL inside its own workspace so
// concurrent siblings never observe each other's partial artifacts.
func (p *Pipeline) downloadOne(ctx context.Context, sourceURL string, req Request, kind string) error {
	ws, err := p.newWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	logger := logging.WithContext(ctx, p.logger)

	var items []media.Item
	switch kind {
	case history.KindAudio:
		items, err = p.fetcher.FetchAudio(ctx, sourceURL, ws.VideoDir())
	default:
		items, err = p.fetcher.FetchVideo(ctx, sourceURL, ws.VideoDir())
	}
	if err != nil {
		return err
	}

	if kind == history.KindVideo {
		if err := p.acquireOverlays(ctx, sourceURL, items, ws.DanmakuDir(), ws.OverlayDir()); err != nil {
			return err
		}
	}

	destDir := req.DestDir
	if destDir == "" {
		destDir = "."
	}

	var itemErrs []error
	for _, item := range items {
		itemCtx := services.WithItemID(ctx, item.ID)
		if err := p.finishItem(itemCtx, item, destDir, kind, req.Force, ws.OverlayDir()); err != nil {
			logging.WithContext(itemCtx, p.logger).Error("item failed", logging.Error(err))
			itemErrs = append(itemErrs, err)
		}
	}
	if len(itemErrs) == 0 {
		logger.Info("source complete",
			logging.String("source_url", sourceURL),
			logging.Int("items", len(items)),
		)
	}
	return errors.Join(itemErrs...)
}

// acquireOverlays fetches comment overlays for the whole batch in one
// provider call. The provider sees every item identifier, so a playlist
// sibling's comment file is attributed to its own item instead of being
// claimed by whichever item fetched first. A provider failure degrades the
// batch to plain downloads instead of aborting it.
func (p *Pipeline) acquireOverlays(ctx context.Context, sourceURL string, items []media.Item, rawDir, overlayDir string) error {
	if p.providerFor == nil {
		return nil
	}
	provider, err := p.providerFor(sourceURL)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, item := range items {
		if _, done := seen[item.ID]; done {
			continue
		}
		seen[item.ID] = struct{}{}
		ids = append(ids, item.ID)
	}

	if _, err := provider.Fetch(ctx, sourceURL, ids, rawDir, overlayDir); err != nil {
		logging.WithContext(ctx, p.logger).Warn("comment acquisition failed, continuing without overlays",
			logging.String("backend", provider.Name()),
			logging.Error(err),
		)
	}
	return nil
}

// finishItem correlates overlays with one fetched item and lands the final
// container in destDir. Video items with overlays are embedded; everything
// else is moved as-is.
func (p *Pipeline) finishItem(ctx context.Context, item media.Item, destDir, kind string, force bool, overlayDir string) error {
	logger := logging.WithContext(ctx, p.logger)

	if !force && p.hist != nil {
		seen, err := p.hist.Seen(ctx, item.ID, kind)
		if err != nil {
			return err
		}
		if seen {
			prior, err := p.hist.FindByItemID(ctx, item.ID)
			if err != nil {
				return err
			}
			attrs := []any{logging.String("title", item.Title)}
			if prior != nil {
				attrs = append(attrs, logging.String("existing_path", prior.Path))
				if !prior.CompletedAt.IsZero() {
					attrs = append(attrs, logging.String("completed_at", prior.CompletedAt.Format(time.RFC3339)))
				}
			}
			logger.Info("item already downloaded, skipping", attrs...)
			return nil
		}
	}

	target := filepath.Join(destDir, filepath.Base(item.Path))

	embedded := false
	if kind == history.KindVideo {
		overlays, err := overlay.SelectOverlays(item.ID, overlayDir)
		if err != nil {
			return err
		}
		if len(overlays) > 0 {
			if err := p.merger.Embed(ctx, item.Path, overlays, target); err != nil {
				return err
			}
			embedded = true
			logger.Info("merged with comment overlays",
				logging.String("path", target),
				logging.Int("overlays", len(overlays)),
			)
		} else {
			logger.Warn("no comment overlays matched, keeping plain container")
		}
	}
	if !embedded {
		if err := fileutil.MoveFile(item.Path, target); err != nil {
			return err
		}
		logger.Info("stored container", logging.String("path", target))
	}

	if p.hist != nil {
		return p.hist.Record(ctx, history.Entry{
			ItemID:    item.ID,
			Title:     item.Title,
			SourceURL: item.SourceURL,
			Path:      target,
			Kind:      kind,
		})
	}
	return nil
}
