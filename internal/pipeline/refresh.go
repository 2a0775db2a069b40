package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"danmux/internal/history"
	"danmux/internal/logging"
	"danmux/internal/media"
	"danmux/internal/media/overlay"
	"danmux/internal/provenance"
	"danmux/internal/services"
)

// RefreshDanmaku replaces the comment overlay tracks of an existing
// container in place: old overlay streams are stripped, fresh ones are
// fetched from the recorded source, and the result atomically replaces the
// original. The target is locked for the duration so concurrent refreshes
// of the same file cannot interleave.
func (p *Pipeline) RefreshDanmaku(ctx context.Context, targetPath string) error {
	ctx = services.WithWorkflow(ctx, "refresh-danmaku")

	if _, err := os.Stat(targetPath); err != nil {
		return services.Wrap(services.ErrNotFound, "pipeline", "refresh", targetPath, err)
	}

	unlock, err := p.lockTarget(targetPath)
	if err != nil {
		return err
	}
	defer unlock()

	sourceURL, err := p.prov.Extract(ctx, targetPath, provenance.KeySourceURL)
	if err != nil {
		return err
	}
	id, err := p.prov.Extract(ctx, targetPath, provenance.KeyID)
	if err != nil {
		return err
	}
	ctx = services.WithItemID(ctx, id)
	logger := logging.WithContext(ctx, p.logger)

	ws, err := p.newWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	if p.providerFor == nil {
		return services.Wrap(services.ErrValidation, "pipeline", "refresh", "no comment provider configured", nil)
	}
	provider, err := p.providerFor(sourceURL)
	if err != nil {
		return err
	}
	if _, err := provider.Fetch(ctx, sourceURL, []string{id}, ws.DanmakuDir(), ws.OverlayDir()); err != nil {
		return err
	}
	overlays, err := overlay.SelectOverlays(id, ws.OverlayDir())
	if err != nil {
		return err
	}
	if len(overlays) == 0 {
		logger.Warn("no fresh comment overlays, leaving container untouched",
			logging.String("path", targetPath),
		)
		return nil
	}

	probe, err := p.merger.Inspect(ctx, targetPath)
	if err != nil {
		return err
	}
	keep := overlay.KeepStreamIndices(probe)
	if overlay.DegenerateKeepAll(probe) {
		logger.Warn("every stream carries the overlay marker, keeping all",
			logging.String("path", targetPath),
		)
	}

	stripped := filepath.Join(ws.WorkDir(), filepath.Base(targetPath))
	if err := p.merger.Rebuild(ctx, targetPath, stripped, keep); err != nil {
		return err
	}
	if err := p.merger.Embed(ctx, stripped, overlays, targetPath); err != nil {
		return err
	}

	logger.Info("refreshed comment overlays",
		logging.String("path", targetPath),
		logging.Int("overlays", len(overlays)),
	)
	return nil
}

// RefetchVideo re-downloads the source recorded in an existing container's
// provenance and lands the replacement next to the original. The original
// file stays in place until the fresh download succeeds.
func (p *Pipeline) RefetchVideo(ctx context.Context, targetPath string) error {
	ctx = services.WithWorkflow(ctx, "refetch-video")

	if _, err := os.Stat(targetPath); err != nil {
		return services.Wrap(services.ErrNotFound, "pipeline", "refetch", targetPath, err)
	}
	if _, err := media.ItemFromPath(targetPath); err != nil {
		return err
	}

	unlock, err := p.lockTarget(targetPath)
	if err != nil {
		return err
	}
	defer unlock()

	sourceURL, err := p.prov.Extract(ctx, targetPath, provenance.KeySourceURL)
	if err != nil {
		return err
	}

	return p.downloadOne(ctx, sourceURL, Request{
		DestDir: filepath.Dir(targetPath),
		Force:   true,
	}, history.KindVideo)
}

// lockTarget takes an exclusive advisory lock next to the target file and
// returns the release function. A held lock means another invocation is
// already working on the file.
func (p *Pipeline) lockTarget(targetPath string) (func(), error) {
	lockPath := targetPath + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "lock", lockPath, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "lock",
			"another invocation is already processing "+targetPath, nil)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}
