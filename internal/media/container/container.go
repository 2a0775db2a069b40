package container

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"danmux/internal/fileutil"
	"danmux/internal/logging"
	"danmux/internal/media/ffprobe"
	"danmux/internal/media/overlay"
	"danmux/internal/services"
)

var (
	commandContext = exec.CommandContext
	inspect        = ffprobe.Inspect
)

// Merger remuxes containers with ffmpeg, copying streams without re-encoding.
type Merger struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
}

// NewMerger constructs a Merger using the given binaries.
func NewMerger(ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *Merger {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	return &Merger{
		ffmpeg:  ffmpegBinary,
		ffprobe: ffprobeBinary,
		logger:  logging.NewComponentLogger(logger, "merger"),
	}
}

// Inspect probes a container.
func (m *Merger) Inspect(ctx context.Context, path string) (ffprobe.Result, error) {
	return inspect(ctx, m.ffprobe, path)
}

// Rebuild copies only the selected streams plus global metadata and chapters
// from basePath into outPath. Stream data is copied, never re-encoded.
func (m *Merger) Rebuild(ctx context.Context, basePath, outPath string, keep []int) error {
	if len(keep) == 0 {
		return services.Wrap(services.ErrValidation, "merger", "rebuild", "empty keep set", nil)
	}
	if _, err := os.Stat(basePath); err != nil {
		return services.Wrap(services.ErrNotFound, "merger", "rebuild", basePath, err)
	}

	tmp := fileutil.TempSibling(outPath)
	if err := m.run(ctx, rebuildArgs(basePath, keep, tmp)); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, outPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("promote rebuilt container: %w", err)
	}
	m.logger.Info("rebuilt container",
		logging.String("path", outPath),
		logging.Int("streams", len(keep)),
	)
	return nil
}

// Embed adds each overlay file as a new stream tagged with the overlay
// language and marker title, maps all base streams through unchanged, and
// atomically replaces targetPath on success. Overlay order in the output
// equals the supplied order. If any overlay input is missing the whole
// operation fails before ffmpeg runs and the target is left untouched.
func (m *Merger) Embed(ctx context.Context, basePath string, overlays []string, targetPath string) error {
	if len(overlays) == 0 {
		return services.Wrap(services.ErrValidation, "merger", "embed", "no overlay inputs", nil)
	}
	if _, err := os.Stat(basePath); err != nil {
		return services.Wrap(services.ErrNotFound, "merger", "embed", basePath, err)
	}
	for _, path := range overlays {
		if _, err := os.Stat(path); err != nil {
			return services.Wrap(services.ErrNotFound, "merger", "embed", "overlay input "+path, err)
		}
	}

	probe, err := inspect(ctx, m.ffprobe, basePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "merger", "embed", "probe base container", err)
	}

	tmp := fileutil.TempSibling(targetPath)
	if err := m.run(ctx, embedArgs(basePath, probe.StreamCount(), overlays, tmp)); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, targetPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("promote merged container: %w", err)
	}
	m.logger.Info("embedded overlay tracks",
		logging.String("path", targetPath),
		logging.Int("overlays", len(overlays)),
	)
	return nil
}

func (m *Merger) run(ctx context.Context, args []string) error {
	cmd := commandContext(ctx, m.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return services.Wrap(services.ErrExternalTool, "merger", "ffmpeg", "", err)
	}
	return nil
}

func rebuildArgs(basePath string, keep []int, outPath string) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", basePath}
	for _, index := range keep {
		args = append(args, "-map", "0:"+strconv.Itoa(index))
	}
	args = append(args,
		"-c", "copy",
		"-map_metadata", "0",
		"-map_chapters", "0",
		"-f", "matroska",
		outPath,
	)
	return args
}

func embedArgs(basePath string, baseStreams int, overlays []string, outPath string) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", basePath}
	for _, path := range overlays {
		args = append(args, "-i", path)
	}
	args = append(args, "-map", "0")
	for k := range overlays {
		args = append(args, "-map", strconv.Itoa(k+1)+":0")
	}
	args = append(args,
		"-c", "copy",
		"-map_metadata", "0",
		"-map_chapters", "0",
	)
	for k := range overlays {
		spec := strconv.Itoa(baseStreams + k)
		args = append(args,
			"-metadata:s:"+spec, "language="+overlay.TrackLanguage,
			"-metadata:s:"+spec, "title="+overlay.TrackTitle,
		)
	}
	args = append(args, "-f", "matroska", outPath)
	return args
}
