package danmaku

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"danmux/internal/logging"
	"danmux/internal/media/overlay"
	"danmux/internal/services"
)

var convertCommandContext = exec.CommandContext

// Convert fetches raw comment files through the downloader and renders each
// one to a styled overlay with a danmaku2ass-compatible converter. It works
// for any site the downloader publishes comments for.
type Convert struct {
	fetcher    Fetcher
	binary     string
	fontName   string
	fontSize   int
	opacity    float64
	outline    float64
	resolution string
	logger     *slog.Logger
}

// NewConvert constructs the fetch-and-convert provider.
func NewConvert(opts Options, fetcher Fetcher, logger *slog.Logger) *Convert {
	binary := opts.ConverterBinary
	if strings.TrimSpace(binary) == "" {
		binary = "danmaku2ass"
	}
	return &Convert{
		fetcher:    fetcher,
		binary:     binary,
		fontName:   opts.FontName,
		fontSize:   opts.FontSize,
		opacity:    opts.Opacity,
		outline:    opts.Outline,
		resolution: opts.Resolution,
		logger:     logging.NewComponentLogger(logger, "danmaku"),
	}
}

// Name identifies the backend in logs.
func (c *Convert) Name() string { return BackendConvert }

// Fetch downloads the raw comment files for sourceURL into rawDir and
// converts each one into overlayDir. The downloader names raw files by the
// id of the item they belong to, so a file matching none of the batch ids
// belongs to a different item and is never claimed. A file that fails to
// convert is skipped with a warning; the remaining files still count.
func (c *Convert) Fetch(ctx context.Context, sourceURL string, ids []string, rawDir, overlayDir string) ([]string, error) {
	raw, err := c.fetcher.FetchDanmaku(ctx, sourceURL, rawDir)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		c.logger.Warn("no comment tracks published", logging.String("source_url", sourceURL))
		return nil, nil
	}

	var overlays []string
	for _, path := range raw {
		base := filepath.Base(path)
		if strings.HasSuffix(base, overlay.Extension) {
			overlays = append(overlays, path)
			continue
		}
		out := filepath.Join(rawDir, overlayStem(base)+overlay.Extension)
		if err := c.convert(ctx, path, out); err != nil {
			c.logger.Warn("comment conversion failed",
				logging.String("file", base),
				logging.Error(err),
			)
			continue
		}
		overlays = append(overlays, out)
	}
	if len(overlays) == 0 {
		c.logger.Warn("all comment conversions failed", logging.String("source_url", sourceURL))
		return nil, nil
	}

	claimed, strays, err := normalizeNames(ids, overlays, overlayDir, false)
	if err != nil {
		return nil, err
	}
	for _, stray := range strays {
		c.logger.Warn("overlay matches no item in the batch, leaving it unclaimed",
			logging.String("file", filepath.Base(stray)),
		)
	}
	return claimed, nil
}

func (c *Convert) convert(ctx context.Context, inPath, outPath string) error {
	cmd := convertCommandContext(ctx, c.binary, c.convertArgs(inPath, outPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return services.Wrap(services.ErrExternalTool, "danmaku", "convert", "", err)
	}
	return nil
}

func (c *Convert) convertArgs(inPath, outPath string) []string {
	args := []string{"-o", outPath}
	if c.resolution != "" {
		args = append(args, "-s", c.resolution)
	}
	if c.fontName != "" {
		args = append(args, "-fn", c.fontName)
	}
	if c.fontSize > 0 {
		args = append(args, "-fs", strconv.Itoa(c.fontSize))
	}
	if c.opacity > 0 {
		args = append(args, "-a", strconv.FormatFloat(c.opacity, 'f', -1, 64))
	}
	if c.outline > 0 {
		args = append(args, "-ol", strconv.FormatFloat(c.outline, 'f', -1, 64))
	}
	args = append(args, inPath)
	return args
}

// overlayStem strips the raw comment suffixes a downloader appends so the
// converted overlay lands on "<id>.ass" or "<id>_pN.ass".
func overlayStem(base string) string {
	stem := base
	stem = strings.TrimSuffix(stem, ".xml")
	stem = strings.TrimSuffix(stem, ".danmaku")
	stem = strings.TrimSuffix(stem, ".json")
	stem = strings.TrimSuffix(stem, ".live_chat")
	return stem
}
