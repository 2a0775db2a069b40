package danmaku

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"danmux/internal/logging"
	"danmux/internal/media/overlay"
	"danmux/internal/services"
)

var yuttoCommandContext = exec.CommandContext

// Yutto fetches pre-rendered overlay files with the yutto downloader. It
// only understands bilibili sources but produces styled output directly.
type Yutto struct {
	binary      string
	cookiesFile string
	fontName    string
	fontSize    int
	opacity     float64
	logger      *slog.Logger
}

// NewYutto constructs the yutto-backed provider.
func NewYutto(opts Options, logger *slog.Logger) *Yutto {
	binary := opts.YuttoBinary
	if strings.TrimSpace(binary) == "" {
		binary = "yutto"
	}
	return &Yutto{
		binary:      binary,
		cookiesFile: opts.CookiesFile,
		fontName:    opts.FontName,
		fontSize:    opts.FontSize,
		opacity:     opts.Opacity,
		logger:      logging.NewComponentLogger(logger, "danmaku"),
	}
}

// Name identifies the backend in logs.
func (y *Yutto) Name() string { return BackendYutto }

// Fetch downloads the comment overlays for sourceURL into rawDir and moves
// them into overlayDir under the item naming convention. yutto names its
// output by video title, so title-named files are claimed as parts only when
// the batch carries a single item; with several items they cannot be
// attributed and stay behind.
func (y *Yutto) Fetch(ctx context.Context, sourceURL string, ids []string, rawDir, overlayDir string) ([]string, error) {
	before, err := dirSnapshot(rawDir)
	if err != nil {
		return nil, err
	}

	cmd := yuttoCommandContext(ctx, y.binary, y.args(sourceURL, rawDir)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return nil, services.Wrap(services.ErrExternalTool, "danmaku", "yutto", "", err)
	}

	produced, err := newOverlayFiles(rawDir, before)
	if err != nil {
		return nil, err
	}
	if len(produced) == 0 {
		y.logger.Warn("no comment tracks produced", logging.String("source_url", sourceURL))
		return nil, nil
	}

	claimed, strays, err := normalizeNames(ids, produced, overlayDir, true)
	if err != nil {
		return nil, err
	}
	for _, stray := range strays {
		y.logger.Warn("overlay matches no item in the batch, leaving it unclaimed",
			logging.String("file", filepath.Base(stray)),
		)
	}
	return claimed, nil
}

func (y *Yutto) args(sourceURL, destDir string) []string {
	args := []string{
		sourceURL,
		"-d", destDir,
		"--danmaku-only",
		"--batch",
		"--no-color",
	}
	if y.fontName != "" {
		args = append(args, "--danmaku-font", y.fontName)
	}
	if y.fontSize > 0 {
		args = append(args, "--danmaku-font-size", strconv.Itoa(y.fontSize))
	}
	if y.opacity > 0 {
		args = append(args, "--danmaku-opacity", strconv.FormatFloat(y.opacity, 'f', -1, 64))
	}
	if sessdata := minedSESSDATA(y.cookiesFile); sessdata != "" {
		args = append(args, "-c", sessdata)
	}
	return args
}

func dirSnapshot(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("scan overlay dir: %w", err)
	}
	snapshot := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		snapshot[entry.Name()] = struct{}{}
	}
	return snapshot, nil
}

func newOverlayFiles(dir string, before map[string]struct{}) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan overlay dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, seen := before[entry.Name()]; seen {
			continue
		}
		if !strings.HasSuffix(entry.Name(), overlay.Extension) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}
