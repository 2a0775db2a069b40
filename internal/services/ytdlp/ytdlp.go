package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"danmux/internal/logging"
	"danmux/internal/media"
	"danmux/internal/services"
)

var commandContext = exec.CommandContext

// Options configures a fetcher client.
type Options struct {
	Binary              string
	CookiesFile         string
	ExtraArgs           []string
	ConcurrentFragments int
	ExternalDownloader  string
	ExternalArgs        string
	ExternalEnabled     bool
	AudioCodec          string
	AudioQuality        string
}

// Client invokes yt-dlp with per-workflow argument profiles.
type Client struct {
	opts   Options
	logger *slog.Logger
}

// NewClient constructs a fetcher client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = "yt-dlp"
	}
	return &Client{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "fetcher"),
	}
}

// ValidateURL rejects source URLs the fetcher cannot act on. The error is a
// usage error: retrying a malformed URL can never succeed.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return services.Wrap(services.ErrUsage, "fetcher", "validate url", raw, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return services.Wrap(services.ErrUsage, "fetcher", "validate url",
			fmt.Sprintf("%q is not an absolute http(s) URL", raw), nil)
	}
	return nil
}

// FetchVideo downloads the video(s) behind sourceURL into destDir, remuxed
// to Matroska with the provenance record embedded. One URL may expand to
// multiple items when it addresses a multi-part page or a playlist.
func (c *Client) FetchVideo(ctx context.Context, sourceURL, destDir string) ([]media.Item, error) {
	if err := ValidateURL(sourceURL); err != nil {
		return nil, err
	}
	stdout, err := c.run(ctx, c.videoArgs(sourceURL, destDir))
	if err != nil {
		return nil, err
	}
	return c.itemsFromOutput(stdout, sourceURL)
}

// FetchAudio downloads and extracts the audio track(s) behind sourceURL.
func (c *Client) FetchAudio(ctx context.Context, sourceURL, destDir string) ([]media.Item, error) {
	if err := ValidateURL(sourceURL); err != nil {
		return nil, err
	}
	stdout, err := c.run(ctx, c.audioArgs(sourceURL, destDir))
	if err != nil {
		return nil, err
	}
	return c.itemsFromOutput(stdout, sourceURL)
}

// FetchDanmaku downloads only the comment tracks behind sourceURL into
// destDir and returns the paths written, in directory discovery order.
func (c *Client) FetchDanmaku(ctx context.Context, sourceURL, destDir string) ([]string, error) {
	if err := ValidateURL(sourceURL); err != nil {
		return nil, err
	}
	before, err := dirSnapshot(destDir)
	if err != nil {
		return nil, err
	}
	if _, err := c.run(ctx, c.danmakuArgs(sourceURL, destDir)); err != nil {
		return nil, err
	}
	return dirNewFiles(destDir, before)
}

func (c *Client) itemsFromOutput(stdout, sourceURL string) ([]media.Item, error) {
	var items []media.Item
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		item, err := media.ItemFromPath(line)
		if err != nil {
			return nil, err
		}
		item.SourceURL = sourceURL
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "fetcher", "fetch",
			"downloader reported no produced files", nil)
	}
	return items, nil
}

func (c *Client) run(ctx context.Context, args []string) (string, error) {
	c.logger.Debug("invoking downloader", logging.String("args", strings.Join(args, " ")))
	cmd := commandContext(ctx, c.opts.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return "", services.Wrap(services.ErrExternalTool, "fetcher", "run", "", err)
	}
	return stdout.String(), nil
}

func (c *Client) baseArgs() []string {
	args := []string{"--no-progress", "--no-warnings"}
	if c.opts.CookiesFile != "" {
		args = append(args, "--cookies", c.opts.CookiesFile)
	}
	if c.opts.ConcurrentFragments > 1 {
		args = append(args, "--concurrent-fragments", strconv.Itoa(c.opts.ConcurrentFragments))
	}
	if c.opts.ExternalEnabled && c.opts.ExternalDownloader != "" {
		args = append(args, "--downloader", c.opts.ExternalDownloader)
		if c.opts.ExternalArgs != "" {
			args = append(args, "--downloader-args", c.opts.ExternalDownloader+":"+c.opts.ExternalArgs)
		}
	}
	args = append(args, c.opts.ExtraArgs...)
	return args
}

func (c *Client) videoArgs(sourceURL, destDir string) []string {
	args := c.baseArgs()
	args = append(args,
		"--prefer-free-formats",
		"--embed-info-json",
		"--embed-thumbnail",
		"--embed-chapters",
		"--remux-video", "mkv",
		"-o", filepath.Join(destDir, media.OutputTemplate),
		"--print", "after_move:filepath",
		"--no-simulate",
		"--", sourceURL,
	)
	return args
}

func (c *Client) audioArgs(sourceURL, destDir string) []string {
	codec := c.opts.AudioCodec
	if codec == "" {
		codec = "opus"
	}
	quality := c.opts.AudioQuality
	if quality == "" {
		quality = "0"
	}
	args := c.baseArgs()
	args = append(args,
		"-x",
		"--audio-format", codec,
		"--audio-quality", quality,
		"--embed-metadata",
		"--embed-thumbnail",
		"--embed-chapters",
		"-o", filepath.Join(destDir, media.OutputTemplate),
		"--print", "after_move:filepath",
		"--no-simulate",
		"--", sourceURL,
	)
	return args
}

func (c *Client) danmakuArgs(sourceURL, destDir string) []string {
	args := c.baseArgs()
	args = append(args, profileFor(sourceURL).danmakuArgs...)
	args = append(args,
		"--skip-download",
		"-o", filepath.Join(destDir, "%(id)s.%(ext)s"),
		"--", sourceURL,
	)
	return args
}

func dirSnapshot(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("scan destination dir: %w", err)
	}
	snapshot := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		snapshot[entry.Name()] = struct{}{}
	}
	return snapshot, nil
}

func dirNewFiles(dir string, before map[string]struct{}) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan destination dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, seen := before[entry.Name()]; seen {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}
