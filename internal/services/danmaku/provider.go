package danmaku

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"danmux/internal/deps"
	"danmux/internal/services"
)

// Backend names accepted by the configuration.
const (
	BackendAuto    = "auto"
	BackendYutto   = "yutto"
	BackendConvert = "convert"
)

// Provider fetches comment overlays for the items of one source URL. Raw
// downloads stage under rawDir; finished overlay files land in overlayDir,
// each named by the item identifier it belongs to so the embedding step can
// correlate them. An empty result is not an error: items without comments
// are merged without overlay tracks.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, sourceURL string, ids []string, rawDir, overlayDir string) ([]string, error)
}

// Fetcher is the comment-only download capability the convert backend
// delegates to.
type Fetcher interface {
	FetchDanmaku(ctx context.Context, sourceURL, destDir string) ([]string, error)
}

// Options carries the comment acquisition and rendering settings.
type Options struct {
	Backend         string
	YuttoBinary     string
	ConverterBinary string
	CookiesFile     string
	FontName        string
	FontSize        int
	Opacity         float64
	Outline         float64
	Resolution      string
}

// Select resolves the provider for a source URL. The auto backend prefers
// yutto for hosts it understands when the binary is installed and falls back
// to the convert chain everywhere else.
func Select(opts Options, fetcher Fetcher, sourceURL string, logger *slog.Logger) (Provider, error) {
	switch opts.Backend {
	case BackendYutto:
		return NewYutto(opts, logger), nil
	case BackendConvert:
		return NewConvert(opts, fetcher, logger), nil
	case BackendAuto, "":
		if isBilibili(sourceURL) && deps.Available(opts.YuttoBinary) {
			return NewYutto(opts, logger), nil
		}
		return NewConvert(opts, fetcher, logger), nil
	default:
		return nil, services.Wrap(services.ErrValidation, "danmaku", "select backend",
			"unknown backend "+opts.Backend, nil)
	}
}

func isBilibili(sourceURL string) bool {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	for _, candidate := range []string{"bilibili.com", "b23.tv"} {
		if host == candidate || strings.HasSuffix(host, "."+candidate) {
			return true
		}
	}
	return false
}
