package pipeline

import (
	"context"
	"log/slog"

	"danmux/internal/config"
	"danmux/internal/history"
	"danmux/internal/logging"
	"danmux/internal/media"
	"danmux/internal/media/container"
	"danmux/internal/media/ffprobe"
	"danmux/internal/provenance"
	"danmux/internal/services/danmaku"
	"danmux/internal/services/ytdlp"
	"danmux/internal/workspace"
)

// Fetcher is the media acquisition capability.
type Fetcher interface {
	FetchVideo(ctx context.Context, sourceURL, destDir string) ([]media.Item, error)
	FetchAudio(ctx context.Context, sourceURL, destDir string) ([]media.Item, error)
	FetchDanmaku(ctx context.Context, sourceURL, destDir string) ([]string, error)
}

// Merger is the container inspection and remux capability.
type Merger interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
	Rebuild(ctx context.Context, basePath, outPath string, keep []int) error
	Embed(ctx context.Context, basePath string, overlays []string, targetPath string) error
}

// ProvenanceReader extracts embedded provenance fields from containers.
type ProvenanceReader interface {
	Extract(ctx context.Context, containerPath, key string) (string, error)
}

// History is the completed-download archive.
type History interface {
	Record(ctx context.Context, entry history.Entry) error
	Seen(ctx context.Context, itemID, kind string) (bool, error)
	FindByItemID(ctx context.Context, itemID string) (*history.Entry, error)
}

// ProviderFunc resolves the comment provider for a source URL.
type ProviderFunc func(sourceURL string) (danmaku.Provider, error)

// Pipeline wires the fetch, convert, correlate, and merge stages into the
// user-facing workflows.
type Pipeline struct {
	cfg         *config.Config
	logger      *slog.Logger
	fetcher     Fetcher
	merger      Merger
	prov        ProvenanceReader
	hist        History
	providerFor ProviderFunc
}

// Request describes one workflow invocation.
type Request struct {
	URLs    []string
	DestDir string
	Force   bool
}

// New wires a pipeline from configuration with the production service
// implementations.
func New(cfg *config.Config, logger *slog.Logger, hist History) *Pipeline {
	fetcher := ytdlp.NewClient(ytdlp.Options{
		Binary:              cfg.Fetcher.Binary,
		CookiesFile:         cfg.Paths.CookiesFile,
		ExtraArgs:           cfg.Fetcher.ExtraArgs,
		ConcurrentFragments: cfg.Fetcher.ConcurrentFragments,
		ExternalDownloader:  cfg.Fetcher.ExternalDownloader,
		ExternalArgs:        cfg.Fetcher.ExternalArgs,
		ExternalEnabled:     cfg.Fetcher.ExternalEnabled,
		AudioCodec:          cfg.Audio.Codec,
		AudioQuality:        cfg.Audio.Quality,
	}, logger)

	merger := container.NewMerger(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger)
	prov := provenance.NewStore(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger)

	opts := danmaku.Options{
		Backend:         cfg.Danmaku.Backend,
		YuttoBinary:     cfg.Danmaku.YuttoBinary,
		ConverterBinary: cfg.Danmaku.ConverterBinary,
		CookiesFile:     cfg.Paths.CookiesFile,
		FontName:        cfg.Danmaku.FontName,
		FontSize:        cfg.Danmaku.FontSize,
		Opacity:         cfg.Danmaku.Opacity,
		Outline:         cfg.Danmaku.Outline,
		Resolution:      cfg.Danmaku.Resolution,
	}
	providerFor := func(sourceURL string) (danmaku.Provider, error) {
		return danmaku.Select(opts, fetcher, sourceURL, logger)
	}

	return NewWithDependencies(cfg, logger, fetcher, merger, prov, hist, providerFor)
}

// NewWithDependencies wires a pipeline from explicit collaborators.
func NewWithDependencies(cfg *config.Config, logger *slog.Logger, fetcher Fetcher, merger Merger, prov ProvenanceReader, hist History, providerFor ProviderFunc) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		fetcher:     fetcher,
		merger:      merger,
		prov:        prov,
		hist:        hist,
		providerFor: providerFor,
	}
}

func (p *Pipeline) concurrency() int {
	if p.cfg == nil || p.cfg.Workflow.Concurrency < 1 {
		return 1
	}
	return p.cfg.Workflow.Concurrency
}

func (p *Pipeline) newWorkspace() (*workspace.Workspace, error) {
	dir := ""
	if p.cfg != nil {
		dir = p.cfg.Paths.StagingDir
	}
	return workspace.New(dir)
}
