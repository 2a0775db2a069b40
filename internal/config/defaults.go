package config

const (
	defaultStagingDir          = "~/.local/share/danmux/staging"
	defaultCookiesFile         = "~/.local/share/danmux/cookies.txt"
	defaultHistoryDB           = "~/.local/share/danmux/history.db"
	defaultFetcherBinary       = "yt-dlp"
	defaultFragmentConcurrency = 4
	defaultExternalDownloader  = "aria2c"
	defaultExternalArgs        = "-x 16 -s 16 -k 1M"
	defaultAudioCodec          = "opus"
	defaultAudioQuality        = "0"
	defaultDanmakuBackend      = "auto"
	defaultYuttoBinary         = "yutto"
	defaultConverterBinary     = "danmaku2ass"
	defaultFontName            = "sans-serif"
	defaultFontSize            = 37
	defaultOpacity             = 0.8
	defaultOutline             = 1.0
	defaultResolution          = "1920x1080"
	defaultRetryMaxAttempts    = 3
	defaultRetryBackoffSeconds = 1
	defaultConcurrency         = 2
	defaultMinFreeSpaceGiB     = 1
	defaultLogFormat           = "auto"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:  defaultStagingDir,
			CookiesFile: defaultCookiesFile,
			HistoryDB:   defaultHistoryDB,
		},
		Fetcher: Fetcher{
			Binary:              defaultFetcherBinary,
			ConcurrentFragments: defaultFragmentConcurrency,
			ExternalDownloader:  defaultExternalDownloader,
			ExternalArgs:        defaultExternalArgs,
		},
		Audio: Audio{
			Codec:   defaultAudioCodec,
			Quality: defaultAudioQuality,
		},
		Danmaku: Danmaku{
			Backend:         defaultDanmakuBackend,
			YuttoBinary:     defaultYuttoBinary,
			ConverterBinary: defaultConverterBinary,
			FontName:        defaultFontName,
			FontSize:        defaultFontSize,
			Opacity:         defaultOpacity,
			Outline:         defaultOutline,
			Resolution:      defaultResolution,
		},
		Retry: Retry{
			MaxAttempts:    defaultRetryMaxAttempts,
			BackoffSeconds: defaultRetryBackoffSeconds,
		},
		Workflow: Workflow{
			Concurrency:     defaultConcurrency,
			MinFreeSpaceGiB: defaultMinFreeSpaceGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
