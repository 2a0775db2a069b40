package config

import "strings"

func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.StagingDir,
		&c.Paths.CookiesFile,
		&c.Paths.HistoryDB,
	} {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Fetcher.Binary = strings.TrimSpace(c.Fetcher.Binary)
	if c.Fetcher.Binary == "" {
		c.Fetcher.Binary = defaultFetcherBinary
	}
	if c.Fetcher.ConcurrentFragments <= 0 {
		c.Fetcher.ConcurrentFragments = defaultFragmentConcurrency
	}
	c.Fetcher.ExternalDownloader = strings.TrimSpace(c.Fetcher.ExternalDownloader)

	c.Audio.Codec = strings.ToLower(strings.TrimSpace(c.Audio.Codec))
	if c.Audio.Codec == "" {
		c.Audio.Codec = defaultAudioCodec
	}
	c.Audio.Quality = strings.TrimSpace(c.Audio.Quality)
	if c.Audio.Quality == "" {
		c.Audio.Quality = defaultAudioQuality
	}

	c.Danmaku.Backend = strings.ToLower(strings.TrimSpace(c.Danmaku.Backend))
	if c.Danmaku.Backend == "" {
		c.Danmaku.Backend = defaultDanmakuBackend
	}
	if strings.TrimSpace(c.Danmaku.YuttoBinary) == "" {
		c.Danmaku.YuttoBinary = defaultYuttoBinary
	}
	if strings.TrimSpace(c.Danmaku.ConverterBinary) == "" {
		c.Danmaku.ConverterBinary = defaultConverterBinary
	}
	if c.Danmaku.FontSize <= 0 {
		c.Danmaku.FontSize = defaultFontSize
	}
	if c.Danmaku.Opacity <= 0 || c.Danmaku.Opacity > 1 {
		c.Danmaku.Opacity = defaultOpacity
	}
	if c.Danmaku.Outline < 0 {
		c.Danmaku.Outline = defaultOutline
	}
	if strings.TrimSpace(c.Danmaku.Resolution) == "" {
		c.Danmaku.Resolution = defaultResolution
	}

	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = defaultRetryMaxAttempts
	}
	if c.Retry.BackoffSeconds <= 0 {
		c.Retry.BackoffSeconds = defaultRetryBackoffSeconds
	}
	if c.Workflow.Concurrency <= 0 {
		c.Workflow.Concurrency = defaultConcurrency
	}
	if c.Workflow.MinFreeSpaceGiB < 0 {
		c.Workflow.MinFreeSpaceGiB = defaultMinFreeSpaceGiB
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}
