package config

import (
	"fmt"
	"regexp"
)

var resolutionPattern = regexp.MustCompile(`^\d{3,4}x\d{3,4}$`)

var validBackends = map[string]struct{}{
	"auto":    {},
	"yutto":   {},
	"convert": {},
}

var validLogFormats = map[string]struct{}{
	"auto":    {},
	"console": {},
	"json":    {},
}

// Validate checks configuration invariants that normalization cannot repair.
func (c *Config) Validate() error {
	if _, ok := validBackends[c.Danmaku.Backend]; !ok {
		return fmt.Errorf("danmaku.backend: unsupported value %q (want auto, yutto, or convert)", c.Danmaku.Backend)
	}
	if !resolutionPattern.MatchString(c.Danmaku.Resolution) {
		return fmt.Errorf("danmaku.resolution: %q is not WIDTHxHEIGHT", c.Danmaku.Resolution)
	}
	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("logging.format: unsupported value %q (want auto, console, or json)", c.Logging.Format)
	}
	if c.Fetcher.ExternalEnabled && c.Fetcher.ExternalDownloader == "" {
		return fmt.Errorf("fetcher.external_downloader: required when external_downloader_enabled is true")
	}
	return nil
}
