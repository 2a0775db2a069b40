package ytdlp

import (
	"net/url"
	"strings"
)

// siteProfile carries per-site argument adjustments. Comment availability
// differs between extractors; the danmaku args name the subtitle channel the
// extractor publishes comments on.
type siteProfile struct {
	name        string
	hosts       []string
	danmakuArgs []string
}

var genericProfile = siteProfile{
	name:        "generic",
	danmakuArgs: []string{"--write-subs", "--sub-langs", "danmaku"},
}

var siteProfiles = []siteProfile{
	{
		name:        "bilibili",
		hosts:       []string{"bilibili.com", "b23.tv"},
		danmakuArgs: []string{"--write-subs", "--sub-langs", "danmaku"},
	},
	{
		name:        "niconico",
		hosts:       []string{"nicovideo.jp", "nico.ms"},
		danmakuArgs: []string{"--write-subs", "--sub-langs", "danmaku"},
	},
	{
		name:        "youtube",
		hosts:       []string{"youtube.com", "youtu.be"},
		danmakuArgs: []string{"--write-subs", "--sub-langs", "live_chat"},
	},
}

// profileFor resolves the site profile for a source URL. Unknown hosts get
// the generic profile.
func profileFor(sourceURL string) siteProfile {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return genericProfile
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	for _, profile := range siteProfiles {
		for _, candidate := range profile.hosts {
			if host == candidate || strings.HasSuffix(host, "."+candidate) {
				return profile
			}
		}
	}
	return genericProfile
}
