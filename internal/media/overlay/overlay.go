package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"danmux/internal/media/ffprobe"
)

const (
	// TrackTitle marks embedded danmaku tracks. The correlator keeps every
	// stream except subtitles whose title tag equals this exact string.
	TrackTitle = "Danmaku"
	// TrackLanguage tags overlay tracks as carrying no linguistic content,
	// distinguishing them from genuine subtitle tracks.
	TrackLanguage = "zxx"
	// Extension is the overlay file extension produced by both backends.
	Extension = ".ass"
)

// MatchesID reports whether an overlay file name belongs to the item with
// the given identifier. Accepted variants:
//
//	<id>.ass            single-part item
//	<id>_p<n>.ass       multi-part item, part n
//	<id>.xml.ass        converter output retaining the raw extension
//	<id>_p<n>.xml.ass
//
// This is the single definition of the naming convention; the converter
// backends normalize their output through it and both the download and
// refresh workflows select through it.
func MatchesID(name, id string) bool {
	if id == "" {
		return false
	}
	stem, ok := strings.CutSuffix(name, Extension)
	if !ok {
		return false
	}
	stem = strings.TrimSuffix(stem, ".xml")
	if stem == id {
		return true
	}
	part, ok := strings.CutPrefix(stem, id+"_p")
	if !ok || part == "" {
		return false
	}
	for _, r := range part {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// PartName renders the conventional overlay name for part n of an item;
// part 0 means a single-part item.
func PartName(id string, part int) string {
	if part <= 0 {
		return id + Extension
	}
	return fmt.Sprintf("%s_p%d%s", id, part, Extension)
}

// SelectOverlays scans dir for overlay files belonging to id, preserving
// directory discovery order. A missing directory or zero matches yields an
// empty list, not an error: embedding proceeds with no overlay tracks.
func SelectOverlays(id, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan overlay dir: %w", err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if MatchesID(entry.Name(), id) {
			matches = append(matches, filepath.Join(dir, entry.Name()))
		}
	}
	return matches, nil
}

// KeepStreamIndices returns the container stream indices to retain when
// rebuilding: everything except subtitle streams titled with the overlay
// marker. When every stream is marked (a degenerate container), the full
// index set is returned so a rebuild never produces an empty container;
// callers should surface a warning via DegenerateKeepAll.
func KeepStreamIndices(probe ffprobe.Result) []int {
	keep := make([]int, 0, len(probe.Streams))
	for _, stream := range probe.Streams {
		if isOverlayStream(stream) {
			continue
		}
		keep = append(keep, stream.Index)
	}
	if len(keep) == 0 {
		for _, stream := range probe.Streams {
			keep = append(keep, stream.Index)
		}
	}
	return keep
}

// DegenerateKeepAll reports whether a container triggers the keep-all
// fallback: it has streams and every one of them is overlay-marked.
func DegenerateKeepAll(probe ffprobe.Result) bool {
	if len(probe.Streams) == 0 {
		return false
	}
	for _, stream := range probe.Streams {
		if !isOverlayStream(stream) {
			return false
		}
	}
	return true
}

func isOverlayStream(stream ffprobe.Stream) bool {
	return stream.IsSubtitle() && stream.Tags.Title == TrackTitle
}
