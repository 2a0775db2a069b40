package danmaku

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"danmux/internal/media/overlay"
)

// normalizeNames moves freshly produced overlay files into destDir, named so
// downstream selection can correlate each file with its owning item. A file
// already matching one of the batch ids keeps its name. Files matching no id
// are claimed as parts of the batch id only when claimStrays is set and the
// batch carries a single id; with several ids a stray cannot be attributed,
// and renaming it onto an arbitrary id would attach one item's comments to
// another, so it stays behind and is returned separately.
func normalizeNames(ids, paths []string, destDir string, claimStrays bool) ([]string, []string, error) {
	var conforming, strays []string
	for _, path := range paths {
		if ownerID(ids, filepath.Base(path)) != "" {
			conforming = append(conforming, path)
		} else {
			strays = append(strays, path)
		}
	}

	claimed := make([]string, 0, len(paths))
	for _, path := range conforming {
		target := filepath.Join(destDir, filepath.Base(path))
		if err := moveOverlay(path, target); err != nil {
			return nil, nil, err
		}
		claimed = append(claimed, target)
	}
	if len(strays) == 0 || !claimStrays || len(ids) != 1 {
		return claimed, strays, nil
	}

	sort.Strings(strays)
	parts := len(claimed)
	for i, path := range strays {
		part := 0
		if len(strays) > 1 || parts > 0 {
			part = parts + i + 1
		}
		target := filepath.Join(destDir, overlay.PartName(ids[0], part))
		if err := moveOverlay(path, target); err != nil {
			return nil, nil, err
		}
		claimed = append(claimed, target)
	}
	return claimed, nil, nil
}

// ownerID returns the batch id an overlay file name belongs to, or "".
func ownerID(ids []string, name string) string {
	for _, id := range ids {
		if overlay.MatchesID(name, id) {
			return id
		}
	}
	return ""
}

func moveOverlay(from, to string) error {
	if from == to {
		return nil
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("normalize overlay name: %w", err)
	}
	return nil
}
