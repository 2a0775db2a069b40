package media

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"danmux/internal/services"
	"danmux/internal/textutil"
)

// Item is one logical downloadable unit. The identifier is assigned by the
// fetcher and is the correlation key for every subsequent pipeline step.
type Item struct {
	ID        string
	Title     string
	SourceURL string
	Path      string
}

// OutputTemplate is the yt-dlp output template producing the deterministic
// "Title [id].ext" naming every downstream step relies on.
const OutputTemplate = "%(title)s [%(id)s].%(ext)s"

// idSuffixPattern matches the trailing " [id]" segment of a produced file's
// stem. IDs never contain brackets, so the innermost bracket pair wins.
var idSuffixPattern = regexp.MustCompile(`^(.*) \[([^\[\]]+)\]$`)

// ItemFromPath reconstructs an Item from a produced container path. Fails
// with a validation error when the name does not follow the naming contract.
func ItemFromPath(path string) (Item, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	match := idSuffixPattern.FindStringSubmatch(stem)
	if match == nil {
		return Item{}, services.Wrap(services.ErrValidation, "media", "parse item",
			fmt.Sprintf("file name %q does not carry a [id] suffix", base), nil)
	}
	return Item{
		ID:    match[2],
		Title: strings.TrimSpace(match[1]),
		Path:  path,
	}, nil
}

// FileName renders the deterministic output name for an item with the given
// extension. The title is sanitized the same way the fetcher sanitizes it.
func FileName(title, id, ext string) string {
	title = textutil.SanitizeFileName(title)
	if title == "" {
		title = "untitled"
	}
	return fmt.Sprintf("%s [%s].%s", title, id, strings.TrimPrefix(ext, "."))
}
