package danmaku

import (
	"bufio"
	"os"
	"strings"
)

// minedSESSDATA extracts the bilibili session cookie from a Netscape-format
// cookies file. An unreadable file or an absent cookie yields the empty
// string; anonymous comment fetches still work, they just see less.
func minedSESSDATA(cookiesFile string) string {
	if cookiesFile == "" {
		return ""
	}
	file, err := os.Open(cookiesFile)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}
		if !strings.Contains(fields[0], "bilibili") {
			continue
		}
		if fields[5] == "SESSDATA" {
			return fields[6]
		}
	}
	return ""
}
