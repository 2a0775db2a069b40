package ytdlp

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"danmux/internal/logging"
	"danmux/internal/services"
)

func stubRunner(t *testing.T, fn func(args []string) *exec.Cmd) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return fn(args)
	}
	t.Cleanup(func() { commandContext = original })
}

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://www.bilibili.com/video/BV1xx411c7mD",
		"http://example.com/watch?v=abc",
	}
	for _, raw := range valid {
		if err := ValidateURL(raw); err != nil {
			t.Fatalf("ValidateURL(%q): %v", raw, err)
		}
	}

	invalid := []string{
		"",
		"not a url",
		"ftp://example.com/file",
		"/local/path.mkv",
	}
	for _, raw := range invalid {
		err := ValidateURL(raw)
		if !errors.Is(err, services.ErrUsage) {
			t.Fatalf("ValidateURL(%q): expected usage error, got %v", raw, err)
		}
	}
}

func TestVideoArgsProfile(t *testing.T) {
	c := NewClient(Options{
		Binary:              "yt-dlp",
		CookiesFile:         "/home/u/cookies.txt",
		ConcurrentFragments: 4,
	}, logging.NewNop())

	got := c.videoArgs("https://example.com/v/1", "/staging/video")
	want := []string{
		"--no-progress", "--no-warnings",
		"--cookies", "/home/u/cookies.txt",
		"--concurrent-fragments", "4",
		"--prefer-free-formats",
		"--embed-info-json",
		"--embed-thumbnail",
		"--embed-chapters",
		"--remux-video", "mkv",
		"-o", "/staging/video/%(title)s [%(id)s].%(ext)s",
		"--print", "after_move:filepath",
		"--no-simulate",
		"--", "https://example.com/v/1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("videoArgs:\n got %v\nwant %v", got, want)
	}
}

func TestVideoArgsExternalDownloader(t *testing.T) {
	c := NewClient(Options{
		ExternalDownloader: "aria2c",
		ExternalArgs:       "-x 16 -s 16 -k 1M",
		ExternalEnabled:    true,
	}, logging.NewNop())

	joined := strings.Join(c.videoArgs("https://example.com/v/1", "/d"), " ")
	if !strings.Contains(joined, "--downloader aria2c") {
		t.Fatalf("external downloader missing: %s", joined)
	}
	if !strings.Contains(joined, "--downloader-args aria2c:-x 16 -s 16 -k 1M") {
		t.Fatalf("external downloader args missing: %s", joined)
	}
}

func TestVideoArgsExternalDownloaderDisabled(t *testing.T) {
	c := NewClient(Options{
		ExternalDownloader: "aria2c",
		ExternalEnabled:    false,
	}, logging.NewNop())

	joined := strings.Join(c.videoArgs("https://example.com/v/1", "/d"), " ")
	if strings.Contains(joined, "--downloader") {
		t.Fatalf("disabled external downloader leaked into args: %s", joined)
	}
}

func TestAudioArgsProfile(t *testing.T) {
	c := NewClient(Options{AudioCodec: "opus", AudioQuality: "0"}, logging.NewNop())

	got := c.audioArgs("https://example.com/v/1", "/staging/audio")
	want := []string{
		"--no-progress", "--no-warnings",
		"-x",
		"--audio-format", "opus",
		"--audio-quality", "0",
		"--embed-metadata",
		"--embed-thumbnail",
		"--embed-chapters",
		"-o", "/staging/audio/%(title)s [%(id)s].%(ext)s",
		"--print", "after_move:filepath",
		"--no-simulate",
		"--", "https://example.com/v/1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("audioArgs:\n got %v\nwant %v", got, want)
	}
}

func TestDanmakuArgsUseSiteProfile(t *testing.T) {
	c := NewClient(Options{}, logging.NewNop())

	got := c.danmakuArgs("https://www.bilibili.com/video/BV1xx411c7mD", "/staging/danmaku")
	want := []string{
		"--no-progress", "--no-warnings",
		"--write-subs", "--sub-langs", "danmaku",
		"--skip-download",
		"-o", "/staging/danmaku/%(id)s.%(ext)s",
		"--", "https://www.bilibili.com/video/BV1xx411c7mD",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("danmakuArgs:\n got %v\nwant %v", got, want)
	}
}

func TestProfileFor(t *testing.T) {
	cases := []struct {
		url  string
		name string
	}{
		{"https://www.bilibili.com/video/BV1", "bilibili"},
		{"https://b23.tv/abc", "bilibili"},
		{"https://www.nicovideo.jp/watch/sm9", "niconico"},
		{"https://youtu.be/dQw4w9WgXcQ", "youtube"},
		{"https://example.com/v/1", "generic"},
	}
	for _, tc := range cases {
		if got := profileFor(tc.url).name; got != tc.name {
			t.Fatalf("profileFor(%q) = %q, want %q", tc.url, got, tc.name)
		}
	}
}

func TestFetchVideoParsesPrintedPaths(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "Sample Video [x9YpQ].mkv")
	second := filepath.Join(dir, "Sample Video [x9YpR].mkv")

	stubRunner(t, func(args []string) *exec.Cmd {
		return exec.Command("printf", "%s\n%s\n", first, second)
	})

	c := NewClient(Options{}, logging.NewNop())
	items, err := c.FetchVideo(context.Background(), "https://example.com/v/1", dir)
	if err != nil {
		t.Fatalf("FetchVideo: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "x9YpQ" || items[0].Title != "Sample Video" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[0].SourceURL != "https://example.com/v/1" {
		t.Fatalf("source url not carried: %+v", items[0])
	}
	if items[1].Path != second {
		t.Fatalf("unexpected second path: %q", items[1].Path)
	}
}

func TestFetchVideoEmptyOutputFails(t *testing.T) {
	stubRunner(t, func(args []string) *exec.Cmd {
		return exec.Command("true")
	})

	c := NewClient(Options{}, logging.NewNop())
	_, err := c.FetchVideo(context.Background(), "https://example.com/v/1", t.TempDir())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestFetchVideoToolFailure(t *testing.T) {
	stubRunner(t, func(args []string) *exec.Cmd {
		return exec.Command("false")
	})

	c := NewClient(Options{}, logging.NewNop())
	_, err := c.FetchVideo(context.Background(), "https://example.com/v/1", t.TempDir())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestFetchDanmakuReturnsOnlyNewFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "existing.ass"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	stubRunner(t, func(args []string) *exec.Cmd {
		if err := os.WriteFile(filepath.Join(dir, "BV1.danmaku.xml"), []byte("<d/>"), 0o644); err != nil {
			t.Fatal(err)
		}
		return exec.Command("true")
	})

	c := NewClient(Options{}, logging.NewNop())
	files, err := c.FetchDanmaku(context.Background(), "https://www.bilibili.com/video/BV1", dir)
	if err != nil {
		t.Fatalf("FetchDanmaku: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "BV1.danmaku.xml" {
		t.Fatalf("unexpected files: %v", files)
	}
}

func TestFetchRejectsMalformedURL(t *testing.T) {
	stubRunner(t, func(args []string) *exec.Cmd {
		t.Fatal("downloader must not run for a malformed URL")
		return nil
	})

	c := NewClient(Options{}, logging.NewNop())
	if _, err := c.FetchVideo(context.Background(), "not a url", t.TempDir()); !errors.Is(err, services.ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if _, err := c.FetchDanmaku(context.Background(), "", t.TempDir()); !errors.Is(err, services.ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}
