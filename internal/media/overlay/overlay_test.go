package overlay_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"danmux/internal/media/ffprobe"
	"danmux/internal/media/overlay"
)

func TestMatchesID(t *testing.T) {
	cases := []struct {
		name string
		id   string
		want bool
	}{
		{"BV1xy.ass", "BV1xy", true},
		{"BV1xy_p1.ass", "BV1xy", true},
		{"BV1xy_p12.ass", "BV1xy", true},
		{"BV1xy.xml.ass", "BV1xy", true},
		{"BV1xy_p2.xml.ass", "BV1xy", true},
		{"OTHER.ass", "BV1xy", false},
		{"BV1xy.srt", "BV1xy", false},
		{"BV1xy_p.ass", "BV1xy", false},
		{"BV1xy_px.ass", "BV1xy", false},
		{"BV1xyz.ass", "BV1xy", false},
		{"BV1xy.ass", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := overlay.MatchesID(tc.name, tc.id); got != tc.want {
				t.Fatalf("MatchesID(%q, %q) = %v, want %v", tc.name, tc.id, got, tc.want)
			}
		})
	}
}

func TestPartName(t *testing.T) {
	if got := overlay.PartName("ID", 0); got != "ID.ass" {
		t.Fatalf("unexpected single-part name %q", got)
	}
	if got := overlay.PartName("ID", 3); got != "ID_p3.ass" {
		t.Fatalf("unexpected part name %q", got)
	}
}

func TestSelectOverlaysMatchesInDiscoveryOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ID.ass", "ID_p1.ass", "OTHER.ass"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("[Script Info]"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := overlay.SelectOverlays("ID", dir)
	if err != nil {
		t.Fatalf("SelectOverlays: %v", err)
	}
	want := []string{filepath.Join(dir, "ID.ass"), filepath.Join(dir, "ID_p1.ass")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSelectOverlaysEmptyCases(t *testing.T) {
	got, err := overlay.SelectOverlays("ID", filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "UNRELATED.ass"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = overlay.SelectOverlays("ID", dir)
	if err != nil {
		t.Fatalf("SelectOverlays: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func subtitleStream(index int, title string) ffprobe.Stream {
	return ffprobe.Stream{Index: index, CodecType: "subtitle", Tags: ffprobe.Tags{Title: title}}
}

func TestKeepStreamIndicesExcludesOnlyMarkedSubtitles(t *testing.T) {
	probe := ffprobe.Result{Streams: []ffprobe.Stream{
		{Index: 0, CodecType: "video"},
		{Index: 1, CodecType: "audio"},
		subtitleStream(2, "English"),
		subtitleStream(3, overlay.TrackTitle),
		{Index: 4, CodecType: "attachment", Tags: ffprobe.Tags{Filename: "info.json"}},
	}}

	got := overlay.KeepStreamIndices(probe)
	want := []int{0, 1, 2, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if overlay.DegenerateKeepAll(probe) {
		t.Fatal("container with real streams must not be degenerate")
	}
}

func TestKeepStreamIndicesKeepAllFallback(t *testing.T) {
	probe := ffprobe.Result{Streams: []ffprobe.Stream{
		subtitleStream(0, overlay.TrackTitle),
		subtitleStream(1, overlay.TrackTitle),
	}}

	got := overlay.KeepStreamIndices(probe)
	want := []int{0, 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keep-all fallback broken: got %v, want %v", got, want)
	}
	if !overlay.DegenerateKeepAll(probe) {
		t.Fatal("expected degenerate container to be reported")
	}
}

func TestKeepStreamIndicesIdempotentAfterStrip(t *testing.T) {
	probe := ffprobe.Result{Streams: []ffprobe.Stream{
		{Index: 0, CodecType: "video"},
		{Index: 1, CodecType: "audio"},
		subtitleStream(2, overlay.TrackTitle),
	}}
	first := overlay.KeepStreamIndices(probe)

	// Simulate the rebuilt container: kept streams reindexed from zero.
	stripped := ffprobe.Result{Streams: []ffprobe.Stream{
		{Index: 0, CodecType: "video"},
		{Index: 1, CodecType: "audio"},
	}}
	second := overlay.KeepStreamIndices(stripped)
	if !reflect.DeepEqual(first, []int{0, 1}) || !reflect.DeepEqual(second, []int{0, 1}) {
		t.Fatalf("refresh not idempotent: first %v second %v", first, second)
	}
}
