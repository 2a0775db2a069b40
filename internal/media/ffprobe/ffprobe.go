package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Tags captures per-stream metadata tags.
type Tags struct {
	Title    string `json:"title"`
	Language string `json:"language"`
	Filename string `json:"filename"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Tags      Tags   `json:"tags"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON
// response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := commandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, detail)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// IsSubtitle reports whether the stream is a subtitle-type stream.
func (s Stream) IsSubtitle() bool {
	return strings.EqualFold(s.CodecType, "subtitle")
}

// IsAttachment reports whether the stream is an attachment-type stream.
func (s Stream) IsAttachment() bool {
	return strings.EqualFold(s.CodecType, "attachment")
}

// StreamCount returns the number of streams discovered.
func (r Result) StreamCount() int {
	return len(r.Streams)
}

// AttachmentIndex returns the index of the first attachment stream carrying
// the given filename tag, or -1 when absent.
func (r Result) AttachmentIndex(filename string) int {
	for _, stream := range r.Streams {
		if stream.IsAttachment() && stream.Tags.Filename == filename {
			return stream.Index
		}
	}
	return -1
}
