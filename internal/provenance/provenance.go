// Package provenance reads the machine-readable provenance record embedded
// as an attachment inside produced containers.
//
// The record is the info.json the fetcher embeds at creation time; it is
// never patched in place. Update workflows re-derive source identity from
// it and rebuild the container through the regular pipeline.
package provenance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"danmux/internal/logging"
	"danmux/internal/media/ffprobe"
	"danmux/internal/services"
)

// AttachmentName is the fixed name of the provenance attachment.
const AttachmentName = "info.json"

// Record field keys understood by the update workflows.
const (
	KeySourceURL = "webpage_url"
	KeyID        = "id"
	KeyTitle     = "title"
)

var (
	commandContext = exec.CommandContext
	inspect        = ffprobe.Inspect
)

// Store extracts provenance fields from containers.
type Store struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
}

// NewStore constructs a provenance store using the given binaries.
func NewStore(ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *Store {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	return &Store{
		ffmpeg:  ffmpegBinary,
		ffprobe: ffprobeBinary,
		logger:  logging.NewComponentLogger(logger, "provenance"),
	}
}

// Extract locates the provenance attachment inside containerPath and returns
// the value of the addressed field. A missing attachment or an absent/empty
// field yields a not-found error; callers cannot proceed without it.
func (s *Store) Extract(ctx context.Context, containerPath, key string) (string, error) {
	if _, err := os.Stat(containerPath); err != nil {
		return "", services.Wrap(services.ErrNotFound, "provenance", "extract", containerPath, err)
	}

	probe, err := inspect(ctx, s.ffprobe, containerPath)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "provenance", "extract", "probe container", err)
	}
	index := probe.AttachmentIndex(AttachmentName)
	if index < 0 {
		return "", services.Wrap(services.ErrNotFound, "provenance", "extract",
			fmt.Sprintf("no %s attachment in %s", AttachmentName, containerPath), nil)
	}

	record, err := s.dumpRecord(ctx, containerPath, index)
	if err != nil {
		return "", err
	}

	value, err := fieldString(record, key)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "provenance", "extract",
			fmt.Sprintf("field %q in %s", key, containerPath), err)
	}
	return value, nil
}

func (s *Store) dumpRecord(ctx context.Context, containerPath string, index int) (map[string]any, error) {
	tmp, err := os.CreateTemp("", "danmux-provenance-*.json")
	if err != nil {
		return nil, fmt.Errorf("create provenance temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	// ffmpeg exits nonzero for dump-only invocations even when the
	// attachment was written; trust the dumped file over the exit status.
	cmd := commandContext(ctx, s.ffmpeg,
		"-hide_banner", "-nostdin", "-v", "error",
		"-dump_attachment:"+strconv.Itoa(index), tmpPath,
		"-i", containerPath,
	)
	runErr := cmd.Run()

	data, readErr := os.ReadFile(tmpPath)
	if readErr != nil || len(data) == 0 {
		if runErr != nil {
			return nil, services.Wrap(services.ErrExternalTool, "provenance", "dump attachment", "", runErr)
		}
		return nil, services.Wrap(services.ErrExternalTool, "provenance", "dump attachment", "empty attachment dump", readErr)
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, services.Wrap(services.ErrValidation, "provenance", "parse attachment", "", err)
	}
	return record, nil
}

func fieldString(record map[string]any, key string) (string, error) {
	raw, ok := record[key]
	if !ok {
		return "", fmt.Errorf("field absent")
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("field empty")
		}
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("field has unsupported type %T", raw)
	}
}
