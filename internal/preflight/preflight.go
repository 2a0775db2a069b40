// Package preflight verifies the runtime environment before a workflow
// starts: external binaries on PATH, directory permissions, and free space.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"danmux/internal/config"
	"danmux/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckFreeSpace(cfg.Paths.StagingDir, cfg.Workflow.MinFreeSpaceGiB))
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available || status.Optional,
			Detail: depDetail(status),
		})
	}
	return results
}

// Failed reports whether any check in results did not pass.
func Failed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return true
		}
	}
	return false
}

// CheckDirectoryAccess verifies that the directory exists and is readable,
// writable, and traversable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minGiB
// gibibytes available. A zero minimum disables the check.
func CheckFreeSpace(path string, minGiB int) Result {
	const name = "Free space"
	if minGiB <= 0 {
		return Result{Name: name, Passed: true, Detail: "check disabled"}
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	availableGiB := float64(stat.Bavail) * float64(stat.Bsize) / (1 << 30)
	if availableGiB < float64(minGiB) {
		return Result{Name: name, Detail: fmt.Sprintf("%.1f GiB available, %d GiB required", availableGiB, minGiB)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%.1f GiB available", availableGiB)}
}

// CheckSystemDeps evaluates the external binaries the configured workflows
// need. The CLI status command renders this list directly.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Fetcher.Binary,
			Description: "Required for downloading media",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for container merging",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
	}
	switch cfg.Danmaku.Backend {
	case "yutto":
		requirements = append(requirements, deps.Requirement{
			Name:        "yutto",
			Command:     cfg.Danmaku.YuttoBinary,
			Description: "Required for comment downloads",
		})
	case "convert":
		requirements = append(requirements, deps.Requirement{
			Name:        "danmaku2ass",
			Command:     cfg.Danmaku.ConverterBinary,
			Description: "Required for comment conversion",
		})
	default:
		requirements = append(requirements,
			deps.Requirement{
				Name:        "yutto",
				Command:     cfg.Danmaku.YuttoBinary,
				Description: "Preferred comment downloader for bilibili sources",
				Optional:    true,
			},
			deps.Requirement{
				Name:        "danmaku2ass",
				Command:     cfg.Danmaku.ConverterBinary,
				Description: "Required for comment conversion when yutto is absent",
			},
		)
	}
	if cfg.Fetcher.ExternalEnabled {
		requirements = append(requirements, deps.Requirement{
			Name:        "External downloader",
			Command:     cfg.Fetcher.ExternalDownloader,
			Description: "Configured download accelerator",
		})
	}
	return deps.CheckBinaries(requirements)
}

func depDetail(status deps.Status) string {
	if status.Available {
		return status.Command
	}
	if status.Optional {
		return status.Detail + " (optional)"
	}
	return status.Detail
}
