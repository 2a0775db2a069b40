// Package workspace manages the scratch directory tree owned by a single
// pipeline invocation.
//
// Each invocation gets a unique, permission-restricted directory with one
// subdirectory per pipeline stage. The workspace is removed on every exit
// path; callers defer Close immediately after New.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Stage subdirectory names inside a workspace.
const (
	videoSubdir   = "video"
	danmakuSubdir = "danmaku"
	overlaySubdir = "overlays"
	workSubdir    = "work"
)

// Workspace is an exclusively owned scratch directory tree.
type Workspace struct {
	root string
}

// New creates a workspace under baseDir. The root carries 0700 permissions
// so concurrent invocations under a shared staging directory cannot observe
// each other's partial artifacts.
func New(baseDir string) (*Workspace, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging base: %w", err)
	}

	root := filepath.Join(baseDir, "danmux-"+uuid.NewString())
	if err := os.Mkdir(root, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	ws := &Workspace{root: root}
	for _, sub := range []string{videoSubdir, danmakuSubdir, overlaySubdir, workSubdir} {
		if err := os.Mkdir(filepath.Join(root, sub), 0o700); err != nil {
			_ = ws.Close()
			return nil, fmt.Errorf("create workspace subdir %s: %w", sub, err)
		}
	}
	return ws, nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string { return w.root }

// VideoDir holds raw fetched media containers.
func (w *Workspace) VideoDir() string { return filepath.Join(w.root, videoSubdir) }

// DanmakuDir holds raw fetched comment streams awaiting conversion.
func (w *Workspace) DanmakuDir() string { return filepath.Join(w.root, danmakuSubdir) }

// OverlayDir holds converted overlay files ready for correlation.
func (w *Workspace) OverlayDir() string { return filepath.Join(w.root, overlaySubdir) }

// WorkDir holds transient working copies during rebuild/embed.
func (w *Workspace) WorkDir() string { return filepath.Join(w.root, workSubdir) }

// Close removes the entire workspace tree. Safe to call multiple times.
func (w *Workspace) Close() error {
	if w == nil || w.root == "" {
		return nil
	}
	err := os.RemoveAll(w.root)
	w.root = ""
	return err
}
