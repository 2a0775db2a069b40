package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"danmux/internal/pipeline"
)

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <file>...",
		Short: "Replace the comment overlays of existing files with fresh ones",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := absolutePaths(args)
			if err != nil {
				return err
			}
			return ctx.withPipeline(cmd.Context(), func(runCtx context.Context, p *pipeline.Pipeline) error {
				for _, path := range paths {
					if err := p.RefreshDanmaku(runCtx, path); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newRefetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refetch <file>...",
		Short: "Re-download existing files from their recorded sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := absolutePaths(args)
			if err != nil {
				return err
			}
			return ctx.withPipeline(cmd.Context(), func(runCtx context.Context, p *pipeline.Pipeline) error {
				for _, path := range paths {
					if err := p.RefetchVideo(runCtx, path); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func absolutePaths(args []string) ([]string, error) {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve path %q: %w", arg, err)
		}
		paths = append(paths, abs)
	}
	return paths, nil
}
