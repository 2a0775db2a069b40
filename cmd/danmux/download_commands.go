package main

import (
	"context"

	"github.com/spf13/cobra"

	"danmux/internal/pipeline"
	"danmux/internal/services/ytdlp"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var destDir string
	var force bool

	cmd := &cobra.Command{
		Use:   "download <url>...",
		Short: "Download videos and merge their comment overlays",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateURLs(args); err != nil {
				return err
			}
			return ctx.withPipeline(cmd.Context(), func(runCtx context.Context, p *pipeline.Pipeline) error {
				return p.DownloadVideo(runCtx, pipeline.Request{
					URLs:    args,
					DestDir: destDir,
					Force:   force,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&destDir, "dest", "d", "", "Destination directory for finished files")
	cmd.Flags().BoolVar(&force, "force", false, "Re-download items already in the history")
	return cmd
}

func newAudioCommand(ctx *commandContext) *cobra.Command {
	var destDir string
	var force bool

	cmd := &cobra.Command{
		Use:   "audio <url>...",
		Short: "Download and extract audio only",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateURLs(args); err != nil {
				return err
			}
			return ctx.withPipeline(cmd.Context(), func(runCtx context.Context, p *pipeline.Pipeline) error {
				return p.DownloadAudio(runCtx, pipeline.Request{
					URLs:    args,
					DestDir: destDir,
					Force:   force,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&destDir, "dest", "d", "", "Destination directory for finished files")
	cmd.Flags().BoolVar(&force, "force", false, "Re-download items already in the history")
	return cmd
}

// validateURLs rejects malformed URLs before any setup work so usage
// mistakes fail fast with the dedicated exit code.
func validateURLs(urls []string) error {
	for _, raw := range urls {
		if err := ytdlp.ValidateURL(raw); err != nil {
			return err
		}
	}
	return nil
}
