package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"danmux/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently completed downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No downloads recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				completed := ""
				if !entry.CompletedAt.IsZero() {
					completed = entry.CompletedAt.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{
					entry.ItemID,
					entry.Kind,
					entry.Title,
					completed,
					entry.Path,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Kind", "Title", "Completed", "Path"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}
