package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/chatbase"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <dir>",
		Short: "Print entry counts for a chatbase directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args[0])
		},
	}
}

func runStats(cmd *cobra.Command, dir string) error {
	manifest, err := chatbase.ReadManifest(dir)
	if err != nil {
		return err
	}
	ix, err := chatbase.Load(context.Background(), dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	stats := ix.Stats()
	fmt.Fprintf(out, "Directory: %s\n", dir)
	if !manifest.GeneratedAt.IsZero() {
		fmt.Fprintf(out, "Generated: %s (%s)\n", manifest.GeneratedAt.Format("2006-01-02 15:04"), humanize.Time(manifest.GeneratedAt))
	}
	fmt.Fprintf(out, "NPCs:      %s\n", humanize.Comma(int64(stats.NPCs)))
	fmt.Fprintf(out, "Keys:      %s\n", humanize.Comma(int64(stats.Keys)))
	fmt.Fprintf(out, "Entries:   %s\n", humanize.Comma(int64(stats.Entries)))

	npcs := slices.Clone(manifest.NPCs)
	slices.SortFunc(npcs, func(a, b chatbase.ManifestNPC) int {
		if a.Entries != b.Entries {
			return b.Entries - a.Entries
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	if len(npcs) > 0 {
		fmt.Fprintln(out)
	}
	for _, n := range npcs {
		share := 0.0
		if stats.Entries > 0 {
			share = 100 * float64(n.Entries) / float64(stats.Entries)
		}
		fmt.Fprintf(out, "  %-24s %8s  %5.1f%%\n", n.ID, humanize.Comma(int64(n.Entries)), share)
	}
	return nil
}
