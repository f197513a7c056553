package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/behavior"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/chatbase"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

type lookupFlags struct {
	npc      string
	key      string
	seed     uint64
	turn     int64
	domain   string
	intent   string
	behavior string
}

func lookupCmd() *cobra.Command {
	var f lookupFlags
	cmd := &cobra.Command{
		Use:   "lookup <dir>",
		Short: "Resolve one context key for an NPC",
		Example: `  chatbase lookup ./chatbase --npc mr-bones \
    --key "greeting|neutral|neutral|mid|stranger|calm|opening"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.npc, "npc", "", "NPC id to look up")
	cmd.Flags().StringVar(&f.key, "key", "", "context key, pipe separated")
	cmd.Flags().Uint64Var(&f.seed, "seed", 1, "seed for the weighted draw")
	cmd.Flags().Int64Var(&f.turn, "turn", 0, "turn checked against entry triggers")
	cmd.Flags().StringVar(&f.domain, "domain", "", "domain checked against entry triggers")
	cmd.Flags().StringVar(&f.intent, "intent", "", "intent checked against entry triggers")
	cmd.Flags().StringVar(&f.behavior, "behavior", "", "behavioural state checked against entry triggers")
	_ = cmd.MarkFlagRequired("npc")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func runLookup(cmd *cobra.Command, dir string, f lookupFlags) error {
	key, err := chatbase.ParseKey(f.key)
	if err != nil {
		return err
	}
	lc := chatbase.LookupContext{Turn: f.turn, Domain: f.domain, Intent: f.intent}
	if f.behavior != "" {
		lc.Behavior = behavior.State(f.behavior)
		if !lc.Behavior.IsValid() {
			return fmt.Errorf("unknown behavioural state %q", f.behavior)
		}
	}

	ix, err := chatbase.Load(context.Background(), dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	npc := types.NPCID(f.npc)
	own := ix.Entries(npc, key)
	shared := ix.Entries(chatbase.SharedNPC, key)
	fmt.Fprintf(out, "Key: %s\n", key)
	fmt.Fprintf(out, "Candidates: %d own, %d shared\n", len(own), len(shared))

	hit, ok := ix.Lookup(npc, key, lc, rng.New(f.seed))
	if !ok {
		fmt.Fprintln(out, "Result: clean miss")
		return nil
	}
	owner := hit.Entry.NPC
	if owner == "" {
		owner = chatbase.SharedNPC
	}
	fmt.Fprintf(out, "Result: hit\n")
	fmt.Fprintf(out, "  entry:      %s (owner %s)\n", hit.Entry.ID, owner)
	fmt.Fprintf(out, "  response:   %s\n", hit.ResponseID)
	fmt.Fprintf(out, "  confidence: %.2f\n", hit.Confidence)
	return nil
}
