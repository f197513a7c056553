package selector

import (
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

const (
	defaultDiversityWindow  = 6
	defaultDiversityPenalty = 0.35

	// trackedNPCs bounds how many speakers keep a usage window.
	trackedNPCs = 1024
)

// UsageTracker remembers the most recent templates spoken by each NPC. NPCs
// that have not spoken for a long time are forgotten first.
type UsageTracker struct {
	mu     sync.Mutex
	window int
	recent *lru.Cache[types.NPCID, []string]
}

// NewUsageTracker returns a tracker keeping the last window template ids per
// NPC. A non-positive window disables tracking.
func NewUsageTracker(window int) *UsageTracker {
	c, err := lru.New[types.NPCID, []string](trackedNPCs)
	if err != nil {
		// Only fails for a non-positive size.
		panic("selector: usage cache: " + err.Error())
	}
	return &UsageTracker{window: window, recent: c}
}

// Record notes that npc spoke template id.
func (u *UsageTracker) Record(npc types.NPCID, id string) {
	if u.window <= 0 {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	ids, _ := u.recent.Get(npc)
	ids = append(slices.Clone(ids), id)
	if len(ids) > u.window {
		ids = ids[len(ids)-u.window:]
	}
	u.recent.Add(npc, ids)
}

// Recent returns npc's recent template ids, oldest first.
func (u *UsageTracker) Recent(npc types.NPCID) []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	ids, _ := u.recent.Peek(npc)
	return slices.Clone(ids)
}

// Count returns how often npc spoke id within the window.
func (u *UsageTracker) Count(npc types.NPCID, id string) int {
	n := 0
	for _, v := range u.Recent(npc) {
		if v == id {
			n++
		}
	}
	return n
}

// Reset forgets all usage.
func (u *UsageTracker) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.recent.Purge()
}
