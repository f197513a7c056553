package search

import (
	"math"

	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// Score rates how far participant idx of root has progressed towards its
// objective in s. The result lies in (0, 1); 0.5 means no progress.
func Score(root, s Snapshot, idx int) float64 {
	if idx < 0 || idx >= len(root.Participants) || len(root.Participants) < 2 {
		return 0.5
	}
	me := root.Participants[idx]
	them := root.Participants[(idx+1)%len(root.Participants)]

	// How the other party's view of me changed.
	before := root.Relationship(them.ID, me.ID)
	after := s.Relationship(them.ID, me.ID)
	d := func(k types.StatKey) float64 { return after.Get(k) - before.Get(k) }

	turns := float64(s.Turn - root.Turn)

	var raw float64
	switch me.Objective {
	case types.ObjectiveBuildTrust:
		raw = d(types.StatTrust) + 0.5*d(types.StatAffection)
	case types.ObjectiveProvokeConflict:
		raw = d(types.StatTension) - 0.3*d(types.StatAffection)
	case types.ObjectiveExtractInformation:
		raw = 0.5*d(types.StatTrust) + 0.5*d(types.StatFamiliarity) + 2*float64(s.Thread.Depth)
	case types.ObjectiveEndConversation:
		if s.Thread.Ended {
			raw = 30 - 3*turns
		} else {
			raw = -turns - 0.5*d(types.StatTension)
		}
	case types.ObjectiveIntimidate:
		raw = d(types.StatFear) + 0.3*d(types.StatRespect)
	case types.ObjectiveMakeSale:
		raw = d(types.StatTrust) + 0.5*d(types.StatRespect) - 0.5*d(types.StatTension)
	default:
		raw = 0.5*d(types.StatAffection) + 0.5*d(types.StatTrust) - 0.25*d(types.StatTension)
	}
	return 1 / (1 + math.Exp(-raw/10))
}
