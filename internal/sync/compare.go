package sync

import "time"

// ModTimeTolerance absorbs filesystem timestamp-resolution differences (FAT
// stores mtimes at 2s granularity). Timestamps within the tolerance compare
// as Same. This is the single tolerance used everywhere in the engine.
const ModTimeTolerance = 2 * time.Second

// Relation is the three-way age relation between two timestamps.
type Relation int

const (
	Older Relation = iota - 1
	Same
	Newer
)

func (r Relation) String() string {
	switch r {
	case Older:
		return "older"
	case Newer:
		return "newer"
	default:
		return "same"
	}
}

// CompareModTime relates a to b within ModTimeTolerance.
func CompareModTime(a, b time.Time) Relation {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	if diff <= ModTimeTolerance {
		return Same
	}
	if a.Before(b) {
		return Older
	}
	return Newer
}
