package sync

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Verdict is the whole-tree directionality of two snapshots. It is derived
// fresh from a pair of snapshots and never stored.
type Verdict int

const (
	Equal Verdict = iota
	LeftNewer
	RightNewer
	Conflict
)

func (v Verdict) String() string {
	switch v {
	case Equal:
		return "equal"
	case LeftNewer:
		return "left-newer"
	case RightNewer:
		return "right-newer"
	default:
		return "conflict"
	}
}

// Resolve decides which tree, if either, is authoritative.
//
// A side is a candidate winner when it never lags the other on any shared
// file, and it is strictly ahead somewhere: either at least one shared file
// is newer on that side, or it has extra files while the other side has none.
// Exactly one candidate wins; anything else is a conflict, because guessing
// wrong here destroys the newer copy of someone's data.
func Resolve(left, right *TreeSnapshot) Verdict {
	leftPaths := mapset.NewThreadUnsafeSet[string]()
	for p := range left.Files {
		leftPaths.Add(p)
	}
	rightPaths := mapset.NewThreadUnsafeSet[string]()
	for p := range right.Files {
		rightPaths.Add(p)
	}

	common := leftPaths.Intersect(rightPaths)
	leftOnly := leftPaths.Difference(rightPaths)
	rightOnly := rightPaths.Difference(leftPaths)

	var leftLags, rightLags, anyDiffers bool
	for p := range common.Iter() {
		switch CompareModTime(left.Files[p].ModTime, right.Files[p].ModTime) {
		case Older:
			leftLags = true
			anyDiffers = true
		case Newer:
			rightLags = true
			anyDiffers = true
		}
	}

	if !anyDiffers && leftOnly.IsEmpty() && rightOnly.IsEmpty() {
		return Equal
	}

	// Files unique to one side are a presence asymmetry, not an age signal.
	leftWins := !leftLags && (rightLags || (!leftOnly.IsEmpty() && rightOnly.IsEmpty()))
	rightWins := !rightLags && (leftLags || (!rightOnly.IsEmpty() && leftOnly.IsEmpty()))

	switch {
	case leftWins && !rightWins:
		return LeftNewer
	case rightWins && !leftWins:
		return RightNewer
	default:
		return Conflict
	}
}
