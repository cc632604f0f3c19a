package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var resolveBase = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// tree builds an in-memory snapshot from relPath -> seconds offset from base.
func tree(offsets map[string]int) *TreeSnapshot {
	s := NewTreeSnapshot("/fake")
	for p, off := range offsets {
		s.Files[p] = &FileRecord{
			RelPath: p,
			Size:    64,
			ModTime: resolveBase.Add(time.Duration(off) * time.Second),
		}
	}
	return s
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		left  map[string]int
		right map[string]int
		want  Verdict
	}{
		{
			name:  "both empty",
			left:  map[string]int{},
			right: map[string]int{},
			want:  Equal,
		},
		{
			name:  "identical trees",
			left:  map[string]int{"save.dat": 0, "cfg/opts.ini": 100},
			right: map[string]int{"save.dat": 0, "cfg/opts.ini": 100},
			want:  Equal,
		},
		{
			name:  "timestamps within tolerance are equal",
			left:  map[string]int{"save.dat": 0},
			right: map[string]int{"save.dat": 1},
			want:  Equal,
		},
		{
			name:  "right has newer shared file",
			left:  map[string]int{"save.dat": 0},
			right: map[string]int{"save.dat": 10},
			want:  RightNewer,
		},
		{
			name:  "left has newer shared file",
			left:  map[string]int{"save.dat": 10},
			right: map[string]int{"save.dat": 0},
			want:  LeftNewer,
		},
		{
			name:  "split ages conflict",
			left:  map[string]int{"a.sav": 0, "b.sav": 0},
			right: map[string]int{"a.sav": 10, "b.sav": -10},
			want:  Conflict,
		},
		{
			name:  "left strict superset with equal shared file",
			left:  map[string]int{"a.sav": 0, "b.sav": 0},
			right: map[string]int{"a.sav": 0},
			want:  LeftNewer,
		},
		{
			name:  "right strict superset with equal shared file",
			left:  map[string]int{"a.sav": 0},
			right: map[string]int{"a.sav": 0, "b.sav": 0},
			want:  RightNewer,
		},
		{
			name:  "both sides have unique extras",
			left:  map[string]int{"a.sav": 0, "only-left.sav": 0},
			right: map[string]int{"a.sav": 0, "only-right.sav": 0},
			want:  Conflict,
		},
		{
			name:  "no shared files at all",
			left:  map[string]int{"only-left.sav": 0},
			right: map[string]int{"only-right.sav": 0},
			want:  Conflict,
		},
		{
			name:  "newer shared file beats extra file on the other side",
			left:  map[string]int{"a.sav": 10},
			right: map[string]int{"a.sav": 0, "extra.sav": 0},
			want:  LeftNewer,
		},
		{
			name:  "newer on one file but older on another",
			left:  map[string]int{"a.sav": 10, "b.sav": -10},
			right: map[string]int{"a.sav": 0, "b.sav": 0},
			want:  Conflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, right := tree(tt.left), tree(tt.right)
			assert.Equal(t, tt.want, Resolve(left, right))

			// symmetry: swapping the trees mirrors the verdict
			mirrored := Resolve(right, left)
			switch tt.want {
			case LeftNewer:
				assert.Equal(t, RightNewer, mirrored)
			case RightNewer:
				assert.Equal(t, LeftNewer, mirrored)
			default:
				assert.Equal(t, tt.want, mirrored)
			}
		})
	}
}

func TestResolveSelfIsAlwaysEqual(t *testing.T) {
	s := tree(map[string]int{"a.sav": 0, "b.sav": 500, "dir/c.sav": -500})
	assert.Equal(t, Equal, Resolve(s, s))
}

// A LeftNewer verdict promises no shared file is strictly newer on the right.
func TestResolveNoSilentRegression(t *testing.T) {
	trees := []map[string]int{
		{"a.sav": 10, "b.sav": 10},
		{"a.sav": 10, "b.sav": 0},
		{"a.sav": 0, "b.sav": 0, "c.sav": 0},
	}
	right := tree(map[string]int{"a.sav": 0, "b.sav": 0})

	for _, offsets := range trees {
		left := tree(offsets)
		if Resolve(left, right) != LeftNewer {
			continue
		}
		for p, rec := range right.Files {
			if l, ok := left.Files[p]; ok {
				assert.NotEqual(t, Newer, CompareModTime(rec.ModTime, l.ModTime),
					"right %s must not be newer under a LeftNewer verdict", p)
			}
		}
	}
}
