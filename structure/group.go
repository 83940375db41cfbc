// Package structure maintains the structural index of a playlist's tag
// sequence: header, footer, segment or variant groups, and the spans of
// spanning tags. An Engine owns the tags and keeps the index current,
// patching it after small edits and rebuilding it after structural ones.
package structure

import (
	"time"

	"github.com/anlaneg/hlsedit/parse"
)

// Range is an inclusive index range.
type Range struct {
	Start int
	End   int
}

func (r Range) Contains(i int) bool {
	return i >= r.Start && i <= r.End
}

func (r Range) Len() int {
	return r.End - r.Start + 1
}

func (r Range) shift(d int) Range {
	return Range{r.Start + d, r.End + d}
}

// TagGroup is a contiguous run of tags.
type TagGroup struct {
	Range Range
}

// TimeRange is the half-open interval [Start, Start+Duration).
type TimeRange struct {
	Start    time.Duration
	Duration time.Duration
}

func (t TimeRange) End() time.Duration {
	return t.Start + t.Duration
}

func (t TimeRange) Contains(d time.Duration) bool {
	return d >= t.Start && d < t.End()
}

// MediaGroup holds the tags of one media segment, closed by its location line.
type MediaGroup struct {
	TagGroup
	MediaSequence int
	Time          TimeRange
	Discontinuity bool
}

// VariantGroup holds the tags describing one variant stream of a master playlist.
type VariantGroup struct {
	TagGroup
}

// Span is the zone of effect of one spanning tag. Range indexes segment
// groups, not tags.
type Span struct {
	Tag      parse.Tag
	TagIndex int
	Range    Range
}
