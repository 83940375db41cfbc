package playlist

import (
	"slices"
	"time"

	"github.com/anlaneg/hlsedit/parse"
	"github.com/anlaneg/hlsedit/structure"
)

// Media is an editable media playlist.
//
// A *Media shares its state with every pointer to it. Copy returns a value
// that behaves independently: both copies read the same tags until one of
// them is edited, which then works on its own clone.
type Media struct {
	URL     string
	BuiltAt time.Time
	Size    int

	document[structure.Media]
}

func newMedia(url string, size int, builtAt time.Time, eng *structure.Engine[structure.Media]) *Media {
	return &Media{
		URL:      url,
		BuiltAt:  builtAt,
		Size:     size,
		document: document[structure.Media]{h: newHandle(eng)},
	}
}

func (m *Media) Copy() *Media {
	c := *m
	c.document = document[structure.Media]{h: m.h.share()}
	return &c
}

// View runs fn with the tags and the structure built from them, both read
// under one lock. fn must not call back into m.
func (m *Media) View(fn func(tags []parse.Tag, s structure.Media)) {
	m.h.engine().View(fn)
}

// Structure returns the current structure of the playlist.
func (m *Media) Structure() structure.Media {
	return m.h.engine().Structure()
}

func (m *Media) Header() (structure.TagGroup, bool) {
	s := m.Structure()
	if s.Header == nil {
		return structure.TagGroup{}, false
	}
	return *s.Header, true
}

func (m *Media) Footer() (structure.TagGroup, bool) {
	s := m.Structure()
	if s.Footer == nil {
		return structure.TagGroup{}, false
	}
	return *s.Footer, true
}

func (m *Media) SegmentGroups() []structure.MediaGroup {
	return slices.Clone(m.Structure().Groups)
}

func (m *Media) Spans() []structure.Span {
	return slices.Clone(m.Structure().Spans)
}

func (m *Media) Type() (typ PlaylistType) {
	m.View(func(tags []parse.Tag, _ structure.Media) {
		typ = detectType(tags)
	})
	return typ
}

// SegmentName returns the location line of the segment with media
// sequence seq.
func (m *Media) SegmentName(seq int) (name string, ok bool) {
	m.View(func(tags []parse.Tag, s structure.Media) {
		g, found := s.GroupForMediaSequence(seq)
		if !found {
			return
		}
		if t := tags[s.Groups[g].Range.End]; t.Kind == parse.Location {
			name, ok = t.Value, true
		}
	})
	return name, ok
}

// tail returns the location line closing the last segment and the index
// right after that segment.
func (m *Media) tail() (marker string, at int) {
	m.View(func(tags []parse.Tag, s structure.Media) {
		if len(s.Groups) == 0 {
			return
		}
		end := s.Groups[len(s.Groups)-1].Range.End
		if t := tags[end]; t.Kind == parse.Location {
			marker = t.Value
		}
		at = end + 1
	})
	return marker, at
}

// timeline runs fn only for bounded playlists and reports whether it ran.
func (m *Media) timeline(fn func(s structure.Media)) bool {
	bounded := false
	m.View(func(tags []parse.Tag, s structure.Media) {
		if bounded = detectType(tags).Bounded(); bounded {
			fn(s)
		}
	})
	return bounded
}

// Timeline queries. They report false for live playlists, whose segments
// may slide out of the window, and when nothing matches.

func (m *Media) SegmentGroupForTime(t time.Duration) (g structure.MediaGroup, ok bool) {
	m.timeline(func(s structure.Media) {
		var i int
		if i, ok = s.GroupForTime(t); ok {
			g = s.Groups[i]
		}
	})
	return g, ok
}

func (m *Media) SegmentGroupForTagIndex(idx int) (g structure.MediaGroup, ok bool) {
	m.timeline(func(s structure.Media) {
		var i int
		if i, ok = s.GroupForTagIndex(idx); ok {
			g = s.Groups[i]
		}
	})
	return g, ok
}

func (m *Media) SegmentGroupForMediaSequence(seq int) (g structure.MediaGroup, ok bool) {
	m.timeline(func(s structure.Media) {
		var i int
		if i, ok = s.GroupForMediaSequence(seq); ok {
			g = s.Groups[i]
		}
	})
	return g, ok
}

func (m *Media) MediaSequenceForTime(t time.Duration) (int, bool) {
	g, ok := m.SegmentGroupForTime(t)
	return g.MediaSequence, ok
}

func (m *Media) MediaSequenceForTagIndex(idx int) (int, bool) {
	g, ok := m.SegmentGroupForTagIndex(idx)
	return g.MediaSequence, ok
}

func (m *Media) TimeRangeForTagIndex(idx int) (structure.TimeRange, bool) {
	g, ok := m.SegmentGroupForTagIndex(idx)
	return g.Time, ok
}

func (m *Media) TimeRangeForMediaSequence(seq int) (structure.TimeRange, bool) {
	g, ok := m.SegmentGroupForMediaSequence(seq)
	return g.Time, ok
}

func (m *Media) TagIndexesForTime(t time.Duration) (structure.Range, bool) {
	g, ok := m.SegmentGroupForTime(t)
	return g.Range, ok
}

func (m *Media) TagIndexesForMediaSequence(seq int) (structure.Range, bool) {
	g, ok := m.SegmentGroupForMediaSequence(seq)
	return g.Range, ok
}

func (m *Media) StartTime() (d time.Duration, ok bool) {
	m.timeline(func(s structure.Media) {
		d, ok = s.StartTime()
	})
	return d, ok
}

func (m *Media) EndTime() (d time.Duration, ok bool) {
	m.timeline(func(s structure.Media) {
		d, ok = s.EndTime()
	})
	return d, ok
}

func (m *Media) Duration() (d time.Duration, ok bool) {
	m.timeline(func(s structure.Media) {
		d, ok = s.Duration()
	})
	return d, ok
}
