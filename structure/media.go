package structure

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/anlaneg/hlsedit/metrics"
	"github.com/anlaneg/hlsedit/parse"
)

// Media is the structure of a media playlist. Header and Footer are nil
// when absent. Groups are contiguous and ordered; the header ends right
// before the first group and the footer starts right after the last.
type Media struct {
	Header *TagGroup
	Groups []MediaGroup
	Footer *TagGroup
	Spans  []Span

	// degenerate is set when the tags could not be structured and the
	// whole sequence was reported as header
	degenerate bool
}

// Degenerate reports whether the last rebuild found the tag sequence
// malformed and fell back to a header-only structure.
func (s Media) Degenerate() bool {
	return s.degenerate
}

var (
	errNoDuration   = errors.New("segment has no positive duration")
	errNoLocation   = errors.New("segment has no location line")
	errStrayTag     = errors.New("whole-playlist tag between segments")
	errBadSequence  = errors.New("malformed media sequence")
	errNilTagKind   = errors.New("tag has no kind")
	errRebuildPanic = errors.New("rebuild panic")
)

// MediaDelegate structures media playlists.
type MediaDelegate struct {
	Log zerolog.Logger
}

func (MediaDelegate) Shape() string { return "media" }

func (MediaDelegate) IsStructural(t parse.Tag) bool {
	if t.Kind == nil {
		return true
	}
	switch t.Kind {
	case parse.Location, parse.MediaSequence, parse.Skip, parse.ExtInf, parse.Discontinuity:
		return true
	}
	return t.Kind.Scope() == parse.ScopeSpanning
}

func (d MediaDelegate) Rebuild(tags []parse.Tag) Media {
	s, err := buildMedia(tags)
	if err != nil {
		d.Log.Debug().Err(err).Int("tags", len(tags)).Msg("media structure degenerate, reporting all tags as header")
		metrics.StructureDegenerate.WithLabelValues(d.Shape()).Inc()
		return degenerateMedia(tags)
	}
	return s
}

func (d MediaDelegate) Patch(edit Edit, tags []parse.Tag, prev Media) (Media, bool) {
	next, ok := patchMedia(edit, prev)
	if !ok {
		d.Log.Debug().Int("delta", edit.Delta).Int("at", edit.At).Msg("media patch aborted, rebuilding")
		metrics.StructurePatchAborts.WithLabelValues(d.Shape()).Inc()
		return d.Rebuild(tags), true
	}
	next.Spans = buildSpans(tags, next.Header, next.Groups)
	return next, false
}

func degenerateMedia(tags []parse.Tag) Media {
	if len(tags) == 0 {
		return Media{degenerate: true}
	}
	return Media{Header: &TagGroup{Range{0, len(tags) - 1}}, degenerate: true}
}

func buildMedia(tags []parse.Tag) (s Media, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = Media{}, errors.Wrapf(errRebuildPanic, "%v", r)
		}
	}()
	if len(tags) == 0 {
		return Media{}, nil
	}

	first, last := -1, -1
	for i, t := range tags {
		if t.Kind == nil {
			return Media{}, errors.Wrapf(errNilTagKind, "tag %d", i)
		}
		if t.Kind.Scope() == parse.ScopeMediaSegment {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return Media{Header: &TagGroup{Range{0, len(tags) - 1}}}, nil
	}
	if first > 0 {
		s.Header = &TagGroup{Range{0, first - 1}}
	}
	if last < len(tags)-1 {
		s.Footer = &TagGroup{Range{last + 1, len(tags) - 1}}
	}

	seq, err := startSequence(tags[:first])
	if err != nil {
		return Media{}, err
	}

	var (
		start   = first
		cursor  time.Duration
		pending time.Duration
		disc    bool
	)
	for i := first; i <= last; i++ {
		t := tags[i]
		switch {
		case t.Kind == parse.ExtInf:
			pending = t.Duration
		case t.Kind == parse.Discontinuity:
			disc = true
		case t.Kind == parse.Location:
			if pending <= 0 {
				return Media{}, errors.Wrapf(errNoDuration, "group ending at tag %d", i)
			}
			s.Groups = append(s.Groups, MediaGroup{
				TagGroup:      TagGroup{Range{start, i}},
				MediaSequence: seq,
				Time:          TimeRange{Start: cursor, Duration: pending},
				Discontinuity: disc,
			})
			seq++
			cursor += pending
			pending, disc = 0, false
			start = i + 1
		case t.Kind.Scope() == parse.ScopeWholePlaylist:
			return Media{}, errors.Wrapf(errStrayTag, "%s at tag %d", t.Name, i)
		}
	}
	if start <= last {
		return Media{}, errors.Wrapf(errNoLocation, "group starting at tag %d", start)
	}
	s.Spans = buildSpans(tags, s.Header, s.Groups)
	return s, nil
}

// startSequence reads the explicit media sequence and the skipped segment
// count from the header tags.
func startSequence(header []parse.Tag) (int, error) {
	var (
		seq, skip         int
		haveSeq, haveSkip bool
	)
	for _, t := range header {
		switch {
		case t.Kind == parse.MediaSequence && !haveSeq:
			n, err := strconv.Atoi(strings.TrimSpace(t.Value))
			if err != nil {
				return 0, errors.Wrapf(errBadSequence, "%q", t.Value)
			}
			seq, haveSeq = n, true
		case t.Kind == parse.Skip && !haveSkip:
			v, _ := t.Attr("SKIPPED-SEGMENTS")
			n, err := strconv.Atoi(v)
			if err != nil {
				return 0, errors.Wrapf(errBadSequence, "skipped segments %q", v)
			}
			skip, haveSkip = n, true
		}
	}
	return seq + skip, nil
}

type openSpan struct {
	tag   parse.Tag
	index int
	start int
}

// buildSpans walks the header and segment groups for spanning tags. Each
// spanning tag kind is tracked on its own. Ranges are clamped to tags so
// an intermediate patch state cannot index past the sequence.
func buildSpans(tags []parse.Tag, header *TagGroup, groups []MediaGroup) []Span {
	if len(groups) == 0 {
		return nil
	}
	var (
		spans []Span
		open  = map[string]*openSpan{}
		order []string
	)
	visit := func(i, g int) {
		t := tags[i]
		if t.Kind == nil || t.Kind.Scope() != parse.ScopeSpanning {
			return
		}
		name := t.Kind.Name()
		prev, ok := open[name]
		switch {
		case !ok:
			order = append(order, name)
		case prev.start < g:
			spans = append(spans, Span{Tag: prev.tag, TagIndex: prev.index, Range: Range{prev.start, g - 1}})
		}
		// an open span that starts at g covers no group once redefined
		open[name] = &openSpan{tag: t, index: i, start: g}
	}

	if header != nil {
		for i := header.Range.Start; i <= header.Range.End && i < len(tags); i++ {
			visit(i, 0)
		}
	}
	for g, group := range groups {
		for i := group.Range.Start; i <= group.Range.End && i < len(tags); i++ {
			visit(i, g)
		}
	}
	for _, name := range order {
		o := open[name]
		spans = append(spans, Span{Tag: o.tag, TagIndex: o.index, Range: Range{o.start, len(groups) - 1}})
	}

	slices.SortFunc(spans, func(a, b Span) int {
		if a.Range.Start != b.Range.Start {
			return a.Range.Start - b.Range.Start
		}
		return a.TagIndex - b.TagIndex
	})
	return spans
}

type region int

const (
	regionHeader region = iota
	regionFirstGroup
	regionGroup
	regionFooter
)

// patchMedia shifts region boundaries around a non-structural edit. It
// reports false when the edit cannot be patched and needs a rebuild.
func patchMedia(edit Edit, prev Media) (Media, bool) {
	if prev.degenerate {
		return Media{}, false
	}
	if edit.Delta == 0 {
		return prev, true
	}
	at, delta := edit.At, edit.Delta
	found, ok := false, true

	patch := func(r Range, kind region) Range {
		if found {
			return r.shift(delta)
		}
		if !ok || !r.Contains(at) {
			return r
		}
		switch {
		case delta < 0 && !r.Contains(at-delta):
			ok = false
		case !fits(kind, at == r.Start, edit):
			ok = false
		default:
			found = true
			return Range{r.Start, r.End + delta}
		}
		return r
	}

	var next Media
	if prev.Header != nil {
		next.Header = &TagGroup{patch(prev.Header.Range, regionHeader)}
	}
	if prev.Groups != nil {
		next.Groups = make([]MediaGroup, len(prev.Groups))
		for i, g := range prev.Groups {
			kind := regionGroup
			if i == 0 {
				kind = regionFirstGroup
			}
			g.Range = patch(g.Range, kind)
			next.Groups[i] = g
		}
	}
	if prev.Footer != nil {
		next.Footer = &TagGroup{patch(prev.Footer.Range, regionFooter)}
	}
	if !ok || !found {
		return Media{}, false
	}
	return next, true
}

// fits reports whether edit can stay inside a region of the given kind
// without moving a header, group or footer boundary.
func fits(kind region, atStart bool, edit Edit) bool {
	if kind == regionFirstGroup && atStart {
		// the header ends right before the first media segment tag
		if edit.Delta < 0 {
			return false
		}
		for _, t := range edit.Inserted {
			if t.Kind.Scope() != parse.ScopeMediaSegment {
				return false
			}
		}
		return true
	}
	for _, t := range edit.Inserted {
		switch scope := t.Kind.Scope(); kind {
		case regionHeader, regionFooter:
			if scope == parse.ScopeMediaSegment {
				return false
			}
		default:
			if scope == parse.ScopeWholePlaylist {
				return false
			}
		}
	}
	return true
}
